package compiler

import (
	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/semantic"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// expr compiles an expression, leaving its value on the stack. Scrap
// calls leave nothing.
func (c *compiler) expr(e ast.Expr) {
	ast.AcceptExpr[struct{}](e, c)
}

// exprAs compiles e for a location of type t, widening int to double.
func (c *compiler) exprAs(e ast.Expr, t types.Type) {
	c.expr(e)
	c.widen(e.Type(), t)
}

func (c *compiler) VisitLiteral(e *ast.Literal) struct{} {
	switch e.Kind {
	case token.INTLIT:
		c.pushInt(e.Int)
	case token.CHRLIT:
		if e.Int < 0 || e.Int > 0xFFFF {
			fail(e.StartPos, "character %s does not fit in a char", e.Raw)
		}
		c.pushInt(e.Int)
	case token.DBLLIT:
		c.pushDouble(e.Float)
	case token.STRLIT:
		c.code.EmitConst(e.Str)
	case token.TRUE:
		c.code.Emit(classfile.Iconst1)
	case token.FALSE:
		c.code.Emit(classfile.Iconst0)
	default:
		c.code.Emit(classfile.AconstNull)
	}
	return struct{}{}
}

func (c *compiler) VisitIdent(e *ast.Ident) struct{} {
	c.loadLvalue(c.identLvalue(e))
	return struct{}{}
}

func (c *compiler) VisitThis(e *ast.ThisExpr) struct{} {
	c.gen.requireClasses(e.StartPos, "'@'")
	if c.setup == nil {
		fail(e.StartPos, "'@' outside a setup")
	}
	c.code.Emit(classfile.Aload0)
	return struct{}{}
}

func (c *compiler) VisitGroup(e *ast.GroupExpr) struct{} {
	c.expr(e.Expr)
	return struct{}{}
}

// -----------------------------------------------------------------------------
// Assignment
// -----------------------------------------------------------------------------

func (c *compiler) VisitAssign(e *ast.AssignExpr) struct{} {
	c.assign(e.Target, e.Op, e.Value, true)
	return struct{}{}
}

func (c *compiler) VisitSet(e *ast.SetExpr) struct{} {
	c.assignField(e, true)
	return struct{}{}
}

// assign stores into target. With keep the stored value stays on the
// stack as the expression's result.
func (c *compiler) assign(target ast.Expr, op token.Token, value ast.Expr, keep bool) {
	c.assignTo(c.lvalue(target), op, value, keep)
}

func (c *compiler) assignField(e *ast.SetExpr, keep bool) {
	c.gen.requireClasses(e.NamePos, "field assignment")
	c.expr(e.Object)
	lv := lvalue{kind: lvField, typ: e.Type(), ref: c.fieldRef(e.Object.Type().Name, e.Name, e.Type())}
	c.assignTo(lv, e.Op, e.Value, keep)
}

func (c *compiler) assignTo(lv lvalue, op token.Token, value ast.Expr, keep bool) {
	if op == token.ASSIGN {
		c.exprAs(value, lv.typ)
	} else {
		c.dupOperands(lv)
		c.loadLvalue(lv)
		c.combine(op.BinaryOf(), lv.typ, value)
	}
	if keep {
		c.dupValue(lv)
	}
	c.storeLvalue(lv)
}

// combine applies "current op value" where the current value of type t is
// already on the stack. The result has type t.
func (c *compiler) combine(op token.Token, t types.Type, value ast.Expr) {
	if t.Is(types.String) {
		c.newBuilder()
		c.code.Emit(classfile.Swap)
		c.appendValue(t)
		c.expr(value)
		c.appendValue(value.Type())
		c.builderString()
		return
	}
	c.exprAs(value, t)
	c.arithmetic(op, t)
}

// increment compiles ++ and --. prefix selects whether the kept result is
// the new or the old value.
func (c *compiler) increment(target ast.Expr, op token.Token, prefix, keep bool) {
	lv := c.lvalue(target)
	delta := 1
	if op == token.DECR {
		delta = -1
	}

	if lv.kind == lvLocal && lv.typ.Is(types.Int) {
		if keep && !prefix {
			c.load(lv.typ, lv.slot)
		}
		c.code.EmitIinc(lv.slot, delta)
		if keep && prefix {
			c.load(lv.typ, lv.slot)
		}
		return
	}

	c.dupOperands(lv)
	c.loadLvalue(lv)
	if keep && !prefix {
		c.dupValue(lv)
	}
	if lv.typ.Is(types.Double) {
		c.code.Emit(classfile.Dconst1)
	} else {
		c.code.Emit(classfile.Iconst1)
	}
	bin := token.ADD
	if delta < 0 {
		bin = token.SUB
	}
	c.arithmetic(bin, lv.typ)
	if keep && prefix {
		c.dupValue(lv)
	}
	c.storeLvalue(lv)
}

// -----------------------------------------------------------------------------
// Operators
// -----------------------------------------------------------------------------

var (
	intArith    = map[token.Token]classfile.Opcode{token.ADD: classfile.Iadd, token.SUB: classfile.Isub, token.MUL: classfile.Imul, token.DIV: classfile.Idiv, token.MOD: classfile.Irem}
	doubleArith = map[token.Token]classfile.Opcode{token.ADD: classfile.Dadd, token.SUB: classfile.Dsub, token.MUL: classfile.Dmul, token.DIV: classfile.Ddiv, token.MOD: classfile.Drem}
)

// arithmetic emits the instruction for op on two values of type t.
func (c *compiler) arithmetic(op token.Token, t types.Type) {
	table := intArith
	if t.Is(types.Double) {
		table = doubleArith
	}
	ins, ok := table[op]
	if !ok {
		fail(token.NoPos, "no arithmetic instruction for %s", op)
	}
	c.code.Emit(ins)
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GREATER, token.GTE:
		return true
	}
	return false
}

func (c *compiler) VisitBinary(e *ast.BinaryExpr) struct{} {
	switch {
	case isComparison(e.Op):
		c.materialize(e)
	case e.Op == token.ADD && e.Type().Is(types.String):
		c.concat(e)
	default:
		t := e.Type()
		c.exprAs(e.Left, t)
		c.exprAs(e.Right, t)
		c.arithmetic(e.Op, t)
	}
	return struct{}{}
}

func (c *compiler) VisitLogical(e *ast.LogicalExpr) struct{} {
	c.materialize(e)
	return struct{}{}
}

func (c *compiler) VisitUnary(e *ast.UnaryExpr) struct{} {
	switch e.Op {
	case token.NOT:
		c.materialize(e)
	case token.SUB:
		if lit, ok := e.Operand.(*ast.Literal); ok {
			switch lit.Kind {
			case token.INTLIT:
				c.pushInt(-lit.Int)
				return struct{}{}
			case token.DBLLIT:
				c.pushDouble(-lit.Float)
				return struct{}{}
			}
		}
		c.expr(e.Operand)
		if e.Type().Is(types.Double) {
			c.code.Emit(classfile.Dneg)
		} else {
			c.code.Emit(classfile.Ineg)
		}
	case token.ADD:
		c.expr(e.Operand)
	case token.INCR, token.DECR:
		c.increment(e.Operand, e.Op, true, true)
	}
	return struct{}{}
}

func (c *compiler) VisitPostfix(e *ast.PostfixExpr) struct{} {
	c.increment(e.Target, e.Op, false, true)
	return struct{}{}
}

func (c *compiler) VisitCast(e *ast.CastExpr) struct{} {
	c.expr(e.Expr)
	from := e.Expr.Type()
	switch e.To {
	case token.INT:
		if from.Is(types.Double) {
			c.code.Emit(classfile.D2i)
		}
	case token.DOUBLE:
		c.widen(from, types.DoubleType)
	case token.CHAR:
		if from.Is(types.Int) {
			c.code.Emit(classfile.I2c)
		}
	}
	return struct{}{}
}

// materialize turns a condition into 0 or 1 on the stack.
func (c *compiler) materialize(e ast.Expr) {
	isFalse, end := c.code.NewLabel(), c.code.NewLabel()
	c.branch(e, false, isFalse)
	c.code.Emit(classfile.Iconst1)
	c.jump(end)
	c.code.Mark(isFalse)
	c.code.Emit(classfile.Iconst0)
	c.code.Mark(end)
}

// branch compiles a bool expression as control flow: it jumps to target
// when the value equals when, and falls through otherwise. && and ||
// short-circuit.
func (c *compiler) branch(e ast.Expr, when bool, target classfile.Label) {
	switch e := e.(type) {
	case *ast.GroupExpr:
		c.branch(e.Expr, when, target)
		return
	case *ast.Literal:
		if e.Kind == token.TRUE || e.Kind == token.FALSE {
			if e.Bool() == when {
				c.jump(target)
			}
			return
		}
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			c.branch(e.Operand, !when, target)
			return
		}
	case *ast.LogicalExpr:
		// a && b is false as soon as a is; a || b is true as soon as a is.
		decides := e.Op == token.OR
		if when == decides {
			c.branch(e.Left, when, target)
			c.branch(e.Right, when, target)
			return
		}
		skip := c.code.NewLabel()
		c.branch(e.Left, decides, skip)
		c.branch(e.Right, when, target)
		c.code.Mark(skip)
		return
	case *ast.BinaryExpr:
		if isComparison(e.Op) {
			c.compare(e, when, target)
			return
		}
	}
	c.expr(e)
	if when {
		c.code.EmitJump(classfile.Ifne, target)
	} else {
		c.code.EmitJump(classfile.Ifeq, target)
	}
}

var (
	negated = map[token.Token]token.Token{
		token.EQUALS: token.NOT_EQUALS, token.NOT_EQUALS: token.EQUALS,
		token.LESS: token.GTE, token.GTE: token.LESS,
		token.GREATER: token.LTE, token.LTE: token.GREATER,
	}
	intCompare = map[token.Token]classfile.Opcode{
		token.EQUALS: classfile.IfIcmpeq, token.NOT_EQUALS: classfile.IfIcmpne,
		token.LESS: classfile.IfIcmplt, token.LTE: classfile.IfIcmple,
		token.GREATER: classfile.IfIcmpgt, token.GTE: classfile.IfIcmpge,
	}
	zeroCompare = map[token.Token]classfile.Opcode{
		token.EQUALS: classfile.Ifeq, token.NOT_EQUALS: classfile.Ifne,
		token.LESS: classfile.Iflt, token.LTE: classfile.Ifle,
		token.GREATER: classfile.Ifgt, token.GTE: classfile.Ifge,
	}
)

// compare branches on a comparison. The operator is negated to jump on
// false; for doubles the dcmp variant follows the original operator so
// NaN compares false either way.
func (c *compiler) compare(e *ast.BinaryExpr, when bool, target classfile.Label) {
	op := e.Op
	if !when {
		op = negated[op]
	}
	l, r := e.Left.Type(), e.Right.Type()

	switch {
	case l.IsNumeric() && r.IsNumeric():
		if l.Is(types.Double) || r.Is(types.Double) {
			c.exprAs(e.Left, types.DoubleType)
			c.exprAs(e.Right, types.DoubleType)
			if e.Op == token.LESS || e.Op == token.LTE {
				c.code.Emit(classfile.Dcmpg)
			} else {
				c.code.Emit(classfile.Dcmpl)
			}
			c.code.EmitJump(zeroCompare[op], target)
			return
		}
		c.expr(e.Left)
		c.expr(e.Right)
		c.code.EmitJump(intCompare[op], target)

	case !l.IsReference() && !r.IsReference():
		// bool and char equality
		c.expr(e.Left)
		c.expr(e.Right)
		c.code.EmitJump(intCompare[op], target)

	case l.Is(types.Null) != r.Is(types.Null):
		other := e.Left
		if l.Is(types.Null) {
			other = e.Right
		}
		c.expr(other)
		if op == token.EQUALS {
			c.code.EmitJump(classfile.Ifnull, target)
		} else {
			c.code.EmitJump(classfile.Ifnonnull, target)
		}

	case l.Is(types.String) && r.Is(types.String):
		c.expr(e.Left)
		c.expr(e.Right)
		c.code.EmitMember(classfile.Invokestatic, objectsClass, "equals", "(L"+objectClass+";L"+objectClass+";)Z")
		if op == token.EQUALS {
			c.code.EmitJump(classfile.Ifne, target)
		} else {
			c.code.EmitJump(classfile.Ifeq, target)
		}

	default:
		// identity of setups and arrays
		c.expr(e.Left)
		c.expr(e.Right)
		if op == token.EQUALS {
			c.code.EmitJump(classfile.IfAcmpeq, target)
		} else {
			c.code.EmitJump(classfile.IfAcmpne, target)
		}
	}
}

// -----------------------------------------------------------------------------
// String concatenation
// -----------------------------------------------------------------------------

// concat builds a string with one StringBuilder for a left-leaning chain
// of + operations.
func (c *compiler) concat(e *ast.BinaryExpr) {
	var parts []ast.Expr
	var collect func(ast.Expr)
	collect = func(x ast.Expr) {
		if b, ok := x.(*ast.BinaryExpr); ok && b.Op == token.ADD && b.Type().Is(types.String) {
			collect(b.Left)
			parts = append(parts, b.Right)
			return
		}
		parts = append(parts, x)
	}
	collect(e)

	c.newBuilder()
	for _, p := range parts {
		c.expr(p)
		c.appendValue(p.Type())
	}
	c.builderString()
}

func (c *compiler) newBuilder() {
	c.code.EmitClass(classfile.New, stringBuilderClass)
	c.code.Emit(classfile.Dup)
	c.code.EmitMember(classfile.Invokespecial, stringBuilderClass, "<init>", "()V")
}

func (c *compiler) appendValue(t types.Type) {
	c.code.EmitMember(classfile.Invokevirtual, stringBuilderClass, "append", appendDescriptor(t))
}

func (c *compiler) builderString() {
	c.code.EmitMember(classfile.Invokevirtual, stringBuilderClass, "toString", "()L"+stringClass+";")
}

// -----------------------------------------------------------------------------
// Calls and members
// -----------------------------------------------------------------------------

func (c *compiler) VisitCall(e *ast.CallExpr) struct{} {
	info := c.gen.callee(e)
	main := c.gen.main.Name

	switch info.Builtin {
	case semantic.BuiltinProject:
		arg := e.Args[0]
		c.code.EmitMember(classfile.Getstatic, systemClass, "out", "L"+printStreamClass+";")
		c.expr(arg)
		c.code.EmitMember(classfile.Invokevirtual, printStreamClass, "println", printDescriptor(arg.Type()))
		return struct{}{}
	case semantic.BuiltinCapture:
		c.code.EmitMember(classfile.Invokestatic, main, "capture", "()L"+stringClass+";")
		return struct{}{}
	}

	desc := methodDescriptor(info.Params, info.Result)
	if info.IsMethod() {
		c.gen.requireClasses(e.StartPos, "method call")
		get := e.Callee.(*ast.GetExpr)
		c.expr(get.Object)
		c.args(e.Args, info.Params)
		c.code.EmitMember(classfile.Invokevirtual, info.Owner, info.Name, desc)
		return struct{}{}
	}
	c.args(e.Args, info.Params)
	c.code.EmitMember(classfile.Invokestatic, main, info.Name, desc)
	return struct{}{}
}

func (c *compiler) args(args []ast.Expr, params []types.Type) {
	for i, a := range args {
		c.exprAs(a, params[i])
	}
}

func (c *compiler) VisitGet(e *ast.GetExpr) struct{} {
	obj := e.Object.Type()
	if obj.IsArray() && e.Name == "length" {
		c.expr(e.Object)
		c.code.Emit(classfile.Arraylength)
		return struct{}{}
	}
	c.gen.requireClasses(e.NamePos, "field access")
	c.expr(e.Object)
	c.code.EmitMember(classfile.Getfield, obj.Name, e.Name, descriptor(e.Type()))
	return struct{}{}
}

func (c *compiler) VisitIndex(e *ast.IndexExpr) struct{} {
	c.expr(e.Array)
	c.expr(e.Index)
	c.code.Emit(arrayLoadOp(e.Type()))
	return struct{}{}
}

// -----------------------------------------------------------------------------
// Allocation
// -----------------------------------------------------------------------------

func (c *compiler) VisitNew(e *ast.NewExpr) struct{} {
	t := e.Type()
	if e.IsObject() {
		c.gen.requireClasses(e.StartPos, "object allocation")
		setup, ok := c.gen.ctx.Setup(t.Name)
		if !ok {
			fail(e.StartPos, "unknown setup %s", t.Name)
		}
		c.code.EmitClass(classfile.New, t.Name)
		c.code.Emit(classfile.Dup)
		c.args(e.Args, setup.CtorParams)
		c.code.EmitMember(classfile.Invokespecial, t.Name, "<init>", methodDescriptor(setup.CtorParams, types.ScrapType))
		return struct{}{}
	}

	if len(e.Caps) > 1 {
		for _, size := range e.Caps {
			c.expr(size)
		}
		c.code.EmitMultiNewArray(descriptor(t), len(e.Caps))
		return struct{}{}
	}
	c.expr(e.Caps[0])
	c.newArray(t)
	if e.Init != nil {
		c.fill(t, e.Init.Elems)
	}
	return struct{}{}
}

func (c *compiler) VisitArrayLit(e *ast.ArrayLit) struct{} {
	t := e.Type()
	c.pushInt(int64(len(e.Elems)))
	c.newArray(t)
	c.fill(t, e.Elems)
	return struct{}{}
}

// newArray allocates a one-dimensional array of type t; the length is on
// the stack.
func (c *compiler) newArray(t types.Type) {
	elem := t.Elem()
	if code, ok := newarrayType(elem); ok {
		c.code.EmitArg(classfile.Newarray, code)
		return
	}
	c.code.EmitClass(classfile.Anewarray, classRef(elem))
}

// fill stores elems into the leading elements of the array on the stack,
// keeping the array.
func (c *compiler) fill(t types.Type, elems []ast.Expr) {
	elem := t.Elem()
	store := arrayStoreOp(elem)
	for i, el := range elems {
		c.code.Emit(classfile.Dup)
		c.pushInt(int64(i))
		c.exprAs(el, elem)
		c.code.Emit(store)
	}
}
