package compiler

import (
	"math"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/semantic"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// compiler holds the state for compiling a single method. It is discarded
// once the method is finished.
type compiler struct {
	gen    *generator
	class  string // binary name of the class being generated
	method *classfile.Method
	code   *classfile.Code
	setup  *semantic.SetupInfo // enclosing setup for constructors and methods

	slots map[ast.BindingID]int
	next  int // next free local slot

	result types.Type // declared result of the scene being compiled

	breaks    []classfile.Label // Stack of exit targets
	continues []classfile.Label // Stack of skip targets
}

var (
	_ ast.ExprVisitor[struct{}] = (*compiler)(nil)
	_ ast.StmtVisitor[struct{}] = (*compiler)(nil)
)

func newCompiler(g *generator, class string, m *classfile.Method, setup *semantic.SetupInfo, static bool) *compiler {
	c := &compiler{
		gen:    g,
		class:  class,
		method: m,
		code:   m.Code,
		setup:  setup,
		slots:  make(map[ast.BindingID]int),
		result: types.ScrapType,
	}
	if !static {
		c.next = 1 // this
	}
	return c
}

// params assigns slots to parameters, in order, after the receiver.
func (c *compiler) params(params []*ast.Param, typs []types.Type) {
	for i, p := range params {
		c.allocate(p.Binding(), typs[i], p.StartPos)
	}
}

// allocate gives a binding the next slot. Double values take two.
func (c *compiler) allocate(id ast.BindingID, t types.Type, pos token.Position) int {
	slot := c.next
	if slot > math.MaxUint8 {
		fail(pos, "too many local variables in %s: slot %d exceeds %d", c.method.Name, slot, math.MaxUint8)
	}
	c.slots[id] = slot
	c.next += t.Size()
	return slot
}

func (c *compiler) slot(id ast.BindingID, pos token.Position) int {
	slot, ok := c.slots[id]
	if !ok {
		fail(pos, "variable %q has no slot", c.gen.ctx.Binding(id).Name)
	}
	return slot
}

// finish appends a default return so control never runs off the end, and
// records the number of local slots used.
func (c *compiler) finish(result types.Type) {
	if result.IsVoid() {
		c.code.Emit(classfile.Return)
	} else {
		c.pushDefaultResult(result)
		c.code.Emit(returnOps[familyOf(result)])
	}
	c.method.MaxLocals = c.next
}

// pushDefaultResult pushes the value a scene returns when its body ends
// without a cut: zero, an empty string, or null.
func (c *compiler) pushDefaultResult(t types.Type) {
	if t.Is(types.String) {
		c.code.EmitConst("")
		return
	}
	c.pushZero(t)
}

// pushZero pushes the value a variable declared without an initializer
// starts with.
func (c *compiler) pushZero(t types.Type) {
	switch familyOf(t) {
	case famRef:
		c.code.Emit(classfile.AconstNull)
	case famDouble:
		c.code.Emit(classfile.Dconst0)
	default:
		c.code.Emit(classfile.Iconst0)
	}
}

// pushInt pushes an int constant with the shortest encoding.
func (c *compiler) pushInt(v int64) {
	switch {
	case v >= -1 && v <= 5:
		c.code.Emit(classfile.Opcode(int64(classfile.Iconst0) + v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		c.code.EmitArg(classfile.Bipush, int(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		c.code.EmitArg(classfile.Sipush, int(v))
	default:
		c.code.EmitConst(int32(v))
	}
}

// pushDouble pushes a double constant.
func (c *compiler) pushDouble(v float64) {
	switch {
	case v == 0 && !math.Signbit(v):
		c.code.Emit(classfile.Dconst0)
	case v == 1:
		c.code.Emit(classfile.Dconst1)
	default:
		c.code.EmitConst(v)
	}
}

func (c *compiler) load(t types.Type, slot int) {
	f := familyOf(t)
	if slot < 4 {
		c.code.Emit(loadShort[f][slot])
		return
	}
	c.code.EmitArg(loadOps[f], slot)
}

func (c *compiler) store(t types.Type, slot int) {
	f := familyOf(t)
	if slot < 4 {
		c.code.Emit(storeShort[f][slot])
		return
	}
	c.code.EmitArg(storeOps[f], slot)
}

// pop discards a value of type t.
func (c *compiler) pop(t types.Type) {
	switch t.Size() {
	case 1:
		c.code.Emit(classfile.Pop)
	case 2:
		c.code.Emit(classfile.Pop2)
	}
}

// widen converts a value of type from on the stack to type to. The only
// implicit conversion is int to double.
func (c *compiler) widen(from, to types.Type) {
	if from.Is(types.Int) && to.Is(types.Double) {
		c.code.Emit(classfile.I2d)
	}
}

// -----------------------------------------------------------------------------
// Assignable locations
// -----------------------------------------------------------------------------

type lvalueKind int

const (
	lvLocal  lvalueKind = iota // local slot
	lvStatic                   // global: static field of the program class
	lvField                    // instance field; object on the stack
	lvElem                     // array element; array and index on the stack
)

// lvalue is an assignable location whose operands (object, or array and
// index) are already on the stack.
type lvalue struct {
	kind lvalueKind
	typ  types.Type
	slot int
	ref  classfile.MemberRef
}

// operands returns how many stack slots the location's operands take.
func (lv lvalue) operands() int {
	switch lv.kind {
	case lvField:
		return 1
	case lvElem:
		return 2
	}
	return 0
}

// lvalue pushes the operands of an assignment target.
func (c *compiler) lvalue(e ast.Expr) lvalue {
	switch e := e.(type) {
	case *ast.Ident:
		return c.identLvalue(e)
	case *ast.GetExpr:
		c.gen.requireClasses(e.NamePos, "field access")
		c.expr(e.Object)
		obj := e.Object.Type()
		return lvalue{kind: lvField, typ: e.Type(), ref: c.fieldRef(obj.Name, e.Name, e.Type())}
	case *ast.IndexExpr:
		c.expr(e.Array)
		c.expr(e.Index)
		return lvalue{kind: lvElem, typ: e.Type()}
	case *ast.GroupExpr:
		return c.lvalue(e.Expr)
	}
	fail(e.Pos(), "expression is not assignable")
	panic("unreachable")
}

func (c *compiler) identLvalue(e *ast.Ident) lvalue {
	b := c.gen.ctx.Binding(e.Binding())
	switch b.Kind {
	case semantic.BindGlobal:
		return lvalue{kind: lvStatic, typ: b.Type, ref: c.globalRef(b)}
	case semantic.BindField:
		c.gen.requireClasses(e.StartPos, "field access")
		c.code.Emit(classfile.Aload0)
		return lvalue{kind: lvField, typ: b.Type, ref: c.fieldRef(b.Owner, b.Name, b.Type)}
	default:
		return lvalue{kind: lvLocal, typ: b.Type, slot: c.slot(e.Binding(), e.StartPos)}
	}
}

func (c *compiler) globalRef(b *semantic.Binding) classfile.MemberRef {
	return classfile.MemberRef{Owner: c.gen.main.Name, Name: b.Name, Desc: descriptor(b.Type)}
}

func (c *compiler) fieldRef(owner, name string, t types.Type) classfile.MemberRef {
	return classfile.MemberRef{Owner: owner, Name: name, Desc: descriptor(t)}
}

// dupOperands duplicates the location's operands so it can be read and
// then written.
func (c *compiler) dupOperands(lv lvalue) {
	switch lv.operands() {
	case 1:
		c.code.Emit(classfile.Dup)
	case 2:
		c.code.Emit(classfile.Dup2)
	}
}

// loadLvalue reads the location, consuming its operands.
func (c *compiler) loadLvalue(lv lvalue) {
	switch lv.kind {
	case lvLocal:
		c.load(lv.typ, lv.slot)
	case lvStatic:
		c.code.EmitMember(classfile.Getstatic, lv.ref.Owner, lv.ref.Name, lv.ref.Desc)
	case lvField:
		c.code.EmitMember(classfile.Getfield, lv.ref.Owner, lv.ref.Name, lv.ref.Desc)
	case lvElem:
		c.code.Emit(arrayLoadOp(lv.typ))
	}
}

// storeLvalue writes the value on top of the stack, consuming it and the
// location's operands.
func (c *compiler) storeLvalue(lv lvalue) {
	switch lv.kind {
	case lvLocal:
		c.store(lv.typ, lv.slot)
	case lvStatic:
		c.code.EmitMember(classfile.Putstatic, lv.ref.Owner, lv.ref.Name, lv.ref.Desc)
	case lvField:
		c.code.EmitMember(classfile.Putfield, lv.ref.Owner, lv.ref.Name, lv.ref.Desc)
	case lvElem:
		c.code.Emit(arrayStoreOp(lv.typ))
	}
}

// dupValueOps is indexed by value size, then by operand count.
var dupValueOps = [3][3]classfile.Opcode{
	1: {classfile.Dup, classfile.DupX1, classfile.DupX2},
	2: {classfile.Dup2, classfile.Dup2X1, classfile.Dup2X2},
}

// dupValue copies the value on top of the stack below the location's
// operands, so it survives the store as the expression's result.
func (c *compiler) dupValue(lv lvalue) {
	c.code.Emit(dupValueOps[lv.typ.Size()][lv.operands()])
}
