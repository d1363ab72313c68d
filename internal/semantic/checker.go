package semantic

import (
	"math"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// checker performs the enrichment pass: it resolves the type of every
// expression and binds every variable use.
type checker struct {
	ctx   *Context
	scope *Scope

	// Context tracking
	setup  *SetupInfo // Enclosing setup, nil at top level
	scene  *SceneInfo // Enclosing scene or method, nil in constructors and initializers
	inLoop int        // Loop nesting depth

	// Globals or fields whose initializers have not run yet. Only
	// consulted while an initializer is being checked.
	pending map[ast.BindingID]bool
}

var (
	_ ast.ExprVisitor[types.Type] = (*checker)(nil)
	_ ast.StmtVisitor[struct{}]   = (*checker)(nil)
)

func newChecker(ctx *Context) *checker {
	return &checker{ctx: ctx, scope: ctx.Globals}
}

func (c *checker) checkProgram(prog *ast.Program) {
	// Globals are initialized in declaration order.
	unset := make(map[ast.BindingID]bool, len(c.ctx.GlobalVars))
	for _, id := range c.ctx.GlobalVars {
		unset[id] = true
	}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			c.checkInit(d.Init, d.Binding(), unset)
		case *ast.SceneDecl:
			c.checkScene(c.ctx.scenes[d.Name])
		case *ast.SetupDecl:
			c.checkSetup(c.ctx.setups[d.Name])
		}
	}
}

func (c *checker) checkSetup(info *SetupInfo) {
	c.setup = info
	c.scope = NewScope(c.ctx.Globals, info.Name)
	for _, id := range info.Fields {
		c.scope.Define(c.ctx.Binding(id).Name, id)
	}

	unset := make(map[ast.BindingID]bool, len(info.Fields))
	for _, id := range info.Fields {
		unset[id] = true
	}
	for i, f := range info.Decl.Fields {
		c.checkInit(f.Init, info.Fields[i], unset)
	}

	if ctor := info.Decl.Ctor; ctor != nil {
		c.checkBody(ctor.Params, info.CtorParams, ctor.Body, nil)
	}
	for _, m := range info.Methods {
		c.checkBody(m.Decl.Params, m.Params, m.Decl.Body, m)
	}

	c.setup = nil
	c.scope = c.ctx.Globals
}

// checkInit checks the initializer of a global or field, which may only
// read variables initialized before it. The variable itself is removed
// from unset afterwards.
func (c *checker) checkInit(init ast.Expr, id ast.BindingID, unset map[ast.BindingID]bool) {
	if init != nil {
		c.pending = unset
		c.expectAssignable(init, c.ctx.Binding(id).Type)
		c.pending = nil
	}
	delete(unset, id)
}

func (c *checker) checkScene(info *SceneInfo) {
	c.checkBody(info.Decl.Params, info.Params, info.Decl.Body, info)
}

// checkBody binds parameters in a fresh scope and checks the body.
func (c *checker) checkBody(params []*ast.Param, typs []types.Type, body *ast.BlockStmt, scene *SceneInfo) {
	outer := c.scope
	c.scope = NewScope(outer, "params")
	c.scene = scene
	for i, p := range params {
		id := c.ctx.newBinding(Binding{
			Name:  p.Name,
			Kind:  BindParam,
			Type:  typs[i],
			Pos:   p.StartPos,
			Param: p,
		})
		c.scope.Define(p.Name, id)
		p.Bind(id)
	}
	c.checkBlock(body)
	c.scene = nil
	c.scope = outer
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

func (c *checker) checkStmt(s ast.Stmt) {
	ast.AcceptStmt[struct{}](s, c)
}

func (c *checker) checkBlock(b *ast.BlockStmt) {
	c.pushScope("block")
	for _, s := range b.Items {
		c.checkStmt(s)
	}
	c.popScope()
}

func (c *checker) pushScope(name string) {
	c.scope = NewScope(c.scope, name)
}

func (c *checker) popScope() {
	c.scope = c.scope.Parent()
}

func (c *checker) VisitBlock(s *ast.BlockStmt) struct{} {
	c.checkBlock(s)
	return struct{}{}
}

func (c *checker) VisitVar(s *ast.VarStmt) struct{} {
	d := s.Decl
	typ := resolveType(c.ctx, d.Type)
	// The initializer is checked before the name is in scope.
	if d.Init != nil {
		c.expectAssignable(d.Init, typ)
	}
	id := c.ctx.newBinding(Binding{
		Name: d.Name,
		Kind: BindLocal,
		Type: typ,
		Pos:  d.NamePos,
		Decl: d,
	})
	if !c.scope.Define(d.Name, id) {
		fail(d.NamePos, errDuplicateVar, d.Name)
	}
	d.Bind(id)
	return struct{}{}
}

func (c *checker) VisitExprStmt(s *ast.ExprStmt) struct{} {
	c.check(s.Expr)
	return struct{}{}
}

func (c *checker) VisitIf(s *ast.IfStmt) struct{} {
	c.checkCondition(s.If.Cond)
	c.checkBlock(s.If.Body)
	for _, b := range s.Elifs {
		c.checkCondition(b.Cond)
		c.checkBlock(b.Body)
	}
	if s.Else != nil {
		c.checkBlock(s.Else)
	}
	return struct{}{}
}

func (c *checker) VisitWhile(s *ast.WhileStmt) struct{} {
	c.checkCondition(s.Cond)
	c.inLoop++
	c.checkBlock(s.Body)
	c.inLoop--
	return struct{}{}
}

func (c *checker) VisitFor(s *ast.ForStmt) struct{} {
	c.pushScope("for")
	if s.Init != nil {
		c.checkStmt(s.Init)
	}
	if s.Cond != nil {
		c.checkCondition(s.Cond)
	}
	if s.Post != nil {
		c.check(s.Post)
	}
	c.inLoop++
	c.checkBlock(s.Body)
	c.inLoop--
	c.popScope()
	return struct{}{}
}

func (c *checker) VisitReturn(s *ast.ReturnStmt) struct{} {
	if c.scene == nil {
		if s.Value != nil {
			fail(s.Value.Pos(), errCtorReturn, c.setup.Name)
		}
		return struct{}{}
	}
	result := c.scene.Result
	switch {
	case s.Value == nil:
		if !result.IsVoid() {
			fail(s.StartPos, errReturnMissing, c.scene.describe(), result)
		}
	case result.IsVoid():
		fail(s.Value.Pos(), errReturnValue, c.scene.describe())
	default:
		c.expectAssignable(s.Value, result)
	}
	return struct{}{}
}

func (c *checker) VisitBreak(s *ast.BreakStmt) struct{} {
	if c.inLoop == 0 {
		fail(s.StartPos, errBreakOutsideLoop)
	}
	return struct{}{}
}

func (c *checker) VisitContinue(s *ast.ContinueStmt) struct{} {
	if c.inLoop == 0 {
		fail(s.StartPos, errSkipOutsideLoop)
	}
	return struct{}{}
}

func (c *checker) checkCondition(e ast.Expr) {
	if t := c.check(e); !t.Is(types.Bool) {
		fail(e.Pos(), errCondition, t)
	}
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// check resolves and records the type of e.
func (c *checker) check(e ast.Expr) types.Type {
	t := ast.AcceptExpr[types.Type](e, c)
	e.SetType(t)
	return t
}

// checkValue is check for operands that must produce a value.
func (c *checker) checkValue(e ast.Expr) types.Type {
	t := c.check(e)
	if t.IsVoid() {
		fail(e.Pos(), errVoidValue, describeExpr(e))
	}
	return t
}

// expectAssignable checks e and verifies it can be stored in a location of
// type want.
func (c *checker) expectAssignable(e ast.Expr, want types.Type) types.Type {
	t := c.checkValue(e)
	if !t.AssignableTo(want) {
		fail(e.Pos(), errTypeMismatch, t, want)
	}
	return t
}

func (c *checker) VisitLiteral(e *ast.Literal) types.Type {
	switch e.Kind {
	case token.INTLIT:
		return types.IntType
	case token.DBLLIT:
		return types.DoubleType
	case token.STRLIT:
		return types.StringType
	case token.CHRLIT:
		return types.CharType
	case token.TRUE, token.FALSE:
		return types.BoolType
	default:
		return types.NullType
	}
}

func (c *checker) VisitIdent(e *ast.Ident) types.Type {
	id, ok := c.scope.Lookup(e.Name)
	if !ok {
		if _, isScene := c.ctx.scenes[e.Name]; isScene {
			fail(e.StartPos, errSceneAsValue, e.Name)
		}
		fail(e.StartPos, errUndefinedVar, e.Name)
	}
	if c.pending[id] {
		fail(e.StartPos, errForwardRef, e.Name)
	}
	e.Bind(id)
	return c.ctx.Binding(id).Type
}

func (c *checker) VisitThis(e *ast.ThisExpr) types.Type {
	if c.setup == nil {
		fail(e.StartPos, errThisOutsideSetup)
	}
	return c.setup.Type()
}

func (c *checker) VisitAssign(e *ast.AssignExpr) types.Type {
	target := c.check(e.Target)
	c.checkStore(e.Op, target, e.Value)
	return target
}

func (c *checker) VisitSet(e *ast.SetExpr) types.Type {
	obj := c.checkValue(e.Object)
	if obj.IsArray() && e.Name == "length" {
		fail(e.NamePos, errAssignLength)
	}
	target := c.fieldType(obj, e.Name, e.NamePos)
	c.checkStore(e.Op, target, e.Value)
	return target
}

// checkStore checks the value side of a plain or compound assignment to a
// location of type target.
func (c *checker) checkStore(op token.Token, target types.Type, value ast.Expr) {
	if op == token.ASSIGN {
		c.expectAssignable(value, target)
		return
	}
	v := c.checkValue(value)
	bin := op.BinaryOf()
	result, ok := binaryResult(bin, target, v)
	if !ok {
		fail(value.Pos(), errBinaryOperands, op, target, v)
	}
	if !result.AssignableTo(target) {
		fail(value.Pos(), errTypeMismatch, result, target)
	}
}

func (c *checker) VisitBinary(e *ast.BinaryExpr) types.Type {
	l := c.checkValue(e.Left)
	r := c.checkValue(e.Right)
	t, ok := binaryResult(e.Op, l, r)
	if !ok {
		fail(e.StartPos, errBinaryOperands, e.Op, l, r)
	}
	return t
}

// binaryResult returns the type of l op r, or false if the operator does
// not apply.
func binaryResult(op token.Token, l, r types.Type) (types.Type, bool) {
	switch op {
	case token.ADD:
		if l.Is(types.String) || r.Is(types.String) {
			return types.StringType, true
		}
		fallthrough
	case token.SUB, token.MUL, token.DIV, token.MOD:
		if l.IsNumeric() && r.IsNumeric() {
			return types.Arithmetic(l, r), true
		}
	case token.LESS, token.LTE, token.GREATER, token.GTE:
		if l.IsNumeric() && r.IsNumeric() {
			return types.BoolType, true
		}
	case token.EQUALS, token.NOT_EQUALS:
		if types.Comparable(l, r) {
			return types.BoolType, true
		}
	}
	return types.Type{}, false
}

func (c *checker) VisitLogical(e *ast.LogicalExpr) types.Type {
	l := c.checkValue(e.Left)
	r := c.checkValue(e.Right)
	if !l.Is(types.Bool) || !r.Is(types.Bool) {
		fail(e.StartPos, errBinaryOperands, e.Op, l, r)
	}
	return types.BoolType
}

func (c *checker) VisitUnary(e *ast.UnaryExpr) types.Type {
	t := c.checkValue(e.Operand)
	switch e.Op {
	case token.NOT:
		if !t.Is(types.Bool) {
			fail(e.StartPos, errUnaryOperand, e.Op, t)
		}
	default: // - + ++ --
		if !t.IsNumeric() {
			fail(e.StartPos, errUnaryOperand, e.Op, t)
		}
		if e.Op == token.INCR || e.Op == token.DECR {
			checkNotLength(e.Operand)
		}
	}
	return t
}

func (c *checker) VisitPostfix(e *ast.PostfixExpr) types.Type {
	t := c.checkValue(e.Target)
	if !t.IsNumeric() {
		fail(e.EndPos, errUnaryOperand, e.Op, t)
	}
	checkNotLength(e.Target)
	return t
}

// checkNotLength rejects increment targets that name the length of an
// array. The target must already be checked.
func checkNotLength(target ast.Expr) {
	for {
		g, ok := target.(*ast.GroupExpr)
		if !ok {
			break
		}
		target = g.Expr
	}
	if get, ok := target.(*ast.GetExpr); ok && get.Name == "length" && get.Object.Type().IsArray() {
		fail(get.NamePos, errAssignLength)
	}
}

func (c *checker) VisitGroup(e *ast.GroupExpr) types.Type {
	return c.check(e.Expr)
}

func (c *checker) VisitCast(e *ast.CastExpr) types.Type {
	from := c.checkValue(e.Expr)
	switch e.To {
	case token.INT:
		switch {
		case from.Is(types.Int), from.Is(types.Char):
		case from.Is(types.Double):
			c.checkNarrowing(e.Expr)
		default:
			fail(e.Expr.Pos(), errCast, from, "int")
		}
		return types.IntType
	case token.DOUBLE:
		if !from.IsNumeric() {
			fail(e.Expr.Pos(), errCast, from, "double")
		}
		return types.DoubleType
	default: // CHAR
		if !from.Is(types.Int) && !from.Is(types.Char) {
			fail(e.Expr.Pos(), errCast, from, "char")
		}
		return types.CharType
	}
}

// checkNarrowing allows double to int only for a literal, optionally
// negated or parenthesized, whose value has no fractional part.
func (c *checker) checkNarrowing(e ast.Expr) {
	inner := ast.Unparen(e)
	if u, ok := inner.(*ast.UnaryExpr); ok && (u.Op == token.SUB || u.Op == token.ADD) {
		inner = ast.Unparen(u.Operand)
	}
	lit, ok := inner.(*ast.Literal)
	if !ok || lit.Kind != token.DBLLIT {
		fail(e.Pos(), errCastNotLiteral)
	}
	if lit.Float != math.Trunc(lit.Float) || math.IsInf(lit.Float, 0) {
		fail(e.Pos(), errCastFraction, lit.Raw)
	}
}

func (c *checker) VisitCall(e *ast.CallExpr) types.Type {
	var callee *SceneInfo
	switch fn := e.Callee.(type) {
	case *ast.Ident:
		s, ok := c.ctx.scenes[fn.Name]
		if !ok {
			fail(fn.StartPos, errUndefinedScene, fn.Name)
		}
		callee = s
	case *ast.GetExpr:
		obj := c.checkValue(fn.Object)
		if !obj.IsSetup() {
			fail(fn.NamePos, errNotSetup, fn.Name, obj)
		}
		m, ok := c.ctx.setups[obj.Name].Method(fn.Name)
		if !ok {
			fail(fn.NamePos, errNoMethod, obj.Name, fn.Name)
		}
		callee = m
	}

	c.checkArgs(e, callee.describe(), callee.Params, callee.Builtin == BuiltinProject)
	c.ctx.calls[e] = callee
	// The callee names a scene rather than a value; it carries the call's
	// result type so every expression node is typed.
	e.Callee.SetType(callee.Result)
	return callee.Result
}

// checkArgs checks call arguments against parameter types. anyValue
// accepts exactly one argument of any non-scrap type.
func (c *checker) checkArgs(e ast.Node, name string, params []types.Type, anyValue bool) {
	var args []ast.Expr
	switch n := e.(type) {
	case *ast.CallExpr:
		args = n.Args
	case *ast.NewExpr:
		args = n.Args
	}
	want := len(params)
	if anyValue {
		want = 1
	}
	if len(args) != want {
		fail(e.Pos(), errArgCount, name, want, len(args))
	}
	for i, a := range args {
		t := c.checkValue(a)
		if anyValue {
			continue
		}
		if !t.AssignableTo(params[i]) {
			fail(a.Pos(), errArgType, i+1, name, t, params[i])
		}
	}
}

func (c *checker) VisitGet(e *ast.GetExpr) types.Type {
	obj := c.checkValue(e.Object)
	if obj.IsArray() && e.Name == "length" {
		return types.IntType
	}
	return c.fieldType(obj, e.Name, e.NamePos)
}

// fieldType returns the type of field name of a value of type obj.
func (c *checker) fieldType(obj types.Type, name string, pos token.Position) types.Type {
	if !obj.IsSetup() {
		fail(pos, errNotSetup, name, obj)
	}
	id, ok := c.ctx.setups[obj.Name].Field(name)
	if !ok {
		fail(pos, errNoField, obj.Name, name)
	}
	return c.ctx.Binding(id).Type
}

func (c *checker) VisitIndex(e *ast.IndexExpr) types.Type {
	arr := c.checkValue(e.Array)
	if !arr.IsArray() {
		fail(e.Array.Pos(), errNotArray, arr)
	}
	if idx := c.checkValue(e.Index); !idx.Is(types.Int) {
		fail(e.Index.Pos(), errIndexType, idx)
	}
	return arr.Elem()
}

func (c *checker) VisitNew(e *ast.NewExpr) types.Type {
	typ := resolveType(c.ctx, e.Ref)

	if e.IsObject() {
		if !typ.IsSetup() {
			fail(e.Ref.StartPos, errNotConstructible, typ)
		}
		c.checkArgs(e, "constructor of "+typ.Name, c.ctx.setups[typ.Name].CtorParams, false)
		return typ
	}

	for _, size := range e.Caps {
		if t := c.checkValue(size); !t.Is(types.Int) {
			fail(size.Pos(), errCapacityType, t)
		}
	}
	if e.Init != nil {
		if len(e.Caps) != 1 {
			fail(e.Init.StartPos, errInitCapacity, len(e.Caps))
		}
		c.checkElems(e.Init, typ)
		if n, ok := literalInt(e.Caps[0]); ok && n < int64(len(e.Init.Elems)) {
			fail(e.Init.StartPos, errInitTooLong, len(e.Init.Elems), n)
		}
	}
	return typ
}

// literalInt returns the value of an int literal, looking through
// parentheses and a unary sign.
func literalInt(e ast.Expr) (int64, bool) {
	inner := ast.Unparen(e)
	sign := int64(1)
	if u, ok := inner.(*ast.UnaryExpr); ok && (u.Op == token.SUB || u.Op == token.ADD) {
		if u.Op == token.SUB {
			sign = -1
		}
		inner = ast.Unparen(u.Operand)
	}
	lit, ok := inner.(*ast.Literal)
	if !ok || lit.Kind != token.INTLIT {
		return 0, false
	}
	return sign * lit.Int, true
}

func (c *checker) VisitArrayLit(e *ast.ArrayLit) types.Type {
	if e.Ref == nil {
		fail(e.StartPos, errLiteralType)
	}
	typ := resolveType(c.ctx, e.Ref)
	c.checkElemList(e, typ)
	return typ
}

// checkElems checks a nested literal against the array type it must
// produce and records that type on it.
func (c *checker) checkElems(lit *ast.ArrayLit, typ types.Type) {
	if !typ.IsArray() {
		fail(lit.StartPos, errBareElems, typ)
	}
	c.checkElemList(lit, typ)
	lit.SetType(typ)
}

func (c *checker) checkElemList(lit *ast.ArrayLit, typ types.Type) {
	elem := typ.Elem()
	for _, el := range lit.Elems {
		if nested, ok := el.(*ast.ArrayLit); ok && nested.Ref == nil {
			c.checkElems(nested, elem)
			continue
		}
		c.expectAssignable(el, elem)
	}
}

// describeExpr names an expression in error messages.
func describeExpr(e ast.Expr) string {
	if call, ok := e.(*ast.CallExpr); ok {
		switch fn := call.Callee.(type) {
		case *ast.Ident:
			return "call of " + fn.Name
		case *ast.GetExpr:
			return "call of " + fn.Name
		}
	}
	return "expression"
}
