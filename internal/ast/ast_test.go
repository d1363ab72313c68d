package ast_test

import (
	"strings"
	"testing"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func intLit(v int64) *ast.Literal {
	return &ast.Literal{Kind: token.INTLIT, Int: v}
}

func strLit(s string) *ast.Literal {
	return &ast.Literal{Kind: token.STRLIT, Str: s}
}

func typeRef(name string, dims int) *ast.TypeRef {
	return &ast.TypeRef{Name: name, Dims: dims}
}

// TestIsLValue verifies assignable target detection.
func TestIsLValue(t *testing.T) {
	tests := []struct {
		name   string
		expr   ast.Expr
		expect bool
	}{
		{"Ident", ident("x"), true},
		{"GetExpr", &ast.GetExpr{Object: ident("p"), Name: "x"}, true},
		{"IndexExpr", &ast.IndexExpr{Array: ident("a"), Index: intLit(0)}, true},
		{"Literal", intLit(42), false},
		{"Group", &ast.GroupExpr{Expr: ident("x")}, false},
		{"BinaryExpr", &ast.BinaryExpr{}, false},
		{"CallExpr", &ast.CallExpr{}, false},
		{"This", &ast.ThisExpr{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ast.IsLValue(tt.expr); got != tt.expect {
				t.Errorf("IsLValue(%s) = %v, want %v", tt.name, got, tt.expect)
			}
		})
	}
}

func TestUnparen(t *testing.T) {
	x := ident("x")
	e := &ast.GroupExpr{Expr: &ast.GroupExpr{Expr: x}}
	if got := ast.Unparen(e); got != x {
		t.Errorf("Unparen = %T, want the inner identifier", got)
	}
	if got := ast.Unparen(x); got != x {
		t.Errorf("Unparen on a bare expression changed it")
	}
}

func TestSetTypeWriteOnce(t *testing.T) {
	lit := intLit(1)
	if lit.Type().IsValid() {
		t.Fatalf("fresh node already has type %s", lit.Type())
	}
	lit.SetType(types.IntType)
	lit.SetType(types.IntType) // same value is allowed

	defer func() {
		if recover() == nil {
			t.Error("rewriting a resolved type did not panic")
		}
	}()
	lit.SetType(types.DoubleType)
}

func TestBindWriteOnce(t *testing.T) {
	id := ident("x")
	if id.Binding() != ast.NoBinding {
		t.Fatalf("fresh identifier is bound to %d", id.Binding())
	}
	id.Bind(3)
	id.Bind(3)
	if id.Binding() != 3 {
		t.Fatalf("Binding() = %d, want 3", id.Binding())
	}

	defer func() {
		if recover() == nil {
			t.Error("rebinding did not panic")
		}
	}()
	id.Bind(4)
}

// TestWalk verifies AST walking reaches nested expressions.
func TestWalk(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.VarDecl{Name: "g", Type: typeRef("int", 0), Init: intLit(1)},
			&ast.SceneDecl{
				Name:   "entrance",
				Result: typeRef("scrap", 0),
				Body: &ast.BlockStmt{Items: []ast.Stmt{
					&ast.ExprStmt{Expr: &ast.BinaryExpr{Left: ident("x"), Op: token.ADD, Right: ident("y")}},
					&ast.IfStmt{
						If:    ast.Branch{Cond: ident("c"), Body: &ast.BlockStmt{}},
						Elifs: []ast.Branch{{Cond: ident("d"), Body: &ast.BlockStmt{}}},
					},
				}},
			},
		},
	}

	var names []string
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})

	if got := strings.Join(names, ","); got != "x,y,c,d" {
		t.Errorf("identifiers = %s, want x,y,c,d", got)
	}
}

func TestWalkPrune(t *testing.T) {
	body := &ast.BlockStmt{Items: []ast.Stmt{
		&ast.ExprStmt{Expr: ident("hidden")},
	}}
	scene := &ast.SceneDecl{Name: "s", Result: typeRef("scrap", 0), Body: body}

	found := false
	ast.Walk(scene, func(n ast.Node) bool {
		if _, ok := n.(*ast.Ident); ok {
			found = true
		}
		_, isBlock := n.(*ast.BlockStmt)
		return !isBlock
	})
	if found {
		t.Error("Walk descended into a pruned block")
	}
}

func TestInspectWithParent(t *testing.T) {
	call := &ast.CallExpr{Callee: ident("project"), Args: []ast.Expr{strLit("hi")}}
	stmt := &ast.ExprStmt{Expr: call}

	parents := map[string]ast.Node{}
	ast.Inspect(stmt, func(n, parent ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			parents[n.Name] = parent
		case *ast.Literal:
			parents["lit"] = parent
		}
		return true
	})

	if parents["project"] != call || parents["lit"] != call {
		t.Errorf("parents = %v, want the call for both", parents)
	}
}

func TestSetupLookup(t *testing.T) {
	s := &ast.SetupDecl{
		Name:    "Point",
		Fields:  []*ast.VarDecl{{Name: "x"}, {Name: "y"}},
		Methods: []*ast.SceneDecl{{Name: "norm"}},
	}
	if s.Field("y") == nil || s.Field("z") != nil {
		t.Error("Field lookup is wrong")
	}
	if s.Method("norm") == nil || s.Method("x") != nil {
		t.Error("Method lookup is wrong")
	}

	prog := &ast.Program{Decls: []ast.Decl{
		s,
		&ast.VarDecl{Name: "g"},
		&ast.SceneDecl{Name: "entrance"},
	}}
	if len(prog.Setups()) != 1 || len(prog.Scenes()) != 1 || len(prog.Globals()) != 1 {
		t.Errorf("Setups/Scenes/Globals = %d/%d/%d, want 1/1/1",
			len(prog.Setups()), len(prog.Scenes()), len(prog.Globals()))
	}
}

// TestPrinter verifies source printing.
func TestPrinter(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"int", intLit(42), "42"},
		{"string escapes", strLit("a\"b\n"), `"a\"b\n"`},
		{"char", &ast.Literal{Kind: token.CHRLIT, Int: '\''}, `'\''`},
		{"double", &ast.Literal{Kind: token.DBLLIT, Raw: "2.0", Float: 2}, "2.0"},
		{"null", &ast.Literal{Kind: token.NULL}, "null"},
		{"this", &ast.ThisExpr{}, "@"},
		{
			"nested binary",
			&ast.BinaryExpr{
				Left:  &ast.BinaryExpr{Left: ident("a"), Op: token.ADD, Right: ident("b")},
				Op:    token.MUL,
				Right: ident("c"),
			},
			"(a + b) * c",
		},
		{
			"assign",
			&ast.AssignExpr{Target: ident("x"), Op: token.ADD_ASSIGN, Value: intLit(1)},
			"x += 1",
		},
		{
			"set",
			&ast.SetExpr{Object: &ast.ThisExpr{}, Name: "x", Op: token.ASSIGN, Value: ident("x")},
			"@.x = x",
		},
		{"cast", &ast.CastExpr{To: token.INT, Expr: ident("d")}, "int(d)"},
		{"postfix", &ast.PostfixExpr{Target: ident("i"), Op: token.INCR}, "i++"},
		{
			"method call",
			&ast.CallExpr{
				Callee: &ast.GetExpr{Object: ident("p"), Name: "move"},
				Args:   []ast.Expr{intLit(1), intLit(2)},
			},
			"p.move(1, 2)",
		},
		{
			"index",
			&ast.IndexExpr{Array: &ast.IndexExpr{Array: ident("g"), Index: ident("y")}, Index: ident("x")},
			"g[y][x]",
		},
		{
			"object",
			&ast.NewExpr{Ref: typeRef("Point", 0), Args: []ast.Expr{intLit(1)}},
			"action Point(1)",
		},
		{
			"capacity",
			&ast.NewExpr{Ref: typeRef("double", 2), Caps: []ast.Expr{intLit(4)}},
			"action double[][][4]",
		},
		{
			"capacity with init",
			&ast.NewExpr{
				Ref:  typeRef("int", 1),
				Caps: []ast.Expr{intLit(3)},
				Init: &ast.ArrayLit{Elems: []ast.Expr{intLit(1)}},
			},
			"action int[][3]{1}",
		},
		{
			"literal",
			&ast.ArrayLit{
				Ref: typeRef("int", 2),
				Elems: []ast.Expr{
					&ast.ArrayLit{Elems: []ast.Expr{intLit(1)}},
					&ast.ArrayLit{},
				},
			},
			"action int[][]{{1}, {}}",
		},
		{"break", &ast.BreakStmt{}, "exit;"},
		{"continue", &ast.ContinueStmt{}, "skip;"},
		{"bare cut", &ast.ReturnStmt{}, "cut;"},
		{"var", &ast.VarStmt{Decl: &ast.VarDecl{Name: "x", Type: typeRef("int", 2)}}, "var x: int[][];"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ast.String(tt.node); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgramPrint(t *testing.T) {
	prog := &ast.Program{Decls: []ast.Decl{
		&ast.SetupDecl{
			Name:   "Box",
			Fields: []*ast.VarDecl{{Name: "v", Type: typeRef("int", 0)}},
			Ctor: &ast.CtorDecl{
				Owner:  "Box",
				Params: []*ast.Param{{Name: "v", Type: typeRef("int", 0)}},
				Body: &ast.BlockStmt{Items: []ast.Stmt{
					&ast.ExprStmt{Expr: &ast.SetExpr{Object: &ast.ThisExpr{}, Name: "v", Op: token.ASSIGN, Value: ident("v")}},
				}},
			},
		},
		&ast.SceneDecl{
			Name:   "entrance",
			Result: typeRef("scrap", 0),
			Body: &ast.BlockStmt{Items: []ast.Stmt{
				&ast.ForStmt{
					Init: &ast.VarStmt{Decl: &ast.VarDecl{Name: "i", Type: typeRef("int", 0), Init: intLit(0)}},
					Cond: &ast.BinaryExpr{Left: ident("i"), Op: token.LESS, Right: intLit(3)},
					Post: &ast.PostfixExpr{Target: ident("i"), Op: token.INCR},
					Body: &ast.BlockStmt{Items: []ast.Stmt{
						&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("project"), Args: []ast.Expr{ident("i")}}},
					}},
				},
			}},
		},
	}}

	want := `setup Box {
    var v: int;
    Box(v: int) {
        @.v = v;
    }
}

scene entrance(): scrap {
    keepRollingDuring (var i: int = 0; i < 3; i++) {
        project(i);
    }
}
`
	if got := ast.String(prog); got != want {
		t.Errorf("program printed as:\n%s\nwant:\n%s", got, want)
	}
}

type countVisitor struct{ n int }

func (v *countVisitor) VisitLiteral(*ast.Literal) int { v.n++; return 1 }
func (v *countVisitor) VisitIdent(*ast.Ident) int     { v.n++; return 2 }
func (v *countVisitor) VisitThis(*ast.ThisExpr) int   { return 3 }
func (v *countVisitor) VisitAssign(*ast.AssignExpr) int {
	return 4
}
func (v *countVisitor) VisitSet(*ast.SetExpr) int { return 5 }
func (v *countVisitor) VisitBinary(e *ast.BinaryExpr) int {
	return ast.AcceptExpr[int](e.Left, v) + ast.AcceptExpr[int](e.Right, v)
}
func (v *countVisitor) VisitLogical(*ast.LogicalExpr) int { return 0 }
func (v *countVisitor) VisitUnary(*ast.UnaryExpr) int     { return 0 }
func (v *countVisitor) VisitPostfix(*ast.PostfixExpr) int { return 0 }
func (v *countVisitor) VisitGroup(e *ast.GroupExpr) int   { return ast.AcceptExpr[int](e.Expr, v) }
func (v *countVisitor) VisitCast(*ast.CastExpr) int       { return 0 }
func (v *countVisitor) VisitCall(*ast.CallExpr) int       { return 0 }
func (v *countVisitor) VisitGet(*ast.GetExpr) int         { return 0 }
func (v *countVisitor) VisitIndex(*ast.IndexExpr) int     { return 0 }
func (v *countVisitor) VisitNew(*ast.NewExpr) int         { return 0 }
func (v *countVisitor) VisitArrayLit(*ast.ArrayLit) int   { return 0 }

func TestAcceptExpr(t *testing.T) {
	v := &countVisitor{}
	e := &ast.BinaryExpr{
		Left:  &ast.GroupExpr{Expr: intLit(1)},
		Op:    token.ADD,
		Right: ident("x"),
	}
	if got := ast.AcceptExpr[int](e, v); got != 3 {
		t.Errorf("AcceptExpr = %d, want 3", got)
	}
	if v.n != 2 {
		t.Errorf("visited %d leaves, want 2", v.n)
	}
}
