package semantic

import (
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/parser"
	"github.com/kolkov/cinema/internal/types"
)

// Helper to parse and analyze
func analyzeCode(t *testing.T, code string) (*ast.Program, *Context, error) {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ctx, err := Analyze(prog)
	return prog, ctx, err
}

// Helper to check for expected error
func expectError(t *testing.T, code string, errSubstr string) *Error {
	t.Helper()
	_, _, err := analyzeCode(t, code)
	if err == nil {
		t.Errorf("expected error containing %q, got no error", errSubstr)
		return nil
	}
	var semErr *Error
	if !errors.As(err, &semErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if !strings.Contains(semErr.Message, errSubstr) {
		t.Errorf("expected error containing %q, got: %v", errSubstr, err)
	}
	return semErr
}

// Helper to check no errors
func expectNoError(t *testing.T, code string) (*ast.Program, *Context) {
	t.Helper()
	prog, ctx, err := analyzeCode(t, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return prog, ctx
}

// wrap puts statements inside an entrance scene.
func wrap(body string) string {
	return "scene entrance(): scrap {\n" + body + "\n}"
}

func TestEntrance(t *testing.T) {
	_, ctx := expectNoError(t, `scene entrance(): scrap { project("hi"); }`)
	if ctx.Entrance == nil || ctx.Entrance.Name != "entrance" {
		t.Fatalf("Entrance = %+v", ctx.Entrance)
	}

	err := expectError(t, `
scene entrance(): scrap {}
scene entrance(): scrap {}`, "duplicate entrance scene")
	if err != nil && err.Pos.Line != 3 {
		t.Errorf("duplicate reported at line %d, want 3", err.Pos.Line)
	}

	expectError(t, `scene start(): scrap {}`, "no entrance scene")
	expectError(t, ``, "no entrance scene")
	expectError(t, `scene entrance(n: int): scrap {}`, "must not take parameters")
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"duplicate scene", "scene f(): scrap {}\nscene f(): scrap {}\n" + wrap(""), `scene "f" already declared`},
		{"setup and scene", "setup f {}\nscene f(): scrap {}\n" + wrap(""), `setup "f" already declared`},
		{"duplicate global", "var x: int;\nvar x: double;\n" + wrap(""), `var "x" already declared`},
		{"redeclare project", "scene project(x: int): scrap {}\n" + wrap(""), "built-in scene"},
		{"redeclare capture", "setup capture {}\n" + wrap(""), "built-in scene"},
		{"duplicate param", "scene f(a: int, a: int): scrap {}\n" + wrap(""), `"a" already declared`},
		{"duplicate field", "setup P { var x: int; var x: int; }\n" + wrap(""), `already has a member "x"`},
		{"field and method", "setup P { var x: int; scene x(): scrap {} }\n" + wrap(""), `already has a member "x"`},
		{"unknown type", "var p: Point;\n" + wrap(""), `unknown type "Point"`},
		{"unknown param type", "scene f(p: Q[]): scrap {}\n" + wrap(""), `unknown type "Q"`},
		{"duplicate local", wrap("var a: int; var a: int;"), `"a" already declared in this scope`},
		{"scene named main", "scene main(args: string[]): scrap {}\n" + wrap(""), `scene name "main" is reserved`},
		{"global named scanner", "var scanner: int = 5;\n" + wrap(""), `global variable name "scanner" is reserved`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.code, tt.want)
		})
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"double to int var", wrap("var x: int = 1.5;"), "cannot use double as int"},
		{"string to int", wrap(`var x: int = "a";`), "cannot use string as int"},
		{"char to int", wrap("var x: int = 'a';"), "cannot use char as int"},
		{"null to int", wrap("var x: int = null;"), "cannot use null as int"},
		{"array dims", wrap("var a: int[][] = action int[][3];"), "cannot use int[] as int[][]"},
		{"array base", wrap("var a: double[] = action int[][3];"), "cannot use int[] as double[]"},
		{"undefined var", wrap("x = 1;"), `undefined variable "x"`},
		{"scene as value", "scene f(): int { cut 1; }\n" + wrap("var x: int = f;"), `scene "f" cannot be used as a value`},
		{"undefined scene", wrap("g();"), `undefined scene "g"`},
		{"void value", "scene f(): scrap {}\n" + wrap("var x: int = f();"), "call of f has no value"},
		{"project void", "scene f(): scrap {}\n" + wrap("project(f());"), "call of f has no value"},
		{"if condition", wrap("if (1) {}"), "condition must be bool, got int"},
		{"while condition", wrap(`keepRollingIf ("x") {}`), "condition must be bool, got string"},
		{"for condition", wrap("keepRollingDuring (var i: int = 0; i; i++) {}"), "condition must be bool"},
		{"add bool", wrap("var x: int = 1 + true;"), "invalid operands for +: int and bool"},
		{"char arithmetic", wrap("var x: int = 'a' + 1;"), "invalid operands for +: char and int"},
		{"compare strings", wrap(`var b: bool = "a" < "b";`), "invalid operands for <"},
		{"equal mismatch", wrap(`var b: bool = 1 == "1";`), "invalid operands for ==: int and string"},
		{"logical int", wrap("var b: bool = 1 && true;"), "invalid operands for &&"},
		{"not int", wrap("var b: bool = !1;"), "invalid operand for !"},
		{"negate bool", wrap("var b: bool = -true;"), "invalid operand for -"},
		{"increment string", wrap(`var s: string = "a"; s++;`), "invalid operand for ++"},
		{"compound narrowing", wrap("var x: int = 1; x += 1.5;"), "cannot use double as int"},
		{"compound bool", wrap("var b: bool = true; b += 1;"), "invalid operands for +="},
		{"index non-array", wrap("var x: int = 1; x[0] = 2;"), "cannot index non-array type int"},
		{"index type", wrap("var a: int[] = action int[][2]; a[1.0] = 2;"), "array index must be int, got double"},
		{"capacity type", wrap("var a: int[] = action int[][2.0];"), "array capacity must be int"},
		{"length assign", "setup P { var x: int; }\n" + wrap("var a: int[] = action int[][1]; a.length = 2;"), "cannot assign to the length"},
		{"length postfix increment", wrap("var a: int[] = action int[]{1, 2}; a.length++;"), "cannot assign to the length"},
		{"length prefix decrement", wrap("var a: int[] = action int[]{1, 2}; --a.length;"), "cannot assign to the length"},
		{"length of inner array", wrap("var g: int[][] = action int[][][2][2]; g[0].length++;"), "cannot assign to the length"},
		{"member of int", wrap("var x: int = 1; project(x.y);"), `cannot access member "y" of non-setup type int`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.code, tt.want)
		})
	}
}

func TestInitializerOrder(t *testing.T) {
	expectNoError(t, "var a: int = 5;\nvar b: int = a + 1;\n"+wrap(""))
	expectNoError(t, "setup P { var x: int = 1; var y: int = x * 2; }\n"+wrap(""))
	// Scenes run after every global is set up.
	expectNoError(t, "var a: int = 1;\nscene f(): int { cut b; }\nvar b: int = 2;\n"+wrap(""))

	tests := []struct {
		name string
		code string
		want string
	}{
		{"later global", "var a: int = b + 1;\nvar b: int = 5;\n" + wrap(""), `"b" is read before its initializer runs`},
		{"itself", "var a: int = a;\n" + wrap(""), `"a" is read before its initializer runs`},
		{"later field", "setup P { var x: int = y; var y: int = 1; }\n" + wrap(""), `"y" is read before its initializer runs`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := expectError(t, tt.code, tt.want)
			if err != nil && err.Pos.Line != 1 {
				t.Errorf("reported at line %d, want 1", err.Pos.Line)
			}
		})
	}
}

func TestCasts(t *testing.T) {
	valid := []string{
		"var x: int = int(3.0);",
		"var x: int = int(-2.0);",
		"var x: int = int((4.0));",
		"var x: int = int('a');",
		"var x: int = int(7);",
		"var d: double = double(3);",
		"var d: double = double(2.5);",
		"var c: char = char(65);",
		"var c: char = char('z');",
	}
	for _, code := range valid {
		t.Run(code, func(t *testing.T) {
			expectNoError(t, wrap(code))
		})
	}

	invalid := []struct {
		code string
		want string
	}{
		{"var x: int = int(1.5);", "fractional part is not zero"},
		{"var d: double = 2.0; var x: int = int(d);", "only a literal"},
		{"var x: int = int(1.0 + 1.0);", "only a literal"},
		{`var x: int = int("1");`, "cannot convert string to int"},
		{"var x: int = int(true);", "cannot convert bool to int"},
		{"var d: double = double('a');", "cannot convert char to double"},
		{"var c: char = char(1.0);", "cannot convert double to char"},
	}
	for _, tt := range invalid {
		t.Run(tt.code, func(t *testing.T) {
			expectError(t, wrap(tt.code), tt.want)
		})
	}
}

func TestLoopControl(t *testing.T) {
	expectError(t, wrap("exit;"), "exit must be inside a loop")
	expectError(t, wrap("skip;"), "skip must be inside a loop")
	expectError(t, wrap("if (true) { exit; }"), "exit must be inside a loop")
	expectNoError(t, wrap("keepRollingIf (true) { if (true) { exit; } skip; }"))
	expectNoError(t, wrap("keepRollingDuring (;;) { keepRollingIf (false) { skip; } exit; }"))
}

func TestReturns(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string // empty for valid programs
	}{
		{"int result", "scene f(): int { cut 1; }", ""},
		{"widening result", "scene f(): double { cut 1; }", ""},
		{"null result", "scene f(): string { cut null; }", ""},
		{"bare cut in scrap", "scene f(): scrap { cut; }", ""},
		{"bare cut in int", "scene f(): int { cut; }", "returns int: cut needs a value"},
		{"value in scrap", "scene f(): scrap { cut 1; }", "returns scrap: cut must not have a value"},
		{"wrong type", `scene f(): int { cut "x"; }`, "cannot use string as int"},
		{"ctor value", "setup P { P() { cut 1; } }", "constructor of P cannot return a value"},
		{"ctor bare", "setup P { P() { cut; } }", ""},
		{"method", "setup P { scene m(): bool { cut 1; } }", "cannot use int as bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := tt.code + "\n" + wrap("")
			if tt.want == "" {
				expectNoError(t, code)
			} else {
				expectError(t, code, tt.want)
			}
		})
	}
}

func TestCalls(t *testing.T) {
	decls := `
scene add(a: int, b: double): double { cut a + b; }
setup P {
    var x: int;
    P(x: int) { @.x = x; }
    scene get(): int { cut x; }
    scene set(v: int): scrap { @.x = v; }
}
`
	expectNoError(t, decls+wrap(`
var d: double = add(1, 2);
var p: P = action P(3);
p.set(p.get() + 1);
project(p.x);
project(capture());
project(add(1, 2.5));
`))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"too few", "add(1);", "wrong number of arguments to scene add: want 2, got 1"},
		{"arg type", `add("a", 1);`, "argument 1 of scene add: cannot use string as int"},
		{"project arity", "project();", "wrong number of arguments to scene project: want 1, got 0"},
		{"capture arity", "capture(1);", "want 0, got 1"},
		{"ctor arity", "var p: P = action P();", "wrong number of arguments to constructor of P"},
		{"ctor type", "var p: P = action P(1.5);", "cannot use double as int"},
		{"no method", "var p: P = action P(1); p.nope();", `setup P has no scene "nope"`},
		{"no field", "var p: P = action P(1); project(p.y);", `setup P has no field "y"`},
		{"method on int", "var x: int = 1; x.get();", "non-setup type int"},
		{"bare method", "get();", `undefined scene "get"`},
		{"new primitive", "var x: int = action int();", "action needs a setup type, got int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, decls+wrap(tt.body), tt.want)
		})
	}
}

func TestThis(t *testing.T) {
	expectError(t, wrap("project(@);"), "'@' can only be used inside a setup")
	expectError(t, "var g: int = @.x;\n"+wrap(""), "'@' can only be used inside a setup")

	prog, ctx := expectNoError(t, `
setup Counter {
    var n: int = 0;
    var self: Counter = @;
    scene bump(): Counter { n++; @.n += 1; cut @; }
}
`+wrap(""))

	// Bare field names inside members bind to the field.
	var found bool
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == "n" {
			b := ctx.Binding(id.Binding())
			if b.Kind != BindField || b.Owner != "Counter" {
				t.Errorf("n bound to %s of %q", b.Kind, b.Owner)
			}
			found = true
		}
		return true
	})
	if !found {
		t.Error("no use of n found")
	}
}

func TestArrays(t *testing.T) {
	valid := []string{
		"var a: int[] = action int[][3];",
		"var a: int[][] = action int[][][3];",
		"var a: int[][] = action int[][][3][4];",
		"var a: double[][][] = action double[][][][2];",
		"var a: int[] = action int[]{1, 2, 3};",
		"var a: double[] = action double[]{1, 2.5};",
		"var a: int[][] = action int[][]{{1}, {2, 3}, {}};",
		"var a: int[] = action int[][5]{1, 2};",
		"var n: int = 2; var a: int[] = action int[][n]{1, 2, 3};",
		"var a: string[] = action string[]{\"a\", null};",
		"var a: int[][] = action int[][][2]{action int[]{1}, null};",
		"var a: int[] = action int[]{}; var n: int = a.length;",
		"var g: int[][] = action int[][][2][2]; g[1][0] = g[0].length;",
	}
	for _, code := range valid {
		t.Run(code, func(t *testing.T) {
			expectNoError(t, wrap(code))
		})
	}

	invalid := []struct {
		code string
		want string
	}{
		{"var a: int[] = action int[][2]{1, 2, 3};", "has 3 elements but capacity is 2"},
		{"var a: int[][] = action int[][][2][2]{};", "needs exactly one capacity, got 2"},
		{"var a: int[] = action int[]{{1}};", "{...} cannot initialize an element of type int"},
		{"var a: int[] = action int[]{1.5};", "cannot use double as int"},
		{"var a: int[][] = action int[][]{1};", "cannot use int as int[]"},
		{`var a: int[] = action int[]{"x"};`, "cannot use string as int"},
	}
	for _, tt := range invalid {
		t.Run(tt.code, func(t *testing.T) {
			expectError(t, wrap(tt.code), tt.want)
		})
	}
}

func TestEqualityAndConcat(t *testing.T) {
	expectNoError(t, `
setup P {}
`+wrap(`
var p: P = null;
var b: bool = p == null;
b = null != p;
b = 1 == 1.0;
b = 'a' == 'b';
b = "x" == "y";
b = true != false;
var s: string = "n=" + 1 + 'c' + 2.5 + true + p + null;
s = 1 + "x";
s += 3;
`))
	expectError(t, "setup P {}\nsetup Q {}\n"+wrap(
		"var p: P = null; var q: Q = null; var b: bool = p == q;"), "invalid operands for ==: P and Q")
	expectError(t, wrap(`var b: bool = 'a' == 97;`), "invalid operands for ==: char and int")
}

// Every expression ends up with a resolved type; scrap appears only on
// calls of scrap scenes.
func TestEveryExpressionTyped(t *testing.T) {
	prog, _ := expectNoError(t, `
var total: int = 0;
setup Acc {
    var sum: double;
    Acc(start: double) { sum = start; }
    scene add(v: int): scrap { sum += v; }
}
scene twice(x: int): int { cut x * 2; }
scene entrance(): scrap {
    var a: Acc = action Acc(0.5);
    var xs: int[][] = action int[][]{{1, 2}, {3}};
    keepRollingDuring (var i: int = 0; i < xs.length; i++) {
        keepRollingDuring (var j: int = 0; j < xs[i].length; j++) {
            a.add(twice(xs[i][j]));
            if (xs[i][j] % 2 == 0 && !(i > 1)) { skip; }
        }
    }
    total = int(-3.0) + int('a');
    project("sum: " + a.sum + " " + char(total) + double(total));
}
`)
	ast.Walk(prog, func(n ast.Node) bool {
		e, ok := n.(ast.Expr)
		if !ok {
			return true
		}
		typ := e.Type()
		if !typ.IsValid() {
			t.Errorf("%s: %T has no type", e.Pos(), e)
		}
		if typ.IsVoid() {
			switch e.(type) {
			case *ast.CallExpr, *ast.Ident, *ast.GetExpr:
			default:
				t.Errorf("%s: %T has type scrap", e.Pos(), e)
			}
		}
		return true
	})
}

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		expr string
		want types.Type
	}{
		{"1 + 2", types.IntType},
		{"1 + 2.0", types.DoubleType},
		{"7 % 2.5", types.DoubleType},
		{`"a" + 1`, types.StringType},
		{"1 < 2", types.BoolType},
		{"-2.5", types.DoubleType},
		{"xs[0]", types.IntType},
		{"grid[0]", types.ArrayOf(types.DoubleType, 1)},
		{"grid.length", types.IntType},
		{"action int[][]{{1}}", types.ArrayOf(types.IntType, 2)},
		{"action double[][][][2][3]", types.ArrayOf(types.DoubleType, 3)},
		{"capture()", types.StringType},
		{"(n = 3)", types.IntType},
		{"n++", types.IntType},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prog, _ := expectNoError(t, wrap(`
var xs: int[] = action int[][1];
var grid: double[][] = action double[][][1][1];
var n: int = 0;
project(`+tt.expr+`);`))
			scene := prog.Scenes()[0]
			last := scene.Body.Items[len(scene.Body.Items)-1].(*ast.ExprStmt)
			arg := last.Expr.(*ast.CallExpr).Args[0]
			if got := arg.Type(); got != tt.want {
				t.Errorf("type of %s = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBindings(t *testing.T) {
	prog, ctx := expectNoError(t, `
var x: int = 1;
scene f(x: double): double {
    {
        var x: string = "inner";
        project(x);
    }
    cut x;
}
`+wrap("project(x); f(1);"))

	kinds := map[types.Type]BindingKind{}
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == "x" {
			b := ctx.Binding(id.Binding())
			if b.Type != id.Type() {
				t.Errorf("%s: ident type %s, binding type %s", id.Pos(), id.Type(), b.Type)
			}
			kinds[b.Type] = b.Kind
		}
		return true
	})
	want := map[types.Type]BindingKind{
		types.StringType: BindLocal,
		types.DoubleType: BindParam,
		types.IntType:    BindGlobal,
	}
	for typ, kind := range want {
		if kinds[typ] != kind {
			t.Errorf("x of type %s bound as %s, want %s", typ, kinds[typ], kind)
		}
	}
	if len(ctx.GlobalVars) != 1 {
		t.Errorf("GlobalVars = %d, want 1", len(ctx.GlobalVars))
	}
}

func TestCallee(t *testing.T) {
	prog, ctx := expectNoError(t, "setup P { scene m(): scrap {} }\n"+wrap("project(1); action P().m();"))
	var names []string
	ast.Walk(prog, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok {
			callee := ctx.Callee(call)
			names = append(names, callee.describe())
		}
		return true
	})
	if got := strings.Join(names, ","); got != "scene project,scene P.m" {
		t.Errorf("callees = %s", got)
	}
	project, _ := ctx.Scene("project")
	if project.Builtin != BuiltinProject {
		t.Errorf("project builtin = %d", project.Builtin)
	}
}

// Separate runs share no state.
func TestIndependentRuns(t *testing.T) {
	code := "var a: int;\nvar b: int;\n" + wrap("a = b;")
	_, ctx1 := expectNoError(t, code)
	_, ctx2 := expectNoError(t, code)
	if ctx1.NumBindings() != ctx2.NumBindings() {
		t.Errorf("bindings %d vs %d", ctx1.NumBindings(), ctx2.NumBindings())
	}
	if ctx1.GlobalVars[0] != ctx2.GlobalVars[0] {
		t.Error("binding ids differ between runs")
	}
}

func TestScope(t *testing.T) {
	global := NewScope(nil, "global")
	if !global.Define("x", 1) {
		t.Fatal("Define x failed")
	}
	if global.Define("x", 2) {
		t.Error("redefining x in the same scope succeeded")
	}

	inner := NewScope(global, "block")
	if id, ok := inner.Lookup("x"); !ok || id != 1 {
		t.Errorf("Lookup x = %d, %v", id, ok)
	}
	if _, ok := inner.LookupLocal("x"); ok {
		t.Error("LookupLocal found x in parent")
	}
	inner.Define("x", 3)
	if id, _ := inner.Lookup("x"); id != 3 {
		t.Errorf("shadowed x = %d, want 3", id)
	}
	if inner.Parent() != global || inner.Name() != "block" || global.Count() != 1 {
		t.Error("scope accessors")
	}
}

func TestBindingKindString(t *testing.T) {
	for kind, want := range map[BindingKind]string{
		BindGlobal: "global", BindField: "field", BindParam: "param", BindLocal: "local", 99: "unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}

func BenchmarkAnalyze(b *testing.B) {
	src := `
setup P { var x: int; P(x: int) { @.x = x; } scene get(): int { cut x; } }
scene fib(n: int): int { if (n < 2) { cut n; } cut fib(n - 1) + fib(n - 2); }
scene entrance(): scrap {
    var ps: P[] = action P[][10];
    keepRollingDuring (var i: int = 0; i < ps.length; i++) { ps[i] = action P(fib(i)); }
    project(ps[9].get());
}`
	b.ReportAllocs()
	for b.Loop() {
		prog, err := parser.Parse(src)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Analyze(prog); err != nil {
			b.Fatal(err)
		}
	}
}
