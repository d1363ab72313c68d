package parser_test

import (
	"testing"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/parser"
)

// FuzzParser tests the parser with random inputs to find crashes.
func FuzzParser(f *testing.F) {
	seeds := []string{
		// Empty and minimal
		"",
		";",
		"scene entrance(): scrap {}",
		`scene entrance(): scrap { project("hi"); }`,

		// Declarations
		"var x: int = 1;",
		"var grid: double[][];",
		"setup P { var x: int; P(x: int) { @.x = x; } scene get(): int { cut x; } }",
		"scene f(var a: int, b: string[]): bool { cut a > 0; }",

		// Statements
		"scene f(): scrap { if (a) {} else if (b) {} else {} }",
		"scene f(): scrap { keepRollingIf (i < 3) { i++; } }",
		"scene f(): scrap { keepRollingDuring (var i: int = 0; i < 3; i++) { skip; } }",
		"scene f(): scrap { keepRollingDuring (;;) { exit; } }",
		"scene f(): int { cut 1; }",
		"scene f(): scrap { { var y: char = 'y'; } }",

		// Expressions
		"scene f(): scrap { x = a + b * c - d / e % g; }",
		"scene f(): scrap { x += 1; x -= 1; x *= 2; x /= 2; x %= 2; }",
		"scene f(): scrap { b = !a && c || d == e != f; }",
		"scene f(): scrap { b = a < b <= c > d >= e; }",
		"scene f(): scrap { p.x = -p.y + +1; ++a[0]; a[1]--; }",
		"scene f(): scrap { d = double(1) + int(2.0) + char(65); }",
		"scene f(): scrap { a = action int[][]{{1, 2}, {3}}; }",
		"scene f(): scrap { a = action int[][][2][3]; n = a.length; }",
		"scene f(): scrap { a = action int[][4]{1}; o = action P(1, 2); }",
		"scene f(): scrap { s = capture() + 'c' + 1.5e3 + null; }",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	invalid := []string{
		"scene f(): scrap {",
		"scene f(): scrap { if (x) cut; }",
		"scene f(): scrap { scene g(): scrap {} }",
		"scene f(): scrap { 1 = 2; }",
		"setup A { B() {} }",
		"scene f(): scrap { x = action int{1}; }",
	}
	for _, inv := range invalid {
		f.Add(inv)
	}

	f.Fuzz(func(t *testing.T, src string) {
		const maxLen = 10000
		if len(src) > maxLen {
			return
		}

		// Parser should not panic on any input
		prog, err := parser.Parse(src)
		_, _ = parser.ParseExpr(src)
		if err != nil {
			return
		}

		// A program that parses must print to source that parses back to
		// the same printed form.
		first := ast.String(prog)
		again, err := parser.Parse(first)
		if err != nil {
			t.Fatalf("printed program does not parse: %v\n%s", err, first)
		}
		if second := ast.String(again); second != first {
			t.Fatalf("print is not stable:\n%s\n---\n%s", first, second)
		}
	})
}
