package ast

import "github.com/kolkov/cinema/internal/token"

// -----------------------------------------------------------------------------
// Leaves
// -----------------------------------------------------------------------------

// Literal represents a literal value.
// Kind is one of INTLIT, DBLLIT, STRLIT, CHRLIT, TRUE, FALSE, NULL.
// Examples: 42, 2.5, "hi", 'c', true, null
type Literal struct {
	BaseExpr
	Kind  token.Token
	Raw   string  // Original source text
	Int   int64   // Value of int and char literals
	Float float64 // Value of double literals
	Str   string  // Value of string literals
}

// Bool returns the value of a boolean literal.
func (n *Literal) Bool() bool { return n.Kind == token.TRUE }

// Ident represents a variable reference.
// Examples: x, count, project
type Ident struct {
	BaseExpr
	Bound
	Name string
}

// ThisExpr represents "@", the enclosing setup instance.
type ThisExpr struct {
	BaseExpr
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// AssignExpr represents assignment to a variable or array element.
// Op is ASSIGN or a compound operator such as ADD_ASSIGN.
// Examples: x = 1, arr[i] += 2
type AssignExpr struct {
	BaseExpr
	Target Expr // *Ident or *IndexExpr
	Op     token.Token
	Value  Expr
}

// SetExpr represents assignment to a setup field.
// Examples: p.x = 1, @.count += 1
type SetExpr struct {
	BaseExpr
	Object  Expr
	Name    string
	NamePos token.Position
	Op      token.Token
	Value   Expr
}

// BinaryExpr represents an arithmetic, relational or equality operation.
// Examples: a + b, x < y, s == t
type BinaryExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr represents a short-circuit && or || operation.
type LogicalExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token // AND or OR
	Right Expr
}

// UnaryExpr represents a prefix operation: ! - + ++ --.
type UnaryExpr struct {
	BaseExpr
	Op      token.Token
	Operand Expr
}

// PostfixExpr represents x++ or x--.
type PostfixExpr struct {
	BaseExpr
	Target Expr
	Op     token.Token // INCR or DECR
}

// GroupExpr represents a parenthesized expression.
type GroupExpr struct {
	BaseExpr
	Expr Expr
}

// CastExpr represents an explicit conversion: int(x), double(x), char(x).
type CastExpr struct {
	BaseExpr
	To   token.Token // INT, DOUBLE or CHAR
	Expr Expr
}

// -----------------------------------------------------------------------------
// Postfix forms
// -----------------------------------------------------------------------------

// CallExpr represents a call of a scene or a setup method.
// Callee is an *Ident for scenes and a *GetExpr for methods.
// Examples: project("hi"), p.move(1, 2)
type CallExpr struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// GetExpr represents member access on a setup instance, or the length of
// an array.
// Examples: p.x, @.name, arr.length
type GetExpr struct {
	BaseExpr
	Object  Expr
	Name    string
	NamePos token.Position
}

// IndexExpr represents an array element access.
// Examples: arr[i], grid[y][x]
type IndexExpr struct {
	BaseExpr
	Array Expr
	Index Expr
}

// -----------------------------------------------------------------------------
// Allocation
// -----------------------------------------------------------------------------

// NewExpr represents an "action" allocation that is not an array literal.
//
// With Args set (even empty) it constructs a setup instance:
//
//	action Point(1, 2)
//
// Otherwise Ref is the full array type and Caps gives the lengths of its
// outermost dimensions, optionally followed by an initializer:
//
//	action int[][3]
//	action double[][][4]
//	action int[][5]{1, 2}
type NewExpr struct {
	BaseExpr
	Ref  *TypeRef
	Args []Expr    // constructor arguments, nil for arrays
	Caps []Expr    // array capacities, outermost first
	Init *ArrayLit // optional initializer of a capacity form
}

// IsObject reports whether the expression constructs a setup instance.
func (n *NewExpr) IsObject() bool { return n.Caps == nil }

// ArrayLit represents an inline array literal. Ref is the array type of
// the outermost literal; nested bare literals and initializers of a
// capacity form leave it nil.
// Examples: action int[]{1, 2, 3}, action int[][]{{1}, {2, 3}}
type ArrayLit struct {
	BaseExpr
	Ref   *TypeRef
	Elems []Expr
}

// Compile-time interface checks.
var (
	_ Expr = (*Literal)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*ThisExpr)(nil)
	_ Expr = (*AssignExpr)(nil)
	_ Expr = (*SetExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*LogicalExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*PostfixExpr)(nil)
	_ Expr = (*GroupExpr)(nil)
	_ Expr = (*CastExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*GetExpr)(nil)
	_ Expr = (*IndexExpr)(nil)
	_ Expr = (*NewExpr)(nil)
	_ Expr = (*ArrayLit)(nil)
)
