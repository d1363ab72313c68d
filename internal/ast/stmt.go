package ast

// BlockStmt represents a brace-delimited statement list. Variable
// declarations appear in Items as *VarStmt.
type BlockStmt struct {
	BaseStmt
	Items []Stmt
}

// VarStmt wraps a block-scoped variable declaration.
// Example: var i: int = 0;
type VarStmt struct {
	BaseStmt
	Decl *VarDecl
}

// ExprStmt represents an expression evaluated for its side effects.
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// Branch is one condition/block pair of an if statement.
type Branch struct {
	Cond Expr
	Body *BlockStmt
}

// IfStmt represents an if / else if / else chain.
// Example: if (a) { ... } else if (b) { ... } else { ... }
type IfStmt struct {
	BaseStmt
	If    Branch
	Elifs []Branch
	Else  *BlockStmt // nil if absent
}

// WhileStmt represents a keepRollingIf loop.
// Example: keepRollingIf (i < 10) { i++; }
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body *BlockStmt
}

// ForStmt represents a keepRollingDuring loop. Init is a *VarStmt, an
// *ExprStmt or nil; Cond and Post may be nil.
// Example: keepRollingDuring (var i: int = 0; i < 3; i++) { ... }
type ForStmt struct {
	BaseStmt
	Init Stmt
	Cond Expr
	Post Expr
	Body *BlockStmt
}

// ReturnStmt represents "cut" with an optional value.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil for a bare cut
}

// BreakStmt represents "exit".
type BreakStmt struct {
	BaseStmt
}

// ContinueStmt represents "skip".
type ContinueStmt struct {
	BaseStmt
}

// Compile-time interface checks.
var (
	_ Stmt = (*BlockStmt)(nil)
	_ Stmt = (*VarStmt)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
	_ Stmt = (*ForStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
	_ Stmt = (*BreakStmt)(nil)
	_ Stmt = (*ContinueStmt)(nil)
)
