// Package ast defines the abstract syntax tree for AbsoluteCinema programs.
//
// Nodes are built once by the parser and never restructured. The semantic
// analyzer fills in the write-once annotation slots (resolved types and
// binding references); the code generator only reads them.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Decl (interface) - top-level and member declarations
//	│   └── SetupDecl, SceneDecl, VarDecl, CtorDecl
//	├── Stmt (interface) - statements
//	│   ├── BlockStmt, VarStmt, ExprStmt - basic
//	│   ├── IfStmt, WhileStmt, ForStmt - control flow
//	│   └── ReturnStmt, BreakStmt, ContinueStmt - jumps
//	├── Expr (interface) - expressions that produce values
//	│   ├── Literal, Ident, ThisExpr - leaves
//	│   ├── AssignExpr, SetExpr, BinaryExpr, LogicalExpr - operations
//	│   ├── UnaryExpr, PostfixExpr, GroupExpr, CastExpr - operations
//	│   ├── CallExpr, GetExpr, IndexExpr - postfix forms
//	│   └── NewExpr, ArrayLit - allocation
//	└── Program, Param, TypeRef - structure
package ast

import (
	"github.com/kolkov/cinema/internal/token"
	"github.com/kolkov/cinema/internal/types"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
// Every expression carries a resolved type once semantic analysis is done.
type Expr interface {
	Node
	Type() types.Type
	SetType(types.Type)
	exprNode() // marker method to prevent external implementations
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // marker method to prevent external implementations
}

// Decl is the interface for declarations.
type Decl interface {
	Node
	declNode() // marker method to prevent external implementations
}

// BindingID refers to an entry in the semantic analyzer's binding table.
// It does not own the declaration it refers to. Zero means unresolved.
type BindingID int

// NoBinding is the zero BindingID.
const NoBinding BindingID = 0

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
	typ      types.Type     // Resolved type, written once
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// Type returns the resolved type, or the invalid type before analysis.
func (b *BaseExpr) Type() types.Type { return b.typ }

// SetType records the resolved type. The slot is write-once: setting it
// again to a different type panics.
func (b *BaseExpr) SetType(t types.Type) {
	if b.typ.IsValid() && b.typ != t {
		panic("ast: resolved type rewritten from " + b.typ.String() + " to " + t.String())
	}
	b.typ = t
}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// BaseDecl provides common fields for declaration nodes.
type BaseDecl struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseDecl) Pos() token.Position { return b.StartPos }
func (b *BaseDecl) End() token.Position { return b.EndPos }
func (b *BaseDecl) declNode()           {}

// Bound is embedded by nodes that link to a binding.
type Bound struct {
	binding BindingID
}

// Binding returns the linked binding, or NoBinding.
func (b *Bound) Binding() BindingID { return b.binding }

// Bind links the node to a binding. The slot is write-once.
func (b *Bound) Bind(id BindingID) {
	if b.binding != NoBinding && b.binding != id {
		panic("ast: binding rewritten")
	}
	b.binding = id
}

// IsLValue returns true if the expression can be assigned to or
// incremented.
func IsLValue(e Expr) bool {
	switch e.(type) {
	case *Ident, *IndexExpr, *GetExpr:
		return true
	default:
		return false
	}
}

// Unparen strips any enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Expr
	}
}

// -----------------------------------------------------------------------------
// Constructor helpers
// -----------------------------------------------------------------------------

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}

// MakeBaseDecl creates a BaseDecl with the given positions.
func MakeBaseDecl(start, end token.Position) BaseDecl {
	return BaseDecl{StartPos: start, EndPos: end}
}
