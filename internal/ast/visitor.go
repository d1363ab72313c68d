package ast

import "fmt"

// ExprVisitor is implemented by passes that compute a T for every
// expression kind. Adding an expression node adds a method here, so every
// pass that implements the interface fails to compile until it handles the
// new node.
type ExprVisitor[T any] interface {
	VisitLiteral(*Literal) T
	VisitIdent(*Ident) T
	VisitThis(*ThisExpr) T
	VisitAssign(*AssignExpr) T
	VisitSet(*SetExpr) T
	VisitBinary(*BinaryExpr) T
	VisitLogical(*LogicalExpr) T
	VisitUnary(*UnaryExpr) T
	VisitPostfix(*PostfixExpr) T
	VisitGroup(*GroupExpr) T
	VisitCast(*CastExpr) T
	VisitCall(*CallExpr) T
	VisitGet(*GetExpr) T
	VisitIndex(*IndexExpr) T
	VisitNew(*NewExpr) T
	VisitArrayLit(*ArrayLit) T
}

// StmtVisitor is the statement counterpart of ExprVisitor.
type StmtVisitor[T any] interface {
	VisitBlock(*BlockStmt) T
	VisitVar(*VarStmt) T
	VisitExprStmt(*ExprStmt) T
	VisitIf(*IfStmt) T
	VisitWhile(*WhileStmt) T
	VisitFor(*ForStmt) T
	VisitReturn(*ReturnStmt) T
	VisitBreak(*BreakStmt) T
	VisitContinue(*ContinueStmt) T
}

// AcceptExpr dispatches e to the matching method of v.
func AcceptExpr[T any](e Expr, v ExprVisitor[T]) T {
	switch n := e.(type) {
	case *Literal:
		return v.VisitLiteral(n)
	case *Ident:
		return v.VisitIdent(n)
	case *ThisExpr:
		return v.VisitThis(n)
	case *AssignExpr:
		return v.VisitAssign(n)
	case *SetExpr:
		return v.VisitSet(n)
	case *BinaryExpr:
		return v.VisitBinary(n)
	case *LogicalExpr:
		return v.VisitLogical(n)
	case *UnaryExpr:
		return v.VisitUnary(n)
	case *PostfixExpr:
		return v.VisitPostfix(n)
	case *GroupExpr:
		return v.VisitGroup(n)
	case *CastExpr:
		return v.VisitCast(n)
	case *CallExpr:
		return v.VisitCall(n)
	case *GetExpr:
		return v.VisitGet(n)
	case *IndexExpr:
		return v.VisitIndex(n)
	case *NewExpr:
		return v.VisitNew(n)
	case *ArrayLit:
		return v.VisitArrayLit(n)
	default:
		panic(fmt.Sprintf("ast: unexpected expression %T", e))
	}
}

// AcceptStmt dispatches s to the matching method of v.
func AcceptStmt[T any](s Stmt, v StmtVisitor[T]) T {
	switch n := s.(type) {
	case *BlockStmt:
		return v.VisitBlock(n)
	case *VarStmt:
		return v.VisitVar(n)
	case *ExprStmt:
		return v.VisitExprStmt(n)
	case *IfStmt:
		return v.VisitIf(n)
	case *WhileStmt:
		return v.VisitWhile(n)
	case *ForStmt:
		return v.VisitFor(n)
	case *ReturnStmt:
		return v.VisitReturn(n)
	case *BreakStmt:
		return v.VisitBreak(n)
	case *ContinueStmt:
		return v.VisitContinue(n)
	default:
		panic(fmt.Sprintf("ast: unexpected statement %T", s))
	}
}

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: count all identifiers
//
//	count := 0
//	ast.Walk(program, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true
//	})
func Walk(node Node, fn func(Node) bool) {
	Inspect(node, func(n, _ Node) bool { return fn(n) })
}

// Inspect is like Walk but also passes the parent of each node
// (nil for the root).
func Inspect(node Node, fn func(node, parent Node) bool) {
	inspect(node, nil, fn)
}

func inspect(node, parent Node, fn func(node, parent Node) bool) {
	if isNil(node) || !fn(node, parent) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, d := range n.Decls {
			inspect(d, n, fn)
		}

	case *SetupDecl:
		for _, f := range n.Fields {
			inspect(f, n, fn)
		}
		if n.Ctor != nil {
			inspect(n.Ctor, n, fn)
		}
		for _, m := range n.Methods {
			inspect(m, n, fn)
		}

	case *CtorDecl:
		for _, p := range n.Params {
			inspect(p, n, fn)
		}
		inspect(n.Body, n, fn)

	case *SceneDecl:
		for _, p := range n.Params {
			inspect(p, n, fn)
		}
		inspect(n.Body, n, fn)

	case *VarDecl:
		inspect(n.Init, n, fn)

	case *Param, *TypeRef:

	case *BlockStmt:
		for _, s := range n.Items {
			inspect(s, n, fn)
		}

	case *VarStmt:
		inspect(n.Decl, n, fn)

	case *ExprStmt:
		inspect(n.Expr, n, fn)

	case *IfStmt:
		inspect(n.If.Cond, n, fn)
		inspect(n.If.Body, n, fn)
		for _, b := range n.Elifs {
			inspect(b.Cond, n, fn)
			inspect(b.Body, n, fn)
		}
		inspect(n.Else, n, fn)

	case *WhileStmt:
		inspect(n.Cond, n, fn)
		inspect(n.Body, n, fn)

	case *ForStmt:
		inspect(n.Init, n, fn)
		inspect(n.Cond, n, fn)
		inspect(n.Post, n, fn)
		inspect(n.Body, n, fn)

	case *ReturnStmt:
		inspect(n.Value, n, fn)

	case *BreakStmt, *ContinueStmt:

	case *Literal, *Ident, *ThisExpr:

	case *AssignExpr:
		inspect(n.Target, n, fn)
		inspect(n.Value, n, fn)

	case *SetExpr:
		inspect(n.Object, n, fn)
		inspect(n.Value, n, fn)

	case *BinaryExpr:
		inspect(n.Left, n, fn)
		inspect(n.Right, n, fn)

	case *LogicalExpr:
		inspect(n.Left, n, fn)
		inspect(n.Right, n, fn)

	case *UnaryExpr:
		inspect(n.Operand, n, fn)

	case *PostfixExpr:
		inspect(n.Target, n, fn)

	case *GroupExpr:
		inspect(n.Expr, n, fn)

	case *CastExpr:
		inspect(n.Expr, n, fn)

	case *CallExpr:
		inspect(n.Callee, n, fn)
		for _, a := range n.Args {
			inspect(a, n, fn)
		}

	case *GetExpr:
		inspect(n.Object, n, fn)

	case *IndexExpr:
		inspect(n.Array, n, fn)
		inspect(n.Index, n, fn)

	case *NewExpr:
		for _, a := range n.Args {
			inspect(a, n, fn)
		}
		for _, c := range n.Caps {
			inspect(c, n, fn)
		}
		inspect(n.Init, n, fn)

	case *ArrayLit:
		for _, e := range n.Elems {
			inspect(e, n, fn)
		}
	}
}

// isNil reports whether node is nil or a typed nil pointer, so optional
// children can be passed straight through.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *BlockStmt:
		return n == nil
	case *ArrayLit:
		return n == nil
	case *CtorDecl:
		return n == nil
	case *VarDecl:
		return n == nil
	}
	return false
}
