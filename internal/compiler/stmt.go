package compiler

import (
	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/classfile"
	"github.com/kolkov/cinema/internal/token"
)

func (c *compiler) stmt(s ast.Stmt) {
	ast.AcceptStmt[struct{}](s, c)
}

// block compiles a block statement.
func (c *compiler) block(b *ast.BlockStmt) {
	for _, s := range b.Items {
		c.stmt(s)
	}
}

func (c *compiler) VisitBlock(s *ast.BlockStmt) struct{} {
	c.block(s)
	return struct{}{}
}

// VisitVar gives the variable its slot and stores the initial value.
// Slots are never reused within a method.
func (c *compiler) VisitVar(s *ast.VarStmt) struct{} {
	d := s.Decl
	b := c.gen.ctx.Binding(d.Binding())
	if d.Init != nil {
		c.exprAs(d.Init, b.Type)
	} else {
		c.pushZero(b.Type)
	}
	slot := c.allocate(d.Binding(), b.Type, d.NamePos)
	c.store(b.Type, slot)
	return struct{}{}
}

func (c *compiler) VisitExprStmt(s *ast.ExprStmt) struct{} {
	c.effect(s.Expr)
	return struct{}{}
}

// effect compiles an expression for its side effects only.
func (c *compiler) effect(e ast.Expr) {
	switch e := e.(type) {
	case *ast.AssignExpr:
		// Optimize: no dup/pop pair for a statement-level assignment
		c.assign(e.Target, e.Op, e.Value, false)
		return
	case *ast.SetExpr:
		c.assignField(e, false)
		return
	case *ast.PostfixExpr:
		c.increment(e.Target, e.Op, false, false)
		return
	case *ast.UnaryExpr:
		if e.Op == token.INCR || e.Op == token.DECR {
			c.increment(e.Operand, e.Op, true, false)
			return
		}
	case *ast.GroupExpr:
		c.effect(e.Expr)
		return
	}
	c.expr(e)
	c.pop(e.Type())
}

// VisitIf compiles an if/else-if/else chain. Each condition skips past
// its own block; every block then jumps to the shared end.
func (c *compiler) VisitIf(s *ast.IfStmt) struct{} {
	end := c.code.NewLabel()
	branches := append([]ast.Branch{s.If}, s.Elifs...)
	for i, br := range branches {
		next := c.code.NewLabel()
		c.branch(br.Cond, false, next)
		c.block(br.Body)
		if i < len(branches)-1 || s.Else != nil {
			c.jump(end)
		}
		c.code.Mark(next)
	}
	if s.Else != nil {
		c.block(s.Else)
	}
	c.code.Mark(end)
	return struct{}{}
}

// VisitWhile compiles keepRollingIf: the condition is tested at the head
// and the body jumps back to it.
func (c *compiler) VisitWhile(s *ast.WhileStmt) struct{} {
	top, end := c.code.NewLabel(), c.code.NewLabel()
	c.code.Mark(top)
	c.branch(s.Cond, false, end)
	c.loop(end, top, s.Body)
	c.jump(top)
	c.code.Mark(end)
	return struct{}{}
}

// VisitFor compiles keepRollingDuring. skip runs the increment before the
// condition is tested again.
func (c *compiler) VisitFor(s *ast.ForStmt) struct{} {
	if s.Init != nil {
		c.stmt(s.Init)
	}
	top, post, end := c.code.NewLabel(), c.code.NewLabel(), c.code.NewLabel()
	c.code.Mark(top)
	if s.Cond != nil {
		c.branch(s.Cond, false, end)
	}
	c.loop(end, post, s.Body)
	c.code.Mark(post)
	if s.Post != nil {
		c.effect(s.Post)
	}
	c.jump(top)
	c.code.Mark(end)
	return struct{}{}
}

// loop compiles a loop body with its exit and skip targets in effect.
func (c *compiler) loop(exit, skip classfile.Label, body *ast.BlockStmt) {
	c.breaks = append(c.breaks, exit)
	c.continues = append(c.continues, skip)
	c.block(body)
	c.breaks = c.breaks[:len(c.breaks)-1]
	c.continues = c.continues[:len(c.continues)-1]
}

func (c *compiler) VisitReturn(s *ast.ReturnStmt) struct{} {
	if s.Value == nil {
		c.code.Emit(classfile.Return)
		return struct{}{}
	}
	c.exprAs(s.Value, c.result)
	c.code.Emit(returnOps[familyOf(c.result)])
	return struct{}{}
}

func (c *compiler) VisitBreak(s *ast.BreakStmt) struct{} {
	if len(c.breaks) == 0 {
		fail(s.StartPos, "exit outside loop")
	}
	c.jump(c.breaks[len(c.breaks)-1])
	return struct{}{}
}

func (c *compiler) VisitContinue(s *ast.ContinueStmt) struct{} {
	if len(c.continues) == 0 {
		fail(s.StartPos, "skip outside loop")
	}
	c.jump(c.continues[len(c.continues)-1])
	return struct{}{}
}

func (c *compiler) jump(l classfile.Label) {
	c.code.EmitJump(classfile.Goto, l)
}
