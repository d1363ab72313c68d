package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/cinema/internal/token"
)

// Printer writes AST nodes back as AbsoluteCinema source. Binary, logical
// and assignment expressions nested inside other expressions are fully
// parenthesized, so the output parses back to the same tree.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the source form of node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	if node == nil {
		p.printf("<nil>")
		return
	}

	switch n := node.(type) {
	case *Program:
		for i, d := range n.Decls {
			if i > 0 {
				p.printf("\n")
			}
			p.printNode(d)
			p.printf("\n")
		}
	case *SetupDecl:
		p.printSetup(n)
	case *SceneDecl:
		p.printScene(n)
	case *CtorDecl:
		p.printf("%s(", n.Owner)
		p.printParams(n.Params)
		p.printf(") ")
		p.printStmt(n.Body)
	case *VarDecl:
		p.printVarDecl(n)
		p.printf(";")
	case *TypeRef:
		p.printf("%s", n)
	case *Param:
		p.printf("%s: %s", n.Name, n.Type)
	case Expr:
		p.printExpr(n, false)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printSetup(s *SetupDecl) {
	p.printf("setup %s {\n", s.Name)
	p.indent++
	for _, f := range s.Fields {
		p.writeIndent()
		p.printVarDecl(f)
		p.printf(";\n")
	}
	if s.Ctor != nil {
		p.writeIndent()
		p.printNode(s.Ctor)
		p.printf("\n")
	}
	for _, m := range s.Methods {
		p.writeIndent()
		p.printScene(m)
		p.printf("\n")
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) printScene(s *SceneDecl) {
	p.printf("scene %s(", s.Name)
	p.printParams(s.Params)
	p.printf("): %s ", s.Result)
	p.printStmt(s.Body)
}

func (p *Printer) printParams(params []*Param) {
	for i, param := range params {
		if i > 0 {
			p.printf(", ")
		}
		p.printNode(param)
	}
}

func (p *Printer) printVarDecl(v *VarDecl) {
	p.printf("var %s: %s", v.Name, v.Type)
	if v.Init != nil {
		p.printf(" = ")
		p.printExpr(v.Init, false)
	}
}

// printExpr prints e; nested marks operands of another operator, which get
// parentheses around operator expressions.
func (p *Printer) printExpr(e Expr, nested bool) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	if nested && needsParens(e) {
		p.printf("(")
		defer p.printf(")")
	}

	switch n := e.(type) {
	case *Literal:
		p.printLiteral(n)

	case *Ident:
		p.printf("%s", n.Name)

	case *ThisExpr:
		p.printf("@")

	case *AssignExpr:
		p.printExpr(n.Target, true)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Value, true)

	case *SetExpr:
		p.printExpr(n.Object, true)
		p.printf(".%s %s ", n.Name, n.Op)
		p.printExpr(n.Value, true)

	case *BinaryExpr:
		p.printExpr(n.Left, true)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right, true)

	case *LogicalExpr:
		p.printExpr(n.Left, true)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right, true)

	case *UnaryExpr:
		p.printf("%s", n.Op)
		p.printExpr(n.Operand, true)

	case *PostfixExpr:
		p.printExpr(n.Target, true)
		p.printf("%s", n.Op)

	case *GroupExpr:
		p.printf("(")
		p.printExpr(n.Expr, false)
		p.printf(")")

	case *CastExpr:
		p.printf("%s(", n.To)
		p.printExpr(n.Expr, false)
		p.printf(")")

	case *CallExpr:
		p.printExpr(n.Callee, true)
		p.printf("(")
		p.printArgs(n.Args)
		p.printf(")")

	case *GetExpr:
		p.printExpr(n.Object, true)
		p.printf(".%s", n.Name)

	case *IndexExpr:
		p.printExpr(n.Array, true)
		p.printf("[")
		p.printExpr(n.Index, false)
		p.printf("]")

	case *NewExpr:
		p.printf("action %s", n.Ref)
		if n.IsObject() {
			p.printf("(")
			p.printArgs(n.Args)
			p.printf(")")
			break
		}
		for _, c := range n.Caps {
			p.printf("[")
			p.printExpr(c, false)
			p.printf("]")
		}
		if n.Init != nil {
			p.printElems(n.Init)
		}

	case *ArrayLit:
		if n.Ref != nil {
			p.printf("action %s", n.Ref)
		}
		p.printElems(n)

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printElems(n *ArrayLit) {
	p.printf("{")
	p.printArgs(n.Elems)
	p.printf("}")
}

func (p *Printer) printLiteral(n *Literal) {
	switch n.Kind {
	case token.STRLIT:
		p.printf("%s", quote(n.Str, '"'))
	case token.CHRLIT:
		p.printf("%s", quote(string(rune(n.Int)), '\''))
	case token.INTLIT:
		p.printf("%d", n.Int)
	case token.DBLLIT:
		if n.Raw != "" {
			p.printf("%s", n.Raw)
		} else {
			p.printf("%s", strconv.FormatFloat(n.Float, 'g', -1, 64))
		}
	default:
		p.printf("%s", n.Kind)
	}
}

func (p *Printer) printArgs(args []Expr) {
	for i, arg := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(arg, false)
	}
}

func (p *Printer) printStmt(s Stmt) {
	if s == nil {
		p.printf("<nil>")
		return
	}

	switch n := s.(type) {
	case *ExprStmt:
		p.printExpr(n.Expr, false)
		p.printf(";")

	case *VarStmt:
		p.printVarDecl(n.Decl)
		p.printf(";")

	case *BlockStmt:
		if len(n.Items) == 0 {
			p.printf("{}")
			return
		}
		p.printf("{\n")
		p.indent++
		for _, stmt := range n.Items {
			p.writeIndent()
			p.printStmt(stmt)
			p.printf("\n")
		}
		p.indent--
		p.writeIndent()
		p.printf("}")

	case *IfStmt:
		p.printf("if (")
		p.printExpr(n.If.Cond, false)
		p.printf(") ")
		p.printStmt(n.If.Body)
		for _, b := range n.Elifs {
			p.printf(" else if (")
			p.printExpr(b.Cond, false)
			p.printf(") ")
			p.printStmt(b.Body)
		}
		if n.Else != nil {
			p.printf(" else ")
			p.printStmt(n.Else)
		}

	case *WhileStmt:
		p.printf("keepRollingIf (")
		p.printExpr(n.Cond, false)
		p.printf(") ")
		p.printStmt(n.Body)

	case *ForStmt:
		p.printf("keepRollingDuring (")
		switch init := n.Init.(type) {
		case *VarStmt:
			p.printVarDecl(init.Decl)
		case *ExprStmt:
			p.printExpr(init.Expr, false)
		}
		p.printf("; ")
		if n.Cond != nil {
			p.printExpr(n.Cond, false)
		}
		p.printf("; ")
		if n.Post != nil {
			p.printExpr(n.Post, false)
		}
		p.printf(") ")
		p.printStmt(n.Body)

	case *BreakStmt:
		p.printf("exit;")

	case *ContinueStmt:
		p.printf("skip;")

	case *ReturnStmt:
		p.printf("cut")
		if n.Value != nil {
			p.printf(" ")
			p.printExpr(n.Value, false)
		}
		p.printf(";")

	default:
		p.printf("<%T>", s)
	}
}

// String returns the source form of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	_ = p.Print(node)
	return sb.String()
}

// needsParens reports whether e must be parenthesized as an operand.
func needsParens(e Expr) bool {
	switch e.(type) {
	case *BinaryExpr, *LogicalExpr, *AssignExpr, *SetExpr, *UnaryExpr:
		return true
	default:
		return false
	}
}

// quote renders s as a literal using only the language's escapes.
func quote(s string, q rune) string {
	var sb strings.Builder
	sb.WriteRune(q)
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\\':
			sb.WriteString(`\\`)
		case q:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteRune(q)
	return sb.String()
}
