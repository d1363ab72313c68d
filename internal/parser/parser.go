package parser

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/kolkov/cinema/internal/ast"
	"github.com/kolkov/cinema/internal/lexer"
	"github.com/kolkov/cinema/internal/token"
)

// tokenName returns a human-readable name for a token type.
func tokenName(t token.Token) string {
	switch {
	case t == token.EOF:
		return "end of file"
	case t.IsOperator(), t.IsKeyword():
		return "'" + t.String() + "'"
	default:
		return t.String()
	}
}

// Parser is a recursive descent parser over a fully scanned token slice.
// The first syntax error stops parsing; there is no recovery.
type Parser struct {
	toks    []lexer.Token
	pos     int         // index of tok in toks
	tok     lexer.Token // Current token
	prevTok lexer.Token // Previous token (for end positions)
}

// Parse scans and parses a complete AbsoluteCinema program. Lexical errors
// are returned as *lexer.Error before any parsing happens.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize([]byte(src))
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses a program from the output of lexer.Tokenize.
func ParseTokens(toks []lexer.Token) (prog *ast.Program, err error) {
	p := newParser(toks)
	defer p.recover(&err)
	return p.parseProgram(), nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (expr ast.Expr, err error) {
	toks, err := lexer.Tokenize([]byte(src))
	if err != nil {
		return nil, err
	}
	p := newParser(toks)
	defer p.recover(&err)
	expr = p.parseExpr()
	p.expect(token.EOF)
	return expr, nil
}

func newParser(toks []lexer.Token) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Type != token.EOF {
		var pos token.Position
		if len(toks) > 0 {
			pos = tokenEnd(toks[len(toks)-1])
		}
		toks = append(toks, lexer.Token{Type: token.EOF, Pos: pos})
	}
	return &Parser{toks: toks, tok: toks[0]}
}

// recover turns a parse error panic into an error return.
func (p *Parser) recover(errp *error) {
	if r := recover(); r != nil {
		pe, ok := r.(*ParseError)
		if !ok {
			panic(r)
		}
		*errp = pe
	}
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

// next advances to the next token. EOF repeats forever.
func (p *Parser) next() {
	p.prevTok = p.tok
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	p.tok = p.toks[p.pos]
}

// peek returns the type of the token n positions ahead.
func (p *Parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		i = len(p.toks) - 1
	}
	return p.toks[i].Type
}

// expect checks that the current token is tok and advances past it.
func (p *Parser) expect(tok token.Token) lexer.Token {
	if p.tok.Type != tok {
		p.fail(expectedError(p.tok.Pos, tokenName(tok), p.tokenDesc()))
	}
	t := p.tok
	p.next()
	return t
}

// expectName expects an identifier and returns its value and position.
func (p *Parser) expectName(what string) (string, token.Position) {
	if p.tok.Type != token.IDENT {
		p.fail(expectedError(p.tok.Pos, what, p.tokenDesc()))
	}
	t := p.tok
	p.next()
	return t.Value, t.Pos
}

// match returns true if current token matches any of the given types.
func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// tokenDesc returns a description of the current token for error messages.
func (p *Parser) tokenDesc() string {
	switch {
	case p.tok.Type == token.EOF:
		return "end of file"
	case p.tok.Type == token.IDENT:
		return fmt.Sprintf("identifier %q", p.tok.Lexeme)
	case p.tok.Type.IsLiteral():
		return p.tok.Lexeme
	default:
		return "'" + p.tok.Lexeme + "'"
	}
}

// end returns the position just after the previous token.
func (p *Parser) end() token.Position {
	return tokenEnd(p.prevTok)
}

func tokenEnd(t lexer.Token) token.Position {
	end := t.Pos
	end.Offset += len(t.Lexeme)
	end.Column += len(t.Lexeme)
	return end
}

func (p *Parser) fail(err *ParseError) {
	panic(err)
}

// failf reports a formatted parse error at the current token.
func (p *Parser) failf(format string, args ...any) {
	p.fail(errorf(p.tok.Pos, format, args...))
}

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

// parseProgram parses top-level declarations up to end of file.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{StartPos: p.tok.Pos}

	for p.tok.Type != token.EOF {
		switch p.tok.Type {
		case token.SEMICOLON:
			p.next()
		case token.SETUP:
			prog.Decls = append(prog.Decls, p.parseSetup())
		case token.SCENE:
			prog.Decls = append(prog.Decls, p.parseScene(""))
		case token.VAR:
			prog.Decls = append(prog.Decls, p.parseVarDecl(true))
		default:
			p.fail(expectedError(p.tok.Pos, "setup, scene or var declaration", p.tokenDesc()))
		}
	}

	prog.EndPos = p.tok.Pos
	return prog
}

// parseSetup parses "setup Name { member* }".
func (p *Parser) parseSetup() *ast.SetupDecl {
	startPos := p.tok.Pos
	p.expect(token.SETUP)
	name, namePos := p.expectName("setup name")
	p.expect(token.LBRACE)

	setup := &ast.SetupDecl{Name: name, NamePos: namePos}
	for p.tok.Type != token.RBRACE {
		switch {
		case p.tok.Type == token.SEMICOLON:
			p.next()
		case p.tok.Type == token.VAR:
			setup.Fields = append(setup.Fields, p.parseVarDecl(true))
		case p.tok.Type == token.SCENE:
			setup.Methods = append(setup.Methods, p.parseScene(name))
		case p.tok.Type == token.IDENT && p.peek(1) == token.LPAREN:
			if p.tok.Value != name {
				p.failf("constructor %s must be named after its setup %s", p.tok.Value, name)
			}
			if setup.Ctor != nil {
				p.failf("setup %s already has a constructor", name)
			}
			setup.Ctor = p.parseCtor(name)
		default:
			p.fail(expectedError(p.tok.Pos, "field, constructor or scene in setup "+name, p.tokenDesc()))
		}
	}
	p.expect(token.RBRACE)

	setup.BaseDecl = ast.MakeBaseDecl(startPos, p.end())
	return setup
}

func (p *Parser) parseCtor(owner string) *ast.CtorDecl {
	startPos := p.tok.Pos
	p.next() // constructor name
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.CtorDecl{
		BaseDecl: ast.MakeBaseDecl(startPos, p.end()),
		Owner:    owner,
		Params:   params,
		Body:     body,
	}
}

// parseScene parses a scene declaration. Owner is the enclosing setup for
// methods and empty for top-level scenes.
func (p *Parser) parseScene(owner string) *ast.SceneDecl {
	startPos := p.tok.Pos
	p.expect(token.SCENE)

	// entrance is reserved but still names a scene
	var name string
	var namePos token.Position
	if p.tok.Type == token.ENTRANCE {
		name, namePos = "entrance", p.tok.Pos
		p.next()
	} else {
		name, namePos = p.expectName("scene name")
	}

	params := p.parseParams()
	p.expect(token.COLON)
	result := p.parseType(true)
	body := p.parseBlock()

	return &ast.SceneDecl{
		BaseDecl: ast.MakeBaseDecl(startPos, p.end()),
		Name:     name,
		NamePos:  namePos,
		Params:   params,
		Result:   result,
		Body:     body,
		IsMethod: owner != "",
		Owner:    owner,
	}
}

// parseParams parses "(" [param {"," param}] ")".
func (p *Parser) parseParams() []*ast.Param {
	p.expect(token.LPAREN)
	var params []*ast.Param
	if p.tok.Type != token.RPAREN {
		for {
			params = append(params, p.parseParam())
			if p.tok.Type != token.COMMA {
				break
			}
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseParam() *ast.Param {
	startPos := p.tok.Pos
	if p.tok.Type == token.VAR {
		p.next()
	}
	name, _ := p.expectName("parameter name")
	p.expect(token.COLON)
	typ := p.parseType(false)
	return &ast.Param{StartPos: startPos, EndPos: p.end(), Name: name, Type: typ}
}

// parseType parses a type name followed by any number of "[]" pairs.
// A "[" not immediately closed is left for the caller (capacity or index).
func (p *Parser) parseType(allowScrap bool) *ast.TypeRef {
	start := p.tok
	var name string
	switch {
	case p.tok.Type.IsTypeName():
		name = p.tok.Type.String()
	case p.tok.Type == token.IDENT:
		name = p.tok.Value
	case p.tok.Type == token.SCRAP && allowScrap:
		p.next()
		return &ast.TypeRef{StartPos: start.Pos, EndPos: p.end(), Name: "scrap"}
	default:
		p.fail(expectedError(p.tok.Pos, "type", p.tokenDesc()))
	}
	p.next()

	dims := 0
	for p.tok.Type == token.LBRACKET && p.peek(1) == token.RBRACKET {
		p.next()
		p.next()
		dims++
	}
	return &ast.TypeRef{StartPos: start.Pos, EndPos: p.end(), Name: name, Dims: dims}
}

// parseVarDecl parses "var name: type [= expr]", with the trailing
// semicolon when semi is set.
func (p *Parser) parseVarDecl(semi bool) *ast.VarDecl {
	startPos := p.tok.Pos
	p.expect(token.VAR)
	name, namePos := p.expectName("variable name")
	p.expect(token.COLON)
	typ := p.parseType(false)

	var init ast.Expr
	if p.tok.Type == token.ASSIGN {
		p.next()
		init = p.parseExpr()
	}
	if semi {
		p.expect(token.SEMICOLON)
	}

	return &ast.VarDecl{
		BaseDecl: ast.MakeBaseDecl(startPos, p.end()),
		Name:     name,
		NamePos:  namePos,
		Type:     typ,
		Init:     init,
	}
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// parseBlock parses a block statement { ... }.
func (p *Parser) parseBlock() *ast.BlockStmt {
	startPos := p.tok.Pos
	p.expect(token.LBRACE)

	var items []ast.Stmt
	for p.tok.Type != token.RBRACE {
		switch p.tok.Type {
		case token.EOF:
			p.fail(expectedError(p.tok.Pos, "'}'", p.tokenDesc()))
		case token.SEMICOLON:
			p.next()
		case token.VAR:
			decl := p.parseVarDecl(true)
			items = append(items, &ast.VarStmt{
				BaseStmt: ast.MakeBaseStmt(decl.Pos(), decl.End()),
				Decl:     decl,
			})
		case token.SCENE, token.SETUP:
			p.rejectNested()
		default:
			items = append(items, p.parseStmt())
		}
	}
	p.next()

	return &ast.BlockStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.end()),
		Items:    items,
	}
}

// rejectNested drains a scene or setup declared inside a block, up to its
// closing brace or end of input, and reports it.
func (p *Parser) rejectNested() {
	start := p.tok
	p.next()
	name := ""
	if p.match(token.IDENT, token.ENTRANCE) {
		name = p.tok.Lexeme
	}

	depth := 0
	for p.tok.Type != token.EOF {
		tok := p.tok.Type
		p.next()
		if tok == token.LBRACE {
			depth++
		} else if tok == token.RBRACE {
			depth--
			if depth <= 0 {
				break
			}
		}
	}

	p.fail(errorf(start.Pos, "%s %s cannot be declared inside a block (declaration ends at %s)",
		start.Lexeme, name, p.end()))
}

// parseStmt parses any statement other than a variable declaration.
func (p *Parser) parseStmt() ast.Stmt {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.LBRACE:
		return p.parseBlock()

	case token.IF:
		return p.parseIfStmt()

	case token.WHILE:
		return p.parseWhileStmt()

	case token.FOR:
		return p.parseForStmt()

	case token.CUT:
		p.next()
		var value ast.Expr
		if p.tok.Type != token.SEMICOLON {
			value = p.parseExpr()
		}
		p.expect(token.SEMICOLON)
		return &ast.ReturnStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.end()), Value: value}

	case token.EXIT:
		p.next()
		p.expect(token.SEMICOLON)
		return &ast.BreakStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.end())}

	case token.SKIP:
		p.next()
		p.expect(token.SEMICOLON)
		return &ast.ContinueStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.end())}

	case token.ELSE:
		p.failf("else without matching if")
	}

	expr := p.parseExpr()
	p.expect(token.SEMICOLON)
	return &ast.ExprStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.end()), Expr: expr}
}

// parseIfStmt parses an if / else if / else chain. Every branch needs a
// braced block.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	startPos := p.tok.Pos
	p.expect(token.IF)

	stmt := &ast.IfStmt{If: p.parseBranch()}
	for p.tok.Type == token.ELSE {
		p.next()
		if p.tok.Type == token.IF {
			p.next()
			stmt.Elifs = append(stmt.Elifs, p.parseBranch())
			continue
		}
		stmt.Else = p.parseBlock()
		break
	}

	stmt.BaseStmt = ast.MakeBaseStmt(startPos, p.end())
	return stmt
}

func (p *Parser) parseBranch() ast.Branch {
	cond := p.parseCondition()
	return ast.Branch{Cond: cond, Body: p.parseBlock()}
}

// parseCondition parses a parenthesized loop or branch condition.
func (p *Parser) parseCondition() ast.Expr {
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	return cond
}

// parseWhileStmt parses "keepRollingIf (cond) block".
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	startPos := p.tok.Pos
	p.expect(token.WHILE)
	cond := p.parseCondition()
	body := p.parseBlock()
	return &ast.WhileStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.end()),
		Cond:     cond,
		Body:     body,
	}
}

// parseForStmt parses "keepRollingDuring (init; cond; post) block".
func (p *Parser) parseForStmt() *ast.ForStmt {
	startPos := p.tok.Pos
	p.expect(token.FOR)
	p.expect(token.LPAREN)

	var init ast.Stmt
	switch p.tok.Type {
	case token.SEMICOLON:
	case token.VAR:
		decl := p.parseVarDecl(false)
		init = &ast.VarStmt{BaseStmt: ast.MakeBaseStmt(decl.Pos(), decl.End()), Decl: decl}
	default:
		expr := p.parseExpr()
		init = &ast.ExprStmt{BaseStmt: ast.MakeBaseStmt(expr.Pos(), expr.End()), Expr: expr}
	}
	p.expect(token.SEMICOLON)

	var cond ast.Expr
	if p.tok.Type != token.SEMICOLON {
		cond = p.parseExpr()
	}
	p.expect(token.SEMICOLON)

	var post ast.Expr
	if p.tok.Type != token.RPAREN {
		post = p.parseExpr()
	}
	p.expect(token.RPAREN)

	body := p.parseBlock()
	return &ast.ForStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.end()),
		Init:     init,
		Cond:     cond,
		Post:     post,
		Body:     body,
	}
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// parseExpr parses an expression at the lowest precedence level.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

// parseAssign parses right-associative assignment. A field target becomes
// a SetExpr.
func (p *Parser) parseAssign() ast.Expr {
	left := p.parseOr()
	if !p.tok.Type.IsAssign() {
		return left
	}

	opTok := p.tok
	p.next()
	value := p.parseAssign()
	base := ast.MakeBaseExpr(left.Pos(), value.End())

	switch target := left.(type) {
	case *ast.GetExpr:
		return &ast.SetExpr{
			BaseExpr: base,
			Object:   target.Object,
			Name:     target.Name,
			NamePos:  target.NamePos,
			Op:       opTok.Type,
			Value:    value,
		}
	case *ast.Ident, *ast.IndexExpr:
		return &ast.AssignExpr{BaseExpr: base, Target: left, Op: opTok.Type, Value: value}
	}

	p.fail(errorf(opTok.Pos, "cannot assign to %s: target must be a variable, field or array element",
		ast.String(left)))
	return nil
}

// parseOr parses || expressions.
func (p *Parser) parseOr() ast.Expr {
	return p.parseLogical(p.parseAnd, token.OR)
}

// parseAnd parses && expressions.
func (p *Parser) parseAnd() ast.Expr {
	return p.parseLogical(p.parseEquality, token.AND)
}

func (p *Parser) parseLogical(higher func() ast.Expr, op token.Token) ast.Expr {
	expr := higher()
	for p.tok.Type == op {
		p.next()
		right := higher()
		expr = &ast.LogicalExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinaryLeft(p.parseRelational, token.EQUALS, token.NOT_EQUALS)
}

func (p *Parser) parseRelational() ast.Expr {
	return p.parseBinaryLeft(p.parseAdditive, token.LESS, token.LTE, token.GREATER, token.GTE)
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.parseBinaryLeft(p.parseMultiplicative, token.ADD, token.SUB)
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV, token.MOD)
}

// parseUnary parses prefix operators: ! - + ++ --.
func (p *Parser) parseUnary() ast.Expr {
	if !p.match(token.NOT, token.SUB, token.ADD, token.INCR, token.DECR) {
		return p.parsePostfix()
	}

	opTok := p.tok
	p.next()
	operand := p.parseUnary()
	if (opTok.Type == token.INCR || opTok.Type == token.DECR) && !ast.IsLValue(operand) {
		p.fail(errorf(opTok.Pos, "operand of %s must be a variable, field or array element", opTok.Type))
	}
	return &ast.UnaryExpr{
		BaseExpr: ast.MakeBaseExpr(opTok.Pos, operand.End()),
		Op:       opTok.Type,
		Operand:  operand,
	}
}

// parsePostfix parses calls, indexing, member access and postfix ++/--.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()

	for {
		switch p.tok.Type {
		case token.LPAREN:
			switch expr.(type) {
			case *ast.Ident, *ast.GetExpr:
			default:
				p.failf("%s is not callable", ast.String(expr))
			}
			args := p.parseArgs()
			expr = &ast.CallExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.end()),
				Callee:   expr,
				Args:     args,
			}

		case token.LBRACKET:
			p.next()
			index := p.parseExpr()
			p.expect(token.RBRACKET)
			expr = &ast.IndexExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.end()),
				Array:    expr,
				Index:    index,
			}

		case token.DOT:
			p.next()
			name, namePos := p.expectName("member name")
			expr = &ast.GetExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.end()),
				Object:   expr,
				Name:     name,
				NamePos:  namePos,
			}

		case token.INCR, token.DECR:
			if !ast.IsLValue(expr) {
				p.failf("operand of %s must be a variable, field or array element", p.tok.Type)
			}
			op := p.tok.Type
			p.next()
			expr = &ast.PostfixExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.end()),
				Target:   expr,
				Op:       op,
			}

		default:
			return expr
		}
	}
}

// parsePrimary parses literals, names, groups, casts and allocations.
func (p *Parser) parsePrimary() ast.Expr {
	tok := p.tok

	switch tok.Type {
	case token.INTLIT:
		p.next()
		v, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			p.fail(errorf(tok.Pos, "invalid int literal %s", tok.Lexeme))
		}
		return &ast.Literal{BaseExpr: p.span(tok), Kind: tok.Type, Raw: tok.Lexeme, Int: v}

	case token.DBLLIT:
		p.next()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.fail(errorf(tok.Pos, "invalid double literal %s", tok.Lexeme))
		}
		return &ast.Literal{BaseExpr: p.span(tok), Kind: tok.Type, Raw: tok.Lexeme, Float: v}

	case token.STRLIT:
		p.next()
		return &ast.Literal{BaseExpr: p.span(tok), Kind: tok.Type, Raw: tok.Lexeme, Str: tok.Value}

	case token.CHRLIT:
		p.next()
		r, _ := utf8.DecodeRuneInString(tok.Value)
		return &ast.Literal{BaseExpr: p.span(tok), Kind: tok.Type, Raw: tok.Lexeme, Int: int64(r)}

	case token.TRUE, token.FALSE, token.NULL:
		p.next()
		return &ast.Literal{BaseExpr: p.span(tok), Kind: tok.Type, Raw: tok.Lexeme}

	case token.IDENT:
		p.next()
		return &ast.Ident{BaseExpr: p.span(tok), Name: tok.Value}

	case token.ENTRANCE:
		p.next()
		return &ast.Ident{BaseExpr: p.span(tok), Name: "entrance"}

	case token.AT:
		p.next()
		return &ast.ThisExpr{BaseExpr: p.span(tok)}

	case token.LPAREN:
		p.next()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.GroupExpr{BaseExpr: p.span(tok), Expr: inner}

	case token.INT, token.DOUBLE, token.CHAR:
		if p.peek(1) != token.LPAREN {
			p.failf("type %s cannot be used as a value", tok.Type)
		}
		p.next()
		p.next()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.CastExpr{BaseExpr: p.span(tok), To: tok.Type, Expr: inner}

	case token.ACTION:
		return p.parseAction()

	case token.LBRACE:
		p.failf("array literal needs a type, as in action int[]{...}")
	}

	p.fail(expectedError(tok.Pos, "expression", p.tokenDesc()))
	return nil
}

// span returns the base of an expression that started at tok and ends at
// the previous token.
func (p *Parser) span(tok lexer.Token) ast.BaseExpr {
	return ast.MakeBaseExpr(tok.Pos, p.end())
}

// parseAction parses the three allocation forms:
//
//	action T(args)            object
//	action T[]..[]{e, ...}    array literal
//	action T[]..[][c]..[i]    capacities, optionally followed by {init}
//
// The empty pairs give the array's dimensions. Capacities fill at most that
// many dimensions; any further brackets are indexing.
func (p *Parser) parseAction() ast.Expr {
	start := p.tok
	p.expect(token.ACTION)
	typ := p.parseType(false)

	switch p.tok.Type {
	case token.LPAREN:
		if typ.Dims > 0 {
			p.failf("array type %s cannot take constructor arguments", typ)
		}
		args := p.parseArgs()
		if args == nil {
			args = []ast.Expr{}
		}
		return &ast.NewExpr{BaseExpr: p.span(start), Ref: typ, Args: args}

	case token.LBRACE:
		if typ.Dims == 0 {
			p.failf("array literal of %s needs [] after the type, as in action %s[]{...}", typ, typ)
		}
		lit := p.parseArrayLit(start.Pos)
		lit.Ref = typ
		return lit

	case token.LBRACKET:
		if typ.Dims == 0 {
			p.failf("array allocation of %s needs [] after the type, as in action %s[][n]", typ, typ)
		}
		n := &ast.NewExpr{Ref: typ}
		for p.tok.Type == token.LBRACKET && len(n.Caps) < typ.Dims {
			if p.peek(1) == token.RBRACKET {
				p.failf("empty [] must come before array capacities")
			}
			p.next()
			n.Caps = append(n.Caps, p.parseExpr())
			p.expect(token.RBRACKET)
		}
		if p.tok.Type == token.LBRACE {
			n.Init = p.parseArrayLit(p.tok.Pos)
		}
		n.BaseExpr = p.span(start)
		return n
	}

	p.fail(expectedError(p.tok.Pos, "'(', '{' or '[' after action type", p.tokenDesc()))
	return nil
}

// parseArrayLit parses "{" [elem {"," elem}] "}" where an element may itself
// be a bare braced list.
func (p *Parser) parseArrayLit(start token.Position) *ast.ArrayLit {
	p.expect(token.LBRACE)
	var elems []ast.Expr
	if p.tok.Type != token.RBRACE {
		for {
			if p.tok.Type == token.LBRACE {
				elems = append(elems, p.parseArrayLit(p.tok.Pos))
			} else {
				elems = append(elems, p.parseExpr())
			}
			if p.tok.Type != token.COMMA {
				break
			}
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return &ast.ArrayLit{BaseExpr: ast.MakeBaseExpr(start, p.end()), Elems: elems}
}

// -----------------------------------------------------------------------------
// Helper functions
// -----------------------------------------------------------------------------

// parseBinaryLeft parses left-associative binary operators.
func (p *Parser) parseBinaryLeft(higher func() ast.Expr, ops ...token.Token) ast.Expr {
	expr := higher()
	for p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := higher()
		expr = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseArgs parses a parenthesized, comma-separated argument list.
func (p *Parser) parseArgs() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	if p.tok.Type != token.RPAREN {
		for {
			args = append(args, p.parseExpr())
			if p.tok.Type != token.COMMA {
				break
			}
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return args
}
