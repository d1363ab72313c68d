// Package lexer provides AbsoluteCinema source code tokenization.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/kolkov/cinema/internal/token"
)

// eof is the sentinel character returned past the end of the source.
const eof = -1

// Lexer tokenizes AbsoluteCinema source code.
type Lexer struct {
	src     []byte         // Source code
	ch      rune           // Current character (eof at end)
	offset  int            // Offset of the next character
	pos     token.Position // Position of the current character
	nextPos token.Position // Position of the next character
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	l := &Lexer{
		src: src,
		nextPos: token.Position{
			Line:   1,
			Column: 1,
		},
	}
	l.next()
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New([]byte(src))
}

// Token is a scanned token.
//
// Lexeme is the raw source text of the token. Value is the literal value:
// the decoded text of string and char literals, the digits of numeric
// literals without a type suffix, the message of an ILLEGAL token, and the
// lexeme otherwise.
type Token struct {
	Type   token.Token
	Pos    token.Position
	Lexeme string
	Value  string
}

// Error is a lexical error.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Tokenize scans the whole source. The returned slice always ends with an
// EOF token. The first ILLEGAL token stops scanning and is reported as an
// *Error.
func Tokenize(src []byte) ([]Token, error) {
	l := New(src)
	var toks []Token
	for {
		tok := l.Scan()
		if tok.Type == token.ILLEGAL {
			return nil, &Error{Pos: tok.Pos, Message: tok.Value}
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	l.skipWhitespaceAndComments()

	pos := l.pos
	if l.ch == eof {
		return Token{Type: token.EOF, Pos: pos}
	}

	switch l.ch {
	case '+':
		l.next()
		if l.ch == '+' {
			return l.op(token.INCR, pos)
		}
		if l.ch == '=' {
			return l.op(token.ADD_ASSIGN, pos)
		}
		return l.emit(token.ADD, pos)

	case '-':
		l.next()
		if l.ch == '-' {
			return l.op(token.DECR, pos)
		}
		if l.ch == '=' {
			return l.op(token.SUB_ASSIGN, pos)
		}
		return l.emit(token.SUB, pos)

	case '*':
		l.next()
		if l.ch == '=' {
			return l.op(token.MUL_ASSIGN, pos)
		}
		return l.emit(token.MUL, pos)

	case '/':
		l.next()
		if l.ch == '=' {
			return l.op(token.DIV_ASSIGN, pos)
		}
		return l.emit(token.DIV, pos)

	case '%':
		l.next()
		if l.ch == '=' {
			return l.op(token.MOD_ASSIGN, pos)
		}
		return l.emit(token.MOD, pos)

	case '=':
		l.next()
		if l.ch == '=' {
			return l.op(token.EQUALS, pos)
		}
		return l.emit(token.ASSIGN, pos)

	case '!':
		l.next()
		if l.ch == '=' {
			return l.op(token.NOT_EQUALS, pos)
		}
		return l.emit(token.NOT, pos)

	case '<':
		l.next()
		if l.ch == '=' {
			return l.op(token.LTE, pos)
		}
		return l.emit(token.LESS, pos)

	case '>':
		l.next()
		if l.ch == '=' {
			return l.op(token.GTE, pos)
		}
		return l.emit(token.GREATER, pos)

	case '&':
		l.next()
		if l.ch == '&' {
			return l.op(token.AND, pos)
		}
		return illegal(pos, "unexpected '&' (did you mean '&&'?)")

	case '|':
		l.next()
		if l.ch == '|' {
			return l.op(token.OR, pos)
		}
		return illegal(pos, "unexpected '|' (did you mean '||'?)")

	case '(':
		return l.op(token.LPAREN, pos)
	case ')':
		return l.op(token.RPAREN, pos)
	case '{':
		return l.op(token.LBRACE, pos)
	case '}':
		return l.op(token.RBRACE, pos)
	case '[':
		return l.op(token.LBRACKET, pos)
	case ']':
		return l.op(token.RBRACKET, pos)
	case ',':
		return l.op(token.COMMA, pos)
	case '.':
		return l.op(token.DOT, pos)
	case ';':
		return l.op(token.SEMICOLON, pos)
	case ':':
		return l.op(token.COLON, pos)
	case '@':
		return l.op(token.AT, pos)

	case '"':
		return l.scanString(pos)
	case '\'':
		return l.scanChar(pos)

	default:
		if isDigit(l.ch) {
			return l.scanNumber(pos)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(pos)
		}
		ch := l.ch
		l.next()
		return illegal(pos, fmt.Sprintf("unexpected character %q", ch))
	}
}

// op consumes the current character and emits a token ending there.
func (l *Lexer) op(typ token.Token, pos token.Position) Token {
	l.next()
	return l.emit(typ, pos)
}

// emit builds a token spanning pos up to the current character.
func (l *Lexer) emit(typ token.Token, pos token.Position) Token {
	text := string(l.src[pos.Offset:l.pos.Offset])
	return Token{Type: typ, Pos: pos, Lexeme: text, Value: text}
}

func illegal(pos token.Position, msg string) Token {
	return Token{Type: token.ILLEGAL, Pos: pos, Value: msg}
}

func (l *Lexer) scanString(pos token.Position) Token {
	l.next() // consume opening quote

	var sb []byte
	for l.ch != '"' {
		switch l.ch {
		case eof:
			return illegal(pos, "unterminated string literal")
		case '\n':
			return illegal(pos, "newline in string literal")
		case '\\':
			ch, ok := l.scanEscape()
			if !ok {
				return l.escapeError(pos, "string")
			}
			sb = utf8.AppendRune(sb, ch)
		default:
			sb = utf8.AppendRune(sb, l.ch)
			l.next()
		}
	}
	l.next() // consume closing quote

	tok := l.emit(token.STRLIT, pos)
	tok.Value = string(sb)
	return tok
}

func (l *Lexer) scanChar(pos token.Position) Token {
	l.next() // consume opening quote

	var value rune
	switch l.ch {
	case eof, '\n':
		return illegal(pos, "unterminated char literal")
	case '\'':
		return illegal(pos, "empty char literal")
	case '\\':
		ch, ok := l.scanEscape()
		if !ok {
			return l.escapeError(pos, "char")
		}
		value = ch
	default:
		value = l.ch
		l.next()
	}
	if l.ch != '\'' {
		if l.ch == eof || l.ch == '\n' {
			return illegal(pos, "unterminated char literal")
		}
		return illegal(pos, "char literal must contain exactly one character")
	}
	if value > 0xFFFF {
		return illegal(pos, "char literal out of range")
	}
	l.next() // consume closing quote

	tok := l.emit(token.CHRLIT, pos)
	tok.Value = string(value)
	return tok
}

// scanEscape consumes a backslash escape and returns the character it
// denotes. On an unknown escape it stops at the offending character.
func (l *Lexer) scanEscape() (rune, bool) {
	l.next() // consume backslash
	var ch rune
	switch l.ch {
	case 'n':
		ch = '\n'
	case 'r':
		ch = '\r'
	case 't':
		ch = '\t'
	case '\\', '"', '\'':
		ch = l.ch
	default:
		return 0, false
	}
	l.next()
	return ch, true
}

func (l *Lexer) escapeError(start token.Position, kind string) Token {
	if l.ch == eof || l.ch == '\n' {
		return illegal(start, "unterminated "+kind+" literal")
	}
	return illegal(l.pos, fmt.Sprintf("unknown escape sequence '\\%c'", l.ch))
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	isDouble := false
	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		isDouble = true
		l.next() // .
		for isDigit(l.ch) {
			l.next()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && l.hasValidExponent() {
		isDouble = true
		l.next() // e/E
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		for isDigit(l.ch) {
			l.next()
		}
	}
	digits := string(l.src[pos.Offset:l.pos.Offset])
	switch l.ch {
	case 'f', 'F', 'd', 'D':
		isDouble = true
		l.next()
	}
	if isIdentStart(l.ch) {
		for isIdentContinue(l.ch) {
			l.next()
		}
		return illegal(pos, fmt.Sprintf("malformed number %q", string(l.src[pos.Offset:l.pos.Offset])))
	}

	if isDouble {
		if _, err := strconv.ParseFloat(digits, 64); err != nil {
			return illegal(pos, fmt.Sprintf("double literal %s out of range", digits))
		}
		tok := l.emit(token.DBLLIT, pos)
		tok.Value = digits
		return tok
	}
	if _, err := strconv.ParseInt(digits, 10, 32); err != nil {
		return illegal(pos, fmt.Sprintf("int literal %s out of range", digits))
	}
	return l.emit(token.INTLIT, pos)
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	for isIdentContinue(l.ch) {
		l.next()
	}
	tok := l.emit(token.IDENT, pos)
	tok.Type = token.LookupIdent(tok.Lexeme)
	return tok
}

// hasValidExponent reports whether the e/E at the current position starts
// an exponent, that is, is followed by digits with an optional sign.
func (l *Lexer) hasValidExponent() bool {
	idx := l.offset
	if idx < len(l.src) && (l.src[idx] == '+' || l.src[idx] == '-') {
		idx++
	}
	return idx < len(l.src) && isDigit(rune(l.src[idx]))
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.next()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != eof && l.ch != '\n' {
				l.next()
			}
		default:
			return
		}
	}
}

// peek returns the character after the current one without consuming it.
func (l *Lexer) peek() rune {
	if l.offset >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRune(l.src[l.offset:])
	return r
}

func (l *Lexer) next() {
	l.pos = l.nextPos
	if l.offset >= len(l.src) {
		l.ch = eof
		return
	}

	r, size := rune(l.src[l.offset]), 1
	if r >= utf8.RuneSelf {
		r, size = utf8.DecodeRune(l.src[l.offset:])
	}
	l.ch = r
	l.offset += size
	l.nextPos.Offset = l.offset
	l.nextPos.Column += size
	if r == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	}
}

// Helper functions

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
