// Package token defines the lexical tokens of the AbsoluteCinema language.
package token

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota // <illegal>
	EOF                  // EOF

	// Operators and delimiters
	operatorStart
	ADD        // +
	ADD_ASSIGN // +=
	SUB        // -
	SUB_ASSIGN // -=
	MUL        // *
	MUL_ASSIGN // *=
	DIV        // /
	DIV_ASSIGN // /=
	MOD        // %
	MOD_ASSIGN // %=

	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=

	AND // &&
	OR  // ||
	NOT // !

	INCR // ++
	DECR // --

	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :
	AT        // @
	operatorEnd

	// Keywords
	keywordStart
	VAR      // var
	SCENE    // scene
	CUT      // cut
	SCRAP    // scrap
	SETUP    // setup
	ACTION   // action
	IF       // if
	ELSE     // else
	FOR      // keepRollingDuring
	WHILE    // keepRollingIf
	SKIP     // skip
	EXIT     // exit
	ENTRANCE // entrance
	INT      // int
	DOUBLE   // double
	CHAR     // char
	STRINGKW // string
	BOOL     // bool
	TRUE     // true
	FALSE    // false
	NULL     // null
	keywordEnd

	// Literals
	IDENT  // identifier
	INTLIT // int literal
	DBLLIT // double literal
	STRLIT // string literal
	CHRLIT // char literal
)

var tokenNames = [...]string{
	ILLEGAL: "<illegal>",
	EOF:     "EOF",

	ADD:        "+",
	ADD_ASSIGN: "+=",
	SUB:        "-",
	SUB_ASSIGN: "-=",
	MUL:        "*",
	MUL_ASSIGN: "*=",
	DIV:        "/",
	DIV_ASSIGN: "/=",
	MOD:        "%",
	MOD_ASSIGN: "%=",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	INCR:       "++",
	DECR:       "--",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	LBRACKET:   "[",
	RBRACKET:   "]",
	COMMA:      ",",
	DOT:        ".",
	SEMICOLON:  ";",
	COLON:      ":",
	AT:         "@",

	VAR:      "var",
	SCENE:    "scene",
	CUT:      "cut",
	SCRAP:    "scrap",
	SETUP:    "setup",
	ACTION:   "action",
	IF:       "if",
	ELSE:     "else",
	FOR:      "keepRollingDuring",
	WHILE:    "keepRollingIf",
	SKIP:     "skip",
	EXIT:     "exit",
	ENTRANCE: "entrance",
	INT:      "int",
	DOUBLE:   "double",
	CHAR:     "char",
	STRINGKW: "string",
	BOOL:     "bool",
	TRUE:     "true",
	FALSE:    "false",
	NULL:     "null",

	IDENT:  "identifier",
	INTLIT: "int literal",
	DBLLIT: "double literal",
	STRLIT: "string literal",
	CHRLIT: "char literal",
}

// String returns the source spelling of operators and keywords and a
// descriptive name for everything else.
func (t Token) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "<unknown>"
}

// IsOperator returns true if the token is an operator or delimiter.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword returns true if the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsLiteral returns true for identifiers and literal tokens.
func (t Token) IsLiteral() bool {
	return t >= IDENT && t <= CHRLIT
}

// IsTypeName returns true for the primitive type keywords.
func (t Token) IsTypeName() bool {
	switch t {
	case INT, DOUBLE, CHAR, STRINGKW, BOOL:
		return true
	}
	return false
}

// IsAssign returns true for "=" and the compound assignment operators.
func (t Token) IsAssign() bool {
	switch t {
	case ASSIGN, ADD_ASSIGN, SUB_ASSIGN, MUL_ASSIGN, DIV_ASSIGN, MOD_ASSIGN:
		return true
	}
	return false
}

// BinaryOf maps a compound assignment operator to its arithmetic operator.
// It returns ILLEGAL for anything else.
func (t Token) BinaryOf() Token {
	switch t {
	case ADD_ASSIGN:
		return ADD
	case SUB_ASSIGN:
		return SUB
	case MUL_ASSIGN:
		return MUL
	case DIV_ASSIGN:
		return DIV
	case MOD_ASSIGN:
		return MOD
	}
	return ILLEGAL
}

// keywords maps reserved words to their token types. The standard library
// names project and capture are deliberately absent.
var keywords = map[string]Token{
	"var":               VAR,
	"scene":             SCENE,
	"cut":               CUT,
	"scrap":             SCRAP,
	"setup":             SETUP,
	"action":            ACTION,
	"if":                IF,
	"else":              ELSE,
	"keepRollingDuring": FOR,
	"keepRollingIf":     WHILE,
	"skip":              SKIP,
	"exit":              EXIT,
	"entrance":          ENTRANCE,
	"int":               INT,
	"double":            DOUBLE,
	"char":              CHAR,
	"string":            STRINGKW,
	"bool":              BOOL,
	"true":              TRUE,
	"false":             FALSE,
	"null":              NULL,
}

// LookupIdent returns the keyword token for ident, or IDENT.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
