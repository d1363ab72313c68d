package token

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  Token
	}{
		{"scene", SCENE},
		{"keepRollingDuring", FOR},
		{"keepRollingIf", WHILE},
		{"cut", CUT},
		{"scrap", SCRAP},
		{"true", TRUE},
		{"project", IDENT},
		{"capture", IDENT},
		{"Setup", IDENT},
	}
	for _, tt := range tests {
		if got := LookupIdent(tt.ident); got != tt.want {
			t.Errorf("LookupIdent(%q) = %v, want %v", tt.ident, got, tt.want)
		}
	}
}

func TestTokenClasses(t *testing.T) {
	if !ADD_ASSIGN.IsOperator() || VAR.IsOperator() {
		t.Error("IsOperator misclassifies")
	}
	if !ENTRANCE.IsKeyword() || IDENT.IsKeyword() {
		t.Error("IsKeyword misclassifies")
	}
	if !STRLIT.IsLiteral() || AT.IsLiteral() {
		t.Error("IsLiteral misclassifies")
	}
	if !BOOL.IsTypeName() || SCRAP.IsTypeName() {
		t.Error("IsTypeName misclassifies")
	}
	if MOD_ASSIGN.BinaryOf() != MOD || ASSIGN.BinaryOf() != ILLEGAL {
		t.Error("BinaryOf misclassifies")
	}
}

func TestTokenString(t *testing.T) {
	tests := map[Token]string{
		ADD_ASSIGN: "+=",
		FOR:        "keepRollingDuring",
		IDENT:      "identifier",
		EOF:        "EOF",
		Token(250): "<unknown>",
	}
	for tok, want := range tests {
		if got := tok.String(); got != want {
			t.Errorf("Token(%d).String() = %q, want %q", tok, got, want)
		}
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Line: 3, Column: 7}
	if p.String() != "3:7" {
		t.Errorf("got %q", p.String())
	}
	p.Filename = "main.cin"
	if p.String() != "main.cin:3:7" {
		t.Errorf("got %q", p.String())
	}
	if NoPos.IsValid() || !p.IsValid() {
		t.Error("IsValid misreports")
	}
	if !(Position{Line: 1, Column: 9}).Before(p) {
		t.Error("Before misreports")
	}
}
