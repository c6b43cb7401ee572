package token

import "testing"

func TestKeywordMapRoundTrip(t *testing.T) {
	for kw, typ := range KeywordMap {
		tok := Token{Type: typ, Lexeme: kw}
		if got := tok.String(); got != kw {
			t.Errorf("Token{%v}.String() = %q, want %q", typ, got, kw)
		}
	}
}

func TestTypeStringFallsBackToKeyword(t *testing.T) {
	if got := And.String(); got != "'and'" {
		t.Errorf("And.String() = %q, want 'and'", got)
	}
}

func TestTypeStringUsesTypeNames(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{EOF, "<eof>"},
		{Ident, "identifier"},
		{LParen, "'('"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestTokenStringPrefersLexeme(t *testing.T) {
	tok := Token{Type: Number, Lexeme: "42"}
	if got := tok.String(); got != "42" {
		t.Errorf("Token.String() = %q, want %q", got, "42")
	}
}
