package lexer

import (
	"testing"

	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Reporter) {
	rep := diag.NewReporter(src)
	toks := NewLexer(src, rep).Lex()
	if len(toks) == 0 || toks[len(toks)-1].Type != token.EOF {
		t.Fatalf("Lex(%q) did not end in EOF: %+v", src, toks)
	}
	return toks, rep
}

func typesOf(toks []token.Token) []token.Type {
	types := make([]token.Type, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks, rep := lexAll(t, "local x = 1")
	if rep.Count() != 0 {
		t.Fatalf("unexpected lex errors: %d", rep.Count())
	}
	want := []token.Type{token.Local, token.Ident, token.Eq, token.Number, token.EOF}
	if got := typesOf(toks); !equalTypes(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
}

func TestLexTwoCharOperatorsGreedy(t *testing.T) {
	tests := []struct {
		src  string
		want token.Type
	}{
		{"==", token.EqEq},
		{"!=", token.Neq},
		{"<=", token.Lte},
		{">=", token.Gte},
		{"??", token.QuestionQuestion},
		{"..", token.DotDot},
		{"**", token.StarStar},
		{"//", token.SlashSlash},
		{"+=", token.PlusEq},
		{"**=", token.StarStarEq},
		{"//=", token.SlashSlashEq},
	}
	for _, tt := range tests {
		toks, rep := lexAll(t, tt.src)
		if rep.Count() != 0 {
			t.Fatalf("%q: unexpected lex errors", tt.src)
		}
		if toks[0].Type != tt.want {
			t.Errorf("lex(%q)[0].Type = %v, want %v", tt.src, toks[0].Type, tt.want)
		}
	}
}

func TestLexFloatVsIntLiteral(t *testing.T) {
	toks, _ := lexAll(t, "42 3.5")
	if toks[0].Type != token.Number || toks[0].Literal.Int != 42 {
		t.Errorf("first literal = %+v, want Number 42", toks[0])
	}
	if toks[1].Type != token.FloatNumber || toks[1].Literal.Float != 3.5 {
		t.Errorf("second literal = %+v, want FloatNumber 3.5", toks[1])
	}
}

func TestLexBoundaryIntegerLiteral(t *testing.T) {
	toks, rep := lexAll(t, "9223372036854775808")
	if rep.Count() != 0 {
		t.Errorf("boundary literal should not report an overflow, got %d errors", rep.Count())
	}
	if toks[0].Type != token.Number {
		t.Fatalf("boundary literal Type = %v, want Number", toks[0].Type)
	}
}

func TestLexOverflowIntegerLiteralErrors(t *testing.T) {
	toks, rep := lexAll(t, "99999999999999999999")
	if rep.Count() != 1 {
		t.Errorf("Count() = %d, want 1", rep.Count())
	}
	if toks[0].Literal.Int != 0 {
		t.Errorf("Literal.Int = %d, want 0 (saturated)", toks[0].Literal.Int)
	}
}

func TestLexStringLiteral(t *testing.T) {
	toks, rep := lexAll(t, `"hello"`)
	if rep.Count() != 0 {
		t.Fatalf("unexpected lex errors")
	}
	if toks[0].Type != token.String || toks[0].Literal.String != "hello" {
		t.Errorf("string literal = %+v, want String \"hello\"", toks[0])
	}
}

func TestLexUnterminatedStringReportsError(t *testing.T) {
	_, rep := lexAll(t, `"unterminated`)
	if rep.Count() != 1 {
		t.Errorf("Count() = %d, want 1", rep.Count())
	}
}

func TestLexCommentIsSkipped(t *testing.T) {
	toks, rep := lexAll(t, "-- a comment\nlocal x = 1")
	if rep.Count() != 0 {
		t.Fatalf("unexpected lex errors")
	}
	want := []token.Type{token.Newline, token.Local, token.Ident, token.Eq, token.Number, token.EOF}
	if got := typesOf(toks); !equalTypes(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
}

func TestLexInlineCBlock(t *testing.T) {
	toks, rep := lexAll(t, "inline C[[ int x = 1; ]]")
	if rep.Count() != 0 {
		t.Fatalf("unexpected lex errors")
	}
	if toks[1].Type != token.InlineCBlock {
		t.Fatalf("toks[1].Type = %v, want InlineCBlock", toks[1].Type)
	}
	if got := toks[1].Literal.String; got != " int x = 1; " {
		t.Errorf("inline C body = %q", got)
	}
}

func equalTypes(a, b []token.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
