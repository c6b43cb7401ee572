// Package lexer turns HolyLua source text into a token stream.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/token"
)

// maxUint63Literal is the one intentional boundary value: 2^63,
// preserved as an integer literal without triggering the overflow
// diagnostic even though it doesn't fit a signed 64-bit value.
const maxUint63Literal = "9223372036854775808"

// Lexer performs a single forward scan over the source runes.
type Lexer struct {
	source []rune
	pos    int
	line   int
	rep    *diag.Reporter
}

// NewLexer creates a Lexer over source, reporting lexical errors to rep.
func NewLexer(source string, rep *diag.Reporter) *Lexer {
	return &Lexer{source: []rune(source), pos: 0, line: 1, rep: rep}
}

// Next returns the next token in the stream, including an EOF sentinel
// once the source is exhausted.
func (l *Lexer) Next() token.Token {
	for {
		l.skipSpaceAndComments()

		if l.isAtEnd() {
			return l.make(token.EOF, "")
		}

		startLine := l.line
		ch := l.peek()

		if ch == '\n' {
			l.advance()
			l.line++
			return token.Token{Type: token.Newline, Line: startLine}
		}

		if ch == 'C' && l.peekAt(1) == '[' && l.peekAt(2) == '[' {
			return l.inlineCBlock()
		}
		if unicode.IsLetter(ch) || ch == '_' {
			return l.identifierOrKeyword()
		}
		if unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peekAt(1))) {
			return l.numberLiteral()
		}
		if ch == '"' {
			return l.stringLiteral()
		}

		l.advance()
		switch ch {
		case '(':
			return l.make(token.LParen, "(")
		case ')':
			return l.make(token.RParen, ")")
		case '{':
			return l.make(token.LBrace, "{")
		case '}':
			return l.make(token.RBrace, "}")
		case ',':
			return l.make(token.Comma, ",")
		case ':':
			return l.make(token.Colon, ":")
		case '?':
			if l.match('?') {
				return l.make(token.QuestionQuestion, "??")
			}
			return l.make(token.Question, "?")
		case '!':
			if l.match('=') {
				return l.make(token.Neq, "!=")
			}
			return l.make(token.Bang, "!")
		case '.':
			if l.match('.') {
				return l.make(token.DotDot, "..")
			}
			return l.make(token.Dot, ".")
		case '+':
			if l.match('=') {
				return l.make(token.PlusEq, "+=")
			}
			return l.make(token.Plus, "+")
		case '-':
			if l.match('=') {
				return l.make(token.MinusEq, "-=")
			}
			return l.make(token.Minus, "-")
		case '*':
			if l.match('*') {
				if l.match('=') {
					return l.make(token.StarStarEq, "**=")
				}
				return l.make(token.StarStar, "**")
			}
			if l.match('=') {
				return l.make(token.StarEq, "*=")
			}
			return l.make(token.Star, "*")
		case '/':
			if l.match('/') {
				if l.match('=') {
					return l.make(token.SlashSlashEq, "//=")
				}
				return l.make(token.SlashSlash, "//")
			}
			if l.match('=') {
				return l.make(token.SlashEq, "/=")
			}
			return l.make(token.Slash, "/")
		case '%':
			if l.match('=') {
				return l.make(token.PercentEq, "%=")
			}
			return l.make(token.Percent, "%")
		case '=':
			if l.match('=') {
				return l.make(token.EqEq, "==")
			}
			return l.make(token.Eq, "=")
		case '<':
			if l.match('=') {
				return l.make(token.Lte, "<=")
			}
			return l.make(token.Lt, "<")
		case '>':
			if l.match('=') {
				return l.make(token.Gte, ">=")
			}
			return l.make(token.Gt, ">")
		}

		l.rep.Report(diag.KindLexer, startLine, "unexpected character %q", ch)
	}
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.source) {
		return 0
	}
	return l.source[l.pos+offset]
}

func (l *Lexer) advance() rune {
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) make(typ token.Type, lexeme string) token.Token {
	return token.Token{Type: typ, Lexeme: lexeme, Line: l.line}
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '-':
			if l.peekAt(1) == '-' {
				l.advance()
				l.advance()
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) identifierOrKeyword() token.Token {
	start := l.pos
	for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	name := string(l.source[start:l.pos])
	if typ, isKeyword := token.KeywordMap[name]; isKeyword {
		return token.Token{Type: typ, Lexeme: name, Line: l.line}
	}
	return token.Token{Type: token.Ident, Lexeme: name, Line: l.line}
}

func (l *Lexer) numberLiteral() token.Token {
	start := l.pos
	startLine := l.line
	isFloat := false

	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}

	valueStr := string(l.source[start:l.pos])

	if isFloat {
		val, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			l.rep.Report(diag.KindLexer, startLine, "invalid floating-point literal %q", valueStr)
			return token.Token{Type: token.FloatNumber, Lexeme: valueStr, Line: startLine}
		}
		return token.Token{Type: token.FloatNumber, Lexeme: valueStr, Line: startLine, Literal: token.Literal{Float: val}}
	}

	if valueStr == maxUint63Literal {
		return token.Token{Type: token.Number, Lexeme: valueStr, Line: startLine, Literal: token.Literal{Int: -1 << 63}}
	}

	val, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			if u, uerr := strconv.ParseUint(valueStr, 10, 64); uerr == nil {
				l.rep.ReportLiteralOverflow(startLine, valueStr, u)
				return token.Token{Type: token.Number, Lexeme: valueStr, Line: startLine, Literal: token.Literal{Int: 0}}
			}
		}
		l.rep.Report(diag.KindLexer, startLine, "invalid numeric literal %q", valueStr)
		return token.Token{Type: token.Number, Lexeme: valueStr, Line: startLine}
	}
	return token.Token{Type: token.Number, Lexeme: valueStr, Line: startLine, Literal: token.Literal{Int: val}}
}

func (l *Lexer) stringLiteral() token.Token {
	startLine := l.line
	l.advance() // opening quote
	var sb strings.Builder
	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		sb.WriteRune(l.advance())
	}
	if l.isAtEnd() || l.peek() != '"' {
		l.rep.Report(diag.KindLexer, startLine, "unterminated string literal")
		return token.Token{Type: token.String, Lexeme: sb.String(), Line: startLine, Literal: token.Literal{String: sb.String()}}
	}
	l.advance() // closing quote
	return token.Token{Type: token.String, Lexeme: sb.String(), Line: startLine, Literal: token.Literal{String: sb.String()}}
}

// inlineCBlock scans the verbatim body of `C[[ ... ]]`, counting line
// breaks inside it so subsequent diagnostics still report correct lines.
func (l *Lexer) inlineCBlock() token.Token {
	startLine := l.line
	l.advance() // 'C'
	l.advance() // '['
	l.advance() // '['
	start := l.pos
	for !l.isAtEnd() && !(l.peek() == ']' && l.peekAt(1) == ']') {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}
	body := string(l.source[start:l.pos])
	if l.isAtEnd() {
		l.rep.Report(diag.KindLexer, startLine, "unterminated inline C block")
		return token.Token{Type: token.InlineCBlock, Line: startLine, Literal: token.Literal{String: body}}
	}
	l.advance() // ']'
	l.advance() // ']'
	return token.Token{Type: token.InlineCBlock, Lexeme: "C[[...]]", Line: startLine, Literal: token.Literal{String: body}}
}

// Lex tokenizes the whole source, returning the token stream terminated
// by a single EOF sentinel.
func (l *Lexer) Lex() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}
