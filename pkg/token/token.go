// Package token defines the lexical token model shared by the lexer and parser.
package token

// Type identifies the lexical category of a Token.
type Type int

const (
	EOF Type = iota
	Newline

	Ident
	Number
	FloatNumber
	String
	// InlineCBlock carries the verbatim text of an `inline C[[ ... ]]`
	// block; the lexer recognizes the `C[[ ... ]]` marker specially so
	// its contents never pass through normal tokenization.
	InlineCBlock

	// Keywords
	Local
	Global
	Const
	Function
	Return
	If
	Then
	Elseif
	Else
	End
	While
	Do
	For
	Repeat
	Until
	Print
	Struct
	Class
	Enum
	Public
	Private
	Static
	Self
	Inline
	And
	Or
	Not
	True
	False
	Nil
	NumberType
	StringType
	BoolType

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Colon
	Dot
	Question
	Bang

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	StarStar
	SlashSlash
	DotDot
	QuestionQuestion

	Eq
	EqEq
	Neq
	Lt
	Lte
	Gt
	Gte

	PlusEq
	MinusEq
	StarEq
	SlashEq
	PercentEq
	StarStarEq
	SlashSlashEq
)

// KeywordMap maps reserved identifiers to their token type.
var KeywordMap = map[string]Type{
	"local":    Local,
	"global":   Global,
	"const":    Const,
	"function": Function,
	"return":   Return,
	"if":       If,
	"then":     Then,
	"elseif":   Elseif,
	"else":     Else,
	"end":      End,
	"while":    While,
	"do":       Do,
	"for":      For,
	"repeat":   Repeat,
	"until":    Until,
	"print":    Print,
	"struct":   Struct,
	"class":    Class,
	"enum":     Enum,
	"public":   Public,
	"private":  Private,
	"static":   Static,
	"self":     Self,
	"inline":   Inline,
	"and":      And,
	"or":       Or,
	"not":      Not,
	"true":     True,
	"false":    False,
	"nil":      Nil,
	"number":   NumberType,
	"string":   StringType,
	"bool":     BoolType,
}

// TypeNames gives a human-readable name for a token type, used in diagnostics.
var TypeNames = map[Type]string{
	EOF: "<eof>", Newline: "<newline>", Ident: "identifier",
	Number: "number", FloatNumber: "float", String: "string",
	InlineCBlock: "inline C block",
	LParen: "'('", RParen: "')'", LBrace: "'{'", RBrace: "'}'",
	Comma: "','", Colon: "':'", Dot: "'.'", Question: "'?'", Bang: "'!'",
}

func (t Type) String() string {
	if name, ok := TypeNames[t]; ok {
		return name
	}
	for kw, typ := range KeywordMap {
		if typ == t {
			return "'" + kw + "'"
		}
	}
	return "<token>"
}

// Literal holds the decoded payload of a literal token: at most one of
// these fields is meaningful, selected by the owning Token's Type.
type Literal struct {
	Int    int64
	Float  float64
	String string
}

// Token is a single lexical unit: a tag, its raw lexeme, an optional
// decoded literal payload, and the source line it came from.
type Token struct {
	Type    Type
	Lexeme  string
	Literal Literal
	Line    int
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return t.Lexeme
	}
	return t.Type.String()
}
