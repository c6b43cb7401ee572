// Package parser implements a recursive-descent, operator-precedence
// parser that turns a token stream into an AST.
package parser

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/token"
)

// syncKeywords is the keyword set the parser resynchronizes to after a
// syntax error: NEWLINE, END, or one of these leading statement keywords.
var syncKeywords = map[token.Type]bool{
	token.Function: true,
	token.Class:    true,
	token.For:      true,
	token.While:    true,
	token.If:       true,
	token.Return:   true,
	token.End:      true,
}

// Parser consumes a fixed token slice with one token of lookahead, plus
// ad-hoc extra lookahead for struct-constructor disambiguation.
type Parser struct {
	toks []token.Token
	pos  int
	rep  *diag.Reporter

	declaredStructs map[string]bool
	declaredClasses map[string]bool
	declaredEnums   map[string]bool
}

// NewParser creates a Parser over toks (including a trailing EOF token),
// reporting syntax errors to rep.
func NewParser(toks []token.Token, rep *diag.Reporter) *Parser {
	return &Parser{
		toks:            toks,
		rep:             rep,
		declaredStructs: make(map[string]bool),
		declaredClasses: make(map[string]bool),
		declaredEnums:   make(map[string]bool),
	}
}

// Parse consumes the whole token stream and returns the program as a Block.
func (p *Parser) Parse() *ast.Node {
	line := p.current().Line
	stmts := p.parseStatementsUntil(func() bool { return p.check(token.EOF) })
	return ast.NewBlock(line, stmts)
}

// --- token cursor helpers ---

func (p *Parser) current() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(t token.Type) bool { return p.current().Type == t }

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of type t or reports a syntax error naming what
// was expected, returning the (possibly wrong) current token regardless.
func (p *Parser) expect(t token.Type, what string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.rep.Report(diag.KindParser, p.current().Line, "expected %s, found %s", what, p.current())
	return p.current()
}

// skipNewlines consumes any run of NEWLINE tokens; blocks, fields, and
// value lists all treat newlines as insignificant separators.
func (p *Parser) skipNewlines() {
	for p.check(token.Newline) {
		p.advance()
	}
}

// skipSeparators consumes a run of NEWLINE and COMMA tokens, used between
// list items such as enum values and struct fields.
func (p *Parser) skipSeparators() {
	for p.check(token.Newline) || p.check(token.Comma) {
		p.advance()
	}
}

// synchronize advances past a failing construct to the next statement
// boundary: NEWLINE, END, or one of the leading statement keywords.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.check(token.Newline) {
			p.advance()
			return
		}
		if syncKeywords[p.current().Type] {
			return
		}
		p.advance()
	}
}

// --- statement lists ---

func (p *Parser) parseStatementsUntil(done func() bool) []*ast.Node {
	var stmts []*ast.Node
	p.skipNewlines()
	for !done() && !p.check(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) parseBlockUntilEnd() *ast.Node {
	line := p.current().Line
	stmts := p.parseStatementsUntil(func() bool { return p.check(token.End) })
	p.expect(token.End, "'end'")
	return ast.NewBlock(line, stmts)
}

// --- statements ---

func (p *Parser) parseStatement() *ast.Node {
	startPos := p.pos
	stmt := p.parseStatementInner()
	if stmt == nil && p.pos == startPos {
		// No progress was made; avoid an infinite loop on a token no
		// production recognizes.
		p.rep.Report(diag.KindParser, p.current().Line, "unexpected token %s", p.current())
		p.synchronize()
		if p.pos == startPos {
			p.advance()
		}
	}
	return stmt
}

func (p *Parser) parseStatementInner() *ast.Node {
	switch p.current().Type {
	case token.Local, token.Global:
		return p.parseVarDecl()
	case token.Function:
		return p.parseFuncDecl()
	case token.Return:
		return p.parseReturn()
	case token.Print:
		return p.parsePrint()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Repeat:
		return p.parseRepeatUntil()
	case token.Struct:
		return p.parseStructDecl()
	case token.Class:
		return p.parseClassDecl()
	case token.Enum:
		return p.parseEnumDecl()
	case token.Inline:
		return p.parseInlineC()
	case token.Ident, token.Self:
		return p.parseIdentifierLeadStatement()
	default:
		return nil
	}
}

func (p *Parser) parseVarDecl() *ast.Node {
	line := p.current().Line
	kind := ast.DeclLocal
	if p.current().Type == token.Global {
		kind = ast.DeclGlobal
	}
	p.advance() // local|global

	isConst := p.match(token.Const)

	nameTok := p.expect(token.Ident, "a variable name")
	name := nameTok.Lexeme

	var annotation *ast.Type
	if p.match(token.Colon) {
		annotation = p.parseTypeAnnotation()
	}

	var init *ast.Node
	if p.match(token.Eq) {
		init = p.parseExpression()
	}

	return ast.NewVarDecl(line, kind, isConst, name, annotation, init)
}

// parseTypeAnnotation parses `Type` or `Type?`, where Type is one of the
// builtin type keywords or an identifier naming a struct, class, or enum.
func (p *Parser) parseTypeAnnotation() *ast.Type {
	t := &ast.Type{}
	switch p.current().Type {
	case token.NumberType:
		t.Base = ast.NUMBER
		p.advance()
	case token.StringType:
		t.Base = ast.STRING
		p.advance()
	case token.BoolType:
		t.Base = ast.BOOL
		p.advance()
	case token.Ident:
		name := p.advance().Lexeme
		if p.declaredEnums[name] {
			t.Base = ast.ENUM
		} else {
			t.Base = ast.STRUCT
		}
		t.StructTypeName = name
	default:
		p.rep.Report(diag.KindParser, p.current().Line, "expected a type, found %s", p.current())
		t.Base = ast.INFERRED
	}
	if p.match(token.Question) {
		t.Optional = true
	}
	return t
}

func (p *Parser) parseFuncDecl() *ast.Node {
	line := p.current().Line
	p.expect(token.Function, "'function'")

	isGlobal := p.match(token.Global)

	nameTok := p.expect(token.Ident, "a function name")
	name := nameTok.Lexeme

	params := p.parseParamList()

	var retType *ast.Type
	if p.match(token.Colon) {
		retType = p.parseTypeAnnotation()
	}

	body := p.parseBlockUntilEnd()
	return ast.NewFuncDecl(line, name, isGlobal, params, retType, body)
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(token.LParen, "'('")
	var params []ast.Param
	for !p.check(token.RParen) && !p.check(token.EOF) {
		nameTok := p.expect(token.Ident, "a parameter name")
		var typ *ast.Type
		if p.match(token.Colon) {
			typ = p.parseTypeAnnotation()
		} else {
			p.rep.Report(diag.KindParser, nameTok.Line, "parameter %q requires an explicit type annotation", nameTok.Lexeme)
			typ = &ast.Type{Base: ast.INFERRED}
		}
		params = append(params, ast.Param{Name: nameTok.Lexeme, Type: typ})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "')'")
	return params
}

func (p *Parser) parseReturn() *ast.Node {
	line := p.current().Line
	p.advance()
	var value *ast.Node
	if !p.check(token.Newline) && !p.check(token.End) && !p.check(token.EOF) &&
		!p.check(token.Elseif) && !p.check(token.Else) {
		value = p.parseExpression()
	}
	return ast.NewReturn(line, value)
}

func (p *Parser) parsePrint() *ast.Node {
	line := p.current().Line
	p.advance()
	p.expect(token.LParen, "'('")
	var args []*ast.Node
	for !p.check(token.RParen) && !p.check(token.EOF) {
		args = append(args, p.parseExpression())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "')'")
	return ast.NewPrint(line, args)
}

func (p *Parser) parseIf() *ast.Node {
	line := p.current().Line
	var branches []ast.IfBranch

	p.advance() // if
	cond := p.parseExpression()
	p.expect(token.Then, "'then'")
	body := ast.NewBlock(p.current().Line, p.parseStatementsUntil(func() bool {
		return p.check(token.Elseif) || p.check(token.Else) || p.check(token.End)
	}))
	branches = append(branches, ast.IfBranch{Cond: cond, Body: body})

	for p.check(token.Elseif) {
		p.advance()
		c := p.parseExpression()
		p.expect(token.Then, "'then'")
		b := ast.NewBlock(p.current().Line, p.parseStatementsUntil(func() bool {
			return p.check(token.Elseif) || p.check(token.Else) || p.check(token.End)
		}))
		branches = append(branches, ast.IfBranch{Cond: c, Body: b})
	}

	if p.check(token.Else) {
		p.advance()
		b := ast.NewBlock(p.current().Line, p.parseStatementsUntil(func() bool { return p.check(token.End) }))
		branches = append(branches, ast.IfBranch{Cond: nil, Body: b})
	}

	p.expect(token.End, "'end'")
	return ast.NewIf(line, branches)
}

func (p *Parser) parseWhile() *ast.Node {
	line := p.current().Line
	p.advance()
	cond := p.parseExpression()
	p.expect(token.Do, "'do'")
	body := p.parseBlockUntilEnd()
	return ast.NewWhile(line, cond, body)
}

func (p *Parser) parseFor() *ast.Node {
	line := p.current().Line
	p.advance()
	p.expect(token.Local, "'local'")
	nameTok := p.expect(token.Ident, "a loop variable name")
	p.expect(token.Eq, "'='")
	start := p.parseExpression()
	p.expect(token.Comma, "','")
	stop := p.parseExpression()
	var step *ast.Node
	if p.match(token.Comma) {
		step = p.parseExpression()
	}
	p.expect(token.Do, "'do'")
	body := p.parseBlockUntilEnd()
	return ast.NewFor(line, nameTok.Lexeme, start, stop, step, body)
}

func (p *Parser) parseRepeatUntil() *ast.Node {
	line := p.current().Line
	p.advance()
	body := ast.NewBlock(p.current().Line, p.parseStatementsUntil(func() bool { return p.check(token.Until) }))
	p.expect(token.Until, "'until'")
	cond := p.parseExpression()
	return ast.NewRepeatUntil(line, body, cond)
}

func (p *Parser) parseStructDecl() *ast.Node {
	line := p.current().Line
	p.advance()
	nameTok := p.expect(token.Ident, "a struct name")
	name := nameTok.Lexeme
	p.declaredStructs[name] = true

	var fields []ast.StructField
	p.skipSeparators()
	for !p.check(token.End) && !p.check(token.EOF) {
		fTok := p.expect(token.Ident, "a field name")
		p.expect(token.Colon, "':'")
		typ := p.parseTypeAnnotation()
		field := ast.StructField{Line: fTok.Line, Name: fTok.Lexeme, Type: *typ, StructTypeName: typ.StructTypeName}
		if p.match(token.Eq) {
			field.HasDefault = true
			field.DefaultValue = p.parseExpression()
		}
		fields = append(fields, field)
		p.skipSeparators()
	}
	p.expect(token.End, "'end'")
	return ast.NewStructDecl(line, name, fields)
}

func (p *Parser) parseEnumDecl() *ast.Node {
	line := p.current().Line
	p.advance()
	nameTok := p.expect(token.Ident, "an enum name")
	name := nameTok.Lexeme
	p.declaredEnums[name] = true

	var values []string
	p.skipSeparators()
	for !p.check(token.End) && !p.check(token.EOF) {
		vTok := p.expect(token.Ident, "an enum value name")
		values = append(values, vTok.Lexeme)
		p.skipSeparators()
	}
	p.expect(token.End, "'end'")
	return ast.NewEnumDecl(line, name, values)
}

func (p *Parser) parseClassDecl() *ast.Node {
	line := p.current().Line
	p.advance()
	nameTok := p.expect(token.Ident, "a class name")
	name := nameTok.Lexeme
	p.declaredClasses[name] = true

	var fields []ast.ClassField
	var methods []ast.ClassMethod
	var ctor *ast.Node

	p.skipNewlines()
	for !p.check(token.End) && !p.check(token.EOF) {
		vis := ast.VisPublic
		switch p.current().Type {
		case token.Public:
			p.advance()
		case token.Private:
			vis = ast.VisPrivate
			p.advance()
		}

		isStatic := p.match(token.Static)

		if p.check(token.Function) {
			decl := p.parseFuncDecl()
			data := decl.Data.(ast.FuncDeclData)
			if data.Name == "__init" {
				ctor = decl
			} else {
				methods = append(methods, ast.ClassMethod{Visibility: vis, IsStatic: isStatic, Decl: decl})
			}
			p.skipNewlines()
			continue
		}

		isConst := p.match(token.Const)
		fTok := p.expect(token.Ident, "a field name")
		p.expect(token.Colon, "':'")
		typ := p.parseTypeAnnotation()
		field := ast.ClassField{Line: fTok.Line, Visibility: vis, IsStatic: isStatic, IsConst: isConst, Name: fTok.Lexeme, Type: *typ}
		if p.match(token.Eq) {
			field.HasDefault = true
			field.DefaultValue = p.parseExpression()
		}
		fields = append(fields, field)
		p.skipSeparators()
	}
	p.expect(token.End, "'end'")
	return ast.NewClassDecl(line, name, fields, methods, ctor)
}

func (p *Parser) parseInlineC() *ast.Node {
	line := p.current().Line
	p.advance() // inline
	bodyTok := p.expect(token.InlineCBlock, "a 'C[[ ... ]]' block")
	return ast.NewInlineC(line, bodyTok.Literal.String)
}

// parseIdentifierLeadStatement resolves the ambiguity between
// assignment, field assignment, and a bare expression statement.
func (p *Parser) parseIdentifierLeadStatement() *ast.Node {
	line := p.current().Line
	expr := p.parsePostfix(p.parsePrimary())

	if isCompoundAssignOp(p.current().Type) || p.check(token.Eq) {
		op := p.advance()
		value := p.parseExpression()
		switch e := expr.Data.(type) {
		case ast.IdentifierData:
			return ast.NewAssign(line, expr, op.Lexeme, value)
		case ast.FieldAccessData:
			return ast.NewFieldAssign(line, e.Object, e.Field, op.Lexeme, value)
		default:
			p.rep.Report(diag.KindParser, line, "invalid assignment target")
			return ast.NewExprStmt(line, expr)
		}
	}

	return ast.NewExprStmt(line, expr)
}

func isCompoundAssignOp(t token.Type) bool {
	switch t {
	case token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq, token.PercentEq, token.StarStarEq, token.SlashSlashEq:
		return true
	}
	return false
}

// --- expressions, lowest to highest precedence ---

func (p *Parser) parseExpression() *ast.Node { return p.parseOr() }

func (p *Parser) parseOr() *ast.Node {
	left := p.parseAnd()
	for p.check(token.Or) {
		line := p.advance().Line
		right := p.parseAnd()
		left = ast.NewBinaryOp(line, "or", left, right)
	}
	return left
}

func (p *Parser) parseAnd() *ast.Node {
	left := p.parseNilCoalesce()
	for p.check(token.And) {
		line := p.advance().Line
		right := p.parseNilCoalesce()
		left = ast.NewBinaryOp(line, "and", left, right)
	}
	return left
}

func (p *Parser) parseNilCoalesce() *ast.Node {
	left := p.parseConcat()
	for p.check(token.QuestionQuestion) {
		line := p.advance().Line
		right := p.parseConcat()
		left = ast.NewBinaryOp(line, "??", left, right)
	}
	return left
}

func (p *Parser) parseConcat() *ast.Node {
	left := p.parseComparison()
	for p.check(token.DotDot) {
		line := p.advance().Line
		right := p.parseComparison()
		left = ast.NewBinaryOp(line, "..", left, right)
	}
	return left
}

func (p *Parser) parseComparison() *ast.Node {
	left := p.parseAdditive()
	for isComparisonOp(p.current().Type) {
		op := p.advance()
		right := p.parseAdditive()
		left = ast.NewBinaryOp(op.Line, op.Lexeme, left, right)
	}
	return left
}

func isComparisonOp(t token.Type) bool {
	switch t {
	case token.EqEq, token.Neq, token.Lt, token.Lte, token.Gt, token.Gte:
		return true
	}
	return false
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseMultiplicative()
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinaryOp(op.Line, op.Lexeme, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Node {
	left := p.parsePower()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Percent) || p.check(token.SlashSlash) {
		op := p.advance()
		right := p.parsePower()
		left = ast.NewBinaryOp(op.Line, op.Lexeme, left, right)
	}
	return left
}

// parsePower is right-associative.
func (p *Parser) parsePower() *ast.Node {
	left := p.parseUnary()
	if p.check(token.StarStar) {
		line := p.advance().Line
		right := p.parsePower()
		return ast.NewBinaryOp(line, "**", left, right)
	}
	return left
}

func (p *Parser) parseUnary() *ast.Node {
	if p.check(token.Minus) || p.check(token.Not) {
		op := p.advance()
		operand := p.parseUnary()
		return ast.NewUnaryOp(op.Line, op.Lexeme, operand)
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(base *ast.Node) *ast.Node {
	for {
		switch p.current().Type {
		case token.Dot:
			p.advance()
			nameTok := p.expect(token.Ident, "a field or method name")
			if baseName, ok := base.Data.(ast.IdentifierData); ok && p.declaredEnums[baseName.Name] {
				base = ast.NewEnumAccess(nameTok.Line, baseName.Name, nameTok.Lexeme)
				continue
			}
			if p.check(token.LParen) {
				args := p.parseArgList()
				base = ast.NewMethodCall(nameTok.Line, base, nameTok.Lexeme, args)
				continue
			}
			base = ast.NewFieldAccess(nameTok.Line, base, nameTok.Lexeme)
		case token.Bang:
			line := p.advance().Line
			base = ast.NewForceUnwrap(line, base)
		default:
			return base
		}
	}
}

func (p *Parser) parseArgList() []*ast.Node {
	p.expect(token.LParen, "'('")
	var args []*ast.Node
	for !p.check(token.RParen) && !p.check(token.EOF) {
		args = append(args, p.parseExpression())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "')'")
	return args
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.current()
	switch tok.Type {
	case token.Number:
		p.advance()
		return ast.NewLiteralInt(tok.Line, tok.Literal.Int)
	case token.FloatNumber:
		p.advance()
		return ast.NewLiteralFloat(tok.Line, tok.Literal.Float)
	case token.String:
		p.advance()
		return ast.NewLiteralString(tok.Line, tok.Literal.String)
	case token.True:
		p.advance()
		return ast.NewLiteralBool(tok.Line, true)
	case token.False:
		p.advance()
		return ast.NewLiteralBool(tok.Line, false)
	case token.Nil:
		p.advance()
		return ast.NewLiteralNil(tok.Line)
	case token.Self:
		p.advance()
		return ast.NewSelfExpr(tok.Line)
	case token.LParen:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RParen, "')'")
		return inner
	case token.Function:
		return p.parseLambda()
	case token.Ident:
		return p.parseIdentifierPrimary()
	default:
		p.rep.Report(diag.KindParser, tok.Line, "unexpected token %s in expression", tok)
		p.advance()
		return ast.NewLiteralNil(tok.Line)
	}
}

func (p *Parser) parseLambda() *ast.Node {
	line := p.current().Line
	p.advance() // function
	params := p.parseParamList()
	var retType *ast.Type
	if p.match(token.Colon) {
		retType = p.parseTypeAnnotation()
	}
	body := p.parseBlockUntilEnd()
	return ast.NewLambda(line, params, retType, body)
}

func (p *Parser) parseIdentifierPrimary() *ast.Node {
	nameTok := p.advance()
	name := nameTok.Lexeme

	if p.check(token.LParen) {
		args := p.parseArgList()
		if p.declaredClasses[name] {
			return ast.NewClassInstantiation(nameTok.Line, name, args)
		}
		return ast.NewFuncCall(nameTok.Line, name, args)
	}

	if p.declaredStructs[name] && p.check(token.LBrace) {
		return p.parseStructConstructor(nameTok.Line, name)
	}
	if p.declaredClasses[name] && p.check(token.LBrace) {
		return p.parseStructConstructor(nameTok.Line, name)
	}

	return ast.NewIdentifier(nameTok.Line, name)
}

// parseStructConstructor disambiguates named-field form from positional
// form by looking for IDENT followed by `=` or `:` immediately inside
// the braces; an empty `{}` means "use all defaults".
func (p *Parser) parseStructConstructor(line int, name string) *ast.Node {
	p.expect(token.LBrace, "'{'")
	p.skipSeparators()
	if p.check(token.RBrace) {
		p.advance()
		return ast.NewStructConstructor(line, name, nil, true)
	}

	named := p.check(token.Ident) && (p.peekAt(1).Type == token.Eq || p.peekAt(1).Type == token.Colon)

	var fields []ast.StructFieldInit
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		if named {
			fieldName := p.expect(token.Ident, "a field name").Lexeme
			if !p.match(token.Eq) {
				p.expect(token.Colon, "'=' or ':'")
			}
			value := p.parseExpression()
			fields = append(fields, ast.StructFieldInit{Name: fieldName, Value: value})
		} else {
			value := p.parseExpression()
			fields = append(fields, ast.StructFieldInit{Value: value})
		}
		p.skipSeparators()
	}
	p.expect(token.RBrace, "'}'")
	return ast.NewStructConstructor(line, name, fields, false)
}
