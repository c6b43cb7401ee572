package parser

import (
	"testing"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/lexer"
)

func parseSource(t *testing.T, src string) (*ast.Node, *diag.Reporter) {
	rep := diag.NewReporter(src)
	toks := lexer.NewLexer(src, rep).Lex()
	p := NewParser(toks, rep)
	program := p.Parse()
	return program, rep
}

func stmtsOf(t *testing.T, program *ast.Node) []*ast.Node {
	t.Helper()
	return program.Data.(ast.BlockData).Stmts
}

func TestParseVarDeclWithAnnotationAndInitializer(t *testing.T) {
	program, rep := parseSource(t, "local const x:number = 1\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	stmts := stmtsOf(t, program)
	if len(stmts) != 1 || stmts[0].Kind != ast.VarDecl {
		t.Fatalf("stmts = %+v, want one VarDecl", stmts)
	}
	d := stmts[0].Data.(ast.VarDeclData)
	if d.Kind != ast.DeclLocal || !d.IsConst || d.Name != "x" {
		t.Errorf("VarDeclData = %+v", d)
	}
	if d.Annotation == nil || d.Annotation.Base != ast.NUMBER {
		t.Errorf("Annotation = %+v, want number", d.Annotation)
	}
}

func TestParseFuncDeclWithParamsAndReturn(t *testing.T) {
	program, rep := parseSource(t, "function add(a:number, b:number):number\n  return a + b\nend\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	stmts := stmtsOf(t, program)
	if len(stmts) != 1 || stmts[0].Kind != ast.FuncDecl {
		t.Fatalf("stmts = %+v, want one FuncDecl", stmts)
	}
	d := stmts[0].Data.(ast.FuncDeclData)
	if d.Name != "add" || len(d.Params) != 2 {
		t.Fatalf("FuncDeclData = %+v", d)
	}
	body := d.Body.Data.(ast.BlockData).Stmts
	if len(body) != 1 || body[0].Kind != ast.Return {
		t.Fatalf("body = %+v, want one Return", body)
	}
}

func TestParseBinaryOperatorPrecedence(t *testing.T) {
	program, rep := parseSource(t, "local x = 1 + 2 * 3\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	d := stmtsOf(t, program)[0].Data.(ast.VarDeclData)
	top := d.Initializer.Data.(ast.BinaryOpData)
	if top.Op != "+" {
		t.Fatalf("top operator = %q, want +", top.Op)
	}
	right := top.Right.Data.(ast.BinaryOpData)
	if right.Op != "*" {
		t.Errorf("right operand operator = %q, want * (multiplication should bind tighter)", right.Op)
	}
}

func TestParseIfElseif(t *testing.T) {
	src := "if x == 1 then\n  print(1)\nelseif x == 2 then\n  print(2)\nelse\n  print(3)\nend\n"
	program, rep := parseSource(t, src)
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	d := stmtsOf(t, program)[0].Data.(ast.IfData)
	if len(d.Branches) != 3 {
		t.Fatalf("len(Branches) = %d, want 3", len(d.Branches))
	}
	if d.Branches[2].Cond != nil {
		t.Errorf("final branch should be the else with nil Cond")
	}
}

func TestParseForLoop(t *testing.T) {
	program, rep := parseSource(t, "for local i = 1, 10, 2 do\n  print(i)\nend\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	d := stmtsOf(t, program)[0].Data.(ast.ForData)
	if d.VarName != "i" || d.Step == nil {
		t.Errorf("ForData = %+v", d)
	}
}

func TestParseStructDecl(t *testing.T) {
	program, rep := parseSource(t, "struct Point\n  x:number\n  y:number\nend\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	d := stmtsOf(t, program)[0].Data.(ast.StructDeclData)
	if d.Name != "Point" || len(d.Fields) != 2 {
		t.Fatalf("StructDeclData = %+v", d)
	}
}

func TestParseEnumDecl(t *testing.T) {
	program, rep := parseSource(t, "enum Color\n  Red, Green, Blue\nend\n")
	if rep.Count() != 0 {
		t.Fatalf("unexpected parse errors: %d", rep.Count())
	}
	d := stmtsOf(t, program)[0].Data.(ast.EnumDeclData)
	if d.Name != "Color" || len(d.Values) != 3 {
		t.Fatalf("EnumDeclData = %+v", d)
	}
}

func TestParseSyntaxErrorReportsAndRecovers(t *testing.T) {
	_, rep := parseSource(t, "local x = \nlocal y = 2\n")
	if rep.Count() == 0 {
		t.Error("expected a parse error for a missing initializer expression")
	}
}
