package codegen

import (
	"strings"
	"testing"

	"github.com/awkwardmachine/holy-lua/pkg/config"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/lexer"
	"github.com/awkwardmachine/holy-lua/pkg/parser"
	"github.com/awkwardmachine/holy-lua/pkg/typechecker"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	rep := diag.NewReporter(src)
	toks := lexer.NewLexer(src, rep).Lex()
	program := parser.NewParser(toks, rep).Parse()
	if rep.Count() != 0 {
		t.Fatalf("parse errors: %d", rep.Count())
	}
	cfg := config.NewConfig()
	if !typechecker.NewChecker(rep, cfg).Check(program) {
		t.Fatalf("type check errors: %d", rep.Count())
	}
	out, err := NewGenerator(cfg, rep).Generate(program, "")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return out
}

func TestGenerateEmitsIncludeAndMain(t *testing.T) {
	out := generate(t, "print(\"hello\")\n")
	if !strings.Contains(out, `#include "holylua_runtime.h"`) {
		t.Errorf("missing runtime include:\n%s", out)
	}
	if !strings.Contains(out, "int main(void) {") {
		t.Errorf("missing synthesized main:\n%s", out)
	}
	if !strings.Contains(out, "hl_print_string_no_newline(") {
		t.Errorf("missing print lowering:\n%s", out)
	}
}

func TestGenerateFunctionDeclaration(t *testing.T) {
	out := generate(t, "function add(a:number, b:number):number\n  return a + b\nend\nprint(add(1, 2))\n")
	if !strings.Contains(out, "double add(double a, double b) {") {
		t.Errorf("missing function signature:\n%s", out)
	}
	if !strings.Contains(out, "return (a + b);") {
		t.Errorf("missing return lowering:\n%s", out)
	}
}

func TestGenerateStructTypedefAndConstructor(t *testing.T) {
	out := generate(t, "struct Point\n  x:number\n  y:number\nend\nlocal p = Point{x = 1, y = 2}\nprint(p.x)\n")
	if !strings.Contains(out, "typedef struct {") || !strings.Contains(out, "} Point;") {
		t.Errorf("missing Point typedef:\n%s", out)
	}
	if !strings.Contains(out, "p.x") {
		t.Errorf("missing field access lowering:\n%s", out)
	}
}

func TestGenerateClassConstructorAndMethod(t *testing.T) {
	src := `class Box
  public x:number = 0
  function __init(v:number)
    self.x = v
  end
  function get():number
    return self.x
  end
end
local b = Box(5)
print(b.get())
`
	out := generate(t, src)
	if !strings.Contains(out, "Box Box_new(double v) {") {
		t.Errorf("missing constructor signature:\n%s", out)
	}
	if !strings.Contains(out, "double Box_get(Box* self) {") {
		t.Errorf("missing method signature:\n%s", out)
	}
	if !strings.Contains(out, "self->x") {
		t.Errorf("missing self-pointer field access inside method:\n%s", out)
	}
}

func TestGenerateNestedFunctionIsLiftedToFileScope(t *testing.T) {
	src := "function outer(a:number):number\n  function inner(b:number):number\n    return b + 1\n  end\n  return inner(a)\nend\nprint(outer(2))\n"
	out := generate(t, src)
	if !strings.Contains(out, "outer__inner(double a, double b)") {
		t.Errorf("missing lifted nested function signature:\n%s", out)
	}
	if !strings.Contains(out, "outer__inner(a, a)") {
		t.Errorf("missing rewritten call site for the nested function:\n%s", out)
	}
}

func TestGenerateLuaTernaryIdiom(t *testing.T) {
	out := generate(t, "local x:number = 1\nlocal y:number = x and 2 or 3\nprint(y)\n")
	if !strings.Contains(out, "? 2.0 : 3.0") {
		t.Errorf("missing ternary lowering for cond and a or b:\n%s", out)
	}
}

func TestGenerateNilCoalesce(t *testing.T) {
	out := generate(t, "local x:number? = nil\nlocal y:number = x ?? 5\nprint(y)\n")
	if !strings.Contains(out, "hl_is_nil_number(x)") {
		t.Errorf("missing nil check for ?? operator:\n%s", out)
	}
}

func TestGenerateEnumTypedefAndPrint(t *testing.T) {
	out := generate(t, "enum Color\n  Red, Green, Blue\nend\nlocal c:Color = Color.Red\nprint(c)\n")
	if !strings.Contains(out, "typedef enum {") || !strings.Contains(out, "Color_Red") {
		t.Errorf("missing enum typedef:\n%s", out)
	}
	if !strings.Contains(out, "hl_print_enum_no_newline(") {
		t.Errorf("missing enum print lowering:\n%s", out)
	}
}

func TestGeneratePowerAndFloorDivision(t *testing.T) {
	out := generate(t, "local x:number = 2 ** 3\nlocal y:number = 7 // 2\nprint(x)\nprint(y)\n")
	if !strings.Contains(out, "pow(2") {
		t.Errorf("missing pow() lowering for **:\n%s", out)
	}
	if !strings.Contains(out, "floor(7") {
		t.Errorf("missing floor() lowering for //:\n%s", out)
	}
}
