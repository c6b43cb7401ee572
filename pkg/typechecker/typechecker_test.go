package typechecker

import (
	"testing"

	"github.com/awkwardmachine/holy-lua/pkg/config"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/lexer"
	"github.com/awkwardmachine/holy-lua/pkg/parser"
)

func checkSource(t *testing.T, src string) (bool, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter(src)
	toks := lexer.NewLexer(src, rep).Lex()
	p := parser.NewParser(toks, rep)
	program := p.Parse()
	if rep.Count() != 0 {
		t.Fatalf("source failed to parse: %d errors", rep.Count())
	}
	cfg := config.NewConfig()
	ok := NewChecker(rep, cfg).Check(program)
	return ok, rep
}

func TestCheckValidPrograms(t *testing.T) {
	tests := []string{
		"local x:number = 1\nprint(x)\n",
		"function add(a:number, b:number):number\n  return a + b\nend\nprint(add(1, 2))\n",
		"struct Point\n  x:number\n  y:number\nend\nlocal p = Point{x = 1, y = 2}\nprint(p.x)\n",
		"enum Color\n  Red, Green, Blue\nend\nlocal c:Color = Color.Red\nprint(c)\n",
		"local x:number? = nil\nif x != nil then\n  print(x)\nend\n",
	}
	for _, src := range tests {
		ok, rep := checkSource(t, src)
		if !ok {
			t.Errorf("expected %q to check cleanly, got %d errors", src, rep.Count())
		}
	}
}

func TestCheckUndefinedVariableFails(t *testing.T) {
	ok, rep := checkSource(t, "print(y)\n")
	if ok {
		t.Fatal("expected a type error for an undefined variable")
	}
	if rep.Count() == 0 {
		t.Error("Count() = 0, want at least one error")
	}
}

func TestCheckAssignToConstFails(t *testing.T) {
	ok, _ := checkSource(t, "local const x:number = 1\nx = 2\n")
	if ok {
		t.Fatal("expected reassigning a const local to fail")
	}
}

func TestCheckDuplicateGlobalFails(t *testing.T) {
	ok, _ := checkSource(t, "local x:number = 1\nlocal x:number = 2\n")
	if ok {
		t.Fatal("expected a duplicate global declaration to fail")
	}
}

func TestCheckMismatchedTypeAssignmentFails(t *testing.T) {
	ok, _ := checkSource(t, "local x:number = 1\nx = \"oops\"\n")
	if ok {
		t.Fatal("expected assigning a string to a number local to fail")
	}
}

func TestCheckNestedFunctionCannotSeeOuterLocal(t *testing.T) {
	src := "function outer():number\n  local x:number = 1\n  function inner():number\n    return x\n  end\n  return inner()\nend\n"
	ok, rep := checkSource(t, src)
	if ok {
		t.Fatal("expected a nested function referencing an enclosing local to fail")
	}
	if rep.Count() == 0 {
		t.Error("Count() = 0, want at least one error")
	}
}

func TestCheckClassFieldWithoutDefaultOrInitAssignmentFails(t *testing.T) {
	src := "class Box\n  public x:number\nend\n"
	ok, _ := checkSource(t, src)
	if ok {
		t.Fatal("expected a public field with no default and no __init assignment to fail")
	}
}
