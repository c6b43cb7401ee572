// Package codegen lowers a type-checked AST into portable C text, per
// the compiler's component design: a preamble of type declarations
// followed by every function, method, and constructor, with `main`
// synthesized when the source doesn't declare one.
package codegen

import (
	"fmt"
	"strings"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/config"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/runtimeabi"
	"github.com/google/uuid"
)

// genSymbol is one codegen-local variable binding; Generator keeps its
// own scope chain distinct from the type checker's, the way the
// teacher's codegen.Context tracks its own symbol table rather than
// reusing the one the prior pass built.
type genSymbol struct {
	Name         string
	Type         ast.Type
	HasPresence  bool   // optional struct local lifted to a (value, present) pair
	LambdaTarget string // set when this local holds a lambda, naming its lifted function
	Next         *genSymbol
}

type genScope struct {
	symbols *genSymbol
	parent  *genScope
}

func newGenScope(parent *genScope) *genScope { return &genScope{parent: parent} }

func (s *genScope) define(sym *genSymbol) {
	sym.Next = s.symbols
	s.symbols = sym
}

func (s *genScope) lookup(name string) *genSymbol {
	for sc := s; sc != nil; sc = sc.parent {
		for sym := sc.symbols; sym != nil; sym = sym.Next {
			if sym.Name == name {
				return sym
			}
		}
	}
	return nil
}

// Generator walks a validated AST and assembles its C translation into
// buf. Every collection below mirrors the shape the type checker
// already validated: codegen does not re-report errors for conditions
// pass 4 already ruled out, only for internal inconsistencies that
// would mean a bug in an earlier stage.
type Generator struct {
	cfg *config.Config
	rep *diag.Reporter

	buf strings.Builder

	structs   map[string]ast.StructDeclData
	classes   map[string]ast.ClassDeclData
	enums     map[string]ast.EnumDeclData
	functions map[string]ast.FuncDeclData

	scope        *genScope
	currentClass string
	inCtor       bool
	selfByValue  bool // true inside the constructor, false inside methods (self is a pointer)

	lambdaCount       int
	nestedDecls       []nestedFunc // file-scope functions lifted out of nested FuncDecl statements
	nestedCallRewrite map[string]nestedCallInfo
	currentFuncName   string
	unitTag           string
}

// nestedFunc records a lifted nested function or lambda, queued for
// file-scope emission once the enclosing function's forwarding calls
// have been lowered.
type nestedFunc struct {
	name       string
	params     []ast.Param
	returnType ast.Type
	body       *ast.Node
	forward    []ast.Param // the enclosing function's own parameters, prepended to params
}

// NewGenerator creates a Generator. The unit tag is a short uuid
// fragment stamped into a leading comment, not into any mangled name —
// function, method, and lambda naming stays fixed regardless of it; the
// tag's only job is giving two separately-generated files from the same
// run a distinguishable fingerprint for golden-fixture comparison.
func NewGenerator(cfg *config.Config, rep *diag.Reporter) *Generator {
	return &Generator{
		cfg:       cfg,
		rep:       rep,
		structs:   map[string]ast.StructDeclData{},
		classes:   map[string]ast.ClassDeclData{},
		enums:     map[string]ast.EnumDeclData{},
		functions: map[string]ast.FuncDeclData{},
		unitTag:   uuid.NewString()[:8],
	}
}

func (g *Generator) pushScope() { g.scope = newGenScope(g.scope) }
func (g *Generator) popScope()  { g.scope = g.scope.parent }

// Generate runs the full two-phase assembly over program and returns
// the translated C source.
func (g *Generator) Generate(program *ast.Node, includeHeader string) (string, error) {
	g.collectDecls(program)

	fmt.Fprintf(&g.buf, "/* generated by holylua, unit %s */\n", g.unitTag)
	fmt.Fprintf(&g.buf, "#include %q\n\n", sanitizeInclude(includeHeader))

	g.emitPreamble()
	g.pushScope()
	g.emitGlobals(program)
	g.emitFunctionsAndClasses(program)
	g.emitMain(program)

	if g.rep.Count() > 0 {
		return "", fmt.Errorf("codegen aborted with %d error(s)", g.rep.Count())
	}
	return g.buf.String(), nil
}

// collectDecls builds codegen's own top-level tables straight off the
// AST, independent of the type checker's own symbol table.
func (g *Generator) collectDecls(program *ast.Node) {
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		switch stmt.Kind {
		case ast.StructDecl:
			d := stmt.Data.(ast.StructDeclData)
			g.structs[d.Name] = d
		case ast.ClassDecl:
			d := stmt.Data.(ast.ClassDeclData)
			g.classes[d.Name] = d
		case ast.EnumDecl:
			d := stmt.Data.(ast.EnumDeclData)
			g.enums[d.Name] = d
		case ast.FuncDecl:
			d := stmt.Data.(ast.FuncDeclData)
			g.functions[d.Name] = d
		}
	}
}

func sanitizeInclude(path string) string {
	if path == "" {
		return runtimeabi.DefaultHeader
	}
	return path
}
