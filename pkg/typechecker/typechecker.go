// Package typechecker runs the four-pass semantic analysis described in
// the compiler's component design: type discovery, function signatures,
// function bodies and classes, then whole-program statement validation.
package typechecker

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/config"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// Symbol is one binding in a Scope, linked to the next binding declared
// in the same scope.
type Symbol struct {
	Name            string
	Type            ast.Type
	IsConst         bool
	IsDefined       bool
	IsFunction      bool
	HasPresenceFlag bool // optional struct local lifted to a (value, present) pair
	Next            *Symbol
}

// Scope is a singly-linked list of Symbols with a parent pointer,
// pushed on function/method/lambda entry and on if-branches/loops.
type Scope struct {
	symbols *Symbol
	parent  *Scope
}

func newScope(parent *Scope) *Scope { return &Scope{parent: parent} }

func (s *Scope) define(sym *Symbol) {
	sym.Next = s.symbols
	s.symbols = sym
}

// lookup walks outward from s, returning the first Symbol named name.
func (s *Scope) lookup(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.parent {
		for sym := sc.symbols; sym != nil; sym = sym.Next {
			if sym.Name == name {
				return sym
			}
		}
	}
	return nil
}

// lookupLocal only searches s itself, not its ancestors.
func (s *Scope) lookupLocal(name string) *Symbol {
	for sym := s.symbols; sym != nil; sym = sym.Next {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// FunctionInfo is a functionTable entry.
type FunctionInfo struct {
	ReturnType ast.Type
	Params     []ast.Param
	IsGlobal   bool
}

// StructInfo is a structTable entry.
type StructInfo struct {
	Fields []ast.StructField
}

func (s *StructInfo) field(name string) *ast.StructField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// MethodInfo is one classTable method-info entry.
type MethodInfo struct {
	ReturnType ast.Type
	Visibility ast.Visibility
	IsStatic   bool
	Params     []ast.Param
	Decl       *ast.Node
}

// ClassInfo is a classTable entry.
type ClassInfo struct {
	Fields            []ast.ClassField
	Methods           map[string]*MethodInfo
	ConstructorParams []ast.Param
	HasConstructor    bool
	Constructor       *ast.Node
}

func (c *ClassInfo) field(name string) *ast.ClassField {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// EnumInfo is an enumTable entry: an ordered value list plus a
// membership set for O(1) lookups.
type EnumInfo struct {
	Values []string
	Set    map[string]bool
}

// Checker owns every table populated across the four passes and the
// scope/nonNilVars stacks used while walking statements.
type Checker struct {
	rep *diag.Reporter
	cfg *config.Config

	functionTable map[string]*FunctionInfo
	structTable   map[string]*StructInfo
	classTable    map[string]*ClassInfo
	enumTable     map[string]*EnumInfo

	globals *Scope
	scope   *Scope

	nonNilVars []map[string]bool

	currentClass  string
	currentReturn *ast.Type
	inConstructor bool
	assignedConstFields map[string]bool
}

// NewChecker creates a Checker reporting to rep, with the feature and
// warning toggles in cfg available to later passes.
func NewChecker(rep *diag.Reporter, cfg *config.Config) *Checker {
	return &Checker{
		rep:           rep,
		cfg:           cfg,
		functionTable: make(map[string]*FunctionInfo),
		structTable:   make(map[string]*StructInfo),
		classTable:    make(map[string]*ClassInfo),
		enumTable:     make(map[string]*EnumInfo),
	}
}

// Check runs all four passes against program (expected to be a Block),
// halting at the first pass that reports an error and returning whether
// the whole program is sound.
func (c *Checker) Check(program *ast.Node) bool {
	c.globals = newScope(nil)
	c.scope = c.globals

	c.passTypeDiscovery(program)
	if c.rep.Count() > 0 {
		return false
	}
	c.passFunctionSignatures(program)
	if c.rep.Count() > 0 {
		return false
	}
	c.passFunctionBodiesAndClasses(program)
	if c.rep.Count() > 0 {
		return false
	}
	c.passStatementValidation(program)
	return c.rep.Count() == 0
}

func (c *Checker) pushScope() { c.scope = newScope(c.scope) }
func (c *Checker) popScope()  { c.scope = c.scope.parent }

func (c *Checker) pushNonNil() { c.nonNilVars = append(c.nonNilVars, map[string]bool{}) }
func (c *Checker) popNonNil()  { c.nonNilVars = c.nonNilVars[:len(c.nonNilVars)-1] }

func (c *Checker) markNonNil(name string) {
	if len(c.nonNilVars) == 0 {
		return
	}
	c.nonNilVars[len(c.nonNilVars)-1][name] = true
}

func (c *Checker) isNonNil(name string) bool {
	for i := len(c.nonNilVars) - 1; i >= 0; i-- {
		if c.nonNilVars[i][name] {
			return true
		}
	}
	return false
}

func topStmts(program *ast.Node) []*ast.Node {
	if program == nil {
		return nil
	}
	return program.Data.(ast.BlockData).Stmts
}
