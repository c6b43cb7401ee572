package typechecker

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// passFunctionSignatures enters every top-level function into
// functionTable, requiring an explicit annotation on every parameter.
// Nested functions are synthesized during codegen, not entered here.
func (c *Checker) passFunctionSignatures(program *ast.Node) {
	for _, stmt := range topStmts(program) {
		if stmt.Kind != ast.FuncDecl {
			continue
		}
		d := stmt.Data.(ast.FuncDeclData)
		if _, exists := c.functionTable[d.Name]; exists {
			c.rep.Report(diag.KindType, stmt.Line, "function %q is already declared", d.Name)
			continue
		}
		for _, p := range d.Params {
			if p.Type == nil || p.Type.Base == ast.INFERRED {
				c.rep.Report(diag.KindType, stmt.Line, "parameter %q of function %q requires an explicit type", p.Name, d.Name)
			}
		}
		retType := ast.Type{Base: ast.INFERRED}
		if d.ReturnType != nil {
			retType = *d.ReturnType
		}
		c.functionTable[d.Name] = &FunctionInfo{ReturnType: retType, Params: d.Params, IsGlobal: d.IsGlobal}
	}
}
