package codegen

import (
	"fmt"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
)

// emitGlobals declares every top-level variable at file scope.
// Constant-foldable initializers are emitted inline; everything else is
// declared here with its type's nil sentinel and assigned later, inside
// (generated or user) main, by lowerDeferredGlobal.
func (g *Generator) emitGlobals(program *ast.Node) {
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		if stmt.Kind != ast.VarDecl {
			continue
		}
		d := stmt.Data.(ast.VarDeclData)
		typ := ast.Type{Base: ast.NUMBER}
		if d.Annotation != nil {
			typ = *d.Annotation
		}
		g.scope.define(&genSymbol{Name: d.Name, Type: typ})

		if d.Initializer != nil && isConstExpr(d.Initializer) {
			fmt.Fprintf(&g.buf, "%s %s = %s;\n", cType(typ), d.Name, g.lowerExpr(d.Initializer))
		} else {
			fmt.Fprintf(&g.buf, "%s %s = %s;\n", cType(typ), d.Name, nilSentinel(typ))
		}
	}
	g.buf.WriteByte('\n')
}

// lowerDeferredGlobal assigns a global's non-constant initializer
// inside main, once, before any other top-level statement runs.
func (g *Generator) lowerDeferredGlobal(stmt *ast.Node) {
	d := stmt.Data.(ast.VarDeclData)
	if d.Initializer == nil || isConstExpr(d.Initializer) {
		return
	}
	fmt.Fprintf(&g.buf, "    %s = %s;\n", d.Name, g.lowerExpr(d.Initializer))
}

// isConstExpr reports whether node can be emitted as a C file-scope
// initializer: a literal, or an enum value reference.
func isConstExpr(node *ast.Node) bool {
	switch node.Kind {
	case ast.LiteralNumber, ast.LiteralString, ast.LiteralBool, ast.LiteralNil, ast.EnumAccess:
		return true
	case ast.UnaryOp:
		return isConstExpr(node.Data.(ast.UnaryOpData).Operand)
	default:
		return false
	}
}
