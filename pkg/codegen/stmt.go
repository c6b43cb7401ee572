package codegen

import (
	"fmt"
	"strings"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/runtimeabi"
)

func ind(n int) string { return strings.Repeat("    ", n) }

func (g *Generator) lowerBlock(body *ast.Node, indent int) {
	for _, s := range body.Data.(ast.BlockData).Stmts {
		g.lowerStmt(s, indent)
	}
}

func (g *Generator) lowerStmt(node *ast.Node, indent int) {
	switch node.Kind {
	case ast.VarDecl:
		g.lowerVarDecl(node, indent)
	case ast.Assign:
		g.lowerAssign(node, indent)
	case ast.FieldAssign:
		g.lowerFieldAssignStmt(node, indent)
	case ast.Return:
		g.lowerReturn(node, indent)
	case ast.Print:
		g.lowerPrint(node, indent)
	case ast.If:
		g.lowerIf(node, indent)
	case ast.While:
		g.lowerWhile(node, indent)
	case ast.For:
		g.lowerFor(node, indent)
	case ast.RepeatUntil:
		g.lowerRepeatUntil(node, indent)
	case ast.FuncDecl:
		// Already lifted by lowerNestedDecls' pre-scan; nothing inline to emit.
	case ast.InlineC:
		fmt.Fprintf(&g.buf, "%s\n", node.Data.(ast.InlineCData).Code)
	case ast.ExprStmt:
		fmt.Fprintf(&g.buf, "%s%s;\n", ind(indent), g.lowerExpr(node.Data.(ast.ExprStmtData).Expr))
	}
}

func (g *Generator) lowerVarDecl(node *ast.Node, indent int) {
	d := node.Data.(ast.VarDeclData)
	typ := ast.Type{Base: ast.NUMBER}
	if d.Annotation != nil {
		typ = *d.Annotation
	}

	if typ.Optional && typ.Base == ast.STRUCT {
		present := "0"
		value := nilSentinel(typ)
		if d.Initializer != nil && !isNilLit(d.Initializer) {
			present = "1"
			value = g.lowerExpr(d.Initializer)
		}
		fmt.Fprintf(&g.buf, "%s%s %s = %s;\n", ind(indent), cType(typ), d.Name, value)
		fmt.Fprintf(&g.buf, "%sint %s__present = %s;\n", ind(indent), d.Name, present)
		g.scope.define(&genSymbol{Name: d.Name, Type: typ, HasPresence: true})
		return
	}

	lambdaTarget := ""
	value := nilSentinel(typ)
	if d.Initializer != nil {
		if d.Initializer.Kind == ast.Lambda {
			lambdaTarget = g.lowerExpr(d.Initializer)
			value = lambdaTarget
		} else {
			value = g.lowerExpr(d.Initializer)
		}
	}
	fmt.Fprintf(&g.buf, "%s%s %s = %s;\n", ind(indent), cType(typ), d.Name, value)
	g.scope.define(&genSymbol{Name: d.Name, Type: typ, LambdaTarget: lambdaTarget})
}

func (g *Generator) lowerAssign(node *ast.Node, indent int) {
	d := node.Data.(ast.AssignData)
	name := d.Target.Data.(ast.IdentifierData).Name
	sym := g.scope.lookup(name)

	if sym != nil && sym.HasPresence {
		if isNilLit(d.Value) {
			fmt.Fprintf(&g.buf, "%s%s__present = 0;\n", ind(indent), name)
		} else {
			fmt.Fprintf(&g.buf, "%s%s = %s;\n", ind(indent), name, g.lowerExpr(d.Value))
			fmt.Fprintf(&g.buf, "%s%s__present = 1;\n", ind(indent), name)
		}
		return
	}

	fmt.Fprintf(&g.buf, "%s%s %s %s;\n", ind(indent), name, d.Op, g.lowerExpr(d.Value))
}

func (g *Generator) lowerFieldAssignStmt(node *ast.Node, indent int) {
	d := node.Data.(ast.FieldAssignData)
	target := g.lowerExpr(ast.NewFieldAccess(node.Line, d.Object, d.Field))
	fmt.Fprintf(&g.buf, "%s%s %s %s;\n", ind(indent), target, d.Op, g.lowerExpr(d.Value))
}

func (g *Generator) lowerReturn(node *ast.Node, indent int) {
	d := node.Data.(ast.ReturnData)
	if d.Value == nil {
		fmt.Fprintf(&g.buf, "%sreturn 0.0;\n", ind(indent))
		return
	}
	fmt.Fprintf(&g.buf, "%sreturn %s;\n", ind(indent), g.lowerExpr(d.Value))
}

var printSuffix = map[ast.ValueType]string{
	ast.NUMBER: "number",
	ast.STRING: "string",
	ast.BOOL:   "bool",
	ast.ENUM:   "enum",
}

func (g *Generator) lowerPrint(node *ast.Node, indent int) {
	d := node.Data.(ast.PrintData)
	for i, a := range d.Args {
		if i > 0 {
			fmt.Fprintf(&g.buf, "%s%s();\n", ind(indent), runtimeabi.PrintTab)
		}
		typ := typeOf(a)
		expr := g.lowerExpr(a)
		suffix, ok := printSuffix[typ.Base]
		if !ok {
			suffix = "number"
			expr = fmt.Sprintf("(double)(%s)", expr)
		}
		if typ.Optional {
			fmt.Fprintf(&g.buf, "%sif (%s) {\n", ind(indent), nilPredicate(typ, g.lowerExpr(a)))
			fmt.Fprintf(&g.buf, "%s%s(\"nil\");\n", ind(indent+1), runtimeabi.PrintFn("string"))
			fmt.Fprintf(&g.buf, "%s} else {\n", ind(indent))
			fmt.Fprintf(&g.buf, "%s%s(%s);\n", ind(indent+1), runtimeabi.PrintFn(suffix), expr)
			fmt.Fprintf(&g.buf, "%s}\n", ind(indent))
			continue
		}
		fmt.Fprintf(&g.buf, "%s%s(%s);\n", ind(indent), runtimeabi.PrintFn(suffix), expr)
	}
	fmt.Fprintf(&g.buf, "%s%s();\n", ind(indent), runtimeabi.PrintNewline)
}

func (g *Generator) lowerIf(node *ast.Node, indent int) {
	d := node.Data.(ast.IfData)
	for i, b := range d.Branches {
		switch {
		case b.Cond != nil && i == 0:
			fmt.Fprintf(&g.buf, "%sif (%s) {\n", ind(indent), g.lowerCond(b.Cond))
		case b.Cond != nil:
			fmt.Fprintf(&g.buf, "%s} else if (%s) {\n", ind(indent), g.lowerCond(b.Cond))
		default:
			fmt.Fprintf(&g.buf, "%s} else {\n", ind(indent))
		}
		g.pushScope()
		g.lowerBlock(b.Body, indent+1)
		g.popScope()
	}
	fmt.Fprintf(&g.buf, "%s}\n", ind(indent))
}

func (g *Generator) lowerWhile(node *ast.Node, indent int) {
	d := node.Data.(ast.WhileData)
	fmt.Fprintf(&g.buf, "%swhile (%s) {\n", ind(indent), g.lowerCond(d.Cond))
	g.pushScope()
	g.lowerBlock(d.Body, indent+1)
	g.popScope()
	fmt.Fprintf(&g.buf, "%s}\n", ind(indent))
}

func (g *Generator) lowerFor(node *ast.Node, indent int) {
	d := node.Data.(ast.ForData)
	step := "1.0"
	if d.Step != nil {
		step = g.lowerExpr(d.Step)
	}
	fmt.Fprintf(&g.buf, "%sfor (double %s = %s; %s <= %s; %s += %s) {\n",
		ind(indent), d.VarName, g.lowerExpr(d.Start), d.VarName, g.lowerExpr(d.Stop), d.VarName, step)
	g.pushScope()
	g.scope.define(&genSymbol{Name: d.VarName, Type: ast.Type{Base: ast.NUMBER}})
	g.lowerBlock(d.Body, indent+1)
	g.popScope()
	fmt.Fprintf(&g.buf, "%s}\n", ind(indent))
}

func (g *Generator) lowerRepeatUntil(node *ast.Node, indent int) {
	d := node.Data.(ast.RepeatUntilData)
	fmt.Fprintf(&g.buf, "%sdo {\n", ind(indent))
	g.pushScope()
	g.lowerBlock(d.Body, indent+1)
	cond := g.lowerCond(d.Cond)
	g.popScope()
	fmt.Fprintf(&g.buf, "%s} while (!(%s));\n", ind(indent), cond)
}
