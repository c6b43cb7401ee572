package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/runtimeabi"
)

// typeOf reads the type the checker already resolved for node. Every
// expression in a statement walked by pass 4 carries one; struct and
// class field default values and codegen-internal nodes do not, and
// fall back to NUMBER.
func typeOf(node *ast.Node) ast.Type {
	if node.ResolvedType != nil {
		return *node.ResolvedType
	}
	return ast.Type{Base: ast.NUMBER}
}

// lowerExpr renders node as a C expression.
func (g *Generator) lowerExpr(node *ast.Node) string {
	switch node.Kind {
	case ast.LiteralNumber:
		return lowerNumberLiteral(node.Data.(ast.LiteralNumberData))
	case ast.LiteralString:
		return strconv.Quote(node.Data.(ast.LiteralStringData).Value)
	case ast.LiteralBool:
		if node.Data.(ast.LiteralBoolData).Value {
			return "1"
		}
		return "0"
	case ast.LiteralNil:
		return nilSentinel(ast.Type{Base: ast.NUMBER})
	case ast.Identifier:
		return g.lowerIdentifier(node)
	case ast.SelfExpr:
		return "self"
	case ast.EnumAccess:
		d := node.Data.(ast.EnumAccessData)
		return fmt.Sprintf("%s_%s", d.EnumName, d.ValueName)
	case ast.FieldAccess:
		return g.lowerFieldAccessExpr(node)
	case ast.FuncCall:
		return g.lowerFuncCall(node)
	case ast.MethodCall:
		return g.lowerMethodCall(node)
	case ast.ClassInstantiation:
		return g.lowerClassInstantiation(node)
	case ast.StructConstructor:
		return g.lowerStructConstructor(node)
	case ast.Lambda:
		return g.lowerLambdaExpr(node)
	case ast.BinaryOp:
		return g.lowerBinaryOp(node)
	case ast.UnaryOp:
		return g.lowerUnaryOp(node)
	case ast.ForceUnwrap:
		return g.lowerExpr(node.Data.(ast.ForceUnwrapData).Operand)
	default:
		return "0"
	}
}

func lowerNumberLiteral(d ast.LiteralNumberData) string {
	if !d.IsFloat {
		return fmt.Sprintf("%d.0", d.IntValue)
	}
	s := strconv.FormatFloat(d.FloatValue, 'f', 9, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func (g *Generator) lowerIdentifier(node *ast.Node) string {
	name := node.Data.(ast.IdentifierData).Name
	sym := g.scope.lookup(name)
	if sym != nil && sym.HasPresence {
		return name // the bare value slot; callers needing the flag use lowerCond
	}
	return name
}

// lowerFieldAccessExpr renders `obj.f`: plain `.` for a value object,
// `->` for self inside a non-constructor method, and `ClassName_field`
// for a static class field.
func (g *Generator) lowerFieldAccessExpr(node *ast.Node) string {
	d := node.Data.(ast.FieldAccessData)

	if d.Object.Kind == ast.Identifier {
		name := d.Object.Data.(ast.IdentifierData).Name
		if g.scope.lookup(name) == nil {
			if _, ok := g.classes[name]; ok {
				return fmt.Sprintf("%s_%s", name, d.Field)
			}
		}
	}

	if d.Object.Kind == ast.SelfExpr && !g.selfByValue {
		return fmt.Sprintf("self->%s", d.Field)
	}
	return fmt.Sprintf("%s.%s", g.lowerExpr(d.Object), d.Field)
}

func (g *Generator) lowerFuncCall(node *ast.Node) string {
	d := node.Data.(ast.FuncCallData)
	args := g.lowerArgList(node)

	if sym := g.scope.lookup(d.Name); sym != nil && sym.LambdaTarget != "" {
		return fmt.Sprintf("%s(%s)", sym.LambdaTarget, args)
	}
	if info, ok := g.nestedCallRewrite[d.Name]; ok {
		full := append(append([]string{}, info.forwardNames...), splitArgs(args)...)
		return fmt.Sprintf("%s(%s)", info.mangledName, strings.Join(full, ", "))
	}
	return fmt.Sprintf("%s(%s)", d.Name, args)
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ", ")
}

// lookupMethodParams resolves the declared parameter list for a
// method call, static or instance, the same way lowerMethodCall
// resolves the mangled call target.
func (g *Generator) lookupMethodParams(d ast.MethodCallData) []ast.Param {
	class := ""
	if d.Object.Kind == ast.Identifier {
		name := d.Object.Data.(ast.IdentifierData).Name
		if g.scope.lookup(name) == nil {
			if _, ok := g.classes[name]; ok {
				class = name
			}
		}
	}
	if class == "" {
		class = typeOf(d.Object).StructTypeName
	}
	info, ok := g.classes[class]
	if !ok {
		return nil
	}
	for _, m := range info.Methods {
		if m.Decl.Data.(ast.FuncDeclData).Name == d.Name {
			return m.Decl.Data.(ast.FuncDeclData).Params
		}
	}
	return nil
}

func (g *Generator) lowerArgList(node *ast.Node) string {
	var args []*ast.Node
	var params []ast.Param
	switch node.Kind {
	case ast.FuncCall:
		d := node.Data.(ast.FuncCallData)
		args = d.Args
		if info, ok := g.functions[d.Name]; ok {
			params = info.Params
		}
	case ast.MethodCall:
		d := node.Data.(ast.MethodCallData)
		args = d.Args
		params = g.lookupMethodParams(d)
	case ast.ClassInstantiation:
		d := node.Data.(ast.ClassInstantiationData)
		args = d.Args
		if info, ok := g.classes[d.ClassName]; ok && info.Constructor != nil {
			params = info.Constructor.Data.(ast.FuncDeclData).Params
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if isNilLit(a) && i < len(params) {
			parts[i] = nilSentinel(*params[i].Type)
			continue
		}
		parts[i] = g.lowerExpr(a)
	}
	for i := len(args); i < len(params); i++ {
		parts = append(parts, nilSentinel(*params[i].Type))
	}
	return strings.Join(parts, ", ")
}

func isNilLit(n *ast.Node) bool { return n != nil && n.Kind == ast.LiteralNil }

func (g *Generator) lowerMethodCall(node *ast.Node) string {
	d := node.Data.(ast.MethodCallData)
	args := g.lowerArgList(node)

	if d.Object.Kind == ast.Identifier {
		name := d.Object.Data.(ast.IdentifierData).Name
		if g.scope.lookup(name) == nil {
			if _, ok := g.classes[name]; ok {
				return fmt.Sprintf("%s(%s)", mangleMethod(name, d.Name, true), args)
			}
		}
	}

	class := typeOf(d.Object).StructTypeName
	mangled := mangleMethod(class, d.Name, false)
	if d.Object.Kind == ast.SelfExpr {
		recv := "self"
		if args == "" {
			return fmt.Sprintf("%s(%s)", mangled, recv)
		}
		return fmt.Sprintf("%s(%s, %s)", mangled, recv, args)
	}
	recv := "&" + g.lowerExpr(d.Object)
	if args == "" {
		return fmt.Sprintf("%s(%s)", mangled, recv)
	}
	return fmt.Sprintf("%s(%s, %s)", mangled, recv, args)
}

func (g *Generator) lowerClassInstantiation(node *ast.Node) string {
	d := node.Data.(ast.ClassInstantiationData)
	return fmt.Sprintf("%s(%s)", mangleCtor(d.ClassName), g.lowerArgList(node))
}

// lowerStructConstructor renders a struct literal with C99 designated
// initializers, positional or named either way.
func (g *Generator) lowerStructConstructor(node *ast.Node) string {
	d := node.Data.(ast.StructConstructorData)
	info := g.structs[d.StructName]

	vals := map[string]string{}
	if d.UseDefault {
		for _, f := range info.Fields {
			vals[f.Name] = g.lowerExpr(f.DefaultValue)
		}
	} else if len(d.Fields) > 0 && d.Fields[0].Name != "" {
		for _, f := range info.Fields {
			if f.HasDefault {
				vals[f.Name] = g.lowerExpr(f.DefaultValue)
			}
		}
		for _, fi := range d.Fields {
			vals[fi.Name] = g.lowerExpr(fi.Value)
		}
	} else {
		for i, fi := range d.Fields {
			if i < len(info.Fields) {
				vals[info.Fields[i].Name] = g.lowerExpr(fi.Value)
			}
		}
	}

	parts := make([]string, 0, len(info.Fields))
	for _, f := range info.Fields {
		v, ok := vals[f.Name]
		if !ok {
			v = nilSentinel(f.Type)
		}
		parts = append(parts, fmt.Sprintf(".%s = %s", f.Name, v))
	}
	return fmt.Sprintf("(%s){ %s }", d.StructName, strings.Join(parts, ", "))
}

// lowerLambdaExpr lifts node to a file-scope static function and
// returns its generated name, following the `__lambda_<base>_<N>`
// naming convention.
func (g *Generator) lowerLambdaExpr(node *ast.Node) string {
	d := node.Data.(ast.LambdaData)
	name := fmt.Sprintf("__lambda_%s_%d", g.currentFuncName, g.lambdaCount)
	g.lambdaCount++

	retType := ast.Type{Base: ast.NUMBER}
	if d.ReturnType != nil {
		retType = *d.ReturnType
	}
	g.nestedDecls = append(g.nestedDecls, nestedFunc{
		name:       name,
		params:     d.Params,
		returnType: retType,
		body:       d.Body,
	})
	return name
}

func (g *Generator) lowerBinaryOp(node *ast.Node) string {
	d := node.Data.(ast.BinaryOpData)

	if d.Op == "or" && isAndExpr(d.Left) {
		and := d.Left.Data.(ast.BinaryOpData)
		return fmt.Sprintf("(%s ? %s : %s)", g.lowerCond(and.Left), g.lowerExpr(and.Right), g.lowerExpr(d.Right))
	}

	switch d.Op {
	case "and":
		return fmt.Sprintf("(%s && %s)", g.lowerCond(d.Left), g.lowerCond(d.Right))
	case "or":
		leftType := typeOf(d.Left)
		if leftType.Optional {
			return fmt.Sprintf("(!%s ? %s : %s)", nilPredicate(leftType, g.lowerExpr(d.Left)), g.lowerExpr(d.Right), g.lowerExpr(d.Left))
		}
		return fmt.Sprintf("(%s || %s)", g.lowerCond(d.Left), g.lowerCond(d.Right))
	case "??":
		leftType := typeOf(d.Left)
		leftExpr := g.lowerExpr(d.Left)
		return fmt.Sprintf("(%s ? %s : %s)", nilPredicate(leftType, leftExpr), g.lowerExpr(d.Right), leftExpr)
	case "..":
		return fmt.Sprintf("%s(%s, %s)", runtimeabi.ConcatStrings, g.stringify(d.Left), g.stringify(d.Right))
	case "==", "!=":
		return g.lowerEquality(d)
	case "**":
		return fmt.Sprintf("pow(%s, %s)", g.lowerExpr(d.Left), g.lowerExpr(d.Right))
	case "//":
		return fmt.Sprintf("(double)floor(%s / %s)", g.lowerExpr(d.Left), g.lowerExpr(d.Right))
	default:
		return fmt.Sprintf("(%s %s %s)", g.lowerExpr(d.Left), d.Op, g.lowerExpr(d.Right))
	}
}

func isAndExpr(n *ast.Node) bool {
	return n != nil && n.Kind == ast.BinaryOp && n.Data.(ast.BinaryOpData).Op == "and"
}

func (g *Generator) lowerEquality(d ast.BinaryOpData) string {
	neg := ""
	if d.Op == "!=" {
		neg = "!"
	}
	if isNilLit(d.Right) {
		return fmt.Sprintf("%s%s", neg, nilPredicate(typeOf(d.Left), g.lowerExpr(d.Left)))
	}
	if isNilLit(d.Left) {
		return fmt.Sprintf("%s%s", neg, nilPredicate(typeOf(d.Right), g.lowerExpr(d.Right)))
	}
	if typeOf(d.Left).Base == ast.STRING {
		op := "=="
		if d.Op == "!=" {
			op = "!="
		}
		return fmt.Sprintf("(strcmp(%s, %s) %s 0)", g.lowerExpr(d.Left), g.lowerExpr(d.Right), op)
	}
	return fmt.Sprintf("(%s %s %s)", g.lowerExpr(d.Left), d.Op, g.lowerExpr(d.Right))
}

// lowerCond renders node for use as a C truth value, reading an
// optional local's presence flag directly instead of its sentinel-
// carrying value slot.
func (g *Generator) lowerCond(node *ast.Node) string {
	if node.Kind == ast.Identifier {
		if sym := g.scope.lookup(node.Data.(ast.IdentifierData).Name); sym != nil && sym.HasPresence {
			return node.Data.(ast.IdentifierData).Name + "__present"
		}
	}
	if node.Kind == ast.UnaryOp {
		d := node.Data.(ast.UnaryOpData)
		if d.Op == "not" {
			return "!" + g.lowerCond(d.Operand)
		}
	}
	return g.lowerExpr(node)
}

func (g *Generator) lowerUnaryOp(node *ast.Node) string {
	d := node.Data.(ast.UnaryOpData)
	switch d.Op {
	case "-":
		return "-" + g.lowerExpr(d.Operand)
	case "not":
		operandType := typeOf(d.Operand)
		if operandType.Optional && operandType.Base == ast.STRUCT {
			return fmt.Sprintf("isnan(%s)", g.lowerExpr(d.Operand))
		}
		return "!" + g.lowerCond(d.Operand)
	default:
		return g.lowerExpr(d.Operand)
	}
}

// stringify lowers node through the type-specific stringification
// helper concatenation needs.
func (g *Generator) stringify(node *ast.Node) string {
	expr := g.lowerExpr(node)
	switch typeOf(node).Base {
	case ast.STRING:
		return expr
	case ast.BOOL:
		return fmt.Sprintf("%s(%s)", runtimeabi.ToStringBool, expr)
	case ast.ENUM:
		return fmt.Sprintf("%s((double)%s)", runtimeabi.ToStringNumber, expr)
	default:
		return fmt.Sprintf("%s(%s)", runtimeabi.ToStringNumber, expr)
	}
}

// nilPredicate renders the per-type nil check implied by the runtime's
// nil-sentinel table.
func nilPredicate(t ast.Type, expr string) string {
	switch t.Base {
	case ast.NUMBER:
		return fmt.Sprintf("%s(%s)", runtimeabi.IsNilNumber, expr)
	case ast.STRING:
		return fmt.Sprintf("%s(%s)", runtimeabi.IsNilString, expr)
	case ast.BOOL:
		return fmt.Sprintf("%s(%s)", runtimeabi.IsNilBool, expr)
	default:
		return fmt.Sprintf("((%s) == -1)", expr)
	}
}
