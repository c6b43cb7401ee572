package typechecker

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// inferExprType resolves an expression's static type, reporting every
// violation it finds along the way (undefined names, unresolved fields
// and methods, unwrapping a non-optional, arithmetic on non-numbers).
// Every expression in a statement that pass 4 walks passes through here;
// struct and class field default values are only shape-checked by
// literalTypeOf and get no ResolvedType.
func (c *Checker) inferExprType(node *ast.Node) ast.Type {
	if node == nil {
		return ast.Type{Base: ast.INFERRED}
	}
	typ := c.inferExprTypeInner(node)
	node.ResolvedType = &typ
	return typ
}

func (c *Checker) inferExprTypeInner(node *ast.Node) ast.Type {
	switch node.Kind {
	case ast.LiteralNumber:
		return ast.Type{Base: ast.NUMBER}
	case ast.LiteralString:
		return ast.Type{Base: ast.STRING}
	case ast.LiteralBool:
		return ast.Type{Base: ast.BOOL}
	case ast.LiteralNil:
		return ast.Type{Base: ast.INFERRED, Optional: true}
	case ast.Identifier:
		return c.inferIdentifier(node)
	case ast.SelfExpr:
		if sym := c.scope.lookup("self"); sym != nil {
			return sym.Type
		}
		c.rep.Report(diag.KindType, node.Line, "self used outside a method")
		return ast.Type{Base: ast.INFERRED}
	case ast.EnumAccess:
		return c.inferEnumAccess(node)
	case ast.FieldAccess:
		return c.inferFieldAccess(node)
	case ast.FuncCall:
		return c.inferFuncCall(node)
	case ast.MethodCall:
		return c.inferMethodCall(node)
	case ast.ClassInstantiation:
		return c.inferClassInstantiation(node)
	case ast.StructConstructor:
		return c.inferStructConstructor(node)
	case ast.Lambda:
		return c.inferLambda(node)
	case ast.BinaryOp:
		return c.inferBinaryOp(node)
	case ast.UnaryOp:
		return c.inferUnaryOp(node)
	case ast.ForceUnwrap:
		return c.inferForceUnwrap(node)
	default:
		return ast.Type{Base: ast.INFERRED}
	}
}

func (c *Checker) inferIdentifier(node *ast.Node) ast.Type {
	name := node.Data.(ast.IdentifierData).Name
	sym := c.scope.lookup(name)
	if sym == nil {
		c.rep.Report(diag.KindType, node.Line, "undefined variable %q", name)
		return ast.Type{Base: ast.INFERRED}
	}
	return sym.Type
}

func (c *Checker) inferEnumAccess(node *ast.Node) ast.Type {
	d := node.Data.(ast.EnumAccessData)
	info := c.enumTable[d.EnumName]
	if info == nil {
		c.rep.Report(diag.KindType, node.Line, "unknown enum %q", d.EnumName)
		return ast.Type{Base: ast.INFERRED}
	}
	if !info.Set[d.ValueName] {
		c.rep.Report(diag.KindType, node.Line, "enum %q has no value %q", d.EnumName, d.ValueName)
	}
	return ast.Type{Base: ast.ENUM, StructTypeName: d.EnumName}
}

// requireNonNil reports and returns false when node's inferred type is
// an optional that hasn't been narrowed or force-unwrapped at this
// point in the flow.
func (c *Checker) requireNonNil(node *ast.Node, typ ast.Type) bool {
	if !typ.Optional {
		return true
	}
	if node != nil && node.Kind == ast.ForceUnwrap {
		return true
	}
	if name := exprName(node); name != "" && c.isNonNil(name) {
		return true
	}
	c.rep.Report(diag.KindType, node.Line, "optional value requires '!' or a nil-check before use")
	return false
}

func (c *Checker) inferFieldAccess(node *ast.Node) ast.Type {
	d := node.Data.(ast.FieldAccessData)

	if d.Object.Kind == ast.Identifier {
		name := d.Object.Data.(ast.IdentifierData).Name
		if c.scope.lookup(name) == nil {
			if info, ok := c.classTable[name]; ok {
				f := info.field(d.Field)
				if f == nil || !f.IsStatic {
					c.rep.Report(diag.KindType, node.Line, "class %q has no static field %q", name, d.Field)
					return ast.Type{Base: ast.INFERRED}
				}
				return f.Type
			}
		}
	}

	objType := c.inferExprType(d.Object)
	if !c.requireNonNil(d.Object, objType) {
		return ast.Type{Base: ast.INFERRED}
	}
	if objType.Base != ast.STRUCT {
		c.rep.Report(diag.KindType, node.Line, "%q is not a struct or class value", d.Field)
		return ast.Type{Base: ast.INFERRED}
	}

	owner := objType.StructTypeName
	if info, ok := c.classTable[owner]; ok {
		f := info.field(d.Field)
		if f == nil {
			c.rep.Report(diag.KindType, node.Line, "%q has no field %q", owner, d.Field)
			return ast.Type{Base: ast.INFERRED}
		}
		if f.Visibility == ast.VisPrivate && c.currentClass != owner {
			c.rep.Report(diag.KindType, node.Line, "field %q of %q is private", d.Field, owner)
		}
		return f.Type
	}
	if info, ok := c.structTable[owner]; ok {
		f := info.field(d.Field)
		if f == nil {
			c.rep.Report(diag.KindType, node.Line, "%q has no field %q", owner, d.Field)
			return ast.Type{Base: ast.INFERRED}
		}
		return f.Type
	}
	c.rep.Report(diag.KindType, node.Line, "unknown type %q", owner)
	return ast.Type{Base: ast.INFERRED}
}

func (c *Checker) inferFuncCall(node *ast.Node) ast.Type {
	d := node.Data.(ast.FuncCallData)
	info, ok := c.functionTable[d.Name]
	if !ok {
		c.rep.Report(diag.KindType, node.Line, "undefined function %q", d.Name)
		for _, a := range d.Args {
			c.inferExprType(a)
		}
		return ast.Type{Base: ast.INFERRED}
	}
	c.checkArgs(node.Line, d.Name, info.Params, d.Args)
	return info.ReturnType
}

func (c *Checker) checkArgs(line int, name string, params []ast.Param, args []*ast.Node) {
	required := 0
	for _, p := range params {
		if !p.Type.Optional {
			required++
		}
	}
	if len(args) < required {
		c.rep.Report(diag.KindType, line, "%q expects at least %d argument(s), got %d", name, required, len(args))
	} else if len(args) > len(params) {
		c.rep.Report(diag.KindType, line, "%q expects at most %d argument(s), got %d", name, len(params), len(args))
	}
	n := len(params)
	if len(args) < n {
		n = len(args)
	}
	for i := 0; i < n; i++ {
		argType := c.inferExprType(args[i])
		want := *params[i].Type
		if isNilLiteral(args[i]) {
			if !want.Optional {
				c.rep.Report(diag.KindType, line, "%q parameter %q is not optional, cannot pass nil", name, params[i].Name)
			}
			continue
		}
		if !c.requireNonNil(args[i], argType) {
			continue
		}
		if argType.Base != ast.INFERRED && !argType.IsCompatible(want) {
			c.rep.Report(diag.KindType, line, "%q parameter %q expects %s, got %s", name, params[i].Name, want, argType)
		}
	}
}

func (c *Checker) inferMethodCall(node *ast.Node) ast.Type {
	d := node.Data.(ast.MethodCallData)

	if d.Object.Kind == ast.Identifier {
		name := d.Object.Data.(ast.IdentifierData).Name
		if c.scope.lookup(name) == nil {
			if info, ok := c.classTable[name]; ok {
				m, exists := info.Methods[d.Name]
				if !exists || !m.IsStatic {
					c.rep.Report(diag.KindType, node.Line, "class %q has no static method %q", name, d.Name)
					return ast.Type{Base: ast.INFERRED}
				}
				c.checkArgs(node.Line, name+"."+d.Name, m.Params, d.Args)
				return m.ReturnType
			}
		}
	}

	objType := c.inferExprType(d.Object)
	if !c.requireNonNil(d.Object, objType) {
		return ast.Type{Base: ast.INFERRED}
	}
	if objType.Base != ast.STRUCT {
		c.rep.Report(diag.KindType, node.Line, "%q is not callable on a non-class value", d.Name)
		return ast.Type{Base: ast.INFERRED}
	}
	info, ok := c.classTable[objType.StructTypeName]
	if !ok {
		c.rep.Report(diag.KindType, node.Line, "%q has no methods", objType.StructTypeName)
		return ast.Type{Base: ast.INFERRED}
	}
	m, exists := info.Methods[d.Name]
	if !exists {
		c.rep.Report(diag.KindType, node.Line, "%q has no method %q", objType.StructTypeName, d.Name)
		return ast.Type{Base: ast.INFERRED}
	}
	if m.Visibility == ast.VisPrivate && c.currentClass != objType.StructTypeName {
		c.rep.Report(diag.KindType, node.Line, "method %q of %q is private", d.Name, objType.StructTypeName)
	}
	c.checkArgs(node.Line, objType.StructTypeName+"."+d.Name, m.Params, d.Args)
	return m.ReturnType
}

func (c *Checker) inferClassInstantiation(node *ast.Node) ast.Type {
	d := node.Data.(ast.ClassInstantiationData)
	info, ok := c.classTable[d.ClassName]
	if !ok {
		c.rep.Report(diag.KindType, node.Line, "unknown class %q", d.ClassName)
		return ast.Type{Base: ast.INFERRED}
	}
	if info.HasConstructor {
		c.checkArgs(node.Line, d.ClassName+".__init", info.ConstructorParams, d.Args)
	} else if len(d.Args) != 0 {
		c.rep.Report(diag.KindType, node.Line, "%q has no constructor but was given arguments", d.ClassName)
	}
	return ast.Type{Base: ast.STRUCT, StructTypeName: d.ClassName}
}

func (c *Checker) inferStructConstructor(node *ast.Node) ast.Type {
	d := node.Data.(ast.StructConstructorData)
	info, ok := c.structTable[d.StructName]
	if !ok {
		if _, isClass := c.classTable[d.StructName]; isClass {
			c.rep.Report(diag.KindType, node.Line, "%q is a class; instantiate it with %s(...) instead of struct-brace syntax", d.StructName, d.StructName)
		} else {
			c.rep.Report(diag.KindType, node.Line, "unknown struct %q", d.StructName)
		}
		return ast.Type{Base: ast.INFERRED}
	}

	if d.UseDefault {
		for _, f := range info.Fields {
			if !f.HasDefault {
				c.rep.Report(diag.KindType, node.Line, "struct %q field %q has no default, cannot use {}", d.StructName, f.Name)
			}
		}
		return ast.Type{Base: ast.STRUCT, StructTypeName: d.StructName}
	}

	named := len(d.Fields) > 0 && d.Fields[0].Name != ""
	if named {
		provided := map[string]bool{}
		for _, fi := range d.Fields {
			f := info.field(fi.Name)
			if f == nil {
				c.rep.Report(diag.KindType, node.Line, "struct %q has no field %q", d.StructName, fi.Name)
				continue
			}
			provided[fi.Name] = true
			valType := c.inferExprType(fi.Value)
			if valType.Base != ast.INFERRED && !valType.IsCompatible(f.Type) {
				c.rep.Report(diag.KindType, node.Line, "field %q expects %s, got %s", fi.Name, f.Type, valType)
			}
		}
		for _, f := range info.Fields {
			if !provided[f.Name] && !f.HasDefault {
				c.rep.Report(diag.KindType, node.Line, "struct %q field %q requires a value", d.StructName, f.Name)
			}
		}
	} else {
		if len(d.Fields) != len(info.Fields) {
			c.rep.Report(diag.KindType, node.Line, "struct %q expects %d field value(s), got %d", d.StructName, len(info.Fields), len(d.Fields))
		}
		n := len(info.Fields)
		if len(d.Fields) < n {
			n = len(d.Fields)
		}
		for i := 0; i < n; i++ {
			valType := c.inferExprType(d.Fields[i].Value)
			if valType.Base != ast.INFERRED && !valType.IsCompatible(info.Fields[i].Type) {
				c.rep.Report(diag.KindType, node.Line, "struct %q field %q expects %s, got %s", d.StructName, info.Fields[i].Name, info.Fields[i].Type, valType)
			}
		}
	}
	return ast.Type{Base: ast.STRUCT, StructTypeName: d.StructName}
}

func (c *Checker) inferLambda(node *ast.Node) ast.Type {
	d := node.Data.(ast.LambdaData)

	prevScope := c.scope
	c.pushScopeFromGlobals()
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)
	rets := c.returnAnalysis(d.Body)

	fake := &FunctionInfo{}
	c.resolveReturnType(node.Line, "<lambda>", fake, d.ReturnType, rets)
	d.ReturnType = &fake.ReturnType
	node.Data = d

	c.pushNonNil()
	c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
	c.popNonNil()

	c.scope = prevScope
	return ast.Type{Base: ast.FUNCTION}
}

func (c *Checker) inferBinaryOp(node *ast.Node) ast.Type {
	d := node.Data.(ast.BinaryOpData)

	switch d.Op {
	case "and", "or":
		left := c.inferExprType(d.Left)
		right := c.inferExprType(d.Right)
		if left.Base != ast.INFERRED {
			return ast.Type{Base: left.Base, StructTypeName: left.StructTypeName}
		}
		return right
	case "??":
		left := c.inferExprType(d.Left)
		right := c.inferExprType(d.Right)
		if !left.Optional {
			c.rep.Report(diag.KindType, node.Line, "left side of '??' is not optional")
		}
		leftValue := ast.Type{Base: left.Base, StructTypeName: left.StructTypeName}
		if right.Base != ast.INFERRED && left.Base != ast.INFERRED && !leftValue.IsCompatible(right) {
			c.rep.Report(diag.KindType, node.Line, "'??' fallback type %s does not match %s", right, left)
		}
		return ast.Type{Base: right.Base, StructTypeName: right.StructTypeName}
	case "..":
		leftType := c.inferExprType(d.Left)
		rightType := c.inferExprType(d.Right)
		c.requireNonNil(d.Left, leftType)
		c.requireNonNil(d.Right, rightType)
		return ast.Type{Base: ast.STRING}
	case "==", "!=":
		c.inferExprType(d.Left)
		c.inferExprType(d.Right)
		return ast.Type{Base: ast.BOOL}
	case "<", "<=", ">", ">=":
		c.checkNumericOperand(d.Left)
		c.checkNumericOperand(d.Right)
		return ast.Type{Base: ast.BOOL}
	case "+", "-", "*", "/", "%", "**", "//":
		c.checkNumericOperand(d.Left)
		c.checkNumericOperand(d.Right)
		return ast.Type{Base: ast.NUMBER}
	default:
		c.inferExprType(d.Left)
		c.inferExprType(d.Right)
		return ast.Type{Base: ast.INFERRED}
	}
}

func (c *Checker) checkNumericOperand(node *ast.Node) {
	typ := c.inferExprType(node)
	if !c.requireNonNil(node, typ) {
		return
	}
	if typ.Base != ast.INFERRED && typ.Base != ast.NUMBER {
		c.rep.Report(diag.KindType, node.Line, "expected a number, got %s", typ)
	}
}

func (c *Checker) inferUnaryOp(node *ast.Node) ast.Type {
	d := node.Data.(ast.UnaryOpData)
	switch d.Op {
	case "-":
		c.checkNumericOperand(d.Operand)
		return ast.Type{Base: ast.NUMBER}
	case "not":
		c.inferExprType(d.Operand)
		return ast.Type{Base: ast.BOOL}
	default:
		c.inferExprType(d.Operand)
		return ast.Type{Base: ast.INFERRED}
	}
}

func (c *Checker) inferForceUnwrap(node *ast.Node) ast.Type {
	d := node.Data.(ast.ForceUnwrapData)
	switch d.Operand.Kind {
	case ast.Identifier, ast.FieldAccess, ast.SelfExpr:
	default:
		c.rep.Report(diag.KindType, node.Line, "force-unwrap target must be an optional variable")
	}
	typ := c.inferExprType(d.Operand)
	if !typ.Optional {
		c.rep.Report(diag.KindType, node.Line, "force-unwrap target is not optional")
	}
	return ast.Type{Base: typ.Base, StructTypeName: typ.StructTypeName}
}
