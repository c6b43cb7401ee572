package typechecker

import (
	"fmt"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// returnInfo is one `return expr` site collected by returnAnalysis.
type returnInfo struct {
	Type ast.Type
	Line int
	Void bool
}

// passFunctionBodiesAndClasses validates every top-level function body
// and every class's constructor and methods, setting each
// FunctionInfo/MethodInfo's resolved return type along the way.
func (c *Checker) passFunctionBodiesAndClasses(program *ast.Node) {
	for _, stmt := range topStmts(program) {
		if stmt.Kind == ast.FuncDecl {
			c.checkFunctionBody(stmt)
		}
	}
	for name, info := range c.classTable {
		c.checkClass(name, info)
	}
}

func (c *Checker) checkFunctionBody(decl *ast.Node) {
	d := decl.Data.(ast.FuncDeclData)
	info := c.functionTable[d.Name]

	c.pushScope()
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)

	rets := c.returnAnalysis(d.Body)
	c.resolveReturnType(decl.Line, d.Name, info, d.ReturnType, rets)
	d.ReturnType = &info.ReturnType
	decl.Data = d

	c.popScope()
}

// collectLocalDecls is a prepass that registers every local variable
// declared anywhere in body (recursing into branches and loops, but not
// into nested function or lambda bodies) so later statements in the
// same function see later-declared names. Nested functions declared
// directly in body are entered into functionTable with IsGlobal false.
func (c *Checker) collectLocalDecls(body *ast.Node) {
	if body == nil {
		return
	}
	for _, stmt := range body.Data.(ast.BlockData).Stmts {
		switch stmt.Kind {
		case ast.VarDecl:
			d := stmt.Data.(ast.VarDeclData)
			typ := ast.Type{Base: ast.INFERRED}
			if d.Annotation != nil {
				typ = *d.Annotation
			} else if d.Initializer != nil {
				typ = c.literalTypeOf(d.Initializer)
			}
			c.scope.define(&Symbol{Name: d.Name, Type: typ, IsConst: d.IsConst})
		case ast.FuncDecl:
			d := stmt.Data.(ast.FuncDeclData)
			if _, exists := c.functionTable[d.Name]; !exists {
				retType := ast.Type{Base: ast.NUMBER}
				if d.ReturnType != nil {
					retType = *d.ReturnType
				}
				c.functionTable[d.Name] = &FunctionInfo{ReturnType: retType, Params: d.Params, IsGlobal: false}
			}
		case ast.If:
			for _, b := range stmt.Data.(ast.IfData).Branches {
				c.collectLocalDecls(b.Body)
			}
		case ast.While:
			c.collectLocalDecls(stmt.Data.(ast.WhileData).Body)
		case ast.For:
			c.collectLocalDecls(stmt.Data.(ast.ForData).Body)
		case ast.RepeatUntil:
			c.collectLocalDecls(stmt.Data.(ast.RepeatUntilData).Body)
		}
	}
}

// returnAnalysis recursively collects every `return` in body, stopping
// at nested function or lambda bodies.
func (c *Checker) returnAnalysis(body *ast.Node) []returnInfo {
	var out []returnInfo
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case ast.Block:
			for _, s := range n.Data.(ast.BlockData).Stmts {
				walk(s)
			}
		case ast.Return:
			d := n.Data.(ast.ReturnData)
			if d.Value == nil {
				out = append(out, returnInfo{Line: n.Line, Void: true})
			} else {
				out = append(out, returnInfo{Type: c.inferExprType(d.Value), Line: n.Line})
			}
		case ast.If:
			for _, b := range n.Data.(ast.IfData).Branches {
				walk(b.Body)
			}
		case ast.While:
			walk(n.Data.(ast.WhileData).Body)
		case ast.For:
			walk(n.Data.(ast.ForData).Body)
		case ast.RepeatUntil:
			walk(n.Data.(ast.RepeatUntilData).Body)
			// FuncDecl and Lambda are intentionally not recursed into.
		}
	}
	walk(body)
	return out
}

// resolveReturnType applies the function's return-type rule: use the
// declared type if present (flagging a mismatch against the actual
// return types), otherwise unify the actual return types, defaulting to
// NUMBER when the function returns nothing.
func (c *Checker) resolveReturnType(line int, name string, info *FunctionInfo, declared *ast.Type, rets []returnInfo) {
	var nonVoid []returnInfo
	for _, r := range rets {
		if !r.Void {
			nonVoid = append(nonVoid, r)
		}
	}

	if len(nonVoid) > 0 {
		first := nonVoid[0].Type
		var conflicting []string
		for _, r := range nonVoid[1:] {
			if !r.Type.IsCompatible(first) {
				conflicting = append(conflicting, fmt.Sprintf("line %d", r.Line))
			}
		}
		if len(conflicting) > 0 {
			c.rep.Report(diag.KindType, line, "function %q has conflicting return types (line %d and %v)", name, nonVoid[0].Line, conflicting)
		}
	}

	switch {
	case declared != nil:
		if len(nonVoid) > 0 && !nonVoid[0].Type.IsCompatible(*declared) {
			c.rep.Report(diag.KindType, line, "function %q declares return type %s but returns %s", name, declared, nonVoid[0].Type)
		}
		info.ReturnType = *declared
	case len(nonVoid) > 0:
		info.ReturnType = nonVoid[0].Type
	default:
		info.ReturnType = ast.Type{Base: ast.NUMBER}
	}
}

func (c *Checker) checkClass(name string, info *ClassInfo) {
	prevClass := c.currentClass
	c.currentClass = name
	defer func() { c.currentClass = prevClass }()

	if info.HasConstructor {
		c.checkConstructor(name, info)
	}
	for mname, m := range info.Methods {
		c.checkMethod(name, mname, info, m)
	}
}

func (c *Checker) checkConstructor(className string, info *ClassInfo) {
	d := info.Constructor.Data.(ast.FuncDeclData)
	if d.ReturnType != nil {
		c.rep.Report(diag.KindType, info.Constructor.Line, "constructor %q.__init must not declare a return type", className)
	}

	seen := map[string]bool{}
	for _, p := range d.Params {
		if seen[p.Name] {
			c.rep.Report(diag.KindType, info.Constructor.Line, "constructor %q.__init repeats parameter %q", className, p.Name)
		}
		seen[p.Name] = true
		if p.Type.Base == ast.STRUCT && !c.knownStructOrEnum(p.Type.StructTypeName) {
			c.rep.Report(diag.KindType, info.Constructor.Line, "constructor %q.__init parameter %q names unknown struct type %q", className, p.Name, p.Type.StructTypeName)
		}
	}

	c.pushScope()
	c.inConstructor = true
	c.assignedConstFields = map[string]bool{}
	c.scope.define(&Symbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: className}, IsDefined: true})
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)

	for _, r := range c.returnAnalysis(d.Body) {
		if !r.Void {
			c.rep.Report(diag.KindType, r.Line, "constructor %q.__init must not return a value", className)
		}
	}

	c.inConstructor = false
	c.popScope()
}

func (c *Checker) checkMethod(className, methodName string, info *ClassInfo, m *MethodInfo) {
	d := m.Decl.Data.(ast.FuncDeclData)

	c.pushScope()
	if !m.IsStatic {
		c.scope.define(&Symbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: className}, IsDefined: true})
	}
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)

	rets := c.returnAnalysis(d.Body)
	c.resolveMethodReturnType(m.Decl.Line, className, methodName, m, d.ReturnType, rets)
	d.ReturnType = &m.ReturnType
	m.Decl.Data = d

	c.popScope()
}

func (c *Checker) resolveMethodReturnType(line int, className, methodName string, m *MethodInfo, declared *ast.Type, rets []returnInfo) {
	fake := &FunctionInfo{}
	c.resolveReturnType(line, className+"."+methodName, fake, declared, rets)
	m.ReturnType = fake.ReturnType
}
