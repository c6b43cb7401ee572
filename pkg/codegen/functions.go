package codegen

import (
	"fmt"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
)

// nestedCallInfo records how a call to a nested function's original
// name should be rewritten once it has been lifted to file scope.
type nestedCallInfo struct {
	mangledName  string
	forwardNames []string
}

func mangleMethod(class, method string, isStatic bool) string {
	if isStatic {
		return fmt.Sprintf("%s_static_%s", class, method)
	}
	return fmt.Sprintf("%s_%s", class, method)
}

func mangleCtor(class string) string { return class + "_new" }

// emitFunctionsAndClasses writes every top-level function, then every
// class's constructor and methods.
func (g *Generator) emitFunctionsAndClasses(program *ast.Node) {
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		if stmt.Kind == ast.FuncDecl {
			g.emitGlobalFunction(stmt)
		}
	}
	for name, d := range g.classes {
		g.emitClass(name, d)
	}
	g.drainNestedDecls()
}

func (g *Generator) emitGlobalFunction(decl *ast.Node) {
	d := decl.Data.(ast.FuncDeclData)
	if d.Name == "main" {
		return // handled by emitMain
	}

	retType := "double"
	if d.ReturnType != nil {
		retType = cType(*d.ReturnType)
	}
	fmt.Fprintf(&g.buf, "%s %s(%s) {\n", retType, d.Name, g.paramList(d.Params))

	g.currentFuncName = d.Name
	g.pushScope()
	for _, p := range d.Params {
		g.scope.define(&genSymbol{Name: p.Name, Type: *p.Type})
	}
	g.lowerNestedDecls(d.Body, d.Params)
	g.lowerBlock(d.Body, 1)
	g.popScope()

	g.buf.WriteString("}\n\n")
}

func (g *Generator) emitClass(name string, d ast.ClassDeclData) {
	if d.Constructor != nil {
		g.emitConstructor(name, d.Constructor)
	}
	for _, m := range d.Methods {
		g.emitMethod(name, m)
	}
}

func (g *Generator) emitConstructor(class string, decl *ast.Node) {
	d := decl.Data.(ast.FuncDeclData)
	fmt.Fprintf(&g.buf, "%s %s(%s) {\n", class, mangleCtor(class), g.paramList(d.Params))
	fmt.Fprintf(&g.buf, "    %s self = {0};\n", class)

	g.currentFuncName = class + "___init"
	g.currentClass = class
	g.inCtor = true
	g.selfByValue = true
	g.pushScope()
	g.scope.define(&genSymbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: class}})
	for _, p := range d.Params {
		g.scope.define(&genSymbol{Name: p.Name, Type: *p.Type})
	}
	g.lowerNestedDecls(d.Body, d.Params)
	g.lowerBlock(d.Body, 1)
	g.popScope()
	g.inCtor = false
	g.currentClass = ""

	fmt.Fprintf(&g.buf, "    return self;\n}\n\n")
}

func (g *Generator) emitMethod(class string, m ast.ClassMethod) {
	d := m.Decl.Data.(ast.FuncDeclData)
	retType := "double"
	if d.ReturnType != nil {
		retType = cType(*d.ReturnType)
	}

	params := g.paramList(d.Params)
	if m.IsStatic {
		fmt.Fprintf(&g.buf, "%s %s(%s) {\n", retType, mangleMethod(class, d.Name, true), params)
	} else if params == "" {
		fmt.Fprintf(&g.buf, "%s %s(%s* self) {\n", retType, mangleMethod(class, d.Name, false), class)
	} else {
		fmt.Fprintf(&g.buf, "%s %s(%s* self, %s) {\n", retType, mangleMethod(class, d.Name, false), class, params)
	}

	g.currentFuncName = class + "_" + d.Name
	g.currentClass = class
	g.selfByValue = false
	g.pushScope()
	if !m.IsStatic {
		g.scope.define(&genSymbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: class}})
	}
	for _, p := range d.Params {
		g.scope.define(&genSymbol{Name: p.Name, Type: *p.Type})
	}
	g.lowerNestedDecls(d.Body, d.Params)
	g.lowerBlock(d.Body, 1)
	g.popScope()
	g.currentClass = ""

	g.buf.WriteString("}\n\n")
}

func (g *Generator) paramList(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s %s", cType(*p.Type), p.Name)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// lowerNestedDecls pre-scans body's top-level statements for nested
// FuncDecls, registering a call-site rewrite for each and queuing its
// lifted definition, so every call within body (wherever it appears
// relative to the declaration) resolves to the lifted name.
func (g *Generator) lowerNestedDecls(body *ast.Node, forward []ast.Param) {
	if g.nestedCallRewrite == nil {
		g.nestedCallRewrite = map[string]nestedCallInfo{}
	}
	for _, stmt := range body.Data.(ast.BlockData).Stmts {
		if stmt.Kind != ast.FuncDecl {
			continue
		}
		d := stmt.Data.(ast.FuncDeclData)
		mangled := fmt.Sprintf("%s__%s", g.currentFuncName, d.Name)

		forwardNames := make([]string, len(forward))
		for i, p := range forward {
			forwardNames[i] = p.Name
		}
		g.nestedCallRewrite[d.Name] = nestedCallInfo{mangledName: mangled, forwardNames: forwardNames}

		retType := ast.Type{Base: ast.NUMBER}
		if d.ReturnType != nil {
			retType = *d.ReturnType
		}
		allParams := append(append([]ast.Param{}, forward...), d.Params...)
		g.nestedDecls = append(g.nestedDecls, nestedFunc{
			name:       mangled,
			params:     allParams,
			returnType: retType,
			body:       d.Body,
			forward:    forward,
		})
	}
}

// drainNestedDecls emits every queued lifted function, re-running the
// same pre-scan on each one's own body so nested-within-nested
// functions keep lifting correctly.
func (g *Generator) drainNestedDecls() {
	for len(g.nestedDecls) > 0 {
		nf := g.nestedDecls[0]
		g.nestedDecls = g.nestedDecls[1:]

		fmt.Fprintf(&g.buf, "static %s %s(%s) {\n", cType(nf.returnType), nf.name, g.paramList(nf.params))

		prevFunc := g.currentFuncName
		g.currentFuncName = nf.name
		g.pushScope()
		for _, p := range nf.params {
			g.scope.define(&genSymbol{Name: p.Name, Type: *p.Type})
		}
		g.lowerNestedDecls(nf.body, nf.params)
		g.lowerBlock(nf.body, 1)
		g.popScope()
		g.currentFuncName = prevFunc

		g.buf.WriteString("}\n\n")
	}
}

// emitMain synthesizes `main` from top-level non-declaration statements
// when the source doesn't declare one itself.
func (g *Generator) emitMain(program *ast.Node) {
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		if stmt.Kind == ast.FuncDecl && stmt.Data.(ast.FuncDeclData).Name == "main" {
			g.emitUserMain(program, stmt)
			return
		}
	}

	g.buf.WriteString("int main(void) {\n")
	g.currentFuncName = "main"
	g.pushScope()
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		switch stmt.Kind {
		case ast.FuncDecl, ast.StructDecl, ast.ClassDecl, ast.EnumDecl:
			continue
		case ast.VarDecl:
			g.lowerDeferredGlobal(stmt)
		default:
			g.lowerStmt(stmt, 1)
		}
	}
	g.popScope()
	g.buf.WriteString("    return 0;\n}\n")
}

func (g *Generator) emitUserMain(program, decl *ast.Node) {
	d := decl.Data.(ast.FuncDeclData)
	g.buf.WriteString("int main(void) {\n")
	g.currentFuncName = "main"
	g.pushScope()
	for _, stmt := range program.Data.(ast.BlockData).Stmts {
		if stmt.Kind == ast.VarDecl {
			g.lowerDeferredGlobal(stmt)
		}
	}
	g.lowerNestedDecls(d.Body, nil)
	g.lowerBlock(d.Body, 1)
	g.popScope()
	g.buf.WriteString("}\n")
}
