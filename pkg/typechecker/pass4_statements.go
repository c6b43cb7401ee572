package typechecker

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// passStatementValidation is pass 4: with every table populated, walk
// every statement in the program -- global statements, function bodies,
// and class constructors/methods -- validating assignment targets,
// field access, nil-narrowing, and method dispatch.
func (c *Checker) passStatementValidation(program *ast.Node) {
	c.scope = c.globals

	for _, stmt := range topStmts(program) {
		switch stmt.Kind {
		case ast.FuncDecl:
			c.checkFunctionBodyStatements(stmt)
		case ast.StructDecl, ast.ClassDecl, ast.EnumDecl:
			// Fully validated in passes 1 and 3.
		default:
			c.scope = c.globals
			c.checkStmt(stmt)
		}
	}

	for name, info := range c.classTable {
		c.checkClassBodyStatements(name, info)
	}
}

func (c *Checker) checkFunctionBodyStatements(decl *ast.Node) {
	d := decl.Data.(ast.FuncDeclData)
	info := c.functionTable[d.Name]

	c.scope = c.globals
	c.pushScope()
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)

	prevRet := c.currentReturn
	c.currentReturn = &info.ReturnType
	c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
	c.currentReturn = prevRet

	c.popScope()
}

func (c *Checker) checkClassBodyStatements(className string, info *ClassInfo) {
	prevClass := c.currentClass
	c.currentClass = className
	defer func() { c.currentClass = prevClass }()

	if info.HasConstructor {
		d := info.Constructor.Data.(ast.FuncDeclData)
		c.scope = c.globals
		c.pushScope()
		c.inConstructor = true
		c.assignedConstFields = map[string]bool{}
		c.scope.define(&Symbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: className}, IsDefined: true})
		for _, p := range d.Params {
			c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
		}
		c.collectLocalDecls(d.Body)
		c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
		c.inConstructor = false
		c.popScope()
	}

	for _, m := range info.Methods {
		d := m.Decl.Data.(ast.FuncDeclData)
		c.scope = c.globals
		c.pushScope()
		if !m.IsStatic {
			c.scope.define(&Symbol{Name: "self", Type: ast.Type{Base: ast.STRUCT, StructTypeName: className}, IsDefined: true})
		}
		for _, p := range d.Params {
			c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
		}
		c.collectLocalDecls(d.Body)
		prevRet := c.currentReturn
		c.currentReturn = &m.ReturnType
		c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
		c.currentReturn = prevRet
		c.popScope()
	}
}

func (c *Checker) checkBlockStmts(stmts []*ast.Node) {
	for _, s := range stmts {
		c.checkStmt(s)
	}
}

// pushScopeFromGlobals opens a scope rooted directly at the global
// scope, deliberately skipping the caller's local scope chain. Nested
// functions and lambdas use this so they cannot resolve an enclosing
// local as a free variable: there are no closures capturing local
// state, only globals and the function's own parameters.
func (c *Checker) pushScopeFromGlobals() {
	c.scope = newScope(c.globals)
}

func (c *Checker) checkStmt(node *ast.Node) {
	switch node.Kind {
	case ast.VarDecl:
		c.checkVarDecl(node)
	case ast.Assign:
		c.checkAssign(node)
	case ast.FieldAssign:
		c.checkFieldAssign(node)
	case ast.Return:
		d := node.Data.(ast.ReturnData)
		if d.Value != nil {
			c.inferExprType(d.Value)
		}
	case ast.Print:
		for _, a := range node.Data.(ast.PrintData).Args {
			c.inferExprType(a)
		}
	case ast.If:
		c.checkIf(node)
	case ast.While:
		d := node.Data.(ast.WhileData)
		c.inferExprType(d.Cond)
		c.pushScope()
		c.pushNonNil()
		c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
		c.popNonNil()
		c.popScope()
	case ast.For:
		c.checkFor(node)
	case ast.RepeatUntil:
		d := node.Data.(ast.RepeatUntilData)
		c.pushScope()
		c.pushNonNil()
		c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
		c.inferExprType(d.Cond)
		c.popNonNil()
		c.popScope()
	case ast.FuncDecl:
		c.checkNestedFuncDecl(node)
	case ast.InlineC:
		// Verbatim passthrough; nothing to validate.
	case ast.ExprStmt:
		c.inferExprType(node.Data.(ast.ExprStmtData).Expr)
	case ast.StructDecl, ast.ClassDecl, ast.EnumDecl:
		c.rep.Report(diag.KindType, node.Line, "declarations must appear at the top level")
	}
}

func (c *Checker) checkVarDecl(node *ast.Node) {
	d := node.Data.(ast.VarDeclData)

	var typ ast.Type
	var initType ast.Type
	if d.Initializer != nil {
		initType = c.inferExprType(d.Initializer)
	}

	switch {
	case d.Annotation != nil:
		typ = *d.Annotation
	case d.Initializer != nil:
		typ = initType
	default:
		c.rep.Report(diag.KindType, node.Line, "variable %q needs an explicit type or an initializer", d.Name)
		typ = ast.Type{Base: ast.INFERRED}
	}

	if !typ.Optional && d.Initializer == nil {
		c.rep.Report(diag.KindType, node.Line, "non-optional variable %q requires an initializer", d.Name)
	}

	if d.Initializer != nil && !typ.Optional && isNilLiteral(d.Initializer) {
		c.rep.Report(diag.KindType, node.Line, "cannot assign nil to non-optional variable %q", d.Name)
	}
	if d.Initializer != nil && !isNilLiteral(d.Initializer) && initType.Base != ast.INFERRED && !initType.IsCompatible(typ) {
		c.rep.Report(diag.KindType, node.Line, "variable %q declared %s but initialized with %s", d.Name, typ, initType)
	}

	d.Annotation = &typ
	node.Data = d

	c.scope.define(&Symbol{Name: d.Name, Type: typ, IsConst: d.IsConst, IsDefined: d.Initializer != nil})
}

func isNilLiteral(n *ast.Node) bool { return n != nil && n.Kind == ast.LiteralNil }

func (c *Checker) checkAssign(node *ast.Node) {
	d := node.Data.(ast.AssignData)
	name := d.Target.Data.(ast.IdentifierData).Name
	sym := c.scope.lookup(name)
	if sym == nil {
		c.rep.Report(diag.KindType, node.Line, "assignment to undefined variable %q", name)
		return
	}
	if sym.IsConst {
		c.rep.Report(diag.KindType, node.Line, "cannot assign to const variable %q", name)
		return
	}

	valType := c.inferExprType(d.Value)

	if d.Op != "=" {
		if sym.Type.Base != ast.NUMBER || (sym.Type.Optional && !c.isNonNil(name)) {
			c.rep.Report(diag.KindType, node.Line, "compound assignment to %q requires a non-optional number", name)
		}
		if valType.Base != ast.NUMBER {
			c.rep.Report(diag.KindType, node.Line, "compound assignment to %q requires a number on the right-hand side", name)
		}
		sym.IsDefined = true
		return
	}

	if !sym.Type.Optional {
		if isNilLiteral(d.Value) {
			c.rep.Report(diag.KindType, node.Line, "cannot assign nil to non-optional variable %q", name)
		} else if valType.Optional && !c.isNonNil(exprName(d.Value)) {
			c.rep.Report(diag.KindType, node.Line, "cannot assign a possibly-nil value to non-optional variable %q", name)
		} else if valType.Base != ast.INFERRED && !valType.IsCompatible(sym.Type) {
			c.rep.Report(diag.KindType, node.Line, "cannot assign %s to %q of type %s", valType, name, sym.Type)
		}
	}
	sym.IsDefined = true
}

// exprName returns the bare identifier name referenced by node, or "" if
// node isn't a simple identifier -- used to test nil-narrowing.
func exprName(node *ast.Node) string {
	if node != nil && node.Kind == ast.Identifier {
		return node.Data.(ast.IdentifierData).Name
	}
	return ""
}

func (c *Checker) checkFieldAssign(node *ast.Node) {
	d := node.Data.(ast.FieldAssignData)
	objType := c.inferExprType(d.Object)
	if objType.Base != ast.STRUCT {
		c.rep.Report(diag.KindType, node.Line, "field assignment target is not a struct or class value")
		return
	}

	owner := objType.StructTypeName
	var fieldType ast.Type
	var isConstField bool
	var visibility ast.Visibility
	found := false

	if info, ok := c.classTable[owner]; ok {
		if f := info.field(d.Field); f != nil {
			fieldType, isConstField, visibility, found = f.Type, f.IsConst, f.Visibility, true
		}
	} else if info, ok := c.structTable[owner]; ok {
		if f := info.field(d.Field); f != nil {
			fieldType, found = f.Type, true
		}
	}
	if !found {
		c.rep.Report(diag.KindType, node.Line, "%q has no field %q", owner, d.Field)
		return
	}
	if visibility == ast.VisPrivate && c.currentClass != owner {
		c.rep.Report(diag.KindType, node.Line, "field %q of %q is private", d.Field, owner)
	}

	valType := c.inferExprType(d.Value)
	if d.Op == "=" {
		if !fieldType.Optional && isNilLiteral(d.Value) {
			c.rep.Report(diag.KindType, node.Line, "cannot assign nil to non-optional field %q", d.Field)
		} else if valType.Base != ast.INFERRED && !valType.IsCompatible(fieldType) {
			c.rep.Report(diag.KindType, node.Line, "cannot assign %s to field %q of type %s", valType, d.Field, fieldType)
		}
	} else if fieldType.Base != ast.NUMBER || valType.Base != ast.NUMBER {
		c.rep.Report(diag.KindType, node.Line, "compound assignment to field %q requires a number", d.Field)
	}

	if isConstField {
		key := owner + "." + d.Field
		inInit := c.inConstructor && d.Object.Kind == ast.SelfExpr
		if !inInit {
			c.rep.Report(diag.KindType, node.Line, "cannot assign to const field %q outside of constructor", d.Field)
		} else if c.assignedConstFields[key] {
			c.rep.Report(diag.KindType, node.Line, "const field %q assigned more than once", d.Field)
		} else {
			c.assignedConstFields[key] = true
		}
	}
}

func (c *Checker) checkIf(node *ast.Node) {
	d := node.Data.(ast.IfData)
	for i, b := range d.Branches {
		c.pushScope()
		c.pushNonNil()

		if b.Cond != nil {
			c.inferExprType(b.Cond)
			if i == 0 {
				if name, narrowThen := narrowTarget(b.Cond); name != "" && narrowThen {
					c.markNonNil(name)
				}
			}
		} else if len(d.Branches) == 2 {
			if name, narrowThen := narrowTarget(d.Branches[0].Cond); name != "" && !narrowThen {
				c.markNonNil(name)
			}
		}

		c.checkBlockStmts(b.Body.Data.(ast.BlockData).Stmts)
		c.popNonNil()
		c.popScope()
	}
}

// narrowTarget inspects a condition's syntactic shape for the two
// patterns that narrow an optional's type: a bare optional identifier,
// or a comparison against nil. narrowThen reports whether the *then*
// branch is the one narrowed (false means the *else* branch is
// narrowed instead).
func narrowTarget(cond *ast.Node) (name string, narrowThen bool) {
	if cond == nil {
		return "", false
	}
	switch cond.Kind {
	case ast.Identifier:
		return cond.Data.(ast.IdentifierData).Name, true
	case ast.UnaryOp:
		d := cond.Data.(ast.UnaryOpData)
		if d.Op == "not" {
			if n := exprName(d.Operand); n != "" {
				return n, false
			}
		}
	case ast.BinaryOp:
		d := cond.Data.(ast.BinaryOpData)
		if d.Op == "!=" && isNilLiteral(d.Right) {
			if n := exprName(d.Left); n != "" {
				return n, true
			}
		}
		if d.Op == "==" && isNilLiteral(d.Right) {
			if n := exprName(d.Left); n != "" {
				return n, false
			}
		}
	}
	return "", false
}

func (c *Checker) checkFor(node *ast.Node) {
	d := node.Data.(ast.ForData)
	startType := c.inferExprType(d.Start)
	stopType := c.inferExprType(d.Stop)
	if startType.Base != ast.NUMBER || stopType.Base != ast.NUMBER {
		c.rep.Report(diag.KindType, node.Line, "for-loop bounds must be numbers")
	}
	if d.Step != nil {
		if t := c.inferExprType(d.Step); t.Base != ast.NUMBER {
			c.rep.Report(diag.KindType, node.Line, "for-loop step must be a number")
		}
	}
	c.pushScope()
	c.pushNonNil()
	c.scope.define(&Symbol{Name: d.VarName, Type: ast.Type{Base: ast.NUMBER}, IsDefined: true})
	c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
	c.popNonNil()
	c.popScope()
}

func (c *Checker) checkNestedFuncDecl(node *ast.Node) {
	d := node.Data.(ast.FuncDeclData)
	for _, p := range d.Params {
		if p.Type == nil || p.Type.Base == ast.INFERRED {
			c.rep.Report(diag.KindType, node.Line, "parameter %q of nested function %q requires an explicit type", p.Name, d.Name)
		}
	}

	prevScope := c.scope
	c.pushScopeFromGlobals()
	for _, p := range d.Params {
		c.scope.define(&Symbol{Name: p.Name, Type: *p.Type, IsDefined: true})
	}
	c.collectLocalDecls(d.Body)
	c.checkBlockStmts(d.Body.Data.(ast.BlockData).Stmts)
	c.scope = prevScope
}
