package typechecker

import (
	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
)

// passTypeDiscovery registers every struct, class, and enum declaration,
// validates class field shape, and collects global variables.
func (c *Checker) passTypeDiscovery(program *ast.Node) {
	for _, stmt := range topStmts(program) {
		switch stmt.Kind {
		case ast.StructDecl:
			d := stmt.Data.(ast.StructDeclData)
			if c.nameTaken(d.Name) {
				c.rep.Report(diag.KindType, stmt.Line, "%q is already declared as a struct, class, or enum", d.Name)
				continue
			}
			c.structTable[d.Name] = &StructInfo{Fields: d.Fields}
		case ast.ClassDecl:
			d := stmt.Data.(ast.ClassDeclData)
			if c.nameTaken(d.Name) {
				c.rep.Report(diag.KindType, stmt.Line, "%q is already declared as a struct, class, or enum", d.Name)
				continue
			}
			info := &ClassInfo{Fields: d.Fields, Methods: make(map[string]*MethodInfo)}
			for _, m := range d.Methods {
				md := m.Decl.Data.(ast.FuncDeclData)
				info.Methods[md.Name] = &MethodInfo{Visibility: m.Visibility, IsStatic: m.IsStatic, Params: md.Params, Decl: m.Decl}
			}
			if d.Constructor != nil {
				info.HasConstructor = true
				info.Constructor = d.Constructor
				info.ConstructorParams = d.Constructor.Data.(ast.FuncDeclData).Params
			}
			c.classTable[d.Name] = info
		case ast.EnumDecl:
			d := stmt.Data.(ast.EnumDeclData)
			if c.nameTaken(d.Name) {
				c.rep.Report(diag.KindType, stmt.Line, "%q is already declared as a struct, class, or enum", d.Name)
				continue
			}
			set := make(map[string]bool)
			for _, v := range d.Values {
				if set[v] {
					c.rep.Report(diag.KindType, stmt.Line, "enum %q declares %q more than once", d.Name, v)
				}
				set[v] = true
			}
			c.enumTable[d.Name] = &EnumInfo{Values: d.Values, Set: set}
		}
	}

	c.validateClassFieldShapes()
	c.validateStructFieldShapes()

	for _, stmt := range topStmts(program) {
		if stmt.Kind != ast.VarDecl {
			continue
		}
		c.collectGlobal(stmt)
	}
}

func (c *Checker) nameTaken(name string) bool {
	_, inStruct := c.structTable[name]
	_, inClass := c.classTable[name]
	_, inEnum := c.enumTable[name]
	return inStruct || inClass || inEnum
}

func (c *Checker) validateStructFieldShapes() {
	for name, info := range c.structTable {
		for _, f := range info.Fields {
			if f.Type.Base == ast.INFERRED {
				c.rep.Report(diag.KindType, f.Line, "struct %q field %q cannot have an inferred type", name, f.Name)
			}
			if (f.Type.Base == ast.STRUCT || f.Type.Base == ast.ENUM) && !c.knownStructOrEnum(f.Type.StructTypeName) {
				c.rep.Report(diag.KindType, f.Line, "struct %q field %q refers to unknown type %q", name, f.Name, f.Type.StructTypeName)
			}
		}
	}
}

func (c *Checker) validateClassFieldShapes() {
	for name, info := range c.classTable {
		for _, f := range info.Fields {
			if f.Type.Base == ast.INFERRED {
				c.rep.Report(diag.KindType, f.Line, "class %q field %q cannot have an inferred type", name, f.Name)
			}
			if (f.Type.Base == ast.STRUCT || f.Type.Base == ast.ENUM) && !c.knownStructOrEnum(f.Type.StructTypeName) {
				c.rep.Report(diag.KindType, f.Line, "class %q field %q refers to unknown type %q", name, f.Name, f.Type.StructTypeName)
			}
			if f.IsStatic && f.HasDefault {
				defType := c.literalTypeOf(f.DefaultValue)
				if defType.Base != ast.INFERRED && !defType.IsCompatible(f.Type) {
					c.rep.Report(diag.KindType, f.Line, "class %q static field %q default does not match declared type %s", name, f.Name, f.Type)
				}
			}
			if !f.IsStatic && !f.HasDefault && f.Visibility == ast.VisPublic {
				if !c.classAssignsFieldInInit(info, f.Name) {
					c.rep.Report(diag.KindType, f.Line, "class %q field %q has no default and is never assigned in __init", name, f.Name)
				}
			}
		}
	}
}

// classAssignsFieldInInit scans the constructor body (if any) for a
// `self.<name> = ...` field assignment.
func (c *Checker) classAssignsFieldInInit(info *ClassInfo, field string) bool {
	if !info.HasConstructor {
		return false
	}
	body := info.Constructor.Data.(ast.FuncDeclData).Body
	return containsSelfFieldAssign(body, field)
}

func containsSelfFieldAssign(node *ast.Node, field string) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.Block:
		for _, s := range node.Data.(ast.BlockData).Stmts {
			if containsSelfFieldAssign(s, field) {
				return true
			}
		}
	case ast.FieldAssign:
		d := node.Data.(ast.FieldAssignData)
		if d.Object.Kind == ast.SelfExpr && d.Field == field {
			return true
		}
	case ast.If:
		for _, b := range node.Data.(ast.IfData).Branches {
			if containsSelfFieldAssign(b.Body, field) {
				return true
			}
		}
	case ast.While:
		return containsSelfFieldAssign(node.Data.(ast.WhileData).Body, field)
	case ast.For:
		return containsSelfFieldAssign(node.Data.(ast.ForData).Body, field)
	case ast.RepeatUntil:
		return containsSelfFieldAssign(node.Data.(ast.RepeatUntilData).Body, field)
	}
	return false
}

func (c *Checker) knownStructOrEnum(name string) bool {
	_, inStruct := c.structTable[name]
	_, inClass := c.classTable[name]
	_, inEnum := c.enumTable[name]
	return inStruct || inClass || inEnum
}

// collectGlobal registers a top-level variable declaration, inferring
// an INFERRED annotation from its initializer.
func (c *Checker) collectGlobal(stmt *ast.Node) {
	d := stmt.Data.(ast.VarDeclData)
	if c.globals.lookupLocal(d.Name) != nil {
		c.rep.Report(diag.KindType, stmt.Line, "global %q is already declared", d.Name)
		return
	}

	typ := ast.Type{Base: ast.INFERRED}
	if d.Annotation != nil {
		typ = *d.Annotation
	} else if d.Initializer != nil {
		typ = c.literalTypeOf(d.Initializer)
	}
	if typ.Base == ast.INFERRED && d.Initializer == nil {
		c.rep.Report(diag.KindType, stmt.Line, "global %q needs an explicit type or an initializer", d.Name)
	}

	d.Annotation = &typ
	stmt.Data = d

	c.globals.define(&Symbol{Name: d.Name, Type: typ, IsConst: d.IsConst, IsDefined: d.Initializer != nil})
}

// literalTypeOf makes a best-effort guess at an expression's static type
// from its syntactic shape alone, used only for INFERRED resolution
// before the full pass-4 inference is available.
func (c *Checker) literalTypeOf(node *ast.Node) ast.Type {
	if node == nil {
		return ast.Type{Base: ast.INFERRED}
	}
	switch node.Kind {
	case ast.LiteralNumber:
		return ast.Type{Base: ast.NUMBER}
	case ast.LiteralString:
		return ast.Type{Base: ast.STRING}
	case ast.LiteralBool:
		return ast.Type{Base: ast.BOOL}
	case ast.LiteralNil:
		return ast.Type{Base: ast.INFERRED, Optional: true}
	case ast.StructConstructor:
		d := node.Data.(ast.StructConstructorData)
		return ast.Type{Base: ast.STRUCT, StructTypeName: d.StructName}
	case ast.ClassInstantiation:
		d := node.Data.(ast.ClassInstantiationData)
		return ast.Type{Base: ast.STRUCT, StructTypeName: d.ClassName}
	case ast.Lambda:
		return ast.Type{Base: ast.FUNCTION}
	case ast.EnumAccess:
		d := node.Data.(ast.EnumAccessData)
		return ast.Type{Base: ast.ENUM, StructTypeName: d.EnumName}
	default:
		return ast.Type{Base: ast.INFERRED}
	}
}
