package codegen

import (
	"fmt"

	"github.com/awkwardmachine/holy-lua/pkg/ast"
	"github.com/awkwardmachine/holy-lua/pkg/runtimeabi"
)

// emitPreamble writes enum typedefs, struct typedefs, class typedefs,
// and static class-field definitions, in that order.
func (g *Generator) emitPreamble() {
	for name, d := range g.enums {
		g.emitEnumTypedef(name, d)
	}
	for name, d := range g.structs {
		g.emitStructTypedef(name, d.Fields)
	}
	for name, d := range g.classes {
		g.emitClassTypedef(name, d.Fields)
	}
	for name, d := range g.classes {
		g.emitStaticFields(name, d.Fields)
	}
	g.buf.WriteByte('\n')
}

func (g *Generator) emitEnumTypedef(name string, d ast.EnumDeclData) {
	fmt.Fprintf(&g.buf, "typedef enum {\n")
	for i, v := range d.Values {
		sep := ","
		if i == len(d.Values)-1 {
			sep = ""
		}
		fmt.Fprintf(&g.buf, "    %s_%s%s\n", name, v, sep)
	}
	fmt.Fprintf(&g.buf, "} %s;\n\n", name)
}

func (g *Generator) emitStructTypedef(name string, fields []ast.StructField) {
	fmt.Fprintf(&g.buf, "typedef struct {\n")
	for _, f := range fields {
		fmt.Fprintf(&g.buf, "    %s %s;\n", cType(f.Type), f.Name)
	}
	fmt.Fprintf(&g.buf, "} %s;\n\n", name)
}

// emitClassTypedef emits one struct holding a class's non-static
// fields; static fields live as file-scope globals instead.
func (g *Generator) emitClassTypedef(name string, fields []ast.ClassField) {
	fmt.Fprintf(&g.buf, "typedef struct {\n")
	for _, f := range fields {
		if f.IsStatic {
			continue
		}
		fmt.Fprintf(&g.buf, "    %s %s;\n", cType(f.Type), f.Name)
	}
	fmt.Fprintf(&g.buf, "} %s;\n\n", name)
}

func (g *Generator) emitStaticFields(className string, fields []ast.ClassField) {
	for _, f := range fields {
		if !f.IsStatic {
			continue
		}
		constKw := ""
		if f.IsConst {
			constKw = "const "
		}
		init := g.staticFieldDefault(f)
		fmt.Fprintf(&g.buf, "static %s%s %s_%s = %s;\n", constKw, cType(f.Type), className, f.Name, init)
	}
}

// staticFieldDefault lowers a static class field's default expression,
// falling back to the type's nil sentinel when there is none.
func (g *Generator) staticFieldDefault(f ast.ClassField) string {
	if !f.HasDefault {
		return nilSentinel(f.Type)
	}
	return g.lowerExpr(f.DefaultValue)
}

// cType maps a HolyLua type to its C spelling. Optional struct and enum
// values are represented by the base C type itself; their nilability is
// tracked out-of-band by the nil-sentinel table, not by widening the
// type.
func cType(t ast.Type) string {
	switch t.Base {
	case ast.NUMBER:
		return "double"
	case ast.STRING:
		return "char*"
	case ast.BOOL:
		return "int"
	case ast.ENUM:
		return t.StructTypeName
	case ast.STRUCT:
		return t.StructTypeName
	case ast.FUNCTION:
		return "void*"
	default:
		return "double"
	}
}

// nilSentinel returns the per-type nil literal from the runtime's
// sentinel table.
func nilSentinel(t ast.Type) string {
	switch t.Base {
	case ast.NUMBER:
		return runtimeabi.NilNumberMacro
	case ast.STRING:
		return "NULL"
	case ast.BOOL:
		return "-1"
	case ast.ENUM:
		return "-1"
	case ast.STRUCT:
		return "-1"
	default:
		return "0"
	}
}
