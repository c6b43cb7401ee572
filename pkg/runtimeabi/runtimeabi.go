// Package runtimeabi names the C runtime's exported symbols so the
// code generator never spells one as a bare string literal. The
// runtime itself — hl_tostring_number, hl_print_newline, and the rest
// of holylua_api.c — ships separately; this package only mirrors its
// contract for the Go side to depend on.
package runtimeabi

// DefaultHeader is the runtime header included by generated C when
// HOLY_LUA_INCLUDE isn't set.
const DefaultHeader = "holylua_runtime.h"

// NilNumberMacro is the canonical NaN macro the header defines.
const NilNumberMacro = "HL_NIL_NUMBER"

// PrintFn returns the hl_print_<kind>_no_newline symbol for a value
// kind ("number", "string", "bool", "enum").
func PrintFn(kind string) string { return "hl_print_" + kind + "_no_newline" }

const (
	PrintTab     = "hl_print_tab"
	PrintNewline = "hl_print_newline"

	ToStringNumber = "hl_tostring_number"
	ToStringBool   = "hl_tostring_bool"
	ToStringString = "hl_tostring_string"
	ConcatStrings  = "hl_concat_strings"

	IsNilNumber = "hl_is_nil_number"
	IsNilString = "hl_is_nil_string"
	IsNilBool   = "hl_is_nil_bool"

	ToNumber      = "hl_tonumber"
	FloorDivFloat = "hl_floor_div_float"

	TypeOfNumber = "hl_type"
	TypeOfString = "hl_type_str"
	TypeOfBool   = "hl_type_bool"
)
