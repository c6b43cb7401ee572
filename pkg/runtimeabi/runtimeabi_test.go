package runtimeabi

import "testing"

func TestPrintFnNamesEachValueKind(t *testing.T) {
	tests := map[string]string{
		"number": "hl_print_number_no_newline",
		"string": "hl_print_string_no_newline",
		"bool":   "hl_print_bool_no_newline",
		"enum":   "hl_print_enum_no_newline",
	}
	for kind, want := range tests {
		if got := PrintFn(kind); got != want {
			t.Errorf("PrintFn(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestSymbolsAreNonEmpty(t *testing.T) {
	symbols := []string{
		DefaultHeader, NilNumberMacro,
		PrintTab, PrintNewline,
		ToStringNumber, ToStringBool, ToStringString, ConcatStrings,
		IsNilNumber, IsNilString, IsNilBool,
		ToNumber, FloorDivFloat,
		TypeOfNumber, TypeOfString, TypeOfBool,
	}
	for _, s := range symbols {
		if s == "" {
			t.Error("found an empty ABI symbol constant")
		}
	}
}
