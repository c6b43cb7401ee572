package golden

import "testing"

func TestFingerprintIsDeterministic(t *testing.T) {
	s := "int main(void) { return 0; }\n"
	if Fingerprint(s) != Fingerprint(s) {
		t.Error("Fingerprint is not deterministic for identical input")
	}
}

func TestFingerprintDiffersOnDifferentInput(t *testing.T) {
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("Fingerprint collided for distinct inputs")
	}
}

func TestStripUnitTagRemovesLeadingComment(t *testing.T) {
	tagged := "/* generated by holylua, unit ab12cd34 */\nint main(void) { return 0; }\n"
	want := "int main(void) { return 0; }\n"
	if got := StripUnitTag(tagged); got != want {
		t.Errorf("StripUnitTag() = %q, want %q", got, want)
	}
}

func TestStripUnitTagIsNoopWithoutTag(t *testing.T) {
	untagged := "int main(void) { return 0; }\n"
	if got := StripUnitTag(untagged); got != untagged {
		t.Errorf("StripUnitTag() = %q, want unchanged %q", got, untagged)
	}
}

func TestStripUnitTagMakesTwoRunsFingerprintIdentically(t *testing.T) {
	a := "/* generated by holylua, unit aaaaaaaa */\nint x;\n"
	b := "/* generated by holylua, unit bbbbbbbb */\nint x;\n"
	if Fingerprint(StripUnitTag(a)) != Fingerprint(StripUnitTag(b)) {
		t.Error("fingerprints should match once the random unit tag is stripped")
	}
}

func TestDiffEmptyForEqualValues(t *testing.T) {
	if got := Diff("same", "same"); got != "" {
		t.Errorf("Diff() = %q, want empty", got)
	}
}

func TestDiffNonEmptyForUnequalValues(t *testing.T) {
	if got := Diff("want", "got"); got == "" {
		t.Error("Diff() = empty, want a rendered difference")
	}
}
