// Package golden gives package tests a small, consistent way to pin
// generated text against a fixture: a content fingerprint for
// large/noisy output (generated C, AST dumps) and a readable diff when
// two values disagree.
package golden

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

// Fingerprint returns a stable hex digest of s, for tests that assert
// "this output is byte-identical to a known-good run" without pasting
// the whole multi-hundred-line string into the test file.
func Fingerprint(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// StripUnitTag removes the leading "/* generated by holylua, unit
// <tag> */" comment codegen stamps on every translation, so two runs
// of the same source fingerprint identically despite the tag's
// per-Generator randomness.
func StripUnitTag(c string) string {
	lines := strings.SplitN(c, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(lines[0], "/* generated by holylua, unit ") {
		return lines[1]
	}
	return c
}

// Diff renders a human-readable difference between want and got,
// empty when they're equal.
func Diff(want, got any) string {
	return cmp.Diff(want, got)
}
