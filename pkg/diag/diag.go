// Package diag owns the source text for a compilation and renders
// user-visible diagnostics. It is the sole sink for compiler errors and
// warnings: the lexer, parser, type checker and code generator never
// print to stderr or call os.Exit themselves.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// Kind labels the category of a reported diagnostic: which compiler
// pass raised it.
type Kind string

const (
	KindLexer  Kind = "Lexer Error"
	KindParser Kind = "Error"
	KindType   Kind = "Type Error"
	KindCodgen Kind = "Error"
)

// Reporter holds the source text for one file, split into 1-indexed
// lines, and accumulates errors by rendering them -- it never exits
// the process and never throws.
type Reporter struct {
	lines      []string
	errorCount int
	warnCount  int
	out        *os.File
}

// NewReporter splits source into lines for later context rendering.
func NewReporter(source string) *Reporter {
	return &Reporter{
		lines: strings.Split(source, "\n"),
		out:   os.Stderr,
	}
}

// Count returns the number of errors reported so far. A pass halts the
// pipeline when this is non-zero.
func (r *Reporter) Count() int { return r.errorCount }

// WarnCount returns the number of warnings reported so far.
func (r *Reporter) WarnCount() int { return r.warnCount }

// Report prints a red-labelled error and its three-line context, then
// increments the error counter. It never exits.
func (r *Reporter) Report(kind Kind, line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "\033[31m%s:\033[0m %s\n", kind, msg)
	r.showContext(line)
	r.errorCount++
}

// Warn prints a yellow-labelled warning with the same context, without
// affecting the error counter.
func (r *Reporter) Warn(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "\033[33mWarning:\033[0m %s\n", msg)
	r.showContext(line)
	r.warnCount++
}

func (r *Reporter) showContext(line int) {
	if line < 1 || line > len(r.lines) {
		return
	}
	idx := line - 1
	if idx > 0 {
		fmt.Fprintf(r.out, "  %d | %s\n", line-1, r.lines[idx-1])
	}
	fmt.Fprintf(r.out, "\033[1;33m> %d | %s\033[0m\n", line, r.lines[idx])
	if idx < len(r.lines)-1 {
		fmt.Fprintf(r.out, "  %d | %s\n", line+1, r.lines[idx+1])
	}
	fmt.Fprintln(r.out)
}

// ReportLiteralOverflow renders the saturating-integer-literal error,
// showing the human-readable magnitude the literal would have
// overflowed to, used by the lexer. Scanning continues past the
// token, but the error counts toward halting the pipeline like any
// other lexer error.
func (r *Reporter) ReportLiteralOverflow(line int, lexeme string, attempted uint64) {
	r.Report(KindLexer, line, "integer literal %q is out of range (%s), saturated to 0", lexeme, humanize.Comma(int64(attempted)))
}
