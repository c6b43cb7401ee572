// Package cli is a small hand-rolled flag parser and help-page
// renderer, used instead of the standard library's flag package so the
// driver can mix long/short flags and control its own usage rendering.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type IndentState struct {
	levels   []uint8
	baseUnit uint8
}

func NewIndentState() *IndentState {
	return &IndentState{levels: []uint8{0}, baseUnit: 4}
}

func (is *IndentState) AtLevel(level int) string {
	return strings.Repeat(" ", int(is.baseUnit*uint8(level)))
}

type Value interface {
	String() string
	Set(string) error
	Get() any
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }
func (v *stringValue) Get() any           { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	val, err := strconv.ParseBool(s)
	if err != nil && s != "" {
		return fmt.Errorf("invalid boolean value %q: %w", s, err)
	}
	*v.p = val || s == ""
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Get() any       { return *v.p }

// Flag is one registered --name/-shorthand pair.
type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

// FlagSet parses a flat argv into registered Flags plus positional Args.
type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	args       []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{name: name, flags: make(map[string]*Flag), shorthands: make(map[string]*Flag)}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.var_(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.var_(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) var_(value Value, name, shorthand, usage, defValue, expectedType string) {
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	f.flags[name] = flag
	if shorthand != "" {
		f.shorthands[shorthand] = flag
	}
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "--") {
			if err := f.parseLongFlag(arg, arguments, &i); err != nil {
				return err
			}
			continue
		}
		if err := f.parseShortFlag(arg, arguments, &i); err != nil {
			return err
		}
	}
	return nil
}

func (f *FlagSet) parseLongFlag(arg string, arguments []string, i *int) error {
	parts := strings.SplitN(arg[2:], "=", 2)
	name := parts[0]
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: --%s", name)
	}
	if len(parts) == 2 {
		return flag.Value.Set(parts[1])
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: --%s", name)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

func (f *FlagSet) parseShortFlag(arg string, arguments []string, i *int) error {
	shorthand := arg[1:2]
	flag, ok := f.shorthands[shorthand]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", shorthand)
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.Value.Set("")
	}
	value := arg[2:]
	if value == "" {
		if *i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: -%s", shorthand)
		}
		*i++
		value = arguments[*i]
	}
	return flag.Value.Set(value)
}

// App wraps a FlagSet with usage/help rendering and dispatches to
// Action once parsing succeeds.
type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.printUsage(os.Stderr)
		return err
	}
	if help {
		a.printHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) flagsByName() []*Flag {
	flags := make([]*Flag, 0, len(a.FlagSet.flags))
	for _, f := range a.FlagSet.flags {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func (a *App) printUsage(w *os.File) {
	fmt.Fprintf(w, "Usage: %s <options> [input.hlua] ...\n", a.Name)
	fmt.Fprintf(w, "Run '%s --help' for all available options.\n", a.Name)
}

func (a *App) printHelp(w *os.File) {
	indent := NewIndentState()
	termWidth := terminalWidth()

	if a.Synopsis != "" {
		fmt.Fprintf(w, "%sSynopsis\n%s%s %s\n\n", indent.AtLevel(1), indent.AtLevel(2), a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(w, "%sDescription\n%s%s\n\n", indent.AtLevel(1), indent.AtLevel(2), wrapLine(a.Description, termWidth-len(indent.AtLevel(2))))
	}

	flags := a.flagsByName()
	maxWidth := 0
	for _, f := range flags {
		if w := len(flagLabel(f)); w > maxWidth {
			maxWidth = w
		}
	}
	fmt.Fprintf(w, "%sOptions\n", indent.AtLevel(1))
	for _, f := range flags {
		fmt.Fprintf(w, "%s%-*s  %s\n", indent.AtLevel(2), maxWidth, flagLabel(f), f.Usage)
	}

	if len(a.Authors) > 0 {
		fmt.Fprintf(w, "\n%sAuthors: %s\n", indent.AtLevel(1), strings.Join(a.Authors, ", "))
	}
	if a.Repository != "" {
		fmt.Fprintf(w, "%sRepository: %s\n", indent.AtLevel(1), a.Repository)
	}
}

func flagLabel(f *Flag) string {
	if f.Shorthand != "" {
		if _, isBool := f.Value.(*boolValue); isBool {
			return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
		}
		return fmt.Sprintf("-%s, --%s <%s>", f.Shorthand, f.Name, f.ExpectedType)
	}
	if _, isBool := f.Value.(*boolValue); isBool {
		return "--" + f.Name
	}
	return fmt.Sprintf("--%s <%s>", f.Name, f.ExpectedType)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapLine(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	words := strings.Fields(text)
	var sb strings.Builder
	lineLen := 0
	for i, word := range words {
		if lineLen > 0 && lineLen+len(word)+1 > maxWidth {
			sb.WriteString("\n")
			lineLen = 0
		} else if i > 0 {
			sb.WriteString(" ")
			lineLen++
		}
		sb.WriteString(word)
		lineLen += len(word)
	}
	return sb.String()
}
