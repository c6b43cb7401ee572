package cli

import "testing"

func TestFlagSetParsesLongFlags(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	var verbose bool
	fs.String(&out, "out", "o", "a.out", "output path", "name")
	fs.Bool(&verbose, "verbose", "v", false, "verbose output")

	if err := fs.Parse([]string{"--out", "bin", "--verbose", "input.hlua"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if out != "bin" {
		t.Errorf("out = %q, want %q", out, "bin")
	}
	if !verbose {
		t.Error("verbose = false, want true")
	}
	if got := fs.Args(); len(got) != 1 || got[0] != "input.hlua" {
		t.Errorf("Args() = %v, want [input.hlua]", got)
	}
}

func TestFlagSetParsesLongFlagWithEquals(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	fs.String(&out, "out", "o", "a.out", "output path", "name")

	if err := fs.Parse([]string{"--out=bin"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if out != "bin" {
		t.Errorf("out = %q, want %q", out, "bin")
	}
}

func TestFlagSetParsesShorthand(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	fs.String(&out, "out", "o", "a.out", "output path", "name")

	if err := fs.Parse([]string{"-obin"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if out != "bin" {
		t.Errorf("out = %q, want %q", out, "bin")
	}
}

func TestFlagSetShorthandWithSeparateValue(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	fs.String(&out, "out", "o", "a.out", "output path", "name")

	if err := fs.Parse([]string{"-o", "bin"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if out != "bin" {
		t.Errorf("out = %q, want %q", out, "bin")
	}
}

func TestFlagSetUnknownLongFlagErrors(t *testing.T) {
	fs := NewFlagSet("test")
	if err := fs.Parse([]string{"--nope"}); err == nil {
		t.Fatal("expected an error for an unregistered flag")
	}
}

func TestFlagSetUnknownShorthandErrors(t *testing.T) {
	fs := NewFlagSet("test")
	if err := fs.Parse([]string{"-z"}); err == nil {
		t.Fatal("expected an error for an unregistered shorthand")
	}
}

func TestFlagSetDoubleDashStopsParsing(t *testing.T) {
	fs := NewFlagSet("test")
	var verbose bool
	fs.Bool(&verbose, "verbose", "v", false, "verbose output")

	if err := fs.Parse([]string{"--", "--verbose"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if verbose {
		t.Error("verbose should stay false once -- stops flag parsing")
	}
	if got := fs.Args(); len(got) != 1 || got[0] != "--verbose" {
		t.Errorf("Args() = %v, want [--verbose]", got)
	}
}

func TestAppRunDispatchesActionWithPositionalArgs(t *testing.T) {
	app := NewApp("holylua")
	var got []string
	app.Action = func(args []string) error {
		got = args
		return nil
	}
	if err := app.Run([]string{"main.hlua"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(got) != 1 || got[0] != "main.hlua" {
		t.Errorf("Action args = %v, want [main.hlua]", got)
	}
}

func TestAppRunHelpSkipsAction(t *testing.T) {
	app := NewApp("holylua")
	called := false
	app.Action = func(args []string) error {
		called = true
		return nil
	}
	if err := app.Run([]string{"--help"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if called {
		t.Error("Action should not run when --help is given")
	}
}
