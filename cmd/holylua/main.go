// Command holylua is the driver: it lexes, parses, type checks, and
// lowers a HolyLua source file to C, then hands that C off to the
// host's C compiler to produce an executable or, with --asm, stops
// after emitting assembly.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/awkwardmachine/holy-lua/pkg/cli"
	"github.com/awkwardmachine/holy-lua/pkg/codegen"
	"github.com/awkwardmachine/holy-lua/pkg/config"
	"github.com/awkwardmachine/holy-lua/pkg/diag"
	"github.com/awkwardmachine/holy-lua/pkg/lexer"
	"github.com/awkwardmachine/holy-lua/pkg/parser"
	"github.com/awkwardmachine/holy-lua/pkg/runtimeabi"
	"github.com/awkwardmachine/holy-lua/pkg/typechecker"
	"github.com/goforj/godump"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			os.Exit(runInit(os.Args[2:]))
		case "run":
			os.Exit(runBuild(os.Args[2:], true))
		case "build":
			os.Exit(runBuild(os.Args[2:], false))
		}
	}
	os.Exit(runBuild(os.Args[1:], false))
}

func newCompileApp() (*cli.App, *string, *bool, *bool, *string) {
	app := cli.NewApp("holylua")
	app.Synopsis = "[options] <input.hlua>"
	app.Description = "Ahead-of-time compiler from a Lua-flavored source language to portable C."
	app.Authors = []string{"awkwardmachine"}
	app.Repository = "<https://github.com/awkwardmachine/holy-lua>"

	var (
		outName  string
		printAST bool
		keepC    bool
		asmOnly  bool
	)
	fs := app.FlagSet
	fs.String(&outName, "o", "o", "a.out", "Place the compiled executable at <name>.", "name")
	fs.Bool(&printAST, "ast", "", false, "Print the parsed AST and exit before code generation.")
	fs.Bool(&keepC, "keep-c", "", false, "Keep the generated .c file next to the output binary.")
	fs.Bool(&asmOnly, "asm", "", false, "Emit assembly instead of linking an executable.")
	return app, &outName, &printAST, &keepC, &asmOnly
}

func runBuild(args []string, runAfter bool) int {
	app, outName, printAST, keepC, asmOnly := newCompileApp()

	exitCode := 0
	app.Action = func(positional []string) error {
		if len(positional) == 0 {
			return fmt.Errorf("no input file given")
		}
		srcPath := positional[0]
		src, err := os.ReadFile(srcPath)
		if err != nil {
			return fmt.Errorf("could not read %q: %w", srcPath, err)
		}

		rep := diag.NewReporter(string(src))
		toks := lexer.NewLexer(string(src), rep).Lex()
		if rep.Count() > 0 {
			exitCode = 1
			return nil
		}

		p := parser.NewParser(toks, rep)
		program := p.Parse()
		if rep.Count() > 0 {
			exitCode = 1
			return nil
		}

		if *printAST {
			godump.Dump(program)
			return nil
		}

		cfg := config.NewConfig()
		checker := typechecker.NewChecker(rep, cfg)
		if !checker.Check(program) {
			exitCode = 1
			return nil
		}

		gen := codegen.NewGenerator(cfg, rep)
		cSource, err := gen.Generate(program, includeHeader())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = 1
			return nil
		}

		cPath := strings.TrimSuffix(*outName, filepath.Ext(*outName)) + ".c"
		if err := os.WriteFile(cPath, []byte(cSource), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", cPath, err)
		}
		if !*keepC {
			defer os.Remove(cPath)
		}

		if err := compileC(cPath, *outName, *asmOnly); err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = 1
			return nil
		}

		if runAfter && !*asmOnly {
			abs, _ := filepath.Abs(*outName)
			cmd := exec.Command(abs)
			cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
			if err := cmd.Run(); err != nil {
				exitCode = 1
			}
		}
		return nil
	}

	if err := app.Run(args); err != nil {
		return 1
	}
	return exitCode
}

// includeHeader resolves the runtime header to #include, honoring
// HOLY_LUA_INCLUDE the same way HOLY_LUA_LIB steers the linker below.
func includeHeader() string {
	if dir := os.Getenv("HOLY_LUA_INCLUDE"); dir != "" {
		return filepath.Join(dir, runtimeabi.DefaultHeader)
	}
	return runtimeabi.DefaultHeader
}

// compileC shells out to the host C compiler on the already-written
// cPath, invoking the external toolchain by exec.Command.
func compileC(cPath, outName string, asmOnly bool) error {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	args := []string{cPath}
	if libDir := os.Getenv("HOLY_LUA_LIB"); libDir != "" {
		args = append(args, "-L"+libDir)
	}
	if incDir := os.Getenv("HOLY_LUA_INCLUDE"); incDir != "" {
		args = append(args, "-I"+incDir)
	}
	if asmOnly {
		args = append(args, "-S", "-o", outName)
	} else {
		args = append(args, "-o", outName, "-lholylua_runtime", "-lm")
	}
	cmd := exec.Command(cc, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", cc, err, output)
	}
	return nil
}

func runInit(args []string) int {
	name := "."
	if len(args) > 0 {
		name = args[0]
	}
	srcDir := filepath.Join(name, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	manifest := `[project]
name = "untitled"
version = "0.1.0"
entry = "src/main.hlua"
`
	if err := os.WriteFile(filepath.Join(name, "project.toml"), []byte(manifest), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	stub := "print(\"hello, holylua\")\n"
	if err := os.WriteFile(filepath.Join(srcDir, "main.hlua"), []byte(stub), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
