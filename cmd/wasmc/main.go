package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-compiler/compiler"
	"github.com/wippyai/wasm-compiler/runtime"
	"github.com/wippyai/wasm-compiler/wasm"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to wasm module file")
		dump        = flag.Bool("dump", false, "Dump IR for the whole module")
		funcName    = flag.String("func", "", "Dump IR for a single exported function")
		noValidate  = flag.Bool("no-validate", false, "Skip upstream validation before compiling")
		verbose     = flag.Bool("v", false, "Verbose compiler logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmc -wasm <file.wasm> [-dump] [-func name]")
		fmt.Fprintln(os.Stderr, "       wasmc -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		compiler.SetLogger(logger)
		runtime.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*wasmFile, !*noValidate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *dump, !*noValidate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// styled wraps s in style when stdout is a terminal.
func styled(style lipgloss.Style, s string) string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return style.Render(s)
	}
	return s
}

func run(wasmFile, funcName string, dump, validate bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(wasmFile), ".wasm")
	opts := []runtime.Option{runtime.WithName(name), runtime.WithValidation(validate)}
	mod, err := runtime.Compile(ctx, data, opts...)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	info := mod.Info()

	header := lipgloss.NewStyle().Bold(true)
	fmt.Printf("%s %s\n", styled(header, "Module:"), wasmFile)
	fmt.Printf("Types: %d\n", len(info.Types))
	fmt.Printf("Imported functions: %d\n", len(info.ImportedFuncs))
	fmt.Printf("Functions: %d\n", len(info.Functions))
	fmt.Printf("Exports: %d\n", len(info.Exports))

	var names []string
	for expName, exp := range info.Exports {
		if exp.Kind == wasm.KindFunc {
			names = append(names, expName)
		}
	}
	sort.Strings(names)

	if len(names) > 0 {
		fmt.Printf("\n%s\n", styled(header, "Exported functions:"))
		for _, expName := range names {
			exp := info.Exports[expName]
			ft, err := info.FuncType(exp.Index)
			if err != nil {
				return err
			}
			fmt.Printf("  %s %s\n", expName, ft)
		}
	}

	if funcName != "" {
		fn, err := mod.ExportedFunction(funcName)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", fn)
		return nil
	}

	if dump {
		fmt.Printf("\n%s\n", mod.IR())
	}

	return nil
}
