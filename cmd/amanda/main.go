// Command amanda runs a compiled Amanda bytecode module (a .amac binary
// container).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/amanda-lang/amanda-vm/pkg/builtins"
	"github.com/amanda-lang/amanda-vm/pkg/loader"
	"github.com/amanda-lang/amanda-vm/pkg/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("amanda", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "emit JSON logs at debug level to stderr")
	verbose := fs.Bool("v", false, "alias for -debug")
	timeout := fs.Duration("timeout", 0, "abandon the run after this duration (0 disables)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	path := fs.Arg(0)
	if path == "" {
		fmt.Fprintln(os.Stderr, "Please specify a compiled bytecode file to run")
		return 1
	}

	logger := newLogger(*debug || *verbose)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao ler o ficheiro: %v\n", err)
		return 1
	}

	mod, err := loader.Load(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao carregar o módulo: %v\n", err)
		return 1
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	registry := builtins.NewRegistry(os.Stdout, os.Stdin)
	interp := vm.New(registry.Exports(), logger)

	if err := interp.Run(ctx, mod); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newLogger builds the text-to-stderr-by-default, JSON-when-debug logger.
// Verbosity only changes log output; it never changes VM semantics.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	var handler slog.Handler
	if debug {
		level = slog.LevelDebug
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
