// Package cmd wires TeenyJVM's cobra command tree: run (default action),
// disasm, and the --trace/--config persistent flags shared between them.
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teenyjvm/classfile"
	"teenyjvm/vm"
)

const (
	exitOK           = 0
	exitUsageError   = 1
	exitRuntimeError = 99
)

var (
	traceFlag  bool
	configFlag string
)

// Execute runs the root command and terminates the process with the exit
// code the taxonomy in SPEC_FULL.md 7 assigns to whatever happened. It is
// the only thing main.go calls.
func Execute() {
	root := newRootCmd()
	root.AddCommand(newDisasmCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitUsageError)
	}
}

// exactlyOneClassFile is a cobra.PositionalArgs that, on a wrong argument
// count, prints the usage line to stderr itself (SPEC_FULL.md 6: "Usage
// message goes to the standard error channel") before failing, the way the
// C original's main() does (`fprintf(stderr, "USAGE: %s <class file>\n",
// ...)`). SilenceUsage stays on so cobra doesn't also dump its full
// flags/subcommand usage block on top of this terse line.
func exactlyOneClassFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", cmd.UseLine())
		return fmt.Errorf("expected exactly one class-file argument, got %d", len(args))
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teenyjvm <class-file>",
		Short: "Interpret a single compiled TeenyJVM class file",
		// RunE handles `teenyjvm <class-file>` directly so the CLI still
		// satisfies the one-positional-argument contract (SPEC_FULL.md 6)
		// even though `run` also exists as an explicit subcommand below.
		Args:          exactlyOneClassFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runClassFile(args[0]))
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "log one structured line per dispatched instruction")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to a teenyjvm.toml config file")

	run := &cobra.Command{
		Use:           "run <class-file>",
		Short:         "Load, resolve main, and execute a class file",
		Args:          exactlyOneClassFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runClassFile(args[0]))
			return nil
		},
	}
	cmd.AddCommand(run)

	return cmd
}

// runClassFile is the shared body of the root command and `run`: parse,
// configure, execute, and translate whatever comes back into a process exit
// code. It returns the code rather than calling os.Exit itself so its defers
// (closing the class file, flushing the trace logger) run before the caller
// exits the process.
func runClassFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		// An unopenable class file is a runtime failure, the same as a
		// malformed one (below) — not a CLI usage error.
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "opening %s", path))
		return exitRuntimeError
	}
	defer f.Close()

	class, err := classfile.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeError
	}

	cfg, err := loadConfig(configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "loading config %s", configFlag))
		return exitUsageError
	}

	logger := zap.NewNop()
	if traceFlag {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrap(err, "building trace logger"))
			return exitUsageError
		}
	}
	defer logger.Sync()

	runErr := vm.Run(class, vm.Config{
		MaxCallDepth:        cfg.Limits.MaxCallDepth,
		InitialHeapCapacity: cfg.Limits.InitialHeapCapacity,
		Logger:              logger,
	})
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return exitRuntimeError
	}
	return exitOK
}
