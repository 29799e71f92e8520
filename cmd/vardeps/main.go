package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "vardeps",
		Short: "Variable-level data dependency analysis",
		Long: `vardeps extracts which variables read which other variables from
Python, Go, Rust and TypeScript sources, stores the result as a graph and
answers questions about it: cycles, impact, paths, metrics and the
critical path.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.ConfigPath, "config", "c", "", "config file (default: vardeps.yml in the working directory)")
	pf.StringVar(&flags.Backend, "backend", "", "graph store backend: kuzu or memory")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&flags.JSON, "json", false, "print results as JSON")

	root.AddCommand(
		newLoadCmd(&flags),
		newCyclesCmd(&flags),
		newImpactCmd(&flags),
		newDepsCmd(&flags),
		newPathCmd(&flags),
		newMetricsCmd(&flags),
		newUnusedCmd(&flags),
		newCriticalPathCmd(&flags),
		newExportCmd(&flags),
		newQuickCmd(&flags),
		newInteractiveCmd(&flags),
		newServeMCPCmd(&flags),
		newInitCmd(),
	)
	return root
}
