package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/export"
	"github.com/dusk-indust/vardeps/internal/mcptools"
)

func newLoadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Extract dependencies from a file or directory and replace the stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				report, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}
				if a.json {
					return printJSON(a.out, report)
				}
				printLoadReport(a.out, report)
				return nil
			})
		},
	}
}

// analysisCmd builds a command that brings the engine to READY (from
// --source or the persisted store) and then runs fn.
func analysisCmd(flags *globalFlags, use, short string, args cobra.PositionalArgs,
	fn func(ctx context.Context, a *app, args []string) error,
) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.ready(ctx, source); err != nil {
					return err
				}
				return fn(ctx, a, args)
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "load this file or directory before analyzing")
	return cmd
}

func newCyclesCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "cycles", "Detect circular dependencies", cobra.NoArgs,
		func(_ context.Context, a *app, _ []string) error {
			cycles, err := a.engine.Cycles()
			if err != nil {
				return err
			}
			if a.json {
				if cycles == nil {
					cycles = []analysis.Cycle{}
				}
				return printJSON(a.out, cycles)
			}
			printCycles(a.out, cycles)
			return nil
		})
	return cmd
}

func newImpactCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "impact <variable>", "List every variable affected by a change to <variable>", cobra.ExactArgs(1),
		func(_ context.Context, a *app, args []string) error {
			r, err := a.engine.ImpactOf(args[0])
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, r)
			}
			printReach(a.out, "Impact of", r)
			return nil
		})
	return cmd
}

func newDepsCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "deps <variable>", "List every variable <variable> depends on", cobra.ExactArgs(1),
		func(_ context.Context, a *app, args []string) error {
			r, err := a.engine.DependenciesOf(args[0])
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, r)
			}
			printReach(a.out, "Dependencies of", r)
			return nil
		})
	return cmd
}

func newPathCmd(flags *globalFlags) *cobra.Command {
	var limit, maxDepth int
	cmd := analysisCmd(flags, "path <from> <to>", "Enumerate dependency paths between two variables", cobra.ExactArgs(2),
		func(_ context.Context, a *app, args []string) error {
			snap, err := a.engine.Snapshot()
			if err != nil {
				return err
			}
			opts := a.cfg.EngineOptions(a.logger).Paths
			if limit > 0 {
				opts.Limit = limit
			}
			if maxDepth > 0 {
				opts.MaxDepth = maxDepth
			}
			res, err := analysis.FindPaths(snap, args[0], args[1], opts)
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, res)
			}
			printPaths(a.out, res)
			return nil
		})
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of paths (default from config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum edges per path (default from config)")
	return cmd
}

func newMetricsCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "metrics", "Summarize graph structure", cobra.NoArgs,
		func(ctx context.Context, a *app, _ []string) error {
			m, err := a.engine.Metrics(ctx)
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, m)
			}
			printMetrics(a.out, m)
			return nil
		})
	return cmd
}

func newUnusedCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "unused", "List variables no other variable reads", cobra.NoArgs,
		func(_ context.Context, a *app, _ []string) error {
			names, err := a.engine.NeverDependedOn()
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, mcptools.UnusedVariablesOutput{Variables: names, Count: len(names)})
			}
			printNames(a.out, "Unused variables", names)
			return nil
		})
	return cmd
}

func newCriticalPathCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "critical-path", "Find the longest root-to-leaf dependency chain", cobra.NoArgs,
		func(_ context.Context, a *app, _ []string) error {
			cp, err := a.engine.CriticalPath()
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(a.out, cp)
			}
			printCriticalPath(a.out, cp)
			return nil
		})
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var output, format string
	cmd := analysisCmd(flags, "export", "Write the graph as JSON, YAML or Mermaid", cobra.NoArgs,
		func(_ context.Context, a *app, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			snap, err := a.engine.Snapshot()
			if err != nil {
				return err
			}
			content, err := mcptools.Render(snap, f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(a.out, content)
				return err
			}
			if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(a.errOut, "  wrote %s (%s, %d edges)\n", output, f, snap.EdgeCount())
			return nil
		})
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml or mermaid")
	return cmd
}

func newQuickCmd(flags *globalFlags) *cobra.Command {
	cmd := analysisCmd(flags, "quick", "Run metrics, cycle detection and the critical path together", cobra.NoArgs,
		func(ctx context.Context, a *app, _ []string) error {
			report, err := a.engine.QuickAnalysis(ctx)
			if err != nil {
				return err
			}
			if a.json {
				if report.Cycles == nil {
					report.Cycles = []analysis.Cycle{}
				}
				return printJSON(a.out, report)
			}
			printQuick(a.out, report)
			return nil
		})
	return cmd
}

func newServeMCPCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the analysis commands as MCP tools (stdio by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				// A store that cannot be attached still serves load_graph.
				if err := a.engine.Attach(ctx); err != nil {
					a.logger.Warn("starting with an empty graph", "err", err)
				}
				svc := mcptools.NewVarDepsService(a.engine, a.parser,
					a.cfg.LoaderOptions(a.logger), a.cfg.EngineOptions(a.logger).Paths, a.logger)
				if addr != "" {
					a.logger.Info("serving MCP over HTTP", "addr", addr)
					return mcptools.RunMCPServer(ctx, svc, addr)
				}
				return mcptools.RunMCPServerStdio(ctx, svc)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
