package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// menuAction is one entry of the interactive menu.
type menuAction struct {
	key   string
	label string
	run   func(ctx context.Context, a *app) error
}

func menuActions() []menuAction {
	return []menuAction{
		{"load", "Load a file or directory", func(ctx context.Context, a *app) error {
			path, err := askString("Path to load")
			if err != nil {
				return err
			}
			report, err := a.load(ctx, path)
			if err != nil {
				return err
			}
			printLoadReport(a.out, report)
			return nil
		}},
		{"cycles", "Detect circular dependencies", func(_ context.Context, a *app) error { return runCycles(a) }},
		{"impact", "Impact of a variable", func(_ context.Context, a *app) error {
			v, err := askString("Variable")
			if err != nil {
				return err
			}
			r, err := a.engine.ImpactOf(v)
			if err != nil {
				return err
			}
			printReach(a.out, "Impact of", r)
			return nil
		}},
		{"deps", "Dependencies of a variable", func(_ context.Context, a *app) error {
			v, err := askString("Variable")
			if err != nil {
				return err
			}
			r, err := a.engine.DependenciesOf(v)
			if err != nil {
				return err
			}
			printReach(a.out, "Dependencies of", r)
			return nil
		}},
		{"path", "Paths between two variables", func(_ context.Context, a *app) error {
			from, err := askString("From")
			if err != nil {
				return err
			}
			to, err := askString("To")
			if err != nil {
				return err
			}
			res, err := a.engine.Paths(from, to)
			if err != nil {
				return err
			}
			printPaths(a.out, res)
			return nil
		}},
		{"metrics", "Graph metrics", func(ctx context.Context, a *app) error {
			m, err := a.engine.Metrics(ctx)
			if err != nil {
				return err
			}
			printMetrics(a.out, m)
			return nil
		}},
		{"unused", "Unused variables", func(_ context.Context, a *app) error {
			names, err := a.engine.NeverDependedOn()
			if err != nil {
				return err
			}
			printNames(a.out, "Unused variables", names)
			return nil
		}},
		{"critical-path", "Critical path", func(_ context.Context, a *app) error {
			cp, err := a.engine.CriticalPath()
			if err != nil {
				return err
			}
			printCriticalPath(a.out, cp)
			return nil
		}},
		{"quick", "Quick analysis", func(ctx context.Context, a *app) error {
			report, err := a.engine.QuickAnalysis(ctx)
			if err != nil {
				return err
			}
			printQuick(a.out, report)
			return nil
		}},
	}
}

func runCycles(a *app) error {
	cycles, err := a.engine.Cycles()
	if err != nil {
		return err
	}
	printCycles(a.out, cycles)
	return nil
}

func askString(title string) (string, error) {
	var v string
	err := huh.NewInput().
		Title(title).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		}).
		Value(&v).
		Run()
	return strings.TrimSpace(v), err
}

func newInteractiveCmd(flags *globalFlags) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Menu-driven analysis session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.ready(ctx, source); err != nil {
					return err
				}
				return menuLoop(ctx, a)
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "load this file or directory first")
	return cmd
}

func menuLoop(ctx context.Context, a *app) error {
	actions := menuActions()
	byKey := make(map[string]menuAction, len(actions))
	options := make([]huh.Option[string], 0, len(actions)+1)
	for _, act := range actions {
		byKey[act.key] = act
		options = append(options, huh.NewOption(act.label, act.key))
	}
	options = append(options, huh.NewOption("Quit", "quit"))

	for {
		var choice string
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("vardeps: " + a.engine.State().String()).
				Options(options...).
				Value(&choice),
		)).Run()
		if errors.Is(err, huh.ErrUserAborted) || choice == "quit" {
			return nil
		}
		if err != nil {
			return err
		}

		if err := byKey[choice].run(ctx, a); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			// Query errors keep the session alive.
			fmt.Fprintf(a.errOut, "error: %v\n", err)
		}
		fmt.Fprintln(a.out)
	}
}
