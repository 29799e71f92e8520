package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/config"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
	"github.com/dusk-indust/vardeps/internal/progress"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	ConfigPath string
	Backend    string
	LogLevel   string
	JSON       bool
}

// app owns the long-lived handles for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  graph.Store
	parser graph.Parser
	engine *analysis.Engine
	out    io.Writer
	errOut io.Writer
	json   bool
}

// openApp loads config, opens the store and builds an EMPTY engine.
func openApp(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.Backend != "" {
		cfg.Store.Backend = flags.Backend
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	if cfg.HasCredentials() {
		logger.Warn("store credentials are set but the embedded store does not use them")
	}

	raw, err := graph.Open(ctx, cfg.GraphStore())
	if err != nil {
		return nil, err
	}
	store := graph.NewGuard(raw, cfg.Guard(logger))

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		parser: graph.NewTreeSitterParser(),
		engine: analysis.NewEngine(store, cfg.EngineOptions(logger)),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		json:   flags.JSON,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.parser.Close(), a.store.Close())
}

// load replaces the stored graph with the extraction of path. A progress
// bar is drawn on stderr unless JSON output was requested.
func (a *app) load(ctx context.Context, path string) (*loader.Report, error) {
	opts := a.cfg.LoaderOptions(a.logger)
	var tracker *progress.Tracker
	if a.json {
		opts.OnProgress = func(ev loader.ProgressEvent) {
			a.logger.Debug(strings.TrimSpace(loader.FormatProgress(ev)))
		}
	} else {
		tracker = progress.NewTracker(a.errOut, "extracting")
		opts.OnProgress = tracker.Observe
	}

	var report *loader.Report
	err := a.engine.Reload(ctx, func(ctx context.Context, store graph.Store) error {
		var err error
		report, err = loader.New(a.parser, store, opts).Load(ctx, path)
		return err
	})
	if tracker != nil {
		tracker.Finish()
	}
	return report, err
}

// ready brings the engine to READY: from source when given, otherwise from
// whatever the store already holds.
func (a *app) ready(ctx context.Context, source string) error {
	if source != "" {
		_, err := a.load(ctx, source)
		return err
	}
	if err := a.engine.Attach(ctx); err != nil {
		return err
	}
	if s, _ := a.engine.Snapshot(); s != nil && s.Len() == 0 {
		fmt.Fprintln(a.errOut, "note: the graph is empty; run 'vardeps load <path>' or pass --source")
	}
	return nil
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: close: %v\n", cerr)
		}
	}()
	return fn(ctx, a)
}
