// Package loader drives extraction over a file or directory tree and upserts
// the results into a graph store.
package loader

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// DefaultExcludeDirs are directory names skipped while walking a tree.
var DefaultExcludeDirs = []string{".git", "node_modules", "vendor", "__pycache__", ".venv"}

// Options configures a Loader.
type Options struct {
	Workers     int              // parallel extraction workers; default 4
	Languages   []graph.Language // enabled languages; empty means all the parser supports
	ExcludeDirs []string         // nil means DefaultExcludeDirs
	Logger      *slog.Logger

	// OnProgress is called from worker goroutines; it may be nil.
	OnProgress func(ProgressEvent)
}

// FileReport summarizes one successfully extracted file.
type FileReport struct {
	Path      string         `json:"path"`
	Language  graph.Language `json:"language"`
	Edges     int            `json:"edges"`
	Variables int            `json:"variables"`
}

// FileFailure records a file that could not be extracted.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the outcome of a Load. Totals are the distinct counts in the
// store after the load, not sums over files.
type Report struct {
	Root           string        `json:"root"`
	Files          []FileReport  `json:"files"`
	Failures       []FileFailure `json:"failures"`
	TotalEdges     int           `json:"totalEdges"`
	TotalVariables int           `json:"totalVariables"`
}

// Loader extracts files in parallel and upserts each file's result into the
// store one file at a time, in discovery order.
type Loader struct {
	parser graph.Parser
	store  graph.Store
	opts   Options
	logger *slog.Logger

	langs   map[graph.Language]bool
	exclude map[string]bool
}

// New creates a Loader. The caller keeps ownership of parser and store.
func New(parser graph.Parser, store graph.Store, opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	langs := make(map[graph.Language]bool)
	enabled := opts.Languages
	if len(enabled) == 0 {
		enabled = parser.SupportedLanguages()
	}
	for _, l := range enabled {
		langs[l] = true
	}
	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		exclude[d] = true
	}

	return &Loader{
		parser:  parser,
		store:   store,
		opts:    opts,
		logger:  logger,
		langs:   langs,
		exclude: exclude,
	}
}

// outcome is one file's result, kept in discovery order.
type outcome struct {
	report  *FileReport
	failure *FileFailure
}

// Load extracts path (a file or a directory tree) into the store. Per-file
// failures are collected in the report and do not stop the batch. A store
// failure aborts the load.
func (l *Loader) Load(ctx context.Context, path string) (*Report, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &graph.NotFoundError{Kind: "file", Name: path}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	files, err := l.discover(path, info)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	l.logger.Info("load started", "path", path, "files", len(files), "workers", l.opts.Workers)
	l.emit(ProgressEvent{Status: ProgressDiscovered, Total: len(files)})

	// Files parse in parallel but commit in discovery order: file i waits
	// for file i-1 to commit, so the first-write Line and File of a shared
	// pair never depend on worker timing.
	outcomes := make([]outcome, len(files))
	committed := make([]chan struct{}, len(files))
	for i := range committed {
		committed[i] = make(chan struct{})
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, res := l.parseFile(gctx, f)
			if i > 0 {
				select {
				case <-committed[i-1]:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if res != nil {
				if err := l.commit(gctx, f, res); err != nil {
					return err
				}
			}
			outcomes[i] = out
			close(committed[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Root: path, Files: []FileReport{}, Failures: []FileFailure{}}
	for _, o := range outcomes {
		switch {
		case o.report != nil:
			report.Files = append(report.Files, *o.report)
		case o.failure != nil:
			report.Failures = append(report.Failures, *o.failure)
		}
	}

	stats, err := l.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	report.TotalEdges = stats.EdgeCount
	report.TotalVariables = stats.VariableCount

	l.logger.Info("load finished",
		"files", len(report.Files),
		"failures", len(report.Failures),
		"variables", report.TotalVariables,
		"edges", report.TotalEdges,
	)
	return report, nil
}

// source is one file queued for extraction.
type source struct {
	path string // as opened
	rel  string // as recorded on edges
	lang graph.Language
}

// discover lists the files to extract. A single file is always a unit, even
// when its language is unknown, so the failure shows up in the report.
func (l *Loader) discover(root string, info fs.FileInfo) ([]source, error) {
	if !info.IsDir() {
		lang, _ := graph.LanguageForPath(root)
		return []source{{path: root, rel: filepath.Base(root), lang: lang}}, nil
	}

	var files []source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && l.exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		lang, ok := graph.LanguageForPath(path)
		if !ok || !l.langs[lang] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, source{path: path, rel: filepath.ToSlash(rel), lang: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b source) int { return cmp.Compare(a.rel, b.rel) })
	return files, nil
}

// parseFile extracts one file. Extraction problems become a failure entry
// and a nil result.
func (l *Loader) parseFile(ctx context.Context, f source) (outcome, *graph.ParseResult) {
	fail := func(err error) (outcome, *graph.ParseResult) {
		l.logger.Warn("file skipped", "file", f.rel, "err", err)
		l.emit(ProgressEvent{File: f.rel, Status: ProgressFailed, Message: err.Error()})
		return outcome{failure: &FileFailure{Path: f.rel, Error: err.Error()}}, nil
	}

	if f.lang == "" || !l.langs[f.lang] {
		return fail(&graph.ParseError{File: f.rel, Message: "unsupported file type"})
	}
	src, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(&graph.NotFoundError{Kind: "file", Name: f.rel})
	}
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", f.rel, err))
	}

	res, err := l.parser.Parse(ctx, f.rel, src, f.lang)
	if err != nil {
		return fail(err)
	}
	return outcome{report: &FileReport{
		Path:      f.rel,
		Language:  f.lang,
		Edges:     len(res.Edges),
		Variables: len(res.Variables),
	}}, res
}

// commit writes one file's result. Only store errors are returned.
func (l *Loader) commit(ctx context.Context, f source, res *graph.ParseResult) error {
	if err := l.store.UpsertVariables(ctx, res.Variables); err != nil {
		return fmt.Errorf("upsert %s: %w", f.rel, err)
	}
	if err := l.store.UpsertEdges(ctx, res.Edges); err != nil {
		return fmt.Errorf("upsert %s: %w", f.rel, err)
	}
	l.logger.Debug("file loaded", "file", f.rel, "edges", len(res.Edges), "variables", len(res.Variables))
	l.emit(ProgressEvent{File: f.rel, Status: ProgressComplete})
	return nil
}

func (l *Loader) emit(ev ProgressEvent) {
	if l.opts.OnProgress != nil {
		l.opts.OnProgress(ev)
	}
}
