package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// State is the engine lifecycle: EMPTY -> LOADING -> READY -> LOADING ...
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures an Engine.
type Options struct {
	Paths       PathOptions
	Cycles      CycleOptions
	Critical    CriticalOptions
	Leaderboard int
	Logger      *slog.Logger
}

// Engine owns a store handle and the snapshot committed from it. Queries are
// answered only in READY; in EMPTY or LOADING they fail with
// *graph.NotReadyError. Once committed, a snapshot is never mutated, so
// queries may run concurrently with each other.
type Engine struct {
	store  graph.Store
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	snap  *Snapshot
}

// NewEngine returns an engine in the EMPTY state. The caller keeps
// ownership of store and closes it after the engine is done.
func NewEngine(store graph.Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, opts: opts, logger: logger}
}

// Store returns the engine's store handle.
func (e *Engine) Store() graph.Store { return e.store }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Reload clears the store, lets fill upsert a new graph, then commits a
// snapshot. A failure at any step leaves the engine EMPTY. A Reload issued
// while another is in progress fails with *graph.NotReadyError.
func (e *Engine) Reload(ctx context.Context, fill func(context.Context, graph.Store) error) error {
	if err := e.begin(); err != nil {
		return err
	}
	if err := e.store.Clear(ctx); err != nil {
		e.abort()
		return fmt.Errorf("clear store: %w", err)
	}
	if err := fill(ctx, e.store); err != nil {
		e.abort()
		return err
	}
	return e.commit(ctx)
}

// Attach commits whatever the store already holds, such as a database
// persisted by an earlier load.
func (e *Engine) Attach(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	return e.commit(ctx)
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateLoading {
		return &graph.NotReadyError{State: e.state.String()}
	}
	e.state = StateLoading
	e.snap = nil
	return nil
}

func (e *Engine) abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateEmpty
	e.snap = nil
}

// commit reads the full graph back from the store. A read failure is a
// query failure, never an empty graph.
func (e *Engine) commit(ctx context.Context) error {
	vars, err := e.store.AllVariables(ctx)
	if err != nil {
		e.abort()
		return &graph.QueryError{Query: "commit variables", Err: err}
	}
	edges, err := e.store.AllEdges(ctx)
	if err != nil {
		e.abort()
		return &graph.QueryError{Query: "commit edges", Err: err}
	}
	snap := NewSnapshot(vars, edges)

	e.mu.Lock()
	e.snap = snap
	e.state = StateReady
	e.mu.Unlock()

	e.logger.Info("graph committed", "variables", snap.Len(), "edges", snap.EdgeCount())
	return nil
}

// Snapshot returns the committed snapshot.
func (e *Engine) Snapshot() (*Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateReady || e.snap == nil {
		return nil, &graph.NotReadyError{State: e.state.String()}
	}
	return e.snap, nil
}

// Cycles detects every circular dependency.
func (e *Engine) Cycles() ([]Cycle, error) {
	s, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return DetectCycles(s, e.opts.Cycles), nil
}

// ImpactOf lists what depends on v.
func (e *Engine) ImpactOf(v string) (Reach, error) {
	s, err := e.Snapshot()
	if err != nil {
		return Reach{}, err
	}
	return ImpactOf(s, v)
}

// DependenciesOf lists what v depends on.
func (e *Engine) DependenciesOf(v string) (Reach, error) {
	s, err := e.Snapshot()
	if err != nil {
		return Reach{}, err
	}
	return DependenciesOf(s, v)
}

// Paths enumerates paths from -> to with the engine's bounds.
func (e *Engine) Paths(from, to string) (PathResult, error) {
	s, err := e.Snapshot()
	if err != nil {
		return PathResult{}, err
	}
	return FindPaths(s, from, to, e.opts.Paths)
}

// Metrics computes graph metrics. Counts and leaderboards are pushed down
// to the store when it can answer them.
func (e *Engine) Metrics(ctx context.Context) (Metrics, error) {
	s, err := e.Snapshot()
	if err != nil {
		return Metrics{}, err
	}
	var src graph.Aggregator
	if agg, ok := graph.AggregatorOf(e.store); ok {
		src = agg
	}
	m := ComputeMetrics(ctx, s, src, MetricsOptions{Leaderboard: e.opts.Leaderboard})
	for _, f := range m.Failures {
		e.logger.Warn("metric sub-query failed", "metric", f.Metric, "err", f.Error)
	}
	return m, nil
}

// NeverDependedOn lists variables nothing reads (roots, also reported as
// unused variables).
func (e *Engine) NeverDependedOn() ([]string, error) {
	s, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return NeverDependedOn(s), nil
}

// CriticalPath finds the longest root-to-leaf chain.
func (e *Engine) CriticalPath() (CriticalPath, error) {
	s, err := e.Snapshot()
	if err != nil {
		return CriticalPath{}, err
	}
	return FindCriticalPath(s, e.opts.Critical), nil
}

// QuickReport bundles the results of QuickAnalysis.
type QuickReport struct {
	Metrics      Metrics      `json:"metrics"`
	Cycles       []Cycle      `json:"cycles"`
	CriticalPath CriticalPath `json:"criticalPath"`
}

// QuickAnalysis runs metrics, cycle detection and the critical path
// concurrently against one snapshot.
func (e *Engine) QuickAnalysis(ctx context.Context) (*QuickReport, error) {
	s, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	var agg graph.Aggregator
	if a, ok := graph.AggregatorOf(e.store); ok {
		agg = a
	}

	report := &QuickReport{}
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		report.Metrics = ComputeMetrics(ctx, s, agg, MetricsOptions{Leaderboard: e.opts.Leaderboard})
		return nil
	})
	p.Go(func(context.Context) error {
		report.Cycles = DetectCycles(s, e.opts.Cycles)
		return nil
	})
	p.Go(func(context.Context) error {
		report.CriticalPath = FindCriticalPath(s, e.opts.Critical)
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
