package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// GuardOptions configures Guard.
type GuardOptions struct {
	Timeout    time.Duration // per attempt; 0 means 10s
	Retries    int           // extra attempts after a transient failure
	RetryDelay time.Duration // pause between attempts
	Logger     *slog.Logger
}

// Guard wraps a Store so every call is bounded by a timeout and retried on
// transient failure. Once retries are exhausted the call fails with
// *StoreUnavailableError. Errors that are not transient (bad Cypher, unknown
// variables) are returned after the first attempt.
type Guard struct {
	inner  Store
	opts   GuardOptions
	logger *slog.Logger
}

var _ Store = (*Guard)(nil)

// NewGuard wraps inner.
func NewGuard(inner Store, opts GuardOptions) *Guard {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{inner: inner, opts: opts, logger: logger}
}

// Unwrap returns the guarded store.
func (g *Guard) Unwrap() Store { return g.inner }

// Close closes the guarded store.
func (g *Guard) Close() error { return g.inner.Close() }

func (g *Guard) InitSchema(ctx context.Context) error {
	return g.do(ctx, "init schema", g.inner.InitSchema)
}

func (g *Guard) UpsertVariables(ctx context.Context, vars []Variable) error {
	return g.do(ctx, "upsert variables", func(ctx context.Context) error {
		return g.inner.UpsertVariables(ctx, vars)
	})
}

func (g *Guard) UpsertEdges(ctx context.Context, edges []Edge) error {
	return g.do(ctx, "upsert edges", func(ctx context.Context) error {
		return g.inner.UpsertEdges(ctx, edges)
	})
}

func (g *Guard) Clear(ctx context.Context) error {
	return g.do(ctx, "clear", g.inner.Clear)
}

func (g *Guard) AllVariables(ctx context.Context) ([]Variable, error) {
	return call(ctx, g, "all variables", g.inner.AllVariables)
}

func (g *Guard) AllEdges(ctx context.Context) ([]Edge, error) {
	return call(ctx, g, "all edges", g.inner.AllEdges)
}

func (g *Guard) Neighbors(ctx context.Context, name string, dir Direction) ([]string, error) {
	return call(ctx, g, "neighbors", func(ctx context.Context) ([]string, error) {
		return g.inner.Neighbors(ctx, name, dir)
	})
}

func (g *Guard) Stats(ctx context.Context) (*GraphStats, error) {
	return call(ctx, g, "stats", g.inner.Stats)
}

// Aggregator returns a guarded view of the inner store's aggregator.
func (g *Guard) Aggregator() (Aggregator, bool) {
	agg, ok := AggregatorOf(g.inner)
	if !ok {
		return nil, false
	}
	return guardedAggregator{g: g, agg: agg}, true
}

type guardedAggregator struct {
	g   *Guard
	agg Aggregator
}

func (a guardedAggregator) CountVariables(ctx context.Context) (int, error) {
	return call(ctx, a.g, "count variables", a.agg.CountVariables)
}

func (a guardedAggregator) CountEdges(ctx context.Context) (int, error) {
	return call(ctx, a.g, "count edges", a.agg.CountEdges)
}

func (a guardedAggregator) TopFanIn(ctx context.Context, k int) ([]Ranked, error) {
	return call(ctx, a.g, "top fan-in", func(ctx context.Context) ([]Ranked, error) {
		return a.agg.TopFanIn(ctx, k)
	})
}

func (a guardedAggregator) TopFanOut(ctx context.Context, k int) ([]Ranked, error) {
	return call(ctx, a.g, "top fan-out", func(ctx context.Context) ([]Ranked, error) {
		return a.agg.TopFanOut(ctx, k)
	})
}

func (g *Guard) do(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := call(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// call runs fn under the guard's timeout and retry policy.
func call[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := withTimeout(ctx, g.opts.Timeout, fn)
		if err == nil {
			return v, nil
		}
		if !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		g.logger.Warn("store call failed", "op", op, "attempt", attempt, "err", err)
		return v, err
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(g.opts.RetryDelay)),
		backoff.WithMaxTries(uint(g.opts.Retries+1)),
	)
	if err == nil {
		return v, nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if isTransient(err) {
		var unavailable *StoreUnavailableError
		if errors.As(err, &unavailable) {
			return v, &StoreUnavailableError{Op: op, Err: unavailable.Err}
		}
		return v, &StoreUnavailableError{Op: op, Err: err}
	}
	return v, err
}

// withTimeout runs fn with a deadline. The driver may ignore ctx (cgo calls
// do), so the deadline is enforced by abandoning the result channel.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	var unavailable *StoreUnavailableError
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &unavailable)
}
