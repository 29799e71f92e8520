package graph

import (
	"context"
	"io"
)

// Store is the interface for the dependency graph backend.
// Implementations: KuzuStore (production), MemStore (testing and the memory
// backend). Guard wraps either with timeouts and a retry.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Both are idempotent. UpsertEdges keeps the Line and
	// File of the first write of each (From, To) pair and creates missing
	// endpoints; UpsertVariables merges definition lines.
	UpsertVariables(ctx context.Context, vars []Variable) error
	UpsertEdges(ctx context.Context, edges []Edge) error

	// Clear removes every node and edge.
	Clear(ctx context.Context) error

	// Read operations.
	AllVariables(ctx context.Context) ([]Variable, error)
	AllEdges(ctx context.Context) ([]Edge, error)
	Neighbors(ctx context.Context, name string, dir Direction) ([]string, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Aggregator is implemented by stores that can answer graph-wide counts and
// degree leaderboards themselves instead of having the engine scan a snapshot.
type Aggregator interface {
	CountVariables(ctx context.Context) (int, error)
	CountEdges(ctx context.Context) (int, error)
	// TopFanIn returns up to k variables by distinct incoming edges,
	// highest first, ties by ascending name. Zero counts are omitted.
	TopFanIn(ctx context.Context, k int) ([]Ranked, error)
	TopFanOut(ctx context.Context, k int) ([]Ranked, error)
}

// AggregatorOf returns the aggregator behind s, if it has one. Wrappers such
// as Guard expose their inner store's aggregator through an Aggregator method.
func AggregatorOf(s Store) (Aggregator, bool) {
	if w, ok := s.(interface{ Aggregator() (Aggregator, bool) }); ok {
		return w.Aggregator()
	}
	a, ok := s.(Aggregator)
	return a, ok
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this read?
	DirectionDownstream Direction = "downstream" // what reads this?
)
