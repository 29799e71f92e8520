package graph

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Compile-time assertions: *MemStore satisfies Store and Aggregator.
var (
	_ Store      = (*MemStore)(nil)
	_ Aggregator = (*MemStore)(nil)
)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
// Upserts of the same (From, To) pair from concurrent callers merge under
// the write lock, so the first writer's metadata always wins.
type MemStore struct {
	mu        sync.RWMutex
	vars      map[string][]int // name -> definition lines
	edges     map[EdgeKey]Edge
	edgeOrder []EdgeKey // insertion order of edges
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		vars:  make(map[string][]int),
		edges: make(map[EdgeKey]Edge),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// UpsertVariables creates missing variables and merges definition lines
// into existing ones.
func (m *MemStore) UpsertVariables(_ context.Context, vars []Variable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vars {
		m.vars[v.Name] = mergeLines(m.vars[v.Name], v.Lines)
	}
	return nil
}

// UpsertEdges inserts edges not seen before. Endpoints are created as needed.
// An existing (From, To) pair keeps its original Line and File.
func (m *MemStore) UpsertEdges(_ context.Context, edges []Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.ensureVar(e.From)
		m.ensureVar(e.To)
		k := e.Key()
		if _, ok := m.edges[k]; ok {
			continue
		}
		m.edges[k] = e
		m.edgeOrder = append(m.edgeOrder, k)
	}
	return nil
}

// ensureVar registers name with no definition lines if it is unknown.
// Caller must hold the write lock.
func (m *MemStore) ensureVar(name string) {
	if _, ok := m.vars[name]; !ok {
		m.vars[name] = nil
	}
}

// Clear drops all variables and edges.
func (m *MemStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars = make(map[string][]int)
	m.edges = make(map[EdgeKey]Edge)
	m.edgeOrder = nil
	return nil
}

// AllVariables returns every variable sorted by name.
func (m *MemStore) AllVariables(_ context.Context) ([]Variable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Variable, 0, len(m.vars))
	for name, lines := range m.vars {
		out = append(out, Variable{Name: name, Lines: slices.Clone(lines)})
	}
	slices.SortFunc(out, func(a, b Variable) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// AllEdges returns every edge in insertion order.
func (m *MemStore) AllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, 0, len(m.edgeOrder))
	for _, k := range m.edgeOrder {
		out = append(out, m.edges[k])
	}
	return out, nil
}

// Neighbors returns the names adjacent to name in the given direction,
// sorted. Upstream follows edges forward (what name reads), downstream
// follows them backward (what reads name).
func (m *MemStore) Neighbors(_ context.Context, name string, dir Direction) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.vars[name]; !ok {
		return nil, &NotFoundError{Kind: "variable", Name: name}
	}
	set := make(map[string]bool)
	for _, k := range m.edgeOrder {
		switch {
		case dir == DirectionUpstream && k.From == name:
			set[k.To] = true
		case dir == DirectionDownstream && k.To == name:
			set[k.From] = true
		}
	}
	return setToSlice(set), nil
}

// Stats returns counts of variables, edges and self-loops.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{
		VariableCount: len(m.vars),
		EdgeCount:     len(m.edges),
	}
	for k := range m.edges {
		if k.From == k.To {
			stats.SelfLoopCount++
		}
	}
	return stats, nil
}

// ---------- Aggregator ----------

// CountVariables returns the number of variables.
func (m *MemStore) CountVariables(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vars), nil
}

// CountEdges returns the number of distinct edges.
func (m *MemStore) CountEdges(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges), nil
}

// TopFanIn returns the k variables with the most incoming edges.
func (m *MemStore) TopFanIn(_ context.Context, k int) ([]Ranked, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for key := range m.edges {
		counts[key.To]++
	}
	return TopRanked(counts, k), nil
}

// TopFanOut returns the k variables with the most outgoing edges.
func (m *MemStore) TopFanOut(_ context.Context, k int) ([]Ranked, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for key := range m.edges {
		counts[key.From]++
	}
	return TopRanked(counts, k), nil
}

// TopRanked orders counts by descending count then ascending name and keeps
// the first k entries. Zero counts are dropped. k <= 0 keeps all.
func TopRanked(counts map[string]int, k int) []Ranked {
	out := make([]Ranked, 0, len(counts))
	for name, c := range counts {
		if c > 0 {
			out = append(out, Ranked{Name: name, Count: c})
		}
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// setToSlice converts a string set to a sorted slice.
func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
