// Package analysis answers structural questions about a committed variable
// dependency graph: cycles, reachability, paths, degree metrics and the
// critical path. All queries run against an immutable Snapshot, so they are
// safe to run concurrently.
package analysis

import (
	"context"
	"slices"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// Snapshot is an immutable, index-based view of the graph. Names are sorted,
// so iterating indices in order is iterating names in order, and every
// adjacency list is sorted and free of duplicates.
type Snapshot struct {
	names    []string
	index    map[string]int
	out      [][]int // v -> names v reads
	in       [][]int // v -> names that read v
	selfLoop []bool
	edges    []graph.Edge
	vars     []graph.Variable

	// gonum views keyed by index. They omit self-loops.
	forward    *simple.DirectedGraph
	reverse    *simple.DirectedGraph
	undirected *simple.UndirectedGraph
}

var _ graph.Aggregator = (*Snapshot)(nil)

// NewSnapshot builds a snapshot from a store dump. Edge endpoints missing
// from vars are added as variables; repeated (From, To) pairs keep the first.
func NewSnapshot(vars []graph.Variable, edges []graph.Edge) *Snapshot {
	lines := make(map[string][]int, len(vars))
	for _, v := range vars {
		lines[v.Name] = append(lines[v.Name], v.Lines...)
	}
	seen := make(map[graph.EdgeKey]bool, len(edges))
	kept := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		kept = append(kept, e)
		if _, ok := lines[e.From]; !ok {
			lines[e.From] = nil
		}
		if _, ok := lines[e.To]; !ok {
			lines[e.To] = nil
		}
	}

	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	slices.Sort(names)

	s := &Snapshot{
		names:    names,
		index:    make(map[string]int, len(names)),
		out:      make([][]int, len(names)),
		in:       make([][]int, len(names)),
		selfLoop: make([]bool, len(names)),
		edges:    kept,
		vars:     make([]graph.Variable, len(names)),

		forward:    simple.NewDirectedGraph(),
		reverse:    simple.NewDirectedGraph(),
		undirected: simple.NewUndirectedGraph(),
	}
	for i, name := range names {
		s.forward.AddNode(simple.Node(i))
		s.reverse.AddNode(simple.Node(i))
		s.undirected.AddNode(simple.Node(i))
		s.index[name] = i
		ls := slices.Clone(lines[name])
		slices.Sort(ls)
		s.vars[i] = graph.Variable{Name: name, Lines: slices.Compact(ls)}
	}
	for _, e := range kept {
		from, to := s.index[e.From], s.index[e.To]
		s.out[from] = append(s.out[from], to)
		s.in[to] = append(s.in[to], from)
		if from == to {
			s.selfLoop[from] = true
			continue
		}
		s.forward.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		s.reverse.SetEdge(simple.Edge{F: simple.Node(to), T: simple.Node(from)})
		s.undirected.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	for i := range names {
		slices.Sort(s.out[i])
		slices.Sort(s.in[i])
	}
	return s
}

// Len returns the number of variables.
func (s *Snapshot) Len() int { return len(s.names) }

// EdgeCount returns the number of distinct edges.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// Names returns every variable name, sorted.
func (s *Snapshot) Names() []string { return slices.Clone(s.names) }

// Has reports whether name is a variable in the snapshot.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Edges returns the distinct edges in load order.
func (s *Snapshot) Edges() []graph.Edge { return slices.Clone(s.edges) }

// Variables returns every variable, sorted by name.
func (s *Snapshot) Variables() []graph.Variable { return slices.Clone(s.vars) }

// InDegree is the number of distinct edges into name, self-loop included.
func (s *Snapshot) InDegree(name string) int {
	if i, ok := s.index[name]; ok {
		return len(s.in[i])
	}
	return 0
}

// OutDegree is the number of distinct edges out of name, self-loop included.
func (s *Snapshot) OutDegree(name string) int {
	if i, ok := s.index[name]; ok {
		return len(s.out[i])
	}
	return 0
}

func (s *Snapshot) lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, &graph.NotFoundError{Kind: "variable", Name: name}
	}
	return i, nil
}

func (s *Snapshot) namesOf(idx []int) []string {
	out := make([]string, len(idx))
	for i, v := range idx {
		out[i] = s.names[v]
	}
	return out
}

// ---------- graph.Aggregator ----------
// The snapshot answers aggregate sub-queries itself when the store cannot.

func (s *Snapshot) CountVariables(context.Context) (int, error) { return s.Len(), nil }

func (s *Snapshot) CountEdges(context.Context) (int, error) { return s.EdgeCount(), nil }

func (s *Snapshot) TopFanIn(_ context.Context, k int) ([]graph.Ranked, error) {
	return s.top(s.in, k), nil
}

func (s *Snapshot) TopFanOut(_ context.Context, k int) ([]graph.Ranked, error) {
	return s.top(s.out, k), nil
}

func (s *Snapshot) top(adj [][]int, k int) []graph.Ranked {
	counts := make(map[string]int, len(adj))
	for i, list := range adj {
		counts[s.names[i]] = len(list)
	}
	return graph.TopRanked(counts, k)
}
