package analysis

import (
	"slices"

	"gonum.org/v1/gonum/graph/topo"
)

// CriticalOptions bounds the critical-path search on cyclic graphs.
type CriticalOptions struct {
	Budget int // DFS expansions; default 100000
}

// CriticalPath is the longest dependency chain from a root (nothing reads
// it) to a leaf (it reads nothing). Length counts edges and is at least 1
// when a path exists.
//
// On an acyclic graph the result is exact. When cycles are present the
// longest simple path is searched within the budget and Approximate is set;
// Exhausted additionally reports that the budget ran out.
type CriticalPath struct {
	Path        []string `json:"path"`
	Length      int      `json:"length"`
	Approximate bool     `json:"approximate,omitempty"`
	Exhausted   bool     `json:"exhausted,omitempty"`
}

// FindCriticalPath returns the critical path of s. Self-loops cannot lengthen
// a simple path, so they are ignored when testing for cycles. Among paths of
// equal length the lexicographically smallest wins.
func FindCriticalPath(s *Snapshot, opts CriticalOptions) CriticalPath {
	if opts.Budget <= 0 {
		opts.Budget = 100000
	}

	order, err := topo.Sort(s.forward)
	if err != nil {
		return s.longestSimplePath(opts.Budget)
	}

	topoOrder := make([]int, len(order))
	for i, n := range order {
		topoOrder[i] = int(n.ID())
	}
	return s.longestInDAG(topoOrder)
}

// longestInDAG runs the longest-path DP in reverse topological order.
// best[v] is the most edges from v to a leaf, or -1 when no leaf is reachable.
func (s *Snapshot) longestInDAG(order []int) CriticalPath {
	n := s.Len()
	best := make([]int, n)
	next := make([]int, n)
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		best[v], next[v] = -1, -1
		if len(s.out[v]) == 0 {
			best[v] = 0
			continue
		}
		for _, w := range s.out[v] {
			if w == v || best[w] < 0 {
				continue
			}
			// Neighbors are in name order, so the first maximum is the
			// lexicographically smallest continuation.
			if best[w]+1 > best[v] {
				best[v], next[v] = best[w]+1, w
			}
		}
	}

	start := -1
	for v := 0; v < n; v++ {
		if len(s.in[v]) != 0 || best[v] < 1 {
			continue
		}
		if start < 0 || best[v] > best[start] {
			start = v
		}
	}
	if start < 0 {
		return CriticalPath{Path: []string{}}
	}

	path := []int{start}
	for v := start; next[v] >= 0; v = next[v] {
		path = append(path, next[v])
	}
	return CriticalPath{Path: s.namesOf(path), Length: len(path) - 1}
}

// longestSimplePath searches simple root-to-leaf paths depth-first with an
// explicit stack, keeping the longest one seen. Nodes that cannot reach a
// leaf are pruned up front.
func (s *Snapshot) longestSimplePath(budget int) CriticalPath {
	n := s.Len()
	res := CriticalPath{Path: []string{}, Approximate: true}

	canFinish := make([]bool, n)
	var queue []int
	for v := 0; v < n; v++ {
		if len(s.out[v]) == 0 {
			canFinish[v] = true
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range s.in[u] {
			if !canFinish[w] {
				canFinish[w] = true
				queue = append(queue, w)
			}
		}
	}

	type frame struct {
		v    int
		edge int
	}
	onPath := make([]bool, n)
	var best []int
	steps := 0

	for root := 0; root < n; root++ {
		if len(s.in[root]) != 0 || len(s.out[root]) == 0 || !canFinish[root] {
			continue
		}
		path := []int{root}
		onPath[root] = true
		work := []frame{{v: root}}

		for len(work) > 0 {
			if steps >= budget {
				res.Exhausted = true
				break
			}
			steps++

			f := &work[len(work)-1]
			v := f.v
			if f.edge == 0 && len(s.out[v]) == 0 && len(path) > len(best) {
				best = slices.Clone(path)
			}
			if f.edge < len(s.out[v]) {
				w := s.out[v][f.edge]
				f.edge++
				if onPath[w] || !canFinish[w] {
					continue
				}
				onPath[w] = true
				path = append(path, w)
				work = append(work, frame{v: w})
				continue
			}
			onPath[v] = false
			path = path[:len(path)-1]
			work = work[:len(work)-1]
		}
		for _, v := range path {
			onPath[v] = false
		}
		if res.Exhausted {
			break
		}
	}

	if len(best) > 1 {
		res.Path = s.namesOf(best)
		res.Length = len(best) - 1
	}
	return res
}
