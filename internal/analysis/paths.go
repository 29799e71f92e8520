package analysis

import "slices"

// PathOptions bounds path enumeration.
type PathOptions struct {
	Limit    int // paths returned; default 20
	MaxDepth int // edges per path; default 15
	MaxSteps int // DFS expansions across all depths; default 200000
}

func (o PathOptions) withDefaults() PathOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 15
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 200000
	}
	return o
}

// PathResult lists simple paths ordered by edge count, then by name order.
// Truncated is set when the step budget or the depth cap stopped the search
// before every path within the limit was found.
type PathResult struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Paths     [][]string `json:"paths"`
	Truncated bool       `json:"truncated,omitempty"`
}

// FindPaths enumerates directed paths from -> to with no repeated node
// (except that a path from v to v returns to v at its end). Depths are
// searched one at a time, so shorter paths are always found first.
// An unreachable target yields an empty result, not an error.
func FindPaths(s *Snapshot, from, to string, opts PathOptions) (PathResult, error) {
	opts = opts.withDefaults()
	src, err := s.lookup(from)
	if err != nil {
		return PathResult{}, err
	}
	dst, err := s.lookup(to)
	if err != nil {
		return PathResult{}, err
	}

	res := PathResult{From: from, To: to, Paths: [][]string{}}
	distTo := s.distancesTo(dst)

	// A simple path has at most Len()-1 edges; a cycle back to the start
	// has at most Len().
	longest := s.Len() - 1
	if src == dst {
		longest = s.Len()
	}

	f := &pathFinder{
		s:      s,
		dst:    dst,
		distTo: distTo,
		onPath: make([]bool, s.Len()),
		steps:  opts.MaxSteps,
		limit:  opts.Limit,
	}
	f.onPath[src] = true
	f.path = []int{src}

	for depth := 1; depth <= min(opts.MaxDepth, longest); depth++ {
		f.depth = depth
		f.cut = false
		if !f.search(src) {
			break
		}
		if len(f.found) >= f.limit {
			break
		}
		if depth == opts.MaxDepth && f.cut {
			res.Truncated = true
		}
	}
	if f.steps <= 0 {
		res.Truncated = true
	}

	for _, p := range f.found {
		res.Paths = append(res.Paths, s.namesOf(p))
	}
	return res, nil
}

type pathFinder struct {
	s      *Snapshot
	dst    int
	distTo []int // -1 when dst is unreachable
	onPath []bool
	path   []int
	depth  int // exact edge count searched in this round
	steps  int
	limit  int
	found  [][]int
	cut    bool // a branch needed more edges than depth allows
}

// search extends f.path from v. It returns false when the search must stop
// (limit reached or budget spent).
func (f *pathFinder) search(v int) bool {
	f.steps--
	if f.steps < 0 {
		return false
	}
	used := len(f.path) - 1
	for _, w := range f.s.out[v] {
		if w == f.dst {
			if used+1 == f.depth {
				f.found = append(f.found, append(slices.Clone(f.path), w))
				if len(f.found) >= f.limit {
					return false
				}
			}
			continue
		}
		if f.onPath[w] || f.distTo[w] < 0 {
			continue
		}
		if used+1+f.distTo[w] > f.depth {
			f.cut = true
			continue
		}
		f.onPath[w] = true
		f.path = append(f.path, w)
		ok := f.search(w)
		f.path = f.path[:len(f.path)-1]
		f.onPath[w] = false
		if !ok {
			return false
		}
	}
	return true
}

// distancesTo returns, for every node, the fewest edges needed to reach dst,
// or -1 when dst is unreachable from it.
func (s *Snapshot) distancesTo(dst int) []int {
	dist := make([]int, s.Len())
	for i := range dist {
		dist[i] = -1
	}
	dist[dst] = 0
	queue := []int{dst}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range s.in[u] {
			if dist[w] >= 0 {
				continue
			}
			dist[w] = dist[u] + 1
			queue = append(queue, w)
		}
	}
	return dist
}
