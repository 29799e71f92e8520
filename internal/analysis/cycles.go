package analysis

import (
	"slices"
	"strings"
)

// Cycle is one circular dependency. Members is the sorted node set; Witness
// is one concrete cycle v0, v1, ..., v0 through those nodes, starting at the
// smallest name. A self-loop is witnessed as [v].
type Cycle struct {
	Members  []string `json:"members"`
	Witness  []string `json:"witness"`
	SelfLoop bool     `json:"selfLoop,omitempty"`
}

// CycleOptions controls the optional witness search that runs after the
// strongly connected component pass.
type CycleOptions struct {
	// ExtraWitnesses enables a bounded DFS that reports additional simple
	// cycles inside components, each with a node set not already reported.
	ExtraWitnesses   bool
	MaxWitnessLength int // nodes per extra witness; default 8
	MaxWitnesses     int // extra witnesses in total; default 100
	MaxSteps         int // DFS expansions; default 100000
}

func (o CycleOptions) withDefaults() CycleOptions {
	if o.MaxWitnessLength <= 0 {
		o.MaxWitnessLength = 8
	}
	if o.MaxWitnesses <= 0 {
		o.MaxWitnesses = 100
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 100000
	}
	return o
}

// DetectCycles reports every strongly connected component with two or more
// members and every self-loop, one witness each. Detection is the SCC pass
// alone; the optional witness search only adds cycles with new node sets.
// Results are deduplicated by node set.
func DetectCycles(s *Snapshot, opts CycleOptions) []Cycle {
	opts = opts.withDefaults()
	seen := make(map[string]bool)
	var cycles []Cycle

	add := func(c Cycle) bool {
		key := strings.Join(c.Members, "\x00")
		if seen[key] {
			return false
		}
		seen[key] = true
		cycles = append(cycles, c)
		return true
	}

	for _, comp := range stronglyConnected(s) {
		if len(comp) < 2 {
			continue
		}
		slices.Sort(comp)
		add(Cycle{Members: s.namesOf(comp), Witness: s.namesOf(s.witness(comp))})
	}
	for v, loop := range s.selfLoop {
		if loop {
			add(Cycle{Members: []string{s.names[v]}, Witness: []string{s.names[v]}, SelfLoop: true})
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int { return slices.Compare(a.Members, b.Members) })

	if opts.ExtraWitnesses {
		found := 0
		s.searchWitnesses(opts, func(path []int) bool {
			members := slices.Clone(path)
			slices.Sort(members)
			c := Cycle{Members: s.namesOf(members), Witness: s.namesOf(append(slices.Clone(path), path[0]))}
			if add(c) {
				found++
			}
			return found < opts.MaxWitnesses
		})
	}
	return cycles
}

// stronglyConnected is Tarjan's algorithm driven by an explicit frame stack,
// so graph depth never grows the goroutine stack.
func stronglyConnected(s *Snapshot) [][]int {
	n := s.Len()
	index := make([]int, n) // 0 = unvisited, otherwise discovery order + 1
	low := make([]int, n)
	onStack := make([]bool, n)
	var stack []int
	var sccs [][]int
	next := 1

	type frame struct {
		v    int
		edge int // next position in s.out[v]
	}

	for root := 0; root < n; root++ {
		if index[root] != 0 {
			continue
		}
		index[root], low[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true
		work := []frame{{v: root}}

		for len(work) > 0 {
			f := &work[len(work)-1]
			v := f.v
			if f.edge < len(s.out[v]) {
				w := s.out[v][f.edge]
				f.edge++
				switch {
				case index[w] == 0:
					index[w], low[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, frame{v: w})
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}

			if low[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, comp)
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := work[len(work)-1].v
				low[p] = min(low[p], low[v])
			}
		}
	}
	return sccs
}

// witness returns the shortest cycle through the smallest member of comp,
// found by BFS restricted to comp. comp must be sorted and have at least two
// members. The path starts and ends at that member.
func (s *Snapshot) witness(comp []int) []int {
	start := comp[0]
	inComp := make(map[int]bool, len(comp))
	for _, v := range comp {
		inComp[v] = true
	}

	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range s.out[u] {
			if w == start && u != start {
				path := []int{start}
				var back []int
				for x := u; x != start; x = parent[x] {
					back = append(back, x)
				}
				slices.Reverse(back)
				path = append(path, back...)
				return append(path, start)
			}
			if !inComp[w] || w == u {
				continue
			}
			if _, ok := parent[w]; ok {
				continue
			}
			parent[w] = u
			queue = append(queue, w)
		}
	}
	// Unreachable for a genuine component.
	return []int{start, start}
}

// searchWitnesses walks outgoing edges from every node, stopping a branch
// when it revisits a node already on the path or reaches the length cap.
// A cycle is reported only from its smallest node, so rotations are not
// reported twice. emit returns false to stop the search.
func (s *Snapshot) searchWitnesses(opts CycleOptions, emit func(path []int) bool) {
	steps := 0
	onPath := make([]bool, s.Len())
	var path []int

	var dfs func(start, v int) bool
	dfs = func(start, v int) bool {
		steps++
		if steps > opts.MaxSteps {
			return false
		}
		path = append(path, v)
		onPath[v] = true
		defer func() {
			path = path[:len(path)-1]
			onPath[v] = false
		}()

		for _, w := range s.out[v] {
			if w == v {
				continue
			}
			if w == start && len(path) >= 2 {
				if !emit(path) {
					return false
				}
				continue
			}
			if w < start || onPath[w] || len(path) >= opts.MaxWitnessLength {
				continue
			}
			if !dfs(start, w) {
				return false
			}
		}
		return true
	}

	for start := 0; start < s.Len(); start++ {
		if !dfs(start, start) {
			return
		}
	}
}
