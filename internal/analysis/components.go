package analysis

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/topo"
)

// Components groups variables into weakly connected components: two
// variables share a component when a chain of edges links them, ignoring
// direction. Groups are sorted internally and returned largest first, ties
// by first member.
func Components(s *Snapshot) [][]string {
	var groups [][]int
	for _, cc := range topo.ConnectedComponents(s.undirected) {
		ids := make([]int, len(cc))
		for i, n := range cc {
			ids[i] = int(n.ID())
		}
		slices.Sort(ids)
		groups = append(groups, ids)
	}

	slices.SortFunc(groups, func(a, b []int) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = s.namesOf(g)
	}
	return out
}
