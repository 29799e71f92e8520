package analysis

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Reach is the result of an impact or dependency query. Depth is the
// number of edges on the shortest path between Variable and each name.
type Reach struct {
	Variable   string         `json:"variable"`
	Direct     []string       `json:"direct"`     // depth 1
	Transitive []string       `json:"transitive"` // depth > 1
	Total      int            `json:"total"`
	Depths     map[string]int `json:"depths"`
}

// ImpactOf returns every variable that depends on v, directly or through
// other variables. v itself is never part of the result.
func ImpactOf(s *Snapshot, v string) (Reach, error) {
	start, err := s.lookup(v)
	if err != nil {
		return Reach{}, err
	}
	return s.reach(start, s.reverse), nil
}

// DependenciesOf returns every variable v needs, directly or transitively.
// v itself is never part of the result.
func DependenciesOf(s *Snapshot, v string) (Reach, error) {
	start, err := s.lookup(v)
	if err != nil {
		return Reach{}, err
	}
	return s.reach(start, s.forward), nil
}

// reach walks g breadth-first from start. Walk reports each node with its
// level, which is the shortest-path depth. Lists are ordered by depth then
// name.
func (s *Snapshot) reach(start int, g *simple.DirectedGraph) Reach {
	dist := make(map[int]int)
	var order []int
	var bf traverse.BreadthFirst
	bf.Walk(g, simple.Node(start), func(n gonum.Node, depth int) bool {
		if depth > 0 {
			id := int(n.ID())
			dist[id] = depth
			order = append(order, id)
		}
		return false
	})

	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(dist[a], dist[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	r := Reach{
		Variable:   s.names[start],
		Direct:     []string{},
		Transitive: []string{},
		Total:      len(order),
		Depths:     make(map[string]int, len(order)),
	}
	for _, w := range order {
		name := s.names[w]
		r.Depths[name] = dist[w]
		if dist[w] == 1 {
			r.Direct = append(r.Direct, name)
		} else {
			r.Transitive = append(r.Transitive, name)
		}
	}
	return r
}
