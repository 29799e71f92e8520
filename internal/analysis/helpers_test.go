package analysis

import (
	"strings"
	"testing"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// snap builds a snapshot from "from->to" pairs. Bare names become isolated
// variables.
func snap(t *testing.T, specs ...string) *Snapshot {
	t.Helper()
	var vars []graph.Variable
	var edges []graph.Edge
	for i, spec := range specs {
		from, to, ok := strings.Cut(spec, "->")
		if !ok {
			vars = append(vars, graph.Variable{Name: spec, Lines: []int{i + 1}})
			continue
		}
		edges = append(edges, graph.Edge{From: from, To: to, Line: i + 1, File: "t.py"})
	}
	return NewSnapshot(vars, edges)
}

// cycleEdges is the textbook cycle: x, y and z read each other in a loop and
// two of them also read a constant.
var cycleEdges = []string{"x->z", "x->base", "y->x", "z->y", "z->bonus"}
