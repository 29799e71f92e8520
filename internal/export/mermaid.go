package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/graph"
)

// Mermaid produces a Mermaid "graph LR" diagram. Each edge points from the
// reader to the variable it reads. Variables that sit on a cycle get the
// cycle class; self-loops are drawn as an arrow back to the same node.
func Mermaid(edges []graph.Edge, cycles []analysis.Cycle) string {
	// Mermaid IDs must be alphanumeric, so names are mapped to N0, N1, ...
	nodeIDs := make(map[string]string)
	var order []string
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[name] = id
		order = append(order, name)
		return id
	}

	var body strings.Builder
	for _, e := range edges {
		body.WriteString(fmt.Sprintf("  %s --> %s\n", getID(e.From), getID(e.To)))
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, name := range order {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", nodeIDs[name], escapeLabel(name)))
	}
	sb.WriteString(body.String())

	onCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, m := range c.Members {
			onCycle[m] = true
		}
	}
	var cyclic []string
	for _, name := range order {
		if onCycle[name] {
			cyclic = append(cyclic, nodeIDs[name])
		}
	}
	if len(cyclic) > 0 {
		sb.WriteString("  classDef cycle fill:#fdd,stroke:#c00,stroke-width:2px\n")
		sb.WriteString(fmt.Sprintf("  class %s cycle\n", strings.Join(cyclic, ",")))
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
