package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// Format is an export serialization.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMermaid Format = "mermaid"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or mermaid)", s)
}

// GraphExport is the portable graph document.
type GraphExport struct {
	Nodes []NodeExport `json:"nodes" yaml:"nodes"`
	Edges []EdgeExport `json:"edges" yaml:"edges"`
}

// NodeExport is one variable. Label repeats the id for viewers that
// display labels.
type NodeExport struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// EdgeExport is one dependency: Source reads Target.
type EdgeExport struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Build converts an edge list. Nodes are listed once, in the order their
// name is first seen while scanning edges (From before To).
func Build(edges []graph.Edge) *GraphExport {
	g := &GraphExport{Nodes: []NodeExport{}, Edges: make([]EdgeExport, 0, len(edges))}
	seen := make(map[string]bool)
	addNode := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		g.Nodes = append(g.Nodes, NodeExport{ID: name, Label: name})
	}
	for _, e := range edges {
		addNode(e.From)
		addNode(e.To)
		g.Edges = append(g.Edges, EdgeExport{Source: e.From, Target: e.To})
	}
	return g
}

// Pairs returns the (from, to) edge set.
func (g *GraphExport) Pairs() map[graph.EdgeKey]bool {
	set := make(map[graph.EdgeKey]bool, len(g.Edges))
	for _, e := range g.Edges {
		set[graph.EdgeKey{From: e.Source, To: e.Target}] = true
	}
	return set
}

// GraphEdges reconstructs graph edges. Line and file metadata are not part of
// the export and come back empty.
func (g *GraphExport) GraphEdges() []graph.Edge {
	out := make([]graph.Edge, len(g.Edges))
	for i, e := range g.Edges {
		out[i] = graph.Edge{From: e.Source, To: e.Target}
	}
	return out
}

// Write serializes g as JSON (indented) or YAML.
func Write(w io.Writer, g *GraphExport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("write: unsupported format %q", format)
}

// Read parses a document produced by Write. Every edge endpoint must be a
// listed node.
func Read(r io.Reader, format Format) (*GraphExport, error) {
	var g GraphExport
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("read: unsupported format %q", format)
	}

	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			return nil, fmt.Errorf("edge %s -> %s references an unknown node", e.Source, e.Target)
		}
	}
	return &g, nil
}
