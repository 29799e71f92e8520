package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/graph"
)

var sampleEdges = []graph.Edge{
	{From: "x", To: "z", Line: 7, File: "pricing.py"},
	{From: "x", To: "base", Line: 7, File: "pricing.py"},
	{From: "y", To: "x", Line: 8, File: "pricing.py"},
	{From: "z", To: "y", Line: 9, File: "pricing.py"},
	{From: "counter", To: "counter", Line: 20, File: "pricing.py"},
}

func TestBuild_NodeOrderAndDedup(t *testing.T) {
	g := Build(sampleEdges)

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
		assert.Equal(t, n.ID, n.Label)
	}
	assert.Equal(t, []string{"x", "z", "base", "y", "counter"}, ids)
	assert.Len(t, g.Edges, len(sampleEdges))
	assert.Equal(t, EdgeExport{Source: "x", Target: "z"}, g.Edges[0])
}

func TestBuild_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(nil), FormatJSON))
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, buf.String())
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			g := Build(sampleEdges)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, g, format))

			back, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, g.Pairs(), back.Pairs())
			assert.ElementsMatch(t, g.Nodes, back.Nodes)
		})
	}
}

func TestWrite_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleEdges[:1]), FormatJSON))
	assert.JSONEq(t, `{
		"nodes": [{"id": "x", "label": "x"}, {"id": "z", "label": "z"}],
		"edges": [{"source": "x", "target": "z"}]
	}`, buf.String())
}

func TestRead_RejectsDanglingEdge(t *testing.T) {
	doc := `{"nodes":[{"id":"a","label":"a"}],"edges":[{"source":"a","target":"b"}]}`
	_, err := Read(strings.NewReader(doc), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")
}

func TestGraphEdges(t *testing.T) {
	edges := Build(sampleEdges).GraphEdges()
	require.Len(t, edges, len(sampleEdges))
	assert.Equal(t, graph.Edge{From: "y", To: "x"}, edges[2])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"mermaid", FormatMermaid, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMermaid(t *testing.T) {
	s := analysis.NewSnapshot(nil, sampleEdges)
	out := Mermaid(sampleEdges, analysis.DetectCycles(s, analysis.CycleOptions{}))

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `  N0["x"]`)
	assert.Contains(t, out, "  N0 --> N1\n")
	assert.Contains(t, out, "  N4 --> N4\n", "self-loop")
	assert.Contains(t, out, "classDef cycle")
	// x, z, y and counter are on cycles; base is not.
	assert.Contains(t, out, "  class N0,N1,N3,N4 cycle\n")
}

func TestMermaid_Acyclic(t *testing.T) {
	out := Mermaid(sampleEdges[:2], nil)
	assert.NotContains(t, out, "classDef")
	assert.Equal(t, "graph LR\n  N0[\"x\"]\n  N1[\"z\"]\n  N2[\"base\"]\n  N0 --> N1\n  N0 --> N2\n", out)
}
