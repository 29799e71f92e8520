//go:build cgo

package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/analysis"
)

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := NewVarDepsMCPServer(newTestService(t))
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session
}

// callTool calls name and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any, out any) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error", name)
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"critical_path",
		"dependencies_of",
		"detect_cycles",
		"export_graph",
		"find_paths",
		"graph_metrics",
		"impact_of",
		"load_graph",
		"quick_analysis",
		"unused_variables",
	}, names)
}

func TestMCPQueryBeforeLoad(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "detect_cycles",
		Arguments: map[string]any{},
	})
	if err != nil {
		return
	}
	require.NotNil(t, result)
	assert.True(t, result.IsError, "queries before load_graph should fail")
}

func TestMCPLoadAndAnalyze(t *testing.T) {
	session := setupServerClient(t)

	var loaded LoadGraphOutput
	callTool(t, session, "load_graph", LoadGraphInput{Path: fixtureAbsPath(t, "mixed")}, &loaded)
	assert.Equal(t, 38, loaded.Stats.EdgeCount)
	assert.Len(t, loaded.Report.Failures, 1)

	var cycles DetectCyclesOutput
	callTool(t, session, "detect_cycles", map[string]any{}, &cycles)
	assert.Positive(t, cycles.Count)

	var deps analysis.Reach
	callTool(t, session, "dependencies_of", VariableInput{Variable: "sub_total"}, &deps)
	assert.Equal(t, []string{"x", "y", "z"}, deps.Direct)

	var metrics analysis.Metrics
	callTool(t, session, "graph_metrics", map[string]any{}, &metrics)
	assert.Equal(t, 38, metrics.TotalDependencies)
	assert.Contains(t, metrics.Isolated, "temp")

	var cp analysis.CriticalPath
	callTool(t, session, "critical_path", map[string]any{}, &cp)
	assert.NotEmpty(t, cp.Path)

	var exported ExportGraphOutput
	callTool(t, session, "export_graph", ExportGraphInput{Format: "yaml"}, &exported)
	assert.Contains(t, exported.Content, "nodes:")
}

func TestMCPCallUnknownTool(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})

	// The MCP SDK may return an error at the protocol level or set IsError on
	// the result. Accept either behavior.
	if err != nil {
		return
	}
	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
