package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewVarDepsMCPServer creates an MCP server with one tool per analysis command.
func NewVarDepsMCPServer(svc *VarDepsService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vardeps",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_graph",
		Description: "Extract variable dependencies from a file or directory and replace the current graph. Files that fail to parse are reported and skipped.",
	}, svc.LoadGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_cycles",
		Description: "Find every circular dependency: strongly connected groups of two or more variables, plus variables that read their own prior value. Each cycle comes with one concrete witness path.",
	}, svc.DetectCycles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "impact_of",
		Description: "List every variable that depends on the given variable, directly or transitively, with the shortest dependency depth for each.",
	}, svc.ImpactOf)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dependencies_of",
		Description: "List every variable the given variable needs, directly or transitively, with the shortest dependency depth for each.",
	}, svc.DependenciesOf)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_paths",
		Description: "Enumerate dependency paths between two variables, shortest first, bounded by a result limit and a maximum depth.",
	}, svc.FindPaths)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_metrics",
		Description: "Summarize the graph: variable and dependency counts, fan-in and fan-out leaderboards, roots, leaves, isolated variables, components and cycle count.",
	}, svc.GraphMetrics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unused_variables",
		Description: "List variables that no other variable reads.",
	}, svc.UnusedVariables)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "critical_path",
		Description: "Find the longest dependency chain from a root variable to a leaf. Approximate when the graph has cycles.",
	}, svc.CriticalPath)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_graph",
		Description: "Render the graph as JSON (nodes and edges), YAML or a Mermaid diagram.",
	}, svc.ExportGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quick_analysis",
		Description: "Run metrics, cycle detection and the critical path in one call.",
	}, svc.QuickAnalysis)

	return server
}

// RunMCPServer starts an HTTP server exposing the vardeps MCP tools.
func RunMCPServer(ctx context.Context, svc *VarDepsService, addr string) error {
	server := NewVarDepsMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *VarDepsService) error {
	return NewVarDepsMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
