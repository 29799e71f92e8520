package mcptools

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/export"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
)

// VarDepsService holds the engine and parser used by MCP tool handlers.
type VarDepsService struct {
	engine   *analysis.Engine
	parser   graph.Parser
	loadOpts loader.Options
	paths    analysis.PathOptions
	logger   *slog.Logger
}

// NewVarDepsService creates a VarDepsService. loadOpts are the defaults for
// load_graph; per-call languages and excludes override them. paths are the
// defaults for find_paths.
func NewVarDepsService(engine *analysis.Engine, parser graph.Parser, loadOpts loader.Options, paths analysis.PathOptions, logger *slog.Logger) *VarDepsService {
	if logger == nil {
		logger = slog.Default()
	}
	loadOpts.Logger = logger
	loadOpts.OnProgress = func(ev loader.ProgressEvent) {
		logger.Debug(strings.TrimSpace(loader.FormatProgress(ev)))
	}
	return &VarDepsService{
		engine:   engine,
		parser:   parser,
		loadOpts: loadOpts,
		paths:    paths,
		logger:   logger,
	}
}

// LoadGraph clears the store and extracts a file or directory into it.
func (s *VarDepsService) LoadGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadGraphInput,
) (*mcp.CallToolResult, LoadGraphOutput, error) {
	if input.Path == "" {
		return nil, LoadGraphOutput{}, fmt.Errorf("path is required")
	}

	opts := s.loadOpts
	if len(input.Languages) > 0 {
		opts.Languages = nil
		for _, name := range input.Languages {
			l, ok := graph.ParseLanguage(name)
			if !ok {
				return nil, LoadGraphOutput{}, fmt.Errorf("unknown language %q", name)
			}
			opts.Languages = append(opts.Languages, l)
		}
	}
	if len(input.ExcludeDirs) > 0 {
		opts.ExcludeDirs = input.ExcludeDirs
	}

	var report *loader.Report
	err := s.engine.Reload(ctx, func(ctx context.Context, store graph.Store) error {
		var err error
		report, err = loader.New(s.parser, store, opts).Load(ctx, input.Path)
		return err
	})
	if err != nil {
		return nil, LoadGraphOutput{}, err
	}

	stats, err := s.engine.Store().Stats(ctx)
	if err != nil {
		return nil, LoadGraphOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, LoadGraphOutput{Report: *report, Stats: *stats}, nil
}

// DetectCycles reports every circular dependency.
func (s *VarDepsService) DetectCycles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, DetectCyclesOutput, error) {
	cycles, err := s.engine.Cycles()
	if err != nil {
		return nil, DetectCyclesOutput{}, err
	}
	if cycles == nil {
		cycles = []analysis.Cycle{}
	}
	return nil, DetectCyclesOutput{Cycles: cycles, Count: len(cycles)}, nil
}

// ImpactOf lists every variable that depends on the input variable.
func (s *VarDepsService) ImpactOf(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input VariableInput,
) (*mcp.CallToolResult, analysis.Reach, error) {
	r, err := s.engine.ImpactOf(input.Variable)
	return nil, r, err
}

// DependenciesOf lists every variable the input variable needs.
func (s *VarDepsService) DependenciesOf(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input VariableInput,
) (*mcp.CallToolResult, analysis.Reach, error) {
	r, err := s.engine.DependenciesOf(input.Variable)
	return nil, r, err
}

// FindPaths enumerates dependency paths between two variables.
func (s *VarDepsService) FindPaths(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindPathsInput,
) (*mcp.CallToolResult, analysis.PathResult, error) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		return nil, analysis.PathResult{}, err
	}
	opts := s.paths
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}
	if input.MaxDepth > 0 {
		opts.MaxDepth = input.MaxDepth
	}
	res, err := analysis.FindPaths(snap, input.From, input.To, opts)
	return nil, res, err
}

// GraphMetrics computes structural metrics.
func (s *VarDepsService) GraphMetrics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, analysis.Metrics, error) {
	m, err := s.engine.Metrics(ctx)
	return nil, m, err
}

// UnusedVariables lists variables nothing reads.
func (s *VarDepsService) UnusedVariables(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, UnusedVariablesOutput, error) {
	names, err := s.engine.NeverDependedOn()
	if err != nil {
		return nil, UnusedVariablesOutput{}, err
	}
	return nil, UnusedVariablesOutput{Variables: names, Count: len(names)}, nil
}

// CriticalPath finds the longest dependency chain.
func (s *VarDepsService) CriticalPath(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, analysis.CriticalPath, error) {
	cp, err := s.engine.CriticalPath()
	return nil, cp, err
}

// ExportGraph renders the committed graph as JSON, YAML or Mermaid.
func (s *VarDepsService) ExportGraph(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExportGraphInput,
) (*mcp.CallToolResult, ExportGraphOutput, error) {
	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return nil, ExportGraphOutput{}, err
	}
	snap, err := s.engine.Snapshot()
	if err != nil {
		return nil, ExportGraphOutput{}, err
	}
	content, err := Render(snap, format)
	if err != nil {
		return nil, ExportGraphOutput{}, err
	}
	return nil, ExportGraphOutput{Format: string(format), Content: content}, nil
}

// QuickAnalysis runs metrics, cycle detection and the critical path together.
func (s *VarDepsService) QuickAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, analysis.QuickReport, error) {
	report, err := s.engine.QuickAnalysis(ctx)
	if err != nil {
		return nil, analysis.QuickReport{}, err
	}
	if report.Cycles == nil {
		report.Cycles = []analysis.Cycle{}
	}
	return nil, *report, nil
}

// Render serializes a snapshot in the given export format.
func Render(snap *analysis.Snapshot, format export.Format) (string, error) {
	edges := snap.Edges()
	if format == export.FormatMermaid {
		return export.Mermaid(edges, analysis.DetectCycles(snap, analysis.CycleOptions{})), nil
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, export.Build(edges), format); err != nil {
		return "", err
	}
	return buf.String(), nil
}
