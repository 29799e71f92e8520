package mcptools

import (
	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// LoadGraphInput is the input for the load_graph MCP tool.
type LoadGraphInput struct {
	Path        string   `json:"path" jsonschema:"file or directory to extract variable dependencies from"`
	Languages   []string `json:"languages,omitempty" jsonschema:"languages to extract (default: all). Values: python, go, typescript, rust"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"directory names to skip (default: .git, node_modules, vendor, __pycache__, .venv)"`
}

// LoadGraphOutput is the result of the load_graph MCP tool.
type LoadGraphOutput struct {
	Report loader.Report    `json:"report"`
	Stats  graph.GraphStats `json:"stats"`
}

// NoInput is the input for tools that take no arguments.
type NoInput struct{}

// DetectCyclesOutput is the result of the detect_cycles MCP tool.
type DetectCyclesOutput struct {
	Cycles []analysis.Cycle `json:"cycles"`
	Count  int              `json:"count"`
}

// VariableInput names one variable.
type VariableInput struct {
	Variable string `json:"variable" jsonschema:"variable name"`
}

// FindPathsInput is the input for the find_paths MCP tool.
type FindPathsInput struct {
	From     string `json:"from" jsonschema:"start variable"`
	To       string `json:"to" jsonschema:"target variable"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of paths (default from config: 20)"`
	MaxDepth int    `json:"maxDepth,omitempty" jsonschema:"maximum edges per path (default from config: 15)"`
}

// UnusedVariablesOutput is the result of the unused_variables MCP tool.
type UnusedVariablesOutput struct {
	Variables []string `json:"variables"`
	Count     int      `json:"count"`
}

// ExportGraphInput is the input for the export_graph MCP tool.
type ExportGraphInput struct {
	Format string `json:"format,omitempty" jsonschema:"json, yaml or mermaid (default: json)"`
}

// ExportGraphOutput is the result of the export_graph MCP tool.
type ExportGraphOutput struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}
