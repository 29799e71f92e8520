package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/vardeps/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// vardepsMCPEntry is the MCP server configuration for the vardeps binary.
var vardepsMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "vardeps",
  "args": ["serve-mcp"]
}`)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [project-root]",
		Short: "Write a starter vardeps.yml and register the MCP server in .mcp.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runInit(cmd.OutOrStdout(), root, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files and entries")
	return cmd
}

// runInit installs the default config and MCP configuration into the target
// project directory.
func runInit(w io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := writeDefaultConfig(w, abs, force); err != nil {
		return err
	}
	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nSetup complete. Run 'vardeps load .' to build the graph.")
	return nil
}

// writeDefaultConfig writes vardeps.yml with every default spelled out.
func writeDefaultConfig(w io.Writer, root string, force bool) error {
	dest := filepath.Join(root, "vardeps.yml")
	if !force {
		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(root, dest))
			return nil
		}
	}

	data, err := yaml.Marshal(configDocument(config.DefaultConfig()))
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	fmt.Fprintf(w, "  created %s\n", dotRelative(root, dest))
	return nil
}

// configDocument lays cfg out under the keys config.Load reads.
func configDocument(cfg *config.Config) map[string]any {
	return map[string]any{
		"store": map[string]any{
			"backend":  cfg.Store.Backend,
			"address":  cfg.Store.Address,
			"database": cfg.Store.Database,
			"timeout":  cfg.Store.Timeout.String(),
			"retries":  cfg.Store.Retries,
		},
		"load": map[string]any{
			"workers":      cfg.Load.Workers,
			"exclude_dirs": cfg.Load.ExcludeDirs,
		},
		"analysis": map[string]any{
			"path_limit":       cfg.Analysis.PathLimit,
			"path_max_depth":   cfg.Analysis.PathMaxDepth,
			"leaderboard_size": cfg.Analysis.LeaderboardSize,
			"critical_budget":  cfg.Analysis.CriticalBudget,
			"extra_witnesses":  cfg.Analysis.ExtraWitnesses,
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
	}
}

// mergeMCPConfig creates or merges the vardeps entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["vardeps"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json vardeps entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["vardeps"] = vardepsMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with vardeps MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
