package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/graph"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "kuzu", cfg.Store.Backend)
	assert.Equal(t, ".vardeps", cfg.Store.Address)
	assert.Equal(t, "cycleanalysis", cfg.Store.Database)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 1, cfg.Store.Retries)
	assert.Equal(t, 4, cfg.Load.Workers)
	assert.Contains(t, cfg.Load.ExcludeDirs, "node_modules")
	assert.Equal(t, 20, cfg.Analysis.PathLimit)
	assert.Equal(t, 15, cfg.Analysis.PathMaxDepth)
	assert.Equal(t, 10, cfg.Analysis.LeaderboardSize)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "vardeps.yml", `
store:
  backend: memory
  timeout: 3s
  retries: 2
load:
  workers: 8
  languages: [python, go]
  exclude_dirs: [build]
analysis:
  path_limit: 5
  extra_witnesses: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 2, cfg.Store.Retries)
	assert.Equal(t, 8, cfg.Load.Workers)
	assert.Equal(t, []string{"build"}, cfg.Load.ExcludeDirs)
	assert.Equal(t, 5, cfg.Analysis.PathLimit)
	assert.True(t, cfg.Analysis.ExtraWitnesses)

	// Unset keys keep their defaults.
	assert.Equal(t, 15, cfg.Analysis.PathMaxDepth)
	assert.Equal(t, "cycleanalysis", cfg.Store.Database)

	langs, err := cfg.Languages()
	require.NoError(t, err)
	assert.Equal(t, []graph.Language{graph.LangPython, graph.LangGo}, langs)
}

func TestLoad_TOMLAndJSON(t *testing.T) {
	tomlPath := writeConfig(t, "vardeps.toml", "[analysis]\npath_max_depth = 4\n")
	cfg, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Analysis.PathMaxDepth)

	jsonPath := writeConfig(t, "vardeps.json", `{"load": {"workers": 2}}`)
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Load.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "vardeps.yml", "store:\n  address: from-file\n")
	t.Setenv("VARDEPS_STORE__ADDRESS", "from-env")
	t.Setenv("VARDEPS_ANALYSIS__LEADERBOARD_SIZE", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Store.Address)
	assert.Equal(t, 3, cfg.Analysis.LeaderboardSize)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "vardeps.yml", `
store:
  backend: postgres
load:
  workers: 0
  languages: [cobol]
log:
  format: xml
`)
	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "store.backend")
	assert.Contains(t, msg, "load.workers")
	assert.Contains(t, msg, "cobol")
	assert.Contains(t, msg, "log.format")
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Address = "/tmp/db"
	cfg.Load.Languages = []string{"ts"}
	cfg.Analysis.CriticalBudget = 7

	assert.Equal(t, graph.StoreConfig{Backend: "kuzu", Address: "/tmp/db", Database: "cycleanalysis"}, cfg.GraphStore())
	assert.Equal(t, 10*time.Second, cfg.Guard(nil).Timeout)

	lo := cfg.LoaderOptions(nil)
	assert.Equal(t, []graph.Language{graph.LangTypeScript}, lo.Languages)
	assert.Equal(t, 4, lo.Workers)

	eo := cfg.EngineOptions(nil)
	assert.Equal(t, 7, eo.Critical.Budget)
	assert.Equal(t, 20, eo.Paths.Limit)
	assert.Equal(t, 10, eo.Leaderboard)

	assert.False(t, cfg.HasCredentials())
	cfg.Store.Username = "neo"
	assert.True(t, cfg.HasCredentials())
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
