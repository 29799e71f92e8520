// Package config loads vardeps settings from defaults, an optional config
// file and VARDEPS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: VARDEPS_STORE__ADDRESS sets store.address.
const EnvPrefix = "VARDEPS_"

// Config holds all vardeps settings.
type Config struct {
	Store    StoreConfig    `koanf:"store"`
	Load     LoadConfig     `koanf:"load"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Log      LogConfig      `koanf:"log"`
}

// StoreConfig selects and tunes the graph store.
type StoreConfig struct {
	Backend  string        `koanf:"backend"`  // kuzu or memory
	Address  string        `koanf:"address"`  // database root, or :memory:
	Database string        `koanf:"database"` // subdirectory under Address
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`
	Retries  int           `koanf:"retries"`
}

// LoadConfig controls extraction.
type LoadConfig struct {
	Workers     int      `koanf:"workers"`
	Languages   []string `koanf:"languages"`
	ExcludeDirs []string `koanf:"exclude_dirs"`
}

// AnalysisConfig bounds the analyses.
type AnalysisConfig struct {
	PathLimit       int  `koanf:"path_limit"`
	PathMaxDepth    int  `koanf:"path_max_depth"`
	LeaderboardSize int  `koanf:"leaderboard_size"`
	CriticalBudget  int  `koanf:"critical_budget"`
	ExtraWitnesses  bool `koanf:"extra_witnesses"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:  graph.BackendKuzu,
			Address:  ".vardeps",
			Database: "cycleanalysis",
			Timeout:  10 * time.Second,
			Retries:  1,
		},
		Load: LoadConfig{
			Workers:     4,
			ExcludeDirs: append([]string(nil), loader.DefaultExcludeDirs...),
		},
		Analysis: AnalysisConfig{
			PathLimit:       20,
			PathMaxDepth:    15,
			LeaderboardSize: 10,
			CriticalBudget:  100000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// configNames are searched in the working directory when no path is given.
var configNames = []string{
	"vardeps.yml",
	"vardeps.yaml",
	"vardeps.toml",
	"vardeps.json",
	".vardeps.yml",
	".vardeps.yaml",
}

// Load builds the config. path may be empty, in which case the standard
// names are searched in the working directory and a missing file is fine.
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile(".")
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func findConfigFile(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser()
	case ".json":
		return json.Parser()
	default:
		return yaml.Parser()
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case graph.BackendKuzu, graph.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Store.Backend == graph.BackendKuzu && c.Store.Address == "" {
		errs = append(errs, errors.New("store.address: required for the kuzu backend"))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("store.timeout: must be positive"))
	}
	if c.Store.Retries < 0 {
		errs = append(errs, errors.New("store.retries: must not be negative"))
	}
	if c.Load.Workers < 1 {
		errs = append(errs, errors.New("load.workers: must be at least 1"))
	}
	if _, err := c.Languages(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.PathLimit < 1 {
		errs = append(errs, errors.New("analysis.path_limit: must be at least 1"))
	}
	if c.Analysis.PathMaxDepth < 1 {
		errs = append(errs, errors.New("analysis.path_max_depth: must be at least 1"))
	}
	if c.Analysis.LeaderboardSize < 1 {
		errs = append(errs, errors.New("analysis.leaderboard_size: must be at least 1"))
	}
	if c.Analysis.CriticalBudget < 1 {
		errs = append(errs, errors.New("analysis.critical_budget: must be at least 1"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: want text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Languages returns load.languages as graph languages. Empty means all.
func (c *Config) Languages() ([]graph.Language, error) {
	var langs []graph.Language
	for _, s := range c.Load.Languages {
		l, ok := graph.ParseLanguage(s)
		if !ok {
			return nil, fmt.Errorf("load.languages: unknown language %q", s)
		}
		langs = append(langs, l)
	}
	return langs, nil
}

// GraphStore converts the store section for graph.Open.
func (c *Config) GraphStore() graph.StoreConfig {
	return graph.StoreConfig{
		Backend:  c.Store.Backend,
		Address:  c.Store.Address,
		Database: c.Store.Database,
	}
}

// Guard converts the store section for graph.NewGuard.
func (c *Config) Guard(logger *slog.Logger) graph.GuardOptions {
	return graph.GuardOptions{
		Timeout: c.Store.Timeout,
		Retries: c.Store.Retries,
		Logger:  logger,
	}
}

// LoaderOptions converts the load section. Languages were checked by
// Validate.
func (c *Config) LoaderOptions(logger *slog.Logger) loader.Options {
	langs, _ := c.Languages()
	return loader.Options{
		Workers:     c.Load.Workers,
		Languages:   langs,
		ExcludeDirs: c.Load.ExcludeDirs,
		Logger:      logger,
	}
}

// EngineOptions converts the analysis section.
func (c *Config) EngineOptions(logger *slog.Logger) analysis.Options {
	return analysis.Options{
		Paths: analysis.PathOptions{
			Limit:    c.Analysis.PathLimit,
			MaxDepth: c.Analysis.PathMaxDepth,
		},
		Cycles:      analysis.CycleOptions{ExtraWitnesses: c.Analysis.ExtraWitnesses},
		Critical:    analysis.CriticalOptions{Budget: c.Analysis.CriticalBudget},
		Leaderboard: c.Analysis.LeaderboardSize,
		Logger:      logger,
	}
}

// HasCredentials reports whether a username or password was configured.
// The embedded store has no authentication, so callers only warn.
func (c *Config) HasCredentials() bool {
	return c.Store.Username != "" || c.Store.Password != ""
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
