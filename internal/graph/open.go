package graph

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendKuzu   = "kuzu"
	BackendMemory = "memory"
)

// StoreConfig selects and locates a graph store.
type StoreConfig struct {
	Backend  string // BackendKuzu or BackendMemory
	Address  string // database root directory, or ":memory:"
	Database string // logical database name under Address
}

// Path returns the on-disk location of the Kuzu database.
func (c StoreConfig) Path() string {
	if c.Address == ":memory:" {
		return c.Address
	}
	if c.Database == "" {
		return c.Address
	}
	return filepath.Join(c.Address, c.Database)
}

// Open creates the configured store and initializes its schema.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		s = NewMemStore()
	case BackendKuzu:
		s, err = openKuzuBackend(cfg.Path())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}
