//go:build e2e && cgo

package e2e

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/export"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
)

// fixtureDir returns the path to a directory under testdata/fixtures.
func fixtureDir(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

var fixtureSets = []string{"python", "golang", "rust", "typescript", "mixed"}

// loadInto runs the full pipeline (discover, extract, store, commit) and
// returns the READY engine.
func loadInto(t *testing.T, store graph.Store, dir string) (*analysis.Engine, *loader.Report) {
	t.Helper()

	parser := graph.NewTreeSitterParser()
	t.Cleanup(func() { parser.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine := analysis.NewEngine(store, analysis.Options{})
	var report *loader.Report
	err := engine.Reload(ctx, func(ctx context.Context, s graph.Store) error {
		var err error
		report, err = loader.New(parser, s, loader.Options{}).Load(ctx, dir)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, analysis.StateReady, engine.State())
	return engine, report
}

func openKuzu(t *testing.T, root string) graph.Store {
	t.Helper()
	store, err := graph.Open(context.Background(), graph.StoreConfig{
		Backend:  graph.BackendKuzu,
		Address:  root,
		Database: "e2e",
	})
	require.NoError(t, err)
	return store
}

func edgePairs(t *testing.T, e *analysis.Engine) map[graph.EdgeKey]bool {
	t.Helper()
	snap, err := e.Snapshot()
	require.NoError(t, err)
	set := make(map[graph.EdgeKey]bool)
	for _, edge := range snap.Edges() {
		set[graph.EdgeKey{From: edge.From, To: edge.To}] = true
	}
	return set
}

// TestPipeline_E2E_BackendsAgree loads every fixture set into the in-memory
// store and into Kuzu and checks that both produce the same analysis.
func TestPipeline_E2E_BackendsAgree(t *testing.T) {
	for _, name := range fixtureSets {
		t.Run(name, func(t *testing.T) {
			mem := graph.NewMemStore()
			defer mem.Close()
			kz := openKuzu(t, t.TempDir())
			defer kz.Close()

			memEngine, memReport := loadInto(t, mem, fixtureDir(name))
			kzEngine, kzReport := loadInto(t, kz, fixtureDir(name))

			assert.Equal(t, memReport.TotalEdges, kzReport.TotalEdges)
			assert.Equal(t, memReport.TotalVariables, kzReport.TotalVariables)
			assert.Equal(t, edgePairs(t, memEngine), edgePairs(t, kzEngine))

			memCycles, err := memEngine.Cycles()
			require.NoError(t, err)
			kzCycles, err := kzEngine.Cycles()
			require.NoError(t, err)
			assert.Equal(t, memCycles, kzCycles)

			ctx := context.Background()
			memMetrics, err := memEngine.Metrics(ctx)
			require.NoError(t, err)
			kzMetrics, err := kzEngine.Metrics(ctx)
			require.NoError(t, err)
			assert.Empty(t, kzMetrics.Failures)
			assert.Equal(t, memMetrics.TotalVariables, kzMetrics.TotalVariables)
			assert.Equal(t, memMetrics.TotalDependencies, kzMetrics.TotalDependencies)
			assert.Equal(t, memMetrics.Roots, kzMetrics.Roots)
			assert.Equal(t, memMetrics.Leaves, kzMetrics.Leaves)
			assert.Equal(t, memMetrics.Isolated, kzMetrics.Isolated)
		})
	}
}

// TestPipeline_E2E_PersistAndAttach closes a loaded Kuzu database, reopens
// it and attaches a fresh engine without reloading.
func TestPipeline_E2E_PersistAndAttach(t *testing.T) {
	root := t.TempDir()

	first := openKuzu(t, root)
	loaded, _ := loadInto(t, first, fixtureDir("mixed"))
	want := edgePairs(t, loaded)
	wantCycles, err := loaded.Cycles()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openKuzu(t, root)
	defer second.Close()
	engine := analysis.NewEngine(second, analysis.Options{})
	require.NoError(t, engine.Attach(context.Background()))

	assert.Equal(t, want, edgePairs(t, engine))
	gotCycles, err := engine.Cycles()
	require.NoError(t, err)
	assert.Equal(t, wantCycles, gotCycles)
}

// TestPipeline_E2E_ExportReimport exports the loaded graph, reads it back
// into a new store and checks that edges and cycles survive the trip.
func TestPipeline_E2E_ExportReimport(t *testing.T) {
	for _, format := range []export.Format{export.FormatJSON, export.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			engine, _ := loadInto(t, graph.NewMemStore(), fixtureDir("mixed"))
			snap, err := engine.Snapshot()
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, export.Write(&buf, export.Build(snap.Edges()), format))
			doc, err := export.Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, edgePairs(t, engine), doc.Pairs())

			ctx := context.Background()
			reimported := graph.NewMemStore()
			require.NoError(t, reimported.InitSchema(ctx))
			again := analysis.NewEngine(reimported, analysis.Options{})
			require.NoError(t, again.Reload(ctx, func(ctx context.Context, s graph.Store) error {
				return s.UpsertEdges(ctx, doc.GraphEdges())
			}))

			want, err := engine.Cycles()
			require.NoError(t, err)
			got, err := again.Cycles()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
