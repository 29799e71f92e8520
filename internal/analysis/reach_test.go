package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/graph"
)

func pricingSnap(t *testing.T) *Snapshot {
	return snap(t, "total->sub_total", "sub_total->x", "x->base", "total->tax")
}

func TestDependenciesOf_Depths(t *testing.T) {
	r, err := DependenciesOf(pricingSnap(t), "total")
	require.NoError(t, err)

	assert.Equal(t, "total", r.Variable)
	assert.Equal(t, []string{"sub_total", "tax"}, r.Direct)
	assert.Equal(t, []string{"x", "base"}, r.Transitive)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, map[string]int{"sub_total": 1, "tax": 1, "x": 2, "base": 3}, r.Depths)
}

func TestImpactOf_Depths(t *testing.T) {
	r, err := ImpactOf(pricingSnap(t), "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"sub_total"}, r.Direct)
	assert.Equal(t, []string{"total"}, r.Transitive)
	assert.Equal(t, map[string]int{"sub_total": 1, "total": 2}, r.Depths)
}

func TestReach_ExcludesStartInsideCycle(t *testing.T) {
	s := snap(t, cycleEdges...)

	deps, err := DependenciesOf(s, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "z"}, deps.Direct)
	assert.Equal(t, []string{"bonus", "y"}, deps.Transitive)
	assert.NotContains(t, deps.Depths, "x")

	impact, err := ImpactOf(s, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, impact.Direct)
	assert.Equal(t, []string{"z"}, impact.Transitive)
	assert.NotContains(t, impact.Depths, "x")
}

func TestReach_ShortestDepthWins(t *testing.T) {
	r, err := DependenciesOf(snap(t, "a->b", "b->c", "a->c"), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, r.Direct)
	assert.Empty(t, r.Transitive)
}

func TestReach_LeafHasNoDependencies(t *testing.T) {
	r, err := DependenciesOf(pricingSnap(t), "base")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Total)
	assert.Equal(t, []string{}, r.Direct)
	assert.Equal(t, []string{}, r.Transitive)
}

func TestReach_UnknownVariable(t *testing.T) {
	_, err := ImpactOf(pricingSnap(t), "nope")
	require.Error(t, err)
	assert.True(t, graph.IsNotFound(err))

	_, err = DependenciesOf(pricingSnap(t), "nope")
	assert.True(t, graph.IsNotFound(err))
}

func TestReach_LevelsAcrossBranches(t *testing.T) {
	s := snap(t, "r->a1", "r->a2", "r->a3", "a1->b", "a3->c", "c->d", "b->d", "a2->a2")
	r, err := DependenciesOf(s, "r")
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2", "a3"}, r.Direct)
	assert.Equal(t, []string{"b", "c", "d"}, r.Transitive)
	assert.Equal(t, map[string]int{"a1": 1, "a2": 1, "a3": 1, "b": 2, "c": 2, "d": 3}, r.Depths)

	impact, err := ImpactOf(s, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, impact.Direct)
	assert.Equal(t, []string{"a1", "a3", "r"}, impact.Transitive)
}

func TestReach_SelfLoopIsNotADependency(t *testing.T) {
	r, err := DependenciesOf(snap(t, "a->a", "a->b"), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, r.Direct)
	assert.Equal(t, 1, r.Total)
}
