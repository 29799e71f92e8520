package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/vardeps/internal/graph"
)

func diamond(t *testing.T) *Snapshot {
	return snap(t, "a->b", "b->d", "a->c", "c->d", "a->d")
}

func TestFindPaths_ShortestFirst(t *testing.T) {
	res, err := FindPaths(diamond(t), "a", "d", PathOptions{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"a", "d"},
		{"a", "b", "d"},
		{"a", "c", "d"},
	}, res.Paths)
	assert.False(t, res.Truncated)
}

func TestFindPaths_Limit(t *testing.T) {
	res, err := FindPaths(diamond(t), "a", "d", PathOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "d"}, {"a", "b", "d"}}, res.Paths)
}

func TestFindPaths_SameNodeWithoutCycle(t *testing.T) {
	res, err := FindPaths(snap(t, "a->b"), "a", "a", PathOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{}, res.Paths)
	assert.False(t, res.Truncated)
}

func TestFindPaths_SelfLoop(t *testing.T) {
	res, err := FindPaths(snap(t, "a->a", "a->b"), "a", "a", PathOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "a"}}, res.Paths)
}

func TestFindPaths_AroundCycle(t *testing.T) {
	res, err := FindPaths(snap(t, cycleEdges...), "x", "x", PathOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "z", "y", "x"}}, res.Paths)
}

func TestFindPaths_NoRepeatedNodes(t *testing.T) {
	// y can reach bonus two ways, but only through x and z once each.
	res, err := FindPaths(snap(t, cycleEdges...), "y", "bonus", PathOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"y", "x", "z", "bonus"}}, res.Paths)
}

func TestFindPaths_Unreachable(t *testing.T) {
	res, err := FindPaths(diamond(t), "d", "a", PathOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.False(t, res.Truncated)
}

func TestFindPaths_DepthCapTruncates(t *testing.T) {
	s := snap(t, "a->b", "b->c", "c->d")

	res, err := FindPaths(s, "a", "d", PathOptions{MaxDepth: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.True(t, res.Truncated)

	res, err = FindPaths(diamond(t), "a", "d", PathOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "d"}}, res.Paths)
	assert.True(t, res.Truncated)
}

func TestFindPaths_StepBudget(t *testing.T) {
	res, err := FindPaths(snap(t, "a->b", "b->c"), "a", "c", PathOptions{MaxSteps: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.True(t, res.Truncated)
}

func TestFindPaths_UnknownEndpoint(t *testing.T) {
	_, err := FindPaths(diamond(t), "a", "zz", PathOptions{})
	assert.True(t, graph.IsNotFound(err))
	_, err = FindPaths(diamond(t), "zz", "a", PathOptions{})
	assert.True(t, graph.IsNotFound(err))
}
