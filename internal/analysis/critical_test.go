package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCriticalPath_Acyclic(t *testing.T) {
	cp := FindCriticalPath(pricingSnap(t), CriticalOptions{})

	assert.Equal(t, []string{"total", "sub_total", "x", "base"}, cp.Path)
	assert.Equal(t, 3, cp.Length)
	assert.False(t, cp.Approximate)
	assert.False(t, cp.Exhausted)
}

func TestFindCriticalPath_TiesPickSmallestName(t *testing.T) {
	cp := FindCriticalPath(snap(t, "r2->l", "r1->l", "r1->k"), CriticalOptions{})
	assert.Equal(t, []string{"r1", "k"}, cp.Path)
	assert.Equal(t, 1, cp.Length)
}

func TestFindCriticalPath_NoEdges(t *testing.T) {
	cp := FindCriticalPath(snap(t, "a", "b"), CriticalOptions{})
	assert.Equal(t, []string{}, cp.Path)
	assert.Zero(t, cp.Length)
}

func TestFindCriticalPath_CyclicIsApproximate(t *testing.T) {
	s := snap(t, append([]string{"total->x"}, cycleEdges...)...)
	cp := FindCriticalPath(s, CriticalOptions{})

	assert.Equal(t, []string{"total", "x", "z", "bonus"}, cp.Path)
	assert.Equal(t, 3, cp.Length)
	assert.True(t, cp.Approximate)
	assert.False(t, cp.Exhausted)
}

func TestFindCriticalPath_CyclicWithoutRoots(t *testing.T) {
	cp := FindCriticalPath(snap(t, cycleEdges...), CriticalOptions{})
	assert.Equal(t, []string{}, cp.Path)
	assert.True(t, cp.Approximate)
}

func TestFindCriticalPath_BudgetExhausted(t *testing.T) {
	s := snap(t, append([]string{"total->x"}, cycleEdges...)...)
	cp := FindCriticalPath(s, CriticalOptions{Budget: 2})

	assert.True(t, cp.Approximate)
	assert.True(t, cp.Exhausted)
	assert.Less(t, cp.Length, 3)
}
