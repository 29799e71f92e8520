package graph

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readFixture reads a test fixture file relative to the project root.
// Tests run from internal/graph/, so the relative path is ../../testdata/...
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

// pairs renders edges as "from->to" in order.
func pairs(edges []Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.From + "->" + e.To
	}
	return out
}

// findEdge returns the edge from -> to, or nil.
func findEdge(edges []Edge, from, to string) *Edge {
	for i := range edges {
		if edges[i].From == from && edges[i].To == to {
			return &edges[i]
		}
	}
	return nil
}

// findVariable returns the variable with the given name, or nil.
func findVariable(vars []Variable, name string) *Variable {
	for i := range vars {
		if vars[i].Name == name {
			return &vars[i]
		}
	}
	return nil
}

func parseSource(t *testing.T, path string, src string, lang Language) *ParseResult {
	t.Helper()
	p := NewTreeSitterParser()
	t.Cleanup(func() { _ = p.Close() })
	res, err := p.Parse(context.Background(), path, []byte(src), lang)
	require.NoError(t, err)
	return res
}

func parseFixture(t *testing.T, relPath string, lang Language) *ParseResult {
	t.Helper()
	p := NewTreeSitterParser()
	t.Cleanup(func() { _ = p.Close() })
	res, err := p.Parse(context.Background(), relPath, readFixture(t, relPath), lang)
	require.NoError(t, err)
	return res
}

// ---------------------------------------------------------------------------
// Parser surface
// ---------------------------------------------------------------------------

func TestTreeSitterParser_SupportedLanguages(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()

	assert.Equal(t, SupportedLanguages, p.SupportedLanguages())
}

func TestTreeSitterParser_UnsupportedLanguage(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()

	_, err := p.Parse(context.Background(), "a.rb", []byte("a = b"), Language("ruby"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "a.rb", pe.File)
	assert.Contains(t, pe.Message, "unsupported language")
}

func TestTreeSitterParser_SyntaxError(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()

	path := "testdata/fixtures/python/broken.py"
	res, err := p.Parse(context.Background(), path, readFixture(t, path), LangPython)
	require.Error(t, err)
	assert.Nil(t, res, "a unit with a syntax error yields no partial result")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.File)
	assert.GreaterOrEqual(t, pe.Line, 2)
	assert.Contains(t, pe.Error(), "syntax error in "+path)
}

// ---------------------------------------------------------------------------
// Python
// ---------------------------------------------------------------------------

func TestPython_PricingFixture(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/python/pricing.py", LangPython)

	assert.Equal(t, LangPython, res.Language)
	assert.Len(t, res.Edges, 35)

	// The cycle.
	for _, p := range []string{"x->z", "x->base_rate", "y->x", "z->y", "z->bonus_factor"} {
		assert.Contains(t, pairs(res.Edges), p)
	}

	// Line of the referencing name, file of the unit.
	e := findEdge(res.Edges, "z", "bonus_factor")
	require.NotNil(t, e)
	assert.Equal(t, 9, e.Line)
	assert.Equal(t, "testdata/fixtures/python/pricing.py", e.File)

	// temp = 100 reads nothing but is still a definition.
	temp := findVariable(res.Variables, "temp")
	require.NotNil(t, temp)
	assert.Equal(t, []int{31}, temp.Lines)
	for _, e := range res.Edges {
		assert.NotEqual(t, "temp", e.From)
	}
}

func TestPython_CompoundAssignment(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/python/pricing.py", LangPython)

	loop := findEdge(res.Edges, "counter", "counter")
	require.NotNil(t, loop)
	assert.Equal(t, 20, loop.Line)
	assert.NotNil(t, findEdge(res.Edges, "counter", "base_rate"))

	// The self-loop comes before the edges to the names read.
	var order []string
	for _, e := range res.Edges {
		if e.From == "multiplier" {
			order = append(order, e.To)
		}
	}
	assert.Equal(t, []string{"multiplier", "bonus_factor"}, order)

	counter := findVariable(res.Variables, "counter")
	require.NotNil(t, counter)
	assert.Equal(t, []int{19, 20}, counter.Lines)
}

func TestPython_TupleUnpacking(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/python/pricing.py", LangPython)
	got := pairs(res.Edges)

	// Literal on both sides: positional.
	assert.Contains(t, got, "min_value->base_rate")
	assert.Contains(t, got, "max_value->total")
	assert.NotContains(t, got, "min_value->total")
	assert.NotContains(t, got, "max_value->base_rate")

	assert.Contains(t, got, "calc_x->x")
	assert.Contains(t, got, "calc_x->y")
	assert.Contains(t, got, "calc_y->z")
	assert.NotContains(t, got, "calc_y->x")

	// Single call on the right: every target reads every name.
	for _, target := range []string{"low", "high"} {
		for _, name := range []string{"bounds", "total", "tax_rate"} {
			assert.Contains(t, got, target+"->"+name)
		}
	}
}

func TestPython_DedupKeepsFirstLine(t *testing.T) {
	src := "a = b + b\n" +
		"a = b * 2\n"
	res := parseSource(t, "dup.py", src, LangPython)

	require.Len(t, res.Edges, 1)
	assert.Equal(t, Edge{From: "a", To: "b", Line: 1, File: "dup.py"}, res.Edges[0])

	a := findVariable(res.Variables, "a")
	require.NotNil(t, a)
	assert.Equal(t, []int{1, 2}, a.Lines)
}

func TestPython_ComprehensionFirstIterableIsOuterScope(t *testing.T) {
	src := "items = [x for x in x]\n" +
		"pairs = [y for y in rows for rows in y]\n"
	got := pairs(parseSource(t, "comp.py", src, LangPython).Edges)

	assert.Contains(t, got, "items->x")
	assert.Contains(t, got, "pairs->rows")
	// Later iterables see earlier targets.
	assert.NotContains(t, got, "pairs->y")
}

func TestPython_CallTargetsAndArgumentValuesAreReads(t *testing.T) {
	got := pairs(parseSource(t, "call.py", "k = f(a=b, *c, **d)\n", LangPython).Edges)
	assert.ElementsMatch(t, []string{"k->f", "k->b", "k->c", "k->d"}, got)
}

func TestPython_ShapesFixture(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/python/shapes.py", LangPython)
	got := pairs(res.Edges)

	expected := []string{
		"width->scale",                                    // annotated
		"height->depth", "width->depth",                   // chained
		"area->math", "area->width", "area->config",       // attribute objects only
		"squares->limits", "squares->floor",               // comprehension variable is local
		"pick->fallback", "pick->offset",                  // lambda parameters are local
		"opts->dict", "opts->area", "opts->mode_name",     // keyword names are not reads
		"first->values", "rest->values",                   // starred target pairs all-to-all
		"grown->amount", "grown->area",                    // nested scopes are still scanned
	}
	for _, p := range expected {
		assert.Contains(t, got, p)
	}

	for _, p := range []string{
		"width->float", "area->sqrt", "area->ratio", "squares->n",
		"pick->v", "pick->w", "opts->size", "opts->mode",
	} {
		assert.NotContains(t, got, p)
	}

	// Attribute targets bind nothing.
	for _, e := range res.Edges {
		assert.NotEqual(t, "shape", e.From)
		assert.NotEqual(t, "edge", e.From)
	}
}

// ---------------------------------------------------------------------------
// Go
// ---------------------------------------------------------------------------

func TestGo_CountersFixture(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/golang/counters.go", LangGo)
	got := pairs(res.Edges)

	for _, p := range []string{
		"limit->maxLimit", "step->baseStep", // var spec, positional
		"scale->factor",
		"item->items",                       // range clause
		"total->total", "total->item", "total->scale",
		"count->measure", "count->items", "count->limit",
		"err->measure", "err->items", "err->limit",
		"count->count",                      // count++
		"width->step", "height->total", "height->count",
		"cfg->label", "cfg->width",
		"ignored->total",                    // assignment inside a func literal
	} {
		assert.Contains(t, got, p)
	}

	for _, p := range []string{
		"limit->baseStep", "step->maxLimit", "width->total",
		"cfg->Name", "cfg->Size", "handler->ignored", "handler->total",
	} {
		assert.NotContains(t, got, p)
	}

	for _, e := range res.Edges {
		assert.NotEqual(t, "_", e.From, "blank identifier binds nothing")
	}

	loop := findEdge(res.Edges, "count", "count")
	require.NotNil(t, loop)
	assert.Equal(t, 14, loop.Line)
}

// ---------------------------------------------------------------------------
// TypeScript
// ---------------------------------------------------------------------------

func TestTypeScript_AppFixture(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/typescript/app.ts", LangTypeScript)
	got := pairs(res.Edges)

	for _, p := range []string{
		"base->seed",
		"first->base", "second->offset",
		"left->layout", "left->base", "right->layout", "right->base",
		"a->base", "a->shift", "b->base", "b->shift",
		"first->first", "first->second",
		"second->second",
		"total->first", "total->config",
		"view->total", "view->right",
	} {
		assert.Contains(t, got, p)
	}

	for _, p := range []string{
		"first->offset", "second->base", "a->b", "total->margin",
		"render->total", "render->hidden", "view->size",
	} {
		assert.NotContains(t, got, p)
	}
}

// ---------------------------------------------------------------------------
// Rust
// ---------------------------------------------------------------------------

func TestRust_MainFixture(t *testing.T) {
	res := parseFixture(t, "testdata/fixtures/rust/main.rs", LangRust)
	got := pairs(res.Edges)

	for _, p := range []string{
		"base->seed",
		"lo->base", "hi->limit",
		"acc->lo", "acc->hi", "acc->cap",
		"acc->acc", "acc->step",
		"found->lookup", "found->acc",
	} {
		assert.Contains(t, got, p)
	}

	for _, p := range []string{
		"lo->limit", "hi->base", "acc->std", "acc->max",
		"f->q", "f->hidden", "Some->lookup",
	} {
		assert.NotContains(t, got, p)
	}
}
