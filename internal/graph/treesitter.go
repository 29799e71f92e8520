package graph

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extractor holds one language's assignment rules. The pairing of targets
// with values, self-loops and deduplication are shared and live in collector.
type extractor interface {
	// assignments decomposes node if it is an assignment-like statement.
	// A chained assignment yields one entry per target.
	assignments(node *tree_sitter.Node, source []byte) []assignment

	// reads reports every name read while evaluating node, in source order.
	reads(node *tree_sitter.Node, source []byte, emit func(nameRef))
}

// nameRef is one occurrence of a variable name.
type nameRef struct {
	name string
	line int
}

// targetSlot is one position on the left side of an assignment. A slot that
// binds no plain name (attribute, subscript, index) keeps its position so
// positional pairing stays aligned.
type targetSlot struct {
	names []nameRef
	splat bool // *rest, ...rest
}

// assignment is an assignment-like statement decomposed by a language.
type assignment struct {
	targets  []targetSlot
	values   []*tree_sitter.Node // elements when the right side is a literal sequence
	value    *tree_sitter.Node   // the whole right side; nil for x++ style statements
	compound bool                // reads the target's prior value
	line     int                 // statement line, used for the self-loop
}

// positional reports whether targets pair one-to-one with values.
func (a assignment) positional() bool {
	if len(a.values) == 0 || len(a.values) != len(a.targets) {
		return false
	}
	for _, t := range a.targets {
		if t.splat {
			return false
		}
	}
	return true
}

// TreeSitterParser implements the Parser interface using tree-sitter grammars.
// A new tree-sitter parser is created per Parse call, so concurrent Parse
// calls are safe.
type TreeSitterParser struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with Python, Go, TypeScript
// and Rust grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	extractors := map[Language]extractor{
		LangGo:         &goExtractor{},
		LangTypeScript: &tsExtractor{},
		LangPython:     &pyExtractor{},
		LangRust:       &rsExtractor{},
	}

	return &TreeSitterParser{
		languages:  langs,
		extractors: extractors,
	}
}

// Parse extracts the dependency edges of a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, path string, source []byte, lang Language) (*ParseResult, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, &ParseError{File: path, Message: fmt.Sprintf("unsupported language %q", lang)}
	}
	ext := p.extractors[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{File: path, Message: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, path)
	}

	c := newCollector(path)
	cursor := root.Walk()
	defer cursor.Close()
	c.walk(cursor, ext, source)

	return &ParseResult{
		File:      path,
		Language:  lang,
		Edges:     c.edges,
		Variables: c.vars,
	}, nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for _, l := range SupportedLanguages {
		if _, ok := p.languages[l]; ok {
			langs = append(langs, l)
		}
	}
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// ---------- Collection ----------

// collector accumulates deduplicated edges and definitions for one file.
type collector struct {
	file   string
	edges  []Edge
	seen   map[EdgeKey]bool
	vars   []Variable
	varIdx map[string]int
}

func newCollector(file string) *collector {
	return &collector{
		file:   file,
		seen:   make(map[EdgeKey]bool),
		varIdx: make(map[string]int),
	}
}

func (c *collector) walk(cursor *tree_sitter.TreeCursor, ext extractor, source []byte) {
	node := cursor.Node()
	for _, a := range ext.assignments(node, source) {
		c.add(a, ext, source)
	}

	if cursor.GotoFirstChild() {
		c.walk(cursor, ext, source)
		for cursor.GotoNextSibling() {
			c.walk(cursor, ext, source)
		}
		cursor.GotoParent()
	}
}

// add turns one assignment into edges. The self-loop of a compound
// assignment is emitted before the edges to the names it reads.
func (c *collector) add(a assignment, ext extractor, source []byte) {
	for _, slot := range a.targets {
		for _, n := range slot.names {
			c.define(n)
		}
	}

	if a.compound {
		for _, slot := range a.targets {
			for _, n := range slot.names {
				c.edge(n.name, nameRef{name: n.name, line: a.line})
			}
		}
	}

	if a.positional() {
		for i, slot := range a.targets {
			reads := collectReads(ext, a.values[i], source)
			for _, n := range slot.names {
				for _, r := range reads {
					c.edge(n.name, r)
				}
			}
		}
		return
	}

	if a.value == nil {
		return
	}
	reads := collectReads(ext, a.value, source)
	for _, slot := range a.targets {
		for _, n := range slot.names {
			for _, r := range reads {
				c.edge(n.name, r)
			}
		}
	}
}

// edge records from -> to unless the pair was already seen in this file.
func (c *collector) edge(from string, to nameRef) {
	k := EdgeKey{From: from, To: to.name}
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	c.edges = append(c.edges, Edge{From: from, To: to.name, Line: to.line, File: c.file})
}

func (c *collector) define(n nameRef) {
	i, ok := c.varIdx[n.name]
	if !ok {
		c.varIdx[n.name] = len(c.vars)
		c.vars = append(c.vars, Variable{Name: n.name, Lines: []int{n.line}})
		return
	}
	c.vars[i].Lines = mergeLines(c.vars[i].Lines, []int{n.line})
}

func collectReads(ext extractor, node *tree_sitter.Node, source []byte) []nameRef {
	if node == nil {
		return nil
	}
	var out []nameRef
	ext.reads(node, source, func(r nameRef) { out = append(out, r) })
	return out
}

// ---------- Node helpers ----------

// lineOf returns the 1-based line a node starts on.
func lineOf(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// parentKind returns the kind of n's parent, or "".
func parentKind(n *tree_sitter.Node) string {
	if p := n.Parent(); p != nil {
		return p.Kind()
	}
	return ""
}

// syntaxError builds a ParseError located at the first ERROR or MISSING node.
func syntaxError(root *tree_sitter.Node, source []byte, path string) *ParseError {
	bad := firstErrorNode(root)
	if bad == nil {
		return &ParseError{File: path, Line: lineOf(root), Message: "invalid syntax"}
	}
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Kind())
	} else if text := bad.Utf8Text(source); text != "" {
		msg = fmt.Sprintf("unexpected %q", firstLine(text))
	}
	return &ParseError{File: path, Line: lineOf(bad), Message: msg}
}

func firstErrorNode(n *tree_sitter.Node) *tree_sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}

func firstLine(s string) string {
	const maxLen = 40
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
