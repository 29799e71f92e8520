package graph

import (
	"maps"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor holds the Python assignment rules.
//
//	x = a + b          x reads a, b
//	x, y = a, b        positional: x reads a, y reads b
//	x, y = f(a)        all-to-all: x and y read f, a
//	x += a             x reads x (self-loop), x reads a
//	x = y = a          x and y both read a
//	x: int = a         x reads a; the annotation is not read
type pyExtractor struct{}

func (e *pyExtractor) assignments(node *tree_sitter.Node, source []byte) []assignment {
	switch node.Kind() {
	case "assignment":
		// Inner links of a chain are handled by the outermost assignment.
		if parentKind(node) == "assignment" {
			return nil
		}
		return e.chain(node, source)

	case "augmented_assignment":
		left := node.ChildByFieldName("left")
		if left == nil {
			return nil
		}
		return []assignment{{
			targets:  []targetSlot{pySlot(left, source)},
			value:    node.ChildByFieldName("right"),
			compound: true,
			line:     lineOf(node),
		}}
	}
	return nil
}

// chain unrolls a = b = value into one assignment per target.
func (e *pyExtractor) chain(node *tree_sitter.Node, source []byte) []assignment {
	var lefts []*tree_sitter.Node
	cur := node
	for cur != nil && cur.Kind() == "assignment" {
		if l := cur.ChildByFieldName("left"); l != nil {
			lefts = append(lefts, l)
		}
		cur = cur.ChildByFieldName("right")
	}
	if cur == nil {
		// Bare annotation such as `x: int` assigns nothing.
		return nil
	}

	values := pySequence(cur)
	out := make([]assignment, 0, len(lefts))
	for _, l := range lefts {
		out = append(out, assignment{
			targets: pyTargets(l, source),
			values:  values,
			value:   cur,
			line:    lineOf(l),
		})
	}
	return out
}

// pyTargets splits a left-hand side into positional slots.
func pyTargets(left *tree_sitter.Node, source []byte) []targetSlot {
	switch left.Kind() {
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list":
		var slots []targetSlot
		for _, child := range namedChildren(left) {
			slots = append(slots, pySlot(child, source))
		}
		return slots
	}
	return []targetSlot{pySlot(left, source)}
}

func pySlot(n *tree_sitter.Node, source []byte) targetSlot {
	slot := targetSlot{}
	switch n.Kind() {
	case "list_splat_pattern", "list_splat":
		slot.splat = true
	}
	pyBound(n, source, &slot.names)
	return slot
}

// pyBound collects the plain names bound by a target. Attribute and
// subscript targets bind no variable.
func pyBound(n *tree_sitter.Node, source []byte, out *[]nameRef) {
	switch n.Kind() {
	case "identifier":
		*out = append(*out, nameRef{name: n.Utf8Text(source), line: lineOf(n)})
	case "attribute", "subscript":
	default:
		for _, child := range namedChildren(n) {
			pyBound(child, source, out)
		}
	}
}

// pySequence returns the elements of a literal sequence, or nil when the
// value is not one or contains an unpacking whose arity is unknown.
func pySequence(v *tree_sitter.Node) []*tree_sitter.Node {
	switch v.Kind() {
	case "expression_list", "tuple", "list":
	default:
		return nil
	}
	elems := namedChildren(v)
	for _, el := range elems {
		if el.Kind() == "list_splat" || el.Kind() == "dictionary_splat" {
			return nil
		}
	}
	return elems
}

func (e *pyExtractor) reads(node *tree_sitter.Node, source []byte, emit func(nameRef)) {
	e.visit(node, source, nil, emit)
}

// visit walks an expression. bound holds names introduced inside the
// expression itself (lambda parameters, comprehension variables), which are
// not reads of outer variables.
func (e *pyExtractor) visit(n *tree_sitter.Node, source []byte, bound map[string]bool, emit func(nameRef)) {
	switch n.Kind() {
	case "identifier":
		name := n.Utf8Text(source)
		if !bound[name] {
			emit(nameRef{name: name, line: lineOf(n)})
		}
		return

	case "attribute":
		if obj := n.ChildByFieldName("object"); obj != nil {
			e.visit(obj, source, bound, emit)
		}
		return

	case "keyword_argument", "named_expression":
		if v := n.ChildByFieldName("value"); v != nil {
			e.visit(v, source, bound, emit)
		}
		return

	case "lambda":
		inner := maps.Clone(bound)
		if inner == nil {
			inner = make(map[string]bool)
		}
		if params := n.ChildByFieldName("parameters"); params != nil {
			for _, p := range namedChildren(params) {
				var names []nameRef
				if p.Kind() == "default_parameter" || p.Kind() == "typed_default_parameter" {
					if name := p.ChildByFieldName("name"); name != nil {
						pyBound(name, source, &names)
					}
					if v := p.ChildByFieldName("value"); v != nil {
						e.visit(v, source, bound, emit)
					}
				} else {
					pyBound(p, source, &names)
				}
				for _, nr := range names {
					inner[nr.name] = true
				}
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			e.visit(body, source, inner, emit)
		}
		return

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		inner := maps.Clone(bound)
		if inner == nil {
			inner = make(map[string]bool)
		}
		children := namedChildren(n)
		for _, c := range children {
			if c.Kind() != "for_in_clause" {
				continue
			}
			if left := c.ChildByFieldName("left"); left != nil {
				var names []nameRef
				pyBound(left, source, &names)
				for _, nr := range names {
					inner[nr.name] = true
				}
			}
		}
		// The first iterable is evaluated in the enclosing scope.
		first := true
		for _, c := range children {
			if c.Kind() == "for_in_clause" {
				scope := inner
				if first {
					scope, first = bound, false
				}
				if right := c.ChildByFieldName("right"); right != nil {
					e.visit(right, source, scope, emit)
				}
				continue
			}
			e.visit(c, source, inner, emit)
		}
		return
	}

	for _, child := range namedChildren(n) {
		e.visit(child, source, bound, emit)
	}
}
