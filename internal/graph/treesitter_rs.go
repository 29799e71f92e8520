package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsExtractor holds the Rust assignment rules: let bindings, plain and
// compound assignment, tuple destructuring. Paths (a::b) and closures are
// not reads; macro arguments are.
type rsExtractor struct{}

func (e *rsExtractor) assignments(node *tree_sitter.Node, source []byte) []assignment {
	switch node.Kind() {
	case "let_declaration":
		pattern := node.ChildByFieldName("pattern")
		if pattern == nil {
			return nil
		}
		value := node.ChildByFieldName("value")
		a := assignment{
			targets: rsTargets(pattern, source),
			value:   value,
			line:    lineOf(node),
		}
		if value != nil {
			a.values = rsSequence(value)
		}
		return []assignment{a}

	case "assignment_expression":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			return nil
		}
		return []assignment{{
			targets: rsTargets(left, source),
			values:  rsSequence(right),
			value:   right,
			line:    lineOf(node),
		}}

	case "compound_assignment_expr":
		left := node.ChildByFieldName("left")
		if left == nil {
			return nil
		}
		return []assignment{{
			targets:  rsTargets(left, source),
			value:    node.ChildByFieldName("right"),
			compound: true,
			line:     lineOf(node),
		}}
	}
	return nil
}

func rsTargets(left *tree_sitter.Node, source []byte) []targetSlot {
	switch left.Kind() {
	case "tuple_pattern", "tuple_expression":
		var slots []targetSlot
		for _, el := range namedChildren(left) {
			slot := targetSlot{splat: el.Kind() == "remaining_field_pattern"}
			rsBound(el, source, &slot.names)
			slots = append(slots, slot)
		}
		return slots
	}
	slot := targetSlot{}
	rsBound(left, source, &slot.names)
	return []targetSlot{slot}
}

// rsBound collects the names a pattern binds. Enum and struct paths in
// patterns are types, not bindings.
func rsBound(n *tree_sitter.Node, source []byte, out *[]nameRef) {
	switch n.Kind() {
	case "identifier", "shorthand_field_identifier":
		if name := n.Utf8Text(source); name != "_" {
			*out = append(*out, nameRef{name: name, line: lineOf(n)})
		}
	case "tuple_struct_pattern", "struct_pattern":
		children := namedChildren(n)
		if len(children) > 0 {
			children = children[1:]
		}
		for _, child := range children {
			rsBound(child, source, out)
		}
	case "scoped_identifier", "field_expression", "index_expression", "type_identifier":
	default:
		for _, child := range namedChildren(n) {
			rsBound(child, source, out)
		}
	}
}

func rsSequence(v *tree_sitter.Node) []*tree_sitter.Node {
	if v.Kind() != "tuple_expression" {
		return nil
	}
	return namedChildren(v)
}

func (e *rsExtractor) reads(n *tree_sitter.Node, source []byte, emit func(nameRef)) {
	switch n.Kind() {
	case "identifier":
		emit(nameRef{name: n.Utf8Text(source), line: lineOf(n)})
		return

	case "field_expression":
		if v := n.ChildByFieldName("value"); v != nil {
			e.reads(v, source, emit)
		}
		return

	case "macro_invocation":
		for _, child := range namedChildren(n) {
			if child.Kind() == "token_tree" {
				e.reads(child, source, emit)
			}
		}
		return

	case "scoped_identifier", "closure_expression", "type_arguments":
		return
	}

	for _, child := range namedChildren(n) {
		e.reads(child, source, emit)
	}
}
