package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor holds the TypeScript assignment rules. Array destructuring
// against an array literal pairs positionally; object destructuring pairs
// all-to-all. Function and arrow expressions are values, not reads.
type tsExtractor struct{}

func (e *tsExtractor) assignments(node *tree_sitter.Node, source []byte) []assignment {
	switch node.Kind() {
	case "variable_declarator":
		name := node.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		value := node.ChildByFieldName("value")
		if value == nil {
			// let x; defines without reading.
			return []assignment{{targets: tsTargets(name, source), line: lineOf(node)}}
		}
		return e.chain(name, value, source)

	case "assignment_expression":
		switch parentKind(node) {
		case "assignment_expression", "variable_declarator":
			return nil
		}
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			return nil
		}
		return e.chain(left, right, source)

	case "augmented_assignment_expression":
		left := node.ChildByFieldName("left")
		if left == nil {
			return nil
		}
		return []assignment{{
			targets:  tsTargets(left, source),
			value:    node.ChildByFieldName("right"),
			compound: true,
			line:     lineOf(node),
		}}

	case "update_expression":
		arg := node.ChildByFieldName("argument")
		if arg == nil {
			return nil
		}
		return []assignment{{
			targets:  tsTargets(arg, source),
			compound: true,
			line:     lineOf(node),
		}}
	}
	return nil
}

// chain unrolls `first = a = b = value` into one assignment per target.
func (e *tsExtractor) chain(first, value *tree_sitter.Node, source []byte) []assignment {
	lefts := []*tree_sitter.Node{first}
	for value.Kind() == "assignment_expression" {
		left := value.ChildByFieldName("left")
		right := value.ChildByFieldName("right")
		if left == nil || right == nil {
			break
		}
		lefts = append(lefts, left)
		value = right
	}

	values := tsSequence(value)
	out := make([]assignment, 0, len(lefts))
	for _, l := range lefts {
		out = append(out, assignment{
			targets: tsTargets(l, source),
			values:  values,
			value:   value,
			line:    lineOf(l),
		})
	}
	return out
}

func tsTargets(left *tree_sitter.Node, source []byte) []targetSlot {
	if left.Kind() == "array_pattern" {
		var slots []targetSlot
		for _, el := range namedChildren(left) {
			slot := targetSlot{splat: el.Kind() == "rest_pattern"}
			tsBound(el, source, &slot.names)
			slots = append(slots, slot)
		}
		return slots
	}
	slot := targetSlot{}
	tsBound(left, source, &slot.names)
	return []targetSlot{slot}
}

// tsBound collects the names a pattern binds. Defaults and property keys are
// not bindings; member and subscript targets bind no variable.
func tsBound(n *tree_sitter.Node, source []byte, out *[]nameRef) {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		*out = append(*out, nameRef{name: n.Utf8Text(source), line: lineOf(n)})
	case "assignment_pattern", "object_assignment_pattern":
		if l := n.ChildByFieldName("left"); l != nil {
			tsBound(l, source, out)
		}
	case "pair_pattern":
		if v := n.ChildByFieldName("value"); v != nil {
			tsBound(v, source, out)
		}
	case "member_expression", "subscript_expression", "type_annotation":
	default:
		for _, child := range namedChildren(n) {
			tsBound(child, source, out)
		}
	}
}

func tsSequence(v *tree_sitter.Node) []*tree_sitter.Node {
	if v.Kind() != "array" {
		return nil
	}
	elems := namedChildren(v)
	for _, el := range elems {
		if el.Kind() == "spread_element" {
			return nil
		}
	}
	return elems
}

func (e *tsExtractor) reads(n *tree_sitter.Node, source []byte, emit func(nameRef)) {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier":
		emit(nameRef{name: n.Utf8Text(source), line: lineOf(n)})
		return

	case "member_expression":
		if obj := n.ChildByFieldName("object"); obj != nil {
			e.reads(obj, source, emit)
		}
		return

	case "pair":
		if v := n.ChildByFieldName("value"); v != nil {
			e.reads(v, source, emit)
		}
		return

	case "arrow_function", "function_expression", "function", "class",
		"type_annotation", "type_arguments":
		return

	case "as_expression", "satisfies_expression":
		if children := namedChildren(n); len(children) > 0 {
			e.reads(children[0], source, emit)
		}
		return
	}

	for _, child := range namedChildren(n) {
		e.reads(child, source, emit)
	}
}
