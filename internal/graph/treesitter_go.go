package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor holds the Go assignment rules: :=, =, op=, var and const
// specs, range clauses, and ++/-- as self-loops. The blank identifier binds
// nothing. Function literals are not evaluated by their enclosing assignment,
// so their bodies are not reads; assignments inside them are still found by
// the tree walk.
type goExtractor struct{}

func (e *goExtractor) assignments(node *tree_sitter.Node, source []byte) []assignment {
	switch node.Kind() {
	case "short_var_declaration", "range_clause":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			return nil
		}
		a := assignment{
			targets: goTargets(namedChildren(left), source),
			value:   right,
			line:    lineOf(node),
		}
		if node.Kind() == "short_var_declaration" {
			a.values = namedChildren(right)
		}
		return []assignment{a}

	case "assignment_statement":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			return nil
		}
		a := assignment{
			targets: goTargets(namedChildren(left), source),
			values:  namedChildren(right),
			value:   right,
			line:    lineOf(node),
		}
		if op := node.ChildByFieldName("operator"); op != nil && op.Utf8Text(source) != "=" {
			a.compound = true
		}
		return []assignment{a}

	case "var_spec", "const_spec":
		var names []*tree_sitter.Node
		for _, child := range namedChildren(node) {
			if child.Kind() == "identifier" {
				names = append(names, child)
			}
		}
		value := node.ChildByFieldName("value")
		a := assignment{
			targets: goTargets(names, source),
			value:   value,
			line:    lineOf(node),
		}
		if value != nil {
			a.values = namedChildren(value)
		}
		return []assignment{a}

	case "inc_statement", "dec_statement":
		children := namedChildren(node)
		if len(children) == 0 {
			return nil
		}
		return []assignment{{
			targets:  goTargets(children[:1], source),
			compound: true,
			line:     lineOf(node),
		}}
	}
	return nil
}

// goTargets maps each left-hand expression to a slot. Only plain
// identifiers other than _ bind a variable.
func goTargets(exprs []*tree_sitter.Node, source []byte) []targetSlot {
	slots := make([]targetSlot, 0, len(exprs))
	for _, x := range exprs {
		slot := targetSlot{}
		if x.Kind() == "identifier" {
			if name := x.Utf8Text(source); name != "_" {
				slot.names = []nameRef{{name: name, line: lineOf(x)}}
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func (e *goExtractor) reads(n *tree_sitter.Node, source []byte, emit func(nameRef)) {
	switch n.Kind() {
	case "identifier":
		emit(nameRef{name: n.Utf8Text(source), line: lineOf(n)})
		return

	case "selector_expression":
		if operand := n.ChildByFieldName("operand"); operand != nil {
			e.reads(operand, source, emit)
		}
		return

	case "keyed_element":
		// Struct field keys are names of fields, not variables.
		if v := n.ChildByFieldName("value"); v != nil {
			e.reads(v, source, emit)
			return
		}
		if children := namedChildren(n); len(children) > 0 {
			e.reads(children[len(children)-1], source, emit)
		}
		return

	case "func_literal":
		return
	}

	for _, child := range namedChildren(n) {
		e.reads(child, source, emit)
	}
}
