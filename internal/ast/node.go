package ast

import (
	"fmt"

	"tslint/internal/source"
)

// Node is a read-only handle to a node of a Tree. The zero Node is "absent".
// Handles are comparable and identify the node, not its contents.
type Node struct {
	tree *Tree
	id   NodeID
}

// FieldValue is one child field of a node in schema order.
// For One/Opt fields Node is set (or absent); for List fields Nodes holds the sequence.
type FieldValue struct {
	Name  string
	Shape Shape
	Node  Node
	Nodes []Node
}

func (n Node) data() *nodeData {
	if n.tree == nil {
		return nil
	}
	return n.tree.nodes.Get(uint32(n.id))
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool { return n.tree != nil && n.id.IsValid() }

func (n Node) ID() NodeID  { return n.id }
func (n Node) Tree() *Tree { return n.tree }

func (n Node) Kind() Kind {
	if d := n.data(); d != nil {
		return d.kind
	}
	return KindInvalid
}

func (n Node) Is(k Kind) bool { return n.Kind() == k }

func (n Node) Span() source.Span {
	if d := n.data(); d != nil {
		return d.span
	}
	return source.Span{}
}

// Op returns the operator / payload tag (see Kind comments).
func (n Node) Op() string {
	if d := n.data(); d != nil {
		return d.op
	}
	return ""
}

// Parent returns the syntactic parent; absent at the root.
func (n Node) Parent() Node {
	d := n.data()
	if d == nil || !d.parent.IsValid() {
		return Node{}
	}
	return Node{tree: n.tree, id: d.parent}
}

// Text returns the source slice covered by the node.
func (n Node) Text() string {
	d := n.data()
	if d == nil {
		return ""
	}
	src := n.tree.src
	start, end := int(d.span.Start), int(d.span.End)
	if end > len(src) || start > end {
		return ""
	}
	return string(src[start:end])
}

// Child returns the node stored in a One/Opt field, or absent.
func (n Node) Child(field string) Node {
	d := n.data()
	if d == nil {
		return Node{}
	}
	idx := d.kind.FieldIndex(field)
	if idx < 0 || len(d.fields[idx]) == 0 {
		return Node{}
	}
	return Node{tree: n.tree, id: d.fields[idx][0]}
}

// List returns the nodes stored in a field in order.
func (n Node) List(field string) []Node {
	d := n.data()
	if d == nil {
		return nil
	}
	idx := d.kind.FieldIndex(field)
	if idx < 0 {
		return nil
	}
	return n.wrap(d.fields[idx])
}

// Fields returns every field of the node in schema order.
func (n Node) Fields() []FieldValue {
	d := n.data()
	if d == nil {
		return nil
	}
	specs := d.kind.Info().Fields
	out := make([]FieldValue, len(specs))
	for i, spec := range specs {
		out[i] = FieldValue{Name: spec.Name, Shape: spec.Shape}
		if spec.Shape == List {
			out[i].Nodes = n.wrap(d.fields[i])
		} else if len(d.fields[i]) != 0 {
			out[i].Node = Node{tree: n.tree, id: d.fields[i][0]}
		}
	}
	return out
}

// Children returns all direct children in field order.
func (n Node) Children() []Node {
	d := n.data()
	if d == nil {
		return nil
	}
	var out []Node
	for _, slot := range d.fields {
		out = append(out, n.wrap(slot)...)
	}
	return out
}

// EachChild calls fn for every direct child in field order without allocating.
func (n Node) EachChild(fn func(Node) error) error {
	d := n.data()
	if d == nil {
		return nil
	}
	for _, slot := range d.fields {
		for _, id := range slot {
			if err := fn(Node{tree: n.tree, id: id}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ancestor returns the closest ancestor of kind k, or absent.
func (n Node) Ancestor(k Kind) Node {
	for p := n.Parent(); p.Valid(); p = p.Parent() {
		if p.Kind() == k {
			return p
		}
	}
	return Node{}
}

// Unwrap strips parenthesized expressions.
func (n Node) Unwrap() Node {
	for n.Kind() == KindParenthesizedExpression {
		n = n.Child("expression")
	}
	return n
}

func (n Node) String() string {
	if !n.Valid() {
		return "<absent>"
	}
	return fmt.Sprintf("%s@%d..%d", n.Kind(), n.Span().Start, n.Span().End)
}

func (n Node) wrap(ids []NodeID) []Node {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}
