package ast

import (
	"fmt"

	"tslint/internal/source"
)

// NodeID addresses a node inside its Tree (1-based, NoNodeID is absent).
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

type nodeData struct {
	kind   Kind
	span   source.Span
	parent NodeID
	op     string
	fields [][]NodeID // по одному слоту на поле схемы
}

// Tree is an immutable syntax tree of one file.
type Tree struct {
	File  source.FileID
	Path  string
	src   []byte
	nodes *Arena[nodeData]
	root  NodeID
}

// Root returns the root node (a Program).
func (t *Tree) Root() Node { return Node{tree: t, id: t.root} }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return int(t.nodes.Len()) }

// Source returns the text the tree was built from.
func (t *Tree) Source() []byte { return t.src }

// Node returns the handle for id; absent when id is out of range.
func (t *Tree) Node(id NodeID) Node {
	if t.nodes.Get(uint32(id)) == nil {
		return Node{}
	}
	return Node{tree: t, id: id}
}

// Builder assembles a Tree bottom-up. Parent links are written when a child
// is attached and cannot be changed afterwards.
type Builder struct {
	tree *Tree
}

// NewBuilder starts a tree for file with the given source text.
func NewBuilder(file source.FileID, path string, src []byte, capHint uint) *Builder {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Builder{tree: &Tree{
		File:  file,
		Path:  path,
		src:   src,
		nodes: NewArena[nodeData](capHint),
	}}
}

// New allocates a node of kind covering [start, end).
func (b *Builder) New(kind Kind, start, end uint32) NodeID {
	if !kind.Valid() {
		panic(fmt.Sprintf("ast: invalid kind %d", kind))
	}
	return NodeID(b.tree.nodes.Allocate(nodeData{
		kind:   kind,
		span:   source.Span{File: b.tree.File, Start: start, End: end},
		fields: make([][]NodeID, len(kind.Info().Fields)),
	}))
}

// SetOp stores the operator or payload tag of a node.
func (b *Builder) SetOp(id NodeID, op string) {
	b.data(id).op = op
}

// Set attaches child to a One/Opt field.
func (b *Builder) Set(id NodeID, field string, child NodeID) {
	if !child.IsValid() {
		return
	}
	n := b.data(id)
	idx := b.fieldIndex(n.kind, field)
	if n.kind.Info().Fields[idx].Shape == List {
		panic(fmt.Sprintf("ast: %s.%s is a list", n.kind, field))
	}
	if len(n.fields[idx]) != 0 {
		panic(fmt.Sprintf("ast: %s.%s already set", n.kind, field))
	}
	b.adopt(id, child)
	n.fields[idx] = []NodeID{child}
}

// Append adds child to the end of a List field.
func (b *Builder) Append(id NodeID, field string, child NodeID) {
	if !child.IsValid() {
		return
	}
	n := b.data(id)
	idx := b.fieldIndex(n.kind, field)
	if n.kind.Info().Fields[idx].Shape != List {
		panic(fmt.Sprintf("ast: %s.%s is not a list", n.kind, field))
	}
	b.adopt(id, child)
	n.fields[idx] = append(n.fields[idx], child)
}

// Finish seals the tree with root as its root node.
// Required fields left empty are reported as an error.
func (b *Builder) Finish(root NodeID) (*Tree, error) {
	t := b.tree
	if b.data(root).parent.IsValid() {
		return nil, fmt.Errorf("ast: root %d has a parent", root)
	}
	for _, n := range t.nodes.Slice() {
		for j, spec := range n.kind.Info().Fields {
			if spec.Shape == One && len(n.fields[j]) == 0 {
				return nil, fmt.Errorf("ast: %s at %s misses required field %q", n.kind, n.span, spec.Name)
			}
		}
	}
	t.root = root
	b.tree = nil
	return t, nil
}

func (b *Builder) data(id NodeID) *nodeData {
	if b.tree == nil {
		panic("ast: builder already finished")
	}
	n := b.tree.nodes.Get(uint32(id))
	if n == nil {
		panic(fmt.Sprintf("ast: unknown node %d", id))
	}
	return n
}

func (b *Builder) fieldIndex(kind Kind, field string) int {
	idx := kind.FieldIndex(field)
	if idx < 0 {
		panic(fmt.Sprintf("ast: %s has no field %q", kind, field))
	}
	return idx
}

func (b *Builder) adopt(parent, child NodeID) {
	if parent == child {
		panic("ast: node cannot be its own child")
	}
	c := b.data(child)
	if c.parent.IsValid() {
		panic(fmt.Sprintf("ast: %s already has a parent", c.kind))
	}
	c.parent = parent
}
