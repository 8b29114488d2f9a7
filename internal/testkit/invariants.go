package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tslint/internal/ast"
)

// CheckTreeInvariants runs the structural invariants of a tree:
// 1) the root has no parent and spans lie within the source text
// 2) every child's parent points back to the node that lists it
// 3) every child span is contained in its parent span
// 4) every node is reachable exactly once from the root (acyclic, no sharing)
func CheckTreeInvariants(tree *ast.Tree) error {
	if tree == nil {
		return fmt.Errorf("nil tree")
	}
	root := tree.Root()
	if !root.Valid() {
		return fmt.Errorf("tree has no root")
	}
	if root.Parent().Valid() {
		return fmt.Errorf("root %s has a parent", root)
	}
	lenContent, err := safecast.Conv[uint32](len(tree.Source()))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	seen := make(map[ast.NodeID]bool, tree.Len())
	var check func(n ast.Node) error
	check = func(n ast.Node) error {
		if seen[n.ID()] {
			return fmt.Errorf("node %s reached twice", n)
		}
		seen[n.ID()] = true

		sp := n.Span()
		if sp.Start > sp.End || sp.End > lenContent {
			return fmt.Errorf("bad span %v for %s", sp, n)
		}
		if sp.File != tree.File {
			return fmt.Errorf("span file mismatch for %s: got=%d want=%d", n, sp.File, tree.File)
		}
		for _, child := range n.Children() {
			if child.Parent() != n {
				return fmt.Errorf("parent of %s is %s, want %s", child, child.Parent(), n)
			}
			if !sp.Contains(child.Span()) {
				return fmt.Errorf("child %s escapes parent %s", child, n)
			}
			if err := check(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(root); err != nil {
		return err
	}
	if len(seen) != tree.Len() {
		return fmt.Errorf("%d of %d nodes unreachable from root", tree.Len()-len(seen), tree.Len())
	}
	return nil
}
