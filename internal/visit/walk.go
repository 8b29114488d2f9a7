package visit

import (
	"tslint/internal/ast"
)

// Walk visits every node under root exactly once in document order:
// the enter handler, then the children in field order, then the exit handler.
// Only child edges are followed; parent links are never used.
// The first handler error stops the walk and is returned as *TraversalError.
func Walk[C any](root ast.Node, table *Table[C], ctx C) error {
	if !root.Valid() || table == nil || table.Empty() {
		return nil
	}
	w := walker[C]{table: table, ctx: ctx}
	return w.visit(root)
}

type walker[C any] struct {
	table *Table[C]
	ctx   C
}

func (w *walker[C]) visit(n ast.Node) error {
	e := &w.table.entries[n.Kind()]
	if e.enter != nil {
		if err := e.enter(n, w.ctx); err != nil {
			return wrap(n, Enter, err)
		}
	}
	if err := n.EachChild(w.visit); err != nil {
		return err
	}
	if e.exit != nil {
		if err := e.exit(n, w.ctx); err != nil {
			return wrap(n, Exit, err)
		}
	}
	return nil
}

func wrap(n ast.Node, phase Phase, err error) error {
	return &TraversalError{Kind: n.Kind(), Phase: phase, Span: n.Span(), Err: err}
}

// Count returns the number of nodes under root; useful for progress and trace.
func Count(root ast.Node) int {
	if !root.Valid() {
		return 0
	}
	total := 1
	_ = root.EachChild(func(c ast.Node) error {
		total += Count(c)
		return nil
	})
	return total
}
