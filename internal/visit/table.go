// Package visit dispatches syntax nodes to per-kind handlers in a single traversal.
package visit

import (
	"fmt"

	"tslint/internal/ast"
	"tslint/internal/source"
)

// Phase selects when a handler runs relative to the node's children.
type Phase uint8

const (
	Enter Phase = iota
	Exit
)

func (p Phase) String() string {
	if p == Exit {
		return "exit"
	}
	return "enter"
}

// Handler is invoked for nodes of the kind it was registered for.
// A returned error aborts the traversal of the current file.
type Handler[C any] func(node ast.Node, ctx C) error

type entry[C any] struct {
	enter Handler[C]
	exit  Handler[C]
}

// Table maps every kind to optional enter/exit handlers.
// Build it once per rule instance and reuse it for every file.
type Table[C any] struct {
	entries [ast.KindCount]entry[C]
	kinds   int
}

// NewTable returns an empty table.
func NewTable[C any]() *Table[C] {
	return &Table[C]{}
}

// On registers fn for kind and phase. Registering the same slot twice runs
// both handlers in registration order.
func (t *Table[C]) On(kind ast.Kind, phase Phase, fn Handler[C]) *Table[C] {
	if !kind.Valid() {
		panic(fmt.Sprintf("visit: cannot register handler for %v", kind))
	}
	if fn == nil {
		return t
	}
	e := &t.entries[kind]
	if e.enter == nil && e.exit == nil {
		t.kinds++
	}
	slot := &e.enter
	if phase == Exit {
		slot = &e.exit
	}
	if prev := *slot; prev != nil {
		*slot = func(n ast.Node, ctx C) error {
			if err := prev(n, ctx); err != nil {
				return err
			}
			return fn(n, ctx)
		}
		return t
	}
	*slot = fn
	return t
}

// OnEnter is shorthand for On(kind, Enter, fn).
func (t *Table[C]) OnEnter(kind ast.Kind, fn Handler[C]) *Table[C] { return t.On(kind, Enter, fn) }

// OnExit is shorthand for On(kind, Exit, fn).
func (t *Table[C]) OnExit(kind ast.Kind, fn Handler[C]) *Table[C] { return t.On(kind, Exit, fn) }

// Has reports whether any handler is registered for kind.
func (t *Table[C]) Has(kind ast.Kind) bool {
	if int(kind) >= ast.KindCount {
		return false
	}
	e := t.entries[kind]
	return e.enter != nil || e.exit != nil
}

// Empty reports whether the table has no handlers at all.
func (t *Table[C]) Empty() bool { return t.kinds == 0 }

// TraversalError wraps a handler failure with the node it happened on.
type TraversalError struct {
	Kind  ast.Kind
	Phase Phase
	Span  source.Span
	Err   error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("%s handler for %s at %s: %v", e.Phase, e.Kind, e.Span, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }
