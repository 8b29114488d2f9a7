// Package sema provides the semantic model queried by rules.
// The lint core never calls it directly; rules do, through their context.
package sema

import (
	"errors"

	"tslint/internal/ast"
	"tslint/internal/types"
)

// ErrForeignNode is returned for nodes that are not part of the program.
var ErrForeignNode = errors.New("sema: node does not belong to the program")

// Model answers type questions about nodes. Implementations must be safe
// for concurrent use.
type Model interface {
	TypeOf(node ast.Node) (types.Type, error)
	DeclarationOf(ident ast.Node) (ast.Node, bool)
}
