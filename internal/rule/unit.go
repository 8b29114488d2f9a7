package rule

import (
	"tslint/internal/ast"
	"tslint/internal/compare"
	"tslint/internal/sema"
	"tslint/internal/source"
)

// Unit is one analysis run: the files, their trees in input order, the
// semantic model over all of them and the run-scoped comparator.
type Unit struct {
	Files   *source.FileSet
	Trees   []*ast.Tree
	Model   sema.Model
	Compare *compare.Comparator

	byFile map[source.FileID]*ast.Tree
}

// NewUnit assembles a unit. Model defaults to a sema.Program over trees.
func NewUnit(files *source.FileSet, trees []*ast.Tree, model sema.Model) *Unit {
	if model == nil {
		model = sema.NewProgram(trees...)
	}
	u := &Unit{
		Files:   files,
		Trees:   trees,
		Model:   model,
		Compare: compare.New(),
		byFile:  make(map[source.FileID]*ast.Tree, len(trees)),
	}
	for _, t := range trees {
		u.byFile[t.File] = t
	}
	return u
}

// Tree returns the tree of a file, if it parsed.
func (u *Unit) Tree(id source.FileID) (*ast.Tree, bool) {
	t, ok := u.byFile[id]
	return t, ok
}
