package sema

import (
	"fmt"
	"sync"

	"tslint/internal/ast"
	"tslint/internal/types"
)

// Program is a flow-insensitive model over the trees of one analysis unit.
// Lexical scopes are indexed lazily; declaration types are memoised.
type Program struct {
	trees map[*ast.Tree]struct{}

	mu        sync.Mutex
	scopes    map[ast.Node]map[string]ast.Node
	declTypes map[ast.Node]types.Type
}

// NewProgram creates a model covering trees.
func NewProgram(trees ...*ast.Tree) *Program {
	p := &Program{
		trees:     make(map[*ast.Tree]struct{}, len(trees)),
		scopes:    make(map[ast.Node]map[string]ast.Node),
		declTypes: make(map[ast.Node]types.Type),
	}
	for _, t := range trees {
		p.trees[t] = struct{}{}
	}
	return p
}

var _ Model = (*Program)(nil)

func (p *Program) owns(n ast.Node) error {
	if !n.Valid() {
		return fmt.Errorf("%w: absent node", ErrForeignNode)
	}
	if _, ok := p.trees[n.Tree()]; !ok {
		return fmt.Errorf("%w: %s in %s", ErrForeignNode, n, n.Tree().Path)
	}
	return nil
}

// TypeOf returns the type of an expression, declaration or type node.
func (p *Program) TypeOf(n ast.Node) (types.Type, error) {
	if err := p.owns(n); err != nil {
		return types.Never, err
	}
	return p.typeOf(n, nil), nil
}

// DeclarationOf resolves an identifier to its declarator, parameter,
// function or class declaration.
func (p *Program) DeclarationOf(ident ast.Node) (ast.Node, bool) {
	if p.owns(ident) != nil || ident.Kind() != ast.KindIdentifier {
		return ast.Node{}, false
	}
	return p.resolve(ident)
}

func (p *Program) resolve(ident ast.Node) (ast.Node, bool) {
	name := ident.Text()
	for s := ident.Parent(); s.Valid(); s = s.Parent() {
		if !isScope(s.Kind()) {
			continue
		}
		if decl, ok := p.bindings(s)[name]; ok {
			return decl, true
		}
	}
	return ast.Node{}, false
}

func isScope(k ast.Kind) bool {
	switch k {
	case ast.KindProgram, ast.KindStatementBlock, ast.KindFunctionDeclaration,
		ast.KindFunctionExpression, ast.KindArrowFunction:
		return true
	}
	return false
}

func (p *Program) bindings(scope ast.Node) map[string]ast.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.scopes[scope]; ok {
		return b
	}
	b := make(map[string]ast.Node)
	switch scope.Kind() {
	case ast.KindProgram, ast.KindStatementBlock:
		for _, stmt := range scope.List("body") {
			declare(b, stmt)
		}
	case ast.KindFunctionDeclaration, ast.KindFunctionExpression, ast.KindArrowFunction:
		for _, param := range scope.Child("parameters").List("params") {
			if pat := param.Child("pattern"); pat.Kind() == ast.KindIdentifier {
				b[pat.Text()] = param
			}
		}
		if name := scope.Child("name"); name.Valid() && scope.Kind() == ast.KindFunctionExpression {
			b[name.Text()] = scope
		}
	}
	p.scopes[scope] = b
	return b
}

func declare(b map[string]ast.Node, stmt ast.Node) {
	switch stmt.Kind() {
	case ast.KindLexicalDeclaration:
		for _, d := range stmt.List("declarators") {
			if name := d.Child("name"); name.Kind() == ast.KindIdentifier {
				b[name.Text()] = d
			}
		}
	case ast.KindFunctionDeclaration, ast.KindClassDeclaration:
		b[stmt.Child("name").Text()] = stmt
	case ast.KindExportStatement:
		if decl := stmt.Child("declaration"); decl.Valid() {
			declare(b, decl)
		}
	}
}

// visiting guards against self-referential declarations (const x = x!).
type visiting map[ast.Node]bool

func (p *Program) declType(decl ast.Node, seen visiting) types.Type {
	p.mu.Lock()
	t, ok := p.declTypes[decl]
	p.mu.Unlock()
	if ok {
		return t
	}
	if seen[decl] {
		return types.Any
	}
	if seen == nil {
		seen = visiting{}
	}
	seen[decl] = true
	defer delete(seen, decl)

	switch decl.Kind() {
	case ast.KindVariableDeclarator:
		switch {
		case decl.Child("type").Valid():
			t = typeFromNode(decl.Child("type"))
		case decl.Child("value").Valid():
			t = p.typeOf(decl.Child("value"), seen)
		default:
			t = types.Any
		}
	case ast.KindParameter:
		switch {
		case decl.Child("type").Valid():
			t = typeFromNode(decl.Child("type"))
			if decl.Op() == "?" && !decl.Child("value").Valid() {
				t = t.Union(types.Undefined)
			}
		case decl.Child("value").Valid():
			t = p.typeOf(decl.Child("value"), seen)
		default:
			t = types.Any
		}
	case ast.KindFunctionDeclaration, ast.KindFunctionExpression, ast.KindClassDeclaration:
		t = types.Object
	default:
		t = types.Any
	}

	p.mu.Lock()
	p.declTypes[decl] = t
	p.mu.Unlock()
	return t
}
