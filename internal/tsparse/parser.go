// Package tsparse turns TypeScript sources into ast trees using tree-sitter.
package tsparse

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"tslint/internal/ast"
	"tslint/internal/source"
)

var (
	typeScriptLanguage = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsxLanguage        = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
)

// SyntaxError reports the first error or missing node in a parse tree.
type SyntaxError struct {
	Span source.Span
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Span, e.Msg)
}

func newParser(tsx bool) (*sitter.Parser, error) {
	language := typeScriptLanguage
	if tsx {
		language = tsxLanguage
	}
	parser := sitter.NewParser()
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, err
	}
	return parser, nil
}

// Parse builds the tree of a file from a FileSet.
// Files with syntax errors are rejected with *SyntaxError.
func Parse(file *source.File) (*ast.Tree, error) {
	return parse(file.ID, file.Path, file.Content, file.Flags&source.FileTSX != 0)
}

// ParseSource parses a detached snippet; the resulting spans use file id 0.
func ParseSource(path string, src []byte) (*ast.Tree, error) {
	return parse(0, path, src, strings.HasSuffix(strings.ToLower(path), ".tsx"))
}

// ParseExpression parses a single expression. The expression is parsed
// in parentheses so that "{}" reads as an object literal.
func ParseExpression(expr string) (ast.Node, error) {
	tree, err := ParseSource("expr.ts", []byte("("+expr+");"))
	if err != nil {
		return ast.Node{}, err
	}
	body := tree.Root().List("body")
	if len(body) != 1 || body[0].Kind() != ast.KindExpressionStatement {
		return ast.Node{}, fmt.Errorf("not a single expression: %q", expr)
	}
	paren := body[0].Child("expression")
	if paren.Kind() != ast.KindParenthesizedExpression {
		return ast.Node{}, fmt.Errorf("not a single expression: %q", expr)
	}
	return paren.Child("expression"), nil
}

func parse(id source.FileID, path string, src []byte, tsx bool) (*ast.Tree, error) {
	parser, err := newParser(tsx)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}
	defer parser.Close()

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(id, root)
	}

	c := &converter{
		src: src,
		b:   ast.NewBuilder(id, path, src, uint(len(src)/4+16)),
	}
	rootID := c.program(root)
	return c.b.Finish(rootID)
}

func firstError(id source.FileID, root *sitter.Node) *SyntaxError {
	var found *sitter.Node
	walkPreOrder(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	if found == nil {
		found = root
	}
	msg := "unexpected " + found.Kind()
	if found.IsMissing() {
		msg = "missing " + found.Kind()
	} else if found.IsError() {
		msg = "unexpected token"
	}
	return &SyntaxError{
		Span: source.Span{File: id, Start: offset(found.StartByte()), End: offset(found.EndByte())},
		Msg:  msg,
	}
}

// walkPreOrder visits n and, while visit returns true, its descendants.
func walkPreOrder(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		walkPreOrder(n.Child(i), visit)
	}
}
