package tsparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tslint/internal/ast"
	"tslint/internal/source"
	"tslint/internal/testkit"
)

func TestParse_Declarations(t *testing.T) {
	tree, err := ParseSource("a.ts", []byte("const x = 1; let y: number | null = x!;"))
	require.NoError(t, err)
	require.NoError(t, testkit.CheckTreeInvariants(tree))

	body := tree.Root().List("body")
	require.Len(t, body, 2)

	first := body[0]
	assert.Equal(t, ast.KindLexicalDeclaration, first.Kind())
	assert.Equal(t, "const", first.Op())
	decls := first.List("declarators")
	require.Len(t, decls, 1)
	assert.Equal(t, "x", decls[0].Child("name").Text())
	assert.Equal(t, ast.KindNumber, decls[0].Child("value").Kind())
	assert.False(t, decls[0].Child("type").Valid())

	second := body[1].List("declarators")[0]
	assert.Equal(t, "let", body[1].Op())
	typ := second.Child("type")
	require.Equal(t, ast.KindTypeAnnotation, typ.Kind())
	union := typ.Child("type")
	require.Equal(t, ast.KindUnionType, union.Kind())
	require.Len(t, union.List("types"), 2)
	assert.Equal(t, "number", union.List("types")[0].Text())

	value := second.Child("value")
	require.Equal(t, ast.KindNonNullExpression, value.Kind())
	assert.Equal(t, "x!", value.Text())
	assert.Equal(t, "x", value.Child("expression").Text())
	assert.Equal(t, second, value.Parent())
}

func TestParse_ChainsAndCalls(t *testing.T) {
	tree, err := ParseSource("a.ts", []byte("a?.b.c(1, d)[0];"))
	require.NoError(t, err)
	require.NoError(t, testkit.CheckTreeInvariants(tree))

	expr := tree.Root().List("body")[0].Child("expression")
	require.Equal(t, ast.KindSubscriptExpression, expr.Kind())
	call := expr.Child("object")
	require.Equal(t, ast.KindCallExpression, call.Kind())
	assert.Len(t, call.Child("arguments").List("arguments"), 2)

	member := call.Child("function")
	require.Equal(t, ast.KindMemberExpression, member.Kind())
	assert.Equal(t, ".", member.Op())
	inner := member.Child("object")
	require.Equal(t, ast.KindMemberExpression, inner.Kind())
	assert.Equal(t, "?.", inner.Op())
	assert.Equal(t, ast.KindPropertyIdentifier, inner.Child("property").Kind())
}

func TestParse_TemplateParts(t *testing.T) {
	node, err := ParseExpression("`a${b}c${d}`")
	require.NoError(t, err)
	require.Equal(t, ast.KindTemplateString, node.Kind())

	parts := node.List("parts")
	kinds := make([]ast.Kind, len(parts))
	for i, p := range parts {
		kinds[i] = p.Kind()
	}
	assert.Equal(t, []ast.Kind{
		ast.KindTemplateChunk,
		ast.KindTemplateSubstitution,
		ast.KindTemplateChunk,
		ast.KindTemplateSubstitution,
	}, kinds)
	assert.Equal(t, "a", parts[0].Text())
	assert.Equal(t, "c", parts[2].Text())
}

func TestParse_ImportsExports(t *testing.T) {
	src := `import def, { a, b as c } from "./m";
import * as ns from "./n";
export const x = 1;
export { x as y };
export default x;
`
	tree, err := ParseSource("a.ts", []byte(src))
	require.NoError(t, err)
	require.NoError(t, testkit.CheckTreeInvariants(tree))

	body := tree.Root().List("body")
	require.Len(t, body, 5)

	imp := body[0]
	require.Equal(t, ast.KindImportStatement, imp.Kind())
	assert.Equal(t, `"./m"`, imp.Child("source").Text())
	bindings := imp.Child("clause").List("bindings")
	require.Len(t, bindings, 3)
	assert.Equal(t, ast.KindIdentifier, bindings[0].Kind())
	assert.Equal(t, ast.KindImportSpecifier, bindings[1].Kind())
	assert.Equal(t, "c", bindings[2].Child("alias").Text())

	ns := body[1].Child("clause").List("bindings")
	require.Len(t, ns, 1)
	assert.Equal(t, ast.KindNamespaceImport, ns[0].Kind())

	assert.Equal(t, ast.KindLexicalDeclaration, body[2].Child("declaration").Kind())
	specs := body[3].Child("clause").List("specifiers")
	require.Len(t, specs, 1)
	assert.Equal(t, "y", specs[0].Child("alias").Text())
	assert.Equal(t, "default", body[4].Op())
	assert.Equal(t, "x", body[4].Child("value").Text())
}

func TestParse_UnknownKindsKeepChildren(t *testing.T) {
	tree, err := ParseSource("a.ts", []byte("for (const i of xs) { use(i!); }"))
	require.NoError(t, err)
	require.NoError(t, testkit.CheckTreeInvariants(tree))

	loop := tree.Root().List("body")[0]
	assert.Equal(t, ast.KindOther, loop.Kind())
	assert.Equal(t, "for_in_statement", loop.Op())

	var found bool
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n.Kind() == ast.KindNonNullExpression {
			found = true
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(loop)
	assert.True(t, found, "non-null expression inside unknown statement must stay reachable")
}

func TestParse_CommentsDropped(t *testing.T) {
	tree, err := ParseSource("a.ts", []byte("// lead\nconst x = /* inline */ 1;"))
	require.NoError(t, err)
	body := tree.Root().List("body")
	require.Len(t, body, 1)
	assert.Equal(t, ast.KindNumber, body[0].List("declarators")[0].Child("value").Kind())
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseSource("a.ts", []byte("const = ;"))
	require.Error(t, err)
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
}

func TestParse_FileFromSet(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("first.ts", []byte("let a;"))
	id := fs.AddVirtual("view.tsx", []byte("const v = <div>{a}</div>;"))

	tree, err := Parse(fs.Get(id))
	require.NoError(t, err)
	assert.Equal(t, id, tree.File)
	assert.Equal(t, id, tree.Root().Span().File)

	value := tree.Root().List("body")[0].List("declarators")[0].Child("value")
	assert.Equal(t, ast.KindJSXElement, value.Kind())
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.Kind
	}{
		{"a.b", ast.KindMemberExpression},
		{"a.b()", ast.KindCallExpression},
		{"{}", ast.KindObjectExpression},
		{"x!", ast.KindNonNullExpression},
		{"typeof x", ast.KindUnaryExpression},
		{"a && b", ast.KindBinaryExpression},
		{"new Foo()", ast.KindNewExpression},
		{"(x) => x", ast.KindArrowFunction},
		{"y => y", ast.KindArrowFunction},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			node, err := ParseExpression(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, node.Kind())
			assert.Equal(t, tt.src, node.Text())
		})
	}
}
