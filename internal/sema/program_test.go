package sema

import (
	"errors"
	"testing"

	"tslint/internal/ast"
	"tslint/internal/tsparse"
	"tslint/internal/types"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := tsparse.ParseSource("a.ts", []byte(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return tree
}

// lastValue returns the initializer of the last declarator in the file.
func lastValue(t *testing.T, tree *ast.Tree) ast.Node {
	t.Helper()
	body := tree.Root().List("body")
	decls := body[len(body)-1].List("declarators")
	if len(decls) == 0 {
		t.Fatalf("last statement is not a declaration")
	}
	return decls[len(decls)-1].Child("value")
}

func TestTypeOfExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want types.Type
	}{
		{"const v = 1;", types.Number},
		{"const v = 'a' + 1;", types.String},
		{"const v = `x${1}`;", types.String},
		{"const v = null;", types.Null},
		{"const x = 1; const v = x;", types.Number},
		{"let x: string | undefined; const v = x;", types.String | types.Undefined},
		{"let x: string | undefined; const v = x!;", types.String},
		{"let x: number | null; const v = x ?? 0;", types.Number},
		{"const v = !x;", types.Boolean},
		{"const v = typeof x;", types.String},
		{"const v = {};", types.Object},
		{"const v = [1];", types.Object},
		{"const v = () => 1;", types.Object},
		{"const v = a.b;", types.Any},
		{"const v = f();", types.Any},
		{"const v = unknownName;", types.Any},
		{"const v = cond ? 1 : 'a';", types.Number | types.String},
		{"const v = 1 > 2 ? 1 : 'a';", types.Number | types.String},
		{"const v = x as string;", types.String},
		{"function f(a?: number) { const v = a; }", types.Number | types.Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree := parse(t, tt.src)
			prog := NewProgram(tree)
			value := findLastValue(tree.Root())
			if !value.Valid() {
				t.Fatalf("no initializer found")
			}
			got, err := prog.TypeOf(value)
			if err != nil {
				t.Fatalf("TypeOf: %v", err)
			}
			if got != tt.want {
				t.Errorf("TypeOf(%s) = %s, want %s", value.Text(), got, tt.want)
			}
		})
	}
}

// findLastValue returns the initializer of the last declarator in document order.
func findLastValue(n ast.Node) ast.Node {
	var last ast.Node
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n.Kind() == ast.KindVariableDeclarator && n.Child("value").Valid() {
			last = n.Child("value")
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return last
}

func TestDeclarationOfShadowing(t *testing.T) {
	tree := parse(t, "const x = 1; function f(x: string) { const v = x; }")
	prog := NewProgram(tree)

	ident := findLastValue(tree.Root())
	decl, ok := prog.DeclarationOf(ident)
	if !ok {
		t.Fatal("identifier not resolved")
	}
	if decl.Kind() != ast.KindParameter {
		t.Fatalf("resolved to %s, want parameter", decl)
	}
	got, _ := prog.TypeOf(ident)
	if got != types.String {
		t.Errorf("TypeOf = %s, want string", got)
	}
}

func TestSelfReferenceTerminates(t *testing.T) {
	tree := parse(t, "const a = b; const b = a;")
	prog := NewProgram(tree)
	got, err := prog.TypeOf(lastValue(t, tree))
	if err != nil {
		t.Fatalf("TypeOf: %v", err)
	}
	if got != types.Any {
		t.Errorf("cyclic declarations should degrade to any, got %s", got)
	}
}

func TestForeignNode(t *testing.T) {
	inside := parse(t, "const a = 1;")
	outside := parse(t, "const b = 2;")
	prog := NewProgram(inside)

	_, err := prog.TypeOf(lastValue(t, outside))
	if !errors.Is(err, ErrForeignNode) {
		t.Fatalf("expected ErrForeignNode, got %v", err)
	}
	if _, err := prog.TypeOf(ast.Node{}); !errors.Is(err, ErrForeignNode) {
		t.Fatalf("absent node: expected ErrForeignNode, got %v", err)
	}
}

func TestConcurrentQueries(t *testing.T) {
	tree := parse(t, "let s: string | null; const v = s!;")
	prog := NewProgram(tree)
	value := lastValue(t, tree)

	done := make(chan types.Type, 8)
	for range 8 {
		go func() {
			got, _ := prog.TypeOf(value)
			done <- got
		}()
	}
	for range 8 {
		if got := <-done; got != types.String {
			t.Errorf("TypeOf = %s, want string", got)
		}
	}
}
