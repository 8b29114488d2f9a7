package ast

import (
	"strings"
	"testing"
)

// buildMember builds "a.b" by hand.
func buildMember(t *testing.T) *Tree {
	t.Helper()
	src := []byte("a.b;")
	b := NewBuilder(7, "m.ts", src, 0)
	prog := b.New(KindProgram, 0, 4)
	stmt := b.New(KindExpressionStatement, 0, 4)
	member := b.New(KindMemberExpression, 0, 3)
	b.SetOp(member, ".")
	obj := b.New(KindIdentifier, 0, 1)
	prop := b.New(KindPropertyIdentifier, 2, 3)
	b.Set(member, "object", obj)
	b.Set(member, "property", prop)
	b.Set(stmt, "expression", member)
	b.Append(prog, "body", stmt)
	tree, err := b.Finish(prog)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return tree
}

func TestBuilderLinksParents(t *testing.T) {
	tree := buildMember(t)
	root := tree.Root()
	if root.Kind() != KindProgram || root.Parent().Valid() {
		t.Fatalf("unexpected root %s parent=%s", root, root.Parent())
	}
	stmt := root.List("body")[0]
	member := stmt.Child("expression")
	if member.Parent() != stmt || stmt.Parent() != root {
		t.Fatalf("parent links broken")
	}
	if got := member.Text(); got != "a.b" {
		t.Errorf("Text = %q", got)
	}
	if got := member.Child("object").Text(); got != "a" {
		t.Errorf("object = %q", got)
	}
	if member.Span().File != 7 {
		t.Errorf("span file = %d, want 7", member.Span().File)
	}
	if tree.Len() != 5 {
		t.Errorf("Len = %d, want 5", tree.Len())
	}
}

func TestFieldsFollowSchemaOrder(t *testing.T) {
	tree := buildMember(t)
	member := tree.Root().List("body")[0].Child("expression")

	fields := member.Fields()
	if len(fields) != 2 || fields[0].Name != "object" || fields[1].Name != "property" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	kids := member.Children()
	if len(kids) != 2 || kids[0].Kind() != KindIdentifier || kids[1].Kind() != KindPropertyIdentifier {
		t.Fatalf("unexpected children %v", kids)
	}

	var visited []Kind
	_ = member.EachChild(func(n Node) error {
		visited = append(visited, n.Kind())
		return nil
	})
	if len(visited) != 2 || visited[0] != KindIdentifier {
		t.Fatalf("EachChild order = %v", visited)
	}
}

func TestAbsentNode(t *testing.T) {
	var n Node
	if n.Valid() || n.Kind() != KindInvalid || n.Parent().Valid() || n.Text() != "" {
		t.Fatal("zero node must be absent")
	}
	if n.Child("object").Valid() || n.List("body") != nil || n.Fields() != nil {
		t.Fatal("absent node has no children")
	}
	if n.String() != "<absent>" {
		t.Errorf("String = %q", n.String())
	}
}

func TestOptionalFieldAbsent(t *testing.T) {
	src := []byte("return;")
	b := NewBuilder(0, "r.ts", src, 0)
	prog := b.New(KindProgram, 0, 7)
	ret := b.New(KindReturnStatement, 0, 7)
	b.Append(prog, "body", ret)
	tree, err := b.Finish(prog)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	fields := tree.Root().List("body")[0].Fields()
	if len(fields) != 1 || fields[0].Shape != Opt || fields[0].Node.Valid() {
		t.Fatalf("expected one absent optional field, got %+v", fields)
	}
}

func TestFinishRejectsMissingRequiredField(t *testing.T) {
	b := NewBuilder(0, "x.ts", []byte("x"), 0)
	prog := b.New(KindProgram, 0, 1)
	stmt := b.New(KindExpressionStatement, 0, 1)
	b.Append(prog, "body", stmt)
	_, err := b.Finish(prog)
	if err == nil || !strings.Contains(err.Error(), "expression") {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestBuilderPanicsOnSecondParent(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when re-parenting a node")
		}
	}()
	b := NewBuilder(0, "x.ts", []byte("a"), 0)
	p1 := b.New(KindProgram, 0, 1)
	p2 := b.New(KindStatementBlock, 0, 1)
	id := b.New(KindIdentifier, 0, 1)
	b.Append(p1, "body", id)
	b.Append(p2, "body", id)
}

func TestBuilderPanicsOnUnknownField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown field")
		}
	}()
	b := NewBuilder(0, "x.ts", []byte("a"), 0)
	p := b.New(KindProgram, 0, 1)
	b.Set(p, "nope", b.New(KindIdentifier, 0, 1))
}

func TestKindCatalogue(t *testing.T) {
	seen := map[string]Kind{}
	for k := KindInvalid + 1; int(k) < KindCount; k++ {
		info := k.Info()
		if info.Name == "" {
			t.Fatalf("kind %d has no name", k)
		}
		if prev, dup := seen[info.Name]; dup {
			t.Fatalf("kinds %d and %d share name %q", prev, k, info.Name)
		}
		seen[info.Name] = k
		if got, ok := KindByName(info.Name); !ok || got != k {
			t.Errorf("KindByName(%q) = %d,%v", info.Name, got, ok)
		}
		if k.Is(FlagTransparent) && k.FieldIndex("expression") != 0 {
			t.Errorf("transparent kind %s must wrap field expression", k)
		}
	}
	if !KindObjectExpression.Is(FlagFresh) || KindIdentifier.Is(FlagFresh) {
		t.Error("fresh flags misassigned")
	}
	if Kind(250).Info().Name != "invalid" {
		t.Error("out-of-range kind must map to invalid")
	}
}

func TestAncestorAndUnwrap(t *testing.T) {
	src := []byte("((a));")
	b := NewBuilder(0, "p.ts", src, 0)
	prog := b.New(KindProgram, 0, 6)
	stmt := b.New(KindExpressionStatement, 0, 6)
	outer := b.New(KindParenthesizedExpression, 0, 5)
	inner := b.New(KindParenthesizedExpression, 1, 4)
	id := b.New(KindIdentifier, 2, 3)
	b.Set(inner, "expression", id)
	b.Set(outer, "expression", inner)
	b.Set(stmt, "expression", outer)
	b.Append(prog, "body", stmt)
	tree, err := b.Finish(prog)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	paren := tree.Root().List("body")[0].Child("expression")
	if got := paren.Unwrap(); got.Kind() != KindIdentifier {
		t.Fatalf("Unwrap = %s", got)
	}
	leaf := paren.Unwrap()
	if got := leaf.Ancestor(KindExpressionStatement); got != tree.Root().List("body")[0] {
		t.Fatalf("Ancestor = %s", got)
	}
	if leaf.Ancestor(KindIfStatement).Valid() {
		t.Fatal("unexpected ancestor")
	}
}
