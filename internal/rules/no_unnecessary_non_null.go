package rules

import (
	"tslint/internal/ast"
	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/types"
	"tslint/internal/visit"
)

type nonNullCtx = rule.Context[struct{}, struct{}]

// NoUnnecessaryNonNull reports `x!` where x can never be null or undefined.
var NoUnnecessaryNonNull = rule.Define(rule.Spec[struct{}, struct{}]{
	Name: "no-unnecessary-non-null",
	Code: diag.LintNoUnnecessaryNonNull,
	Docs: rule.Docs{
		Description: "Disallow non-null assertions that do not change the type of the expression",
		Recommended: true,
		Fixable:     true,
	},
	Messages: map[string]string{
		"unnecessaryAssertion": "This assertion is unnecessary since it does not change the type of the expression.",
		"removeAssertion":      "Remove the unnecessary non-null assertion.",
	},
	DefaultSeverity: diag.SevWarning,
	Visitor: func(struct{}) *visit.Table[*nonNullCtx] {
		return visit.NewTable[*nonNullCtx]().OnEnter(ast.KindNonNullExpression, checkNonNull)
	},
})

func checkNonNull(n ast.Node, ctx *nonNullCtx) error {
	inner := n.Child("expression")
	t, err := ctx.TypeOf(inner)
	if err != nil {
		return err
	}
	// any/unknown считаются nullable: утверждение может быть нужным
	if t.IsNullable() || t == types.Never {
		return nil
	}

	span := n.Span()
	bang := source.Span{File: span.File, Start: inner.Span().End, End: span.End}
	suggestion, err := ctx.Suggest("removeAssertion", nil, fix.Edit(bang, ""))
	if err != nil {
		return err
	}
	return ctx.Report(nonNullAnchor(n), "unnecessaryAssertion", nil, diag.Eager(suggestion))
}

// nonNullAnchor widens the report to the binding when the assertion is its
// whole initializer (`y = x!`), so the message points at what is assigned.
func nonNullAnchor(n ast.Node) ast.Node {
	parent := n.Parent()
	switch parent.Kind() {
	case ast.KindVariableDeclarator:
		if parent.Child("value") == n {
			return parent
		}
	case ast.KindAssignmentExpression:
		if parent.Child("right") == n {
			return parent
		}
	}
	return n
}
