package rules

import (
	"tslint/internal/ast"
	"tslint/internal/compare"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/visit"
)

type optionalChainOptions struct {
	// IgnoreCalls leaves chains alone when a guarded operand is a call:
	// `f() && f().x` evaluates f twice and may not be the same value.
	IgnoreCalls bool `toml:"ignore-calls" msgpack:"ignore_calls"`
}

type chainCtx = rule.Context[optionalChainOptions, struct{}]

// PreferOptionalChain reports `a && a.b && a.b.c` chains that can be written `a?.b?.c`.
var PreferOptionalChain = rule.Define(rule.Spec[optionalChainOptions, struct{}]{
	Name: "prefer-optional-chain",
	Code: diag.LintPreferOptionalChain,
	Docs: rule.Docs{
		Description: "Enforce optional chain expressions over chained logical ands",
		Recommended: true,
		Fixable:     true,
	},
	Messages: map[string]string{
		"preferOptionalChain":  "Prefer using an optional chain expression instead, as it's more concise and easier to read.",
		"optionalChainSuggest": "Change to an optional chain.",
	},
	DefaultSeverity: diag.SevWarning,
	ParseOptions: func(raw config.Options) (optionalChainOptions, error) {
		var opts optionalChainOptions
		if err := raw.Decode(&opts); err != nil {
			return optionalChainOptions{}, err
		}
		return opts, nil
	},
	Visitor: func(optionalChainOptions) *visit.Table[*chainCtx] {
		return visit.NewTable[*chainCtx]().OnEnter(ast.KindBinaryExpression, checkAndChain)
	},
})

func isAnd(n ast.Node) bool {
	return n.Kind() == ast.KindBinaryExpression && n.Op() == "&&"
}

func checkAndChain(n ast.Node, ctx *chainCtx) error {
	if !isAnd(n) {
		return nil
	}
	// цепочка разбирается один раз, от внешнего &&
	if parent := n.Parent(); isAnd(parent) && parent.Child("left") == n {
		return nil
	}
	operands := flattenAnd(n)

	for i := 0; i < len(operands); {
		j := i
		for j+1 < len(operands) && guards(ctx, operands[j], operands[j+1]) {
			j++
		}
		if j == i {
			i++
			continue
		}
		if err := reportChain(ctx, n, operands, i, j); err != nil {
			return err
		}
		i = j + 1
	}
	return nil
}

// flattenAnd returns the operands of a left-nested && chain in source order.
func flattenAnd(n ast.Node) []ast.Node {
	var rev []ast.Node
	for isAnd(n) {
		rev = append(rev, n.Child("right"))
		n = n.Child("left")
	}
	rev = append(rev, n)
	out := make([]ast.Node, len(rev))
	for i, op := range rev {
		out[len(rev)-1-i] = op
	}
	return out
}

// guards reports whether prev checks a prefix of next: `a` guards `a.b`.
func guards(ctx *chainCtx, prev, next ast.Node) bool {
	if !chainable(next) {
		return false
	}
	if ctx.Options.IgnoreCalls && prev.Unwrap().Kind() == ast.KindCallExpression {
		return false
	}
	return ctx.Compare(prev.Unwrap(), next.Unwrap()) == compare.Subset
}

func chainable(n ast.Node) bool {
	switch n.Unwrap().Kind() {
	case ast.KindMemberExpression, ast.KindSubscriptExpression, ast.KindCallExpression, ast.KindNonNullExpression:
		return true
	}
	return false
}

func reportChain(ctx *chainCtx, whole ast.Node, operands []ast.Node, i, j int) error {
	var span source.Span
	if i == 0 && j == len(operands)-1 {
		span = whole.Span()
	} else {
		span = operands[i].Span().Cover(operands[j].Span())
	}
	guarded := append([]ast.Node(nil), operands[i:j+1]...)
	suggestions := diag.Deferred(func() ([]diag.Fix, error) {
		text, ok := optionalChainText(ctx, guarded)
		if !ok {
			return nil, nil
		}
		f, err := ctx.Suggest("optionalChainSuggest", nil, fix.Edit(span, text))
		if err != nil {
			return nil, err
		}
		// геттер в отброшенном звене может иметь побочные эффекты
		f.Applicability = diag.FixApplicabilitySafeWithHeuristics
		return []diag.Fix{f}, nil
	})
	return ctx.ReportSpan(span, "preferOptionalChain", nil, suggestions)
}

// optionalChainText rewrites the last operand so that every step guarded by
// an earlier operand becomes optional.
func optionalChainText(ctx *chainCtx, operands []ast.Node) (string, bool) {
	last := operands[len(operands)-1].Unwrap()
	base := last.Span()
	var edits []diag.TextEdit
	for _, guard := range operands[:len(operands)-1] {
		access, recv, ok := findGuardedStep(ctx, guard.Unwrap(), last)
		if !ok {
			return "", false
		}
		if access.Op() == "?." {
			continue
		}
		at := recv.Span().End
		switch access.Kind() {
		case ast.KindMemberExpression:
			// заменяется точка вместе с пробелами вокруг неё
			prop := access.Child("property").Span()
			edits = append(edits, relative(base, at, prop.Start, "?."))
		default:
			edits = append(edits, relative(base, at, at, "?."))
		}
	}
	text, err := fix.ApplyEdits(last.Text(), edits)
	if err != nil {
		return "", false
	}
	return text, true
}

// findGuardedStep walks receivers of last down to the node equal to guard
// and returns the access applied to it.
func findGuardedStep(ctx *chainCtx, guard, last ast.Node) (access, recv ast.Node, ok bool) {
	node := last
	for {
		next := stepReceiver(node)
		if !next.Valid() {
			return ast.Node{}, ast.Node{}, false
		}
		// `a!` сам по себе не шаг доступа
		if node.Kind() != ast.KindNonNullExpression && ctx.Compare(guard, next) == compare.Equal {
			return node, next, true
		}
		node = next
	}
}

func stepReceiver(n ast.Node) ast.Node {
	switch n.Kind() {
	case ast.KindMemberExpression, ast.KindSubscriptExpression:
		return n.Child("object")
	case ast.KindCallExpression:
		return n.Child("function")
	case ast.KindNonNullExpression, ast.KindParenthesizedExpression:
		return n.Child("expression")
	}
	return ast.Node{}
}

// relative rebases an edit onto the text of base.
func relative(base source.Span, start, end uint32, text string) diag.TextEdit {
	return diag.TextEdit{Span: source.Span{Start: start - base.Start, End: end - base.Start}, NewText: text}
}
