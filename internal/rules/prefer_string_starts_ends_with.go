package rules

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"tslint/internal/ast"
	"tslint/internal/compare"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/types"
	"tslint/internal/visit"
)

const (
	singleElementAlways = "always"
	singleElementNever  = "never"
)

type startsEndsOptions struct {
	// AllowSingleElementEquality keeps `s[0] === "a"` when set to "always".
	AllowSingleElementEquality string `toml:"allow-single-element-equality" msgpack:"allow_single_element_equality"`
}

type startsEndsCtx = rule.Context[startsEndsOptions, struct{}]

// PreferStringStartsEndsWith reports index, slice and character comparisons
// that test the start or the end of a string.
var PreferStringStartsEndsWith = rule.Define(rule.Spec[startsEndsOptions, struct{}]{
	Name: "prefer-string-starts-ends-with",
	Code: diag.LintPreferStringStartsEndsWith,
	Docs: rule.Docs{
		Description: "Enforce using String#startsWith and String#endsWith over other equivalent methods of checking substrings",
		Recommended: true,
		Fixable:     true,
	},
	Messages: map[string]string{
		"preferStartsWith": "Use 'String#startsWith' method instead.",
		"preferEndsWith":   "Use the 'String#endsWith' method instead.",
		"replaceWith":      "Replace with '{{method}}'.",
	},
	DefaultSeverity: diag.SevWarning,
	ParseOptions: func(raw config.Options) (startsEndsOptions, error) {
		opts := startsEndsOptions{AllowSingleElementEquality: singleElementNever}
		if err := raw.Decode(&opts); err != nil {
			return startsEndsOptions{}, err
		}
		switch opts.AllowSingleElementEquality {
		case singleElementAlways, singleElementNever:
		default:
			return startsEndsOptions{}, config.Errorf("prefer-string-starts-ends-with", "allow-single-element-equality",
				"must be %q or %q, got %q", singleElementAlways, singleElementNever, opts.AllowSingleElementEquality)
		}
		return opts, nil
	},
	Visitor: func(startsEndsOptions) *visit.Table[*startsEndsCtx] {
		return visit.NewTable[*startsEndsCtx]().OnEnter(ast.KindBinaryExpression, checkStringTest)
	},
})

// stringTest is a comparison recognised as startsWith/endsWith.
type stringTest struct {
	method   string
	receiver ast.Node
	argument string
}

func checkStringTest(n ast.Node, ctx *startsEndsCtx) error {
	var negated bool
	switch n.Op() {
	case "===", "==":
	case "!==", "!=":
		negated = true
	default:
		return nil
	}
	left, right := n.Child("left").Unwrap(), n.Child("right").Unwrap()
	for _, side := range [][2]ast.Node{{left, right}, {right, left}} {
		test, ok := matchStringTest(ctx, side[0], side[1])
		if !ok {
			continue
		}
		t, err := ctx.TypeOf(test.receiver)
		if err != nil {
			return err
		}
		if !t.Is(types.String) {
			return nil
		}
		return reportStringTest(ctx, n, test, negated)
	}
	return nil
}

func matchStringTest(ctx *startsEndsCtx, access, other ast.Node) (stringTest, bool) {
	switch access.Kind() {
	case ast.KindCallExpression:
		return matchStringCall(ctx, access, other)
	case ast.KindSubscriptExpression:
		if access.Op() == "?." || ctx.Options.AllowSingleElementEquality == singleElementAlways {
			return stringTest{}, false
		}
		if n, ok := stringLength(other); !ok || n != 1 {
			return stringTest{}, false
		}
		recv, index := access.Child("object"), access.Child("index").Unwrap()
		if isNumber(index, 0) {
			return stringTest{method: "startsWith", receiver: recv, argument: other.Text()}, true
		}
		if isLastIndex(ctx, recv, index) {
			return stringTest{method: "endsWith", receiver: recv, argument: other.Text()}, true
		}
	}
	return stringTest{}, false
}

func matchStringCall(ctx *startsEndsCtx, call, other ast.Node) (stringTest, bool) {
	callee := call.Child("function")
	if call.Op() == "?." || callee.Kind() != ast.KindMemberExpression || callee.Op() != "." {
		return stringTest{}, false
	}
	recv := callee.Child("object")
	args := call.Child("arguments").List("arguments")

	switch callee.Child("property").Text() {
	case "indexOf":
		if len(args) == 1 && isNumber(other, 0) {
			return stringTest{method: "startsWith", receiver: recv, argument: args[0].Text()}, true
		}
	case "charAt":
		if ctx.Options.AllowSingleElementEquality == singleElementAlways {
			return stringTest{}, false
		}
		if n, ok := stringLength(other); ok && n == 1 && len(args) == 1 && isNumber(args[0], 0) {
			return stringTest{method: "startsWith", receiver: recv, argument: other.Text()}, true
		}
	case "slice", "substring":
		n, ok := stringLength(other)
		if !ok {
			return stringTest{}, false
		}
		if len(args) == 2 && isNumber(args[0], 0) && isNumber(args[1], n) {
			return stringTest{method: "startsWith", receiver: recv, argument: other.Text()}, true
		}
		// substring не принимает отрицательных индексов
		if callee.Child("property").Text() == "slice" && len(args) == 1 && isNegative(args[0], n) {
			return stringTest{method: "endsWith", receiver: recv, argument: other.Text()}, true
		}
	}
	return stringTest{}, false
}

// isLastIndex matches `s.length - 1` for the receiver s.
func isLastIndex(ctx *startsEndsCtx, recv, index ast.Node) bool {
	if index.Kind() != ast.KindBinaryExpression || index.Op() != "-" || !isNumber(index.Child("right"), 1) {
		return false
	}
	length := index.Child("left")
	if length.Kind() != ast.KindMemberExpression || length.Child("property").Text() != "length" {
		return false
	}
	return ctx.Compare(recv, length.Child("object")) == compare.Equal
}

func isNumber(n ast.Node, want int) bool {
	if n.Kind() != ast.KindNumber {
		return false
	}
	v, err := strconv.Atoi(n.Text())
	return err == nil && v == want
}

func isNegative(n ast.Node, want int) bool {
	n = n.Unwrap()
	return want > 0 && n.Kind() == ast.KindUnaryExpression && n.Op() == "-" && isNumber(n.Child("argument"), want)
}

// stringLength returns the length of a plain string literal in UTF-16 code
// units, the unit String#slice counts in. Literals with escapes are skipped.
func stringLength(n ast.Node) (int, bool) {
	if n.Kind() != ast.KindString {
		return 0, false
	}
	text := n.Text()
	if len(text) < 2 || strings.ContainsRune(text, '\\') {
		return 0, false
	}
	count := 0
	for _, r := range text[1 : len(text)-1] {
		count += utf16.RuneLen(r)
	}
	return count, true
}

func reportStringTest(ctx *startsEndsCtx, n ast.Node, test stringTest, negated bool) error {
	messageID := "preferStartsWith"
	if test.method == "endsWith" {
		messageID = "preferEndsWith"
	}
	var b strings.Builder
	if negated {
		b.WriteByte('!')
	}
	b.WriteString(receiverText(test.receiver))
	b.WriteString(".")
	b.WriteString(test.method)
	b.WriteString("(")
	b.WriteString(test.argument)
	b.WriteString(")")

	suggestion, err := ctx.Suggest("replaceWith", rule.Args{"method": test.method}, fix.Edit(n.Span(), b.String()))
	if err != nil {
		return err
	}
	return ctx.Report(n, messageID, nil, diag.Eager(suggestion))
}

// receiverText parenthesizes receivers that would bind looser than a member access.
func receiverText(n ast.Node) string {
	switch n.Kind() {
	case ast.KindIdentifier, ast.KindThis, ast.KindString, ast.KindTemplateString,
		ast.KindMemberExpression, ast.KindSubscriptExpression, ast.KindCallExpression,
		ast.KindParenthesizedExpression, ast.KindNonNullExpression:
		return n.Text()
	}
	return "(" + n.Text() + ")"
}
