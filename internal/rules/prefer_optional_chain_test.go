package rules

import (
	"testing"

	"tslint/internal/ruletest"
)

func TestPreferOptionalChain(t *testing.T) {
	valid := []ruletest.Case{
		{Code: "a && b.c;"},
		{Code: "a || a.b;"},
		{Code: "a && a === b;"},
		{Code: "foo && bar && baz;"},
		{Code: "a.b && a.c;"},
		{Name: "ignore calls", Code: "f() && f().x;", Options: "ignore-calls = true"},
	}
	invalid := []ruletest.Case{
		{
			Name: "single step",
			Code: "a && a.b;",
			Errors: []ruletest.Expected{{
				MessageID:   "preferOptionalChain",
				Line:        1,
				Column:      1,
				EndColumn:   9,
				Suggestions: []ruletest.Suggestion{{MessageID: "optionalChainSuggest", Output: "a?.b;"}},
			}},
			Output: "a?.b;",
		},
		{
			Name:   "long chain",
			Code:   "a && a.b && a.b.c;",
			Errors: []ruletest.Expected{{MessageID: "preferOptionalChain", Column: 1, EndColumn: 18}},
			Output: "a?.b?.c;",
		},
		{
			Name:   "chain after unrelated operand",
			Code:   "x && a && a.b;",
			Errors: []ruletest.Expected{{MessageID: "preferOptionalChain", Column: 6, EndColumn: 14}},
			Output: "x && a?.b;",
		},
		{
			Name:   "call",
			Code:   "foo.bar && foo.bar();",
			Errors: []ruletest.Expected{{MessageID: "preferOptionalChain"}},
			Output: "foo.bar?.();",
		},
		{
			Name:   "subscript",
			Code:   "a && a[0];",
			Errors: []ruletest.Expected{{MessageID: "preferOptionalChain"}},
			Output: "a?.[0];",
		},
		{
			Name:   "skips a step",
			Code:   "a && a.b.c;",
			Errors: []ruletest.Expected{{MessageID: "preferOptionalChain"}},
			Output: "a?.b.c;",
		},
		{
			Name: "inside condition",
			Code: "if (user && user.profile) {\n  show();\n}\n",
			Errors: []ruletest.Expected{{
				MessageID: "preferOptionalChain",
				Line:      1,
				Column:    5,
				EndLine:   1,
				EndColumn: 25,
			}},
			Output: "if (user?.profile) {\n  show();\n}\n",
		},
	}
	ruletest.Run(t, PreferOptionalChain, valid, invalid)
}
