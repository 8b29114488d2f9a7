package rules

import (
	"testing"

	"tslint/internal/ruletest"
)

func TestNoUnnecessaryNonNull(t *testing.T) {
	valid := []ruletest.Case{
		{Name: "nullable", Code: "let x: string | undefined; const y = x!;"},
		{Name: "opaque member", Code: "const y = foo.bar!;"},
		{Name: "optional parameter", Code: "function f(a?: number) { return a!; }"},
		{Name: "unresolved", Code: "const y = missing!;"},
	}
	invalid := []ruletest.Case{
		{
			Name: "initializer",
			Code: "const x = 1; const y = x!;",
			Errors: []ruletest.Expected{{
				MessageID: "unnecessaryAssertion",
				Message:   "This assertion is unnecessary since it does not change the type of the expression.",
				Line:      1, Column: 20, EndLine: 1, EndColumn: 26,
				Suggestions: []ruletest.Suggestion{{MessageID: "removeAssertion", Output: "const x = 1; const y = x;"}},
			}},
			Output: "const x = 1; const y = x;",
		},
		{
			Name: "member object",
			Code: "const s: string = 'a'; s!.length;",
			Errors: []ruletest.Expected{{
				MessageID: "unnecessaryAssertion",
				Line:      1, Column: 24, EndColumn: 26,
			}},
			Output: "const s: string = 'a'; s.length;",
		},
		{
			Name: "assignment",
			Code: "let n = 0; n = n!;",
			Errors: []ruletest.Expected{{
				MessageID: "unnecessaryAssertion",
				Line:      1, Column: 12, EndColumn: 18,
			}},
			Output: "let n = 0; n = n;",
		},
		{
			Name: "two in one file",
			Code: "const a = 'x';\nconst b = a! + a!;\n",
			Errors: []ruletest.Expected{
				{MessageID: "unnecessaryAssertion", Line: 2, Column: 11, EndColumn: 13},
				{MessageID: "unnecessaryAssertion", Line: 2, Column: 16, EndColumn: 18},
			},
			Output: "const a = 'x';\nconst b = a + a;\n",
		},
	}
	ruletest.Run(t, NoUnnecessaryNonNull, valid, invalid)
}
