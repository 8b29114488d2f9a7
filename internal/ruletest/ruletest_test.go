package ruletest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tslint/internal/ast"
	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/visit"
)

type todoCtx = rule.Context[struct{}, struct{}]

// noTodo flags identifiers named todo and offers to rename them to done.
var noTodo = rule.Define(rule.Spec[struct{}, struct{}]{
	Name:            "no-todo",
	Messages:        map[string]string{"todo": "'{{name}}' left in code", "rename": "Rename to done"},
	DefaultSeverity: diag.SevWarning,
	Visitor: func(struct{}) *visit.Table[*todoCtx] {
		return visit.NewTable[*todoCtx]().OnEnter(ast.KindIdentifier, func(n ast.Node, ctx *todoCtx) error {
			if n.Text() != "todo" {
				return nil
			}
			f, err := ctx.Suggest("rename", nil, fix.Edit(n.Span(), "done"))
			if err != nil {
				return err
			}
			return ctx.Report(n, "todo", rule.Args{"name": n.Text()}, diag.Eager(f))
		})
	},
})

func TestRunCases(t *testing.T) {
	Run(t, noTodo,
		[]Case{{Code: "done;"}, {Code: "const x = 1;"}},
		[]Case{{
			Name: "two",
			Code: "todo;\nx(todo);\n",
			Errors: []Expected{
				{MessageID: "todo", Message: "'todo' left in code", Line: 1, Column: 1, EndLine: 1, EndColumn: 5},
				{
					MessageID:   "todo",
					Line:        2,
					Column:      3,
					Suggestions: []Suggestion{{MessageID: "rename", Output: "todo;\nx(done);\n"}},
				},
			},
			Output: "done;\nx(done);\n",
		}},
	)
}

func TestLintMultiFile(t *testing.T) {
	res := Lint(t, noTodo, Case{
		Path:  "src/main.ts",
		Code:  "ok;",
		Files: []File{{Path: "src/other.ts", Code: "todo;"}},
	})
	require.Len(t, res.Diagnostics, 1)
	f, ok := res.Files.Lookup(res.Diagnostics[0].Primary.File)
	require.True(t, ok)
	assert.Equal(t, "src/other.ts", f.Path)
	assert.NotEqual(t, res.Main, f.ID)
}
