package rules

import (
	"testing"

	"tslint/internal/ruletest"
)

func TestNoUnusedExport(t *testing.T) {
	valid := []ruletest.Case{
		{
			Name:  "named import",
			Path:  "src/a.ts",
			Code:  "import { used } from './b';\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "export const used = 1;\n"}},
		},
		{
			Name:  "namespace import",
			Path:  "src/a.ts",
			Code:  "import * as m from './b';\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "export const x = 1;\nexport function y() {}\n"}},
		},
		{
			Name:  "default import",
			Path:  "src/a.ts",
			Code:  "import b from './b';\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "export default 1;\n"}},
		},
		{
			Name:  "js extension and index",
			Path:  "src/a.ts",
			Code:  "import { x } from './b.js';\nimport { y } from './lib';\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "export const x = 1;\n"}, {Path: "src/lib/index.ts", Code: "export const y = 1;\n"}},
		},
		{
			Name:  "require",
			Path:  "src/a.ts",
			Code:  "const b = require('./b');\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "export const x = 1;\n"}},
		},
		{Name: "entry", Path: "src/index.ts", Code: "export const api = 1;\n"},
		{Name: "custom entry", Path: "lib/main.ts", Code: "export const api = 1;\n", Options: `entry = ["lib/*.ts"]`},
		{Name: "ignored name", Code: "export const _internal = 1;\n", Options: `ignore = ["_*"]`},
	}
	invalid := []ruletest.Case{
		{
			Name:  "one of two unused",
			Path:  "src/a.ts",
			Code:  "export const used = 1;\nexport const unused = 2;\n",
			Files: []ruletest.File{{Path: "src/b.ts", Code: "import { used } from './a';\n"}},
			Errors: []ruletest.Expected{{
				MessageID: "unusedExport",
				Message:   "Export 'unused' is not imported by any file in the project.",
				Path:      "src/a.ts",
				Line:      2,
				Column:    14,
				EndColumn: 20,
				Suggestions: []ruletest.Suggestion{{
					MessageID: "removeExport",
					Output:    "export const used = 1;\nconst unused = 2;\n",
				}},
			}},
			// снятие export требует проверки, --all его не применяет
			Output: ruletest.NoFix,
		},
		{
			Name: "clause and default",
			Code: "const x = 1;\nexport { x as y };\nexport default x;\n",
			Errors: []ruletest.Expected{
				{MessageID: "unusedExport", Message: "Export 'y' is not imported by any file in the project.", Line: 2, Column: 15, EndColumn: 16, Suggestions: []ruletest.Suggestion{}},
				{MessageID: "unusedExport", Message: "Export 'default' is not imported by any file in the project.", Line: 3, Column: 1},
			},
		},
		{
			Name: "re-export marks the source",
			Path: "src/a.ts",
			Code: "import { helper } from './b';\n",
			Files: []ruletest.File{
				{Path: "src/b.ts", Code: "export { helper } from './c';\n"},
				{Path: "src/c.ts", Code: "export function helper() {}\nexport function other() {}\n"},
			},
			Errors: []ruletest.Expected{{
				MessageID: "unusedExport",
				Message:   "Export 'other' is not imported by any file in the project.",
				Path:      "src/c.ts",
				Line:      2,
				Column:    17,
			}},
		},
		{
			Name: "fix in an imported module",
			Path: "src/a.ts",
			Code: "import { helper } from './c';\n",
			Files: []ruletest.File{
				{Path: "src/c.ts", Code: "export function helper() {}\nexport function other() {}\n"},
			},
			Errors: []ruletest.Expected{{
				MessageID: "unusedExport",
				Path:      "src/c.ts",
				Line:      2,
				Column:    17,
				Suggestions: []ruletest.Suggestion{{
					MessageID: "removeExport",
					Output:    "export function helper() {}\nfunction other() {}\n",
				}},
			}},
			// якорь в c.ts, главный файл не меняется
			Output: ruletest.NoFix,
		},
		{
			Name: "interface",
			Code: "export interface Shape { x: number }\n",
			Errors: []ruletest.Expected{{
				MessageID: "unusedExport",
				Message:   "Export 'Shape' is not imported by any file in the project.",
				Column:    18,
				EndColumn: 23,
			}},
		},
	}
	ruletest.Run(t, NoUnusedExport, valid, invalid)
}
