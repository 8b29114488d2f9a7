// Package ruletest runs a rule over valid and invalid snippets and checks
// what it reports, in the table style rule authors know from other linters.
package ruletest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/driver"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/source"
)

// DefaultPath is the file name used when a case does not set Path.
const DefaultPath = "file.ts"

// File is an extra module of a multi-file case.
type File struct {
	Path string
	Code string
}

// Case is one snippet. Valid cases must produce no diagnostics of the rule.
type Case struct {
	Name string
	Code string
	Path string

	// Files are loaded after the main file, in order.
	Files []File

	// Options is a TOML document with the rule options at top level.
	Options string

	// Errors are the expected diagnostics, in sorted order.
	Errors []Expected

	// Output is the main file after every always-safe fix anchored in the
	// main file is applied. Fixes of diagnostics in Files are checked only
	// through Expected.Suggestions.
	// Empty means the fixes are not checked; use NoFix to require none.
	Output string
}

// NoFix as Case.Output asserts that applying fixes leaves the file unchanged.
const NoFix = "\x00unchanged"

// Expected describes one diagnostic. Zero positions are not checked.
type Expected struct {
	MessageID string
	Message   string

	// Path is checked for multi-file cases.
	Path string

	Line, Column       int
	EndLine, EndColumn int

	// Suggestions, when non-nil, must match the diagnostic's fixes one to one.
	Suggestions []Suggestion
}

// Suggestion is a fix and the text of the diagnostic's own file after
// applying only that fix.
type Suggestion struct {
	MessageID string
	Output    string
}

// Result is what a rule reported for a case.
type Result struct {
	Files       *source.FileSet
	Main        source.FileID
	Diagnostics []diag.Diagnostic
}

// Run checks valid and invalid cases as subtests of t.
func Run(t *testing.T, r rule.Rule, valid, invalid []Case) {
	t.Helper()
	for i, c := range valid {
		t.Run(caseName("valid", i, c), func(t *testing.T) {
			res := Lint(t, r, c)
			assert.Empty(t, describe(res), "expected no diagnostics for %q", c.Code)
		})
	}
	for i, c := range invalid {
		t.Run(caseName("invalid", i, c), func(t *testing.T) {
			require.NotEmpty(t, c.Errors, "invalid case without expected errors")
			checkInvalid(t, r, c, Lint(t, r, c))
		})
	}
}

// Lint loads the case, runs the rule alone and returns its diagnostics.
// Syntax errors and rule defects fail the test.
func Lint(t *testing.T, r rule.Rule, c Case) Result {
	t.Helper()
	mainPath := c.Path
	if mainPath == "" {
		mainPath = DefaultPath
	}
	files := []driver.VirtualFile{{Path: mainPath, Content: []byte(c.Code)}}
	for _, f := range c.Files {
		files = append(files, driver.VirtualFile{Path: f.Path, Content: []byte(f.Code)})
	}

	ctx := context.Background()
	loaded, err := driver.LoadVirtual(ctx, files, driver.LoadOptions{Jobs: 1})
	require.NoError(t, err)
	require.Empty(t, describeBag(loaded.Unit.Files, loaded.Bag), "case does not parse")

	inst, err := r.Instantiate(config.OptionsFromTOML(r.Name(), c.Options), r.DefaultSeverity())
	require.NoError(t, err, "options %q", c.Options)

	res, err := driver.Run(ctx, loaded.Unit, []rule.Instance{inst}, driver.Options{Jobs: 1})
	require.NoError(t, err)
	if res.Defects > 0 {
		require.FailNow(t, "rule failed", "%s", strings.Join(describeBag(loaded.Unit.Files, res.Bag), "\n"))
	}

	out := Result{Files: loaded.Unit.Files}
	if len(loaded.Unit.Trees) > 0 {
		out.Main = loaded.Unit.Trees[0].File
	}
	for _, d := range res.Bag.Items() {
		if d.Rule == r.Name() {
			out.Diagnostics = append(out.Diagnostics, d)
		}
	}
	return out
}

func checkInvalid(t *testing.T, r rule.Rule, c Case, res Result) {
	t.Helper()
	require.Len(t, res.Diagnostics, len(c.Errors), "diagnostics:\n%s", strings.Join(describe(res), "\n"))

	for i, want := range c.Errors {
		d := res.Diagnostics[i]
		_, known := r.Messages()[want.MessageID]
		require.True(t, known, "error %d: rule has no message %q", i, want.MessageID)
		assert.Equal(t, want.MessageID, d.MessageID, "error %d: message id", i)
		if want.Message != "" {
			assert.Equal(t, want.Message, d.Message, "error %d: message", i)
		}
		if want.Path != "" {
			f, ok := res.Files.Lookup(d.Primary.File)
			require.True(t, ok)
			assert.Equal(t, want.Path, f.Path, "error %d: path", i)
		}
		start, end := res.Files.Resolve(d.Primary)
		checkPos(t, i, "line", want.Line, int(start.Line))
		checkPos(t, i, "column", want.Column, int(start.Col))
		checkPos(t, i, "end line", want.EndLine, int(end.Line))
		checkPos(t, i, "end column", want.EndColumn, int(end.Col))

		if want.Suggestions != nil {
			checkSuggestions(t, i, res, d, want.Suggestions)
		}
	}

	if c.Output != "" {
		got := applyAll(t, res)
		want := c.Output
		if want == NoFix {
			want = c.Code
		}
		assert.Equal(t, want, got, "output after fixes")
	}
}

func checkPos(t *testing.T, i int, what string, want, got int) {
	t.Helper()
	if want != 0 {
		assert.Equal(t, want, got, "error %d: %s", i, what)
	}
}

func checkSuggestions(t *testing.T, i int, res Result, d diag.Diagnostic, want []Suggestion) {
	t.Helper()
	fixes, err := d.Fixes()
	require.NoError(t, err, "error %d: suggestions", i)
	require.Len(t, fixes, len(want), "error %d: suggestion count", i)
	for j, w := range want {
		assert.Equal(t, w.MessageID, fixes[j].MessageID, "error %d, suggestion %d: message id", i, j)
		out, err := fix.ApplySuggestion(res.Files, fixes[j])
		require.NoError(t, err, "error %d, suggestion %d", i, j)
		// правки относятся к файлу, которому принадлежит якорь
		owner := d.Primary.File
		text, ok := out[owner]
		if !ok {
			text = string(res.Files.Get(owner).Content)
		}
		assert.Equal(t, w.Output, text, "error %d, suggestion %d: output", i, j)
	}
}

// applyAll applies every always-safe fix of the main file the way `tslint fix --all` would.
func applyAll(t *testing.T, res Result) string {
	t.Helper()
	original := string(res.Files.Get(res.Main).Content)
	var own []diag.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Primary.File == res.Main {
			own = append(own, d)
		}
	}
	applied, err := fix.Apply(res.Files, own, fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: true})
	if errors.Is(err, fix.ErrNoFixes) {
		return original
	}
	require.NoError(t, err)
	for _, change := range applied.FileChanges {
		if f, ok := res.Files.GetByPath(change.Path); ok && f.ID == res.Main {
			return change.Output
		}
	}
	return original
}

func describe(res Result) []string {
	var out []string
	for _, d := range res.Diagnostics {
		start, _ := res.Files.Resolve(d.Primary)
		out = append(out, fmt.Sprintf("%d:%d %s %s", start.Line, start.Col, d.MessageID, d.Message))
	}
	return out
}

func describeBag(files *source.FileSet, bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, fmt.Sprintf("%s %s: %s", d.Code.ID(), files.Text(d.Primary), d.Message))
	}
	return out
}

func caseName(kind string, i int, c Case) string {
	if c.Name != "" {
		return fmt.Sprintf("%s/%d_%s", kind, i, c.Name)
	}
	return fmt.Sprintf("%s/%d", kind, i)
}
