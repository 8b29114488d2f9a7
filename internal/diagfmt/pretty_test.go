package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()

	content := []byte("const s = \"unterminated string\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.ts", content)

	// Устанавливаем базовую директорию для relative paths
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	d := diag.New(
		diag.SevError,
		diag.SynParseError,
		source.Span{File: fileID, Start: 10, End: 30},
		"Unterminated string literal",
	)
	bag.Add(d)

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{
			name:     "Absolute path",
			mode:     PathModeAbsolute,
			contains: "/home/user/project/src/test.ts",
		},
		{
			name:     "Relative path",
			mode:     PathModeRelative,
			contains: "src/test.ts",
		},
		{
			name:     "Basename only",
			mode:     PathModeBasename,
			contains: "test.ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := PrettyOpts{
				Color:    false,
				Context:  1,
				PathMode: tt.mode,
			}

			Pretty(&buf, bag, fs, opts)
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR") {
				t.Error("Expected ERROR in output")
			}
			if !strings.Contains(output, "SYN2001") {
				t.Error("Expected SYN2001 code in output")
			}
			if !strings.Contains(output, "Unterminated string") {
				t.Error("Expected error message in output")
			}
		})
	}
}

// TestPathModeAuto проверяет авто-режим выбора пути
func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "Short path - as is",
			path:     "test.ts",
			expected: "test.ts",
		},
		{
			name:     "Long absolute path - basename",
			path:     "/very/long/absolute/path/to/some/nested/directory/file.ts",
			expected: "file.ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte("let x = 42\n")
			fileID := fs.AddVirtual(tt.path, content)

			bag := diag.NewBag(10)
			d := diag.New(
				diag.SevWarning,
				diag.LintNoUnnecessaryNonNull,
				source.Span{File: fileID, Start: 8, End: 10},
				"Test warning",
			)
			bag.Add(d)

			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			output := buf.String()

			if !strings.Contains(output, tt.expected+":1:9") {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.expected, output)
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.ts", []byte("const x = 1;\nconst y = x!;\n"))

	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.LintNoUnnecessaryNonNull, source.Span{File: fileID, Start: 23, End: 25}, "This assertion is unnecessary.")
	d.Rule = "no-unnecessary-non-null"
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	output := buf.String()

	want := "a.ts:2:11: WARNING LNT1001 [no-unnecessary-non-null]: This assertion is unnecessary.\n"
	if !strings.HasPrefix(output, want) {
		t.Fatalf("unexpected header, got:\n%s", output)
	}
	if !strings.Contains(output, "2 | const y = x!;\n") {
		t.Fatalf("expected source line, got:\n%s", output)
	}
	if !strings.Contains(output, "  | "+strings.Repeat(" ", 10)+"^~\n") {
		t.Fatalf("expected underline under x!, got:\n%s", output)
	}
	if strings.Contains(output, "1 | const x = 1;") {
		t.Fatalf("context 0 must not print neighbours, got:\n%s", output)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("import { a } from './b'\n")
	fileID := fs.AddVirtual("test.ts", content)

	bag := diag.NewBag(4)
	primary := source.Span{File: fileID, Start: 9, End: 10}
	d := diag.New(diag.SevWarning, diag.LintNoUnusedExport, primary, "unused import")

	noteSpan := source.Span{File: fileID, Start: 13, End: 17}
	d = d.WithNote(noteSpan, "declared here")

	insertSpan := source.Span{File: fileID, Start: 23, End: 23}
	semicolon := diag.Fix{
		Title: "insert semicolon",
		Edits: []diag.TextEdit{fix.Edit(insertSpan, ";")},
	}
	wrap := fix.WrapWith(
		"wrap import block",
		source.Span{File: fileID, Start: 0, End: 23},
		"/* ",
		" */",
		fix.WithID("wrap-import-001"),
	)
	d = d.WithSuggestions(diag.Deferred(func() ([]diag.Fix, error) {
		return []diag.Fix{wrap, semicolon}, nil
	}))
	bag.Add(d)

	var buf bytes.Buffer
	opts := PrettyOpts{
		PathMode:  PathModeBasename,
		ShowNotes: true,
		ShowFixes: true,
	}
	Pretty(&buf, bag, fs, opts)

	output := buf.String()

	if !strings.Contains(output, "note: test.ts:1:14: declared here") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	// безопасное исправление идёт первым
	if !strings.Contains(output, "fix #1: insert semicolon [always-safe]") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, "apply=\";\"") {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #2: wrap import block [safe-with-heuristics] id=wrap-import-001") {
		t.Fatalf("expected deferred fix id in output, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("const a = 42 // missing semicolon")
	fileID := fs.AddVirtual("example.ts", content)

	bag := diag.NewBag(2)
	insertSpan := source.Span{File: fileID, Start: 12, End: 12}
	d := diag.New(diag.SevWarning, diag.LintCustom, insertSpan, "missing semicolon")
	d = d.WithSuggestions(diag.Eager(diag.Fix{
		Title: "insert semicolon",
		Edits: []diag.TextEdit{fix.Edit(insertSpan, ";")},
	}))
	bag.Add(d)

	var buf bytes.Buffer
	opts := PrettyOpts{
		PathMode:    PathModeBasename,
		ShowFixes:   true,
		ShowPreview: true,
	}
	Pretty(&buf, bag, fs, opts)

	output := buf.String()
	if !strings.Contains(output, "preview example.ts:1:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- const a = 42 // missing semicolon") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, "+ const a = 42; // missing semicolon") {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}

func TestPrettyFixError(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.ts", []byte("x;"))

	bag := diag.NewBag(2)
	d := diag.New(diag.SevWarning, diag.LintCustom, source.Span{File: fileID, Start: 0, End: 1}, "bad")
	d = d.WithSuggestions(diag.Deferred(func() ([]diag.Fix, error) {
		return nil, &fix.OverlapError{}
	}))
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true})
	if !strings.Contains(buf.String(), "fix error:") {
		t.Fatalf("expected fix error line, got:\n%s", buf.String())
	}
}

// Диагностики прогона печатаются без позиции, даже если FileSet не пуст.
func TestPrettyUnlocated(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("a.ts", []byte("const a = 1;\n"))

	bag := diag.NewBag(2)
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings (lint): total 1.00 ms")
	d = d.WithNote(source.Span{}, `{"kind":"lint"}`)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	output := buf.String()

	if strings.Contains(output, "a.ts") {
		t.Fatalf("run-level diagnostic must not point into a file, got:\n%s", output)
	}
	if !strings.HasPrefix(output, "INFO OBS6001: timings") {
		t.Fatalf("unexpected header, got:\n%s", output)
	}
	if !strings.Contains(output, "note: {\"kind\":\"lint\"}") {
		t.Fatalf("timing payload must always be shown, got:\n%s", output)
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("src/a.ts", []byte("const y = x!;"))

	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.LintNoUnnecessaryNonNull, source.Span{File: fileID, Start: 10, End: 12}, "unnecessary")
	d.Rule = "no-unnecessary-non-null"
	bag.Add(d)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: boom"))

	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeAuto)

	want := "src/a.ts:1:11: WARNING LNT1001 [no-unnecessary-non-null]: unnecessary\n" +
		"ERROR IO4001: failed to load file: boom\n"
	if buf.String() != want {
		t.Fatalf("unexpected short output:\n%s", buf.String())
	}
}

func TestSummary(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynParseError, source.Span{}, "e"))
	bag.Add(diag.New(diag.SevWarning, diag.LintCustom, source.Span{}, "w"))
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "t"))

	var buf bytes.Buffer
	Summary(&buf, bag, PrettyOpts{})
	if got := buf.String(); got != "1 error, 1 warning, 0 info\n" {
		t.Fatalf("unexpected summary %q", got)
	}

	buf.Reset()
	Summary(&buf, diag.NewBag(1), PrettyOpts{})
	if got := buf.String(); got != "no problems found\n" {
		t.Fatalf("unexpected summary %q", got)
	}
}
