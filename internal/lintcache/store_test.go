package lintcache

import (
	"errors"
	"path/filepath"
	"testing"

	"tslint/internal/diag"
	"tslint/internal/source"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "lint.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(file source.FileID) diag.Diagnostic {
	sp := source.Span{File: file, Start: 10, End: 12}
	d := diag.New(diag.SevWarning, diag.LintNoUnnecessaryNonNull, sp, "unnecessary non-null assertion")
	d.Rule = "no-unnecessary-non-null"
	d.MessageID = "unnecessary"
	d = d.WithNote(source.Span{File: file, Start: 0, End: 3}, "declared here")
	return d.WithSuggestions(diag.Deferred(func() ([]diag.Fix, error) {
		return []diag.Fix{{
			Title: "remove",
			Edits: []diag.TextEdit{{Span: source.Span{File: file, Start: 11, End: 12}}},
		}}, nil
	}))
}

func TestRoundTripRebindsFile(t *testing.T) {
	s := openTemp(t)
	key := Key{FileHash: [32]byte{1}, Rule: "no-unnecessary-non-null", Fingerprint: "abc", Engine: "0.1.0"}

	if _, ok, err := s.Get(key, 0); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := s.Put(key, 3, []diag.Diagnostic{sample(3)}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(key, 7)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d diagnostics", len(got))
	}
	d := got[0]
	if d.Primary != (source.Span{File: 7, Start: 10, End: 12}) || d.Rule != "no-unnecessary-non-null" || d.MessageID != "unnecessary" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span.File != 7 {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if !d.Suggestions.Resolved() {
		t.Fatal("cached suggestions should be eager")
	}
	fixes, err := d.Fixes()
	if err != nil || len(fixes) != 1 || fixes[0].Edits[0].Span.File != 7 {
		t.Fatalf("fixes = %+v, %v", fixes, err)
	}

	hits, misses := s.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d", hits, misses)
	}
	if n, _ := s.Len(""); n != 1 {
		t.Errorf("Len = %d", n)
	}
}

func TestKeyPartsMatter(t *testing.T) {
	s := openTemp(t)
	key := Key{FileHash: [32]byte{1}, Rule: "r", Fingerprint: "a", Engine: "1"}
	if err := s.Put(key, 0, nil); err != nil {
		t.Fatal(err)
	}
	for _, other := range []Key{
		{FileHash: [32]byte{2}, Rule: "r", Fingerprint: "a", Engine: "1"},
		{FileHash: [32]byte{1}, Rule: "q", Fingerprint: "a", Engine: "1"},
		{FileHash: [32]byte{1}, Rule: "r", Fingerprint: "b", Engine: "1"},
		{FileHash: [32]byte{1}, Rule: "r", Fingerprint: "a", Engine: "2"},
	} {
		if _, ok, _ := s.Get(other, 0); ok {
			t.Errorf("unexpected hit for %+v", other)
		}
	}
	// пустой результат тоже кешируется
	if got, ok, _ := s.Get(key, 0); !ok || len(got) != 0 {
		t.Fatalf("empty result: ok=%v len=%d", ok, len(got))
	}
}

func TestNotCacheable(t *testing.T) {
	s := openTemp(t)
	key := Key{Rule: "r"}

	foreign := diag.New(diag.SevError, diag.LintCustom, source.Span{File: 1}, "x")
	if err := s.Put(key, 0, []diag.Diagnostic{foreign}); !errors.Is(err, ErrNotCacheable) {
		t.Fatalf("foreign span: %v", err)
	}

	failing := diag.New(diag.SevError, diag.LintCustom, source.Span{}, "x").
		WithSuggestions(diag.Deferred(func() ([]diag.Fix, error) { return nil, errors.New("boom") }))
	if err := s.Put(key, 0, []diag.Diagnostic{failing}); !errors.Is(err, ErrNotCacheable) {
		t.Fatalf("failed producer: %v", err)
	}
}

func TestDropAllAndNil(t *testing.T) {
	s := openTemp(t)
	key := Key{Rule: "r"}
	if err := s.Put(key, 0, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(key, 0); ok {
		t.Fatal("hit after DropAll")
	}

	var nilStore *Store
	if _, ok, err := nilStore.Get(key, 0); ok || err != nil {
		t.Fatal("nil store must miss")
	}
	if err := nilStore.Put(key, 0, nil); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	p, err := DefaultPath("tslint")
	if err != nil || p != filepath.Join("/tmp/xdg", "tslint", "lint.db") {
		t.Fatalf("DefaultPath = %q, %v", p, err)
	}
}
