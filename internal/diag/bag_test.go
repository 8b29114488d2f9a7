package diag

import (
	"testing"

	"tslint/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := range 3 {
		b.Add(New(SevWarning, LintCustom, sp(uint32(i), uint32(i+1)), "x"))
	}
	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", b.Len(), b.Dropped())
	}

	unlimited := NewBag(0)
	for range 100 {
		unlimited.Add(New(SevInfo, LintCustom, sp(0, 0), "x"))
	}
	if unlimited.Len() != 100 {
		t.Fatalf("unlimited len = %d", unlimited.Len())
	}

	unlimited.Limit(10)
	if unlimited.Len() != 10 || unlimited.Dropped() != 90 {
		t.Fatalf("after Limit: len=%d dropped=%d", unlimited.Len(), unlimited.Dropped())
	}
	unlimited.Limit(0)
	if unlimited.Len() != 10 {
		t.Fatalf("Limit(0) trimmed to %d", unlimited.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevWarning, LintCustom, sp(5, 6), "late"))
	b.Add(New(SevWarning, LintCustom, sp(0, 2), "warn"))
	b.Add(New(SevError, LintCustom, sp(0, 2), "err"))
	b.Add(New(SevWarning, LintCustom, sp(5, 6), "late"))
	b.Sort()
	got := make([]string, 0, b.Len())
	for _, d := range b.Items() {
		got = append(got, d.Message)
	}
	want := []string{"err", "warn", "late", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("after dedup len = %d", b.Len())
	}
}

func TestBagMergeAndFilter(t *testing.T) {
	a, b := NewBag(1), NewBag(1)
	a.Add(New(SevError, LintCustom, sp(0, 1), "a"))
	b.Add(New(SevInfo, LintCustom, sp(1, 2), "b"))
	a.Merge(b)
	if a.Len() != 2 || !a.HasErrors() {
		t.Fatalf("merge: len=%d", a.Len())
	}
	a.Filter(func(d Diagnostic) bool { return d.Severity != SevError })
	if a.Len() != 1 || a.HasErrors() || a.HasWarnings() {
		t.Fatalf("filter left %d items", a.Len())
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"error": SevError, "Warn": SevWarning, "warning": SevWarning, "info": SevInfo} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

