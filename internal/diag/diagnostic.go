package diag

import (
	"tslint/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces Span with NewText. A zero-length span is an insertion.
// OldText, when set, must match the current text under Span.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindRefactor:
		return "refactor"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	default:
		return "quickfix"
	}
}

// FixApplicability says how confident the producer is in a fix.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// Fix is one suggestion: a titled group of edits that must be applied together.
type Fix struct {
	ID            string
	Title         string
	MessageID     string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is immutable once reported.
type Diagnostic struct {
	Severity    Severity
	Code        Code
	Rule        string // имя правила; пусто для диагностик движка
	MessageID   string
	Message     string
	Primary     source.Span
	Notes       []Note
	Suggestions *Suggestions
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	notes := make([]Note, len(d.Notes), len(d.Notes)+1)
	copy(notes, d.Notes)
	d.Notes = append(notes, Note{Span: sp, Msg: msg})
	return d
}

// WithSuggestions replaces the suggestion set.
func (d Diagnostic) WithSuggestions(s *Suggestions) Diagnostic {
	d.Suggestions = s
	return d
}

// Fixes resolves the diagnostic's suggestions.
func (d Diagnostic) Fixes() ([]Fix, error) {
	return d.Suggestions.Resolve()
}

// HasSuggestions reports whether the diagnostic carries any suggestion source.
func (d Diagnostic) HasSuggestions() bool {
	return !d.Suggestions.Empty()
}
