package lintcache

import (
	"errors"

	"tslint/internal/diag"
	"tslint/internal/source"
)

// Current schema version - increment when payload format changes
const schemaVersion uint16 = 1

// ErrNotCacheable is returned by Put for results that cannot be replayed:
// spans outside the keyed file or suggestions that failed to resolve.
var ErrNotCacheable = errors.New("lintcache: result is not cacheable")

// payload is what one (file, rule, options, engine) key stores.
// Spans are kept as offsets; the file id is rebound on load.
type payload struct {
	Schema      uint16
	Diagnostics []entry
}

type entry struct {
	Severity  uint8
	Code      uint16
	Rule      string
	MessageID string
	Message   string
	Start     uint32
	End       uint32
	Notes     []note
	Fixes     []fix
	// HasFixes отличает "нет подсказок" от пустого набора
	HasFixes bool
}

type note struct {
	Start, End uint32
	Msg        string
}

type fix struct {
	ID            string
	Title         string
	MessageID     string
	Kind          uint8
	Applicability uint8
	Preferred     bool
	Edits         []edit
}

type edit struct {
	Start, End uint32
	NewText    string
	OldText    string
}

func encode(file source.FileID, diags []diag.Diagnostic) (*payload, error) {
	p := &payload{Schema: schemaVersion, Diagnostics: make([]entry, 0, len(diags))}
	for _, d := range diags {
		if d.Primary.File != file {
			return nil, ErrNotCacheable
		}
		e := entry{
			Severity:  uint8(d.Severity),
			Code:      uint16(d.Code),
			Rule:      d.Rule,
			MessageID: d.MessageID,
			Message:   d.Message,
			Start:     d.Primary.Start,
			End:       d.Primary.End,
		}
		for _, n := range d.Notes {
			if n.Span.File != file {
				return nil, ErrNotCacheable
			}
			e.Notes = append(e.Notes, note{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		if d.HasSuggestions() {
			fixes, err := d.Fixes()
			if err != nil {
				return nil, ErrNotCacheable
			}
			e.HasFixes = true
			for _, f := range fixes {
				ef := fix{
					ID:            f.ID,
					Title:         f.Title,
					MessageID:     f.MessageID,
					Kind:          uint8(f.Kind),
					Applicability: uint8(f.Applicability),
					Preferred:     f.IsPreferred,
				}
				for _, ed := range f.Edits {
					if ed.Span.File != file {
						return nil, ErrNotCacheable
					}
					ef.Edits = append(ef.Edits, edit{
						Start:   ed.Span.Start,
						End:     ed.Span.End,
						NewText: ed.NewText,
						OldText: ed.OldText,
					})
				}
				e.Fixes = append(e.Fixes, ef)
			}
		}
		p.Diagnostics = append(p.Diagnostics, e)
	}
	return p, nil
}

func (p *payload) decode(file source.FileID) []diag.Diagnostic {
	span := func(start, end uint32) source.Span {
		return source.Span{File: file, Start: start, End: end}
	}
	out := make([]diag.Diagnostic, 0, len(p.Diagnostics))
	for _, e := range p.Diagnostics {
		d := diag.New(diag.Severity(e.Severity), diag.Code(e.Code), span(e.Start, e.End), e.Message)
		d.Rule = e.Rule
		d.MessageID = e.MessageID
		for _, n := range e.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: span(n.Start, n.End), Msg: n.Msg})
		}
		if e.HasFixes {
			fixes := make([]diag.Fix, 0, len(e.Fixes))
			for _, f := range e.Fixes {
				df := diag.Fix{
					ID:            f.ID,
					Title:         f.Title,
					MessageID:     f.MessageID,
					Kind:          diag.FixKind(f.Kind),
					Applicability: diag.FixApplicability(f.Applicability),
					IsPreferred:   f.Preferred,
				}
				for _, ed := range f.Edits {
					df.Edits = append(df.Edits, diag.TextEdit{
						Span:    span(ed.Start, ed.End),
						NewText: ed.NewText,
						OldText: ed.OldText,
					})
				}
				fixes = append(fixes, df)
			}
			d.Suggestions = diag.Eager(fixes...)
		}
		out = append(out, d)
	}
	return out
}
