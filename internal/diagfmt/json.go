package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"tslint/internal/diag"
	"tslint/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
	OldText  string       `json:"old_text,omitempty"`
}

// FixPreviewJSON is one file of a suggestion: the touched lines before and
// after all of the suggestion's edits in that file.
type FixPreviewJSON struct {
	File      string   `json:"file"`
	StartLine uint32   `json:"start_line"`
	Before    []string `json:"before"`
	After     []string `json:"after"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	MessageID     string        `json:"message_id,omitempty"`
	Kind          string        `json:"kind"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
	// Preview is filled with JSONOpts.IncludePreviews.
	Preview      []FixPreviewJSON `json:"preview,omitempty"`
	PreviewError string           `json:"preview_error,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity  string        `json:"severity"`
	Code      string        `json:"code"`
	Rule      string        `json:"rule,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Message   string        `json:"message"`
	Location  *LocationJSON `json:"location,omitempty"`
	Notes     []NoteJSON    `json:"notes,omitempty"`
	Fixes     []FixJSON     `json:"fixes,omitempty"`
	// FixError is set when the suggestions could not be built.
	FixError string `json:"fix_error,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	// Dropped counts diagnostics cut by the bag limit.
	Dropped int `json:"dropped,omitempty"`
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	f := fs.Get(span.File)
	loc := LocationJSON{
		File:      formatPath(f, fs, pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}

	// Добавляем позиции строк/колонок если требуется
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}

	return loc
}

func optionalLocation(span source.Span, code diag.Code, fs *source.FileSet, opts JSONOpts) *LocationJSON {
	if !located(span, code, fs) {
		return nil
	}
	loc := makeLocation(span, fs, opts.PathMode, opts.IncludePositions)
	return &loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
// Отложенные исправления вычисляются здесь, только если они запрошены.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) (DiagnosticsOutput, error) {
	diagnostics := make([]DiagnosticJSON, 0, bag.Len())

	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	for i := range maxItems {
		d := items[i]

		diagJSON := DiagnosticJSON{
			Severity:  d.Severity.String(),
			Code:      d.Code.ID(),
			Rule:      d.Rule,
			MessageID: d.MessageID,
			Message:   d.Message,
			Location:  optionalLocation(d.Primary, d.Code, fs, opts),
		}

		includeNotes := opts.IncludeNotes || d.Code == diag.ObsTimings
		if includeNotes && len(d.Notes) > 0 {
			diagJSON.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				diagJSON.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: optionalLocation(note.Span, d.Code, fs, opts),
				}
			}
		}

		if opts.IncludeFixes && d.HasSuggestions() {
			fixes, err := d.Fixes()
			if err != nil {
				diagJSON.FixError = err.Error()
			}
			diagJSON.Fixes = buildFixes(sortFixes(fixes), fs, opts)
		}

		diagnostics = append(diagnostics, diagJSON)
	}

	output := DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Dropped:     bag.Dropped() + len(items) - maxItems,
	}

	return output, nil
}

func buildFixes(fixes []diag.Fix, fs *source.FileSet, opts JSONOpts) []FixJSON {
	if len(fixes) == 0 {
		return nil
	}
	out := make([]FixJSON, 0, len(fixes))
	for _, fix := range fixes {
		fixJSON := FixJSON{
			ID:            fix.ID,
			Title:         fix.Title,
			MessageID:     fix.MessageID,
			Kind:          fix.Kind.String(),
			Applicability: fix.Applicability.String(),
			IsPreferred:   fix.IsPreferred,
		}
		if len(fix.Edits) > 0 {
			fixJSON.Edits = make([]FixEditJSON, len(fix.Edits))
			for k, edit := range fix.Edits {
				fixJSON.Edits[k] = FixEditJSON{
					Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
					NewText:  edit.NewText,
					OldText:  edit.OldText,
				}
			}
		}
		if opts.IncludePreviews && len(fix.Edits) > 0 {
			previews, err := previewFix(fs, fix)
			if err != nil {
				fixJSON.PreviewError = err.Error()
			}
			for _, pv := range previews {
				fixJSON.Preview = append(fixJSON.Preview, FixPreviewJSON{
					File:      formatPath(pv.file, fs, opts.PathMode),
					StartLine: pv.startLine,
					Before:    pv.before,
					After:     pv.after,
				})
			}
		}
		out = append(out, fixJSON)
	}
	return out
}

// sortFixes orders fixes for display: preferred first, then the safest.
func sortFixes(fixes []diag.Fix) []diag.Fix {
	sorted := append([]diag.Fix(nil), fixes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		fi, fj := sorted[i], sorted[j]
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred && !fj.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		return fi.Kind < fj.Kind
	})
	return sorted
}

// JSON форматирует диагностики в JSON формат.
// Выводит массив диагностик с полной информацией о местоположении, заметках и исправлениях.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	output, err := BuildDiagnosticsOutput(bag, fs, opts)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
