package fix

import (
	"errors"
	"fmt"
	"sort"

	"tslint/internal/diag"
	"tslint/internal/source"
)

var (
	// ErrEditOutOfRange is returned for edits that do not fit the text.
	ErrEditOutOfRange = errors.New("edit span out of range")
	// ErrGuardMismatch is returned when TextEdit.OldText does not match the text.
	ErrGuardMismatch = errors.New("existing text does not match expected content")
)

// OverlapError reports two edits of one file whose ranges intersect.
type OverlapError struct {
	Prev, Next diag.TextEdit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping edits [%d,%d) and [%d,%d)",
		e.Prev.Span.Start, e.Prev.Span.End, e.Next.Span.Start, e.Next.Span.End)
}

// sortEdits orders edits by (start, end): an insertion at an offset goes
// before a replacement starting there. Identical spans keep their input
// order, so several insertions at one offset come out as given.
func sortEdits(edits []diag.TextEdit) []diag.TextEdit {
	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Span, sorted[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	return sorted
}

// checkEdits validates sorted edits against a text of length n.
// Edits that only touch at a boundary are fine; start < previous end is not.
func checkEdits(text string, sorted []diag.TextEdit) error {
	n := len(text)
	for i, e := range sorted {
		start, end := int(e.Span.Start), int(e.Span.End)
		if end < start || end > n {
			return fmt.Errorf("%w: [%d,%d) in text of %d bytes", ErrEditOutOfRange, start, end, n)
		}
		if e.OldText != "" && text[start:end] != e.OldText {
			return fmt.Errorf("%w: want %q at [%d,%d), found %q", ErrGuardMismatch, e.OldText, start, end, text[start:end])
		}
		if i > 0 && start < int(sorted[i-1].Span.End) {
			return &OverlapError{Prev: sorted[i-1], Next: e}
		}
	}
	return nil
}

// ApplyEdits rewrites text with edits that all belong to the same file.
// Edits are sorted by start, checked for overlap, and applied from the
// rightmost one so that earlier offsets stay valid.
func ApplyEdits(text string, edits []diag.TextEdit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}
	sorted := sortEdits(edits)
	if err := checkEdits(text, sorted); err != nil {
		return "", err
	}

	buf := []byte(text)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		suffix := append([]byte(nil), buf[e.Span.End:]...)
		buf = append(append(buf[:e.Span.Start], e.NewText...), suffix...)
	}
	return string(buf), nil
}

// ApplySuggestion applies one fix to the original contents of every file it
// touches and returns the rewritten text per file. The FileSet is not modified.
func ApplySuggestion(fs *source.FileSet, fix diag.Fix) (map[source.FileID]string, error) {
	if fs == nil {
		return nil, fmt.Errorf("fix: FileSet is nil")
	}
	out := make(map[source.FileID]string)
	for _, fileID := range sortedFileIDs(groupEditsByFile(fix.Edits)) {
		file, ok := fs.Lookup(fileID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown file %d", ErrEditOutOfRange, fileID)
		}
		text, err := ApplyEdits(string(file.Content), editsForFile(fix.Edits, fileID))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Path, err)
		}
		out[fileID] = text
	}
	return out, nil
}

func editsForFile(edits []diag.TextEdit, id source.FileID) []diag.TextEdit {
	out := make([]diag.TextEdit, 0, len(edits))
	for _, e := range edits {
		if e.Span.File == id {
			out = append(out, e)
		}
	}
	return out
}

func sortedFileIDs[T any](m map[source.FileID]T) []source.FileID {
	ids := make([]source.FileID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
