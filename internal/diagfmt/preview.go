package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/source"
)

// filePreview is the block of whole lines one suggestion touches in one
// file, before and after all of its edits in that file.
type filePreview struct {
	file      *source.File
	startLine uint32
	before    []string
	after     []string
}

// previewFix renders a suggestion as a whole. Edits are grouped by owning
// file in order of first appearance and each group goes through the same
// edit engine as `tslint fix`, so two edits on one line give one after-line.
func previewFix(fs *source.FileSet, f diag.Fix) ([]filePreview, error) {
	if fs == nil {
		return nil, errors.New("nil FileSet")
	}
	var order []source.FileID
	byFile := make(map[source.FileID][]diag.TextEdit)
	for _, e := range f.Edits {
		if _, ok := byFile[e.Span.File]; !ok {
			order = append(order, e.Span.File)
		}
		byFile[e.Span.File] = append(byFile[e.Span.File], e)
	}

	out := make([]filePreview, 0, len(order))
	for _, id := range order {
		p, err := previewFile(fs, id, byFile[id])
		if err != nil {
			return nil, fmt.Errorf("fix %s: %w", fixLabel(f), err)
		}
		out = append(out, p)
	}
	return out, nil
}

func previewFile(fs *source.FileSet, id source.FileID, edits []diag.TextEdit) (filePreview, error) {
	file := fs.Get(id)
	if file == nil {
		return filePreview{}, fmt.Errorf("file %d not found in FileSet", id)
	}
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return filePreview{}, fmt.Errorf("len file content overflow: %w", err)
	}

	lo, hi := edits[0].Span.Start, edits[0].Span.End
	for _, e := range edits[1:] {
		lo, hi = min(lo, e.Span.Start), max(hi, e.Span.End)
	}
	if lo > hi || hi > size {
		return filePreview{}, fmt.Errorf("%w: [%d,%d) in %s", fix.ErrEditOutOfRange, lo, hi, file.Path)
	}

	startPos, endPos := fs.Resolve(source.Span{File: id, Start: lo, End: hi})
	blockStart := lineStart(file, startPos.Line, size)
	blockEnd := max(lineEnd(file, max(endPos.Line, startPos.Line), size), blockStart)
	block := string(file.Content[blockStart:blockEnd])

	// правки переносятся в координаты блока
	local := make([]diag.TextEdit, len(edits))
	for i, e := range edits {
		e.Span = source.Span{Start: e.Span.Start - blockStart, End: e.Span.End - blockStart}
		local[i] = e
	}
	after, err := fix.ApplyEdits(block, local)
	if err != nil {
		return filePreview{}, err
	}
	return filePreview{
		file:      file,
		startLine: startPos.Line,
		before:    splitPreviewLines(block),
		after:     splitPreviewLines(after),
	}, nil
}

func fixLabel(f diag.Fix) string {
	if f.ID != "" {
		return f.ID
	}
	return fmt.Sprintf("%q", f.Title)
}

// splitPreviewLines drops the final newline of the block, nothing else.
func splitPreviewLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// lineStart is the offset of the first byte of a 1-based line.
func lineStart(f *source.File, line, size uint32) uint32 {
	if line <= 1 {
		return 0
	}
	if idx := int(line - 2); idx < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return size
}

// lineEnd is the offset just past the newline that ends a 1-based line.
func lineEnd(f *source.File, line, size uint32) uint32 {
	if line == 0 {
		return 0
	}
	if idx := int(line - 1); idx < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return size
}
