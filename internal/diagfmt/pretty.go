package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tslint/internal/diag"
	"tslint/internal/source"
)

type palette struct {
	err   *color.Color
	warn  *color.Color
	info  *color.Color
	path  *color.Color
	code  *color.Color
	gut   *color.Color
	caret *color.Color
	note  *color.Color
	fix   *color.Color
	del   *color.Color
	add   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan, color.Bold),
		path:  color.New(color.Bold),
		code:  color.New(color.FgMagenta),
		gut:   color.New(color.FgBlue),
		caret: color.New(color.FgRed, color.Bold),
		note:  color.New(color.FgCyan),
		fix:   color.New(color.FgGreen),
		del:   color.New(color.FgRed),
		add:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.code, p.gut, p.caret, p.note, p.fix, p.del, p.add} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// located сообщает, указывает ли span на реальное место в файле.
// Диагностики уровня прогона (тайминги, сбои агрегации, ошибки загрузки)
// несут нулевой span и печатаются без позиции.
func located(span source.Span, code diag.Code, fs *source.FileSet) bool {
	switch code {
	case diag.ObsTimings, diag.EngAggregateFailure, diag.IOLoadFileError, diag.IOWalkError:
		return false
	}
	if fs == nil {
		return false
	}
	if span == (source.Span{}) && code >= diag.EngInfo {
		return false
	}
	f, ok := fs.Lookup(span.File)
	if !ok {
		return false
	}
	return int(span.End) <= len(f.Content)
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE> [rule]: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	var header strings.Builder
	isLocated := located(d.Primary, d.Code, fs)
	if isLocated {
		header.WriteString(p.path.Sprint(position(d.Primary, fs, opts.PathMode)))
		header.WriteString(": ")
	}
	header.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
	header.WriteByte(' ')
	header.WriteString(p.code.Sprint(d.Code.ID()))
	if d.Rule != "" {
		header.WriteString(" [" + d.Rule + "]")
	}
	header.WriteString(": ")
	header.WriteString(d.Message)
	fmt.Fprintln(w, header.String())

	if isLocated {
		writeSnippet(w, d.Primary, fs, opts, p)
	}

	if opts.ShowNotes || d.Code == diag.ObsTimings {
		for _, note := range d.Notes {
			if located(note.Span, d.Code, fs) {
				fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), position(note.Span, fs, opts.PathMode), note.Msg)
			} else {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), note.Msg)
			}
		}
	}

	if opts.ShowFixes && d.HasSuggestions() {
		writeFixes(w, d, fs, opts, p)
	}
}

func position(span source.Span, fs *source.FileSet, mode PathMode) string {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, fs, mode), start.Line, start.Col)
}

func writeSnippet(w io.Writer, span source.Span, fs *source.FileSet, opts PrettyOpts, p palette) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)

	ctx := uint32(0)
	if opts.Context > 0 {
		ctx = uint32(opts.Context)
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	if maxLine := uint32(len(f.LineIdx)) + 1; last > maxLine { // #nosec G115 -- bounded by file size
		last = maxLine
	}
	gutterWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		line := f.GetLine(ln)
		if ln > start.Line && ln == last && line == "" {
			break
		}
		shown := line
		if opts.Width > 0 && runewidth.StringWidth(shown) > opts.Width {
			shown = runewidth.Truncate(shown, opts.Width, "…")
		}
		fmt.Fprintf(w, "%s %s\n", p.gut.Sprintf("%*d |", gutterWidth, ln), shown)
		if ln != start.Line {
			continue
		}

		from := int(start.Col) - 1
		from = min(max(from, 0), len(line))
		to := len(line)
		if end.Line == start.Line {
			to = min(int(end.Col)-1, len(line))
		}
		to = max(to, from)
		pad := caretPadding(line[:from])
		width := max(runewidth.StringWidth(line[from:to]), 1)
		mark := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s%s\n", p.gut.Sprintf("%*s |", gutterWidth, ""), pad, p.caret.Sprint(mark))
	}
}

// caretPadding сохраняет табы, остальное заменяет пробелами по ширине.
func caretPadding(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func writeFixes(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	fixes, err := d.Fixes()
	if err != nil {
		fmt.Fprintf(w, "  %s %v\n", p.err.Sprint("fix error:"), err)
	}
	for i, f := range sortFixes(fixes) {
		line := fmt.Sprintf("  %s %s [%s]", p.fix.Sprintf("fix #%d:", i+1), f.Title, f.Applicability)
		if f.ID != "" {
			line += " id=" + f.ID
		}
		if f.IsPreferred {
			line += " (preferred)"
		}
		fmt.Fprintln(w, line)
		for _, edit := range f.Edits {
			where := fmt.Sprintf("file#%d", edit.Span.File)
			if located(edit.Span, diag.UnknownCode, fs) {
				where = position(edit.Span, fs, opts.PathMode)
			}
			fmt.Fprintf(w, "    edit %s apply=%q\n", where, edit.NewText)
		}
		if opts.ShowPreview {
			writePreview(w, f, fs, opts, p)
		}
	}
}

// writePreview печатает итог всей подсказки по файлам, а не по отдельным правкам.
func writePreview(w io.Writer, f diag.Fix, fs *source.FileSet, opts PrettyOpts, p palette) {
	previews, err := previewFix(fs, f)
	if err != nil {
		fmt.Fprintf(w, "    %s %v\n", p.err.Sprint("preview unavailable:"), err)
		return
	}
	for _, pv := range previews {
		fmt.Fprintf(w, "    preview %s:%d:\n", formatPath(pv.file, fs, opts.PathMode), pv.startLine)
		for _, l := range pv.before {
			fmt.Fprintf(w, "      %s\n", p.del.Sprint("- "+l))
		}
		for _, l := range pv.after {
			fmt.Fprintf(w, "      %s\n", p.add.Sprint("+ "+l))
		}
	}
}

// Summary печатает итоговую строку: число ошибок, предупреждений и заметок.
func Summary(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	p := newPalette(opts.Color)
	var errs, warns, infos int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		default:
			if d.Code != diag.ObsTimings {
				infos++
			}
		}
	}
	if errs+warns+infos == 0 {
		fmt.Fprintln(w, p.fix.Sprint("no problems found"))
		return
	}
	parts := []string{
		p.err.Sprint(plural(errs, "error")),
		p.warn.Sprint(plural(warns, "warning")),
		p.info.Sprint(plural(infos, "info")),
	}
	msg := strings.Join(parts, ", ")
	if dropped := bag.Dropped(); dropped > 0 {
		msg += fmt.Sprintf(" (%d more not shown)", dropped)
	}
	fmt.Fprintln(w, msg)
}

func plural(n int, word string) string {
	if n == 1 || word == "info" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
