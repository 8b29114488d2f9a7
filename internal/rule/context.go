package rule

import (
	"fmt"

	"tslint/internal/ast"
	"tslint/internal/compare"
	"tslint/internal/diag"
	"tslint/internal/source"
	"tslint/internal/types"
)

// reporting turns message ids into diagnostics of one rule.
type reporting struct {
	rule     string
	code     diag.Code
	severity diag.Severity
	messages map[string]string
	files    *source.FileSet
	out      diag.Reporter
}

// Message renders a message template of the rule.
func (r *reporting) Message(messageID string, args Args) (string, error) {
	tmpl, ok := r.messages[messageID]
	if !ok {
		return "", fmt.Errorf("rule %s: unknown message id %q", r.rule, messageID)
	}
	return formatMessage(tmpl, args)
}

// Report anchors a diagnostic at node. suggestions may be nil.
func (r *reporting) Report(anchor ast.Node, messageID string, args Args, suggestions *diag.Suggestions) error {
	if !anchor.Valid() {
		return fmt.Errorf("rule %s: report %q on absent node", r.rule, messageID)
	}
	return r.ReportSpan(anchor.Span(), messageID, args, suggestions)
}

// ReportNode reports without suggestions.
func (r *reporting) ReportNode(anchor ast.Node, messageID string, args Args) error {
	return r.Report(anchor, messageID, args, nil)
}

// ReportSpan anchors a diagnostic at an arbitrary span.
func (r *reporting) ReportSpan(span source.Span, messageID string, args Args, suggestions *diag.Suggestions) error {
	msg, err := r.Message(messageID, args)
	if err != nil {
		return err
	}
	d := diag.New(r.severity, r.code, span, msg)
	d.Rule = r.rule
	d.MessageID = messageID
	d.Suggestions = suggestions
	if r.out != nil {
		r.out.Report(d)
	}
	return nil
}

// Suggest builds a fix whose title is the rendered message messageID.
func (r *reporting) Suggest(messageID string, args Args, edits ...diag.TextEdit) (diag.Fix, error) {
	title, err := r.Message(messageID, args)
	if err != nil {
		return diag.Fix{}, err
	}
	return diag.Fix{
		Title:         title,
		MessageID:     messageID,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         edits,
	}, nil
}

// Context is what handlers see while one file is traversed.
type Context[O, D any] struct {
	reporting

	File    *source.File
	Tree    *ast.Tree
	Unit    *Unit
	Options O
	// Data is fresh for every file and returned to the driver afterwards.
	Data D
}

// Compare classifies a against b with the run's memoising comparator.
func (c *Context[O, D]) Compare(a, b ast.Node) compare.Verdict {
	return c.Unit.Compare.Compare(a, b)
}

// TypeOf asks the semantic model. Model errors are returned unchanged;
// a handler that returns one aborts the file.
func (c *Context[O, D]) TypeOf(n ast.Node) (types.Type, error) {
	if c.Unit.Model == nil {
		return types.Any, nil
	}
	return c.Unit.Model.TypeOf(n)
}

// Text returns the source text of a node.
func (c *Context[O, D]) Text(n ast.Node) string {
	return n.Text()
}

// TextOf returns the source text under span in the current file.
func (c *Context[O, D]) TextOf(span source.Span) string {
	if c.File == nil {
		return string(c.Tree.Source()[span.Start:span.End])
	}
	return c.File.Slice(span.Start, span.End)
}

// AggregateContext is what the aggregation step sees.
type AggregateContext[O any] struct {
	reporting

	Unit    *Unit
	Options O
}
