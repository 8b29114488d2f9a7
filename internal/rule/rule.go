// Package rule defines lint rules: typed options, per-file data, a dispatch
// table of node handlers and an optional aggregation step over all files.
package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"tslint/internal/ast"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/source"
	"tslint/internal/visit"
)

// Docs describes a rule for `tslint rules` and the JSON output.
type Docs struct {
	Description string
	URL         string
	Recommended bool
	Fixable     bool
}

// FileData pairs a file with the data its traversal produced.
type FileData[D any] struct {
	File source.FileID
	Path string
	Tree *ast.Tree
	Data D
}

// Spec is a typed rule definition. O is the parsed options, D the per-file data.
type Spec[O, D any] struct {
	Name            string
	Code            diag.Code
	Docs            Docs
	Messages        map[string]string
	DefaultSeverity diag.Severity

	// ParseOptions turns the raw table into O, filling defaults. It must be
	// pure and reject anything it does not understand. Nil means the rule
	// takes no options.
	ParseOptions func(config.Options) (O, error)
	// NewData returns a fresh data value; it is called once per file.
	NewData func(O) D
	// Visitor builds the dispatch table. It is called once per instantiation.
	Visitor func(O) *visit.Table[*Context[O, D]]
	// Aggregate runs once after every file has been checked. Optional.
	Aggregate func(*AggregateContext[O], []FileData[D]) error
}

// Rule is the type-erased view the driver works with.
type Rule interface {
	Name() string
	Code() diag.Code
	Docs() Docs
	Messages() map[string]string
	DefaultSeverity() diag.Severity
	HasAggregate() bool
	// Instantiate parses options and builds the dispatch table.
	Instantiate(opts config.Options, sev diag.Severity) (Instance, error)
}

// FileResult is the erased per-file data handed back to Aggregate.
type FileResult struct {
	File source.FileID
	Data any
}

// Instance is a rule bound to parsed options.
type Instance interface {
	Rule() Rule
	Severity() diag.Severity
	// Fingerprint identifies the parsed options, for result caching.
	Fingerprint() string
	// Check traverses one file with fresh data and returns that data.
	Check(unit *Unit, tree *ast.Tree, out diag.Reporter) (any, error)
	// Aggregate runs the aggregation step over results in input order.
	// It is a no-op for rules without one.
	Aggregate(unit *Unit, results []FileResult, out diag.Reporter) error
}

type definition[O, D any] struct {
	spec Spec[O, D]
}

// Define validates spec and returns the rule. Invalid definitions panic:
// they are programming errors caught at registration time.
func Define[O, D any](spec Spec[O, D]) Rule {
	if spec.Name == "" {
		panic("rule: definition without a name")
	}
	if len(spec.Messages) == 0 {
		panic(fmt.Sprintf("rule %s: no messages", spec.Name))
	}
	if spec.Visitor == nil && spec.Aggregate == nil {
		panic(fmt.Sprintf("rule %s: neither visitor nor aggregate", spec.Name))
	}
	if spec.Code == diag.UnknownCode {
		spec.Code = diag.LintCustom
	}
	return &definition[O, D]{spec: spec}
}

func (d *definition[O, D]) Name() string                   { return d.spec.Name }
func (d *definition[O, D]) Code() diag.Code                { return d.spec.Code }
func (d *definition[O, D]) Docs() Docs                     { return d.spec.Docs }
func (d *definition[O, D]) Messages() map[string]string    { return d.spec.Messages }
func (d *definition[O, D]) DefaultSeverity() diag.Severity { return d.spec.DefaultSeverity }
func (d *definition[O, D]) HasAggregate() bool             { return d.spec.Aggregate != nil }

func (d *definition[O, D]) Instantiate(raw config.Options, sev diag.Severity) (Instance, error) {
	var opts O
	switch {
	case d.spec.ParseOptions != nil:
		parsed, err := d.spec.ParseOptions(raw)
		if err != nil {
			return nil, err
		}
		opts = parsed
	case raw.Present():
		return nil, config.Errorf(d.spec.Name, "", "rule takes no options")
	}

	table := visit.NewTable[*Context[O, D]]()
	if d.spec.Visitor != nil {
		if t := d.spec.Visitor(opts); t != nil {
			table = t
		}
	}
	return &instance[O, D]{
		def:      d,
		opts:     opts,
		table:    table,
		severity: sev,
	}, nil
}

type instance[O, D any] struct {
	def      *definition[O, D]
	opts     O
	table    *visit.Table[*Context[O, D]]
	severity diag.Severity
}

func (in *instance[O, D]) Rule() Rule              { return in.def }
func (in *instance[O, D]) Severity() diag.Severity { return in.severity }

// Fingerprint hashes the msgpack encoding of the options.
func (in *instance[O, D]) Fingerprint() string {
	raw, err := msgpack.Marshal(in.opts)
	if err != nil {
		raw = fmt.Appendf(nil, "%#v", in.opts)
	}
	sum := sha256.Sum256(append([]byte(in.def.spec.Name+"\x00"), raw...))
	return hex.EncodeToString(sum[:8])
}

func (in *instance[O, D]) reporting(unit *Unit, out diag.Reporter) reporting {
	return reporting{
		rule:     in.def.spec.Name,
		code:     in.def.spec.Code,
		severity: in.severity,
		messages: in.def.spec.Messages,
		files:    unit.Files,
		out:      out,
	}
}

func (in *instance[O, D]) Check(unit *Unit, tree *ast.Tree, out diag.Reporter) (any, error) {
	var data D
	if in.def.spec.NewData != nil {
		data = in.def.spec.NewData(in.opts)
	}
	var file *source.File
	if unit.Files != nil {
		file, _ = unit.Files.Lookup(tree.File)
	}
	ctx := &Context[O, D]{
		reporting: in.reporting(unit, out),
		File:      file,
		Tree:      tree,
		Unit:      unit,
		Options:   in.opts,
		Data:      data,
	}
	if err := visit.Walk(tree.Root(), in.table, ctx); err != nil {
		return nil, err
	}
	return ctx.Data, nil
}

func (in *instance[O, D]) Aggregate(unit *Unit, results []FileResult, out diag.Reporter) error {
	if in.def.spec.Aggregate == nil {
		return nil
	}
	typed := make([]FileData[D], 0, len(results))
	for _, r := range results {
		data, ok := r.Data.(D)
		if !ok && r.Data != nil {
			return fmt.Errorf("rule %s: unexpected data %T for file %d", in.def.spec.Name, r.Data, r.File)
		}
		fd := FileData[D]{File: r.File, Data: data}
		if tree, ok := unit.Tree(r.File); ok {
			fd.Tree = tree
			fd.Path = tree.Path
		}
		typed = append(typed, fd)
	}
	ctx := &AggregateContext[O]{
		reporting: in.reporting(unit, out),
		Unit:      unit,
		Options:   in.opts,
	}
	return in.def.spec.Aggregate(ctx, typed)
}
