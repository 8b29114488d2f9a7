package rule

import (
	"errors"
	"strings"
	"testing"

	"tslint/internal/ast"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/source"
	"tslint/internal/tsparse"
	"tslint/internal/visit"
)

func buildUnit(t *testing.T, srcs ...string) *Unit {
	t.Helper()
	fs := source.NewFileSet()
	trees := make([]*ast.Tree, 0, len(srcs))
	for i, src := range srcs {
		id := fs.AddVirtual(string(rune('a'+i))+".ts", []byte(src))
		tree, err := tsparse.Parse(fs.Get(id))
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		trees = append(trees, tree)
	}
	return NewUnit(fs, trees, nil)
}

type countOptions struct {
	Min int `toml:"min"`
}

type counter struct {
	idents int
}

// identCounter counts identifiers per file and reports files with at least Min of them.
var identCounter = Define(Spec[countOptions, *counter]{
	Name:            "ident-counter",
	Messages:        map[string]string{"many": "{{count}} identifiers"},
	DefaultSeverity: diag.SevInfo,
	ParseOptions: func(raw config.Options) (countOptions, error) {
		opts := countOptions{Min: 1}
		if err := raw.Decode(&opts); err != nil {
			return countOptions{}, err
		}
		if opts.Min < 0 {
			return countOptions{}, config.Errorf("ident-counter", "min", "must not be negative")
		}
		return opts, nil
	},
	NewData: func(countOptions) *counter { return &counter{} },
	Visitor: func(countOptions) *visit.Table[*Context[countOptions, *counter]] {
		return visit.NewTable[*Context[countOptions, *counter]]().
			OnEnter(ast.KindIdentifier, func(_ ast.Node, ctx *Context[countOptions, *counter]) error {
				ctx.Data.idents++
				return nil
			}).
			OnExit(ast.KindProgram, func(n ast.Node, ctx *Context[countOptions, *counter]) error {
				if ctx.Data.idents < ctx.Options.Min {
					return nil
				}
				return ctx.ReportNode(n, "many", Args{"count": strings.Repeat("I", ctx.Data.idents)})
			})
	},
	Aggregate: func(ctx *AggregateContext[countOptions], files []FileData[*counter]) error {
		var order []string
		for _, f := range files {
			order = append(order, f.Path)
		}
		return ctx.ReportSpan(source.Span{File: files[0].File}, "many", Args{"count": strings.Join(order, ",")}, nil)
	},
})

func TestFreshDataPerFile(t *testing.T) {
	unit := buildUnit(t, "a; b;", "c;")
	in, err := identCounter.Instantiate(config.NoOptions("ident-counter"), diag.SevWarning)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	bag := diag.NewBag(0)
	var results []FileResult
	for _, tree := range unit.Trees {
		data, err := in.Check(unit, tree, diag.BagReporter{Bag: bag})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		results = append(results, FileResult{File: tree.File, Data: data})
	}
	if got := results[0].Data.(*counter).idents; got != 2 {
		t.Errorf("file a idents = %d", got)
	}
	if got := results[1].Data.(*counter).idents; got != 1 {
		t.Errorf("file b idents = %d, data leaked between files", got)
	}
	if bag.Len() != 2 || bag.Items()[0].Message != "II identifiers" || bag.Items()[1].Message != "I identifiers" {
		t.Fatalf("diagnostics %+v", bag.Items())
	}
	d := bag.Items()[0]
	if d.Rule != "ident-counter" || d.MessageID != "many" || d.Severity != diag.SevWarning || d.Code != diag.LintCustom {
		t.Errorf("diagnostic metadata %+v", d)
	}

	agg := diag.NewBag(0)
	if err := in.Aggregate(unit, results, diag.BagReporter{Bag: agg}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if agg.Len() != 1 || agg.Items()[0].Message != "a.ts,b.ts identifiers" {
		t.Fatalf("aggregate diagnostics %+v", agg.Items())
	}
}

func TestOptionsFailFast(t *testing.T) {
	_, err := identCounter.Instantiate(config.OptionsFromTOML("ident-counter", "min = -1"), diag.SevInfo)
	var cerr *config.Error
	if !errors.As(err, &cerr) || cerr.Key != "min" {
		t.Fatalf("expected config error, got %v", err)
	}
	_, err = identCounter.Instantiate(config.OptionsFromTOML("ident-counter", "max = 1"), diag.SevInfo)
	if !errors.As(err, &cerr) {
		t.Fatalf("unknown option accepted: %v", err)
	}
}

func TestOptionsChangeBehaviour(t *testing.T) {
	unit := buildUnit(t, "a;")
	in, err := identCounter.Instantiate(config.OptionsFromTOML("ident-counter", "min = 5"), diag.SevInfo)
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(0)
	if _, err := in.Check(unit, unit.Trees[0], diag.BagReporter{Bag: bag}); err != nil {
		t.Fatal(err)
	}
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics with min=5, got %d", bag.Len())
	}
	def, _ := identCounter.Instantiate(config.NoOptions("ident-counter"), diag.SevInfo)
	if def.Fingerprint() == in.Fingerprint() {
		t.Error("fingerprint ignores options")
	}
	again, _ := identCounter.Instantiate(config.OptionsFromTOML("ident-counter", "min = 5"), diag.SevInfo)
	if again.Fingerprint() != in.Fingerprint() {
		t.Error("fingerprint is not stable")
	}
}

var noOptions = Define(Spec[struct{}, struct{}]{
	Name:     "no-options",
	Messages: map[string]string{"m": "m"},
	Visitor: func(struct{}) *visit.Table[*Context[struct{}, struct{}]] {
		return visit.NewTable[*Context[struct{}, struct{}]]().
			OnEnter(ast.KindNumber, func(n ast.Node, ctx *Context[struct{}, struct{}]) error {
				return ctx.ReportNode(n, "missing", nil)
			})
	},
})

func TestRuleWithoutOptionParser(t *testing.T) {
	if _, err := noOptions.Instantiate(config.OptionsFromTOML("no-options", "x = 1"), diag.SevInfo); err == nil {
		t.Fatal("options accepted by rule without parser")
	}
	in, err := noOptions.Instantiate(config.NoOptions("no-options"), diag.SevInfo)
	if err != nil {
		t.Fatal(err)
	}
	if noOptions.HasAggregate() {
		t.Error("HasAggregate for rule without aggregate")
	}
	unit := buildUnit(t, "f(1);")
	// неизвестный message id прерывает обход файла
	_, err = in.Check(unit, unit.Trees[0], diag.NopReporter{})
	var te *visit.TraversalError
	if !errors.As(err, &te) || !strings.Contains(err.Error(), `unknown message id "missing"`) {
		t.Fatalf("expected traversal error, got %v", err)
	}
	if err := in.Aggregate(unit, nil, diag.NopReporter{}); err != nil {
		t.Fatalf("Aggregate without step: %v", err)
	}
}

func TestDefinePanics(t *testing.T) {
	for name, spec := range map[string]Spec[struct{}, struct{}]{
		"no name":     {Messages: map[string]string{"m": "m"}},
		"no messages": {Name: "x"},
		"no handlers": {Name: "x", Messages: map[string]string{"m": "m"}},
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			Define(spec)
		})
	}
}

func TestFormatMessage(t *testing.T) {
	got, err := formatMessage("use {{ a }} instead of {{b}}", Args{"a": "x?.y", "b": "x && x.y"})
	if err != nil || got != "use x?.y instead of x && x.y" {
		t.Fatalf("formatMessage = %q, %v", got, err)
	}
	if _, err := formatMessage("{{a}}", nil); err == nil {
		t.Error("missing argument accepted")
	}
	if _, err := formatMessage("{{a", Args{"a": "1"}); err == nil {
		t.Error("unterminated placeholder accepted")
	}
}

func TestRegistry(t *testing.T) {
	if _, err := NewRegistry(identCounter, identCounter); err == nil {
		t.Fatal("duplicate accepted")
	}
	reg, err := NewRegistry(identCounter, noOptions)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse("lint.toml", "[rules.no-options]\nenabled = false\n[rules.ident-counter]\nseverity = \"error\"\n")
	if err != nil {
		t.Fatal(err)
	}
	ins, err := reg.Instantiate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(ins) != 1 || ins[0].Rule().Name() != "ident-counter" || ins[0].Severity() != diag.SevError {
		t.Fatalf("instances %v", ins)
	}
	only, err := reg.Instantiate(cfg, "no-options")
	if err != nil || len(only) != 1 || only[0].Rule().Name() != "no-options" {
		t.Fatalf("only: %v %v", only, err)
	}

	unknown, _ := config.Parse("lint.toml", "[rules.nope]\nseverity = \"info\"\n")
	var cerr *config.Error
	if _, err := reg.Instantiate(unknown); !errors.As(err, &cerr) || cerr.Rule != "nope" {
		t.Fatalf("unknown rule: %v", err)
	}
	if names := reg.Names(); names[0] != "ident-counter" || names[1] != "no-options" {
		t.Fatalf("names %v", names)
	}
}
