package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tslint/internal/ast"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/lintcache"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/trace"
	"tslint/internal/visit"
)

type names struct{ seen []string }

type nameCtx = rule.Context[struct{}, *names]

// identRule reports every identifier called "bad" and panics on "boom".
// The aggregation lists the files it received.
func identRule(withAggregate bool) rule.Rule {
	spec := rule.Spec[struct{}, *names]{
		Name:            "ident-test",
		Messages:        map[string]string{"bad": "bad identifier {{name}}", "files": "files {{list}}"},
		DefaultSeverity: diag.SevWarning,
		NewData:         func(struct{}) *names { return &names{} },
		Visitor: func(struct{}) *visit.Table[*nameCtx] {
			return visit.NewTable[*nameCtx]().OnEnter(ast.KindIdentifier, func(n ast.Node, ctx *nameCtx) error {
				ctx.Data.seen = append(ctx.Data.seen, n.Text())
				switch n.Text() {
				case "boom":
					panic("boom")
				case "fail":
					return errors.New("handler failed")
				case "bad":
					return ctx.ReportNode(n, "bad", rule.Args{"name": n.Text()})
				}
				return nil
			})
		},
	}
	if withAggregate {
		spec.Aggregate = func(ctx *rule.AggregateContext[struct{}], files []rule.FileData[*names]) error {
			var list []string
			for _, f := range files {
				list = append(list, f.Path+"="+strings.Join(f.Data.seen, "+"))
			}
			return ctx.ReportSpan(source.Span{}, "files", rule.Args{"list": strings.Join(list, ",")}, nil)
		}
	}
	return rule.Define(spec)
}

func instance(t *testing.T, r rule.Rule) rule.Instance {
	t.Helper()
	in, err := r.Instantiate(config.NoOptions(r.Name()), r.DefaultSeverity())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return in
}

func virtual(t *testing.T, files ...string) *Loaded {
	t.Helper()
	var vf []VirtualFile
	for i := 0; i+1 < len(files); i += 2 {
		vf = append(vf, VirtualFile{Path: files[i], Content: []byte(files[i+1])})
	}
	loaded, err := LoadVirtual(context.Background(), vf, LoadOptions{Jobs: 2})
	if err != nil {
		t.Fatalf("LoadVirtual: %v", err)
	}
	return loaded
}

func messages(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.ID()+":"+d.Message)
	}
	return out
}

func TestRunDefectAbortsOnlyThatFile(t *testing.T) {
	loaded := virtual(t,
		"a.ts", "bad; ok;",
		"b.ts", "x; boom; bad;",
		"c.ts", "fail; bad;",
		"d.ts", "bad;",
	)
	res, err := Run(context.Background(), loaded.Unit, []rule.Instance{instance(t, identRule(true))}, Options{Jobs: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Defects != 2 || res.Panics != 1 {
		t.Fatalf("defects=%d panics=%d", res.Defects, res.Panics)
	}

	var codes []string
	for _, d := range res.Bag.Items() {
		codes = append(codes, d.Code.ID())
	}
	got := messages(res.Bag)
	// a.ts и d.ts дают по одному bad, b.ts паникует до bad, c.ts падает на fail
	wantCount := map[string]int{
		diag.LintCustom.ID():          3,
		diag.EngRulePanic.ID():        1,
		diag.EngRuleFailure.ID():      1,
		diag.EngAggregateFailure.ID(): 0,
	}
	count := map[string]int{}
	for _, c := range codes {
		count[c]++
	}
	for code, want := range wantCount {
		if count[code] != want {
			t.Errorf("%s: got %d, want %d in %v", code, count[code], want, got)
		}
	}

	var agg string
	for _, m := range got {
		if strings.Contains(m, "files ") {
			agg = m
		}
	}
	if !strings.HasSuffix(agg, "files a.ts=bad+ok,d.ts=bad") {
		t.Fatalf("aggregation saw %q", agg)
	}
}

func TestRunFailureAnchoredAtNode(t *testing.T) {
	loaded := virtual(t, "a.ts", "x; fail;")
	res, err := Run(context.Background(), loaded.Unit, []rule.Instance{instance(t, identRule(false))}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("diagnostics: %v", messages(res.Bag))
	}
	d := res.Bag.Items()[0]
	if d.Code != diag.EngRuleFailure || d.Primary.Start != 3 || d.Primary.End != 7 || d.Rule != "ident-test" {
		t.Fatalf("defect = %+v", d)
	}
}

func TestRunKeepsRepeatedReports(t *testing.T) {
	type twiceCtx = rule.Context[struct{}, struct{}]
	twice := rule.Define(rule.Spec[struct{}, struct{}]{
		Name:            "twice-test",
		Messages:        map[string]string{"bad": "bad identifier"},
		DefaultSeverity: diag.SevWarning,
		Visitor: func(struct{}) *visit.Table[*twiceCtx] {
			return visit.NewTable[*twiceCtx]().OnEnter(ast.KindIdentifier, func(n ast.Node, ctx *twiceCtx) error {
				if err := ctx.ReportNode(n, "bad", nil); err != nil {
					return err
				}
				return ctx.ReportNode(n, "bad", nil)
			})
		},
	})
	loaded := virtual(t, "a.ts", "bad;")
	res, err := Run(context.Background(), loaded.Unit, []rule.Instance{instance(t, twice)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// каждый report даёт ровно одну диагностику
	if res.Bag.Len() != 2 {
		t.Fatalf("diagnostics: %v", messages(res.Bag))
	}
}

func TestRunTracesDefects(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	loaded := virtual(t, "a.ts", "bad;", "c.ts", "fail;")
	if _, err := Run(ctx, loaded.Unit, []rule.Instance{instance(t, identRule(true))}, Options{Jobs: 2}); err != nil {
		t.Fatal(err)
	}
	defects := ring.Defects()
	if len(defects) != 1 {
		t.Fatalf("defects = %+v", defects)
	}
	d := defects[0]
	if d.Rule != "ident-test" || d.Span != "file:c.ts" || !strings.Contains(d.Err, "handler failed") {
		t.Fatalf("defect = %+v", d)
	}
}

func TestRunSortedAndLimited(t *testing.T) {
	loaded := virtual(t, "a.ts", "bad; bad; bad;", "b.ts", "bad;")
	in := instance(t, identRule(false))
	res, err := Run(context.Background(), loaded.Unit, []rule.Instance{in}, Options{Jobs: 1, MaxDiagnostics: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 2 || res.Bag.Dropped() != 2 {
		t.Fatalf("len=%d dropped=%d", res.Bag.Len(), res.Bag.Dropped())
	}
	items := res.Bag.Items()
	if items[0].Primary.Start != 0 || items[1].Primary.Start != 5 || items[1].Primary.File != items[0].Primary.File {
		t.Fatalf("not sorted: %+v", items)
	}
}

func TestRunProgressAndTimings(t *testing.T) {
	loaded := virtual(t, "a.ts", "bad;", "b.ts", "ok;")
	var mu sync.Mutex
	seen := map[Status]int{}
	sink := SinkFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.Stage == StageCheck || e.Stage == StageAggregate {
			seen[e.Status]++
		}
	})
	res, err := Run(context.Background(), loaded.Unit, []rule.Instance{instance(t, identRule(true))}, Options{Progress: sink, Timings: true})
	if err != nil {
		t.Fatal(err)
	}
	if seen[StatusWorking] != 3 || seen[StatusDone] != 3 {
		t.Fatalf("progress = %v", seen)
	}
	var timing *diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			timing = &d
		}
	}
	if timing == nil || len(timing.Notes) != 1 || !strings.Contains(timing.Notes[0].Msg, `"rule:ident-test"`) {
		t.Fatalf("timing diagnostic = %+v", timing)
	}
}

func TestRunCache(t *testing.T) {
	store, err := lintcache.Open(filepath.Join(t.TempDir(), "lint.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	opts := Options{Cache: store, Engine: "test"}
	in := instance(t, identRule(false))

	first, err := Run(context.Background(), virtual(t, "a.ts", "bad;", "b.ts", "ok;").Unit, []rule.Instance{in}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits != 0 {
		t.Fatalf("cold cache hits = %d", first.CacheHits)
	}

	second, err := Run(context.Background(), virtual(t, "a.ts", "bad;", "b.ts", "ok;").Unit, []rule.Instance{in}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits != 2 {
		t.Fatalf("warm cache hits = %d", second.CacheHits)
	}
	if strings.Join(messages(first.Bag), "|") != strings.Join(messages(second.Bag), "|") {
		t.Fatalf("cached result differs:\n%v\n%v", messages(first.Bag), messages(second.Bag))
	}

	// aggregating rules bypass the cache
	agg, err := Run(context.Background(), virtual(t, "a.ts", "bad;").Unit, []rule.Instance{instance(t, identRule(true))}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if agg.CacheHits != 0 {
		t.Fatalf("aggregate rule hit the cache")
	}
}

func TestRunCancelled(t *testing.T) {
	loaded := virtual(t, "a.ts", "bad;")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, loaded.Unit, []rule.Instance{instance(t, identRule(false))}, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, text string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("src/b.ts", "const b = 1;")
	write("src/a.tsx", "export const a = 1;")
	write("src/types.d.ts", "declare const t: number;")
	write("src/broken.ts", "const = ;")
	write("src/gen/skip.ts", "x;")
	write("node_modules/dep/index.ts", "x;")
	write("README.md", "# x")

	cfg, err := config.Parse(filepath.Join(dir, config.FileName), "[lint]\nexclude = [\"src/gen\"]\n")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(context.Background(), []string{dir}, LoadOptions{BaseDir: dir, Exclude: cfg.Excluded})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var rel []string
	for _, p := range loaded.Paths {
		r, _ := filepath.Rel(dir, p)
		rel = append(rel, filepath.ToSlash(r))
	}
	if strings.Join(rel, ",") != "src/a.tsx,src/b.ts,src/broken.ts" {
		t.Fatalf("paths = %v", rel)
	}
	if len(loaded.Unit.Trees) != 2 {
		t.Fatalf("parsed %d trees", len(loaded.Unit.Trees))
	}
	if loaded.Bag.Len() != 1 || loaded.Bag.Items()[0].Code != diag.SynParseError {
		t.Fatalf("load diagnostics: %v", messages(loaded.Bag))
	}
	if f, ok := loaded.Unit.Files.Lookup(loaded.Bag.Items()[0].Primary.File); !ok || !strings.HasSuffix(f.Path, "broken.ts") {
		t.Fatalf("syntax error anchored in %v", f)
	}
}

func TestLoadMissingPath(t *testing.T) {
	if _, err := Load(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, LoadOptions{}); err == nil {
		t.Fatal("expected error for missing path")
	}
}
