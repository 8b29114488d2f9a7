package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"tslint/internal/ast"
	"tslint/internal/diag"
	"tslint/internal/lintcache"
	"tslint/internal/observ"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/trace"
	"tslint/internal/visit"
)

// Options controls Run.
type Options struct {
	Jobs           int
	MaxDiagnostics int
	Progress       ProgressSink
	// Cache stores results of rules without aggregation. Nil disables caching.
	Cache *lintcache.Store
	// Engine is part of every cache key.
	Engine string
	// Timings appends an ObsTimings diagnostic with per-rule durations.
	Timings bool
	Timer   *observ.Timer
}

// Result is the outcome of Run.
type Result struct {
	Bag *diag.Bag
	// Defects counts file traversals aborted by a handler error or panic.
	Defects int
	Panics  int
	// CacheHits counts (rule, file) pairs answered from the cache.
	CacheHits int
}

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type fileOutcome struct {
	bag    *diag.Bag
	data   any
	failed bool
	panic  bool
	cached bool
}

// Run checks every tree of unit with every instance. Files of one rule
// run in parallel, each with its own data and bag; the aggregation step
// runs after all of them joined. Rules run in the given order and the
// merged bag is sorted.
func Run(ctx context.Context, unit *rule.Unit, instances []rule.Instance, opts Options) (*Result, error) {
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	tr := trace.FromContext(ctx)
	runSpan := trace.Begin(tr, trace.ScopeDriver, "lint", trace.Parent(ctx))
	defer runSpan.End("")

	res := &Result{Bag: diag.NewBag(0)}
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := inst.Rule().Name()
		idx := timer.Begin("rule:" + name)
		ruleSpan := trace.Begin(tr, trace.ScopeRule, "rule:"+name, runSpan.ID())

		before := res.Bag.Len()
		if err := runRule(ctx, tr, ruleSpan.ID(), unit, inst, opts, res); err != nil {
			ruleSpan.Fail(err)
			timer.End(idx, "cancelled")
			return nil, err
		}

		found := res.Bag.Len() - before
		ruleSpan.WithExtra("diagnostics", fmt.Sprint(found)).End("")
		timer.End(idx, fmt.Sprintf("%d diagnostics", found))
	}

	res.Bag.Sort()
	res.Bag.Limit(opts.MaxDiagnostics)
	if opts.Timings {
		report := timer.Report()
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:    "lint",
			Files:   len(unit.Trees),
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	return res, nil
}

func runRule(ctx context.Context, tr trace.Tracer, parent uint64, unit *rule.Unit, inst rule.Instance, opts Options, res *Result) error {
	name := inst.Rule().Name()
	cacheable := opts.Cache != nil && !inst.Rule().HasAggregate()
	fingerprint := ""
	if cacheable {
		fingerprint = inst.Fingerprint()
	}

	outcomes := make([]fileOutcome, len(unit.Trees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs(opts.Jobs), len(unit.Trees))))
	for i, tree := range unit.Trees {
		g.Go(func() error {
			// отмена прекращает только планирование новых файлов
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			emit(opts.Progress, Event{File: tree.Path, Rule: name, Stage: StageCheck, Status: StatusWorking})
			fileSpan := trace.Begin(tr, trace.ScopeFile, "file:"+tree.Path, parent).WithExtra(trace.ExtraRule, name)

			var key lintcache.Key
			if cacheable {
				key = cacheKey(unit, tree, name, fingerprint, opts.Engine)
				if diags, ok, err := opts.Cache.Get(key, tree.File); err == nil && ok {
					bag := diag.NewBag(0)
					for _, d := range diags {
						bag.Add(d)
					}
					outcomes[i] = fileOutcome{bag: bag, cached: true}
					fileSpan.End("cached")
					emit(opts.Progress, Event{File: tree.Path, Rule: name, Stage: StageCheck, Status: StatusCached, Elapsed: time.Since(start)})
					return nil
				}
			}

			bag := diag.NewBag(opts.MaxDiagnostics)
			data, err := checkFile(inst, unit, tree, diag.BagReporter{Bag: bag})
			out := fileOutcome{bag: bag, data: data}
			if err != nil {
				out.failed = true
				var pe *PanicError
				out.panic = errors.As(err, &pe)
				bag.Add(defectDiagnostic(name, tree, err, out.panic))
				fileSpan.Fail(err)
				emit(opts.Progress, Event{File: tree.Path, Rule: name, Stage: StageCheck, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			} else {
				if cacheable && bag.Dropped() == 0 {
					// ErrNotCacheable и ошибки записи не влияют на результат
					_ = opts.Cache.Put(key, tree.File, bag.Items())
				}
				fileSpan.End("")
				emit(opts.Progress, Event{File: tree.Path, Rule: name, Stage: StageCheck, Status: StatusDone, Elapsed: time.Since(start)})
			}
			outcomes[i] = out
			return nil
		})
	}

	// Ждём завершения всех горутин
	if err := g.Wait(); err != nil {
		return err
	}

	results := make([]rule.FileResult, 0, len(outcomes))
	for i, out := range outcomes {
		res.Bag.Merge(out.bag)
		switch {
		case out.cached:
			res.CacheHits++
		case out.failed:
			res.Defects++
			if out.panic {
				res.Panics++
			}
			// прерванный файл не участвует в агрегации
			continue
		}
		results = append(results, rule.FileResult{File: unit.Trees[i].File, Data: out.data})
	}

	if !inst.Rule().HasAggregate() {
		return nil
	}
	start := time.Now()
	emit(opts.Progress, Event{Rule: name, Stage: StageAggregate, Status: StatusWorking})
	aggSpan := trace.Begin(tr, trace.ScopeFile, "aggregate:"+name, parent).WithExtra(trace.ExtraRule, name)
	bag := diag.NewBag(opts.MaxDiagnostics)
	err := aggregate(inst, unit, results, diag.BagReporter{Bag: bag})
	if err != nil {
		var pe *PanicError
		isPanic := errors.As(err, &pe)
		if isPanic {
			res.Panics++
		}
		res.Defects++
		code := diag.EngAggregateFailure
		if isPanic {
			code = diag.EngRulePanic
		}
		d := diag.NewError(code, source.Span{}, fmt.Sprintf("rule %s: aggregation failed: %v", name, err))
		d.Rule = name
		bag.Add(d)
		aggSpan.Fail(err)
		emit(opts.Progress, Event{Rule: name, Stage: StageAggregate, Status: StatusError, Err: err, Elapsed: time.Since(start)})
	} else {
		aggSpan.End("")
		emit(opts.Progress, Event{Rule: name, Stage: StageAggregate, Status: StatusDone, Elapsed: time.Since(start)})
	}
	res.Bag.Merge(bag)
	return nil
}

func checkFile(inst rule.Instance, unit *rule.Unit, tree *ast.Tree, out diag.Reporter) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return inst.Check(unit, tree, out)
}

func aggregate(inst rule.Instance, unit *rule.Unit, results []rule.FileResult, out diag.Reporter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return inst.Aggregate(unit, results, out)
}

// defectDiagnostic anchors a traversal defect at the node whose handler
// failed, or at the start of the file.
func defectDiagnostic(ruleName string, tree *ast.Tree, err error, isPanic bool) diag.Diagnostic {
	span := source.Span{File: tree.File}
	var te *visit.TraversalError
	if errors.As(err, &te) {
		span = te.Span
	}
	code := diag.EngRuleFailure
	if isPanic {
		code = diag.EngRulePanic
	}
	d := diag.NewError(code, span, fmt.Sprintf("rule %s failed on %s: %v", ruleName, tree.Path, err))
	d.Rule = ruleName
	return d
}

func cacheKey(unit *rule.Unit, tree *ast.Tree, ruleName, fingerprint, engine string) lintcache.Key {
	key := lintcache.Key{Rule: ruleName, Fingerprint: fingerprint, Engine: engine}
	if f, ok := unit.Files.Lookup(tree.File); ok {
		key.FileHash = f.Hash
	}
	return key
}
