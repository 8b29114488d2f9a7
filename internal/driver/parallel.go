package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tslint/internal/ast"
	"tslint/internal/diag"
	"tslint/internal/observ"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/trace"
	"tslint/internal/tsparse"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".git":         true,
}

// LoadOptions controls discovery, reading and parsing.
type LoadOptions struct {
	Jobs           int
	MaxDiagnostics int
	// BaseDir is used for relative paths and Exclude. Defaults to the working directory.
	BaseDir string
	// Exclude reports whether a path relative to BaseDir is skipped.
	Exclude  func(rel string) bool
	Progress ProgressSink
	Timer    *observ.Timer
}

// Loaded is the outcome of Load: the analysis unit plus load and syntax errors.
type Loaded struct {
	Unit  *rule.Unit
	Paths []string // every discovered file in input order, parsed or not
	Bag   *diag.Bag
}

// VirtualFile is an in-memory source (stdin, tests).
type VirtualFile struct {
	Path    string
	Content []byte
}

// SkipDir reports whether a directory name is never linted or watched.
func SkipDir(name string) bool { return skipDirs[name] }

// IsLintable reports whether path looks like a TypeScript source.
func IsLintable(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".d.ts") {
		return false
	}
	return strings.HasSuffix(lower, ".ts") || strings.HasSuffix(lower, ".tsx")
}

// listTSFiles возвращает отсортированный список *.ts/*.tsx файлов в директории
func listTSFiles(dir string, skip func(string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (skipDirs[d.Name()] || skip(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsLintable(path) && !skip(path) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// Discover expands paths into the ordered list of files to lint.
// Directories are walked; explicit files are kept even without a TS suffix.
func Discover(paths []string, opts LoadOptions) ([]string, error) {
	base := opts.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		base = wd
	}
	skip := func(path string) bool {
		if opts.Exclude == nil {
			return false
		}
		rel, err := source.RelativePath(path, base)
		if err != nil {
			return false
		}
		return opts.Exclude(filepath.ToSlash(rel))
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			continue
		}
		files, err := listTSFiles(p, skip)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

type readResult struct {
	content []byte
	flags   source.FileFlags
	err     error
}

// Load discovers, reads and parses the files under paths.
// Files that fail to load or parse are reported in Loaded.Bag and left out of the unit.
func Load(ctx context.Context, paths []string, opts LoadOptions) (*Loaded, error) {
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeDriver, "load", trace.Parent(ctx))
	defer span.End("")

	idx := timer.Begin("discover")
	files, err := Discover(paths, opts)
	timer.End(idx, fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return nil, err
	}

	idx = timer.Begin("read")
	reads := make([]readResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs(opts.Jobs), len(files))))
	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
			content, flags, err := source.ReadNormalized(path)
			// индекс i уникален для горутины, мьютекс не нужен
			reads[i] = readResult{content: content, flags: flags, err: err}
			status := StatusDone
			if err != nil {
				status = StatusError
			}
			emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: status, Err: err, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timer.End(idx, "")

	base := opts.BaseDir
	if base == "" {
		base, _ = os.Getwd()
	}
	fileSet := source.NewFileSetWithBase(base)
	bag := diag.NewBag(opts.MaxDiagnostics)
	ids := make([]source.FileID, 0, len(files))
	// FileSet заполняется последовательно: id совпадают с порядком ввода
	for i, path := range files {
		if reads[i].err != nil {
			bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+reads[i].err.Error()))
			continue
		}
		ids = append(ids, fileSet.Add(path, reads[i].content, reads[i].flags))
	}

	unit, err := parseAll(ctx, fileSet, ids, bag, opts, timer)
	if err != nil {
		return nil, err
	}
	span.WithExtra("files", fmt.Sprint(len(files))).WithExtra("parsed", fmt.Sprint(len(unit.Trees)))
	return &Loaded{Unit: unit, Paths: files, Bag: bag}, nil
}

// LoadVirtual parses in-memory files in the given order.
func LoadVirtual(ctx context.Context, files []VirtualFile, opts LoadOptions) (*Loaded, error) {
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	ids := make([]source.FileID, len(files))
	paths := make([]string, len(files))
	for i, f := range files {
		ids[i] = fileSet.AddVirtual(f.Path, f.Content)
		paths[i] = f.Path
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	unit, err := parseAll(ctx, fileSet, ids, bag, opts, timer)
	if err != nil {
		return nil, err
	}
	return &Loaded{Unit: unit, Paths: paths, Bag: bag}, nil
}

// parseAll parses ids in parallel and assembles the unit from the trees
// that parsed, keeping input order.
func parseAll(ctx context.Context, fileSet *source.FileSet, ids []source.FileID, bag *diag.Bag, opts LoadOptions, timer *observ.Timer) (*rule.Unit, error) {
	idx := timer.Begin("parse")
	trees := make([]*ast.Tree, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs(opts.Jobs), len(ids))))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := fileSet.Get(id)
			start := time.Now()
			emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusWorking})
			trees[i], errs[i] = tsparse.Parse(file)
			status := StatusDone
			if errs[i] != nil {
				status = StatusError
			}
			emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: status, Err: errs[i], Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parsed := make([]*ast.Tree, 0, len(ids))
	for i, id := range ids {
		if errs[i] == nil {
			parsed = append(parsed, trees[i])
			continue
		}
		var syn *tsparse.SyntaxError
		if errors.As(errs[i], &syn) {
			bag.Add(diag.NewError(diag.SynParseError, syn.Span, syn.Msg))
			continue
		}
		bag.Add(diag.NewError(diag.SynParseError, source.Span{File: id}, errs[i].Error()))
	}
	timer.End(idx, fmt.Sprintf("%d/%d parsed", len(parsed), len(ids)))
	return rule.NewUnit(fileSet, parsed, nil), nil
}

// jobs normalises a --jobs value.
func jobs(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}
