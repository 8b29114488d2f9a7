package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/driver"
	"tslint/internal/lintcache"
	"tslint/internal/observ"
	"tslint/internal/rule"
	"tslint/internal/rules"
	"tslint/internal/trace"
	"tslint/internal/ui"
	"tslint/internal/version"
)

// sessionOptions is what lint and fix share: where to look and how to run.
type sessionOptions struct {
	paths          []string
	configPath     string
	only           []string
	jobs           int
	maxDiagnostics int
	timings        bool
	cache          bool
	cachePath      string
	cacheClear     bool
	progress       bool
	quiet          bool
}

// session is one configured lint run, reusable across watch iterations.
type session struct {
	opts      sessionOptions
	cfg       *config.Config
	instances []rule.Instance
	cache     *lintcache.Store
	baseDir   string
}

// outcome is a finished run: the file set for formatting plus every diagnostic.
type outcome struct {
	loaded *driver.Loaded
	bag    *diag.Bag
	timer  *observ.Timer
	result *driver.Result
}

func readSessionOptions(cmd *cobra.Command, args []string) (sessionOptions, error) {
	root := cmd.Root().PersistentFlags()
	opts := sessionOptions{paths: args}
	if len(opts.paths) == 0 {
		opts.paths = []string{"."}
	}
	var err error
	if opts.configPath, err = root.GetString("config"); err != nil {
		return opts, err
	}
	if opts.jobs, err = root.GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, err
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, err
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, err
	}
	if f := cmd.Flags().Lookup("rule"); f != nil {
		if opts.only, err = cmd.Flags().GetStringSlice("rule"); err != nil {
			return opts, err
		}
	}
	if f := cmd.Flags().Lookup("cache"); f != nil {
		if opts.cache, err = cmd.Flags().GetBool("cache"); err != nil {
			return opts, err
		}
		if opts.cachePath, err = cmd.Flags().GetString("cache-path"); err != nil {
			return opts, err
		}
		if opts.cacheClear, err = cmd.Flags().GetBool("cache-clear"); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// newSession loads lint.toml, checks the engine version and instantiates rules.
// Configuration problems fail here, before any file is read.
func newSession(opts sessionOptions) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Discover(opts.paths[0])
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckRequires(version.Semver()); err != nil {
		return nil, err
	}
	instances, err := rules.Registry().Instantiate(cfg, opts.only...)
	if err != nil {
		return nil, err
	}

	if opts.jobs == 0 {
		opts.jobs = cfg.Lint.Jobs
	}
	if opts.maxDiagnostics == 0 {
		opts.maxDiagnostics = cfg.Lint.MaxDiagnostics
	}

	base := cfg.Root
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	s := &session{opts: opts, cfg: cfg, instances: instances, baseDir: base}

	if opts.cache || opts.cachePath != "" || cfg.Lint.Cache != "" {
		if err := s.openCache(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) openCache() error {
	path := s.opts.cachePath
	if path == "" && s.cfg.Lint.Cache != "" {
		path = s.cfg.Lint.Cache
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.baseDir, path)
		}
	}
	if path == "" {
		def, err := lintcache.DefaultPath("tslint")
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		path = def
	}
	store, err := lintcache.Open(path)
	if err != nil {
		return err
	}
	if s.opts.cacheClear {
		if err := store.DropAll(); err != nil {
			_ = store.Close()
			return err
		}
	}
	s.cache = store
	return nil
}

func (s *session) Close() error {
	return s.cache.Close()
}

// run loads the sources and checks them with every instance. Load and
// syntax errors are merged into the result bag, which comes back sorted.
// Each run is one "session" span; load and lint spans hang under it.
func (s *session) run(ctx context.Context, out *os.File) (res *outcome, err error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "session", trace.Parent(ctx))
	ctx = trace.WithParent(ctx, span)
	defer func() {
		if err != nil {
			span.Fail(err)
			return
		}
		span.WithExtra("diagnostics", fmt.Sprint(res.bag.Len())).End("")
	}()

	timer := observ.NewTimer()
	loadOpts := driver.LoadOptions{
		Jobs:           s.opts.jobs,
		MaxDiagnostics: s.opts.maxDiagnostics,
		BaseDir:        s.baseDir,
		Exclude:        s.cfg.Excluded,
		Timer:          timer,
	}
	runOpts := driver.Options{
		Jobs:           s.opts.jobs,
		MaxDiagnostics: s.opts.maxDiagnostics,
		Cache:          s.cache,
		Engine:         version.Version,
		Timings:        s.opts.timings,
		Timer:          timer,
	}

	var (
		events chan driver.Event
		uiDone chan error
	)
	if s.opts.progress {
		files, err := driver.Discover(s.opts.paths, loadOpts)
		if err != nil {
			return nil, err
		}
		events = make(chan driver.Event, 256)
		uiDone = make(chan error, 1)
		sink := driver.ChannelSink{Ch: events}
		loadOpts.Progress = sink
		runOpts.Progress = sink
		go func() {
			uiDone <- ui.Run("tslint", files, len(s.instances), events, out)
		}()
	}

	result, loaded, err := s.check(ctx, loadOpts, runOpts)
	if events != nil {
		close(events)
		if uiErr := <-uiDone; uiErr != nil && err == nil {
			err = fmt.Errorf("progress ui: %w", uiErr)
		}
	}
	if err != nil {
		return nil, err
	}

	bag := loaded.Bag
	bag.Merge(result.Bag)
	bag.Sort()
	return &outcome{loaded: loaded, bag: bag, timer: timer, result: result}, nil
}

func (s *session) check(ctx context.Context, loadOpts driver.LoadOptions, runOpts driver.Options) (*driver.Result, *driver.Loaded, error) {
	loaded, err := driver.Load(ctx, s.opts.paths, loadOpts)
	if err != nil {
		return nil, nil, err
	}
	res, err := driver.Run(ctx, loaded.Unit, s.instances, runOpts)
	if err != nil {
		return nil, nil, err
	}
	return res, loaded, nil
}
