package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/diagfmt"
	"tslint/internal/driver"
	"tslint/internal/watch"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [file.ts|directory]...",
	Short: "Check TypeScript sources with the configured rules",
	Long: `Check TypeScript sources with the rules enabled in lint.toml (all builtin rules
when no lint.toml is found). Directories are walked for *.ts and *.tsx files.
Exits with status 1 when an error-level diagnostic is reported.`,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	lintCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	lintCmd.Flags().StringSlice("rule", nil, "run only the named rules (repeatable)")
	lintCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	lintCmd.Flags().Bool("preview", false, "show before/after lines for suggestions")
	lintCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	lintCmd.Flags().Int8("context", 1, "source lines of context around each diagnostic")
	lintCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors for the exit status")
	lintCmd.Flags().Bool("cache", false, "reuse results of unchanged files")
	lintCmd.Flags().String("cache-path", "", "cache database (default: lint.toml cache or user cache dir)")
	lintCmd.Flags().Bool("cache-clear", false, "drop every cached result before the run")
	lintCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	lintCmd.Flags().Bool("watch", false, "re-run on file changes until interrupted")
}

// lintOutput is how results are printed.
type lintOutput struct {
	format           diagfmt.Format
	pretty           diagfmt.PrettyOpts
	json             diagfmt.JSONOpts
	pathMode         diagfmt.PathMode
	warningsAsErrors bool
	quiet            bool
}

func readLintOutput(cmd *cobra.Command) (lintOutput, error) {
	var out lintOutput
	flags := cmd.Flags()

	formatStr, err := flags.GetString("format")
	if err != nil {
		return out, err
	}
	if out.format, err = diagfmt.ParseFormat(formatStr); err != nil {
		return out, err
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return out, err
	}
	if out.pathMode, err = diagfmt.ParsePathMode(pathModeStr); err != nil {
		return out, err
	}
	suggest, err := flags.GetBool("suggest")
	if err != nil {
		return out, err
	}
	preview, err := flags.GetBool("preview")
	if err != nil {
		return out, err
	}
	withNotes, err := flags.GetBool("with-notes")
	if err != nil {
		return out, err
	}
	contextLines, err := flags.GetInt8("context")
	if err != nil {
		return out, err
	}
	if out.warningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
		return out, err
	}
	if out.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return out, err
	}
	colorStr, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return out, err
	}
	useColor, err := resolveColor(colorStr)
	if err != nil {
		return out, err
	}

	out.pretty = diagfmt.PrettyOpts{
		Color:       useColor,
		Context:     contextLines,
		PathMode:    out.pathMode,
		Width:       terminalWidth(),
		ShowNotes:   withNotes,
		ShowFixes:   suggest || preview,
		ShowPreview: preview,
	}
	out.json = diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         out.pathMode,
		IncludeNotes:     withNotes,
		IncludeFixes:     suggest || preview,
		IncludePreviews:  preview,
	}
	return out, nil
}

func runLint(cmd *cobra.Command, args []string) error {
	sopts, err := readSessionOptions(cmd, args)
	if err != nil {
		return err
	}
	output, err := readLintOutput(cmd)
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	// прогресс мешает машинному выводу и режиму наблюдения
	sopts.progress = shouldUseTUI(mode) && output.format == diagfmt.FormatPretty && !watchMode && !output.quiet

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()
	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanupProf()

	s, err := newSession(sopts)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	if !watchMode {
		failed, err := lintOnce(ctx, s, cmd.OutOrStdout(), cmd.ErrOrStderr(), output)
		if err != nil {
			return err
		}
		if failed {
			return errLintFailed
		}
		return nil
	}
	return lintWatch(ctx, s, cmd.OutOrStdout(), cmd.ErrOrStderr(), output)
}

// lintOnce runs the session and prints the result. It reports whether the
// exit status should be non-zero.
func lintOnce(ctx context.Context, s *session, stdout, stderr io.Writer, output lintOutput) (bool, error) {
	res, err := s.run(ctx, os.Stderr)
	if err != nil {
		return false, err
	}
	if err := printBag(stdout, res.bag, res, output); err != nil {
		return false, err
	}
	if s.opts.timings && !output.quiet {
		printSlowest(stderr, res)
	}
	return failed(res.bag, output), nil
}

func failed(bag *diag.Bag, output lintOutput) bool {
	if bag.HasErrors() {
		return true
	}
	if !output.warningsAsErrors {
		return false
	}
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			return true
		}
	}
	return false
}

func printBag(w io.Writer, bag *diag.Bag, res *outcome, output lintOutput) error {
	fs := res.loaded.Unit.Files
	switch output.format {
	case diagfmt.FormatJSON:
		return diagfmt.JSON(w, bag, fs, output.json)
	case diagfmt.FormatShort:
		diagfmt.Short(w, bag, fs, output.pathMode)
	default:
		diagfmt.Pretty(w, bag, fs, output.pretty)
		if !output.quiet {
			if bag.Len() > 0 {
				fmt.Fprintln(w)
			}
			diagfmt.Summary(w, bag, output.pretty)
		}
	}
	return nil
}

func printSlowest(w io.Writer, res *outcome) {
	slowest := res.timer.Report().Slowest("rule:", 3)
	if len(slowest) == 0 {
		return
	}
	fmt.Fprintf(w, "slowest rules (%d files", len(res.loaded.Unit.Trees))
	if res.result.CacheHits > 0 {
		fmt.Fprintf(w, ", %d cache hits", res.result.CacheHits)
	}
	fmt.Fprintln(w, "):")
	for _, p := range slowest {
		fmt.Fprintf(w, "  %-40s %8.2f ms\n", p.Name, p.DurationMS)
	}
}

// lintWatch runs once, then again for every batch of changes until SIGINT.
func lintWatch(ctx context.Context, s *session, stdout, stderr io.Writer, output lintOutput) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(watch.Options{
		Match: func(path string) bool {
			return driver.IsLintable(path) || filepath.Base(path) == config.FileName
		},
		SkipDir: func(path string) bool {
			return driver.SkipDir(filepath.Base(path))
		},
		OnError: func(err error) {
			fmt.Fprintf(stderr, "watch: %v\n", err)
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(s.opts.paths...); err != nil {
		return err
	}

	if _, err := lintOnce(ctx, s, stdout, stderr, output); err != nil {
		return err
	}
	fmt.Fprintln(stderr, "watching for changes (Ctrl+C to stop)")

	return w.Run(ctx, func(paths []string) {
		fmt.Fprintf(stderr, "\n[%s] %d file(s) changed\n", time.Now().Format("15:04:05"), len(paths))
		if reloadsConfig(paths) {
			next, err := newSession(s.opts)
			if err != nil {
				fmt.Fprintf(stderr, "config: %v\n", err)
				return
			}
			_ = s.Close()
			*s = *next
		}
		if _, err := lintOnce(ctx, s, stdout, stderr, output); err != nil {
			fmt.Fprintf(stderr, "lint: %v\n", err)
		}
	})
}

func reloadsConfig(paths []string) bool {
	for _, p := range paths {
		if filepath.Base(p) == config.FileName {
			return true
		}
	}
	return false
}
