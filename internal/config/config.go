// Package config loads lint.toml: engine settings and per-rule configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"tslint/internal/diag"
)

// FileName is the manifest looked up from the lint target upwards.
const FileName = "lint.toml"

// Config is a decoded lint.toml.
type Config struct {
	Path  string
	Root  string
	Lint  LintSection
	Rules map[string]RuleConfig

	md *toml.MetaData
}

// LintSection is the [lint] table.
type LintSection struct {
	Requires       string   `toml:"requires"`
	Jobs           int      `toml:"jobs"`
	MaxDiagnostics int      `toml:"max-diagnostics"`
	Exclude        []string `toml:"exclude"`
	Cache          string   `toml:"cache"`
}

// RuleConfig is one [rules.<name>] table.
type RuleConfig struct {
	Severity string         `toml:"severity"`
	Enabled  *bool          `toml:"enabled"`
	Options  toml.Primitive `toml:"options"`
}

type document struct {
	Lint  LintSection           `toml:"lint"`
	Rules map[string]RuleConfig `toml:"rules"`
}

// Default returns the configuration used when no lint.toml exists.
func Default() *Config {
	return &Config{Rules: map[string]RuleConfig{}}
}

// Find walks up from startDir looking for lint.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads lint.toml for startDir, falling back to Default.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads and validates a lint.toml file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path comes from Find or the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(path, string(data))
	if err != nil {
		return nil, err
	}
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes lint.toml text. Unknown keys outside rule option tables are
// errors; option tables are checked later by each rule's parser.
func Parse(path, text string) (*Config, error) {
	var doc document
	md, err := toml.Decode(text, &doc)
	if err != nil {
		return nil, &Error{Path: path, Msg: "failed to parse TOML", Err: err}
	}
	for _, key := range md.Undecoded() {
		if len(key) >= 3 && key[0] == "rules" && key[2] == "options" {
			continue
		}
		return nil, &Error{Path: path, Key: key.String(), Msg: "unknown key"}
	}
	if doc.Lint.Jobs < 0 {
		return nil, &Error{Path: path, Key: "lint.jobs", Msg: "must not be negative"}
	}
	if doc.Lint.MaxDiagnostics < 0 {
		return nil, &Error{Path: path, Key: "lint.max-diagnostics", Msg: "must not be negative"}
	}
	for name, rc := range doc.Rules {
		if rc.Severity == "" {
			continue
		}
		if _, err := diag.ParseSeverity(rc.Severity); err != nil {
			return nil, &Error{Path: path, Rule: name, Key: "severity", Err: err}
		}
	}
	if doc.Rules == nil {
		doc.Rules = map[string]RuleConfig{}
	}
	return &Config{Path: path, Lint: doc.Lint, Rules: doc.Rules, md: &md}, nil
}

// CheckRequires verifies [lint].requires against the engine version.
func (c *Config) CheckRequires(engine *semver.Version) error {
	req := strings.TrimSpace(c.Lint.Requires)
	if req == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(req)
	if err != nil {
		return &Error{Path: c.Path, Key: "lint.requires", Msg: "invalid constraint", Err: err}
	}
	if ok, errs := constraint.Validate(engine); !ok {
		msg := fmt.Sprintf("engine %s does not satisfy %q", engine, req)
		if len(errs) > 0 {
			msg += ": " + errs[0].Error()
		}
		return &Error{Path: c.Path, Key: "lint.requires", Msg: msg}
	}
	return nil
}

// RuleEnabled reports whether a rule should run. Rules are on unless
// explicitly disabled.
func (c *Config) RuleEnabled(name string) bool {
	rc, ok := c.Rules[name]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// RuleSeverity returns the configured severity or def.
func (c *Config) RuleSeverity(name string, def diag.Severity) diag.Severity {
	rc, ok := c.Rules[name]
	if !ok || rc.Severity == "" {
		return def
	}
	sev, err := diag.ParseSeverity(rc.Severity)
	if err != nil {
		return def
	}
	return sev
}

// RuleOptions returns the undecoded option table of a rule.
func (c *Config) RuleOptions(name string) Options {
	if c.md == nil || !c.md.IsDefined("rules", name, "options") {
		return NoOptions(name)
	}
	return Options{
		rule:    name,
		path:    c.Path,
		md:      c.md,
		prim:    c.Rules[name].Options,
		present: true,
	}
}

// RuleNames lists configured rules, sorted.
func (c *Config) RuleNames() []string {
	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Excluded reports whether a slash-separated path relative to Root matches
// one of the [lint].exclude globs. A pattern also matches any directory prefix.
func (c *Config) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Lint.Exclude {
		pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		parts := strings.Split(rel, "/")
		for i := 1; i < len(parts); i++ {
			if ok, _ := filepath.Match(pattern, strings.Join(parts[:i], "/")); ok {
				return true
			}
		}
	}
	return false
}

// Template is the lint.toml written by `tslint init`.
const Template = `[lint]
# requires = ">= 0.1.0-0"
jobs = 0
max-diagnostics = 0
exclude = ["node_modules", "dist"]
# cache = ".tslint-cache.db"

[rules.no-unnecessary-non-null]
severity = "warning"

[rules.prefer-optional-chain]
severity = "warning"

[rules.prefer-string-starts-ends-with]
severity = "warning"

[rules.no-unused-export]
severity = "info"
enabled = true

[rules.no-unused-export.options]
entry = ["src/index.ts"]
ignore = []
`
