package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"tslint/internal/diag"
)

const sample = `
[lint]
requires = ">= 0.1.0-0, < 1.0.0"
jobs = 4
exclude = ["dist", "gen/*.ts"]

[rules.no-unused-export]
severity = "error"

[rules.no-unused-export.options]
ignore = ["main"]

[rules.prefer-optional-chain]
enabled = false
`

type unusedExportOptions struct {
	Ignore []string `toml:"ignore"`
	Entry  []string `toml:"entry"`
}

func TestParse(t *testing.T) {
	cfg, err := Parse("lint.toml", sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Lint.Jobs != 4 {
		t.Errorf("jobs = %d", cfg.Lint.Jobs)
	}
	if cfg.RuleEnabled("prefer-optional-chain") || !cfg.RuleEnabled("no-unused-export") || !cfg.RuleEnabled("missing") {
		t.Error("RuleEnabled misreports")
	}
	if got := cfg.RuleSeverity("no-unused-export", diag.SevWarning); got != diag.SevError {
		t.Errorf("severity = %v", got)
	}
	if got := cfg.RuleSeverity("missing", diag.SevInfo); got != diag.SevInfo {
		t.Errorf("default severity = %v", got)
	}

	opts := cfg.RuleOptions("no-unused-export")
	if !opts.Present() {
		t.Fatal("options not present")
	}
	var o unusedExportOptions
	if err := opts.Decode(&o); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(o.Ignore) != 1 || o.Ignore[0] != "main" {
		t.Errorf("ignore = %v", o.Ignore)
	}
	if cfg.RuleOptions("prefer-optional-chain").Present() {
		t.Error("options present for rule without table")
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse("lint.toml", "[lint]\njobz = 1\n")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Key != "lint.jobz" {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestParseBadSeverity(t *testing.T) {
	_, err := Parse("lint.toml", "[rules.x]\nseverity = \"fatal\"\n")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Rule != "x" {
		t.Fatalf("expected severity error, got %v", err)
	}
}

func TestOptionsUnknownOption(t *testing.T) {
	cfg, err := Parse("lint.toml", "[rules.r.options]\nignor = [\"a\"]\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var o unusedExportOptions
	err = cfg.RuleOptions("r").Decode(&o)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Key != "ignor" || cerr.Rule != "r" {
		t.Fatalf("expected unknown option error, got %v", err)
	}
}

func TestOptionsWrongType(t *testing.T) {
	var o unusedExportOptions
	err := OptionsFromTOML("r", `ignore = "main"`).Decode(&o)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestOptionsFromTOML(t *testing.T) {
	o := unusedExportOptions{Entry: []string{"default"}}
	if err := NoOptions("r").Decode(&o); err != nil || o.Entry[0] != "default" {
		t.Fatalf("absent options changed defaults: %v %v", o, err)
	}
	if err := OptionsFromTOML("r", `entry = ["a.ts"]`).Decode(&o); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if o.Entry[0] != "a.ts" {
		t.Errorf("entry = %v", o.Entry)
	}
	if err := OptionsFromTOML("r", `other = 1`).Decode(&o); err == nil {
		t.Error("expected unknown option error")
	}
}

func TestCheckRequires(t *testing.T) {
	cfg, err := Parse("lint.toml", sample)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.CheckRequires(semver.MustParse("0.3.0")); err != nil {
		t.Errorf("0.3.0: %v", err)
	}
	if err := cfg.CheckRequires(semver.MustParse("1.2.0")); err == nil {
		t.Error("1.2.0 should not satisfy")
	}
	bad := &Config{Lint: LintSection{Requires: "not a constraint"}}
	if err := bad.CheckRequires(semver.MustParse("1.0.0")); err == nil {
		t.Error("invalid constraint accepted")
	}
}

func TestExcluded(t *testing.T) {
	cfg, err := Parse("lint.toml", sample)
	if err != nil {
		t.Fatal(err)
	}
	for path, want := range map[string]bool{
		"dist/a.ts":    true,
		"gen/x.ts":     true,
		"gen/sub/x.ts": false,
		"src/dist.ts":  false,
		"src/gen/x.ts": false,
		"src/index.ts": false,
	} {
		if got := cfg.Excluded(path); got != want {
			t.Errorf("Excluded(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(Template), 0o600); err != nil {
		t.Fatal(err)
	}
	path, ok, err := Find(nested)
	if err != nil || !ok || path != filepath.Join(root, FileName) {
		t.Fatalf("Find = %q %v %v", path, ok, err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Root != root || len(cfg.Rules) != 4 {
		t.Fatalf("root=%q rules=%d", cfg.Root, len(cfg.Rules))
	}
}
