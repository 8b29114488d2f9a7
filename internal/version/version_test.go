package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	if Semver().Original() != Version {
		t.Errorf("Semver() = %q, want %q", Semver().Original(), Version)
	}
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate
	t.Cleanup(func() {
		Version = origVersion
		GitCommit = origGitCommit
		BuildDate = origBuildDate
	})

	// ldflags override
	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	if Semver().Minor() != 2 {
		t.Errorf("Semver().Minor() = %d, want 2", Semver().Minor())
	}
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123def456")
	}
}

func TestVersion_Malformed(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "not-a-version"
	if Semver().String() != "0.0.0" {
		t.Errorf("Semver() = %s, want 0.0.0", Semver())
	}
	if Colored() != "not-a-version" {
		t.Errorf("Colored() = %q", Colored())
	}
}

func TestVersion_ColoredPlain(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	t.Cleanup(func() { Version, color.NoColor = orig, origNoColor })

	color.NoColor = true
	Version = "2.5.1-rc.1+abc"
	if got := Colored(); got != "2.5.1-rc.1+abc" {
		t.Errorf("Colored() = %q", got)
	}
}
