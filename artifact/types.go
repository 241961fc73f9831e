package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrBadFilename indicates the artifact filename does not follow the
// name-version-buildtag naming convention.
var ErrBadFilename = errors.New("malformed artifact filename")

// Artifact identifies a built package. Identity is the triple
// (Package, Version, BuildTag); Path locates the file on disk.
type Artifact struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	BuildTag string `json:"buildTag"` // e.g. "py35_0"
	Path     string `json:"path"`
}

// ParsePath parses artifact identity from a built package path. Conda
// packages are named <package>-<version>-<buildtag>.tar.bz2, where the
// package name itself may contain hyphens; the version and build tag are the
// last two hyphen-separated fields.
func ParsePath(path string) (Artifact, error) {
	base := filepath.Base(path)

	name := base
	for _, ext := range []string{".tar.bz2", ".conda", ".tar.gz"} {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}

	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return Artifact{}, fmt.Errorf("%w: %q", ErrBadFilename, base)
	}

	return Artifact{
		Package:  strings.Join(parts[:len(parts)-2], "-"),
		Version:  parts[len(parts)-2],
		BuildTag: parts[len(parts)-1],
		Path:     path,
	}, nil
}

// Filename returns the canonical filename for the artifact.
func (a Artifact) Filename() string {
	return fmt.Sprintf("%s-%s-%s.tar.bz2", a.Package, a.Version, a.BuildTag)
}

// Spec returns the package spec string used for display and channel lookup,
// e.g. "openmmtools=0.7.5".
func (a Artifact) Spec() string {
	return fmt.Sprintf("%s=%s", a.Package, a.Version)
}

// MatchesTag reports whether the artifact was built for the given interpreter
// build tag prefix (e.g. "py35" matches build tag "py35_0").
func (a Artifact) MatchesTag(tag string) bool {
	return a.BuildTag == tag || strings.HasPrefix(a.BuildTag, tag+"_")
}

// TestTiming records per-test wall time.
type TestTiming struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// TestReport represents test suite execution results.
type TestReport struct {
	Passed       bool         `json:"passed"`
	TotalTests   int          `json:"totalTests"`
	PassedTests  int          `json:"passedTests"`
	FailedTests  int          `json:"failedTests"`
	ErroredTests int          `json:"erroredTests"`
	SkippedTests int          `json:"skippedTests"`
	Duration     string       `json:"duration"`
	Timings      []TestTiming `json:"timings,omitempty"`
}

// ExecutedTests returns the number of tests that actually ran.
func (r *TestReport) ExecutedTests() int {
	return r.TotalTests - r.SkippedTests
}
