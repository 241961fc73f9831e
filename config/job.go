package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidJobSpec is wrapped by all job spec validation failures.
var ErrInvalidJobSpec = errors.New("invalid job spec")

// DefaultJobSpecName is the filename LoadProjectJobSpec looks for in the
// project root.
const DefaultJobSpecName = ".buildflow.job.yaml"

// JobSpec is the per-repository job file describing what the pipeline builds,
// tests, and publishes. It is a plain serialization type; callers map it onto
// their runtime job structures.
//
//	package: openmmtools
//	recipe: ./devtools/conda-recipe
//	organization: omnia
//	channels: [omnia]
//	test_deps: [nose, nose-timer]
//	test:
//	  exclude: [slow]
//	  verbosity: 2
//	  timer: true
//	versions: ["2.7", "3.4", "3.5"]
//	publish:
//	  backend: anaconda
type JobSpec struct {
	// Package is the name of the package under test.
	Package string `yaml:"package"`

	// Recipe is the path to the build recipe directory, relative to the
	// project root unless absolute.
	Recipe string `yaml:"recipe"`

	// Organization is the channel owner artifacts are published under.
	Organization string `yaml:"organization"`

	// Channels lists additional package channels in resolution order.
	Channels []string `yaml:"channels"`

	// TestDeps lists test-only dependencies installed alongside the artifact.
	TestDeps []string `yaml:"test_deps"`

	// Test configures the test runner invocation.
	Test TestSpec `yaml:"test"`

	// Versions is the interpreter version matrix, e.g. ["2.7", "3.4", "3.5"].
	Versions []string `yaml:"versions"`

	// Publish configures the optional publish target.
	Publish PublishSpec `yaml:"publish"`
}

// TestSpec configures the test runner.
type TestSpec struct {
	Exclude   []string `yaml:"exclude"`   // Attribute tags to exclude (e.g. "slow")
	Include   []string `yaml:"include"`   // Attribute tags to require
	Verbosity int      `yaml:"verbosity"` // Runner verbosity level
	Timer     bool     `yaml:"timer"`     // Report per-test timing
	Doctest   bool     `yaml:"doctest"`   // Include doctests in the run
}

// Publish backends accepted in a job spec.
const (
	BackendAnaconda = "anaconda"
	BackendGitHub   = "github"
	BackendGitLab   = "gitlab"
	BackendS3       = "s3"
)

var validBackends = []string{BackendAnaconda, BackendGitHub, BackendGitLab, BackendS3}

// PublishSpec configures where passing builds are uploaded. Backend selects
// the target; the remaining fields only apply to the backends that use them.
// Credentials never live here, they come from the environment.
type PublishSpec struct {
	// Backend is one of "anaconda", "github", "gitlab", "s3", or empty to
	// disable publishing.
	Backend string `yaml:"backend"`

	// Owner and Repo identify the GitHub repository for release uploads.
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// ProjectID identifies the GitLab project for generic package uploads.
	ProjectID int `yaml:"project_id"`

	// Bucket, Prefix, Endpoint, and Region configure S3 uploads.
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

// Enabled reports whether a publish backend is configured.
func (p PublishSpec) Enabled() bool {
	return p.Backend != ""
}

// LoadJobSpec reads and validates a job spec file.
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job spec: %w", err)
	}

	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse job spec %s: %w", path, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &spec, nil
}

// LoadProjectJobSpec loads the job spec from its default location in the
// project root.
func LoadProjectJobSpec(projectRoot string) (*JobSpec, error) {
	if projectRoot == "" {
		return nil, fmt.Errorf("%w: project root not found", ErrInvalidJobSpec)
	}
	return LoadJobSpec(filepath.Join(projectRoot, DefaultJobSpecName))
}

// Validate checks the job spec for the problems that would otherwise
// surface halfway through a run.
func (s *JobSpec) Validate() error {
	if s.Package == "" {
		return fmt.Errorf("%w: package is required", ErrInvalidJobSpec)
	}
	if s.Recipe == "" {
		return fmt.Errorf("%w: recipe is required", ErrInvalidJobSpec)
	}
	if len(s.Versions) == 0 {
		return fmt.Errorf("%w: at least one matrix version is required", ErrInvalidJobSpec)
	}
	for _, v := range s.Versions {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: empty matrix version", ErrInvalidJobSpec)
		}
	}
	for _, ch := range s.Channels {
		if strings.TrimSpace(ch) == "" || strings.HasPrefix(ch, "-") {
			return fmt.Errorf("%w: malformed channel %q", ErrInvalidJobSpec, ch)
		}
	}

	if s.Publish.Enabled() {
		if !contains(validBackends, s.Publish.Backend) {
			return fmt.Errorf("%w: unknown publish backend %q (valid: %s)",
				ErrInvalidJobSpec, s.Publish.Backend, strings.Join(validBackends, ", "))
		}
		switch s.Publish.Backend {
		case BackendAnaconda:
			if s.Organization == "" {
				return fmt.Errorf("%w: anaconda publishing requires an organization", ErrInvalidJobSpec)
			}
		case BackendGitHub:
			if s.Publish.Owner == "" || s.Publish.Repo == "" {
				return fmt.Errorf("%w: github publishing requires owner and repo", ErrInvalidJobSpec)
			}
		case BackendGitLab:
			if s.Publish.ProjectID == 0 {
				return fmt.Errorf("%w: gitlab publishing requires project_id", ErrInvalidJobSpec)
			}
		case BackendS3:
			if s.Publish.Bucket == "" || s.Publish.Endpoint == "" {
				return fmt.Errorf("%w: s3 publishing requires bucket and endpoint", ErrInvalidJobSpec)
			}
		}
	}

	return nil
}
