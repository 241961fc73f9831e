package buildflow

import (
	"errors"
	"fmt"
)

// Toolchain errors
var (
	// ErrCondaNotFound indicates the conda executable is not available.
	ErrCondaNotFound = errors.New("conda executable not found")

	// ErrUnsupportedVersion indicates the interpreter version is outside the supported range.
	ErrUnsupportedVersion = errors.New("unsupported interpreter version")

	// ErrEnvNotFound indicates the named environment does not exist.
	ErrEnvNotFound = errors.New("environment not found")

	// ErrNoRecipe indicates the recipe directory does not exist.
	ErrNoRecipe = errors.New("recipe directory not found")
)

// Artifact invariant errors
var (
	// ErrNoArtifact indicates the build produced no matching artifact.
	ErrNoArtifact = errors.New("build produced no artifact")

	// ErrMultipleArtifacts indicates the build produced more than one matching artifact.
	ErrMultipleArtifacts = errors.New("build produced multiple artifacts")

	// ErrArtifactMismatch indicates the artifact does not belong to this matrix entry.
	ErrArtifactMismatch = errors.New("artifact does not match this matrix entry")
)

// ProvisionError indicates environment provisioning failed. It is fatal to
// the matrix entry that raised it.
type ProvisionError struct {
	Version string // Interpreter version that was requested
	Output  string // Combined tool output
	Err     error  // Underlying error
}

func (e *ProvisionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("provision python %s: %s", e.Version, e.Output)
	}
	return fmt.Sprintf("provision python %s: %v", e.Version, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// BuildError indicates the recipe build failed. It is fatal to the matrix
// entry that raised it; the install, test, and publish stages never run.
type BuildError struct {
	Recipe string // Path to the recipe directory
	Output string // Combined tool output
	Err    error  // Underlying error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("build %s: %s", e.Recipe, e.Output)
	}
	return fmt.Sprintf("build %s: %v", e.Recipe, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// InstallError indicates the just-built artifact could not be installed from
// the configured channels. Fatal to the matrix entry.
type InstallError struct {
	Package string // Package that failed to install
	Output  string // Combined tool output
	Err     error  // Underlying error
}

func (e *InstallError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("install %s: %s", e.Package, e.Output)
	}
	return fmt.Sprintf("install %s: %v", e.Package, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// TestFailure indicates one or more non-skipped tests failed or errored.
// The suite always runs to completion before this is raised.
type TestFailure struct {
	Package string // Package under test
	Failed  int    // Tests that failed assertions
	Errored int    // Tests that raised errors
	Output  string // Tail of the test runner output
}

func (e *TestFailure) Error() string {
	return fmt.Sprintf("test %s: %d failed, %d errored", e.Package, e.Failed, e.Errored)
}
