package buildflow

import (
	"fmt"
	"strings"
)

// Conda manages conda toolchain operations: environments, recipe builds,
// installs, and test runs. All tool state is explicit: channels and
// interpreter versions are passed per invocation rather than written into
// ambient configuration, so concurrent matrix entries never interfere.
type Conda struct {
	exe     string        // Conda executable (defaults to "conda")
	workDir string        // Working directory for commands
	runner  CommandRunner // Command runner (defaults to ExecRunner)
}

// CondaOption configures Conda.
type CondaOption func(*Conda)

// NewConda creates a conda adapter and verifies the executable is available.
func NewConda(opts ...CondaOption) (*Conda, error) {
	c := &Conda{
		exe:    "conda",
		runner: NewExecRunner(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, err := c.runner.Run(c.workDir, c.exe, "--version"); err != nil {
		return nil, ErrCondaNotFound
	}

	return c, nil
}

// WithExe sets the conda executable path.
func WithExe(exe string) CondaOption {
	return func(c *Conda) {
		c.exe = exe
	}
}

// WithWorkDir sets the working directory for tool invocations.
func WithWorkDir(dir string) CondaOption {
	return func(c *Conda) {
		c.workDir = dir
	}
}

// WithCondaRunner sets a custom command runner.
// This is primarily used for testing to inject mock command execution.
func WithCondaRunner(runner CommandRunner) CondaOption {
	return func(c *Conda) {
		c.runner = runner
	}
}

// WorkDir returns the working directory for tool invocations.
func (c *Conda) WorkDir() string {
	return c.workDir
}

// Version returns the conda version string.
func (c *Conda) Version() (string, error) {
	return c.runner.Run(c.workDir, c.exe, "--version")
}

// =============================================================================
// Environments
// =============================================================================

// CreateEnv creates a fresh named environment bound to the interpreter
// version.
func (c *Conda) CreateEnv(name, pythonVersion string) error {
	args := []string{"create", "--yes", "--quiet", "--name", name, "python=" + pythonVersion}
	if out, err := c.runner.Run(c.workDir, c.exe, args...); err != nil {
		return &ProvisionError{Version: pythonVersion, Output: out, Err: err}
	}
	return nil
}

// EnvExists checks whether a named environment exists.
func (c *Conda) EnvExists(name string) bool {
	out, err := c.runner.Run(c.workDir, c.exe, "env", "list")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true
		}
	}
	return false
}

// RemoveEnv removes a named environment.
func (c *Conda) RemoveEnv(name string) error {
	if !c.EnvExists(name) {
		return ErrEnvNotFound
	}
	if out, err := c.runner.Run(c.workDir, c.exe, "env", "remove", "--yes", "--name", name); err != nil {
		return fmt.Errorf("remove env %s: %s: %w", name, out, err)
	}
	return nil
}

// =============================================================================
// Recipe Builds
// =============================================================================

// BuildOutputs returns the artifact paths the recipe would produce for the
// interpreter version, without building. One path per output line.
func (c *Conda) BuildOutputs(recipe, pythonVersion string, channels []string) ([]string, error) {
	args := []string{"build", "--output", "--python", pythonVersion}
	args = append(args, channelArgs(channels)...)
	args = append(args, recipe)

	out, err := c.runner.Run(c.workDir, c.exe, args...)
	if err != nil {
		return nil, &BuildError{Recipe: recipe, Output: out, Err: err}
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// BuildRecipe builds the recipe for the interpreter version, writing the
// artifact to conda's build output location.
func (c *Conda) BuildRecipe(recipe, pythonVersion string, channels []string) error {
	args := []string{"build", "--python", pythonVersion, "--quiet"}
	args = append(args, channelArgs(channels)...)
	args = append(args, recipe)

	if out, err := c.runner.Run(c.workDir, c.exe, args...); err != nil {
		return &BuildError{Recipe: recipe, Output: out, Err: err}
	}
	return nil
}

// =============================================================================
// Installs
// =============================================================================

// InstallLocal installs packages into the environment using only locally
// built artifacts for the named specs. The --use-local flag guarantees the
// artifact under test is the one just built, never a same-named package
// resolved from a remote channel.
func (c *Conda) InstallLocal(env string, specs []string, channels []string) error {
	if len(specs) == 0 {
		return nil
	}

	args := []string{"install", "--yes", "--quiet", "--name", env, "--use-local"}
	args = append(args, channelArgs(channels)...)
	args = append(args, specs...)

	if out, err := c.runner.Run(c.workDir, c.exe, args...); err != nil {
		return &InstallError{Package: specs[0], Output: out, Err: err}
	}
	return nil
}

// =============================================================================
// Test Runs
// =============================================================================

// TestOptions control the test runner invocation.
type TestOptions struct {
	Exclude   []string `json:"exclude,omitempty"`   // Attribute tags to exclude (e.g. "slow")
	Include   []string `json:"include,omitempty"`   // Attribute tags to require
	Verbosity int      `json:"verbosity,omitempty"` // Runner verbosity level
	Timer     bool     `json:"timer,omitempty"`     // Report per-test timing
	Doctest   bool     `json:"doctest,omitempty"`   // Include doctests in the run
}

// RunTests executes the package's test suite inside the environment and
// returns the raw runner output. The suite runs to completion; a non-nil
// error only signals a non-zero runner exit, which the caller turns into a
// structured result.
func (c *Conda) RunTests(env, pkg string, opts TestOptions) (string, error) {
	args := []string{"run", "--name", env, "nosetests", pkg}
	args = append(args, testArgs(opts)...)
	return c.runner.Run(c.workDir, c.exe, args...)
}

// testArgs builds the nosetests argument list from options.
func testArgs(opts TestOptions) []string {
	var args []string

	if attr := attrExpression(opts); attr != "" {
		args = append(args, "-a", attr)
	}
	if opts.Verbosity > 0 {
		args = append(args, fmt.Sprintf("--verbosity=%d", opts.Verbosity))
	}
	if opts.Timer {
		args = append(args, "--with-timer")
	}
	if opts.Doctest {
		args = append(args, "--with-doctest")
	}

	return args
}

// attrExpression builds the nose attribute filter, e.g. include "gpu" plus
// exclude "slow" yields "gpu,!slow".
func attrExpression(opts TestOptions) string {
	terms := make([]string, 0, len(opts.Include)+len(opts.Exclude))
	terms = append(terms, opts.Include...)
	for _, tag := range opts.Exclude {
		terms = append(terms, "!"+tag)
	}
	return strings.Join(terms, ",")
}

// channelArgs renders the per-invocation channel flags, preserving order.
func channelArgs(channels []string) []string {
	args := make([]string, 0, len(channels)*2)
	for _, ch := range channels {
		args = append(args, "-c", ch)
	}
	return args
}
