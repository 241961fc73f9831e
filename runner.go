package buildflow

import (
	"fmt"
	"os/exec"
	"strings"
)

// =============================================================================
// CommandRunner
// =============================================================================

// CommandRunner executes external commands. The pipeline shells out to the
// conda toolchain through this interface so tests can substitute MockRunner.
type CommandRunner interface {
	// Run executes a command in the given working directory and returns
	// its trimmed combined output. dir may be empty for the process cwd.
	Run(dir string, name string, args ...string) (string, error)
}

// CommandError wraps a failed command with its output.
type CommandError struct {
	Command string   // Command that was run
	Args    []string // Arguments passed to the command
	Output  string   // Combined stdout/stderr output
	Err     error    // Underlying error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "command failed"
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ExecRunner
// =============================================================================

// ExecRunner runs commands using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(dir string, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))

	if err != nil {
		return output, &CommandError{
			Command: name,
			Args:    args,
			Output:  output,
			Err:     err,
		}
	}

	return output, nil
}

// =============================================================================
// MockRunner
// =============================================================================

// MockResponse is a canned response for MockRunner.
type MockResponse struct {
	Stdout string
	Err    error
}

// MockCall records a single invocation of MockRunner.Run.
type MockCall struct {
	Command string
	Args    []string
	WorkDir string
}

// MockRunner is a CommandRunner for tests. Responses are matched in order:
// exact command+args key, command-only key, wildcard ("*"), DefaultResponse.
type MockRunner struct {
	Responses       map[string]MockResponse
	DefaultResponse MockResponse
	Calls           []MockCall
}

// NewMockRunner creates a mock runner with an initialized response map.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string]MockResponse),
	}
}

// mockStub allows fluent response registration via OnCommand(...).Return(...).
type mockStub struct {
	runner *MockRunner
	key    string
}

// Return registers the response for the stubbed command.
func (s *mockStub) Return(stdout string, err error) {
	s.runner.Responses[s.key] = MockResponse{Stdout: stdout, Err: err}
}

// OnCommand registers a response for an exact command and argument list.
func (r *MockRunner) OnCommand(name string, args ...string) *mockStub {
	return &mockStub{runner: r, key: commandKey(name, args)}
}

// OnAnyCommand registers a wildcard response used when nothing else matches.
func (r *MockRunner) OnAnyCommand() *mockStub {
	return &mockStub{runner: r, key: "*"}
}

// Run implements CommandRunner.
func (r *MockRunner) Run(dir string, name string, args ...string) (string, error) {
	r.Calls = append(r.Calls, MockCall{Command: name, Args: args, WorkDir: dir})

	if resp, ok := r.Responses[commandKey(name, args)]; ok {
		return resp.Stdout, resp.Err
	}
	if resp, ok := r.Responses[name]; ok {
		return resp.Stdout, resp.Err
	}
	if resp, ok := r.Responses["*"]; ok {
		return resp.Stdout, resp.Err
	}
	if r.DefaultResponse != (MockResponse{}) {
		return r.DefaultResponse.Stdout, r.DefaultResponse.Err
	}

	return "", fmt.Errorf("no mock response for %q", commandKey(name, args))
}

// WasCalled reports whether the command was invoked with the given argument
// prefix. WasCalled("conda") matches any conda invocation.
func (r *MockRunner) WasCalled(name string, args ...string) bool {
	for _, call := range r.Calls {
		if call.Command != name {
			continue
		}
		if len(args) > len(call.Args) {
			continue
		}
		if argsMatch(call.Args[:len(args)], args) {
			return true
		}
	}
	return false
}

// CallCount returns the number of invocations of the named command.
func (r *MockRunner) CallCount(name string) int {
	count := 0
	for _, call := range r.Calls {
		if call.Command == name {
			count++
		}
	}
	return count
}

func commandKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

func argsMatch(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if actual[i] != expected[i] {
			return false
		}
	}
	return true
}
