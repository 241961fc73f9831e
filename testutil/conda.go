package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// ScriptCall records a single invocation of CondaScript.Run.
type ScriptCall struct {
	Command string
	Args    []string
	WorkDir string
}

// CondaScript is a scripted conda toolchain for tests. It satisfies the
// pipeline's CommandRunner interface and dispatches on the conda subcommand,
// so tests do not need to register exact argument lists for invocations that
// embed generated names (environments, run IDs).
//
// The zero value behaves as a fully passing toolchain once Version and
// BuildOutput are set; see NewCondaScript for a ready happy-path script.
type CondaScript struct {
	Version     string // conda --version output
	BuildOutput string // artifact path printed by "build --output"
	TestOutput  string // test runner output
	Envs        []string

	// BuildOutputByVersion overrides BuildOutput per interpreter version,
	// for matrix runs where each entry builds a differently tagged artifact.
	BuildOutputByVersion map[string]string

	CreateErr  error
	BuildErr   error
	InstallErr error
	TestErr    error

	mu    sync.Mutex
	Calls []ScriptCall
}

// NewCondaScript returns a script for a happy-path run that builds the given
// artifact path and passes the given number of tests.
func NewCondaScript(artifactPath string, tests int) *CondaScript {
	return &CondaScript{
		Version:     "conda 4.3.21",
		BuildOutput: artifactPath,
		TestOutput:  PassingNoseOutput(tests),
	}
}

// Run dispatches on the conda subcommand.
func (s *CondaScript) Run(dir string, name string, args ...string) (string, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, ScriptCall{Command: name, Args: args, WorkDir: dir})
	s.mu.Unlock()

	if len(args) == 0 {
		return "", fmt.Errorf("no mock behavior for bare %q", name)
	}

	switch args[0] {
	case "--version":
		return s.Version, nil
	case "create":
		if s.CreateErr != nil {
			return "", s.CreateErr
		}
		s.mu.Lock()
		s.Envs = append(s.Envs, argValue(args, "--name"))
		s.mu.Unlock()
		return "", nil
	case "env":
		if len(args) > 1 && args[1] == "list" {
			return strings.Join(s.Envs, "\n"), nil
		}
		return "", nil
	case "build":
		if s.BuildErr != nil {
			return "", s.BuildErr
		}
		if contains(args, "--output") {
			if out, ok := s.BuildOutputByVersion[argValue(args, "--python")]; ok {
				return out, nil
			}
			return s.BuildOutput, nil
		}
		return "", nil
	case "install":
		if s.InstallErr != nil {
			return "", s.InstallErr
		}
		return "", nil
	case "run":
		return s.TestOutput, s.TestErr
	}

	return "", fmt.Errorf("no mock behavior for %q %v", name, args)
}

// WasCalled reports whether any recorded call used the given subcommand.
func (s *CondaScript) WasCalled(subcommand string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, call := range s.Calls {
		if len(call.Args) > 0 && call.Args[0] == subcommand {
			return true
		}
	}
	return false
}

// CallsFor returns the recorded calls for a subcommand.
func (s *CondaScript) CallsFor(subcommand string) []ScriptCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var calls []ScriptCall
	for _, call := range s.Calls {
		if len(call.Args) > 0 && call.Args[0] == subcommand {
			calls = append(calls, call)
		}
	}
	return calls
}

// PassingNoseOutput renders runner output for a fully passing suite.
func PassingNoseOutput(tests int) string {
	return fmt.Sprintf("....\nRan %d tests in 12.345s\n\nOK\n", tests)
}

// FailingNoseOutput renders runner output for a suite with failures.
func FailingNoseOutput(tests, failures, errors int) string {
	return fmt.Sprintf("....\nRan %d tests in 12.345s\n\nFAILED (errors=%d, failures=%d)\n",
		tests, errors, failures)
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
