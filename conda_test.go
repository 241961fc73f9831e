package buildflow

import (
	"errors"
	"strings"
	"testing"
)

func newTestConda(t *testing.T, runner *MockRunner) *Conda {
	t.Helper()
	runner.OnCommand("conda", "--version").Return("conda 4.1.11", nil)
	conda, err := NewConda(WithCondaRunner(runner))
	if err != nil {
		t.Fatalf("NewConda: %v", err)
	}
	return conda
}

func TestNewConda_NotFound(t *testing.T) {
	runner := NewMockRunner()
	runner.OnCommand("conda", "--version").Return("", errors.New("executable file not found"))

	_, err := NewConda(WithCondaRunner(runner))
	if !errors.Is(err, ErrCondaNotFound) {
		t.Errorf("err = %v, want ErrCondaNotFound", err)
	}
}

func TestConda_CreateEnv(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "create", "--yes", "--quiet", "--name", "bf-test", "python=3.5").Return("", nil)

	if err := conda.CreateEnv("bf-test", "3.5"); err != nil {
		t.Fatalf("CreateEnv: %v", err)
	}

	if !runner.WasCalled("conda", "create", "--yes", "--quiet", "--name", "bf-test", "python=3.5") {
		t.Error("expected conda create invocation with pinned python version")
	}
}

func TestConda_CreateEnv_Error(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "create", "--yes", "--quiet", "--name", "bf-test", "python=9.9").
		Return("PackageNotFoundError: python=9.9", errors.New("exit status 1"))

	err := conda.CreateEnv("bf-test", "9.9")
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *ProvisionError
	if !errors.As(err, &provErr) {
		t.Fatalf("error should be ProvisionError, got %T", err)
	}
	if provErr.Version != "9.9" {
		t.Errorf("Version = %q, want %q", provErr.Version, "9.9")
	}
	if !strings.Contains(provErr.Error(), "PackageNotFoundError") {
		t.Errorf("error should surface tool output, got %q", provErr.Error())
	}
}

func TestConda_EnvExists(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "env", "list").Return(
		"# conda environments:\nbase     /opt/conda\nbf-run-1 /opt/conda/envs/bf-run-1", nil)

	if !conda.EnvExists("bf-run-1") {
		t.Error("bf-run-1 should exist")
	}
	if conda.EnvExists("bf-run-2") {
		t.Error("bf-run-2 should not exist")
	}
}

func TestConda_RemoveEnv_NotFound(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "env", "list").Return("# conda environments:\nbase /opt/conda", nil)

	if err := conda.RemoveEnv("missing"); !errors.Is(err, ErrEnvNotFound) {
		t.Errorf("err = %v, want ErrEnvNotFound", err)
	}
}

func TestConda_BuildOutputs(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "build", "--output", "--python", "3.5", "-c", "omnia", "devtools/conda-recipe").
		Return("/opt/conda/conda-bld/linux-64/openmmtools-0.7.5-py35_0.tar.bz2", nil)

	paths, err := conda.BuildOutputs("devtools/conda-recipe", "3.5", []string{"omnia"})
	if err != nil {
		t.Fatalf("BuildOutputs: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want 1 entry", paths)
	}
	if !strings.HasSuffix(paths[0], "openmmtools-0.7.5-py35_0.tar.bz2") {
		t.Errorf("unexpected path %q", paths[0])
	}
}

func TestConda_BuildRecipe_Error(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnCommand("conda", "build", "--python", "3.5", "--quiet", "devtools/conda-recipe").
		Return("Error: no packages found matching: missing-dep", errors.New("exit status 1"))

	err := conda.BuildRecipe("devtools/conda-recipe", "3.5", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("error should be BuildError, got %T", err)
	}
	if buildErr.Recipe != "devtools/conda-recipe" {
		t.Errorf("Recipe = %q", buildErr.Recipe)
	}
	if !strings.Contains(buildErr.Error(), "missing-dep") {
		t.Errorf("error should surface tool output, got %q", buildErr.Error())
	}
}

func TestConda_InstallLocal(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnAnyCommand().Return("", nil)

	err := conda.InstallLocal("bf-env", []string{"openmmtools", "nose", "nose-timer"}, []string{"omnia"})
	if err != nil {
		t.Fatalf("InstallLocal: %v", err)
	}

	if !runner.WasCalled("conda", "install", "--yes", "--quiet", "--name", "bf-env", "--use-local") {
		t.Error("install must pass --use-local before any channel flags")
	}

	call := runner.Calls[len(runner.Calls)-1]
	joined := strings.Join(call.Args, " ")
	if !strings.Contains(joined, "-c omnia") {
		t.Errorf("install should pass configured channels, got %q", joined)
	}
	if !strings.HasSuffix(joined, "openmmtools nose nose-timer") {
		t.Errorf("install should list the artifact then test deps, got %q", joined)
	}
}

func TestConda_InstallLocal_Error(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnAnyCommand().Return("UnsatisfiableError: openmmtools", errors.New("exit status 1"))

	err := conda.InstallLocal("bf-env", []string{"openmmtools"}, nil)

	var instErr *InstallError
	if !errors.As(err, &instErr) {
		t.Fatalf("error should be InstallError, got %T", err)
	}
	if instErr.Package != "openmmtools" {
		t.Errorf("Package = %q, want openmmtools", instErr.Package)
	}
}

func TestConda_InstallLocal_NoSpecs(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)

	if err := conda.InstallLocal("bf-env", nil, nil); err != nil {
		t.Fatalf("InstallLocal with no specs should be a no-op, got %v", err)
	}
	if runner.WasCalled("conda", "install") {
		t.Error("no install should run for an empty spec list")
	}
}

func TestConda_RunTests_Args(t *testing.T) {
	runner := NewMockRunner()
	conda := newTestConda(t, runner)
	runner.OnAnyCommand().Return("Ran 10 tests in 1.000s\n\nOK", nil)

	_, err := conda.RunTests("bf-env", "openmmtools", TestOptions{
		Exclude:   []string{"slow"},
		Verbosity: 2,
		Timer:     true,
		Doctest:   true,
	})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}

	call := runner.Calls[len(runner.Calls)-1]
	joined := strings.Join(call.Args, " ")
	for _, want := range []string{"run --name bf-env nosetests openmmtools", "-a !slow", "--verbosity=2", "--with-timer", "--with-doctest"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args should contain %q, got %q", want, joined)
		}
	}
}

func TestAttrExpression(t *testing.T) {
	tests := []struct {
		name string
		opts TestOptions
		want string
	}{
		{"empty", TestOptions{}, ""},
		{"exclude only", TestOptions{Exclude: []string{"slow"}}, "!slow"},
		{"include only", TestOptions{Include: []string{"gpu"}}, "gpu"},
		{"both", TestOptions{Include: []string{"gpu"}, Exclude: []string{"slow", "network"}}, "gpu,!slow,!network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attrExpression(tt.opts); got != tt.want {
				t.Errorf("attrExpression = %q, want %q", got, tt.want)
			}
		})
	}
}
