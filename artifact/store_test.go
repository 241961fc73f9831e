package artifact

import (
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(StoreConfig{BaseDir: t.TempDir()})
}

func TestStore_SaveLoadArtifact(t *testing.T) {
	store := newTestStore(t)

	art := Artifact{
		Package:  "openmmtools",
		Version:  "0.7.5",
		BuildTag: "py35_0",
		Path:     "/conda-bld/linux-64/openmmtools-0.7.5-py35_0.tar.bz2",
	}

	if err := store.SaveArtifact("run-1", art); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	got, err := store.LoadArtifact("run-1")
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if got != art {
		t.Errorf("LoadArtifact = %+v, want %+v", got, art)
	}
}

func TestStore_LoadArtifact_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadArtifact("missing-run")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestStore_SaveLoadTestReport(t *testing.T) {
	store := newTestStore(t)

	report := &TestReport{
		Passed:       true,
		TotalTests:   25,
		PassedTests:  22,
		SkippedTests: 3,
		Duration:     "1.234s",
		Timings:      []TestTiming{{Name: "test_integrators.test_stabilities", Seconds: 0.42}},
	}

	if err := store.SaveTestReport("run-1", report); err != nil {
		t.Fatalf("SaveTestReport: %v", err)
	}

	got, err := store.LoadTestReport("run-1")
	if err != nil {
		t.Fatalf("LoadTestReport: %v", err)
	}
	if got.TotalTests != 25 || got.SkippedTests != 3 || !got.Passed {
		t.Errorf("unexpected report: %+v", got)
	}
	if len(got.Timings) != 1 || got.Timings[0].Seconds != 0.42 {
		t.Errorf("unexpected timings: %+v", got.Timings)
	}
}

func TestStore_RunIsolation(t *testing.T) {
	store := newTestStore(t)

	a := Artifact{Package: "pkg", Version: "1.0", BuildTag: "py27_0"}
	b := Artifact{Package: "pkg", Version: "1.0", BuildTag: "py35_0"}

	if err := store.SaveArtifact("run-py27", a); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveArtifact("run-py35", b); err != nil {
		t.Fatal(err)
	}

	gotA, _ := store.LoadArtifact("run-py27")
	gotB, _ := store.LoadArtifact("run-py35")
	if gotA.BuildTag != "py27_0" || gotB.BuildTag != "py35_0" {
		t.Error("runs should not share artifact records")
	}
}

func TestStore_ListRuns(t *testing.T) {
	store := newTestStore(t)

	if runs, err := store.ListRuns(); err != nil || runs != nil {
		t.Errorf("empty store: runs = %v, err = %v", runs, err)
	}

	store.EnsureRunDir("run-a")
	store.EnsureRunDir("run-b")

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("runs = %v, want 2 entries", runs)
	}
}
