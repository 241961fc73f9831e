package buildflow

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Matrix Entry Tests
// =============================================================================

func TestNewMatrixEntry(t *testing.T) {
	tests := []struct {
		version string
		wantTag string
	}{
		{"2.7", "py27"},
		{"3.4", "py34"},
		{"3.5", "py35"},
		{"3.10", "py310"},
	}

	for _, tt := range tests {
		entry := NewMatrixEntry(tt.version)
		if entry.BuildTag != tt.wantTag {
			t.Errorf("BuildTag for %s = %q, want %q", tt.version, entry.BuildTag, tt.wantTag)
		}
	}
}

func TestMatrixEntry_Validate(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"3.5", false},
		{"2.7", false},
		{"2.6", false},
		{"2.5", true},
		{"1.0", true},
		{"not-a-version", true},
		{"", true},
	}

	for _, tt := range tests {
		err := NewMatrixEntry(tt.version).Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Validate(%q) error = %v, want ErrUnsupportedVersion", tt.version, err)
		}
	}
}

func TestMatrix(t *testing.T) {
	entries := Matrix("2.7", "3.4", "3.5")
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[1].BuildTag != "py34" {
		t.Errorf("entries[1].BuildTag = %q", entries[1].BuildTag)
	}
}

// =============================================================================
// State Tests
// =============================================================================

func testJob() *Job {
	return &Job{
		Package:      "openmmtools",
		Recipe:       "./devtools/conda-recipe",
		Organization: "omnia",
		Channels:     []string{"omnia"},
	}
}

func TestNewState(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	if state.FlowID != "ci" {
		t.Errorf("FlowID = %q, want %q", state.FlowID, "ci")
	}
	if state.RunID == "" {
		t.Error("RunID should not be empty")
	}
	if !strings.Contains(state.RunID, "py35") {
		t.Errorf("RunID %q should embed the build tag", state.RunID)
	}
	if state.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
	if state.PublishStatus != StatusPending {
		t.Errorf("PublishStatus = %q, want %q", state.PublishStatus, StatusPending)
	}
}

func TestNewState_UniqueRunIDs(t *testing.T) {
	entry := NewMatrixEntry("3.5")
	a := NewState("ci", testJob(), entry)
	b := NewState("ci", testJob(), entry)

	if a.RunID == b.RunID {
		t.Errorf("run IDs should be unique, both = %q", a.RunID)
	}
}

func TestState_WithRunID(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))
	state = state.WithRunID("custom-run-id")

	if state.RunID != "custom-run-id" {
		t.Errorf("RunID = %q, want %q", state.RunID, "custom-run-id")
	}
}

func TestState_SetError(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	state.SetError(nil)
	if state.Error != "" {
		t.Errorf("Error = %q, want empty", state.Error)
	}

	state.SetError(ErrNoArtifact)
	if state.Error != ErrNoArtifact.Error() {
		t.Errorf("Error = %q, want %q", state.Error, ErrNoArtifact.Error())
	}
	if !state.HasError() {
		t.Error("HasError() = false after SetError")
	}
}

func TestState_FinalizeDuration(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	time.Sleep(10 * time.Millisecond)
	state.FinalizeDuration()

	if state.TotalDuration < 10*time.Millisecond {
		t.Errorf("TotalDuration = %v, want >= 10ms", state.TotalDuration)
	}
}

func TestState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*State)
		reqs    []StateRequirement
		wantErr bool
	}{
		{
			name:    "no requirements",
			mutate:  func(s *State) {},
			reqs:    nil,
			wantErr: false,
		},
		{
			name:    "job present",
			mutate:  func(s *State) {},
			reqs:    []StateRequirement{RequireJob},
			wantErr: false,
		},
		{
			name:    "job missing",
			mutate:  func(s *State) { s.Job = nil },
			reqs:    []StateRequirement{RequireJob},
			wantErr: true,
		},
		{
			name:    "env missing",
			mutate:  func(s *State) {},
			reqs:    []StateRequirement{RequireEnv},
			wantErr: true,
		},
		{
			name:    "env present",
			mutate:  func(s *State) { s.EnvName = "bf-test" },
			reqs:    []StateRequirement{RequireEnv},
			wantErr: false,
		},
		{
			name:    "artifact missing",
			mutate:  func(s *State) {},
			reqs:    []StateRequirement{RequireArtifact},
			wantErr: true,
		},
		{
			name:    "installed missing",
			mutate:  func(s *State) {},
			reqs:    []StateRequirement{RequireInstalled},
			wantErr: true,
		},
		{
			name:    "report missing",
			mutate:  func(s *State) {},
			reqs:    []StateRequirement{RequireReport},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState("ci", testJob(), NewMatrixEntry("3.5"))
			tt.mutate(&state)
			err := state.Validate(tt.reqs...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Publish Transition Tests
// =============================================================================

func TestState_PublishTransitions(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	state.MarkEligible()
	if state.PublishStatus != StatusEligible {
		t.Errorf("PublishStatus = %q, want %q", state.PublishStatus, StatusEligible)
	}

	state.MarkPublishing()
	if state.PublishStatus != StatusPublishing {
		t.Errorf("PublishStatus = %q, want %q", state.PublishStatus, StatusPublishing)
	}

	state.MarkPublished("https://anaconda.org/omnia/openmmtools")
	if !state.Published() {
		t.Error("Published() = false after MarkPublished")
	}
	if state.PublishedAt.IsZero() {
		t.Error("PublishedAt should be set")
	}
}

func TestState_PublishSkipped(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	state.MarkPublishSkipped("context not declared trusted")

	if state.PublishStatus != StatusSkipped {
		t.Errorf("PublishStatus = %q, want %q", state.PublishStatus, StatusSkipped)
	}
	if state.Published() {
		t.Error("skipped run must not count as published")
	}
	// A skipped publish is not an error.
	if state.HasError() {
		t.Error("skip must not set an error")
	}
}

func TestState_PublishFailed(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	state.MarkPublishFailed(errors.New("upload timed out"))

	if state.PublishStatus != StatusFailed {
		t.Errorf("PublishStatus = %q, want %q", state.PublishStatus, StatusFailed)
	}
	// Publish failure never fails the run.
	if state.HasError() {
		t.Error("publish failure must not set the run error")
	}
}

// =============================================================================
// Status and Summary Tests
// =============================================================================

func TestState_Status(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))

	if got := state.Status(); got != "pending" {
		t.Errorf("Status() = %q, want %q", got, "pending")
	}

	state.EnvName = "bf-test"
	if got := state.Status(); got != "provisioned" {
		t.Errorf("Status() = %q, want %q", got, "provisioned")
	}

	state.Error = "build failed"
	if got := state.Status(); got != "failed" {
		t.Errorf("Status() = %q, want %q", got, "failed")
	}
}

func TestState_Summary(t *testing.T) {
	state := NewState("ci", testJob(), NewMatrixEntry("3.5"))
	state.MarkPublishSkipped("no publish token available")

	summary := state.Summary()
	if !strings.Contains(summary, state.RunID) {
		t.Errorf("summary should contain run ID: %q", summary)
	}
	if !strings.Contains(summary, "3.5") {
		t.Errorf("summary should contain the interpreter version: %q", summary)
	}
	if !strings.Contains(summary, "no publish token available") {
		t.Errorf("summary should contain the skip reason: %q", summary)
	}
	// The flow ID stays next to the run ID; the text after the colon is the
	// pipeline status.
	if !strings.Contains(summary, "(flow ci)") {
		t.Errorf("summary should label the flow ID: %q", summary)
	}
	if !strings.Contains(summary, ": "+state.Status()) {
		t.Errorf("summary should report the status after the colon: %q", summary)
	}
}
