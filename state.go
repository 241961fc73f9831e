package buildflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/buildflow/artifact"
)

// =============================================================================
// Matrix Entry
// =============================================================================

// supportedInterpreters is the version range the provisioner accepts.
var supportedInterpreters = mustConstraint(">= 2.6")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MatrixEntry is one interpreter version in the build matrix. Entries are
// immutable and fully isolated from each other: each gets its own run ID,
// environment, and record directory.
type MatrixEntry struct {
	PythonVersion string `json:"pythonVersion"` // e.g. "3.5"
	BuildTag      string `json:"buildTag"`      // e.g. "py35"
}

// NewMatrixEntry creates a matrix entry for an interpreter version.
func NewMatrixEntry(version string) MatrixEntry {
	return MatrixEntry{
		PythonVersion: version,
		BuildTag:      buildTagFor(version),
	}
}

// Matrix creates matrix entries for the given interpreter versions.
func Matrix(versions ...string) []MatrixEntry {
	entries := make([]MatrixEntry, len(versions))
	for i, v := range versions {
		entries[i] = NewMatrixEntry(v)
	}
	return entries
}

// Validate checks that the entry's interpreter version parses and falls in
// the supported range.
func (e MatrixEntry) Validate() error {
	v, err := semver.NewVersion(e.PythonVersion)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, e.PythonVersion)
	}
	if !supportedInterpreters.Check(v) {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, e.PythonVersion)
	}
	return nil
}

// buildTagFor derives the conda build tag from an interpreter version,
// e.g. "3.5" -> "py35".
func buildTagFor(version string) string {
	return "py" + strings.ReplaceAll(version, ".", "")
}

// =============================================================================
// Job
// =============================================================================

// Job holds the immutable per-run inputs shared by every matrix entry.
type Job struct {
	Package      string      `json:"package"`              // Package under test
	Recipe       string      `json:"recipe"`               // Path to the build recipe directory
	Organization string      `json:"organization"`         // Channel owner for publishing
	Channels     []string    `json:"channels,omitempty"`   // Additional package channels, in resolution order
	TestDeps     []string    `json:"testDeps,omitempty"`   // Test-only dependencies installed alongside the artifact
	Test         TestOptions `json:"test"`                 // Test runner options
	WorkDir      string      `json:"workDir,omitempty"`    // Working directory for tool invocations
}

// =============================================================================
// Embeddable State Components
// =============================================================================

// ProvisionState tracks the isolated environment for this entry.
type ProvisionState struct {
	EnvName       string    `json:"envName,omitempty"`
	ProvisionedAt time.Time `json:"provisionedAt,omitempty"`
}

// ChannelState tracks the channels configured for this entry. Append-only,
// deduplicated; never shared across entries.
type ChannelState struct {
	Channels []string `json:"channels,omitempty"`
}

// RecipeState tracks the recipe build.
type RecipeState struct {
	Artifact *artifact.Artifact `json:"artifact,omitempty"`
	BuiltAt  time.Time          `json:"builtAt,omitempty"`
}

// InstallState tracks artifact installation.
type InstallState struct {
	Installed   bool      `json:"installed,omitempty"`
	InstalledAt time.Time `json:"installedAt,omitempty"`
}

// TestState tracks test execution.
type TestState struct {
	Report     *artifact.TestReport `json:"report,omitempty"`
	TestPassed bool                 `json:"testPassed,omitempty"`
	TestRanAt  time.Time            `json:"testRanAt,omitempty"`
}

// PublishStatus is the publish stage state machine. Every no-branch in the
// precondition chain transitions to StatusSkipped, which is terminal and
// never an error.
type PublishStatus string

const (
	StatusPending    PublishStatus = "pending"
	StatusEligible   PublishStatus = "eligible"
	StatusPublishing PublishStatus = "publishing"
	StatusDone       PublishStatus = "done"
	StatusSkipped    PublishStatus = "skipped"
	StatusFailed     PublishStatus = "failed"
)

// PublishState tracks the conditional publish stage.
type PublishState struct {
	PublishStatus PublishStatus `json:"publishStatus,omitempty"`
	SkipReason    string        `json:"skipReason,omitempty"`
	PublishURL    string        `json:"publishUrl,omitempty"`
	PublishedAt   time.Time     `json:"publishedAt,omitempty"`
}

// MetricsState tracks execution metrics.
type MetricsState struct {
	StartTime     time.Time     `json:"startTime"`
	TotalDuration time.Duration `json:"totalDuration"`
}

// =============================================================================
// State - Full Pipeline State
// =============================================================================

// State is the complete state for one matrix entry's pipeline run.
type State struct {
	// Identification
	RunID  string      `json:"runId"`
	FlowID string      `json:"flowId"`
	Entry  MatrixEntry `json:"entry"`

	// Input
	Job *Job `json:"job,omitempty"`

	// Embedded state components
	ProvisionState
	ChannelState
	RecipeState
	InstallState
	TestState
	PublishState
	MetricsState

	// Error tracking
	Error string `json:"error,omitempty"`
}

// NewState creates pipeline state for one matrix entry.
func NewState(flowID string, job *Job, entry MatrixEntry) State {
	return State{
		RunID:  generateRunID(flowID, entry),
		FlowID: flowID,
		Entry:  entry,
		Job:    job,
		PublishState: PublishState{
			PublishStatus: StatusPending,
		},
		MetricsState: MetricsState{
			StartTime: time.Now(),
		},
	}
}

// WithRunID sets a custom run ID.
func (s State) WithRunID(runID string) State {
	s.RunID = runID
	return s
}

// FinalizeDuration sets total duration from start time.
func (s *State) FinalizeDuration() {
	s.TotalDuration = time.Since(s.StartTime)
}

// SetError sets the error state.
func (s *State) SetError(err error) {
	if err != nil {
		s.Error = err.Error()
	}
}

// HasError returns true if state has an error.
func (s State) HasError() bool {
	return s.Error != ""
}

// =============================================================================
// Publish Transitions
// =============================================================================

// MarkEligible records that all mandatory stages succeeded.
func (s *State) MarkEligible() {
	s.PublishStatus = StatusEligible
}

// MarkPublishing records the start of the upload.
func (s *State) MarkPublishing() {
	s.PublishStatus = StatusPublishing
}

// MarkPublished records a completed upload.
func (s *State) MarkPublished(url string) {
	s.PublishStatus = StatusDone
	s.PublishURL = url
	s.PublishedAt = time.Now()
}

// MarkPublishSkipped records the terminal, non-error skip state.
func (s *State) MarkPublishSkipped(reason string) {
	s.PublishStatus = StatusSkipped
	s.SkipReason = reason
}

// MarkPublishFailed records an upload failure. Publish failures never affect
// the pipeline's exit code.
func (s *State) MarkPublishFailed(err error) {
	s.PublishStatus = StatusFailed
	if err != nil {
		s.SkipReason = err.Error()
	}
}

// Published reports whether the artifact was uploaded.
func (s State) Published() bool {
	return s.PublishStatus == StatusDone
}

// =============================================================================
// State Validation
// =============================================================================

// StateRequirement defines a state prerequisite.
type StateRequirement string

const (
	RequireJob       StateRequirement = "job"
	RequireEnv       StateRequirement = "env"
	RequireArtifact  StateRequirement = "artifact"
	RequireInstalled StateRequirement = "installed"
	RequireReport    StateRequirement = "report"
)

// Validate checks if state has required fields.
func (s State) Validate(requirements ...StateRequirement) error {
	for _, req := range requirements {
		switch req {
		case RequireJob:
			if s.Job == nil {
				return fmt.Errorf("job required")
			}
		case RequireEnv:
			if s.EnvName == "" {
				return fmt.Errorf("environment required")
			}
		case RequireArtifact:
			if s.Artifact == nil {
				return fmt.Errorf("artifact required")
			}
		case RequireInstalled:
			if !s.Installed {
				return fmt.Errorf("installed artifact required")
			}
		case RequireReport:
			if s.Report == nil {
				return fmt.Errorf("test report required")
			}
		default:
			return fmt.Errorf("unknown requirement: %s", req)
		}
	}
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// generateRunID creates a unique run ID. The build tag keeps sibling matrix
// entries distinguishable; the random suffix keeps re-runs distinguishable.
func generateRunID(flowID string, entry MatrixEntry) string {
	timestamp := time.Now().Format("2006-01-02")
	suffix, err := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 6)
	if err != nil {
		// nanoid only fails if the alphabet or size is invalid
		panic(err)
	}
	return fmt.Sprintf("%s-%s-%s-%s", timestamp, flowID, entry.BuildTag, suffix)
}

// =============================================================================
// State Summary
// =============================================================================

// Status returns the pipeline status for the state. A run is "passed" once
// tests complete; the publish outcome is reported separately and never turns
// a passed run into a failed one.
func (s State) Status() string {
	switch {
	case s.Error != "":
		return "failed"
	case s.Report != nil && s.TestPassed:
		return "passed"
	case s.Installed:
		return "installed"
	case s.Artifact != nil:
		return "built"
	case s.EnvName != "":
		return "provisioned"
	default:
		return "pending"
	}
}

// Summary returns a human-readable summary of the state.
func (s State) Summary() string {
	status := s.Status()
	publish := string(s.PublishStatus)
	if s.PublishStatus == StatusSkipped && s.SkipReason != "" {
		publish = fmt.Sprintf("skipped (%s)", s.SkipReason)
	}
	return fmt.Sprintf("Run %s (flow %s) python %s: %s, publish %s",
		s.RunID, s.FlowID, s.Entry.PythonVersion, status, publish)
}
