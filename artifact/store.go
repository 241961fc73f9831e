package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Store errors
var (
	ErrRecordNotFound = errors.New("record not found")
)

// Standard record names
const (
	RecordArtifact   = "artifact.json"
	RecordTestReport = "test-report.json"
	RecordState      = "state.json"
)

// StoreConfig holds configuration for the run record store.
type StoreConfig struct {
	BaseDir       string // Base directory for storage (default: ".buildflow")
	RetentionDays int    // Days to keep run records (default: 30)
}

// Store persists per-run JSON records. Each matrix entry writes to its own
// run directory, so concurrent entries never share state.
type Store struct {
	baseDir       string
	retentionDays int
}

// NewStore creates a record store with the given config.
func NewStore(cfg StoreConfig) *Store {
	if cfg.BaseDir == "" {
		cfg.BaseDir = ".buildflow"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}

	return &Store{
		baseDir:       cfg.BaseDir,
		retentionDays: cfg.RetentionDays,
	}
}

// BaseDir returns the store's base directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// RunDir returns the directory for a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID)
}

// EnsureRunDir creates the run directory.
func (s *Store) EnsureRunDir(runID string) error {
	return os.MkdirAll(s.RunDir(runID), 0755)
}

// SaveJSON marshals v and writes it as a named record for the run.
func (s *Store) SaveJSON(runID, name string, v any) error {
	if err := s.EnsureRunDir(runID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(s.RunDir(runID), name), data, 0644)
}

// LoadJSON reads a named record for the run into v.
func (s *Store) LoadJSON(runID, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// SaveArtifact records the artifact built by the run.
func (s *Store) SaveArtifact(runID string, art Artifact) error {
	return s.SaveJSON(runID, RecordArtifact, art)
}

// LoadArtifact returns the artifact recorded for the run.
func (s *Store) LoadArtifact(runID string) (Artifact, error) {
	var art Artifact
	if err := s.LoadJSON(runID, RecordArtifact, &art); err != nil {
		return Artifact{}, err
	}
	return art, nil
}

// SaveTestReport records the test suite results for the run.
func (s *Store) SaveTestReport(runID string, report *TestReport) error {
	return s.SaveJSON(runID, RecordTestReport, report)
}

// LoadTestReport returns the test report recorded for the run.
func (s *Store) LoadTestReport(runID string) (*TestReport, error) {
	var report TestReport
	if err := s.LoadJSON(runID, RecordTestReport, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListRuns returns the IDs of all stored runs.
func (s *Store) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []string
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	return runs, nil
}
