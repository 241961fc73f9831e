package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RetentionConfig defines retention policy for run records.
type RetentionConfig struct {
	RetentionDays int  // Days to keep run records
	KeepFailed    bool // Keep failed runs regardless of age
	KeepMinRuns   int  // Minimum runs to keep regardless of age
}

// DefaultRetentionConfig returns sensible defaults.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 30,
		KeepFailed:    true,
		KeepMinRuns:   20,
	}
}

// runMeta is the subset of the run state record needed for retention.
type runMeta struct {
	Status  string    `json:"status"`
	EndedAt time.Time `json:"endedAt"`
}

// LifecycleManager applies retention policy to stored runs.
type LifecycleManager struct {
	store  *Store
	config RetentionConfig
}

// NewLifecycleManager creates a lifecycle manager over the store.
func NewLifecycleManager(store *Store, config RetentionConfig) *LifecycleManager {
	return &LifecycleManager{
		store:  store,
		config: config,
	}
}

// CleanupResult summarizes cleanup actions.
type CleanupResult struct {
	Deleted    []string `json:"deleted"`
	Kept       []string `json:"kept"`
	Errors     []string `json:"errors,omitempty"`
	SpaceSaved int64    `json:"spaceSaved"`
}

// Cleanup deletes run records past the retention window. With dryRun set it
// reports what would be deleted without touching the filesystem.
func (m *LifecycleManager) Cleanup(dryRun bool) (*CleanupResult, error) {
	result := &CleanupResult{
		Deleted: make([]string, 0),
		Kept:    make([]string, 0),
		Errors:  make([]string, 0),
	}

	ids, err := m.store.ListRuns()
	if err != nil {
		return nil, err
	}

	deleteThreshold := time.Now().Add(-time.Duration(m.config.RetentionDays) * 24 * time.Hour)

	type runInfo struct {
		id      string
		meta    runMeta
		size    int64
		endedAt time.Time
	}

	var runs []runInfo
	for _, id := range ids {
		var meta runMeta
		if err := m.store.LoadJSON(id, RecordState, &meta); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", id, err))
			continue
		}

		runs = append(runs, runInfo{
			id:      id,
			meta:    meta,
			size:    dirSize(m.store.RunDir(id)),
			endedAt: meta.EndedAt,
		})
	}

	// Oldest first so the minimum-keep window protects the newest runs.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].endedAt.Before(runs[j].endedAt)
	})

	removed := 0
	for _, run := range runs {
		if m.config.KeepFailed && run.meta.Status == "failed" {
			result.Kept = append(result.Kept, run.id)
			continue
		}
		if len(runs)-removed-1 < m.config.KeepMinRuns {
			result.Kept = append(result.Kept, run.id)
			continue
		}

		if run.endedAt.Before(deleteThreshold) {
			if !dryRun {
				if err := os.RemoveAll(m.store.RunDir(run.id)); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", run.id, err))
					continue
				}
			}
			result.Deleted = append(result.Deleted, run.id)
			result.SpaceSaved += run.size
			removed++
		} else {
			result.Kept = append(result.Kept, run.id)
		}
	}

	return result, nil
}

// dirSize returns the total size of files under dir.
func dirSize(dir string) int64 {
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
