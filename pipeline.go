package buildflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/buildflow/artifact"
	"github.com/randalmurphal/buildflow/notify"
)

// =============================================================================
// Pipeline Assembly
// =============================================================================

// Stage names used in the pipeline graph and in stage events.
const (
	StageProvision = "provision"
	StageChannels  = "channels"
	StageBuild     = "build"
	StageInstall   = "install"
	StageTest      = "test"
	StagePublish   = "publish"
	StageCleanup   = "cleanup"
)

func withStage(node NodeFunc, stage string) flowgraph.NodeFunc[State] {
	wrapped := WithTiming(WithStageEvents(node, stage))
	return flowgraph.NodeFunc[State](wrapped)
}

// =============================================================================
// Entry Execution
// =============================================================================

// EntryResult is the outcome of one matrix entry's pipeline run.
type EntryResult struct {
	Entry MatrixEntry
	State State
	Err   error
}

// Passed reports whether every mandatory stage succeeded. The publish
// outcome is deliberately excluded.
func (r EntryResult) Passed() bool {
	return r.Err == nil && !r.State.HasError() && r.State.TestPassed
}

// RunEntry runs the full pipeline for one matrix entry: provision, channels,
// build, install, test, publish, cleanup. The services must already be
// injected into ctx (see Services.InjectAll).
//
// Test failure does not short-circuit: the run still reaches publish (which
// skips) and cleanup. A mandatory stage error aborts the graph; RunEntry
// compensates with a best-effort environment removal so failed runs do not
// leak environments.
func RunEntry(ctx context.Context, flowID string, job *Job, entry MatrixEntry) EntryResult {
	state := NewState(flowID, job, entry)

	notifyRun(ctx, state, notify.EventRunStarted, "")

	graph := flowgraph.NewGraph[State]().
		AddNode(StageProvision, withStage(ProvisionNode, StageProvision)).
		AddNode(StageChannels, withStage(ConfigureChannelsNode, StageChannels)).
		AddNode(StageBuild, withStage(BuildRecipeNode, StageBuild)).
		AddNode(StageInstall, withStage(InstallNode, StageInstall)).
		AddNode(StageTest, withStage(RunTestsNode, StageTest)).
		AddNode(StagePublish, withStage(PublishNode, StagePublish)).
		AddNode(StageCleanup, withStage(CleanupNode, StageCleanup)).
		AddEdge(StageProvision, StageChannels).
		AddEdge(StageChannels, StageBuild).
		AddEdge(StageBuild, StageInstall).
		AddEdge(StageInstall, StageTest).
		AddEdge(StageTest, StagePublish).
		AddEdge(StagePublish, StageCleanup).
		AddEdge(StageCleanup, flowgraph.END).
		SetEntry(StageProvision)

	compiled, err := graph.Compile()
	if err != nil {
		return EntryResult{Entry: entry, State: state, Err: fmt.Errorf("compile pipeline: %w", err)}
	}

	fctx := flowgraph.NewContext(ctx)
	result, err := compiled.Run(fctx, state)
	if err != nil {
		// The graph aborted before cleanup ran.
		if result.RunID == "" {
			result = state
		}
		if conda := CondaFromContext(ctx); conda != nil {
			_ = conda.RemoveEnv(envNameFor(state))
		}
		result.SetError(err)
	}
	result.FinalizeDuration()

	if saveErr := saveRunRecord(ctx, result); saveErr != nil {
		slog.Warn("failed to save run record", "runId", result.RunID, "error", saveErr)
	}

	if result.HasError() {
		notifyRun(ctx, result, notify.EventRunFailed, result.Error)
	} else {
		notifyRun(ctx, result, notify.EventRunCompleted, result.Summary())
	}

	return EntryResult{Entry: entry, State: result, Err: err}
}

// saveRunRecord persists the final state for the run, with the summary
// fields the retention policy reads.
func saveRunRecord(ctx context.Context, state State) error {
	store := StoreFromContext(ctx)
	if store == nil {
		return nil
	}
	record := struct {
		State
		Status  string    `json:"status"`
		EndedAt time.Time `json:"endedAt"`
	}{State: state, Status: state.Status(), EndedAt: time.Now()}
	return store.SaveJSON(state.RunID, artifact.RecordState, record)
}

func notifyRun(ctx context.Context, state State, eventType notify.EventType, message string) {
	notifier := notify.NotifierFromContext(ctx)
	if notifier == nil {
		return
	}
	severity := notify.SeverityInfo
	if eventType == notify.EventRunFailed {
		severity = notify.SeverityError
	}
	_ = notifier.Notify(ctx, notify.Event{
		Type:      eventType,
		RunID:     state.RunID,
		FlowID:    state.FlowID,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"pythonVersion": state.Entry.PythonVersion,
			"buildTag":      state.Entry.BuildTag,
		},
	})
}

// =============================================================================
// Matrix Execution
// =============================================================================

// MatrixResult aggregates per-entry outcomes for a whole matrix run.
type MatrixResult struct {
	FlowID  string
	Results []EntryResult
}

// Passed reports whether every entry passed its mandatory stages.
func (m MatrixResult) Passed() bool {
	for _, r := range m.Results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the entries that did not pass.
func (m MatrixResult) Failed() []EntryResult {
	var failed []EntryResult
	for _, r := range m.Results {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// ExitCode maps the matrix outcome to a process exit code: 0 when every
// entry's mandatory stages passed, 1 otherwise. Skipped or failed publishes
// never affect the exit code.
func (m MatrixResult) ExitCode() int {
	if m.Passed() {
		return 0
	}
	return 1
}

// MatrixOptions configure RunMatrix.
type MatrixOptions struct {
	// Parallel runs entries concurrently. Entries are isolated (own env,
	// run ID, and record dir), so this is safe when the conda installation
	// tolerates concurrent invocations.
	Parallel bool
}

// RunMatrix runs the pipeline for every matrix entry and aggregates the
// results. Entry order is preserved in the results regardless of mode.
func RunMatrix(ctx context.Context, flowID string, job *Job, entries []MatrixEntry, opts MatrixOptions) MatrixResult {
	results := make([]EntryResult, len(entries))

	if opts.Parallel {
		var wg sync.WaitGroup
		for i, entry := range entries {
			wg.Add(1)
			go func(i int, entry MatrixEntry) {
				defer wg.Done()
				results[i] = RunEntry(ctx, flowID, job, entry)
			}(i, entry)
		}
		wg.Wait()
	} else {
		for i, entry := range entries {
			results[i] = RunEntry(ctx, flowID, job, entry)
		}
	}

	return MatrixResult{FlowID: flowID, Results: results}
}
