package buildflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/buildflow/notify"
)

// =============================================================================
// Node Types
// =============================================================================

// NodeFunc is a function that processes state and returns updated state.
// This signature is compatible with flowgraph's NodeFunc[State].
type NodeFunc func(ctx flowgraph.Context, state State) (State, error)

// =============================================================================
// Node Wrappers
// =============================================================================

// WithRetry wraps a node with retry logic
func WithRetry(node NodeFunc, maxRetries int) NodeFunc {
	return func(ctx flowgraph.Context, state State) (State, error) {
		var lastErr error
		for i := 0; i < maxRetries; i++ {
			result, err := node(ctx, state)
			if err == nil {
				return result, nil
			}
			lastErr = err
		}
		return state, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
	}
}

// WithTiming wraps a node with timing metrics
func WithTiming(node NodeFunc) NodeFunc {
	return func(ctx flowgraph.Context, state State) (State, error) {
		start := time.Now()
		result, err := node(ctx, state)
		duration := time.Since(start)
		slog.Debug("node execution completed", "runId", state.RunID, "duration", duration)
		return result, err
	}
}

// WithStageEvents wraps a node with stage start/complete notifications.
// If no notifier is configured in the context, only the node runs.
func WithStageEvents(node NodeFunc, stage string) NodeFunc {
	return func(ctx flowgraph.Context, state State) (State, error) {
		notifier := notify.NotifierFromContext(ctx)
		if notifier == nil {
			return node(ctx, state)
		}

		_ = notifier.Notify(ctx, notify.Event{
			Type:      notify.EventStageStarted,
			RunID:     state.RunID,
			FlowID:    state.FlowID,
			Stage:     stage,
			Severity:  notify.SeverityInfo,
			Timestamp: time.Now(),
		})

		result, err := node(ctx, state)

		event := notify.Event{
			Type:      notify.EventStageCompleted,
			RunID:     state.RunID,
			FlowID:    state.FlowID,
			Stage:     stage,
			Severity:  notify.SeverityInfo,
			Timestamp: time.Now(),
		}
		if err != nil {
			event.Type = notify.EventStageFailed
			event.Severity = notify.SeverityError
			event.Message = err.Error()
		}
		_ = notifier.Notify(ctx, event)

		return result, err
	}
}
