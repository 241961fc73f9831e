package buildflow

import (
	"errors"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/buildflow/notify"
	"github.com/randalmurphal/buildflow/publish"
)

// PublishNode conditionally uploads the built artifact.
//
// Updates: state.PublishStatus, state.SkipReason, state.PublishURL, state.PublishedAt
//
// The precondition chain is evaluated in order; the first unmet condition
// skips the stage. Skipping is terminal and never an error - untrusted
// contexts (fork pull requests) flow through here on every run. An upload
// failure is recorded as StatusFailed but is also not returned as an error:
// the publish outcome never affects the pipeline's exit code.
func PublishNode(ctx flowgraph.Context, state State) (State, error) {
	publisher := PublisherFromContext(ctx)
	tc := TrustFromContext(ctx)

	switch {
	case !state.TestPassed || state.Report == nil:
		state.MarkPublishSkipped("tests did not pass")
		return state, nil
	case state.Artifact == nil:
		state.MarkPublishSkipped("no artifact built")
		return state, nil
	case publisher == nil:
		state.MarkPublishSkipped("no publisher configured")
		return state, nil
	case !tc.Trusted():
		state.MarkPublishSkipped(tc.Reason())
		notifySkip(ctx, state, tc.Reason())
		return state, nil
	}

	state.MarkEligible()
	state.MarkPublishing()

	result, err := publisher.Upload(ctx, state.Artifact, tc.Token())
	switch {
	case errors.Is(err, publish.ErrAlreadyPublished):
		// Re-runs of an already published version are expected.
		state.MarkPublishSkipped("already published")
		return state, nil
	case err != nil:
		state.MarkPublishFailed(err)
		return state, nil
	}

	state.MarkPublished(result.URL)

	if notifier := notify.NotifierFromContext(ctx); notifier != nil {
		_ = notifier.Notify(ctx, notify.Event{
			Type:      notify.EventPublished,
			RunID:     state.RunID,
			FlowID:    state.FlowID,
			Stage:     "publish",
			Message:   result.URL,
			Severity:  notify.SeverityInfo,
			Timestamp: time.Now(),
		})
	}

	return state, nil
}

func notifySkip(ctx flowgraph.Context, state State, reason string) {
	notifier := notify.NotifierFromContext(ctx)
	if notifier == nil {
		return
	}
	_ = notifier.Notify(ctx, notify.Event{
		Type:      notify.EventPublishSkipped,
		RunID:     state.RunID,
		FlowID:    state.FlowID,
		Stage:     "publish",
		Message:   reason,
		Severity:  notify.SeverityInfo,
		Timestamp: time.Now(),
	})
}
