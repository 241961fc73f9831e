// Package notify provides notification services for pipeline events.
//
// Core types:
//   - Notifier: Interface for sending notifications
//   - Event: Notification event with type, message, and metadata
//   - EventType: Type of event (stage started, run failed, publish skipped, etc.)
//
// Implementations:
//   - WebhookNotifier: Sends notifications to generic webhooks
//   - LogNotifier: Logs notifications (for testing/debugging)
//   - MultiNotifier: Combines multiple notifiers
//   - NopNotifier: No-op notifier (for testing)
//
// Example usage:
//
//	notifier := notify.NewWebhookNotifier(statusURL, nil)
//	err := notifier.Notify(ctx, notify.Event{
//	    Type:    notify.EventRunCompleted,
//	    Message: "python 3.5 matrix entry passed",
//	})
package notify
