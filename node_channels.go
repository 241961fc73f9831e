package buildflow

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// ConfigureChannelsNode records the package channels for this entry.
//
// Prerequisites: state.Job must be set
// Updates: state.Channels
//
// Channels live in entry state and are passed explicitly to every tool
// invocation. Nothing is written to ambient conda configuration, so
// concurrent matrix entries cannot observe each other's channels. The node
// is idempotent: re-running it never duplicates a channel, and first
// occurrence wins for ordering since resolution order is significant.
func ConfigureChannelsNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireJob); err != nil {
		return state, err
	}

	for _, ch := range state.Job.Channels {
		if err := validateChannel(ch); err != nil {
			return state, err
		}
		if !containsChannel(state.Channels, ch) {
			state.Channels = append(state.Channels, ch)
		}
	}

	return state, nil
}

// validateChannel rejects names that would be misparsed as flags or split
// into multiple arguments.
func validateChannel(name string) error {
	if name == "" {
		return fmt.Errorf("channel name is empty")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid channel name %q", name)
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("invalid channel name %q", name)
	}
	return nil
}

func containsChannel(channels []string, name string) bool {
	for _, ch := range channels {
		if ch == name {
			return true
		}
	}
	return false
}
