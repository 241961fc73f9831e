package buildflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// ProvisionNode creates the isolated environment for this matrix entry.
//
// Prerequisites: state.Job must be set, state.Entry must be a valid matrix entry
// Updates: state.EnvName, state.ProvisionedAt
//
// The environment name is derived from the run ID, so sibling matrix entries
// and re-runs never collide.
func ProvisionNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireJob); err != nil {
		return state, err
	}
	if err := state.Entry.Validate(); err != nil {
		return state, err
	}

	conda := MustCondaFromContext(ctx)

	envName := envNameFor(state)
	if err := conda.CreateEnv(envName, state.Entry.PythonVersion); err != nil {
		return state, err
	}

	state.EnvName = envName
	state.ProvisionedAt = time.Now()

	return state, nil
}

// CleanupNode removes the entry's environment. Removal is best-effort: a
// missing environment is not an error, and cleanup failures never fail the
// run.
func CleanupNode(ctx flowgraph.Context, state State) (State, error) {
	if state.EnvName == "" {
		return state, nil
	}

	conda := CondaFromContext(ctx)
	if conda == nil {
		return state, nil
	}

	if err := conda.RemoveEnv(state.EnvName); err != nil && !errors.Is(err, ErrEnvNotFound) {
		// Leaked environments are disk waste, not correctness failures.
		return state, nil
	}

	return state, nil
}

// envNameFor derives the environment name for a run.
func envNameFor(state State) string {
	return fmt.Sprintf("bf-%s", state.RunID)
}
