package buildflow

import (
	"fmt"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// InstallNode installs the built artifact into the entry's environment.
//
// Prerequisites: state.EnvName and state.Artifact must be set
// Updates: state.Installed, state.InstalledAt
//
// The install uses local artifacts only for the package under test, so a
// same-named package on a remote channel can never shadow the build that
// just ran. Test-only dependencies from the job resolve through the entry's
// channels as usual.
func InstallNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireJob, RequireEnv, RequireArtifact); err != nil {
		return state, err
	}

	if !state.Artifact.MatchesTag(state.Entry.BuildTag) {
		return state, fmt.Errorf("%w: artifact %s does not match build tag %s",
			ErrArtifactMismatch, state.Artifact.Filename(), state.Entry.BuildTag)
	}

	conda := MustCondaFromContext(ctx)

	specs := append([]string{state.Artifact.Spec()}, state.Job.TestDeps...)
	if err := conda.InstallLocal(state.EnvName, specs, state.Channels); err != nil {
		return state, err
	}

	state.Installed = true
	state.InstalledAt = time.Now()

	return state, nil
}
