package buildflow

import (
	"fmt"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/buildflow/artifact"
)

// BuildRecipeNode builds the recipe for this entry's interpreter version.
//
// Prerequisites: state.Job must be set
// Updates: state.Artifact, state.BuiltAt
//
// The expected output path is resolved before building, and the build must
// produce exactly one artifact. Zero outputs means the recipe does not apply
// to this interpreter version; more than one means the recipe is ambiguous
// and the pipeline cannot know which artifact to install and publish.
func BuildRecipeNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireJob); err != nil {
		return state, err
	}
	if state.Job.Recipe == "" {
		return state, ErrNoRecipe
	}

	conda := MustCondaFromContext(ctx)

	paths, err := conda.BuildOutputs(state.Job.Recipe, state.Entry.PythonVersion, state.Channels)
	if err != nil {
		return state, err
	}
	switch {
	case len(paths) == 0:
		return state, fmt.Errorf("%w: recipe %s", ErrNoArtifact, state.Job.Recipe)
	case len(paths) > 1:
		return state, fmt.Errorf("%w: recipe %s produced %d outputs", ErrMultipleArtifacts, state.Job.Recipe, len(paths))
	}

	if err := conda.BuildRecipe(state.Job.Recipe, state.Entry.PythonVersion, state.Channels); err != nil {
		return state, err
	}

	art, err := artifact.ParsePath(paths[0])
	if err != nil {
		return state, err
	}

	state.Artifact = &art
	state.BuiltAt = time.Now()

	if store := StoreFromContext(ctx); store != nil {
		if err := store.SaveArtifact(state.RunID, art); err != nil {
			return state, fmt.Errorf("save artifact record: %w", err)
		}
	}

	return state, nil
}
