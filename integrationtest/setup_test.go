package integrationtest

import (
	"context"
	"testing"

	"github.com/randalmurphal/buildflow"
	"github.com/randalmurphal/buildflow/artifact"
	"github.com/randalmurphal/buildflow/publish"
	"github.com/randalmurphal/buildflow/testutil"
	"github.com/randalmurphal/buildflow/trust"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

const artifactPath = "/builds/openmmtools-0.9.2-py35_0.tar.bz2"

// testJob returns the job used across the integration suite.
func testJob(t *testing.T) *buildflow.Job {
	t.Helper()

	return &buildflow.Job{
		Package:      "openmmtools",
		Recipe:       testutil.SetupRecipe(t, "openmmtools", "0.9.2"),
		Organization: "omnia",
		Channels:     []string{"omnia"},
		TestDeps:     []string{"nose", "nose-timer"},
	}
}

// setupContext creates a flowgraph.Context with all buildflow services
// configured around a scripted conda toolchain.
func setupContext(t *testing.T, script *testutil.CondaScript, pub publish.Publisher, tc trust.Context) (flowgraph.Context, *artifact.Store) {
	t.Helper()

	conda, err := buildflow.NewConda(buildflow.WithCondaRunner(script))
	if err != nil {
		t.Fatalf("NewConda: %v", err)
	}

	store := artifact.NewStore(artifact.StoreConfig{BaseDir: t.TempDir()})

	services := &buildflow.Services{
		Conda:     conda,
		Runner:    script,
		Store:     store,
		Publisher: pub,
		Trust:     tc,
	}

	return flowgraph.NewContext(services.InjectAll(context.Background())), store
}

// envRemoved reports whether the script saw an "env remove" invocation.
func envRemoved(script *testutil.CondaScript) bool {
	for _, call := range script.CallsFor("env") {
		if len(call.Args) > 1 && call.Args[1] == "remove" {
			return true
		}
	}
	return false
}
