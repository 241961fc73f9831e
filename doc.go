// Package buildflow provides pipeline primitives for building, testing, and
// publishing package artifacts across an interpreter version matrix.
//
// The root package holds the pipeline core: typed state, stage nodes, the
// conda toolchain adapter, the command runner, and the matrix runner.
// Supporting concerns live in subpackages:
//
//   - artifact: Build artifact identity, run records, retention
//   - config: Hierarchical pipeline configuration (YAML + environment)
//   - notify: Stage event notification (log, webhook, fan-out)
//   - publish: Artifact publishing backends (anaconda, GitHub, GitLab, S3)
//   - trust: Explicit trusted-context and publish token handling
//   - testutil: Test utilities and scripted conda fixtures
//
// # Quick Start
//
//	import "github.com/randalmurphal/buildflow"
//
//	services, _ := buildflow.NewServices(buildflow.ServicesConfig{
//	    TrustLookup: os.LookupEnv,
//	})
//	ctx := services.InjectAll(context.Background())
//
//	job := &buildflow.Job{
//	    Package:  "openmmtools",
//	    Recipe:   "devtools/conda-recipe",
//	    Channels: []string{"omnia"},
//	}
//
//	result := buildflow.RunMatrix(ctx, "ci", job,
//	    buildflow.Matrix("2.7", "3.4", "3.5"), buildflow.MatrixOptions{})
//	os.Exit(result.ExitCode())
//
// Each matrix entry runs the same strictly sequential stage graph (provision,
// configure channels, build, install, test, publish, cleanup) in full
// isolation from its siblings. See individual package documentation for
// detailed usage.
package buildflow
