// Package artifact provides build artifact identity and per-run record storage.
//
// Core types:
//   - Artifact: Identity of a built package (name, version, interpreter build tag)
//   - Store: Saves and loads JSON records for pipeline runs
//   - LifecycleManager: Retention cleanup for old run records
//   - TestReport: Structured test suite results
//
// Artifact identity is parsed from the build tool's output filename, e.g.
// "openmmtools-0.7.5-py35_0.tar.bz2" yields package "openmmtools", version
// "0.7.5", and build tag "py35_0".
//
// Example usage:
//
//	store := artifact.NewStore(artifact.StoreConfig{BaseDir: ".buildflow"})
//	art, err := artifact.ParsePath("/conda-bld/linux-64/openmmtools-0.7.5-py35_0.tar.bz2")
//	err = store.SaveArtifact("run-123", art)
package artifact
