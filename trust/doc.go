// Package trust decides whether a pipeline run may publish artifacts.
//
// A run is trusted only when the execution context explicitly declares trust
// AND a publish token is materialized. Absence of either is an expected,
// non-error condition (fork pull requests never receive secrets); the
// publish stage skips silently. The explicit declaration closes the gap
// between "no secret variable" and "untrusted": the absence of a variable
// is never treated as a security boundary on its own.
//
// The raw token never appears in logs or state; only a SHA-256 fingerprint
// is exposed for diagnostics.
//
// Example usage:
//
//	tc, err := trust.Resolve(trust.Options{Lookup: os.LookupEnv})
//	if err != nil {
//	    // trust declared but token missing: configuration error
//	}
//	if tc.Trusted() {
//	    publisher.Upload(ctx, art, tc.Token())
//	}
package trust
