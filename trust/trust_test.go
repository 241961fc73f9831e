package trust

import (
	"errors"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestResolve_Trusted(t *testing.T) {
	tc, err := Resolve(Options{Lookup: lookupFrom(map[string]string{
		"BUILDFLOW_TRUSTED":       "true",
		"BUILDFLOW_PUBLISH_TOKEN": "s3cret",
	})})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !tc.Trusted() {
		t.Error("should be trusted")
	}
	if tc.Token() != "s3cret" {
		t.Errorf("token = %q", tc.Token())
	}
}

func TestResolve_NotDeclared(t *testing.T) {
	// A token alone never grants trust.
	tc, err := Resolve(Options{Lookup: lookupFrom(map[string]string{
		"BUILDFLOW_PUBLISH_TOKEN": "s3cret",
	})})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tc.Trusted() {
		t.Error("token without declaration must stay untrusted")
	}
	if tc.Reason() != ReasonNotDeclared {
		t.Errorf("reason = %q", tc.Reason())
	}
	if tc.Token() != "" {
		t.Error("untrusted context must not expose a token")
	}
}

func TestResolve_DeclaredFalse(t *testing.T) {
	tc, err := Resolve(Options{Lookup: lookupFrom(map[string]string{
		"BUILDFLOW_TRUSTED":       "false",
		"BUILDFLOW_PUBLISH_TOKEN": "s3cret",
	})})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tc.Trusted() {
		t.Error("explicit false must stay untrusted")
	}
}

func TestResolve_TokenMissing(t *testing.T) {
	tc, err := Resolve(Options{Lookup: lookupFrom(map[string]string{
		"BUILDFLOW_TRUSTED": "1",
	})})
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("err = %v, want ErrTokenMissing", err)
	}
	if tc.Trusted() {
		t.Error("missing token must not grant trust")
	}
	if tc.Reason() != ReasonNoToken {
		t.Errorf("reason = %q", tc.Reason())
	}
}

func TestResolve_CustomVars(t *testing.T) {
	tc, err := Resolve(Options{
		Lookup:     lookupFrom(map[string]string{"CI_TRUSTED": "true", "CI_TOKEN": "tok"}),
		TrustedVar: "CI_TRUSTED",
		TokenVar:   "CI_TOKEN",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !tc.Trusted() {
		t.Error("custom variable names should resolve")
	}
}

func TestFingerprint(t *testing.T) {
	tc := Trusted("s3cret")
	fp := tc.Fingerprint()
	if len(fp) != 12 {
		t.Errorf("fingerprint length = %d, want 12", len(fp))
	}
	if fp == "s3cret" {
		t.Error("fingerprint must not be the raw token")
	}
	if Trusted("s3cret").Fingerprint() != fp {
		t.Error("fingerprint must be stable")
	}
	if Untrusted(ReasonNoToken).Fingerprint() != "" {
		t.Error("untrusted context has no fingerprint")
	}
}
