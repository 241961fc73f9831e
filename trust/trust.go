package trust

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
)

// Trust errors.
var (
	// ErrTokenMissing indicates the context declares trust but no publish
	// token is materialized. This is a configuration error, not a skip.
	ErrTokenMissing = errors.New("trusted context declared but publish token missing")

	// ErrClaimsRejected indicates the publish token failed claims verification.
	ErrClaimsRejected = errors.New("publish token claims rejected")
)

// Default environment variable names.
const (
	DefaultTrustedVar = "BUILDFLOW_TRUSTED"
	DefaultTokenVar   = "BUILDFLOW_PUBLISH_TOKEN"
)

// Skip reasons reported when a context is untrusted.
const (
	ReasonNotDeclared = "context not declared trusted"
	ReasonNoToken     = "no publish token available"
)

// Context is the resolved trust decision for a run. The zero value is
// untrusted.
type Context struct {
	trusted bool
	token   string
	reason  string
}

// Untrusted returns an untrusted context with the given skip reason.
func Untrusted(reason string) Context {
	return Context{reason: reason}
}

// Trusted returns a trusted context carrying the publish token.
func Trusted(token string) Context {
	return Context{trusted: true, token: token}
}

// Trusted reports whether publishing is permitted.
func (c Context) Trusted() bool {
	return c.trusted
}

// Token returns the publish token. Empty for untrusted contexts.
func (c Context) Token() string {
	if !c.trusted {
		return ""
	}
	return c.token
}

// Reason returns why the context is untrusted. Empty for trusted contexts.
func (c Context) Reason() string {
	return c.reason
}

// Fingerprint returns a short SHA-256 fingerprint of the token, safe for
// logging. Empty for untrusted contexts.
func (c Context) Fingerprint() string {
	if !c.trusted || c.token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(h[:])[:12]
}

// Options configure trust resolution.
type Options struct {
	// Lookup resolves environment variables (typically os.LookupEnv).
	Lookup func(key string) (string, bool)

	// TrustedVar is the boolean variable declaring a trusted context.
	// Defaults to DefaultTrustedVar.
	TrustedVar string

	// TokenVar is the variable carrying the publish token.
	// Defaults to DefaultTokenVar.
	TokenVar string

	// Claims, when set, is verified against the token before the context
	// is considered trusted.
	Claims *ClaimsPolicy
}

func (o Options) trustedVar() string {
	if o.TrustedVar != "" {
		return o.TrustedVar
	}
	return DefaultTrustedVar
}

func (o Options) tokenVar() string {
	if o.TokenVar != "" {
		return o.TokenVar
	}
	return DefaultTokenVar
}

// Resolve determines the trust context from the environment.
//
// Both conditions must hold for a trusted result: the trusted variable
// parses as true, and the token variable is non-empty. A declared-trusted
// context with no token returns ErrTokenMissing rather than silently
// downgrading, so misconfigured trusted runs are visible. A token present
// without the declaration is ignored and the context stays untrusted.
func Resolve(opts Options) (Context, error) {
	lookup := opts.Lookup
	if lookup == nil {
		return Untrusted(ReasonNotDeclared), errors.New("trust: Lookup is required")
	}

	declared := false
	if raw, ok := lookup(opts.trustedVar()); ok {
		declared, _ = strconv.ParseBool(raw)
	}
	if !declared {
		return Untrusted(ReasonNotDeclared), nil
	}

	token, ok := lookup(opts.tokenVar())
	if !ok || token == "" {
		return Untrusted(ReasonNoToken), ErrTokenMissing
	}

	if opts.Claims != nil {
		if err := opts.Claims.Verify(token); err != nil {
			return Untrusted(ReasonNoToken), err
		}
	}

	return Trusted(token), nil
}
