package buildflow

import (
	"context"

	"github.com/randalmurphal/buildflow/artifact"
	"github.com/randalmurphal/buildflow/notify"
	"github.com/randalmurphal/buildflow/publish"
	"github.com/randalmurphal/buildflow/trust"
)

// =============================================================================
// Context Injection Helpers
// =============================================================================
// These helpers allow buildflow services to be injected into context.Context
// for use by flowgraph nodes.

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

// Context keys for buildflow services
const (
	condaServiceKey     serviceContextKey = "buildflow.conda"
	runnerServiceKey    serviceContextKey = "buildflow.runner"
	storeServiceKey     serviceContextKey = "buildflow.store"
	publisherServiceKey serviceContextKey = "buildflow.publisher"
	trustServiceKey     serviceContextKey = "buildflow.trust"
)

// WithConda adds a Conda toolchain to the context
func WithConda(ctx context.Context, conda *Conda) context.Context {
	return context.WithValue(ctx, condaServiceKey, conda)
}

// CondaFromContext extracts the Conda toolchain from context
func CondaFromContext(ctx context.Context) *Conda {
	if conda, ok := ctx.Value(condaServiceKey).(*Conda); ok {
		return conda
	}
	return nil
}

// MustCondaFromContext extracts the Conda toolchain or panics
func MustCondaFromContext(ctx context.Context) *Conda {
	conda := CondaFromContext(ctx)
	if conda == nil {
		panic("buildflow: Conda not found in context")
	}
	return conda
}

// WithCommandRunner adds a CommandRunner to the context.
// This allows nodes to execute shell commands through a mockable interface.
func WithCommandRunner(ctx context.Context, runner CommandRunner) context.Context {
	return context.WithValue(ctx, runnerServiceKey, runner)
}

// CommandRunnerFromContext extracts CommandRunner from context.
// Returns nil if not set - callers should fall back to ExecRunner.
func CommandRunnerFromContext(ctx context.Context) CommandRunner {
	if runner, ok := ctx.Value(runnerServiceKey).(CommandRunner); ok {
		return runner
	}
	return nil
}

// GetCommandRunner returns the CommandRunner from context, or a default ExecRunner.
// This is the preferred way for nodes to get a runner - it always returns a usable runner.
func GetCommandRunner(ctx context.Context) CommandRunner {
	if runner := CommandRunnerFromContext(ctx); runner != nil {
		return runner
	}
	return NewExecRunner()
}

// WithStore adds an artifact store to the context
func WithStore(ctx context.Context, store *artifact.Store) context.Context {
	return context.WithValue(ctx, storeServiceKey, store)
}

// StoreFromContext extracts the artifact store from context
func StoreFromContext(ctx context.Context) *artifact.Store {
	if store, ok := ctx.Value(storeServiceKey).(*artifact.Store); ok {
		return store
	}
	return nil
}

// WithPublisher adds a Publisher to the context
func WithPublisher(ctx context.Context, publisher publish.Publisher) context.Context {
	return context.WithValue(ctx, publisherServiceKey, publisher)
}

// PublisherFromContext extracts the Publisher from context
func PublisherFromContext(ctx context.Context) publish.Publisher {
	if publisher, ok := ctx.Value(publisherServiceKey).(publish.Publisher); ok {
		return publisher
	}
	return nil
}

// WithTrust adds a trust context to the context
func WithTrust(ctx context.Context, tc trust.Context) context.Context {
	return context.WithValue(ctx, trustServiceKey, tc)
}

// TrustFromContext extracts the trust context. Returns an untrusted zero
// value if not set, so publishing defaults to skipped.
func TrustFromContext(ctx context.Context) trust.Context {
	if tc, ok := ctx.Value(trustServiceKey).(trust.Context); ok {
		return tc
	}
	return trust.Untrusted(trust.ReasonNotDeclared)
}

// Services wraps all buildflow services for convenient initialization
type Services struct {
	Conda     *Conda            // Conda toolchain (required for real runs)
	Runner    CommandRunner     // Optional command runner (defaults to ExecRunner)
	Store     *artifact.Store   // Optional run artifact store
	Publisher publish.Publisher // Optional publish backend
	Trust     trust.Context     // Trust decision for this run
	Notifier  notify.Notifier   // Optional notification service
}

// InjectAll adds all configured services to the context
func (s *Services) InjectAll(ctx context.Context) context.Context {
	if s.Conda != nil {
		ctx = WithConda(ctx, s.Conda)
	}
	if s.Runner != nil {
		ctx = WithCommandRunner(ctx, s.Runner)
	}
	if s.Store != nil {
		ctx = WithStore(ctx, s.Store)
	}
	if s.Publisher != nil {
		ctx = WithPublisher(ctx, s.Publisher)
	}
	ctx = WithTrust(ctx, s.Trust)
	if s.Notifier != nil {
		ctx = notify.WithNotifier(ctx, s.Notifier)
	}
	return ctx
}

// ServicesConfig configures NewServices
type ServicesConfig struct {
	WorkDir string // Working directory for conda invocations (default: cwd)
	BaseDir string // Base directory for run records (default: ".buildflow")

	// TrustLookup resolves trust environment variables (default: os.LookupEnv
	// via trust.Resolve at the call site). Required.
	TrustLookup func(key string) (string, bool)

	// Publisher is the configured publish backend. Optional; runs without
	// one always skip the publish stage.
	Publisher publish.Publisher
}

// NewServices creates Services with common defaults. The conda executable
// must be on PATH.
func NewServices(cfg ServicesConfig) (*Services, error) {
	s := &Services{Publisher: cfg.Publisher}

	conda, err := NewConda(WithWorkDir(cfg.WorkDir))
	if err != nil {
		return nil, err
	}
	s.Conda = conda

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = ".buildflow"
	}
	s.Store = artifact.NewStore(artifact.StoreConfig{BaseDir: baseDir})

	tc, err := trust.Resolve(trust.Options{Lookup: cfg.TrustLookup})
	if err != nil {
		return nil, err
	}
	s.Trust = tc

	return s, nil
}
