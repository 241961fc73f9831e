package config

import (
	"strconv"
	"strings"
)

// Keys resolved through the hierarchical pipeline configuration. Environment
// lookup upcases the key and swaps dashes for underscores, so "test-verbosity"
// maps to BUILDFLOW_TEST_VERBOSITY.
const (
	KeyOrganization   = "organization"
	KeyChannels       = "channels"
	KeyVersions       = "versions"
	KeyTestExclude    = "test-exclude"
	KeyTestVerbosity  = "test-verbosity"
	KeyPublishBackend = "publish-backend"
)

// PipelineKeys lists every key the pipeline resolver recognizes, in the order
// they are reported by config inspection commands.
var PipelineKeys = []string{
	KeyOrganization,
	KeyChannels,
	KeyVersions,
	KeyTestExclude,
	KeyTestVerbosity,
	KeyPublishBackend,
}

// PipelineResolverConfig returns the resolver configuration for pipeline
// settings: ~/.config/buildflow/config.yaml globally, .buildflow.yaml in the
// project root, and BUILDFLOW_* environment variables on top.
func PipelineResolverConfig() ResolverConfig {
	defaults := make(map[string]string, len(PipelineKeys))
	for _, key := range PipelineKeys {
		defaults[key] = ""
	}

	return ResolverConfig{
		EnvPrefix:       "BUILDFLOW_",
		GlobalConfigDir: "buildflow",
		LocalConfigName: ".buildflow.yaml",
		Defaults:        defaults,
		ValidGlobalKeys: PipelineKeys,
		ValidLocalKeys:  PipelineKeys,
	}
}

// NewPipelineResolver creates a resolver wired to buildflow's config
// locations, detecting the project root from the working directory.
func NewPipelineResolver() *Resolver {
	return NewResolver(PipelineResolverConfig())
}

// ApplyResolved overlays hierarchical configuration onto the job spec.
// Values sourced from the environment or flags win over the spec file,
// matching resolver precedence; values from config files or defaults only
// fill fields the spec leaves empty.
func (s *JobSpec) ApplyResolved(res *Resolved) {
	s.Organization = resolveString(res, KeyOrganization, s.Organization)
	s.Publish.Backend = resolveString(res, KeyPublishBackend, s.Publish.Backend)

	if v, src := res.GetWithSource(KeyChannels); v != "" && (len(s.Channels) == 0 || overrides(src)) {
		s.Channels = splitList(v)
	}
	if v, src := res.GetWithSource(KeyVersions); v != "" && (len(s.Versions) == 0 || overrides(src)) {
		s.Versions = splitList(v)
	}
	if v, src := res.GetWithSource(KeyTestExclude); v != "" && (len(s.Test.Exclude) == 0 || overrides(src)) {
		s.Test.Exclude = splitList(v)
	}
	if v, src := res.GetWithSource(KeyTestVerbosity); v != "" && (s.Test.Verbosity == 0 || overrides(src)) {
		if n, err := strconv.Atoi(v); err == nil {
			s.Test.Verbosity = n
		}
	}
}

func resolveString(res *Resolved, key, current string) string {
	v, src := res.GetWithSource(key)
	if v == "" {
		return current
	}
	if current == "" || overrides(src) {
		return v
	}
	return current
}

// overrides reports whether the source outranks the job spec file. The spec
// sits at the same level as local config, so only env and flags beat it.
func overrides(src Source) bool {
	return src == SourceEnv || src == SourceFlag
}

// splitList splits a comma-separated config value, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
