package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_Defaults(t *testing.T) {
	resolver := NewResolver(ResolverConfig{
		Defaults: map[string]string{
			"organization": "omnia",
			"publish":      "anaconda",
		},
	})

	cfg := resolver.Resolve()

	if got := cfg.Get("organization"); got != "omnia" {
		t.Errorf("organization = %q, want %q", got, "omnia")
	}
	if got := cfg.Source("organization"); got != SourceDefault {
		t.Errorf("source = %q, want %q", got, SourceDefault)
	}
}

func TestResolver_EnvOverridesDefaults(t *testing.T) {
	os.Setenv("BUILDFLOW_ORGANIZATION", "my-org")
	defer os.Unsetenv("BUILDFLOW_ORGANIZATION")

	resolver := NewResolver(ResolverConfig{
		EnvPrefix: "BUILDFLOW_",
		Defaults: map[string]string{
			"organization": "omnia",
		},
	})

	cfg := resolver.Resolve()

	if got := cfg.Get("organization"); got != "my-org" {
		t.Errorf("organization = %q, want %q", got, "my-org")
	}
	if got := cfg.Source("organization"); got != SourceEnv {
		t.Errorf("source = %q, want %q", got, SourceEnv)
	}
}

func TestResolver_GlobalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".config", "buildflow")
	os.MkdirAll(configDir, 0755)

	configPath := filepath.Join(configDir, "config.yaml")
	os.WriteFile(configPath, []byte("organization: global-org\n"), 0644)

	resolver := NewResolver(ResolverConfig{
		GlobalConfigDir: "buildflow",
		Defaults: map[string]string{
			"organization": "omnia",
		},
	})
	// Override the global path for testing
	resolver.globalPath = configPath

	cfg := resolver.Resolve()

	if got := cfg.Get("organization"); got != "global-org" {
		t.Errorf("organization = %q, want %q", got, "global-org")
	}
	if got := cfg.Source("organization"); got != SourceGlobal {
		t.Errorf("source = %q, want %q", got, SourceGlobal)
	}
}

func TestResolver_LocalConfig(t *testing.T) {
	tmpDir := t.TempDir()

	// Create repository marker
	gitDir := filepath.Join(tmpDir, ".git")
	os.MkdirAll(gitDir, 0755)

	// Create local config
	localConfig := filepath.Join(tmpDir, ".buildflow.yaml")
	os.WriteFile(localConfig, []byte("recipe: ./devtools/conda-recipe\n"), 0644)

	resolver := NewResolver(ResolverConfig{
		LocalConfigName: ".buildflow.yaml",
		ProjectRootFinder: func(_ string) (string, error) {
			return tmpDir, nil
		},
		Defaults: map[string]string{
			"recipe": "",
		},
	})

	cfg := resolver.Resolve()

	if got := cfg.Get("recipe"); got != "./devtools/conda-recipe" {
		t.Errorf("recipe = %q, want %q", got, "./devtools/conda-recipe")
	}
	if got := cfg.Source("recipe"); got != SourceLocal {
		t.Errorf("source = %q, want %q", got, SourceLocal)
	}
}

func TestResolver_Priority(t *testing.T) {
	tmpDir := t.TempDir()

	// Create global config
	globalDir := filepath.Join(tmpDir, "global")
	os.MkdirAll(globalDir, 0755)
	globalConfig := filepath.Join(globalDir, "config.yaml")
	os.WriteFile(globalConfig, []byte("organization: global-org\n"), 0644)

	// Create local config
	localDir := filepath.Join(tmpDir, "local")
	os.MkdirAll(filepath.Join(localDir, ".git"), 0755)
	localConfig := filepath.Join(localDir, ".buildflow.yaml")
	os.WriteFile(localConfig, []byte("organization: local-org\n"), 0644)

	// Set env var
	os.Setenv("TEST_ORGANIZATION", "env-org")
	defer os.Unsetenv("TEST_ORGANIZATION")

	resolver := NewResolver(ResolverConfig{
		EnvPrefix:       "TEST_",
		LocalConfigName: ".buildflow.yaml",
		ProjectRootFinder: func(_ string) (string, error) {
			return localDir, nil
		},
		Defaults: map[string]string{
			"organization": "default-org",
		},
	})
	resolver.globalPath = globalConfig

	cfg := resolver.Resolve()

	// Env should win
	if got := cfg.Get("organization"); got != "env-org" {
		t.Errorf("organization = %q, want %q (env should have highest priority)", got, "env-org")
	}
}

func TestResolver_ResolveWithFlags(t *testing.T) {
	resolver := NewResolver(ResolverConfig{
		Defaults: map[string]string{
			"publish": "anaconda",
		},
	})

	cfg := resolver.ResolveWithFlags(map[string]string{
		"publish": "s3",
	})

	if got := cfg.Get("publish"); got != "s3" {
		t.Errorf("publish = %q, want %q", got, "s3")
	}
	if got := cfg.Source("publish"); got != SourceFlag {
		t.Errorf("source = %q, want %q", got, SourceFlag)
	}
}

func TestResolver_ValidKeys(t *testing.T) {
	tmpDir := t.TempDir()

	// Create global config with valid and invalid keys
	configDir := filepath.Join(tmpDir, ".config", "buildflow")
	os.MkdirAll(configDir, 0755)
	configPath := filepath.Join(configDir, "config.yaml")
	os.WriteFile(configPath, []byte("organization: test-org\ninvalid_key: value\n"), 0644)

	resolver := NewResolver(ResolverConfig{
		GlobalConfigDir: "buildflow",
		ValidGlobalKeys: []string{"organization", "publish"},
		Defaults: map[string]string{
			"organization": "omnia",
		},
	})
	resolver.globalPath = configPath

	cfg := resolver.Resolve()

	// Valid key should be loaded
	if got := cfg.Get("organization"); got != "test-org" {
		t.Errorf("organization = %q, want %q", got, "test-org")
	}

	// Invalid key should be ignored
	if got := cfg.Get("invalid_key"); got != "" {
		t.Errorf("invalid_key = %q, want empty", got)
	}
}

func TestResolved_All(t *testing.T) {
	resolver := NewResolver(ResolverConfig{
		Defaults: map[string]string{
			"key1": "value1",
			"key2": "value2",
		},
	})

	cfg := resolver.Resolve()
	all := cfg.All()

	if len(all) != 2 {
		t.Errorf("got %d keys, want 2", len(all))
	}
	if all["key1"] != "value1" {
		t.Errorf("key1 = %q, want %q", all["key1"], "value1")
	}
}

func TestResolved_Keys(t *testing.T) {
	resolver := NewResolver(ResolverConfig{
		Defaults: map[string]string{
			"key1": "value1",
			"key2": "value2",
		},
	})

	cfg := resolver.Resolve()
	keys := cfg.Keys()

	if len(keys) != 2 {
		t.Errorf("got %d keys, want 2", len(keys))
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directories
	nested := filepath.Join(tmpDir, "a", "b", "c")
	os.MkdirAll(nested, 0755)

	// Create .git directory in root
	gitDir := filepath.Join(tmpDir, ".git")
	os.MkdirAll(gitDir, 0755)

	// Find from nested directory
	root := findProjectRoot(nested)
	if root != tmpDir {
		t.Errorf("findProjectRoot() = %q, want %q", root, tmpDir)
	}
}

func TestFindProjectRoot_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	root := findProjectRoot(tmpDir)
	if root != "" {
		t.Errorf("findProjectRoot() = %q, want empty", root)
	}
}

func TestResolver_BoolValues(t *testing.T) {
	tmpDir := t.TempDir()

	// Create config with bool values
	configDir := filepath.Join(tmpDir, ".config", "buildflow")
	os.MkdirAll(configDir, 0755)
	configPath := filepath.Join(configDir, "config.yaml")
	os.WriteFile(configPath, []byte("timer: true\n"), 0644)

	resolver := NewResolver(ResolverConfig{
		GlobalConfigDir: "buildflow",
		Defaults: map[string]string{
			"timer": "false",
		},
	})
	resolver.globalPath = configPath

	cfg := resolver.Resolve()

	if got := cfg.Get("timer"); got != "true" {
		t.Errorf("timer = %q, want %q", got, "true")
	}
}
