// Package config provides hierarchical configuration resolution and job
// specification loading for the build pipeline CLI.
//
// Resolution is layered with clear precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables
//  3. Local config (e.g. .buildflow.yaml in the project root)
//  4. Global config (e.g. ~/.config/buildflow/config.yaml)
//  5. Built-in defaults (lowest priority)
//
// # Basic Usage
//
// Create a resolver with your application's settings:
//
//	resolver := config.NewResolver(config.ResolverConfig{
//	    EnvPrefix:       "BUILDFLOW_",
//	    GlobalConfigDir: "buildflow",
//	    LocalConfigName: ".buildflow.yaml",
//	    Defaults: map[string]string{
//	        "organization": "omnia",
//	        "publish":      "anaconda",
//	    },
//	})
//
//	cfg := resolver.Resolve()
//	fmt.Println(cfg.Get("organization"))    // "omnia"
//	fmt.Println(cfg.Source("organization")) // "default"
//
// # Environment Variables
//
// Environment variables are automatically detected using the configured prefix:
//
//	# With EnvPrefix: "BUILDFLOW_"
//	BUILDFLOW_ORGANIZATION=my-org  # sets "organization"
//	BUILDFLOW_PUBLISH=s3           # sets "publish"
//
// # Config Sources
//
// Each resolved value tracks where it came from:
//   - "default": Built-in default value
//   - "global": ~/.config/<app>/config.yaml
//   - "local": .buildflow.yaml in the project root
//   - "env": Environment variable
//   - "flag": Command-line flag (set via ResolveWithFlags)
//
// # Project Root Detection
//
// By default, the resolver looks for the local config in the repository root
// of the checkout being built. You can customize this by providing a
// ProjectRootFinder function:
//
//	resolver := config.NewResolver(config.ResolverConfig{
//	    ProjectRootFinder: func(dir string) (string, error) {
//	        return myProjectRoot(), nil
//	    },
//	})
//
// # Job Specifications
//
// Beyond scalar settings, LoadJobSpec reads the per-repository job file that
// describes what to build and test (package, recipe, channels, matrix
// versions, publish target). See JobSpec.
package config
