package preflight

import (
	"context"
	"fmt"
	"strings"

	"squeeze/internal/config"
	"squeeze/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report bundles directory and binary checks.
type Report struct {
	Directories []Result      `json:"directories"`
	Binaries    []deps.Status `json:"binaries"`
}

// RunAll checks the configured directories.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
}

// Collect runs every check for cfg.
func Collect(ctx context.Context, cfg *config.Config) Report {
	if cfg == nil {
		return Report{}
	}
	return Report{
		Directories: RunAll(cfg),
		Binaries:    CheckSystemDeps(ctx, cfg),
	}
}

// Ready reports whether every directory check passed and no required binary
// is missing.
func (r Report) Ready() bool {
	return r.Err() == nil
}

// Err summarizes failed checks, or returns nil.
func (r Report) Err() error {
	var problems []string
	for _, d := range r.Directories {
		if !d.Passed {
			problems = append(problems, fmt.Sprintf("%s: %s", d.Name, d.Detail))
		}
	}
	for _, b := range deps.Missing(r.Binaries) {
		problems = append(problems, fmt.Sprintf("%s: %s", b.Name, b.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(problems, "; "))
}
