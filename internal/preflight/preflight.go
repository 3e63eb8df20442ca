package preflight

import (
	"context"
	"runtime"

	"studio/internal/config"
	"studio/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the readiness checks that apply to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	// Project root (when configured)
	if cfg.Paths.ProjectRoot != "" {
		results = append(results, CheckDirectoryAccess("Project root", cfg.Paths.ProjectRoot))
	}

	results = append(results,
		CheckCredential("Gemini API key", cfg.Gemini.APIKey),
		CheckCredential("TTS API key", cfg.TTS.APIKey),
	)

	// Copywriting webhook
	if cfg.Copywriting.WebhookURL != "" {
		results = append(results, CheckEndpoint(ctx, "Copywriting webhook", cfg.Copywriting.WebhookURL))
	}

	results = append(results, CheckBinaries(deps.DesktopRequirements(runtime.GOOS))...)

	return results
}

// CheckBinaries converts dependency lookups into results. Optional binaries
// pass with a note when absent.
func CheckBinaries(requirements []deps.Requirement) []Result {
	var out []Result
	for _, status := range deps.CheckBinaries(requirements) {
		res := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Command}
		if !status.Available {
			res.Detail = status.Detail
			if status.Optional {
				res.Detail += " (optional)"
			}
		}
		out = append(out, res)
	}
	return out
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
