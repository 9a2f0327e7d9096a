package preflight

import (
	"context"

	"envision/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunLocal checks the data directory, log directory and database.
func RunLocal(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDatabase(ctx, cfg.DatabasePath()),
	}
}

// RunAll executes the local checks plus one LLM check per distinct endpoint.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunLocal(ctx, cfg)

	roles := []struct {
		name string
		llm  config.LLMConfig
	}{
		{"Analyzer LLM", cfg.AnalyzerLLM()},
		{"Question LLM", cfg.GeneratorLLM()},
		{"Summarizer LLM", cfg.SummarizerLLM()},
	}
	// Roles that resolve to the same key, endpoint and model share one check.
	seen := make(map[config.LLMConfig]string, len(roles))
	for _, role := range roles {
		key := role.llm
		key.Title = ""
		if first, ok := seen[key]; ok {
			results = append(results, Result{Name: role.name, Passed: true, Detail: "same endpoint as " + first})
			continue
		}
		seen[key] = role.name
		results = append(results, CheckLLM(ctx, role.name, role.llm))
	}
	return results
}
