package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"envision/internal/config"
	"envision/internal/store"
	"envision/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("ENVISION_API_TOKEN", "")
	t.Setenv("ENVISION_API_USER", "")

	configPath := filepath.Join(homeDir, ".config", "envision", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

// openStore opens the env database for seeding; close it before running the CLI.
func (e *cliTestEnv) openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(e.cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return st
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\n\n", cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.APIBind)
	fmt.Fprintf(&b, "[llm]\napi_key = %q\nbase_url = %q\n\n", cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if len(cfg.Auth.Tokens) > 0 {
		b.WriteString("[auth.tokens]\n")
		for token, user := range cfg.Auth.Tokens {
			fmt.Fprintf(&b, "%q = %q\n", token, user)
		}
		b.WriteString("\n")
	}
	b.WriteString("[logging]\nformat = \"json\"\nlevel = \"error\"\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
