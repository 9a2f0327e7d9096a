package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Auth maps bearer tokens to the user IDs they authenticate.
type Auth struct {
	Tokens map[string]string `toml:"tokens"`
}

// LLM contains shared LLM connection settings used by multiple features.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Provider holds per-role LLM overrides. Empty fields fall back to [llm].
type Provider struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Questions tunes adaptive question generation.
type Questions struct {
	// MaxAttempts bounds how often a compound question is re-requested
	// before the first question sentence is kept.
	MaxAttempts int `toml:"max_attempts"`
}

// Workflow contains background synthesis and housekeeping settings.
type Workflow struct {
	SynthesisWorkers   int `toml:"synthesis_workers"`
	QueueSize          int `toml:"queue_size"`
	TaskTimeoutSeconds int `toml:"task_timeout_seconds"`
	PruneGraceSeconds  int `toml:"prune_grace_seconds"`
}

// Notifications configures operator alerts for finished syntheses.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for envision.
//
// Configuration sections by subsystem:
//   - Paths: data directory, log directory and API bind address
//   - Auth: bearer token to user ID mapping
//   - LLM: shared connection settings for every provider role
//   - Analyzer, Generator, Summarizer: per-role overrides of LLM
//   - Questions: question post-validation
//   - Workflow: synthesis workers, queue size, timeouts and pruning
//   - Notifications: ntfy topic for synthesis outcomes
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Auth          Auth          `toml:"auth"`
	LLM           LLM           `toml:"llm"`
	Analyzer      Provider      `toml:"analyzer"`
	Generator     Provider      `toml:"generator"`
	Summarizer    Provider      `toml:"summarizer"`
	Questions     Questions     `toml:"questions"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("envision.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "envision.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "envision.lock")
}

// TaskTimeout bounds a single background synthesis task.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Workflow.TaskTimeoutSeconds) * time.Second
}

// PruneGrace is how long an empty session survives before listings prune it.
func (c *Config) PruneGrace() time.Duration {
	return time.Duration(c.Workflow.PruneGraceSeconds) * time.Second
}

// DevelopmentAuth reports whether the API trusts the X-User-ID header because
// no bearer tokens are configured.
func (c *Config) DevelopmentAuth() bool {
	return len(c.Auth.Tokens) == 0
}

// UserForToken resolves a bearer token to its user ID.
func (c *Config) UserForToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	user, ok := c.Auth.Tokens[token]
	return user, ok
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved connection settings for one provider role.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// AnalyzerLLM returns the settings for response analysis.
func (c *Config) AnalyzerLLM() LLMConfig {
	return c.roleLLM(c.Analyzer, "Analyzer")
}

// GeneratorLLM returns the settings for adaptive question generation.
func (c *Config) GeneratorLLM() LLMConfig {
	return c.roleLLM(c.Generator, "Questions")
}

// SummarizerLLM returns the settings for title, summary and synthesis.
func (c *Config) SummarizerLLM() LLMConfig {
	return c.roleLLM(c.Summarizer, "Synthesis")
}

// roleLLM falls back to [llm] for every field the role leaves empty.
func (c *Config) roleLLM(role Provider, suffix string) LLMConfig {
	cfg := c.GetLLM()
	if v := strings.TrimSpace(role.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(role.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(role.Model); v != "" {
		cfg.Model = v
	}
	if cfg.Title != "" && suffix != "" {
		cfg.Title = cfg.Title + " " + suffix
	}
	return cfg
}
