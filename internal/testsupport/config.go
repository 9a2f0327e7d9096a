package testsupport

import (
	"path/filepath"
	"testing"

	"envision/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.LLM.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMEndpoint points every provider role at baseURL with a test key.
func WithLLMEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.APIKey = "test-key"
		b.cfg.LLM.TimeoutSeconds = 5
	}
}

// WithToken registers a bearer token for userID, turning off development auth.
func WithToken(token, userID string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Auth.Tokens == nil {
			b.cfg.Auth.Tokens = make(map[string]string)
		}
		b.cfg.Auth.Tokens[token] = userID
	}
}

// WithWorkers sets the synthesis worker count and queue size.
func WithWorkers(workers, queueSize int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.SynthesisWorkers = workers
		b.cfg.Workflow.QueueSize = queueSize
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
