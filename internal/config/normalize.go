package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeLLM()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAuth() {
	tokens := make(map[string]string, len(c.Auth.Tokens)+1)
	for token, user := range c.Auth.Tokens {
		token = strings.TrimSpace(token)
		user = strings.TrimSpace(user)
		if token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	token := strings.TrimSpace(os.Getenv("ENVISION_API_TOKEN"))
	user := strings.TrimSpace(os.Getenv("ENVISION_API_USER"))
	if token != "" && user != "" {
		tokens[token] = user
	}
	if len(tokens) == 0 {
		c.Auth.Tokens = nil
		return
	}
	c.Auth.Tokens = tokens
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = value
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	for _, p := range []*Provider{&c.Analyzer, &c.Generator, &c.Summarizer} {
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.BaseURL = strings.TrimSpace(p.BaseURL)
		p.Model = strings.TrimSpace(p.Model)
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Questions.MaxAttempts == 0 {
		c.Questions.MaxAttempts = defaultQuestionAttempts
	}
	if c.Workflow.SynthesisWorkers == 0 {
		c.Workflow.SynthesisWorkers = defaultSynthesisWorkers
	}
	if c.Workflow.QueueSize == 0 {
		c.Workflow.QueueSize = defaultSynthesisQueueSize
	}
	if c.Workflow.TaskTimeoutSeconds == 0 {
		c.Workflow.TaskTimeoutSeconds = defaultTaskTimeoutSeconds
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
