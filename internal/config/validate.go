package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	for name, p := range map[string]Provider{"analyzer": c.Analyzer, "generator": c.Generator, "summarizer": c.Summarizer} {
		if p.BaseURL != "" && !strings.HasPrefix(p.BaseURL, "http") {
			return fmt.Errorf("%s.base_url must be an http(s) URL", name)
		}
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http") {
		return errors.New("llm.base_url must be an http(s) URL")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"questions.max_attempts":        c.Questions.MaxAttempts,
		"workflow.synthesis_workers":    c.Workflow.SynthesisWorkers,
		"workflow.queue_size":           c.Workflow.QueueSize,
		"workflow.task_timeout_seconds": c.Workflow.TaskTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.PruneGraceSeconds < 0 {
		return errors.New("workflow.prune_grace_seconds must be >= 0")
	}
	if c.Notifications.NtfyTopic != "" && !strings.HasPrefix(c.Notifications.NtfyTopic, "http") {
		return errors.New("notifications.ntfy_topic must be an http(s) URL")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
