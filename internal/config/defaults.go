package config

const (
	defaultConfigPath         = "~/.config/envision/config.toml"
	defaultDataDir            = "~/.local/share/envision"
	defaultLogDir             = "~/.local/share/envision/logs"
	defaultAPIBind            = "127.0.0.1:7650"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/envision-app/envision"
	defaultLLMTitle           = "Envision"
	defaultLLMTimeoutSeconds  = 60
	defaultQuestionAttempts   = 2
	defaultSynthesisWorkers   = 2
	defaultSynthesisQueueSize = 64
	defaultTaskTimeoutSeconds = 90
	defaultPruneGraceSeconds  = 900
	defaultNtfyTimeoutSeconds = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Questions: Questions{
			MaxAttempts: defaultQuestionAttempts,
		},
		Workflow: Workflow{
			SynthesisWorkers:   defaultSynthesisWorkers,
			QueueSize:          defaultSynthesisQueueSize,
			TaskTimeoutSeconds: defaultTaskTimeoutSeconds,
			PruneGraceSeconds:  defaultPruneGraceSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
