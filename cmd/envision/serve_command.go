package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"envision/internal/analyzer"
	"envision/internal/config"
	"envision/internal/daemon"
	"envision/internal/logging"
	"envision/internal/preflight"
	"envision/internal/questions"
	"envision/internal/services/llm"
	"envision/internal/store"
	"envision/internal/synthesis"
	"envision/internal/vision"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and synthesis worker in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) != "" {
				cfg.Paths.APIBind = strings.TrimSpace(bind)
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServer(runCtx, cfg)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the API bind address")
	return cmd
}

// runServer blocks until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if removed := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "*.log*", cfg.Logging.RetentionDays); removed > 0 {
		logger.Info("old log files removed", logging.Int("removed", removed))
	}

	if results := preflight.RunLocal(ctx, cfg); preflight.Failed(results) {
		var problems []string
		for _, r := range results {
			if !r.Passed {
				problems = append(problems, r.Name+": "+r.Detail)
			}
		}
		return errors.New("preflight failed: " + strings.Join(problems, "; "))
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	d, err := buildDaemon(cfg, st, logger)
	if err != nil {
		st.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("envision shutting down")
	return nil
}

func buildDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	var answers analyzer.TextAnalysisProvider
	if client := llm.NewClient(llm.FromConfig(cfg.AnalyzerLLM())); client.Configured() {
		answers = client
	} else {
		logging.WarnWithContext(logger, "analyzer LLM not configured", "llm_unconfigured",
			logging.String(logging.FieldImpact, "answers are scored with fallback analysis"),
			logging.String(logging.FieldErrorHint, "set llm.api_key or OPENROUTER_API_KEY"),
		)
	}
	var generator questions.TextGenerationProvider
	if client := llm.NewClient(llm.FromConfig(cfg.GeneratorLLM())); client.Configured() {
		generator = client
	}
	var summarizer synthesis.SummaryProvider
	if client := llm.NewClient(llm.FromConfig(cfg.SummarizerLLM())); client.Configured() {
		summarizer = client
	}

	worker := synthesis.NewWorker(st, summarizer, nil, logger, synthesis.OptionsFromConfig(cfg))
	service := vision.NewService(st,
		analyzer.New(answers, logger),
		questions.NewController(generator, cfg.Questions.MaxAttempts, logger),
		logger,
		vision.WithScheduler(worker),
		vision.WithPruneGrace(cfg.PruneGrace()),
	)
	return daemon.New(cfg, st, service, worker, logger)
}
