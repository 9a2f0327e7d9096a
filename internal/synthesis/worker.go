package synthesis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"envision/internal/config"
	"envision/internal/logging"
	"envision/internal/notifications"
	"envision/internal/vision"
)

// Repository is the slice of the session store the worker writes through.
type Repository interface {
	GetVision(ctx context.Context, id string) (*vision.Session, error)
	UpdateTitle(ctx context.Context, id, title string, categories []string, now time.Time) error
	UpdateSummary(ctx context.Context, id, summary, tagline string, now time.Time) error
	UpdateStatus(ctx context.Context, id string, status vision.Status, now time.Time) error
}

// SummaryProvider returns a JSON object for a system/user prompt pair.
// *llm.Client satisfies it.
type SummaryProvider interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options sizes the worker pool. A nil Notifier sends nothing.
type Options struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	Notifier    notifications.Service
}

// OptionsFromConfig reads the [workflow] and [notifications] sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:     cfg.Workflow.SynthesisWorkers,
		QueueSize:   cfg.Workflow.QueueSize,
		TaskTimeout: cfg.TaskTimeout(),
		Notifier:    notifications.NewService(cfg),
	}
}

type taskKey struct {
	visionID string
	kind     vision.TaskKind
}

// Worker drains queued synthesis tasks.
type Worker struct {
	repo     Repository
	provider SummaryProvider
	audio    AudioGenerator
	logger   *slog.Logger
	opts     Options
	clock    func() time.Time

	tasks chan taskKey

	mu        sync.Mutex
	pending   map[taskKey]struct{}
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	processed int
	failed    int
}

var _ vision.Scheduler = (*Worker)(nil)

// NewWorker constructs a worker. A nil audio generator falls back to NoopAudio.
func NewWorker(repo Repository, provider SummaryProvider, audio AudioGenerator, logger *slog.Logger, opts Options) *Worker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 90 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	componentLogger := logging.NewComponentLogger(logger, "synthesis")
	if audio == nil {
		audio = NoopAudio{Logger: logger}
	}
	return &Worker{
		repo:     repo,
		provider: provider,
		audio:    audio,
		logger:   componentLogger,
		opts:     opts,
		clock:    func() time.Time { return time.Now().UTC() },
		tasks:    make(chan taskKey, opts.QueueSize),
		pending:  make(map[taskKey]struct{}),
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("synthesis worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(w.opts.Workers)
	w.mu.Unlock()

	for i := 0; i < w.opts.Workers; i++ {
		go w.run(runCtx)
	}
	w.logger.Info("synthesis worker started",
		logging.Int("workers", w.opts.Workers),
		logging.Int("queue_size", w.opts.QueueSize),
	)
	return nil
}

// Stop cancels in-flight tasks and waits for the goroutines to exit. Tasks
// still queued are dropped.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// Enqueue queues a task. It returns false when the queue is full.
func (w *Worker) Enqueue(visionID string, kind vision.TaskKind) bool {
	key := taskKey{visionID: visionID, kind: kind}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[key]; ok {
		return true
	}
	select {
	case w.tasks <- key:
		w.pending[key] = struct{}{}
		return true
	default:
		return false
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-w.tasks:
			w.mu.Lock()
			delete(w.pending, key)
			w.mu.Unlock()
			w.execute(ctx, key)
		}
	}
}

func (w *Worker) execute(ctx context.Context, key taskKey) {
	taskCtx, cancel := context.WithTimeout(ctx, w.opts.TaskTimeout)
	defer cancel()
	taskCtx = withTaskContext(taskCtx, key)
	logger := logging.WithContext(taskCtx, w.logger)

	started := time.Now()
	var err error
	switch key.kind {
	case vision.TaskTitle:
		err = w.runTitle(taskCtx, logger, key.visionID)
	case vision.TaskSummary:
		err = w.runSummary(taskCtx, logger, key.visionID)
	case vision.TaskSynthesis:
		err = w.runSynthesis(taskCtx, logger, key.visionID)
	default:
		err = errors.New("unknown task kind")
	}
	w.record(err)
	if err != nil {
		w.handleTaskFailure(logger, key, err)
		return
	}
	logger.Debug("synthesis task finished", logging.Duration("duration", time.Since(started)))
}

func (w *Worker) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processed++
	if err != nil && !errors.Is(err, errGone) {
		w.failed++
		w.lastErr = err
	}
}

// StatusSummary reports worker diagnostics.
type StatusSummary struct {
	Running   bool
	Pending   int
	Processed int
	Failed    int
	LastError string
}

// Status returns the latest worker information.
func (w *Worker) Status() StatusSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	summary := StatusSummary{
		Running:   w.running,
		Pending:   len(w.pending),
		Processed: w.processed,
		Failed:    w.failed,
	}
	if w.lastErr != nil {
		summary.LastError = w.lastErr.Error()
	}
	return summary
}
