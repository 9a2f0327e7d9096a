package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"envision/internal/api"
	"envision/internal/config"
	"envision/internal/logging"
	"envision/internal/store"
	"envision/internal/synthesis"
	"envision/internal/vision"
)

// Daemon coordinates the background worker and the API server and enforces
// single-instance execution per data directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	worker  *synthesis.Worker
	service *vision.Service
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Worker       synthesis.StatusSummary
	DatabasePath string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, service *vision.Service, worker *synthesis.Worker, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || service == nil || worker == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, service, worker, and logger")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		worker:   worker,
		service:  service,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg.Paths.APIBind, newAuthenticator(cfg), service, d.health, logger)
	return d, nil
}

// Start acquires the daemon lock, then launches the worker and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another envision daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.worker.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start synthesis worker: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.worker.Stop()
		d.abortStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("envision daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
		logging.Bool("development_auth", d.cfg.DevelopmentAuth()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops the API server and the worker and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("envision daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the daemon's runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Worker:       d.worker.Status(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
}

func (d *Daemon) health(ctx context.Context) api.HealthResponse {
	payload := api.HealthResponse{Status: "ok", Worker: api.FromWorkerStatus(d.worker.Status())}
	health, err := d.store.CheckHealth(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "database health check failed", "health_check_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "health endpoint reports degraded"),
		)
		payload.Status = "degraded"
		return payload
	}
	payload.Database = api.FromStoreHealth(health)
	return payload
}
