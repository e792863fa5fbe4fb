package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"nucliasync/internal/config"
	"nucliasync/internal/indexstore"
	"nucliasync/internal/logging"
	"nucliasync/internal/metrics"
	"nucliasync/internal/proxy"
	"nucliasync/internal/queue"
	"nucliasync/internal/syncer"
	"nucliasync/internal/worker"
)

// Terminal jobs are kept for status reporting, then dropped once they
// are too old to matter.
const terminalJobRetention = 30 * 24 * time.Hour

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	records *indexstore.Store
	syncer  *syncer.Syncer
	pool    *worker.Pool
	gateway *proxy.Gateway
	metrics *metrics.Set

	api *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	reachabilityCheck func(context.Context) error
}

// SetReachabilityCheck installs the probe the status endpoint uses to
// report whether the remote knowledge box answers. Optional.
func (d *Daemon) SetReachabilityCheck(fn func(context.Context) error) {
	d.reachabilityCheck = fn
}

func (d *Daemon) remoteReachable(ctx context.Context) bool {
	if d.reachabilityCheck == nil {
		return false
	}
	return d.reachabilityCheck(ctx) == nil
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, records *indexstore.Store, sync *syncer.Syncer, pool *worker.Pool, gateway *proxy.Gateway, set *metrics.Set, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || records == nil || sync == nil || pool == nil {
		return nil, errors.New("daemon requires config, stores, syncer, and worker pool")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "nucliasync.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		records:  records,
		syncer:   sync,
		pool:     pool,
		gateway:  gateway,
		metrics:  set,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the instance lock, recovers jobs stranded by a crash,
// and launches the worker pool and admin API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another nucliasync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Jobs left running by a crashed process would block their dedup
	// keys forever; return them to pending before workers start.
	reclaimed, err := d.store.ReclaimStaleRunning(runCtx)
	if err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("reclaim stale jobs: %w", err)
	}
	if reclaimed > 0 {
		d.logger.Info("reclaimed stale running jobs", logging.Int64("count", reclaimed))
	}

	pruned, err := d.store.PruneTerminal(runCtx, time.Now().UTC().Add(-terminalJobRetention))
	if err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("prune terminal jobs: %w", err)
	}
	if pruned > 0 {
		d.logger.Info("pruned old terminal jobs", logging.Int64("count", pruned))
	}

	if err := d.pool.Start(runCtx); err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("start worker pool: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.pool.Stop()
			d.releaseOnStartFailure()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseOnStartFailure() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop terminates background processing and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pool.Stop()
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases held stores.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if err := d.store.Close(); err != nil {
		firstErr = err
	}
	if err := d.records.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Running reports whether background processing is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the admin API's listen address, empty until started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
