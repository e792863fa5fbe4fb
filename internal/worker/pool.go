package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nucliasync/internal/config"
	"nucliasync/internal/logging"
	"nucliasync/internal/metrics"
	"nucliasync/internal/queue"
)

// Handler executes one claimed job and reports how it ended.
type Handler func(ctx context.Context, job *queue.Job) Outcome

// Pool coordinates queue processing across a fixed set of workers.
type Pool struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	metrics *metrics.Set

	pollInterval time.Duration
	errorRetry   time.Duration
	backoffBase  time.Duration
	maxAttempts  int
	workers      int

	handlers map[string]Handler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool constructs a worker pool. Handlers must be registered before
// Start is called.
func NewPool(cfg *config.Config, store *queue.Store, logger *slog.Logger, set *metrics.Set) *Pool {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Indexing.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		cfg:          cfg,
		store:        store,
		logger:       logger.With(logging.String(logging.FieldComponent, "worker")),
		metrics:      set,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		backoffBase:  time.Duration(cfg.Indexing.RetryBackoffSeconds) * time.Second,
		maxAttempts:  cfg.Indexing.MaxAttempts,
		workers:      workers,
		handlers:     make(map[string]Handler),
	}
}

// Register binds a handler to a hook name.
func (p *Pool) Register(hook string, handler Handler) {
	p.handlers[hook] = handler
}

// Start begins background processing.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("worker pool already running")
	}
	if len(p.handlers) == 0 {
		return errors.New("no handlers registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run(runCtx)
	}
	return nil
}

// Stop terminates background processing and waits for in-flight jobs.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.store.ClaimDue(ctx, time.Now().UTC())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.logger.Error("failed to claim next job", logging.Error(err))
			if !sleepCtx(ctx, p.errorRetry) {
				return
			}
			continue
		}
		if job == nil {
			if !sleepCtx(ctx, p.pollInterval) {
				return
			}
			continue
		}

		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job *queue.Job) {
	logger := p.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldHook, job.Hook),
		logging.Int64(logging.FieldContentID, job.Args.ContentID),
	)

	handler, ok := p.handlers[job.Hook]
	if !ok {
		logger.Error("no handler registered for hook")
		p.finish(ctx, logger, job, Fail(fmt.Errorf("unknown hook %q", job.Hook)), 0)
		return
	}

	start := time.Now()
	outcome := handler(ctx, job)
	p.finish(ctx, logger, job, outcome, time.Since(start).Seconds())
}

func (p *Pool) finish(ctx context.Context, logger *slog.Logger, job *queue.Job, outcome Outcome, seconds float64) {
	switch outcome.Disposition() {
	case DispositionSuccess:
		if err := p.store.MarkComplete(ctx, job.ID); err != nil {
			logger.Error("failed to mark job complete", logging.Error(err))
			return
		}
		logger.Info("job complete")
		p.metrics.ObserveJob(job.Hook, "success", seconds)

	case DispositionSkip:
		if err := p.store.Discard(ctx, job.ID); err != nil {
			logger.Error("failed to discard job", logging.Error(err))
			return
		}
		logger.Info("job skipped", logging.String("reason", outcome.Reason()))
		p.metrics.ObserveJob(job.Hook, "skip", seconds)

	case DispositionRetry:
		if job.Attempts+1 >= p.maxAttempts {
			p.markFailed(ctx, logger, job, outcome.Err(), seconds)
			return
		}
		delay := backoffDelay(p.backoffBase, job.Attempts)
		notBefore := time.Now().UTC().Add(delay)
		if err := p.store.Reschedule(ctx, job.ID, notBefore, errString(outcome.Err())); err != nil {
			logger.Error("failed to reschedule job", logging.Error(err))
			return
		}
		logger.Warn("job will retry",
			logging.Error(outcome.Err()),
			logging.Int("attempts", job.Attempts+1),
			logging.Duration("delay", delay),
		)
		p.metrics.ObserveJob(job.Hook, "retry", seconds)

	case DispositionFail:
		p.markFailed(ctx, logger, job, outcome.Err(), seconds)
	}
}

func (p *Pool) markFailed(ctx context.Context, logger *slog.Logger, job *queue.Job, cause error, seconds float64) {
	if err := p.store.MarkFailed(ctx, job.ID, errString(cause)); err != nil {
		logger.Error("failed to mark job failed", logging.Error(err))
		return
	}
	logger.Error("job failed permanently", logging.Error(cause))
	p.metrics.ObserveJob(job.Hook, "failed", seconds)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
