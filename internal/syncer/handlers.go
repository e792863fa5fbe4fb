package syncer

import (
	"context"
	"fmt"

	"nucliasync/internal/logging"
	"nucliasync/internal/nuclia"
	"nucliasync/internal/queue"
	"nucliasync/internal/services"
	"nucliasync/internal/worker"
)

// RegisterHandlers binds the syncer's job handlers onto a worker pool.
func (s *Syncer) RegisterHandlers(pool *worker.Pool) {
	pool.Register(queue.HookProcessSingle, s.ProcessSingle)
	pool.Register(queue.HookReprocessLabels, s.ReprocessLabels)
}

// ProcessSingle indexes one content item from a queued job. Before any
// remote work it re-checks the index record: an item indexed by another
// path between enqueue and execution is skipped rather than written
// twice.
func (s *Syncer) ProcessSingle(ctx context.Context, job *queue.Job) worker.Outcome {
	rid, err := s.records.Get(ctx, job.Args.ContentID)
	if err != nil {
		return worker.Retry(err)
	}
	if rid != "" {
		return worker.Skip("already indexed")
	}

	item, err := s.source.Item(ctx, job.Args.ContentID)
	if err != nil {
		if isNotFound(err) {
			return worker.Skip("content no longer exists")
		}
		return worker.Retry(err)
	}
	if !s.cfg.IndexableType(item.Type) {
		return worker.Skip("content type not allowed")
	}
	if !item.PubliclyVisible() {
		return worker.Skip("content not publicly visible")
	}

	if err := s.indexItem(ctx, item); err != nil {
		return classify(err)
	}
	return worker.Success()
}

// ReprocessLabels rebuilds the classification block of one indexed
// resource. A malformed resource id can never succeed and is discarded.
func (s *Syncer) ReprocessLabels(ctx context.Context, job *queue.Job) worker.Outcome {
	rid := job.Args.ResourceID
	if !nuclia.ValidResourceID(rid) {
		err := services.Wrap(services.ErrInvalidJob, "syncer", "reprocess-labels",
			fmt.Sprintf("resource id %q", rid), nil)
		s.logger.Error("discarding relabel job", logging.Error(err))
		return worker.Skip("malformed resource id")
	}

	item, err := s.source.Item(ctx, job.Args.ContentID)
	if err != nil {
		if isNotFound(err) {
			return worker.Skip("content no longer exists")
		}
		return worker.Retry(err)
	}

	if err := s.relabelItem(ctx, item, rid); err != nil {
		return classify(err)
	}
	return worker.Success()
}

// classify converts a remote error into the queue outcome it deserves:
// transport failures retry, vanished resources skip, and everything
// else fails terminally so the operator sees it in the failed count.
func classify(err error) worker.Outcome {
	switch {
	case services.IsRetryable(err):
		return worker.Retry(err)
	case services.IsSkippable(err):
		return worker.Skip(err.Error())
	default:
		return worker.Fail(err)
	}
}
