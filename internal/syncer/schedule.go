package syncer

import (
	"context"
	"time"

	"nucliasync/internal/logging"
	"nucliasync/internal/queue"
)

// ScheduleType enqueues an indexing job for every publicly visible item
// of one content type that has no index record yet. Jobs are staggered
// a fixed interval apart to smooth load on the remote API. Returns the
// number of jobs actually inserted.
func (s *Syncer) ScheduleType(ctx context.Context, contentType string) (int, error) {
	pageSize := s.cfg.Indexing.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	scheduled := 0
	next := time.Now().UTC()
	for offset := 0; ; offset += pageSize {
		ids, err := s.source.ListPublishedIDs(ctx, contentType, pageSize, offset)
		if err != nil {
			return scheduled, err
		}
		if len(ids) == 0 {
			break
		}

		existing, err := s.records.FilterExisting(ctx, ids)
		if err != nil {
			return scheduled, err
		}

		for _, id := range ids {
			if _, indexed := existing[id]; indexed {
				continue
			}
			inserted, err := s.queue.Enqueue(ctx, queue.HookProcessSingle, queue.GroupIndexing,
				queue.Args{ContentID: id, ContentType: contentType}, next)
			if err != nil {
				return scheduled, err
			}
			if inserted {
				scheduled++
				next = next.Add(s.stagger)
			}
		}

		if len(ids) < pageSize {
			break
		}
	}

	s.logger.Info("scheduled indexing jobs",
		logging.String(logging.FieldContentType, contentType),
		logging.Int("scheduled", scheduled),
	)
	return scheduled, nil
}

// ScheduleFullReindex runs ScheduleType for every allowed content type.
func (s *Syncer) ScheduleFullReindex(ctx context.Context) (int, error) {
	total := 0
	for _, contentType := range s.cfg.Indexing.ContentTypes {
		n, err := s.ScheduleType(ctx, contentType)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ScheduleFullReprocess enqueues one relabel job per index record. A
// reprocess already in flight is left alone and reported as zero new
// jobs.
func (s *Syncer) ScheduleFullReprocess(ctx context.Context) (int, error) {
	counts, err := s.queue.GroupCounts(ctx, queue.GroupRelabel)
	if err != nil {
		return 0, err
	}
	if counts.IsActive() {
		return 0, nil
	}

	records, err := s.records.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	scheduled := 0
	next := time.Now().UTC()
	for _, record := range records {
		inserted, err := s.queue.Enqueue(ctx, queue.HookReprocessLabels, queue.GroupRelabel,
			queue.Args{ContentID: record.ContentID, ResourceID: record.ResourceID}, next)
		if err != nil {
			return scheduled, err
		}
		if inserted {
			scheduled++
			next = next.Add(s.stagger)
		}
	}

	s.logger.Info("scheduled label reprocessing",
		logging.Int("scheduled", scheduled),
	)
	return scheduled, nil
}

// CancelAll unschedules every pending indexing job.
func (s *Syncer) CancelAll(ctx context.Context) (int64, error) {
	return s.queue.CancelGroup(ctx, queue.GroupIndexing)
}

// CancelForType unschedules pending indexing jobs of one content type.
func (s *Syncer) CancelForType(ctx context.Context, contentType string) (int64, error) {
	return s.queue.CancelGroupForType(ctx, queue.GroupIndexing, contentType)
}

// CancelAllReprocess unschedules every pending relabel job.
func (s *Syncer) CancelAllReprocess(ctx context.Context) (int64, error) {
	return s.queue.CancelGroup(ctx, queue.GroupRelabel)
}

// IndexingStatus reports aggregate counts for the indexing group.
func (s *Syncer) IndexingStatus(ctx context.Context) (queue.Counts, error) {
	return s.queue.GroupCounts(ctx, queue.GroupIndexing)
}

// RelabelStatus reports aggregate counts for the relabel group.
func (s *Syncer) RelabelStatus(ctx context.Context) (queue.Counts, error) {
	return s.queue.GroupCounts(ctx, queue.GroupRelabel)
}

// PendingCountForType reports pending indexing jobs for one type.
func (s *Syncer) PendingCountForType(ctx context.Context, contentType string) (int, error) {
	return s.queue.PendingCountForType(ctx, queue.GroupIndexing, contentType)
}

// IndexedCount reports how many items currently hold an index record.
func (s *Syncer) IndexedCount(ctx context.Context) (int, error) {
	return s.records.Count(ctx)
}

// ClearIndex drops every index record, forgetting all remote
// associations without touching the remote side.
func (s *Syncer) ClearIndex(ctx context.Context) error {
	return s.records.ClearAll(ctx)
}
