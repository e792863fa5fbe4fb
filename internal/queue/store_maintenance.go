package queue

import (
	"context"
	"fmt"
	"time"
)

// PruneTerminal deletes complete and failed jobs older than the cutoff.
// Pending and running rows are authoritative and never pruned.
func (s *Store) PruneTerminal(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM jobs
        WHERE status IN (?, ?) AND updated_at < ?`,
		StatusComplete, StatusFailed, olderThan.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleRunning returns running jobs to pending. Called at daemon
// startup to recover rows left behind by a crashed worker process.
func (s *Store) ReclaimStaleRunning(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
        UPDATE jobs SET status = ?, scheduled_at = ?, updated_at = ?
        WHERE status = ?`,
		StatusPending,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reclaim running jobs: %w", err)
	}
	return res.RowsAffected()
}
