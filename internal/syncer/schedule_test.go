package syncer_test

import (
	"context"
	"testing"
	"time"

	"nucliasync/internal/queue"
)

func TestScheduleTypeSkipsIndexedItems(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		fx.source.Put(publishedPost(id))
	}
	if err := fx.records.Upsert(ctx, 2, testRID, "1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	scheduled, err := fx.syncer.ScheduleType(ctx, "post")
	if err != nil {
		t.Fatalf("ScheduleType failed: %v", err)
	}
	if scheduled != 3 {
		t.Fatalf("expected 3 scheduled jobs, got %d", scheduled)
	}

	counts, err := fx.syncer.IndexingStatus(ctx)
	if err != nil {
		t.Fatalf("IndexingStatus failed: %v", err)
	}
	if counts.Pending != 3 || counts.Running != 0 || counts.Failed != 0 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
	if !counts.IsActive() {
		t.Fatal("expected active indexing group")
	}
}

func TestScheduleTypeStaggersJobs(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.source.Put(publishedPost(1))
	fx.source.Put(publishedPost(2))

	if _, err := fx.syncer.ScheduleType(ctx, "post"); err != nil {
		t.Fatalf("ScheduleType failed: %v", err)
	}

	jobs, err := fx.queue.List(ctx, queue.GroupIndexing)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	gap := jobs[1].ScheduledAt.Sub(jobs[0].ScheduledAt)
	if gap < 0 {
		gap = -gap
	}
	if gap < time.Second {
		t.Fatalf("jobs not staggered: gap %s", gap)
	}
}

func TestScheduleTypeIsRerunSafe(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.source.Put(publishedPost(1))

	if _, err := fx.syncer.ScheduleType(ctx, "post"); err != nil {
		t.Fatalf("ScheduleType failed: %v", err)
	}
	// Second run dedups against the pending job.
	scheduled, err := fx.syncer.ScheduleType(ctx, "post")
	if err != nil {
		t.Fatalf("ScheduleType failed: %v", err)
	}
	if scheduled != 0 {
		t.Fatalf("rerun must schedule nothing, got %d", scheduled)
	}
}

func TestCancelAllEmptiesGroup(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	for id := int64(1); id <= 5; id++ {
		fx.source.Put(publishedPost(id))
	}
	if _, err := fx.syncer.ScheduleType(ctx, "post"); err != nil {
		t.Fatalf("ScheduleType failed: %v", err)
	}

	removed, err := fx.syncer.CancelAll(ctx)
	if err != nil {
		t.Fatalf("CancelAll failed: %v", err)
	}
	if removed != 5 {
		t.Fatalf("expected 5 removed, got %d", removed)
	}

	counts, err := fx.syncer.IndexingStatus(ctx)
	if err != nil {
		t.Fatalf("IndexingStatus failed: %v", err)
	}
	if counts.Pending != 0 || counts.IsActive() {
		t.Fatalf("group should be inactive: %#v", counts)
	}
}

func TestCancelForType(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.source.Put(publishedPost(1))
	page := publishedPost(2)
	page.Type = "page"
	fx.source.Put(page)

	if _, err := fx.syncer.ScheduleFullReindex(ctx); err != nil {
		t.Fatalf("ScheduleFullReindex failed: %v", err)
	}

	removed, err := fx.syncer.CancelForType(ctx, "page")
	if err != nil {
		t.Fatalf("CancelForType failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed page job, got %d", removed)
	}

	pending, err := fx.syncer.PendingCountForType(ctx, "post")
	if err != nil {
		t.Fatalf("PendingCountForType failed: %v", err)
	}
	if pending != 1 {
		t.Fatalf("post job must survive, pending=%d", pending)
	}
}

func TestScheduleFullReprocess(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.records.Upsert(ctx, 1, testRID, "1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := fx.records.Upsert(ctx, 2, "2c5d0b81-9f3e-4e4c-8d2b-6f7a8b9c0d1e", "1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	scheduled, err := fx.syncer.ScheduleFullReprocess(ctx)
	if err != nil {
		t.Fatalf("ScheduleFullReprocess failed: %v", err)
	}
	if scheduled != 2 {
		t.Fatalf("expected 2 relabel jobs, got %d", scheduled)
	}

	// A second trigger while jobs are pending is a no-op.
	scheduled, err = fx.syncer.ScheduleFullReprocess(ctx)
	if err != nil {
		t.Fatalf("ScheduleFullReprocess failed: %v", err)
	}
	if scheduled != 0 {
		t.Fatalf("active reprocess must not reschedule, got %d", scheduled)
	}

	jobs, err := fx.queue.List(ctx, queue.GroupRelabel)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, job := range jobs {
		if job.Args.ResourceID == "" {
			t.Fatalf("relabel job missing resource id: %#v", job.Args)
		}
	}

	removed, err := fx.syncer.CancelAllReprocess(ctx)
	if err != nil {
		t.Fatalf("CancelAllReprocess failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestClearIndexForgetsRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.records.Upsert(ctx, 1, testRID, "1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := fx.syncer.ClearIndex(ctx); err != nil {
		t.Fatalf("ClearIndex failed: %v", err)
	}
	n, err := fx.syncer.IndexedCount(ctx)
	if err != nil {
		t.Fatalf("IndexedCount failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty index, got %d", n)
	}
	if len(fx.remote.deletes) != 0 {
		t.Fatal("clearing the index must not touch the remote")
	}
}
