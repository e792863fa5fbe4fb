package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nucliasync/internal/queue"
	"nucliasync/internal/testsupport"
	"nucliasync/internal/worker"
)

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %d never reached status %s", id, want)
	return nil
}

func waitForGone(t *testing.T, store *queue.Store, id int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %d was never discarded", id)
}

func enqueue(t *testing.T, store *queue.Store, args queue.Args) int64 {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Enqueue(ctx, queue.HookProcessSingle, queue.GroupIndexing, args, time.Time{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	jobs, err := store.List(ctx, queue.GroupIndexing)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, job := range jobs {
		if job.Args == args {
			return job.ID
		}
	}
	t.Fatal("enqueued job not found")
	return 0
}

func TestPoolMarksSuccessfulJobComplete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueueStore(t, cfg)
	id := enqueue(t, store, queue.Args{ContentID: 1, ContentType: "post"})

	pool := worker.NewPool(cfg, store, nil, nil)
	pool.Register(queue.HookProcessSingle, func(ctx context.Context, job *queue.Job) worker.Outcome {
		return worker.Success()
	})
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer pool.Stop()

	job := waitForStatus(t, store, id, queue.StatusComplete)
	if job.LastError != "" {
		t.Fatalf("completed job carries error: %q", job.LastError)
	}
}

func TestPoolDiscardsSkippedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueueStore(t, cfg)
	id := enqueue(t, store, queue.Args{ContentID: 2, ContentType: "post"})

	pool := worker.NewPool(cfg, store, nil, nil)
	pool.Register(queue.HookProcessSingle, func(ctx context.Context, job *queue.Job) worker.Outcome {
		return worker.Skip("content no longer visible")
	})
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer pool.Stop()

	waitForGone(t, store, id)

	counts, err := store.GroupCounts(context.Background(), queue.GroupIndexing)
	if err != nil {
		t.Fatalf("GroupCounts failed: %v", err)
	}
	if counts.Failed != 0 {
		t.Fatalf("skip must not count as failure: %#v", counts)
	}
}

func TestPoolReschedulesRetryWithBackoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Indexing.MaxAttempts = 5
	store := testsupport.MustOpenQueueStore(t, cfg)
	id := enqueue(t, store, queue.Args{ContentID: 3, ContentType: "post"})

	pool := worker.NewPool(cfg, store, nil, nil)
	pool.Register(queue.HookProcessSingle, func(ctx context.Context, job *queue.Job) worker.Outcome {
		return worker.Retry(errors.New("connection refused"))
	})
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer pool.Stop()

	deadline := time.Now().Add(5 * time.Second)
	var job *queue.Job
	for time.Now().Before(deadline) {
		fetched, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched != nil && fetched.Status == queue.StatusPending && fetched.Attempts > 0 {
			job = fetched
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if job == nil {
		t.Fatal("job was never rescheduled")
	}
	if job.LastError != "connection refused" {
		t.Fatalf("last error not recorded: %q", job.LastError)
	}
	if !job.ScheduledAt.After(time.Now().Add(10 * time.Second)) {
		t.Fatalf("retry not delayed: scheduled at %s", job.ScheduledAt)
	}
}

func TestPoolFailsJobAtAttemptLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Indexing.MaxAttempts = 1
	store := testsupport.MustOpenQueueStore(t, cfg)
	id := enqueue(t, store, queue.Args{ContentID: 4, ContentType: "post"})

	pool := worker.NewPool(cfg, store, nil, nil)
	pool.Register(queue.HookProcessSingle, func(ctx context.Context, job *queue.Job) worker.Outcome {
		return worker.Retry(errors.New("connection refused"))
	})
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer pool.Stop()

	job := waitForStatus(t, store, id, queue.StatusFailed)
	if job.LastError != "connection refused" {
		t.Fatalf("failure cause not recorded: %q", job.LastError)
	}
}

func TestPoolFailsJobOnPermanentError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueueStore(t, cfg)
	id := enqueue(t, store, queue.Args{ContentID: 5, ContentType: "post"})

	pool := worker.NewPool(cfg, store, nil, nil)
	pool.Register(queue.HookProcessSingle, func(ctx context.Context, job *queue.Job) worker.Outcome {
		return worker.Fail(errors.New("remote rejected payload"))
	})
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer pool.Stop()

	waitForStatus(t, store, id, queue.StatusFailed)
}

func TestPoolStartRequiresHandlers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueueStore(t, cfg)

	pool := worker.NewPool(cfg, store, nil, nil)
	if err := pool.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail with no handlers")
	}
}
