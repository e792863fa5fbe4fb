package indexstore_test

import (
	"context"
	"fmt"
	"testing"

	"nucliasync/internal/testsupport"
)

func TestUpsertAndGet(t *testing.T) {
	store := testsupport.MustOpenIndexStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Upsert(ctx, 42, "rid-1", "seq-1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	rid, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rid != "rid-1" {
		t.Fatalf("expected rid-1, got %q", rid)
	}

	// Replace on conflict keeps a single record per content id.
	if err := store.Upsert(ctx, 42, "rid-1", "seq-2"); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	records, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].SequenceID != "seq-2" {
		t.Fatalf("sequence id not updated: %#v", records[0])
	}
}

func TestGetMissingReturnsEmpty(t *testing.T) {
	store := testsupport.MustOpenIndexStore(t, testsupport.NewConfig(t))

	rid, err := store.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rid != "" {
		t.Fatalf("expected empty rid for unsynced id, got %q", rid)
	}
}

func TestDeleteAndClear(t *testing.T) {
	store := testsupport.MustOpenIndexStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		if err := store.Upsert(ctx, id, "rid", ""); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	if err := store.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records after delete, got %d", count)
	}

	// Deleting an absent record is a no-op.
	if err := store.Delete(ctx, 2); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store after ClearAll, got %d", count)
	}
}

func TestFilterExisting(t *testing.T) {
	store := testsupport.MustOpenIndexStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Upsert(ctx, 10, "rid-10", ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, 30, "rid-30", ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	existing, err := store.FilterExisting(ctx, []int64{10, 20, 30, 40})
	if err != nil {
		t.Fatalf("FilterExisting failed: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("expected 2 existing ids, got %v", existing)
	}
	if _, ok := existing[10]; !ok {
		t.Fatal("expected id 10 to exist")
	}
	if _, ok := existing[20]; ok {
		t.Fatal("id 20 should not exist")
	}
}

func TestListPages(t *testing.T) {
	store := testsupport.MustOpenIndexStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		rid := fmt.Sprintf("0000000%d-0000-0000-0000-000000000000", i)
		if err := store.Upsert(ctx, i, rid, ""); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	page, err := store.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].ContentID != 3 || page[1].ContentID != 4 {
		t.Fatalf("unexpected page: %#v", page)
	}

	rest, err := store.List(ctx, 10, 4)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rest) != 1 || rest[0].ContentID != 5 {
		t.Fatalf("unexpected tail page: %#v", rest)
	}
}
