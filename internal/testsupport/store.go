package testsupport

import (
	"testing"

	"nucliasync/internal/config"
	"nucliasync/internal/indexstore"
	"nucliasync/internal/queue"
)

// MustOpenQueueStore opens a queue.Store for tests and registers cleanup.
func MustOpenQueueStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenIndexStore opens an indexstore.Store for tests and registers cleanup.
func MustOpenIndexStore(t testing.TB, cfg *config.Config) *indexstore.Store {
	t.Helper()

	store, err := indexstore.Open(cfg)
	if err != nil {
		t.Fatalf("indexstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
