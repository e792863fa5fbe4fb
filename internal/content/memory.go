package content

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nucliasync/internal/services"
)

// MemorySource is an in-memory Source used by tests and local tooling.
type MemorySource struct {
	mu    sync.RWMutex
	items map[int64]*Item
}

// NewMemorySource builds a source seeded with the provided items.
func NewMemorySource(items ...*Item) *MemorySource {
	s := &MemorySource{items: make(map[int64]*Item, len(items))}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

// Put adds or replaces an item.
func (s *MemorySource) Put(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Remove deletes an item, simulating host-side deletion.
func (s *MemorySource) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *MemorySource) Item(ctx context.Context, id int64) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "content", "item", fmt.Sprintf("content item %d does not exist", id), nil)
	}
	cp := *item
	return &cp, nil
}

func (s *MemorySource) ListPublishedIDs(ctx context.Context, contentType string, limit, offset int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, item := range s.items {
		if item.Type != contentType {
			continue
		}
		if !item.PubliclyVisible() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
