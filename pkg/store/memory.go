package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]canvas.Item
}

// NewMemoryStore creates an empty store, optionally seeded with items.
func NewMemoryStore(items ...canvas.Item) *MemoryStore {
	s := &MemoryStore{items: make(map[string]canvas.Item)}
	_ = s.Put(context.Background(), items...)
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]canvas.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]canvas.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (canvas.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return canvas.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return it.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, items ...canvas.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if _, ok := s.items[it.ID]; !ok {
			s.order = append(s.order, it.ID)
		}
		s.items[it.ID] = it.Clone()
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.items, id)
	}
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		_, ok := s.items[id]
		return !ok
	})
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
