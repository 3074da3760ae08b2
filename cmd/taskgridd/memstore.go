package main

import (
	"context"
	"sync"

	"taskgrid/internal/manager"
	"taskgrid/internal/manifest"
)

// memStore is the demo manager.Store taskgridd binds a manifest's managers
// against when no application-supplied store is wired in; it exists so
// `taskgridd serve --manifest ...` is runnable out of the box, the way the
// teacher's CLI ships usable defaults rather than requiring every knob be
// configured before the binary does anything.
type memStore struct {
	mu    sync.Mutex
	items map[string]map[string]any
}

func newMemStore() *memStore {
	return &memStore{items: map[string]map[string]any{}}
}

func (s *memStore) Get(ctx context.Context, id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return item, nil
}

func (s *memStore) List(ctx context.Context) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) PutField(ctx context.Context, id, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		item = map[string]any{}
		s.items[id] = item
	}
	item[field] = value
	return nil
}

var _ manager.Store = (*memStore)(nil)

// demoStoresFor builds one memStore per distinct store name referenced by
// the manifest, so Apply always has a backing Store to bind presets to.
func demoStoresFor(m *manifest.Manifest) map[string]manager.Store {
	stores := make(map[string]manager.Store, len(m.Managers))
	for _, spec := range m.Managers {
		if _, ok := stores[spec.Store]; !ok {
			stores[spec.Store] = newMemStore()
		}
	}
	return stores
}
