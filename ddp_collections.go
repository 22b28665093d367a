package rocketbot

import "sync"

// CollectionStore mirrors the server's published collections. In
// patched mode, changed events create missing collection and item
// entries before merging, so an item first seen through a change is not
// lost. In compatible mode a change for an unknown item is dropped with
// a warning, matching clients that merge only into items announced by
// an added event.
type CollectionStore struct {
	patched bool
	logger  Logger

	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func newCollectionStore(patched bool, logger Logger) *CollectionStore {
	return &CollectionStore{
		patched:     patched,
		logger:      logger,
		collections: make(map[string]map[string]map[string]any),
	}
}

// Added records a new item with the given fields, replacing any
// existing entry.
func (s *CollectionStore) Added(collection, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.collections[collection]
	if !ok {
		items = make(map[string]map[string]any)
		s.collections[collection] = items
	}

	item := make(map[string]any, len(fields))
	for k, v := range fields {
		item[k] = v
	}
	items[id] = item
}

// Changed merges changed fields into an item and deletes cleared
// fields.
func (s *CollectionStore) Changed(collection, id string, fields map[string]any, cleared []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.collections[collection]
	if !ok {
		if !s.patched {
			s.logger.Warn("change for unknown collection dropped", LogFields{
				LogFieldCollection: collection,
			})
			return
		}
		items = make(map[string]map[string]any)
		s.collections[collection] = items
	}

	item, ok := items[id]
	if !ok {
		if !s.patched {
			s.logger.Warn("change for unknown item dropped", LogFields{
				LogFieldCollection: collection,
			})
			return
		}
		item = make(map[string]any)
		items[id] = item
	}

	for k, v := range fields {
		item[k] = v
	}
	for _, k := range cleared {
		delete(item, k)
	}
}

// Removed deletes an item. Unknown items are ignored.
func (s *CollectionStore) Removed(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items, ok := s.collections[collection]; ok {
		delete(items, id)
	}
}

// Item returns a copy of an item's fields.
func (s *CollectionStore) Item(collection, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.collections[collection]
	if !ok {
		return nil, false
	}

	item, ok := items[id]
	if !ok {
		return nil, false
	}

	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out, true
}

// Len returns the number of items in a collection.
func (s *CollectionStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collections[collection])
}
