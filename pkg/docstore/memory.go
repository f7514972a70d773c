package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]interface{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]interface{})}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if !ValidPath(path) {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	s.mu.RLock()
	doc, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", path, err)
	}
	return raw, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, path string, value interface{}, merge bool) error {
	if !ValidPath(path) {
		return fmt.Errorf("invalid document path %q", path)
	}
	incoming, err := normalize(value)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	if !merge || !ok {
		s.docs[path] = incoming
		return nil
	}
	merged := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	s.docs[path] = merged
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if !ValidPath(path) {
		return fmt.Errorf("invalid document path %q", path)
	}
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(ctx context.Context, parent string, filter map[string]interface{}) ([]Entry, error) {
	normalizedFilter, err := normalize(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal query filter: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for path := range s.docs {
		if ParentOf(path) != parent {
			continue
		}
		if !matches(s.docs[path], normalizedFilter) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		raw, err := json.Marshal(s.docs[path])
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", path, err)
		}
		entries = append(entries, Entry{Path: path, Data: raw})
	}
	return entries, nil
}

// InTx runs fn against the store and restores the pre-transaction documents
// when fn fails, mirroring the rollback the Postgres store provides.
// Concurrent writers are not excluded while fn runs; the callers are
// single-goroutine tests and local development.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	snapshot := make(map[string]map[string]interface{}, len(s.docs))
	for path, doc := range s.docs {
		snapshot[path] = doc
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		// Document maps are replaced wholesale on write, so the shallow
		// snapshot restores every pre-transaction state.
		s.mu.Lock()
		s.docs = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// normalize round-trips a value through JSON so comparisons behave the same as
// they would against stored documents.
func normalize(value interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return map[string]interface{}{}, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func matches(doc, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Dump returns all stored paths, useful when debugging failing tests.
func (s *MemoryStore) Dump() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.docs))
	for path := range s.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
