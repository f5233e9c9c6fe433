// Package store holds every record built during a load, keyed by record type
// and normalized key.
package store

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"go.uber.org/zap"

	"sheetgraph/internal/naming"
	"sheetgraph/internal/record"
)

var (
	// ErrModelAddedTwice is returned when a (type, key) pair is added again.
	ErrModelAddedTwice = errors.New("model added twice")
	// ErrNoModelsOfClass is returned when nothing of a type was ever added.
	ErrNoModelsOfClass = errors.New("no models of class in store")
	// ErrNoModelWithKey is returned when a type has no record with the key.
	ErrNoModelWithKey = errors.New("no model of class with key in store")
)

// Entry is one stored record.
type Entry struct {
	Type   string
	Key    string
	Record record.Record
}

// ModelStore is an append-only registry of records. It is safe for
// concurrent use.
type ModelStore struct {
	mu      sync.RWMutex
	byType  map[string]map[string]record.Record
	entries []Entry
	logger  *zap.SugaredLogger
}

// New creates an empty ModelStore.
func New(logger *zap.SugaredLogger) *ModelStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &ModelStore{
		byType: make(map[string]map[string]record.Record),
		logger: logger,
	}
}

// Add registers rec under typeName and the normalized key.
func (s *ModelStore) Add(typeName, key string, rec record.Record) error {
	key = naming.Normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.byType[typeName]
	if !ok {
		keys = make(map[string]record.Record)
		s.byType[typeName] = keys
	}

	if _, dup := keys[key]; dup {
		return fmt.Errorf("%w: %s with key %q", ErrModelAddedTwice, typeName, key)
	}

	keys[key] = rec
	s.entries = append(s.entries, Entry{Type: typeName, Key: key, Record: rec})

	s.logger.Debugw("stored model", "type", typeName, "key", key)

	return nil
}

// Get returns the record of typeName stored under key. The key is matched
// as given; callers normalize it first.
func (s *ModelStore) Get(typeName, key string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.byType[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoModelsOfClass, typeName)
	}

	rec, ok := keys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s with key %q", ErrNoModelWithKey, typeName, key)
	}

	return rec, nil
}

// Len returns the number of stored records.
func (s *ModelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// All yields every stored entry in insertion order.
func (s *ModelStore) All() iter.Seq[Entry] {
	s.mu.RLock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	return func(yield func(Entry) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}
