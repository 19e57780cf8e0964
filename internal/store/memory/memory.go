package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"kasirinaja/shopbot/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
	writes  int
}

func New() *Store {
	return &Store{records: make(map[string]json.RawMessage)}
}

// NewSeeded returns a store pre-populated with the given documents.
func NewSeeded(seed map[string]string) *Store {
	s := New()
	for key, value := range seed {
		s.records[key] = json.RawMessage(value)
	}
	return s
}

func (s *Store) Load(_ context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, store.ErrInvalidKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.records[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(raw), nil
}

func (s *Store) Save(ctx context.Context, key string, value json.RawMessage) error {
	return s.SaveBatch(ctx, []store.Record{{Key: key, Value: value}})
}

func (s *Store) SaveBatch(_ context.Context, records []store.Record) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.records[r.Key] = slices.Clone(r.Value)
	}
	s.writes++
	return nil
}

// Writes reports how many successful write calls the store has seen.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Close() error {
	return nil
}
