package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the key has never been saved. Callers substitute a default.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey rejects empty or unusable record keys.
	ErrInvalidKey = errors.New("invalid record key")
	// ErrInvalidRecord means the document is not valid JSON.
	ErrInvalidRecord = errors.New("invalid record document")
	// ErrConflict means a concurrent writer won; nothing from the batch was applied.
	ErrConflict = errors.New("concurrent update")
)

// Record is one named document to write as part of a batch.
type Record struct {
	Key   string
	Value json.RawMessage
}

// Store persists whole JSON documents under string keys. Documents are
// always read and rewritten in full; there is no partial update.
type Store interface {
	Load(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
	// SaveBatch writes all records or none of them where the backend allows
	// it. The file driver can only approximate this (see file.Store).
	SaveBatch(ctx context.Context, records []Record) error
	Close() error
}

// LoadOr returns fallback when key is absent.
func LoadOr(ctx context.Context, s Store, key string, fallback json.RawMessage) (json.RawMessage, bool, error) {
	raw, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// ValidateRecords is run by every driver before it writes anything.
func ValidateRecords(records []Record) error {
	for _, r := range records {
		if r.Key == "" {
			return ErrInvalidKey
		}
		if !json.Valid(r.Value) {
			return fmt.Errorf("%s: %w", r.Key, ErrInvalidRecord)
		}
	}
	return nil
}
