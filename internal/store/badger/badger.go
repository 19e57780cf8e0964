// Package badger keeps records in an embedded BadgerDB. Useful when the
// shop should persist locally without a server and without loose files.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"

	"kasirinaja/shopbot/internal/store"
)

// Config holds configuration for a BadgerDB-backed store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory skips disk persistence; meant for tests.
	InMemory bool
	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger
}

type Store struct {
	db *badgerdb.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent database")
	}

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(_ context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, store.ErrInvalidKey
	}

	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (s *Store) Save(ctx context.Context, key string, value json.RawMessage) error {
	return s.SaveBatch(ctx, []store.Record{{Key: key, Value: value}})
}

func (s *Store) SaveBatch(_ context.Context, records []store.Record) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		for _, r := range records {
			if err := txn.Set([]byte(r.Key), []byte(r.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badgerdb.ErrConflict) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}
