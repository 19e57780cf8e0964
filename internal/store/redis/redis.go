package redis

import (
	"context"
	"encoding/json"
	"errors"

	redis "github.com/redis/go-redis/v9"

	"kasirinaja/shopbot/internal/store"
)

type Store struct {
	client *redis.Client
	prefix string
}

func New(addr string, password string, db int, prefix string) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, store.ErrInvalidKey
	}

	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

func (s *Store) Save(ctx context.Context, key string, value json.RawMessage) error {
	return s.SaveBatch(ctx, []store.Record{{Key: key, Value: value}})
}

// SaveBatch wraps the writes in MULTI/EXEC so readers never see half a batch.
func (s *Store) SaveBatch(ctx context.Context, records []store.Record) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			pipe.Set(ctx, s.prefix+r.Key, []byte(r.Value), 0)
		}
		return nil
	})
	return err
}
