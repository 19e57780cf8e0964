package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kasirinaja/shopbot/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	// json rather than jsonb keeps the document text exactly as written.
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shopbot_records (
			key        text PRIMARY KEY,
			value      json NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, store.ErrInvalidKey
	}

	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value::text
		FROM shopbot_records
		WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(value), nil
}

func (s *Store) Save(ctx context.Context, key string, value json.RawMessage) error {
	return s.SaveBatch(ctx, []store.Record{{Key: key, Value: value}})
}

func (s *Store) SaveBatch(ctx context.Context, records []store.Record) error {
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, r := range records {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO shopbot_records (key, value, updated_at)
			VALUES ($1, $2::json, now())
			ON CONFLICT (key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, r.Key, string(r.Value))
		if err != nil {
			return wrapConflict(err)
		}
	}

	return wrapConflict(pgTx.Commit())
}

// wrapConflict maps serialization_failure (40001) to store.ErrConflict.
func wrapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Message)
	}
	return err
}
