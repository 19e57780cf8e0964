// Package file stores each record as a human-readable document on disk,
// one file per key, in JSON or YAML.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"kasirinaja/shopbot/internal/store"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Store maps key "product" to "<dir>/product.json" (or .yaml).
//
// Writes go to a temp file that is renamed over the target. SaveBatch stages
// every temp file before renaming any, so a failure while encoding or
// writing leaves all targets untouched; a failure between renames can still
// leave the batch half applied.
type Store struct {
	dir    string
	format string
}

func New(dir string, format string) (*Store, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	if format == "yml" {
		format = FormatYAML
	}
	if format != FormatJSON && format != FormatYAML {
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir, format: format}, nil
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+"."+s.format)
}

func (s *Store) Load(_ context.Context, key string) (json.RawMessage, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", s.Path(key), store.ErrInvalidRecord)
	}

	if s.format == FormatYAML {
		raw, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return raw, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode %s: %w", key, store.ErrInvalidRecord)
	}
	return json.RawMessage(data), nil
}

func (s *Store) Save(ctx context.Context, key string, value json.RawMessage) error {
	return s.SaveBatch(ctx, []store.Record{{Key: key, Value: value}})
}

func (s *Store) SaveBatch(_ context.Context, records []store.Record) error {
	for _, r := range records {
		if err := validateKey(r.Key); err != nil {
			return err
		}
	}
	if err := store.ValidateRecords(records); err != nil {
		return err
	}

	staged := make([]string, 0, len(records))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, r := range records {
		data, err := s.encode(r.Value)
		if err != nil {
			cleanup()
			return fmt.Errorf("encode %s: %w", r.Key, err)
		}
		tmp := s.Path(r.Key) + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", r.Key, err)
		}
		staged = append(staged, tmp)
	}

	for i, r := range records {
		if err := os.Rename(staged[i], s.Path(r.Key)); err != nil {
			cleanup()
			return fmt.Errorf("replace %s: %w", r.Key, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) encode(value json.RawMessage) ([]byte, error) {
	if s.format == FormatYAML {
		return jsonToYAML(value)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, value, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return store.ErrInvalidKey
	}
	return nil
}

func jsonToYAML(value json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(plainNumbers(doc))
}

// plainNumbers turns json.Number into int64 or float64 so YAML writes
// unquoted scalars; integers stay out of exponent notation.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = plainNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = plainNumbers(item)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

func yamlToJSON(data []byte) (json.RawMessage, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
