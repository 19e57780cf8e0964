package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kasirinaja/shopbot/internal/store"
)

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Load(ctx, "product")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Save(ctx, "product", json.RawMessage(`{"name":"Galaxy A-17","price":20000,"stock":20}`)))

	data, err := os.ReadFile(filepath.Join(dir, "product.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"Galaxy A-17\",\n  \"price\": 20000,\n  \"stock\": 20\n}\n", string(data))

	raw, err := s.Load(ctx, "product")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Galaxy A-17","price":20000,"stock":20}`, string(raw))
}

func TestYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "yml")
	require.NoError(t, err)
	ctx := context.Background()

	doc := `[{"name":"Cable","price":150.5,"stock":3}]`
	require.NoError(t, s.Save(ctx, "product", json.RawMessage(doc)))

	data, err := os.ReadFile(filepath.Join(dir, "product.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "stock: 3")
	assert.Contains(t, string(data), "price: 150.5")

	raw, err := s.Load(ctx, "product")
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(raw))
}

func TestEmptyFileIsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sale.json"), []byte("  \n"), 0o644))
	s, err := New(dir, FormatJSON)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "sale")
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sale.json"), []byte("[{"), 0o644))
	s, err := New(dir, FormatJSON)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "sale")
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestSaveBatchRejectsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, FormatJSON)
	require.NoError(t, err)

	err = s.SaveBatch(context.Background(), []store.Record{
		{Key: "product", Value: json.RawMessage(`[]`)},
		{Key: "sale", Value: json.RawMessage(`{nope`)},
	})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRejectsPathKeys(t *testing.T) {
	s, err := New(t.TempDir(), FormatJSON)
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		err := s.Save(context.Background(), key, json.RawMessage(`[]`))
		assert.ErrorIs(t, err, store.ErrInvalidKey, key)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := New(t.TempDir(), "toml")
	assert.Error(t, err)
}
