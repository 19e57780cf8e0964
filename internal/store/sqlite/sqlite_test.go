package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kasirinaja/shopbot/internal/store"
)

func TestSaveBatchRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "shop.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Load(ctx, "sale")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveBatch(ctx, []store.Record{
		{Key: "product", Value: json.RawMessage(`[{"name":"Cable","price":150,"stock":3}]`)},
		{Key: "sale", Value: json.RawMessage(`[]`)},
	}))
	require.NoError(t, s.Save(ctx, "sale", json.RawMessage(`[{"invoice_number":"INV-1"}]`)))

	raw, err := s.Load(ctx, "sale")
	require.NoError(t, err)
	assert.Equal(t, `[{"invoice_number":"INV-1"}]`, string(raw))
}

func TestSaveBatchIsAllOrNothing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	err = s.SaveBatch(ctx, []store.Record{
		{Key: "product", Value: json.RawMessage(`[]`)},
		{Key: "sale", Value: json.RawMessage(`not json`)},
	})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)

	_, err = s.Load(ctx, "product")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "product", json.RawMessage(`{"name":"Cable","price":1,"stock":1}`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	raw, err := s.Load(ctx, "product")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Cable","price":1,"stock":1}`, string(raw))
}
