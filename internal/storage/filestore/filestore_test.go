package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmall/cartengine/internal/storage"
)

func TestStore_SetGetDelete(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = s.Get(ctx, "cart:items")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart:items", []byte(`[1,2,3]`)))

	data, err := s.Get(ctx, "cart:items")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2,3]`), data)

	// Overwrite: last writer wins.
	require.NoError(t, s.Set(ctx, "cart:items", []byte(`[]`)))
	data, err = s.Get(ctx, "cart:items")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)

	require.NoError(t, s.Delete(ctx, "cart:items"))
	_, err = s.Get(ctx, "cart:items")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting an absent record is a no-op.
	require.NoError(t, s.Delete(ctx, "cart:items"))
}

func TestStore_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "../outside", []byte(`x`)))

	data, err := s.Get(ctx, "../outside")
	require.NoError(t, err)
	assert.Equal(t, []byte(`x`), data)
}
