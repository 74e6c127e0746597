package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "covers"))
	require.NoError(t, err)

	ref, err := store.Put(ctx, []byte("jpeg"))
	require.NoError(t, err)
	assert.Regexp(t, `^album_cover_\d+_[0-9a-f]{8}\.jpg$`, ref)

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	require.NoError(t, store.Delete(ctx, ref))
	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, ref))
}

func TestLocalStorageUniqueRefs(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fixed := time.Unix(1735689600, 0)
	store.now = func() time.Time { return fixed }

	a, err := store.Put(context.Background(), []byte("a"))
	require.NoError(t, err)
	b, err := store.Put(context.Background(), []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "..", "../secret", `a\b`, "dir/file.jpg"} {
		_, err := store.Get(context.Background(), ref)
		assert.ErrorIs(t, err, ErrInvalidRef, ref)
		assert.ErrorIs(t, store.Delete(context.Background(), ref), ErrInvalidRef, ref)
	}
}

func TestLocalStoragePurge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Put(ctx, []byte{byte(i)})
		require.NoError(t, err)
	}
	other := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))

	require.NoError(t, store.Purge(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestLocalStorageCancelled(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPicksBackend(t *testing.T) {
	store, err := New(context.Background(), Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)
}
