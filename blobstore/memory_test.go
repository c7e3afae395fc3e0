package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/1", []byte("one")))
	require.NoError(t, store.Put(ctx, "a/2", []byte("two")))
	require.NoError(t, store.Put(ctx, "b/1", []byte("three")))
	require.Equal(t, 3, store.Len())

	got, err := store.Get(ctx, "a/1")
	require.NoError(t, err)
	require.Equal(t, "one", string(got))

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/1", "a/2"}, names)

	require.NoError(t, store.Delete(ctx, "a/1"))
	require.Equal(t, 2, store.Len())
	_, err = store.Get(ctx, "a/1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("mutable")
	require.NoError(t, store.Put(ctx, "obj", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, "mutable", string(got))

	// Mutating the returned slice must not corrupt the stored copy.
	got[0] = 'Y'
	again, err := store.Get(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, "mutable", string(again))
}
