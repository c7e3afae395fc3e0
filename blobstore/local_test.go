package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	// 1. Put
	data := []byte("records payload")
	require.NoError(t, store.Put(ctx, "v001/records.jsonl.gz", data))
	require.NoError(t, store.Put(ctx, "v001/version_info.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "v002/version_info.json", []byte("{}")))

	// Objects land under the root, slash-separated names as directories.
	_, err := os.Stat(filepath.Join(tmpDir, "v001", "records.jsonl.gz"))
	require.NoError(t, err)

	// 2. Get
	got, err := store.Get(ctx, "v001/records.jsonl.gz")
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = store.Get(ctx, "v001/absent")
	require.ErrorIs(t, err, ErrNotFound)

	// 3. List with prefix
	names, err := store.List(ctx, "v001/")
	require.NoError(t, err)
	require.Equal(t, []string{"v001/records.jsonl.gz", "v001/version_info.json"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	// 4. Delete
	require.NoError(t, store.Delete(ctx, "v001/records.jsonl.gz"))
	_, err = store.Get(ctx, "v001/records.jsonl.gz")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_OverwriteReplaces(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "obj", []byte("old")))
	require.NoError(t, store.Put(ctx, "obj", []byte("new")))

	got, err := store.Get(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}
