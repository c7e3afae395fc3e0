package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, WriteAtomic(Default, path, []byte("first"), 0o644))
	data, err := ReadFile(Default, path)
	require.NoError(t, err)
	require.Equal(t, "first", string(data))

	// Overwrite replaces content in one step.
	require.NoError(t, WriteAtomic(Default, path, []byte("second"), 0o644))
	data, err = ReadFile(Default, path)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	// No temp file left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	require.False(t, Exists(Default, path))
	require.NoError(t, WriteAtomic(Default, path, nil, 0o644))
	require.True(t, Exists(Default, path))
}

func TestFaultyFS_WriteFault(t *testing.T) {
	faulty := NewFaultyFS(Default)
	faulty.AddRule("manifest", Fault{FailOnWrite: true})

	dir := t.TempDir()

	// Matching path fails and leaves no file behind.
	err := WriteAtomic(faulty, filepath.Join(dir, "manifest.json"), []byte("x"), 0o644)
	require.ErrorIs(t, err, ErrInjected)
	require.False(t, Exists(faulty, filepath.Join(dir, "manifest.json")))

	// Non-matching path is untouched.
	require.NoError(t, WriteAtomic(faulty, filepath.Join(dir, "other.json"), []byte("x"), 0o644))
}

func TestFaultyFS_SyncAndCloseFaults(t *testing.T) {
	dir := t.TempDir()

	syncFaulty := NewFaultyFS(Default)
	syncFaulty.AddRule("sync", Fault{FailOnSync: true})
	err := WriteAtomic(syncFaulty, filepath.Join(dir, "sync.json"), []byte("x"), 0o644)
	require.ErrorIs(t, err, ErrInjected)

	closeFaulty := NewFaultyFS(Default)
	closeFaulty.AddRule("close", Fault{FailOnClose: true})
	err = WriteAtomic(closeFaulty, filepath.Join(dir, "close.json"), []byte("x"), 0o644)
	require.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_CustomError(t *testing.T) {
	custom := os.ErrPermission
	faulty := NewFaultyFS(Default)
	faulty.AddRule("guarded", Fault{FailOnWrite: true, Err: custom})

	err := WriteAtomic(faulty, filepath.Join(t.TempDir(), "guarded.json"), []byte("x"), 0o644)
	require.ErrorIs(t, err, custom)
}
