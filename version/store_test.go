package version

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

func batch(prefix string, n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.NewRecord(
			"You are a CMMC expert.",
			fmt.Sprintf("%s question %d?", prefix, i),
			fmt.Sprintf("%s answer %d with enough substance to matter.", prefix, i),
			prefix,
		))
	}
	return records
}

func TestStore_CreateSnapshot(t *testing.T) {
	base := t.TempDir()
	s, err := Open(base)
	require.NoError(t, err)
	require.Equal(t, "", s.CurrentVersion())

	id, err := s.CreateSnapshot(batch("alpha", 3), "first batch", []string{"alpha"})
	require.NoError(t, err)
	require.Equal(t, "v001", id)
	require.Equal(t, "v001", s.CurrentVersion())

	// Files on disk.
	require.FileExists(t, filepath.Join(base, "versions", "v001", "records.jsonl"))
	require.FileExists(t, filepath.Join(base, "versions", "v001", "version_info.json"))
	require.FileExists(t, filepath.Join(base, "manifest.json"))

	info, err := s.GetInfo("v001")
	require.NoError(t, err)
	require.Equal(t, 3, info.RecordCount)
	require.Equal(t, "first batch", info.Description)
	require.Equal(t, []string{"alpha"}, info.Sources)
	require.Equal(t, "", info.ParentVersion)
	require.False(t, info.CreatedAt.IsZero())

	// Second snapshot links back to the first.
	id2, err := s.CreateSnapshot(batch("beta", 2), "second batch", nil)
	require.NoError(t, err)
	require.Equal(t, "v002", id2)

	info2, err := s.GetInfo("v002")
	require.NoError(t, err)
	require.Equal(t, "v001", info2.ParentVersion)
	require.NotNil(t, info2.Sources)
}

func TestStore_ReopenLoadsManifest(t *testing.T) {
	base := t.TempDir()

	s, err := Open(base)
	require.NoError(t, err)
	_, err = s.CreateSnapshot(batch("alpha", 2), "", nil)
	require.NoError(t, err)

	reopened, err := Open(base)
	require.NoError(t, err)
	require.Equal(t, "v001", reopened.CurrentVersion())
	require.Len(t, reopened.ListVersions(), 1)
}

func TestStore_MalformedManifest(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, ManifestFileName), []byte("{not json"), 0o644))

	_, err := Open(base)
	require.ErrorIs(t, err, ErrMalformedManifest)
}

func TestStore_OrphanDirsIgnored(t *testing.T) {
	base := t.TempDir()
	s, err := Open(base)
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 1), "", nil)
	require.NoError(t, err)

	// Simulate a crash that left a version directory without a manifest
	// entry: the id comes from the manifest, so the orphan is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "versions", "v002"), 0o755))

	reopened, err := Open(base)
	require.NoError(t, err)
	id, err := reopened.CreateSnapshot(batch("beta", 1), "", nil)
	require.NoError(t, err)
	require.Equal(t, "v002", id)
}

func TestStore_Rollback(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 2), "", nil)
	require.NoError(t, err)
	_, err = s.CreateSnapshot(batch("beta", 3), "", nil)
	require.NoError(t, err)

	records, err := s.Rollback("v001")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "v001", s.CurrentVersion())

	// Non-destructive: v002 is intact and can become current again.
	require.Len(t, s.ListVersions(), 2)
	records, err = s.Rollback("v002")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "v002", s.CurrentVersion())
}

func TestStore_RollbackUnknownVersion(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.Rollback("v042")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CurrentRecords(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	records, err := s.CurrentRecords()
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = s.CreateSnapshot(batch("alpha", 2), "", nil)
	require.NoError(t, err)

	records, err = s.CurrentRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestStore_DiffVersions(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 2), "", nil)
	require.NoError(t, err)

	mixed := append(batch("alpha", 2), batch("gamma", 3)...)
	_, err = s.CreateSnapshot(mixed, "", nil)
	require.NoError(t, err)

	diff, err := s.DiffVersions("v001", "v002")
	require.NoError(t, err)
	require.Equal(t, 2, diff.RecordsA)
	require.Equal(t, 5, diff.RecordsB)
	require.Equal(t, 3, diff.Delta)
	require.Equal(t, []string{"gamma"}, diff.NewSources)
	require.Empty(t, diff.RemovedSources)

	// Reversed direction mirrors the deltas.
	back, err := s.DiffVersions("v002", "v001")
	require.NoError(t, err)
	require.Equal(t, -3, back.Delta)
	require.Equal(t, []string{"gamma"}, back.RemovedSources)
}

func TestStore_DeleteVersion(t *testing.T) {
	base := t.TempDir()
	s, err := Open(base)
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 1), "", nil)
	require.NoError(t, err)
	_, err = s.CreateSnapshot(batch("beta", 1), "", nil)
	require.NoError(t, err)

	// The current version is guarded.
	err = s.DeleteVersion("v002")
	require.ErrorIs(t, err, ErrInvalidOperation)

	require.NoError(t, s.DeleteVersion("v001"))
	require.NoDirExists(t, filepath.Join(base, "versions", "v001"))
	require.Len(t, s.ListVersions(), 1)

	_, err = s.GetInfo("v001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MergeToTraining(t *testing.T) {
	trainingDir := t.TempDir()
	s, err := Open(t.TempDir(), WithTrainingDir(trainingDir))
	require.NoError(t, err)

	existing := batch("existing", 2)
	trainPath := filepath.Join(trainingDir, corpus.TrainFile)
	require.NoError(t, corpus.WriteFile(fs.Default, trainPath, existing, codec.Default))

	_, err = s.CreateSnapshot(batch("fresh", 3), "", nil)
	require.NoError(t, err)

	path, err := s.MergeToTraining("v001")
	require.NoError(t, err)
	require.Equal(t, trainPath, path)

	// Append law: existing records first, new records after.
	merged, _, err := corpus.ReadFile(fs.Default, trainPath, codec.Default)
	require.NoError(t, err)
	require.Len(t, merged, 5)
	require.Equal(t, "existing", merged[0].Source)
	require.Equal(t, "existing", merged[1].Source)
	require.Equal(t, "fresh", merged[2].Source)

	// One version-tagged backup of the pre-merge state.
	backup, _, err := corpus.ReadFile(fs.Default, trainPath+".bak.v001", codec.Default)
	require.NoError(t, err)
	require.Len(t, backup, 2)
}

func TestStore_MergeDefaultsToCurrent(t *testing.T) {
	trainingDir := t.TempDir()
	s, err := Open(t.TempDir(), WithTrainingDir(trainingDir))
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("fresh", 2), "", nil)
	require.NoError(t, err)

	// No existing training file: merge creates it without a backup.
	path, err := s.MergeToTraining("")
	require.NoError(t, err)

	merged, _, err := corpus.ReadFile(fs.Default, path, codec.Default)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	require.NoFileExists(t, path+".bak.v001")
}

func TestStore_MergeGuards(t *testing.T) {
	// No training dir configured.
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = s.MergeToTraining("")
	require.ErrorIs(t, err, ErrInvalidOperation)

	// Training dir but no version at all.
	s2, err := Open(t.TempDir(), WithTrainingDir(t.TempDir()))
	require.NoError(t, err)
	_, err = s2.MergeToTraining("")
	require.ErrorIs(t, err, ErrInvalidOperation)

	// Empty version merges nothing.
	s3, err := Open(t.TempDir(), WithTrainingDir(t.TempDir()))
	require.NoError(t, err)
	_, err = s3.CreateSnapshot(nil, "", nil)
	require.NoError(t, err)
	_, err = s3.MergeToTraining("")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestStore_VersionFiles(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 2), "desc", nil)
	require.NoError(t, err)

	records, info, err := s.VersionFiles("v001")
	require.NoError(t, err)
	require.NotEmpty(t, records)
	require.Contains(t, string(info), `"desc"`)
	require.Equal(t, 2, strings.Count(string(records), "\n"))

	_, _, err = s.VersionFiles("v042")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SnapshotFailsOnWriteFault(t *testing.T) {
	faulty := fs.NewFaultyFS(fs.Default)
	faulty.AddRule("records.jsonl", fs.Fault{FailOnWrite: true})

	s, err := Open(t.TempDir(), WithFS(faulty))
	require.NoError(t, err)

	_, err = s.CreateSnapshot(batch("alpha", 1), "", nil)
	require.ErrorIs(t, err, fs.ErrInjected)

	// The failed snapshot never reached the manifest.
	require.Equal(t, "", s.CurrentVersion())
	require.Empty(t, s.ListVersions())
}
