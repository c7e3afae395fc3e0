// Package version manages append-only snapshots of curated record
// batches, independent of how those batches were produced.
//
// On disk a store is a base directory holding manifest.json plus one
// immutable subdirectory per snapshot:
//
//	base/
//	  manifest.json
//	  versions/
//	    v001/records.jsonl
//	    v001/version_info.json
//	    v002/...
//
// The manifest is persisted synchronously, via write-temp-and-rename,
// on every mutation. A crash between writing a version directory and
// updating the manifest leaves an orphan directory behind; orphans are
// ignored (the next id comes from the manifest, not the directory
// listing) and never reused.
//
// The store assumes a single writer. Concurrent writers against the
// same base directory can corrupt the manifest; that is an accepted
// limitation of the batch pipeline, not something the store guards
// against.
package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

// Sentinel errors for version store operations.
var (
	// ErrNotFound is returned when a referenced version id is absent.
	ErrNotFound = errors.New("version not found")
	// ErrInvalidOperation is returned for operations the store state
	// forbids, such as deleting the current version or merging with no
	// training destination configured.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrMalformedManifest is returned when the manifest fails to
	// parse. A corrupt manifest invalidates the whole store, so this
	// propagates instead of being skipped.
	ErrMalformedManifest = errors.New("malformed manifest")
)

const (
	versionsDirName = "versions"
	recordsFileName = "records.jsonl"
	infoFileName    = "version_info.json"
)

// Store manages the snapshot lifecycle under a base directory.
type Store struct {
	fsys        fs.FileSystem
	codec       codec.Codec
	baseDir     string
	trainingDir string
	manifest    Manifest
}

// Option configures a Store.
type Option func(*Store)

// WithTrainingDir configures the canonical training-data directory used
// by MergeToTraining. Without it, merges fail.
func WithTrainingDir(dir string) Option {
	return func(s *Store) { s.trainingDir = dir }
}

// WithFS overrides the file system, for tests.
func WithFS(fsys fs.FileSystem) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fsys = fsys
		}
	}
}

// WithCodec overrides the record codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// Open opens (or initializes) a version store at baseDir. A missing
// manifest yields an empty history; an unparsable one is an error.
func Open(baseDir string, opts ...Option) (*Store, error) {
	s := &Store{
		fsys:    fs.Default,
		codec:   codec.Default,
		baseDir: baseDir,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.fsys.MkdirAll(filepath.Join(baseDir, versionsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create store layout: %w", err)
	}

	manifestPath := filepath.Join(baseDir, ManifestFileName)
	if fs.Exists(s.fsys, manifestPath) {
		data, err := fs.ReadFile(s.fsys, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		if err := json.Unmarshal(data, &s.manifest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
		}
	}

	return s, nil
}

// CurrentVersion returns the active version id, or "" when the store is
// empty or rolled back to nothing.
func (s *Store) CurrentVersion() string { return s.manifest.Current }

// TrainingDir returns the configured merge destination directory.
func (s *Store) TrainingDir() string { return s.trainingDir }

// ListVersions returns version metadata in creation order.
func (s *Store) ListVersions() []Info {
	out := make([]Info, len(s.manifest.Versions))
	copy(out, s.manifest.Versions)
	return out
}

// GetInfo returns the metadata for a version id.
func (s *Store) GetInfo(id string) (Info, error) {
	i := s.manifest.find(id)
	if i < 0 {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.manifest.Versions[i], nil
}

func (s *Store) versionDir(id string) string {
	return filepath.Join(s.baseDir, versionsDirName, id)
}

func (s *Store) saveManifest() error {
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return fs.WriteAtomic(s.fsys, filepath.Join(s.baseDir, ManifestFileName), data, 0o644)
}

// CreateSnapshot writes records as a new immutable version, appends its
// metadata to the manifest and moves the current pointer to it. This is
// the only operation that grows history.
func (s *Store) CreateSnapshot(records []model.Record, description string, sources []string) (string, error) {
	id := s.manifest.next()
	dir := s.versionDir(id)

	if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create version dir: %w", err)
	}
	if err := corpus.WriteFile(s.fsys, filepath.Join(dir, recordsFileName), records, s.codec); err != nil {
		return "", fmt.Errorf("write version records: %w", err)
	}

	info := Info{
		Version:       id,
		CreatedAt:     time.Now().UTC(),
		Description:   description,
		RecordCount:   len(records),
		Sources:       sources,
		ParentVersion: s.manifest.Current,
	}
	if info.Sources == nil {
		info.Sources = []string{}
	}

	infoData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal version info: %w", err)
	}
	if err := fs.WriteAtomic(s.fsys, filepath.Join(dir, infoFileName), infoData, 0o644); err != nil {
		return "", fmt.Errorf("write version info: %w", err)
	}

	s.manifest.Versions = append(s.manifest.Versions, info)
	s.manifest.Current = id
	if err := s.saveManifest(); err != nil {
		return "", err
	}
	return id, nil
}

// VersionFiles returns the raw bytes of a version's record file and
// metadata file, for archival. Fails with ErrNotFound when the version
// is not in the manifest.
func (s *Store) VersionFiles(id string) (records, info []byte, err error) {
	if s.manifest.find(id) < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	dir := s.versionDir(id)
	records, err = fs.ReadFile(s.fsys, filepath.Join(dir, recordsFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("read version records: %w", err)
	}
	info, err = fs.ReadFile(s.fsys, filepath.Join(dir, infoFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("read version info: %w", err)
	}
	return records, info, nil
}

// loadRecords loads a version's record file. A missing file yields an
// empty slice; malformed lines are skipped by the corpus reader.
func (s *Store) loadRecords(id string) ([]model.Record, error) {
	records, _, err := corpus.ReadFile(s.fsys, filepath.Join(s.versionDir(id), recordsFileName), s.codec)
	return records, err
}

// Rollback moves the current pointer to target and returns that
// version's records. Rollback is non-destructive: later versions stay
// on disk and in the manifest.
func (s *Store) Rollback(target string) ([]model.Record, error) {
	if !fs.Exists(s.fsys, s.versionDir(target)) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}

	records, err := s.loadRecords(target)
	if err != nil {
		return nil, err
	}

	s.manifest.Current = target
	if err := s.saveManifest(); err != nil {
		return nil, err
	}
	return records, nil
}

// CurrentRecords returns the records of the current version, or nothing
// when no version is active.
func (s *Store) CurrentRecords() ([]model.Record, error) {
	if s.manifest.Current == "" {
		return nil, nil
	}
	return s.loadRecords(s.manifest.Current)
}

// Diff summarizes the difference between two versions.
type Diff struct {
	VersionA       string   `json:"version_a"`
	VersionB       string   `json:"version_b"`
	RecordsA       int      `json:"records_a"`
	RecordsB       int      `json:"records_b"`
	Delta          int      `json:"delta"`
	NewSources     []string `json:"new_sources"`
	RemovedSources []string `json:"removed_sources"`
}

// DiffVersions loads both versions and computes record count delta and
// the source sets that appeared or disappeared. Records without chat
// shape are excluded from the source sets. A version with no record
// file on disk counts as empty.
func (s *Store) DiffVersions(a, b string) (Diff, error) {
	recordsA, err := s.loadRecords(a)
	if err != nil {
		return Diff{}, err
	}
	recordsB, err := s.loadRecords(b)
	if err != nil {
		return Diff{}, err
	}

	sourcesA := model.Sources(recordsA)
	sourcesB := model.Sources(recordsB)

	return Diff{
		VersionA:       a,
		VersionB:       b,
		RecordsA:       len(recordsA),
		RecordsB:       len(recordsB),
		Delta:          len(recordsB) - len(recordsA),
		NewSources:     subtract(sourcesB, sourcesA),
		RemovedSources: subtract(sourcesA, sourcesB),
	}, nil
}

// subtract returns the elements of a not present in b, preserving
// a's order.
func subtract(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// DeleteVersion irreversibly removes a version's files and manifest
// entry. The current version cannot be deleted; roll back first.
func (s *Store) DeleteVersion(id string) error {
	if id == s.manifest.Current {
		return fmt.Errorf("%w: cannot delete the current version, rollback first", ErrInvalidOperation)
	}

	if err := s.fsys.RemoveAll(s.versionDir(id)); err != nil {
		return fmt.Errorf("remove version dir: %w", err)
	}

	if i := s.manifest.find(id); i >= 0 {
		s.manifest.Versions = append(s.manifest.Versions[:i], s.manifest.Versions[i+1:]...)
	}
	return s.saveManifest()
}

// MergeToTraining appends a version's records onto the canonical
// training file, writing a version-tagged backup of the previous state
// first. An empty id merges the current version. New records always
// follow existing ones; no interleaving or reordering. Returns the
// destination path.
func (s *Store) MergeToTraining(id string) (string, error) {
	if s.trainingDir == "" {
		return "", fmt.Errorf("%w: no training data directory configured", ErrInvalidOperation)
	}

	if id == "" {
		id = s.manifest.Current
	}
	if id == "" {
		return "", fmt.Errorf("%w: no version specified and no current version", ErrInvalidOperation)
	}

	records, err := s.loadRecords(id)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: no records in version %s", ErrInvalidOperation, id)
	}

	trainPath := filepath.Join(s.trainingDir, corpus.TrainFile)
	existing, _, err := corpus.ReadFile(s.fsys, trainPath, s.codec)
	if err != nil {
		return "", fmt.Errorf("load existing training data: %w", err)
	}

	if fs.Exists(s.fsys, trainPath) {
		backup := trainPath + ".bak." + id
		data, err := fs.ReadFile(s.fsys, trainPath)
		if err != nil {
			return "", fmt.Errorf("read training data for backup: %w", err)
		}
		if err := fs.WriteAtomic(s.fsys, backup, data, 0o644); err != nil {
			return "", fmt.Errorf("write backup: %w", err)
		}
	}

	merged := make([]model.Record, 0, len(existing)+len(records))
	merged = append(merged, existing...)
	merged = append(merged, records...)

	if err := corpus.WriteFile(s.fsys, trainPath, merged, s.codec); err != nil {
		return "", fmt.Errorf("write merged training data: %w", err)
	}
	return trainPath, nil
}
