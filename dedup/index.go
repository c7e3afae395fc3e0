package dedup

import (
	"github.com/curago/curago/codec"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

// Defaults for the dedup options.
const (
	DefaultNumPerm      = 128
	DefaultShingleSize  = 5
	DefaultLSHThreshold = 0.8
)

// Options configures the dedup index.
type Options struct {
	// NumPerm is the MinHash signature length.
	NumPerm int
	// LSHThreshold is the estimated Jaccard similarity at which two
	// texts are considered near-duplicates.
	LSHThreshold float64
	// ShingleSize is the character shingle length.
	ShingleSize int
}

// DefaultOptions returns the standard dedup configuration.
func DefaultOptions() Options {
	return Options{
		NumPerm:      DefaultNumPerm,
		LSHThreshold: DefaultLSHThreshold,
		ShingleSize:  DefaultShingleSize,
	}
}

// Verdict is the result of a duplicate check.
type Verdict int

const (
	// Unique means the text matches nothing in the index.
	Unique Verdict = iota
	// ExactDuplicate means the text's fingerprint is already indexed.
	ExactDuplicate
	// NearDuplicate means an indexed signature shares an LSH bucket.
	NearDuplicate
)

// String returns the verdict name used in stats and logs.
func (v Verdict) String() string {
	switch v {
	case ExactDuplicate:
		return "exact"
	case NearDuplicate:
		return "near"
	default:
		return "unique"
	}
}

// Stats aggregates the outcome of a batch deduplication.
type Stats struct {
	TotalInput int `json:"total_input"`
	Exact      int `json:"exact_dupes"`
	Near       int `json:"near_dupes"`
	Unique     int `json:"unique"`
}

// Index composes the exact-fingerprint set and the LSH-bucketed MinHash
// signatures into one deduplication unit. Not safe for concurrent use;
// the pipeline owns it exclusively for the duration of a run.
type Index struct {
	hasher  *MinHasher
	exact   *ExactIndex
	near    *LSHIndex
	nextKey uint32
}

// New creates an empty dedup index.
func New(opts Options) *Index {
	if opts.NumPerm <= 0 {
		opts.NumPerm = DefaultNumPerm
	}
	if opts.ShingleSize <= 0 {
		opts.ShingleSize = DefaultShingleSize
	}
	if opts.LSHThreshold <= 0 || opts.LSHThreshold >= 1 {
		opts.LSHThreshold = DefaultLSHThreshold
	}

	return &Index{
		hasher: NewMinHasher(opts.NumPerm, opts.ShingleSize),
		exact:  NewExactIndex(),
		near:   NewLSHIndex(opts.LSHThreshold, opts.NumPerm),
	}
}

// Check classifies text against the index without mutating it. The
// exact path is cheap: when the fingerprint is already known, no
// MinHash is computed. Callers decide whether to Admit afterwards.
//
// Empty text must not reach this method; length filtering happens
// upstream in the quality filter.
func (ix *Index) Check(text string) Verdict {
	if ix.exact.Contains(Fingerprint(text)) {
		return ExactDuplicate
	}
	if ix.near.Contains(ix.hasher.Signature(text)) {
		return NearDuplicate
	}
	return Unique
}

// Admit unconditionally inserts text into both indices under a fresh
// synthetic key. Call it after a Unique verdict so later occurrences of
// the same content within a batch are rejected.
func (ix *Index) Admit(text string) {
	ix.exact.Add(Fingerprint(text))
	key := ix.nextKey
	ix.nextKey++
	ix.near.Insert(key, ix.hasher.Signature(text))
}

// Seed indexes the qualifying text of existing records. Records without
// chat shape or with an empty answer are ignored. Returns the number of
// texts indexed.
func (ix *Index) Seed(records []model.Record) int {
	seeded := 0
	for _, rec := range records {
		answer := rec.Answer()
		if answer == "" {
			continue
		}
		ix.Admit(answer)
		seeded++
	}
	return seeded
}

// SeedFromDir seeds the index from the standard corpus splits under
// dir. Missing files and malformed lines index nothing; a corrupt line
// never poisons the rest of the load.
func (ix *Index) SeedFromDir(fsys fs.FileSystem, dir string, c codec.Codec) (int, error) {
	records, err := corpus.LoadDir(fsys, dir, c)
	if err != nil {
		return 0, err
	}
	return ix.Seed(records), nil
}

// DeduplicateBatch checks each record's answer against the index and
// everything admitted earlier in the same batch, returning the kept
// subset. Order-sensitive by construction: the first occurrence of some
// content is kept, later identical or near-identical occurrences are
// rejected. Records with an empty answer are dropped without being
// counted as duplicates or uniques.
func (ix *Index) DeduplicateBatch(records []model.Record) ([]model.Record, Stats) {
	stats := Stats{TotalInput: len(records)}
	kept := make([]model.Record, 0, len(records))

	for _, rec := range records {
		answer := rec.Answer()
		if answer == "" {
			continue
		}

		switch ix.Check(answer) {
		case ExactDuplicate:
			stats.Exact++
		case NearDuplicate:
			stats.Near++
		default:
			ix.Admit(answer)
			kept = append(kept, rec)
			stats.Unique++
		}
	}
	return kept, stats
}

// Persist writes the exact-fingerprint set to path. The near-duplicate
// side is intentionally not persisted; rebuild it with SeedFromDir.
func (ix *Index) Persist(fsys fs.FileSystem, path string, c codec.Codec) error {
	return ix.exact.Persist(fsys, path, c)
}

// Restore merges a previously persisted exact-fingerprint set into the
// index. A missing file restores nothing.
func (ix *Index) Restore(fsys fs.FileSystem, path string, c codec.Codec) error {
	return ix.exact.Restore(fsys, path, c)
}

// ExactLen returns the number of exact fingerprints indexed.
func (ix *Index) ExactLen() int { return ix.exact.Len() }
