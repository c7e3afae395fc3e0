package dedup

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/internal/fs"
)

// Fingerprint computes the exact-duplicate fingerprint of text: the
// xxhash64 digest of its UTF-8 bytes. Equal text always yields an equal
// fingerprint; the hash is not cryptographic and does not need to be.
func Fingerprint(text string) uint64 {
	return xxhash.Sum64String(text)
}

// ExactIndex is a set of content fingerprints for O(1) exact-duplicate
// lookup.
type ExactIndex struct {
	hashes map[uint64]struct{}
}

// NewExactIndex creates an empty ExactIndex.
func NewExactIndex() *ExactIndex {
	return &ExactIndex{hashes: make(map[uint64]struct{})}
}

// Contains reports whether fp is in the set.
func (x *ExactIndex) Contains(fp uint64) bool {
	_, ok := x.hashes[fp]
	return ok
}

// Add inserts fp and reports whether it was newly added.
func (x *ExactIndex) Add(fp uint64) bool {
	if _, ok := x.hashes[fp]; ok {
		return false
	}
	x.hashes[fp] = struct{}{}
	return true
}

// Len returns the number of fingerprints in the set.
func (x *ExactIndex) Len() int { return len(x.hashes) }

// Persist writes the fingerprint set to path as a JSON array of hex
// digests, atomically.
func (x *ExactIndex) Persist(fsys fs.FileSystem, path string, c codec.Codec) error {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}

	digests := make([]string, 0, len(x.hashes))
	for fp := range x.hashes {
		digests = append(digests, fmt.Sprintf("%016x", fp))
	}

	data, err := c.Marshal(digests)
	if err != nil {
		return fmt.Errorf("marshal fingerprints: %w", err)
	}
	return fs.WriteAtomic(fsys, path, data, 0o644)
}

// Restore loads a fingerprint set previously written by Persist,
// merging it into the current set. A missing file restores nothing.
func (x *ExactIndex) Restore(fsys fs.FileSystem, path string, c codec.Codec) error {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var digests []string
	if err := c.Unmarshal(data, &digests); err != nil {
		return fmt.Errorf("parse fingerprint file %s: %w", path, err)
	}
	for _, d := range digests {
		var fp uint64
		if _, err := fmt.Sscanf(d, "%x", &fp); err != nil {
			continue
		}
		x.hashes[fp] = struct{}{}
	}
	return nil
}
