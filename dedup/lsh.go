package dedup

import (
	"encoding/binary"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

// LSHIndex buckets MinHash signatures with banded locality-sensitive
// hashing so that pairs with estimated Jaccard similarity at or above
// the configured threshold land in the same bucket with high
// probability.
//
// A missed near-duplicate is an accepted, bounded-probability outcome.
// A bucket collision is taken at face value: one membership query
// decides, with no exact secondary check.
type LSHIndex struct {
	bands int
	rows  int

	// tables[i] maps a band hash to the set of signature keys whose
	// i-th band produced it.
	tables []map[uint64]*roaring.Bitmap

	// keys tracks every inserted key, making Insert idempotent.
	keys *roaring.Bitmap
}

// NewLSHIndex creates an index for signatures of numPerm values tuned
// to the given similarity threshold.
func NewLSHIndex(threshold float64, numPerm int) *LSHIndex {
	if numPerm <= 0 {
		numPerm = DefaultNumPerm
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultLSHThreshold
	}

	bands, rows := optimalBands(threshold, numPerm)
	tables := make([]map[uint64]*roaring.Bitmap, bands)
	for i := range tables {
		tables[i] = make(map[uint64]*roaring.Bitmap)
	}

	return &LSHIndex{
		bands:  bands,
		rows:   rows,
		tables: tables,
		keys:   roaring.New(),
	}
}

// Params returns the band/row split in use.
func (l *LSHIndex) Params() (bands, rows int) { return l.bands, l.rows }

// Len returns the number of inserted signatures.
func (l *LSHIndex) Len() int { return int(l.keys.GetCardinality()) }

// Insert adds sig under key and reports whether the key was newly
// inserted. Re-inserting an existing key is a no-op, not an error.
func (l *LSHIndex) Insert(key uint32, sig []uint64) bool {
	if !l.keys.CheckedAdd(key) {
		return false
	}
	for i := 0; i < l.bands; i++ {
		bh := l.bandHash(i, sig)
		bucket, ok := l.tables[i][bh]
		if !ok {
			bucket = roaring.New()
			l.tables[i][bh] = bucket
		}
		bucket.Add(key)
	}
	return true
}

// Candidates returns the union of all bucket members that share at
// least one band with sig.
func (l *LSHIndex) Candidates(sig []uint64) *roaring.Bitmap {
	out := roaring.New()
	for i := 0; i < l.bands; i++ {
		if bucket, ok := l.tables[i][l.bandHash(i, sig)]; ok {
			out.Or(bucket)
		}
	}
	return out
}

// Contains reports whether any indexed signature shares a band with sig.
func (l *LSHIndex) Contains(sig []uint64) bool {
	for i := 0; i < l.bands; i++ {
		if bucket, ok := l.tables[i][l.bandHash(i, sig)]; ok && !bucket.IsEmpty() {
			return true
		}
	}
	return false
}

func (l *LSHIndex) bandHash(band int, sig []uint64) uint64 {
	start := band * l.rows
	end := start + l.rows
	if end > len(sig) {
		end = len(sig)
	}

	var buf [8]byte
	h := xxhash.New()
	for _, v := range sig[start:end] {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// optimalBands picks the band/row split minimizing the weighted sum of
// false positive and false negative probability, integrating the
// S-curve 1-(1-s^r)^b on either side of the threshold. Both error
// classes are weighted equally.
func optimalBands(threshold float64, numPerm int) (bands, rows int) {
	best := math.Inf(1)
	bands, rows = 1, numPerm
	for b := 1; b <= numPerm; b++ {
		r := numPerm / b
		if r == 0 {
			break
		}
		fp := integrateCollision(0, threshold, b, r)
		fn := (1 - threshold) - integrateCollision(threshold, 1, b, r)
		err := 0.5*fp + 0.5*fn
		if err < best {
			best = err
			bands, rows = b, r
		}
	}
	return bands, rows
}

// integrateCollision numerically integrates the bucket collision
// probability over [lo, hi].
func integrateCollision(lo, hi float64, b, r int) float64 {
	const steps = 1000
	dx := (hi - lo) / steps
	sum := 0.0
	for i := 0; i < steps; i++ {
		s := lo + (float64(i)+0.5)*dx
		sum += 1 - math.Pow(1-math.Pow(s, float64(r)), float64(b))
	}
	return sum * dx
}
