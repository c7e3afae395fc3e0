package dedup

import (
	"math/bits"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

const (
	// mersennePrime is 2^61-1, the modulus for the permutation family.
	mersennePrime = (1 << 61) - 1
	// maxHash caps hash values to 32 bits so products with permutation
	// coefficients fit a 128-bit intermediate.
	maxHash = (1 << 32) - 1

	// permutationSeed fixes the permutation family. Signatures must be
	// comparable across process runs, so this is not configurable.
	permutationSeed = 1
)

// MinHasher turns text into fixed-length MinHash signatures over
// character shingles. Signatures estimate the Jaccard similarity of the
// two texts' shingle sets; more permutations lower the variance at the
// cost of memory and time.
type MinHasher struct {
	numPerm     int
	shingleSize int
	a           []uint64
	b           []uint64
}

// NewMinHasher creates a MinHasher with numPerm permutations over
// shingles of shingleSize characters.
func NewMinHasher(numPerm, shingleSize int) *MinHasher {
	if numPerm <= 0 {
		numPerm = DefaultNumPerm
	}
	if shingleSize <= 0 {
		shingleSize = DefaultShingleSize
	}

	rng := rand.New(rand.NewSource(permutationSeed))
	a := make([]uint64, numPerm)
	b := make([]uint64, numPerm)
	for i := range a {
		a[i] = 1 + uint64(rng.Int63n(mersennePrime-1))
		b[i] = uint64(rng.Int63n(mersennePrime))
	}

	return &MinHasher{
		numPerm:     numPerm,
		shingleSize: shingleSize,
		a:           a,
		b:           b,
	}
}

// NumPerm returns the signature length.
func (h *MinHasher) NumPerm() int { return h.numPerm }

// Signature computes the MinHash signature of text.
//
// Texts shorter than the shingle size have a degenerate shingle set;
// their signature stays at the initialization value and is not a
// meaningful similarity proxy. Callers are expected to length-filter
// before deduplicating.
func (h *MinHasher) Signature(text string) []uint64 {
	sig := make([]uint64, h.numPerm)
	for i := range sig {
		sig[i] = maxHash
	}

	n := len(text) - h.shingleSize + 1
	for i := 0; i < n; i++ {
		hv := xxhash.Sum64String(text[i:i+h.shingleSize]) & maxHash
		for j := 0; j < h.numPerm; j++ {
			phv := permute(h.a[j], h.b[j], hv)
			if phv < sig[j] {
				sig[j] = phv
			}
		}
	}
	return sig
}

// permute computes ((a*hv + b) mod 2^61-1) & maxHash without overflow,
// using a 128-bit intermediate.
func permute(a, b, hv uint64) uint64 {
	hi, lo := bits.Mul64(a, hv)
	lo, carry := bits.Add64(lo, b, 0)
	hi += carry
	// hi < 2^32 * 2^61 / 2^64 + 1 < mersennePrime, so Rem64 is safe.
	return bits.Rem64(hi, lo, mersennePrime) & maxHash
}

// Similarity estimates the Jaccard similarity of the sets behind two
// signatures of equal length.
func Similarity(a, b []uint64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	match := 0
	for i := range a {
		if a[i] == b[i] {
			match++
		}
	}
	return float64(match) / float64(len(a))
}
