// Package dedup rejects exact and near-duplicate text at two
// granularities.
//
// Exact duplicates are caught by a set of 64-bit content fingerprints.
// Near duplicates are caught by MinHash signatures over character
// shingles, bucketed with banded locality-sensitive hashing so a
// membership query never compares against the whole corpus.
//
// The composed Index is the unit the pipeline works with. Check is
// read-only; the caller admits a text explicitly after a Unique
// verdict, which is what makes intra-batch dedup order-sensitive: the
// first occurrence of some content always wins.
//
// Only the exact-fingerprint set is persisted. The LSH side is cheap to
// rebuild by re-seeding from corpus text, so it intentionally has no
// on-disk form.
package dedup
