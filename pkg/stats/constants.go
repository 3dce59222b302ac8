// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import "unsafe"

// epsilon is the tolerance used when validating that bucket frequencies
// sum to at most one. Floating point rounding in the builder's divisions
// accumulates error of this order over a few thousand buckets.
const epsilon = 1e-10

// Fallback selectivities applied when the histogram cannot answer a
// predicate directly, scaled by the estimate for the path itself. They
// mirror the classic defaults used by optimizers that lack any column
// statistics: equality is assumed much more selective than a range.
const (
	// defaultEqSelectivity scales an equality predicate when the bucket
	// has no valuegram and no distinct count, or when the path was never
	// observed at all.
	defaultEqSelectivity = 0.1

	// defaultRangeSelectivity scales a single-ended comparison (<, <=, >,
	// >=) when the bucket carries no valuegram.
	defaultRangeSelectivity = 0.3

	// defaultBetweenSelectivity scales BETWEEN on an unobserved path. The
	// NOT_BETWEEN fallback is not listed here: it falls out of
	// missingPathNotNullFactor - defaultBetweenSelectivity, and the 0.9
	// used for != falls out of subtracting defaultEqSelectivity likewise.
	defaultBetweenSelectivity = 0.5

	// missingPathNotNullFactor estimates how many rows hold a non-null
	// value at a path the histogram never saw. Sampled histograms miss
	// rare paths far more often than common ones, so the guess stays
	// high.
	missingPathNotNullFactor = 0.8
)

// defaultMaxValueGramBuckets caps the per-bucket valuegrams the builder
// emits. Columns with more distinct values than this get an equi-height
// gram (numeric kinds) or a top-K singleton gram with a rest frequency
// (strings).
const defaultMaxValueGramBuckets = 32

// collectorExactDistincts is how many distinct values per path the
// collector counts exactly before spilling new ones into a cardinality
// sketch.
const collectorExactDistincts = 4096

// DefaultCacheCapacity bounds the histogram cache when CacheConfig leaves
// Capacity zero.
const DefaultCacheCapacity = 256

// Sizes used by memory accounting. strSize covers the string header; the
// bytes it points at are added separately.
const (
	wordSize = int64(unsafe.Sizeof(uintptr(0)))
	strSize  = int64(unsafe.Sizeof(""))
)
