// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

// Package stats builds and queries path-keyed histograms over JSON
// columns.
//
// A JSON column has no fixed schema, so a single per-column histogram
// cannot describe it. Instead every canonicalized key-path (see package
// jsonpath) owns a bucket with its own frequency, null fraction and,
// for paths whose values share one scalar kind, typed min/max bounds, a
// distinct-value estimate and an optional nested value histogram. The
// estimator answers predicate selectivity questions against these
// buckets; the builder and collector construct them from sampled
// documents; the codec round-trips them through a JSON wire format.
package stats

import (
	"strings"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/jsonpath"
)

// PathBucket holds the statistics for one canonical path key.
//
// Frequency and NullFraction are always meaningful. The typed fields form
// a chain: Min and Max are present iff Kind is not KindUnknown, NDV (zero
// meaning absent) requires Min and Max, and Gram requires NDV. A
// KindUnknown bucket describes only the structural presence of the path
// and carries no typed fields.
type PathBucket struct {
	// Path is the canonical key, unique within a histogram.
	Path string

	// Frequency is the fraction of rows where the path exists, null or
	// not.
	Frequency float64

	// NullFraction is the fraction of the path's occurrences whose value
	// is JSON null.
	NullFraction float64

	// Kind tags the scalar kind of Min, Max and the gram values.
	Kind ValueKind

	// Min and Max bound the non-null values observed at the path.
	Min Value
	Max Value

	// NDV estimates the number of distinct non-null values. Zero means
	// unknown.
	NDV int64

	// Gram is the nested histogram over the path's values, if one was
	// built.
	Gram *ValueGram
}

// base returns the fraction of rows where the path exists with a non-null
// value. Every typed selectivity estimate scales from it.
func (b *PathBucket) base() float64 {
	return b.Frequency * (1 - b.NullFraction)
}

func (b *PathBucket) validate(coll *Collation) error {
	if b.Path == "" {
		return errors.Newf("path bucket with empty path")
	}
	if b.Frequency < 0 || b.Frequency > 1 {
		return errors.Newf("frequency %v out of range at %s", b.Frequency, b.Path)
	}
	if b.NullFraction < 0 || b.NullFraction > 1 {
		return errors.Newf("null fraction %v out of range at %s", b.NullFraction, b.Path)
	}
	if b.NDV < 0 {
		return errors.Newf("negative distinct count at %s", b.Path)
	}
	if b.Kind == KindUnknown {
		if b.Min != nil || b.Max != nil || b.NDV != 0 || b.Gram != nil {
			return errors.Newf("typed fields on an untyped bucket at %s", b.Path)
		}
		return nil
	}
	if b.Min == nil || b.Max == nil {
		return errors.Newf("typed bucket without min and max at %s", b.Path)
	}
	if b.Min.Kind() != b.Kind || b.Max.Kind() != b.Kind {
		return errors.Newf(
			"min/max kinds %v/%v do not match bucket kind %v at %s",
			b.Min.Kind(), b.Max.Kind(), b.Kind, b.Path)
	}
	c, err := compareValues(b.Min, b.Max, coll)
	if err != nil {
		return err
	}
	if c > 0 {
		return errors.Newf("min %v above max %v at %s", b.Min, b.Max, b.Path)
	}
	if b.Gram != nil {
		if b.NDV == 0 {
			return errors.Newf("valuegram without distinct count at %s", b.Path)
		}
		if err := b.Gram.validate(b.Kind, coll, b.Path); err != nil {
			return err
		}
	}
	return nil
}

func (b *PathBucket) clone() PathBucket {
	out := *b
	out.Path = strings.Clone(b.Path)
	if b.Min != nil {
		out.Min = cloneValue(b.Min)
	}
	if b.Max != nil {
		out.Max = cloneValue(b.Max)
	}
	out.Gram = b.Gram.clone()
	return out
}

// Histogram is the full statistics object for one JSON column. It is
// built once, by the builder or the codec, and never mutated afterwards:
// concurrent readers need no synchronization.
type Histogram struct {
	buckets []PathBucket
	byPath  map[string]int

	// minFrequency is the smallest bucket frequency in the histogram, 1.0
	// when the histogram is empty. It anchors every estimate for a path
	// the histogram has never seen.
	minFrequency float64

	collation *Collation

	// nullValues is the fraction of rows whose whole column is SQL NULL,
	// as opposed to a JSON null at some path.
	nullValues   float64
	samplingRate float64
	lastUpdated  time.Time

	// gramBucketCap is the valuegram size cap the histogram was built
	// with.
	gramBucketCap int
}

type histogramParams struct {
	buckets       []PathBucket
	collation     *Collation
	nullValues    float64
	samplingRate  float64
	lastUpdated   time.Time
	gramBucketCap int
}

// makeHistogram is the single validation gate: every histogram, whether
// decoded or built from samples, passes through here before it is
// published. A failure returns no partial histogram.
func makeHistogram(p histogramParams) (*Histogram, error) {
	if p.nullValues < 0 || p.nullValues > 1 {
		return nil, errors.Newf("null values fraction %v out of range", p.nullValues)
	}
	if p.samplingRate <= 0 || p.samplingRate > 1 {
		return nil, errors.Newf("sampling rate %v out of range", p.samplingRate)
	}
	if p.gramBucketCap < 1 {
		return nil, errors.Newf("valuegram bucket cap %d out of range", p.gramBucketCap)
	}
	coll := p.collation
	if coll == nil {
		coll = DefaultCollation()
	}
	h := &Histogram{
		buckets:       p.buckets,
		byPath:        make(map[string]int, len(p.buckets)),
		minFrequency:  1.0,
		collation:     coll,
		nullValues:    p.nullValues,
		samplingRate:  p.samplingRate,
		lastUpdated:   p.lastUpdated,
		gramBucketCap: p.gramBucketCap,
	}
	for i := range h.buckets {
		b := &h.buckets[i]
		if err := b.validate(coll); err != nil {
			return nil, err
		}
		if _, dup := h.byPath[b.Path]; dup {
			return nil, errors.Newf("duplicate path %s", b.Path)
		}
		h.byPath[b.Path] = i
		if b.Frequency < h.minFrequency {
			h.minFrequency = b.Frequency
		}
	}
	return h, nil
}

// findBucket returns the bucket for an exact canonical key, or nil.
func (h *Histogram) findBucket(key string) *PathBucket {
	if i, ok := h.byPath[key]; ok {
		return &h.buckets[i]
	}
	return nil
}

// lookupBucket resolves key to a bucket, retrying with the type suffix
// stripped when the typed key has no bucket of its own. The untyped bucket
// still carries the path's structural statistics, which beat falling all
// the way back to the unseen-path heuristics.
func (h *Histogram) lookupBucket(key string) *PathBucket {
	if b := h.findBucket(key); b != nil {
		return b
	}
	if stripped, ok := jsonpath.StripTypeSuffix(key); ok {
		return h.findBucket(stripped)
	}
	return nil
}

// NumBuckets returns the number of path buckets.
func (h *Histogram) NumBuckets() int {
	return len(h.buckets)
}

// NumDistinctValues returns the distinct-path estimate used by
// cardinality callers. Every observed path owns a bucket, so this equals
// the bucket count.
func (h *Histogram) NumDistinctValues() int {
	return len(h.buckets)
}

// Bucket returns the i'th bucket in build order. The bucket is shared
// with the histogram and must not be modified.
func (h *Histogram) Bucket(i int) *PathBucket {
	return &h.buckets[i]
}

// MinFrequency returns the smallest bucket frequency, 1.0 for an empty
// histogram.
func (h *Histogram) MinFrequency() float64 {
	return h.minFrequency
}

// Collation returns the collation string comparisons use.
func (h *Histogram) Collation() *Collation {
	return h.collation
}

// NullValues returns the fraction of rows whose whole column is SQL NULL.
func (h *Histogram) NullValues() float64 {
	return h.nullValues
}

// SamplingRate returns the fraction of rows the histogram was built from.
func (h *Histogram) SamplingRate() float64 {
	return h.samplingRate
}

// LastUpdated returns the build timestamp.
func (h *Histogram) LastUpdated() time.Time {
	return h.lastUpdated
}

// Clone returns a deep copy sharing no storage, mutable or otherwise, with
// the receiver. The copy is safe to hand to a different lifetime scope.
func (h *Histogram) Clone() *Histogram {
	out := &Histogram{
		buckets:       make([]PathBucket, len(h.buckets)),
		byPath:        make(map[string]int, len(h.buckets)),
		minFrequency:  h.minFrequency,
		collation:     h.collation.clone(),
		nullValues:    h.nullValues,
		samplingRate:  h.samplingRate,
		lastUpdated:   h.lastUpdated,
		gramBucketCap: h.gramBucketCap,
	}
	for i := range h.buckets {
		out.buckets[i] = h.buckets[i].clone()
		out.byPath[out.buckets[i].Path] = i
	}
	return out
}

const (
	sizeOfHistogram  = int64(unsafe.Sizeof(Histogram{}))
	sizeOfPathBucket = int64(unsafe.Sizeof(PathBucket{}))
	sizeOfGramBucket = int64(unsafe.Sizeof(GramBucket{}))
	sizeOfValueGram  = int64(unsafe.Sizeof(ValueGram{}))
)

// MemoryEstimate approximates the histogram's in-memory footprint in
// bytes, for cache accounting.
func (h *Histogram) MemoryEstimate() int64 {
	size := sizeOfHistogram
	for i := range h.buckets {
		b := &h.buckets[i]
		size += sizeOfPathBucket + strSize + int64(len(b.Path))
		size += valueMemSize(b.Min) + valueMemSize(b.Max)
		if b.Gram != nil {
			size += sizeOfValueGram
			for j := range b.Gram.Buckets {
				size += sizeOfGramBucket + valueMemSize(b.Gram.Buckets[j].Value)
			}
		}
	}
	return size
}
