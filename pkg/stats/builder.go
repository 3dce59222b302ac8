// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/util/timeutil"
)

// BuilderOptions configures histogram construction. The zero value is
// usable: every field has a documented default.
type BuilderOptions struct {
	// MaxValueGramBuckets caps the size of per-path valuegrams. Zero means
	// defaultMaxValueGramBuckets.
	MaxValueGramBuckets int

	// Collation orders string values. Nil means DefaultCollation.
	Collation *Collation

	// SamplingRate is the fraction of table rows the sample covers. Zero
	// means a full scan.
	SamplingRate float64

	// NullValues is the fraction of rows whose whole column is SQL NULL.
	NullValues float64

	// LastUpdated stamps the histogram. The zero time means now.
	LastUpdated time.Time
}

func (o BuilderOptions) withDefaults() BuilderOptions {
	if o.MaxValueGramBuckets == 0 {
		o.MaxValueGramBuckets = defaultMaxValueGramBuckets
	}
	if o.Collation == nil {
		o.Collation = DefaultCollation()
	}
	if o.SamplingRate == 0 {
		o.SamplingRate = 1.0
	}
	if o.LastUpdated.IsZero() {
		o.LastUpdated = timeutil.Now()
	}
	return o
}

// PathSample aggregates the sampled occurrences of one canonical path.
type PathSample struct {
	// Counts maps each distinct non-null value to its occurrence count.
	// Keys use the concrete variant types, so IntVal(5) and FloatVal(5)
	// are distinct entries until the builder merges numeric kinds.
	Counts map[Value]int64

	// NullCount is the number of occurrences whose value was JSON null.
	NullCount int64
}

// FromValueMaps builds a histogram from per-path value samples keyed by
// canonical path. totalRows is the number of sampled rows the occurrences
// were drawn from. Construction fails atomically: any error returns no
// histogram.
func FromValueMaps(
	samples map[string]*PathSample, totalRows int64, opts BuilderOptions,
) (*Histogram, error) {
	opts = opts.withDefaults()
	if totalRows < 1 {
		return nil, errors.Newf("histogram requires totalRows > 0")
	}
	if opts.MaxValueGramBuckets < 1 {
		return nil, errors.Newf("valuegram bucket cap %d out of range", opts.MaxValueGramBuckets)
	}
	// Sorted keys make the bucket order, and with it the encoded form,
	// deterministic.
	paths := make([]string, 0, len(samples))
	for p := range samples {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	buckets := make([]PathBucket, 0, len(samples))
	for _, p := range paths {
		s := samples[p]
		kind, counts, err := normalizeKinds(s.Counts)
		if err != nil {
			return nil, errors.Wrapf(err, "at %s", p)
		}
		b, err := buildBucket(bucketInput{
			path:      p,
			kind:      kind,
			counts:    counts,
			nullCount: s.NullCount,
			totalRows: totalRows,
		}, opts)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return makeHistogram(histogramParams{
		buckets:       buckets,
		collation:     opts.Collation,
		nullValues:    opts.NullValues,
		samplingRate:  opts.SamplingRate,
		lastUpdated:   opts.LastUpdated,
		gramBucketCap: opts.MaxValueGramBuckets,
	})
}

// normalizeKinds resolves the common kind of a value-count map. An
// Int/Float mix promotes the integers and merges their counts into the
// float entries. Any other mix, or an empty map, resolves to KindUnknown:
// the path keeps structural statistics only.
func normalizeKinds(counts map[Value]int64) (ValueKind, map[Value]int64, error) {
	var hasOther bool
	var kind ValueKind
	for v, c := range counts {
		if v == nil {
			return 0, nil, errors.Newf("nil value in sample")
		}
		if c < 1 {
			return 0, nil, errors.Newf("value count %d for %v must be positive", c, v)
		}
		k := v.Kind()
		switch {
		case kind == KindUnknown:
			kind = k
		case k == kind:
		case numericKind(k) && numericKind(kind):
			kind = KindFloat
		default:
			hasOther = true
		}
	}
	if hasOther || kind == KindUnknown {
		return KindUnknown, nil, nil
	}
	if kind != KindFloat {
		return kind, counts, nil
	}
	merged := make(map[Value]int64, len(counts))
	for v, c := range counts {
		if iv, ok := v.(IntVal); ok {
			v = FloatVal(float64(iv))
		}
		merged[v] += c
	}
	return KindFloat, merged, nil
}

// valueCount pairs one distinct value with its occurrence count.
type valueCount struct {
	val   Value
	count int64
}

// bucketInput is the normalized per-path sample buildBucket consumes.
// tailRows and tailDistinct describe non-null values dropped from exact
// tracking (the collector's cardinality-sketch overflow); min and max,
// when set, widen the bounds to cover that tail.
type bucketInput struct {
	path      string
	kind      ValueKind
	counts    map[Value]int64
	nullCount int64
	totalRows int64

	tailRows     int64
	tailDistinct int64
	min, max     Value
}

func buildBucket(in bucketInput, opts BuilderOptions) (PathBucket, error) {
	present := in.nullCount + in.tailRows
	for _, c := range in.counts {
		present += c
	}
	if present < 1 {
		return PathBucket{}, errors.Newf("path %s has no occurrences", in.path)
	}
	if present > in.totalRows {
		return PathBucket{}, errors.Newf(
			"path %s occurs %d times over %d rows", in.path, present, in.totalRows)
	}
	b := PathBucket{
		Path:         in.path,
		Frequency:    float64(present) / float64(in.totalRows),
		NullFraction: float64(in.nullCount) / float64(present),
	}
	if in.kind == KindUnknown {
		return b, nil
	}
	if len(in.counts) == 0 {
		return PathBucket{}, errors.AssertionFailedf(
			"typed path %s without exact values", in.path)
	}
	vals := sortedValueCounts(in.counts, opts.Collation)
	b.Kind = in.kind
	b.Min, b.Max = in.min, in.max
	if b.Min == nil {
		b.Min = vals[0].val
	}
	if b.Max == nil {
		b.Max = vals[len(vals)-1].val
	}
	b.NDV = int64(len(vals)) + in.tailDistinct
	nonNull := present - in.nullCount
	b.Gram = buildGram(in.kind, vals, nonNull, in.tailDistinct, opts.MaxValueGramBuckets)
	return b, nil
}

func sortedValueCounts(counts map[Value]int64, coll *Collation) []valueCount {
	vals := make([]valueCount, 0, len(counts))
	for v, c := range counts {
		vals = append(vals, valueCount{val: v, count: c})
	}
	sort.Slice(vals, func(i, j int) bool {
		c := mustCompare(vals[i].val, vals[j].val, coll)
		if c != 0 {
			return c < 0
		}
		// Collation ties break bytewise; build order must not depend on
		// map iteration.
		return vals[i].val.String() < vals[j].val.String()
	})
	return vals
}

// buildGram chooses and builds the valuegram for one typed path. vals are
// the exactly counted distinct values, ascending; nonNull includes the
// tail rows.
func buildGram(
	kind ValueKind, vals []valueCount, nonNull, tailDistinct int64, maxBuckets int,
) *ValueGram {
	if tailDistinct == 0 && len(vals) <= maxBuckets {
		g := &ValueGram{Form: SingletonGram, Kind: kind, Buckets: make([]GramBucket, 0, len(vals))}
		for _, vc := range vals {
			g.Buckets = append(g.Buckets, GramBucket{
				Value:     vc.val,
				Frequency: float64(vc.count) / float64(nonNull),
			})
		}
		return g
	}
	if numericKind(kind) && tailDistinct == 0 {
		return equiHeightGram(kind, vals, nonNull, maxBuckets)
	}
	return topKGram(kind, vals, nonNull, tailDistinct, maxBuckets)
}

// equiHeightGram partitions the counted values into at most maxBuckets
// ranges of roughly equal row count. Each distinct value lands in exactly
// one bucket, so heavy duplicates never straddle a boundary.
func equiHeightGram(kind ValueKind, vals []valueCount, nonNull int64, maxBuckets int) *ValueGram {
	g := &ValueGram{Form: EquiHeightGram, Kind: kind, Buckets: make([]GramBucket, 0, maxBuckets)}
	remRows := nonNull
	remBuckets := int64(maxBuckets)
	target := ceilDiv(remRows, remBuckets)
	var rows, distinct int64
	for i, vc := range vals {
		rows += vc.count
		distinct++
		if rows >= target || i == len(vals)-1 {
			g.Buckets = append(g.Buckets, GramBucket{
				Value:         vc.val,
				Frequency:     float64(rows) / float64(nonNull),
				DistinctCount: distinct,
			})
			remRows -= rows
			remBuckets--
			if remBuckets > 0 {
				target = ceilDiv(remRows, remBuckets)
			}
			rows, distinct = 0, 0
		}
	}
	return g
}

// topKGram keeps the maxBuckets most frequent values as singleton entries
// and folds everything else, counted values and sketch tail alike, into
// the rest frequency.
func topKGram(
	kind ValueKind, vals []valueCount, nonNull, tailDistinct int64, maxBuckets int,
) *ValueGram {
	k := maxBuckets
	if k > len(vals) {
		k = len(vals)
	}
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	// Most frequent first; equal counts prefer the smaller value, which is
	// the smaller index since vals are sorted.
	sort.Slice(idx, func(i, j int) bool {
		if vals[idx[i]].count != vals[idx[j]].count {
			return vals[idx[i]].count > vals[idx[j]].count
		}
		return idx[i] < idx[j]
	})
	sel := idx[:k]
	sort.Ints(sel)

	g := &ValueGram{Form: SingletonGram, Kind: kind, Buckets: make([]GramBucket, 0, k)}
	var selRows int64
	for _, i := range sel {
		g.Buckets = append(g.Buckets, GramBucket{
			Value:     vals[i].val,
			Frequency: float64(vals[i].count) / float64(nonNull),
		})
		selRows += vals[i].count
	}
	restRows := nonNull - selRows
	restDistinct := int64(len(vals)) + tailDistinct - int64(k)
	if restDistinct > 0 && restRows > 0 {
		g.RestMeanFrequency = float64(restRows) / float64(restDistinct) / float64(nonNull)
	}
	return g
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
