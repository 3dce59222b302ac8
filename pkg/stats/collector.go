// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/axiomhq/hyperloglog"
	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/jsonpath"
)

// Collector aggregates sampled JSON documents into per-path statistics
// and finalizes them into a histogram. Each scalar leaf lands in two
// aggregates: a typed one keyed by the suffixed canonical path, and an
// untyped structural one that also absorbs JSON nulls. A Collector is not
// safe for concurrent use; a single statistics-refresh task owns it.
type Collector struct {
	opts      BuilderOptions
	totalRows int64
	nullRows  int64
	paths     map[string]*pathAgg
}

// pathAgg accumulates one canonical key. Untyped aggregates use only
// present and nulls; typed aggregates track values exactly until the
// distinct cap, then spill new values to a cardinality sketch.
type pathAgg struct {
	present int64
	nulls   int64

	kind   ValueKind
	counts map[Value]int64

	sketch   *hyperloglog.Sketch
	tailRows int64

	// min and max stay exact across the spill: every value updates them.
	min, max Value
}

// NewCollector returns an empty collector. The options bind at
// construction because string bounds are maintained under the collation
// while documents stream in; LastUpdated is stamped at Build when unset.
func NewCollector(opts BuilderOptions) *Collector {
	if opts.Collation == nil {
		opts.Collation = DefaultCollation()
	}
	return &Collector{opts: opts, paths: make(map[string]*pathAgg)}
}

// AddDocument parses one sampled JSON document and folds its scalar
// leaves into the per-path aggregates. Scalar documents contribute a row
// but no paths. SQL NULL column values go through AddNullRow instead.
func (c *Collector) AddDocument(doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return errors.Wrap(err, "decoding document")
	}
	if dec.More() {
		return errors.Newf("trailing data after document")
	}
	c.totalRows++
	var kb jsonpath.KeyBuilder
	c.walk(&kb, root)
	return nil
}

// AddNullRow records one sampled row whose whole column is SQL NULL.
func (c *Collector) AddNullRow() {
	c.totalRows++
	c.nullRows++
}

// NumRows returns how many rows the collector has seen.
func (c *Collector) NumRows() int64 {
	return c.totalRows
}

func (c *Collector) walk(kb *jsonpath.KeyBuilder, v interface{}) {
	switch tv := v.(type) {
	case map[string]interface{}:
		for k, cv := range tv {
			kb.PushKey(k)
			c.walk(kb, cv)
			kb.Pop()
		}
	case []interface{}:
		for i, cv := range tv {
			kb.PushIndex(int64(i))
			c.walk(kb, cv)
			kb.Pop()
		}
	default:
		if kb.Depth() == 0 {
			// A whole-document scalar has no path to key on.
			return
		}
		c.record(kb, tv)
	}
}

func (c *Collector) record(kb *jsonpath.KeyBuilder, leaf interface{}) {
	uagg := c.agg(kb.Key(jsonpath.TerminalNone))
	uagg.present++
	if leaf == nil {
		uagg.nulls++
		return
	}
	val, hint := leafValue(leaf)
	if val == nil {
		return
	}
	agg := c.agg(kb.Key(hint))
	agg.present++
	agg.noteKind(val.Kind())
	if _, ok := agg.counts[val]; ok {
		agg.counts[val]++
	} else if len(agg.counts) < collectorExactDistincts {
		agg.counts[val] = 1
	} else {
		if agg.sketch == nil {
			agg.sketch = hyperloglog.New14()
		}
		agg.sketch.Insert(sketchBytes(val))
		agg.tailRows++
	}
	coll := c.opts.Collation
	if agg.min == nil || mustCompare(val, agg.min, coll) < 0 {
		agg.min = val
	}
	if agg.max == nil || mustCompare(val, agg.max, coll) > 0 {
		agg.max = val
	}
}

func (c *Collector) agg(key string) *pathAgg {
	a, ok := c.paths[key]
	if !ok {
		a = &pathAgg{counts: make(map[Value]int64)}
		c.paths[key] = a
	}
	return a
}

func (a *pathAgg) noteKind(k ValueKind) {
	switch {
	case a.kind == KindUnknown:
		a.kind = k
	case a.kind == k:
	case numericKind(a.kind) && numericKind(k):
		a.kind = KindFloat
	}
}

// leafValue maps a decoded JSON scalar to its Value and the terminal
// suffix its typed key carries.
func leafValue(leaf interface{}) (Value, jsonpath.TerminalKind) {
	switch tv := leaf.(type) {
	case json.Number:
		if strings.ContainsAny(tv.String(), ".eE") {
			if f, err := tv.Float64(); err == nil {
				return FloatVal(f), jsonpath.TerminalFloat
			}
			return nil, jsonpath.TerminalNone
		}
		if i, err := tv.Int64(); err == nil {
			return IntVal(i), jsonpath.TerminalInt
		}
		if f, err := tv.Float64(); err == nil {
			return FloatVal(f), jsonpath.TerminalFloat
		}
		return nil, jsonpath.TerminalNone
	case string:
		return StrVal(tv), jsonpath.TerminalString
	case bool:
		return BoolVal(tv), jsonpath.TerminalBool
	}
	return nil, jsonpath.TerminalNone
}

// sketchBytes serializes a value for distinct counting. Numerics hash by
// their float64 image so an integer and its float twin count once under
// the Int to Float promotion.
func sketchBytes(v Value) []byte {
	switch av := v.(type) {
	case IntVal:
		return appendNumericBytes(float64(av))
	case FloatVal:
		return appendNumericBytes(float64(av))
	case StrVal:
		buf := make([]byte, 1, 1+len(av))
		buf[0] = 's'
		return append(buf, av...)
	case BoolVal:
		if av {
			return []byte{'b', 1}
		}
		return []byte{'b', 0}
	}
	return nil
}

func appendNumericBytes(f float64) []byte {
	buf := make([]byte, 1, 9)
	buf[0] = 'n'
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
}

// Build finalizes the aggregates into an immutable histogram. The
// collector remains usable; further documents extend a later Build.
func (c *Collector) Build() (*Histogram, error) {
	if c.totalRows < 1 {
		return nil, errors.Newf("histogram requires at least one collected row")
	}
	opts := c.opts.withDefaults()
	if opts.MaxValueGramBuckets < 1 {
		return nil, errors.Newf("valuegram bucket cap %d out of range", opts.MaxValueGramBuckets)
	}
	opts.NullValues = float64(c.nullRows) / float64(c.totalRows)

	keys := make([]string, 0, len(c.paths))
	for k := range c.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]PathBucket, 0, len(keys))
	for _, key := range keys {
		a := c.paths[key]
		in := bucketInput{path: key, totalRows: c.totalRows}
		if a.kind == KindUnknown {
			// Structural aggregate: its non-null occurrences were never
			// value-tracked, which is exactly what the tail denotes.
			in.nullCount = a.nulls
			in.tailRows = a.present - a.nulls
		} else {
			in.kind = a.kind
			in.counts, in.min, in.max = a.finalizeTyped()
			in.tailRows = a.tailRows
			if a.sketch != nil {
				in.tailDistinct = int64(a.sketch.Estimate())
			}
			if in.tailRows > 0 && in.tailDistinct < 1 {
				in.tailDistinct = 1
			}
		}
		b, err := buildBucket(in, opts)
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

// finalizeTyped returns the aggregate's counts and bounds under its final
// kind, promoting integers when floats forced the Float kind.
func (a *pathAgg) finalizeTyped() (map[Value]int64, Value, Value) {
	counts, mn, mx := a.counts, a.min, a.max
	if a.kind != KindFloat {
		return counts, mn, mx
	}
	promoted := make(map[Value]int64, len(counts))
	for v, n := range counts {
		if iv, ok := v.(IntVal); ok {
			v = FloatVal(float64(iv))
		}
		promoted[v] += n
	}
	if iv, ok := mn.(IntVal); ok {
		mn = FloatVal(float64(iv))
	}
	if iv, ok := mx.(IntVal); ok {
		mx = FloatVal(float64(iv))
	}
	return promoted, mn, mx
}
