// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// GramForm distinguishes the two valuegram representations.
type GramForm int

const (
	// SingletonGram lists the most frequent values individually, optionally
	// with a mean frequency for the unlisted tail.
	SingletonGram GramForm = iota
	// EquiHeightGram partitions the value domain into ranges of roughly
	// equal row count, keyed by inclusive upper bound.
	EquiHeightGram
)

// String returns the form's wire name.
func (f GramForm) String() string {
	switch f {
	case SingletonGram:
		return "singleton"
	case EquiHeightGram:
		return "equi-height"
	}
	return fmt.Sprintf("GramForm(%d)", int(f))
}

// SafeValue implements the redact.SafeValue interface.
func (GramForm) SafeValue() {}

var _ redact.SafeValue = GramForm(0)

// GramBucket is one entry of a ValueGram. In a singleton gram, Value is one
// of the individually listed values and DistinctCount is unused (zero). In
// an equi-height gram, Value is the bucket's inclusive upper bound and
// DistinctCount is the number of distinct input values folded into the
// bucket.
type GramBucket struct {
	Value         Value
	Frequency     float64
	DistinctCount int64
}

// ValueGram is the nested histogram over the values observed at one path.
// Bucket frequencies are fractions of the parent path bucket's non-null
// share, not of the whole table; the owning bucket's base scales them back
// to absolute selectivities during a scan.
type ValueGram struct {
	Form GramForm

	// Kind is the scalar kind of every bucket value. It always matches the
	// owning PathBucket's kind.
	Kind ValueKind

	// Buckets are sorted ascending by value under the histogram's
	// collation. Collation-equal values may appear as separate entries.
	Buckets []GramBucket

	// RestMeanFrequency is the mean frequency attributed to each value a
	// singleton gram does not list individually. Zero means the listed
	// buckets cover the whole observed domain.
	RestMeanFrequency float64
}

// NumBuckets returns the number of gram buckets.
func (g *ValueGram) NumBuckets() int {
	return len(g.Buckets)
}

// gramEstimate carries the three selectivities a single ascending scan
// produces, already scaled to absolute row fractions by the parent
// bucket's base.
type gramEstimate struct {
	eq float64
	lt float64
	gt float64
}

// scan walks the buckets in ascending order and derives the equality,
// less-than and greater-than selectivities for v in one pass. base is the
// parent bucket's non-null row share. Callers have already coerced v to the
// gram's kind.
func (g *ValueGram) scan(v Value, base float64, coll *Collation) (gramEstimate, error) {
	var cum float64
	switch g.Form {
	case SingletonGram:
		for i := range g.Buckets {
			b := &g.Buckets[i]
			c, err := compareValues(v, b.Value, coll)
			if err != nil {
				return gramEstimate{}, err
			}
			if c == 0 {
				return gramEstimate{
					eq: base * b.Frequency,
					lt: base * cum,
					gt: base * (1 - (cum + b.Frequency)),
				}, nil
			}
			if c < 0 {
				break
			}
			cum += b.Frequency
		}
		// v is not listed: it is either part of the tail the rest frequency
		// models or absent from the sample entirely.
		return gramEstimate{
			eq: base * g.RestMeanFrequency,
			lt: base * cum,
			gt: base * (1 - cum),
		}, nil

	case EquiHeightGram:
		for i := range g.Buckets {
			b := &g.Buckets[i]
			c, err := compareValues(v, b.Value, coll)
			if err != nil {
				return gramEstimate{}, err
			}
			cum += b.Frequency
			if c <= 0 {
				// v falls in this bucket. Values are assumed uniformly
				// distributed over the bucket's distinct values.
				return gramEstimate{
					eq: base * b.Frequency / float64(b.DistinctCount),
					lt: base * cum,
					gt: base * (1 - cum),
				}, nil
			}
		}
		// v is above every upper bound.
		return gramEstimate{lt: base * cum, gt: base * (1 - cum)}, nil
	}
	return gramEstimate{}, errors.AssertionFailedf("unknown valuegram form %d", g.Form)
}

// validate checks the gram's structural invariants against the owning
// bucket's kind. location names the owning path for error messages.
func (g *ValueGram) validate(kind ValueKind, coll *Collation, location string) error {
	if g.Kind != kind {
		return errors.Newf(
			"valuegram kind %v does not match bucket kind %v at %s", g.Kind, kind, location)
	}
	if len(g.Buckets) == 0 {
		return errors.Newf("valuegram with no buckets at %s", location)
	}
	switch g.Form {
	case SingletonGram:
	case EquiHeightGram:
		if g.Kind == KindStr || g.Kind == KindBool {
			return errors.Newf("equi-height valuegram over %v values at %s", g.Kind, location)
		}
		if g.RestMeanFrequency != 0 {
			return errors.Newf("rest frequency on an equi-height valuegram at %s", location)
		}
	default:
		return errors.Newf("unknown valuegram form %d at %s", g.Form, location)
	}
	if g.RestMeanFrequency < 0 || g.RestMeanFrequency > 1 {
		return errors.Newf(
			"rest frequency %v out of range at %s", g.RestMeanFrequency, location)
	}
	var sum float64
	for i := range g.Buckets {
		b := &g.Buckets[i]
		if b.Value == nil || b.Value.Kind() != g.Kind {
			return errors.Newf("valuegram bucket %d is not a %v value at %s", i, g.Kind, location)
		}
		if b.Frequency < 0 || b.Frequency > 1 {
			return errors.Newf(
				"valuegram bucket %d frequency %v out of range at %s", i, b.Frequency, location)
		}
		switch g.Form {
		case SingletonGram:
			if b.DistinctCount != 0 {
				return errors.Newf(
					"distinct count on singleton valuegram bucket %d at %s", i, location)
			}
		case EquiHeightGram:
			if b.DistinctCount < 1 {
				return errors.Newf(
					"equi-height valuegram bucket %d requires distinctCount > 0 at %s", i, location)
			}
		}
		if i > 0 {
			c, err := compareValues(g.Buckets[i-1].Value, b.Value, coll)
			if err != nil {
				return err
			}
			if c > 0 {
				return errors.Newf("valuegram buckets out of order at %s", location)
			}
		}
		sum += b.Frequency
	}
	if sum > 1+epsilon {
		return errors.Newf("valuegram frequencies sum to %v at %s", sum, location)
	}
	return nil
}

// clone returns a deep copy sharing no storage with the receiver.
func (g *ValueGram) clone() *ValueGram {
	if g == nil {
		return nil
	}
	out := &ValueGram{
		Form:              g.Form,
		Kind:              g.Kind,
		Buckets:           make([]GramBucket, len(g.Buckets)),
		RestMeanFrequency: g.RestMeanFrequency,
	}
	for i := range g.Buckets {
		out.Buckets[i] = g.Buckets[i]
		out.Buckets[i].Value = cloneValue(g.Buckets[i].Value)
	}
	return out
}
