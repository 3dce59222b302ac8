// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/jsonpath"
)

// EstimateSelectivity estimates the fraction of rows satisfying pred, in
// [0,1]. Predicates the estimator cannot model return
// ErrUnsupportedPredicate and malformed paths return
// jsonpath.ErrMalformedPath; the planner treats both as "use a generic
// default", never as fatal.
func (h *Histogram) EstimateSelectivity(pred Predicate) (float64, error) {
	if err := pred.checkShape(); err != nil {
		return 0, err
	}
	key, err := jsonpath.Canonicalize(pred.Path, pred.typeHint())
	if err != nil {
		return 0, err
	}
	if pred.Op == OpBetween || pred.Op == OpNotBetween {
		lo, hi := pred.Args[0], pred.Args[1]
		if lo != nil && hi != nil && mustCompare(lo, hi, h.collation) > 0 {
			return 0, unsupportedf("range comparands out of order: %v above %v", lo, hi)
		}
	}
	var sel float64
	if b := h.lookupBucket(key); b != nil {
		sel, err = h.estimateBucket(b, pred)
		if err != nil {
			return 0, err
		}
	} else {
		sel = h.estimateUnseen(pred)
	}
	return min(max(sel, 0), 1), nil
}

func (h *Histogram) estimateBucket(b *PathBucket, pred Predicate) (float64, error) {
	switch pred.Op {
	case OpIsNotNull:
		return b.Frequency, nil
	case OpIsNull:
		return 1 - b.base(), nil
	case OpEQ:
		return h.estimateEq(b, firstArg(pred))
	case OpNE:
		eq, err := h.estimateEq(b, firstArg(pred))
		if err != nil {
			return 0, err
		}
		return b.base() - eq, nil
	case OpLT, OpLE:
		return h.estimateLess(b, firstArg(pred))
	case OpGT, OpGE:
		return h.estimateGreater(b, firstArg(pred))
	case OpBetween:
		return h.estimateBetween(b, pred.Args[0], pred.Args[1])
	case OpNotBetween:
		bt, err := h.estimateBetween(b, pred.Args[0], pred.Args[1])
		if err != nil {
			return 0, err
		}
		return b.base() - bt, nil
	case OpInList:
		return h.estimateInList(b, pred.Args)
	case OpNotInList:
		in, err := h.estimateInList(b, pred.Args)
		if err != nil {
			return 0, err
		}
		return b.base() - in, nil
	}
	return 0, errors.AssertionFailedf("operator %v past shape check", pred.Op)
}

// estimateUnseen handles paths the histogram never observed. Every result
// derives from minFrequency alone: the path is assumed at most as common
// as the rarest path the histogram did see. Comparand values are
// deliberately ignored.
func (h *Histogram) estimateUnseen(pred Predicate) float64 {
	mf := h.minFrequency
	switch pred.Op {
	case OpIsNotNull:
		return mf
	case OpIsNull:
		return 1 - mf*missingPathNotNullFactor
	case OpEQ:
		return mf * defaultEqSelectivity
	case OpNE:
		return mf - mf*defaultEqSelectivity
	case OpLT, OpLE, OpGT, OpGE:
		return mf * defaultRangeSelectivity
	case OpBetween:
		return mf * defaultBetweenSelectivity
	case OpNotBetween:
		return mf*missingPathNotNullFactor - mf*defaultBetweenSelectivity
	case OpInList:
		return h.unseenInList(len(pred.Args))
	case OpNotInList:
		return mf*missingPathNotNullFactor - h.unseenInList(len(pred.Args))
	}
	return mf
}

func (h *Histogram) unseenInList(n int) float64 {
	mf := h.minFrequency
	return min(mf, float64(n)*mf*defaultEqSelectivity)
}

func (h *Histogram) estimateEq(b *PathBucket, v Value) (float64, error) {
	base := b.base()
	cv, ok := coerceComparand(b, v)
	if !ok {
		return base * defaultEqSelectivity, nil
	}
	if b.Gram != nil {
		est, err := b.Gram.scan(cv, base, h.collation)
		if err != nil {
			return 0, err
		}
		return est.eq, nil
	}
	if b.NDV > 0 {
		return base / float64(b.NDV), nil
	}
	return base * defaultEqSelectivity, nil
}

func (h *Histogram) estimateLess(b *PathBucket, v Value) (float64, error) {
	base := b.base()
	cv, ok := coerceComparand(b, v)
	if !ok {
		return base * defaultRangeSelectivity, nil
	}
	if b.Kind == KindBool {
		// Orderings over booleans contribute nothing by convention.
		return 0, nil
	}
	c, err := compareValues(cv, b.Min, h.collation)
	if err != nil {
		return 0, err
	}
	if c < 0 {
		return 0, nil
	}
	c, err = compareValues(cv, b.Max, h.collation)
	if err != nil {
		return 0, err
	}
	if c > 0 {
		return base, nil
	}
	if b.Gram == nil {
		return base * defaultRangeSelectivity, nil
	}
	est, err := b.Gram.scan(cv, base, h.collation)
	if err != nil {
		return 0, err
	}
	return est.lt, nil
}

func (h *Histogram) estimateGreater(b *PathBucket, v Value) (float64, error) {
	base := b.base()
	cv, ok := coerceComparand(b, v)
	if !ok {
		return base * defaultRangeSelectivity, nil
	}
	if b.Kind == KindBool {
		return 0, nil
	}
	c, err := compareValues(cv, b.Max, h.collation)
	if err != nil {
		return 0, err
	}
	if c > 0 {
		return 0, nil
	}
	c, err = compareValues(cv, b.Min, h.collation)
	if err != nil {
		return 0, err
	}
	if c < 0 {
		return base, nil
	}
	if b.Gram == nil {
		return base * defaultRangeSelectivity, nil
	}
	est, err := b.Gram.scan(cv, base, h.collation)
	if err != nil {
		return 0, err
	}
	return est.gt, nil
}

// estimateBetween composes the single-ended estimates so that
// between(lo, hi) = base - less_than(lo) - greater_than(hi) holds for any
// bucket by construction.
func (h *Histogram) estimateBetween(b *PathBucket, lo, hi Value) (float64, error) {
	lt, err := h.estimateLess(b, lo)
	if err != nil {
		return 0, err
	}
	gt, err := h.estimateGreater(b, hi)
	if err != nil {
		return 0, err
	}
	return max(b.base()-lt-gt, 0), nil
}

func (h *Histogram) estimateInList(b *PathBucket, args []Value) (float64, error) {
	var sum float64
	for _, a := range args {
		eq, err := h.estimateEq(b, a)
		if err != nil {
			return 0, err
		}
		sum += eq
	}
	// The per-value estimates assume independence and can overshoot badly
	// for long lists; the path's total frequency is a hard ceiling.
	return min(b.Frequency, sum), nil
}

func firstArg(pred Predicate) Value {
	if len(pred.Args) > 0 {
		return pred.Args[0]
	}
	return nil
}

// coerceComparand aligns v with the bucket's value kind. Integer
// comparands widen to float against Float buckets; integral floats narrow
// against Int buckets, while fractional floats stay floats so they order
// correctly but never match an integer exactly. A false return means the
// comparand cannot use the bucket's typed statistics at all.
func coerceComparand(b *PathBucket, v Value) (Value, bool) {
	if v == nil || b.Kind == KindUnknown {
		return nil, false
	}
	switch b.Kind {
	case KindInt:
		switch av := v.(type) {
		case IntVal:
			return av, true
		case FloatVal:
			if f := float64(av); f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
				return IntVal(int64(f)), true
			}
			return av, true
		}
	case KindFloat:
		switch av := v.(type) {
		case IntVal:
			return FloatVal(float64(av)), true
		case FloatVal:
			return av, true
		}
	case KindStr:
		if av, ok := v.(StrVal); ok {
			return av, true
		}
	case KindBool:
		if av, ok := v.(BoolVal); ok {
			return av, true
		}
	}
	return nil, false
}
