// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"math"
	"testing"
)

func floatNear(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSingletonGramScan(t *testing.T) {
	g := &ValueGram{
		Form: SingletonGram,
		Kind: KindInt,
		Buckets: []GramBucket{
			{Value: IntVal(1), Frequency: 0.2},
			{Value: IntVal(5), Frequency: 0.3},
			{Value: IntVal(9), Frequency: 0.5},
		},
	}
	const base = 0.8
	testCases := []struct {
		v          Value
		eq, lt, gt float64
	}{
		{v: IntVal(1), eq: 0.16, lt: 0, gt: 0.64},
		{v: IntVal(5), eq: 0.24, lt: 0.16, gt: 0.4},
		{v: IntVal(9), eq: 0.4, lt: 0.4, gt: 0},
		// Misses: between entries, below the first, above the last.
		{v: IntVal(3), eq: 0, lt: 0.16, gt: 0.64},
		{v: IntVal(0), eq: 0, lt: 0, gt: 0.8},
		{v: IntVal(12), eq: 0, lt: 0.8, gt: 0},
	}
	for _, tc := range testCases {
		est, err := g.scan(tc.v, base, nil)
		if err != nil {
			t.Fatalf("scan(%v): %v", tc.v, err)
		}
		if !floatNear(est.eq, tc.eq) || !floatNear(est.lt, tc.lt) || !floatNear(est.gt, tc.gt) {
			t.Errorf("scan(%v) = (%v, %v, %v), expected (%v, %v, %v)",
				tc.v, est.eq, est.lt, est.gt, tc.eq, tc.lt, tc.gt)
		}
	}
}

// An exact singleton hit must account for every row: the three estimates
// partition base.
func TestSingletonGramScanPartitionsBase(t *testing.T) {
	g := &ValueGram{
		Form: SingletonGram,
		Kind: KindStr,
		Buckets: []GramBucket{
			{Value: StrVal("ash"), Frequency: 0.25},
			{Value: StrVal("birch"), Frequency: 0.5},
			{Value: StrVal("cedar"), Frequency: 0.25},
		},
	}
	const base = 0.6
	for _, b := range g.Buckets {
		est, err := g.scan(b.Value, base, nil)
		if err != nil {
			t.Fatalf("scan(%v): %v", b.Value, err)
		}
		if sum := est.eq + est.lt + est.gt; !floatNear(sum, base) {
			t.Errorf("scan(%v): eq+lt+gt = %v, expected %v", b.Value, sum, base)
		}
	}
}

func TestSingletonGramScanRestFrequency(t *testing.T) {
	g := &ValueGram{
		Form: SingletonGram,
		Kind: KindStr,
		Buckets: []GramBucket{
			{Value: StrVal("alpha"), Frequency: 0.4},
			{Value: StrVal("delta"), Frequency: 0.4},
		},
		RestMeanFrequency: 0.01,
	}
	const base = 0.5
	est, err := g.scan(StrVal("caspian"), base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !floatNear(est.eq, base*0.01) {
		t.Errorf("tail eq = %v, expected %v", est.eq, base*0.01)
	}
	if !floatNear(est.lt, base*0.4) || !floatNear(est.gt, base*0.6) {
		t.Errorf("tail lt/gt = %v/%v, expected %v/%v", est.lt, est.gt, base*0.4, base*0.6)
	}
	// A listed value ignores the rest frequency.
	est, err = g.scan(StrVal("delta"), base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !floatNear(est.eq, base*0.4) {
		t.Errorf("listed eq = %v, expected %v", est.eq, base*0.4)
	}
}

func TestSingletonGramScanCollated(t *testing.T) {
	coll, err := MakeCollation("utf8mb4_0900_ai_ci")
	if err != nil {
		t.Fatal(err)
	}
	g := &ValueGram{
		Form: SingletonGram,
		Kind: KindStr,
		Buckets: []GramBucket{
			{Value: StrVal("Apple"), Frequency: 0.5},
			{Value: StrVal("banana"), Frequency: 0.5},
		},
	}
	est, err := g.scan(StrVal("BANANA"), 1.0, coll)
	if err != nil {
		t.Fatal(err)
	}
	if !floatNear(est.eq, 0.5) {
		t.Errorf("case-insensitive eq = %v, expected 0.5", est.eq)
	}
}

func TestEquiHeightGramScan(t *testing.T) {
	g := &ValueGram{
		Form: EquiHeightGram,
		Kind: KindFloat,
		Buckets: []GramBucket{
			{Value: FloatVal(10), Frequency: 0.4, DistinctCount: 4},
			{Value: FloatVal(20), Frequency: 0.6, DistinctCount: 3},
		},
	}
	const base = 0.5
	testCases := []struct {
		v          Value
		eq, lt, gt float64
	}{
		// Inside the first bucket, on its upper bound, inside the second,
		// above everything.
		{v: FloatVal(5), eq: base * 0.4 / 4, lt: base * 0.4, gt: base * 0.6},
		{v: FloatVal(10), eq: base * 0.4 / 4, lt: base * 0.4, gt: base * 0.6},
		{v: FloatVal(15), eq: base * 0.6 / 3, lt: base, gt: 0},
		{v: FloatVal(25), eq: 0, lt: base, gt: 0},
	}
	for _, tc := range testCases {
		est, err := g.scan(tc.v, base, nil)
		if err != nil {
			t.Fatalf("scan(%v): %v", tc.v, err)
		}
		if !floatNear(est.eq, tc.eq) || !floatNear(est.lt, tc.lt) || !floatNear(est.gt, tc.gt) {
			t.Errorf("scan(%v) = (%v, %v, %v), expected (%v, %v, %v)",
				tc.v, est.eq, est.lt, est.gt, tc.eq, tc.lt, tc.gt)
		}
	}
}

func TestValueGramValidate(t *testing.T) {
	testCases := []struct {
		name string
		kind ValueKind
		g    *ValueGram
		ok   bool
	}{
		{
			name: "valid singleton",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 0.5},
				{Value: IntVal(2), Frequency: 0.5},
			}},
			ok: true,
		},
		{
			name: "valid equi-height",
			kind: KindFloat,
			g: &ValueGram{Form: EquiHeightGram, Kind: KindFloat, Buckets: []GramBucket{
				{Value: FloatVal(1), Frequency: 0.5, DistinctCount: 2},
				{Value: FloatVal(2), Frequency: 0.5, DistinctCount: 1},
			}},
			ok: true,
		},
		{
			name: "kind mismatch with bucket",
			kind: KindStr,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 0.5},
			}},
		},
		{
			name: "no buckets",
			kind: KindInt,
			g:    &ValueGram{Form: SingletonGram, Kind: KindInt},
		},
		{
			name: "equi-height over strings",
			kind: KindStr,
			g: &ValueGram{Form: EquiHeightGram, Kind: KindStr, Buckets: []GramBucket{
				{Value: StrVal("a"), Frequency: 1, DistinctCount: 1},
			}},
		},
		{
			name: "equi-height with rest frequency",
			kind: KindInt,
			g: &ValueGram{Form: EquiHeightGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 1, DistinctCount: 1},
			}, RestMeanFrequency: 0.1},
		},
		{
			name: "equi-height without distinct count",
			kind: KindInt,
			g: &ValueGram{Form: EquiHeightGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 1},
			}},
		},
		{
			name: "singleton with distinct count",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 1, DistinctCount: 1},
			}},
		},
		{
			name: "wrong value kind in bucket",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: StrVal("1"), Frequency: 1},
			}},
		},
		{
			name: "out of order",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(2), Frequency: 0.5},
				{Value: IntVal(1), Frequency: 0.5},
			}},
		},
		{
			name: "frequency out of range",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 1.5},
			}},
		},
		{
			name: "frequencies sum above one",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 0.7},
				{Value: IntVal(2), Frequency: 0.7},
			}},
		},
		{
			name: "rest frequency out of range",
			kind: KindInt,
			g: &ValueGram{Form: SingletonGram, Kind: KindInt, Buckets: []GramBucket{
				{Value: IntVal(1), Frequency: 0.5},
			}, RestMeanFrequency: 1.5},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.g.validate(tc.kind, nil, "test")
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Errorf("expected error, got none")
			}
		})
	}
}

func TestValueGramClone(t *testing.T) {
	g := &ValueGram{
		Form: SingletonGram,
		Kind: KindStr,
		Buckets: []GramBucket{
			{Value: StrVal("x"), Frequency: 0.5},
		},
		RestMeanFrequency: 0.1,
	}
	c := g.clone()
	c.Buckets[0] = GramBucket{Value: StrVal("y"), Frequency: 0.9}
	if got := g.Buckets[0].Value.(StrVal); got != "x" {
		t.Errorf("clone mutation leaked into original: %v", got)
	}
	if (*ValueGram)(nil).clone() != nil {
		t.Error("nil clone should stay nil")
	}
}
