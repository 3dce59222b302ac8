// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"fmt"
	"testing"

	"github.com/jonaengs/jsonflex/pkg/jsonpath"
)

func addDocs(t *testing.T, c *Collector, docs ...string) {
	t.Helper()
	for _, doc := range docs {
		if err := c.AddDocument([]byte(doc)); err != nil {
			t.Fatalf("adding %s: %v", doc, err)
		}
	}
}

func TestCollectorBuild(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c,
		`{"user": {"age": 30, "name": "ann"}, "tags": ["a", "b"]}`,
		`{"user": {"age": 40, "name": "bob"}, "tags": ["a"]}`,
		`{"user": {"age": null}}`,
		`17`,
	)
	c.AddNullRow()
	if c.NumRows() != 5 {
		t.Fatalf("NumRows() = %d, expected 5", c.NumRows())
	}
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if h.NullValues() != 0.2 {
		t.Errorf("NullValues() = %v, expected 0.2", h.NullValues())
	}
	if h.NumBuckets() != 8 {
		for i := 0; i < h.NumBuckets(); i++ {
			t.Logf("bucket: %+v", h.Bucket(i))
		}
		t.Fatalf("NumBuckets() = %d, expected 8", h.NumBuckets())
	}

	// The typed aggregate sees only the non-null occurrences.
	age := h.findBucket("user_obj.age_num")
	if age == nil {
		t.Fatal("no user_obj.age_num bucket")
	}
	if age.Frequency != 0.4 || age.NullFraction != 0 {
		t.Errorf("age_num frequency/null = %v/%v, expected 0.4/0", age.Frequency, age.NullFraction)
	}
	if age.Kind != KindInt || age.Min.(IntVal) != 30 || age.Max.(IntVal) != 40 || age.NDV != 2 {
		t.Errorf("age_num = %+v", age)
	}
	if age.Gram == nil || age.Gram.NumBuckets() != 2 || age.Gram.Buckets[0].Frequency != 0.5 {
		t.Errorf("age_num gram = %+v", age.Gram)
	}

	// The untyped aggregate also counts the JSON null occurrence.
	ageStruct := h.findBucket("user_obj.age")
	if ageStruct == nil {
		t.Fatal("no user_obj.age bucket")
	}
	if ageStruct.Frequency != 0.6 || !floatNear(ageStruct.NullFraction, 1.0/3) {
		t.Errorf("age frequency/null = %v/%v, expected 0.6 and 1/3",
			ageStruct.Frequency, ageStruct.NullFraction)
	}
	if ageStruct.Kind != KindUnknown || ageStruct.Gram != nil {
		t.Errorf("age = %+v, expected structural only", ageStruct)
	}

	// Array positions key separately.
	if b := h.findBucket("tags_arr.0_str"); b == nil || b.Frequency != 0.4 || b.NDV != 1 {
		t.Errorf("tags_arr.0_str = %+v", b)
	}
	if b := h.findBucket("tags_arr.1_str"); b == nil || b.Frequency != 0.2 {
		t.Errorf("tags_arr.1_str = %+v", b)
	}
	if h.MinFrequency() != 0.2 {
		t.Errorf("MinFrequency() = %v, expected 0.2", h.MinFrequency())
	}

	// End to end: the keys the collector built are the keys predicates
	// resolve to.
	sel, err := h.EstimateSelectivity(Predicate{
		Func: FuncExtract, Path: "$.user.age", Op: OpEQ, Args: []Value{IntVal(30)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sel != 0.2 {
		t.Errorf("$.user.age = 30 estimated %v, expected 0.2", sel)
	}
	sel, err = h.EstimateSelectivity(Predicate{
		Func: FuncExtract, Path: "$.user.age", Op: OpIsNull,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !floatNear(sel, 0.6) {
		t.Errorf("$.user.age IS NULL estimated %v, expected 0.6", sel)
	}
}

func TestCollectorKeysMatchCanonicalize(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `{"a": {"b": [{"c": 1}]}}`)
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	key, err := jsonpath.Canonicalize("$.a.b[0].c", jsonpath.TerminalInt)
	if err != nil {
		t.Fatal(err)
	}
	if h.findBucket(key) == nil {
		t.Errorf("no bucket under %q", key)
	}
}

// Int and float leaves at one path share a typed key and promote to float.
func TestCollectorNumericPromotion(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `{"x": 1}`, `{"x": 2.5}`)
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	b := h.findBucket("x_num")
	if b == nil {
		t.Fatal("no x_num bucket")
	}
	if b.Kind != KindFloat {
		t.Errorf("kind = %v, expected float", b.Kind)
	}
	if b.Min.(FloatVal) != 1 || b.Max.(FloatVal) != 2.5 {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
}

// Leaves of unrelated kinds at one path split into per-kind typed buckets
// under one shared structural bucket.
func TestCollectorMixedKindsSplit(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `{"x": 1}`, `{"x": "one"}`)
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if b := h.findBucket("x"); b == nil || b.Frequency != 1.0 {
		t.Errorf("x = %+v", b)
	}
	if b := h.findBucket("x_num"); b == nil || b.Frequency != 0.5 || b.Kind != KindInt {
		t.Errorf("x_num = %+v", b)
	}
	if b := h.findBucket("x_str"); b == nil || b.Frequency != 0.5 || b.Kind != KindStr {
		t.Errorf("x_str = %+v", b)
	}
}

func TestCollectorBoolPath(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `{"flag": true}`, `{"flag": true}`, `{"flag": false}`, `{"flag": null}`)
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	b := h.findBucket("flag_bool")
	if b == nil {
		t.Fatal("no flag_bool bucket")
	}
	if b.Frequency != 0.75 || b.NDV != 2 {
		t.Errorf("flag_bool = %+v", b)
	}
	if b.Min.(BoolVal) != false || b.Max.(BoolVal) != true {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	g := b.Gram
	if g == nil || g.NumBuckets() != 2 {
		t.Fatalf("gram = %+v", g)
	}
	if g.Buckets[0].Value.(BoolVal) != false || !floatNear(g.Buckets[0].Frequency, 1.0/3) {
		t.Errorf("gram bucket 0 = %+v", g.Buckets[0])
	}
	u := h.findBucket("flag")
	if u == nil || u.Frequency != 1.0 || u.NullFraction != 0.25 {
		t.Errorf("flag = %+v", u)
	}
}

// Scalar and empty-container documents contribute rows but no paths.
func TestCollectorDocumentsWithoutPaths(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `42`, `"hello"`, `{}`, `[]`, `null`)
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if h.NumBuckets() != 0 {
		t.Errorf("NumBuckets() = %d, expected 0", h.NumBuckets())
	}
	if c.NumRows() != 5 {
		t.Errorf("NumRows() = %d, expected 5", c.NumRows())
	}
	if h.MinFrequency() != 1.0 {
		t.Errorf("MinFrequency() = %v, expected 1.0", h.MinFrequency())
	}
}

func TestCollectorRejectsBadDocuments(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	if err := c.AddDocument([]byte(`{"a": `)); err == nil {
		t.Error("truncated document accepted")
	}
	if err := c.AddDocument([]byte(`{} {}`)); err == nil {
		t.Error("trailing data accepted")
	}
	// Rejected documents do not count as rows.
	if c.NumRows() != 0 {
		t.Errorf("NumRows() = %d after rejected documents", c.NumRows())
	}
	if _, err := c.Build(); err == nil {
		t.Error("Build succeeded over zero rows")
	}
}

// Past the exact-tracking cap, new distinct values spill to the
// cardinality sketch: ndv stays near the truth and the valuegram folds
// the tail into a rest frequency.
func TestCollectorSketchSpill(t *testing.T) {
	const n = 5000
	c := NewCollector(BuilderOptions{})
	for i := 0; i < n; i++ {
		if err := c.AddDocument([]byte(fmt.Sprintf(`{"v": %d}`, i))); err != nil {
			t.Fatal(err)
		}
	}
	h, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	b := h.findBucket("v_num")
	if b == nil {
		t.Fatal("no v_num bucket")
	}
	if b.Frequency != 1.0 {
		t.Errorf("frequency = %v, expected 1.0", b.Frequency)
	}
	// The estimate carries sketch error; allow a few percent.
	if b.NDV < 4800 || b.NDV > 5200 {
		t.Errorf("NDV = %d, expected about %d", b.NDV, n)
	}
	// Bounds stay exact across the spill.
	if b.Min.(IntVal) != 0 || b.Max.(IntVal) != n-1 {
		t.Errorf("bounds = %v..%v, expected 0..%d", b.Min, b.Max, n-1)
	}
	g := b.Gram
	if g == nil || g.Form != SingletonGram {
		t.Fatalf("gram = %+v", g)
	}
	if g.NumBuckets() != defaultMaxValueGramBuckets {
		t.Errorf("gram buckets = %d, expected %d", g.NumBuckets(), defaultMaxValueGramBuckets)
	}
	if g.RestMeanFrequency <= 0 {
		t.Errorf("rest frequency = %v, expected positive", g.RestMeanFrequency)
	}
}

// Building does not consume the collector: more documents extend the next
// build.
func TestCollectorIncrementalBuilds(t *testing.T) {
	c := NewCollector(BuilderOptions{})
	addDocs(t, c, `{"x": 1}`)
	h1, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	addDocs(t, c, `{"x": 2}`, `{"y": "a"}`)
	h2, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if h1.NumBuckets() != 2 || h2.NumBuckets() != 4 {
		t.Errorf("buckets = %d then %d, expected 2 then 4", h1.NumBuckets(), h2.NumBuckets())
	}
	if b := h2.findBucket("x_num"); b == nil || !floatNear(b.Frequency, 2.0/3) || b.NDV != 2 {
		t.Errorf("x_num after second build = %+v", b)
	}
	// The first histogram is unaffected by later documents.
	if b := h1.findBucket("x_num"); b == nil || b.Frequency != 1.0 || b.NDV != 1 {
		t.Errorf("first histogram changed: %+v", b)
	}
}
