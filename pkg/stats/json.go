// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// histogramTypeName is the type tag every encoded histogram carries.
const histogramTypeName = "json-flex"

// Envelope attribute names.
const (
	typeAttr         = "histogram-type"
	nullValuesAttr   = "null-values"
	collationAttr    = "collation"
	lastUpdatedAttr  = "last-updated"
	samplingRateAttr = "sampling-rate"
	numBucketsAttr   = "number-of-buckets-specified"
	bucketsAttr      = "buckets"

	gramTypeAttr    = "type"
	gramBucketsAttr = "buckets"
	gramRestAttr    = "rest_frequency"
)

// Positions within an encoded bucket array. Optional positions are either
// all present up to a legal length or absent entirely, never null.
const (
	bucketPathIdx = iota
	bucketFrequencyIdx
	bucketNullFractionIdx
	bucketMinIdx
	bucketMaxIdx
	bucketNDVIdx
	bucketGramIdx

	bucketMaxLen = 7
)

// wireFloat marshals with an explicit fractional form (1.0, never 1), so
// that decode-side kind inference distinguishes Float from Int tokens.
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, errors.Newf("cannot encode non-finite value %v", v)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

type wireHistogram struct {
	Type         string        `json:"histogram-type"`
	NullValues   wireFloat     `json:"null-values"`
	Collation    string        `json:"collation"`
	LastUpdated  string        `json:"last-updated"`
	SamplingRate wireFloat     `json:"sampling-rate"`
	NumBuckets   int           `json:"number-of-buckets-specified"`
	Buckets      []interface{} `json:"buckets"`
}

type wireGram struct {
	Type          string          `json:"type"`
	Buckets       [][]interface{} `json:"buckets"`
	RestFrequency *wireFloat      `json:"rest_frequency,omitempty"`
}

// EncodeHistogram serializes h to its JSON wire format.
func EncodeHistogram(h *Histogram) ([]byte, error) {
	w := wireHistogram{
		Type:         histogramTypeName,
		NullValues:   wireFloat(h.nullValues),
		Collation:    h.collation.Name(),
		LastUpdated:  h.lastUpdated.UTC().Format(time.RFC3339Nano),
		SamplingRate: wireFloat(h.samplingRate),
		NumBuckets:   h.gramBucketCap,
		Buckets:      make([]interface{}, 0, len(h.buckets)),
	}
	for i := range h.buckets {
		enc, err := encodeBucket(&h.buckets[i])
		if err != nil {
			return nil, err
		}
		w.Buckets = append(w.Buckets, enc)
	}
	return json.Marshal(w)
}

func encodeBucket(b *PathBucket) ([]interface{}, error) {
	arr := make([]interface{}, 0, bucketMaxLen)
	arr = append(arr, b.Path, wireFloat(b.Frequency), wireFloat(b.NullFraction))
	if b.Kind == KindUnknown {
		return arr, nil
	}
	mn, err := encodeValue(b.Min)
	if err != nil {
		return nil, err
	}
	mx, err := encodeValue(b.Max)
	if err != nil {
		return nil, err
	}
	arr = append(arr, mn, mx)
	if b.NDV == 0 {
		return arr, nil
	}
	arr = append(arr, b.NDV)
	if b.Gram == nil {
		return arr, nil
	}
	g, err := encodeGram(b.Gram)
	if err != nil {
		return nil, err
	}
	return append(arr, g), nil
}

func encodeValue(v Value) (interface{}, error) {
	switch av := v.(type) {
	case IntVal:
		return int64(av), nil
	case FloatVal:
		return wireFloat(av), nil
	case StrVal:
		return string(av), nil
	case BoolVal:
		return bool(av), nil
	}
	return nil, errors.AssertionFailedf("cannot encode %T", v)
}

func encodeGram(g *ValueGram) (*wireGram, error) {
	w := &wireGram{
		Type:    g.Form.String(),
		Buckets: make([][]interface{}, 0, len(g.Buckets)),
	}
	for i := range g.Buckets {
		b := &g.Buckets[i]
		v, err := encodeValue(b.Value)
		if err != nil {
			return nil, err
		}
		if g.Form == EquiHeightGram {
			w.Buckets = append(w.Buckets, []interface{}{v, wireFloat(b.Frequency), b.DistinctCount})
		} else {
			w.Buckets = append(w.Buckets, []interface{}{v, wireFloat(b.Frequency)})
		}
	}
	if g.RestMeanFrequency > 0 {
		rest := wireFloat(g.RestMeanFrequency)
		w.RestFrequency = &rest
	}
	return w, nil
}

// DecodeHistogram parses and validates an encoded histogram. Any failure
// aborts the whole load; no partial histogram is returned.
func DecodeHistogram(data []byte) (*Histogram, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding histogram")
	}
	if dec.More() {
		return nil, errors.Newf("trailing data after histogram object")
	}

	typ, err := requireString(raw, typeAttr)
	if err != nil {
		return nil, err
	}
	if typ != histogramTypeName {
		return nil, errors.Mark(
			errors.Newf("histogram type %q, expected %q", typ, histogramTypeName), ErrWrongType)
	}
	nullValues, err := requireNumber(raw, nullValuesAttr)
	if err != nil {
		return nil, err
	}
	collName, err := requireString(raw, collationAttr)
	if err != nil {
		return nil, err
	}
	coll, err := MakeCollation(collName)
	if err != nil {
		return nil, err
	}
	updatedText, err := requireString(raw, lastUpdatedAttr)
	if err != nil {
		return nil, err
	}
	lastUpdated, err := time.Parse(time.RFC3339Nano, updatedText)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", lastUpdatedAttr)
	}
	samplingRate, err := requireNumber(raw, samplingRateAttr)
	if err != nil {
		return nil, err
	}
	numBuckets, err := requireInt(raw, numBucketsAttr)
	if err != nil {
		return nil, err
	}
	bucketsRaw, ok := raw[bucketsAttr]
	if !ok {
		return nil, missingAttributef(bucketsAttr)
	}
	bucketsArr, ok := bucketsRaw.([]interface{})
	if !ok {
		return nil, wrongTypef("array", jsonTypeName(bucketsRaw), bucketsAttr)
	}

	buckets := make([]PathBucket, 0, len(bucketsArr))
	for i, el := range bucketsArr {
		loc := fmt.Sprintf("buckets[%d]", i)
		arr, ok := el.([]interface{})
		if !ok {
			return nil, wrongTypef("array", jsonTypeName(el), loc)
		}
		b, err := decodeBucket(arr, loc)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}

	return makeHistogram(histogramParams{
		buckets:       buckets,
		collation:     coll,
		nullValues:    nullValues,
		samplingRate:  samplingRate,
		lastUpdated:   lastUpdated,
		gramBucketCap: int(numBuckets),
	})
}

func decodeBucket(arr []interface{}, loc string) (PathBucket, error) {
	switch len(arr) {
	case 3, 5, 6, bucketMaxLen:
	default:
		return PathBucket{}, wrongArityf("3, 5, 6 or 7", len(arr), loc)
	}
	path, ok := arr[bucketPathIdx].(string)
	if !ok {
		return PathBucket{}, wrongTypef(
			"string", jsonTypeName(arr[bucketPathIdx]), posAt(loc, bucketPathIdx))
	}
	freq, err := numberAt(arr, bucketFrequencyIdx, loc)
	if err != nil {
		return PathBucket{}, err
	}
	nullFrac, err := numberAt(arr, bucketNullFractionIdx, loc)
	if err != nil {
		return PathBucket{}, err
	}
	b := PathBucket{Path: path, Frequency: freq, NullFraction: nullFrac}
	if len(arr) < 5 {
		return b, nil
	}
	if b.Min, err = decodeValue(arr[bucketMinIdx], posAt(loc, bucketMinIdx)); err != nil {
		return PathBucket{}, err
	}
	if b.Max, err = decodeValue(arr[bucketMaxIdx], posAt(loc, bucketMaxIdx)); err != nil {
		return PathBucket{}, err
	}
	// The value kind is inferred from min's JSON token; the validation
	// gate rejects buckets whose max or gram values disagree.
	b.Kind = b.Min.Kind()
	if len(arr) < 6 {
		return b, nil
	}
	ndv, err := intAt(arr, bucketNDVIdx, loc)
	if err != nil {
		return PathBucket{}, err
	}
	if ndv < 1 {
		return PathBucket{}, errors.Newf("ndv %d out of range at %s", ndv, posAt(loc, bucketNDVIdx))
	}
	b.NDV = ndv
	if len(arr) < bucketMaxLen {
		return b, nil
	}
	gramRaw, ok := arr[bucketGramIdx].(map[string]interface{})
	if !ok {
		return PathBucket{}, wrongTypef(
			"object", jsonTypeName(arr[bucketGramIdx]), posAt(loc, bucketGramIdx))
	}
	if b.Gram, err = decodeGram(gramRaw, posAt(loc, bucketGramIdx)); err != nil {
		return PathBucket{}, err
	}
	return b, nil
}

func decodeGram(m map[string]interface{}, loc string) (*ValueGram, error) {
	typ, err := requireString(m, gramTypeAttr)
	if err != nil {
		return nil, errors.Wrapf(err, "at %s", loc)
	}
	g := &ValueGram{}
	switch typ {
	case "singleton":
		g.Form = SingletonGram
	case "equi-height":
		g.Form = EquiHeightGram
	default:
		return nil, errors.Newf("unknown valuegram type %q at %s", typ, loc)
	}
	bucketsRaw, ok := m[gramBucketsAttr]
	if !ok {
		return nil, errors.Wrapf(missingAttributef(gramBucketsAttr), "at %s", loc)
	}
	bucketsArr, ok := bucketsRaw.([]interface{})
	if !ok {
		return nil, wrongTypef("array", jsonTypeName(bucketsRaw), loc)
	}
	wantLen := 2
	if g.Form == EquiHeightGram {
		wantLen = 3
	}
	g.Buckets = make([]GramBucket, 0, len(bucketsArr))
	for i, el := range bucketsArr {
		bloc := posAt(loc+"."+gramBucketsAttr, i)
		arr, ok := el.([]interface{})
		if !ok {
			return nil, wrongTypef("array", jsonTypeName(el), bloc)
		}
		if len(arr) != wantLen {
			return nil, wrongArityf(strconv.Itoa(wantLen), len(arr), bloc)
		}
		var gb GramBucket
		if gb.Value, err = decodeValue(arr[0], posAt(bloc, 0)); err != nil {
			return nil, err
		}
		if gb.Frequency, err = numberAt(arr, 1, bloc); err != nil {
			return nil, err
		}
		if g.Form == EquiHeightGram {
			if gb.DistinctCount, err = intAt(arr, 2, bloc); err != nil {
				return nil, err
			}
		}
		g.Buckets = append(g.Buckets, gb)
	}
	if len(g.Buckets) > 0 {
		g.Kind = g.Buckets[0].Value.Kind()
	}
	if restRaw, ok := m[gramRestAttr]; ok {
		n, ok := restRaw.(json.Number)
		if !ok {
			return nil, wrongTypef("number", jsonTypeName(restRaw), loc)
		}
		if g.RestMeanFrequency, err = n.Float64(); err != nil {
			return nil, errors.Wrapf(err, "parsing %s at %s", gramRestAttr, loc)
		}
	}
	return g, nil
}

// decodeValue maps a JSON scalar token to a Value. Numbers with a
// fractional or exponent part decode as Float, as do integers too wide
// for int64; bare integers decode as Int.
func decodeValue(v interface{}, loc string) (Value, error) {
	switch av := v.(type) {
	case json.Number:
		if strings.ContainsAny(av.String(), ".eE") {
			f, err := av.Float64()
			if err != nil {
				return nil, errors.Wrapf(err, "parsing number at %s", loc)
			}
			return FloatVal(f), nil
		}
		i, err := av.Int64()
		if err != nil {
			f, ferr := av.Float64()
			if ferr != nil {
				return nil, errors.Wrapf(ferr, "parsing number at %s", loc)
			}
			return FloatVal(f), nil
		}
		return IntVal(i), nil
	case string:
		return StrVal(av), nil
	case bool:
		return BoolVal(av), nil
	}
	return nil, wrongTypef("scalar", jsonTypeName(v), loc)
}

func requireString(m map[string]interface{}, attr string) (string, error) {
	v, ok := m[attr]
	if !ok {
		return "", missingAttributef(attr)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongTypef("string", jsonTypeName(v), attr)
	}
	return s, nil
}

func requireNumber(m map[string]interface{}, attr string) (float64, error) {
	v, ok := m[attr]
	if !ok {
		return 0, missingAttributef(attr)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, wrongTypef("number", jsonTypeName(v), attr)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", attr)
	}
	return f, nil
}

func requireInt(m map[string]interface{}, attr string) (int64, error) {
	v, ok := m[attr]
	if !ok {
		return 0, missingAttributef(attr)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, wrongTypef("number", jsonTypeName(v), attr)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, wrongTypef("integer", "number", attr)
	}
	return i, nil
}

func numberAt(arr []interface{}, idx int, loc string) (float64, error) {
	n, ok := arr[idx].(json.Number)
	if !ok {
		return 0, wrongTypef("number", jsonTypeName(arr[idx]), posAt(loc, idx))
	}
	f, err := n.Float64()
	if err != nil {
		return 0, errors.Wrapf(err, "parsing number at %s", posAt(loc, idx))
	}
	return f, nil
}

func intAt(arr []interface{}, idx int, loc string) (int64, error) {
	n, ok := arr[idx].(json.Number)
	if !ok {
		return 0, wrongTypef("number", jsonTypeName(arr[idx]), posAt(loc, idx))
	}
	i, err := n.Int64()
	if err != nil {
		return 0, wrongTypef("integer", "number", posAt(loc, idx))
	}
	return i, nil
}

func posAt(loc string, idx int) string {
	return fmt.Sprintf("%s[%d]", loc, idx)
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
