// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// ValueKind tags which scalar variant a bucket's typed fields carry. A
// bucket with KindUnknown has no typed fields at all: it describes only the
// structural presence of a path.
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "string"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// SafeValue implements redact.SafeValue.
func (ValueKind) SafeValue() {}

var _ redact.SafeValue = ValueKind(0)

// numericKind reports whether k is one of the two numeric kinds.
func numericKind(k ValueKind) bool {
	return k == KindInt || k == KindFloat
}

// Value is one scalar observed at a JSON path. The variant set is closed:
// int, float, string or bool. Statistics structures declare the kind their
// values carry and never mix kinds within one structure.
type Value interface {
	Kind() ValueKind
	String() string

	value()
}

// IntVal is an integer Value.
type IntVal int64

// FloatVal is a floating-point Value.
type FloatVal float64

// StrVal is a string Value.
type StrVal string

// BoolVal is a boolean Value.
type BoolVal bool

func (IntVal) value()   {}
func (FloatVal) value() {}
func (StrVal) value()   {}
func (BoolVal) value()  {}

func (IntVal) Kind() ValueKind   { return KindInt }
func (FloatVal) Kind() ValueKind { return KindFloat }
func (StrVal) Kind() ValueKind   { return KindStr }
func (BoolVal) Kind() ValueKind  { return KindBool }

func (v IntVal) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v FloatVal) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v StrVal) String() string   { return strconv.Quote(string(v)) }
func (v BoolVal) String() string  { return strconv.FormatBool(bool(v)) }

// comparableKinds reports whether values of kind a can be ordered against
// values of kind b: matching kinds always, and the two numeric kinds against
// each other.
func comparableKinds(a, b ValueKind) bool {
	if a == b {
		return a != KindUnknown
	}
	return numericKind(a) && numericKind(b)
}

// compareValues orders a against b: -1, 0 or +1. Int and Float compare
// numerically; strings compare under coll. Any other kind mix is an
// internal error; callers check comparableKinds first.
func compareValues(a, b Value, coll *Collation) (int, error) {
	switch av := a.(type) {
	case IntVal:
		switch bv := b.(type) {
		case IntVal:
			return cmp.Compare(int64(av), int64(bv)), nil
		case FloatVal:
			return cmp.Compare(float64(av), float64(bv)), nil
		}
	case FloatVal:
		switch bv := b.(type) {
		case IntVal:
			return cmp.Compare(float64(av), float64(bv)), nil
		case FloatVal:
			return cmp.Compare(float64(av), float64(bv)), nil
		}
	case StrVal:
		if bv, ok := b.(StrVal); ok {
			return coll.CompareStrings(string(av), string(bv)), nil
		}
	case BoolVal:
		if bv, ok := b.(BoolVal); ok {
			switch {
			case bool(av) == bool(bv):
				return 0, nil
			case !bool(av):
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	return 0, errors.AssertionFailedf("cannot compare %v value against %v value", a.Kind(), b.Kind())
}

// mustCompare is compareValues for callers that have already established
// kind compatibility.
func mustCompare(a, b Value, coll *Collation) int {
	c, err := compareValues(a, b, coll)
	if err != nil {
		panic(err)
	}
	return c
}

// cloneValue returns a copy of v owning its own storage. Only strings carry
// heap storage; the other variants are plain scalars.
func cloneValue(v Value) Value {
	if sv, ok := v.(StrVal); ok {
		return StrVal(strings.Clone(string(sv)))
	}
	return v
}

// valueMemSize approximates the in-memory footprint of v in bytes.
func valueMemSize(v Value) int64 {
	switch sv := v.(type) {
	case nil:
		return 0
	case StrVal:
		return strSize + int64(len(sv))
	default:
		return wordSize
	}
}
