// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package jsonpath

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/redact"
)

// Canonical keys flatten a path into a single string. The separator written
// before a segment names the container kind of the value the previous
// segment addressed: bracket access means the previous value is an array,
// member access means it is an object. This keeps the same identifier at
// different structural positions under distinct keys. A terminal-type
// suffix, when known, distinguishes the scalar type extracted at the path.
const (
	arraySeparator  = "_arr."
	objectSeparator = "_obj."

	numericSuffix = "_num"
	stringSuffix  = "_str"
	booleanSuffix = "_bool"
)

// TerminalKind is an optional hint describing the scalar type a path
// extraction is known to produce. Int and Float share one suffix: JSON
// numeric literals are not reliably distinguishable at the source level.
type TerminalKind int

const (
	// TerminalNone means the extraction could not be proven to target one
	// scalar type; the canonical key carries no suffix and addresses the
	// path in an untyped, structural sense.
	TerminalNone TerminalKind = iota
	TerminalInt
	TerminalFloat
	TerminalString
	TerminalBool
)

func (k TerminalKind) String() string {
	switch k {
	case TerminalInt:
		return "int"
	case TerminalFloat:
		return "float"
	case TerminalString:
		return "string"
	case TerminalBool:
		return "bool"
	}
	return "none"
}

// SafeValue implements redact.SafeValue.
func (TerminalKind) SafeValue() {}

var _ redact.SafeValue = TerminalKind(0)

// Suffix returns the canonical-key suffix for the hint, "" for TerminalNone.
func (k TerminalKind) Suffix() string {
	switch k {
	case TerminalInt, TerminalFloat:
		return numericSuffix
	case TerminalString:
		return stringSuffix
	case TerminalBool:
		return booleanSuffix
	}
	return ""
}

// Canonicalize turns a path expression and an optional terminal-type hint
// into the canonical key its statistics bucket is stored under.
//
// Worked example: $.a.b[0].c with an integer hint yields
// a_obj.b_arr.0_obj.c_num.
func Canonicalize(path string, hint TerminalKind) (string, error) {
	p, err := Parse(path)
	if err != nil {
		return "", err
	}
	if len(p) == 0 {
		return "", malformedf("path %q addresses the document root, not a member", path)
	}
	return CanonicalKey(p, hint), nil
}

// CanonicalKey emits the canonical key for an already-parsed path.
func CanonicalKey(p Path, hint TerminalKind) string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteString(separatorFor(seg))
		}
		sb.WriteString(seg.canonicalText())
	}
	sb.WriteString(hint.Suffix())
	return sb.String()
}

func separatorFor(seg Segment) string {
	if _, ok := seg.(Index); ok {
		return arraySeparator
	}
	return objectSeparator
}

// StripTypeSuffix removes a terminal-type suffix from a canonical key,
// returning the untyped key and whether a suffix was present. Estimators use
// the untyped key to recover structural statistics when a typed lookup
// misses.
func StripTypeSuffix(key string) (string, bool) {
	for _, suffix := range [...]string{numericSuffix, stringSuffix, booleanSuffix} {
		if rest, ok := strings.CutSuffix(key, suffix); ok && rest != "" {
			return rest, true
		}
	}
	return key, false
}

// KeyBuilder assembles canonical keys incrementally while descending a
// document tree: PushKey and PushIndex append a segment, Pop removes the
// most recent one, and Key snapshots the current canonical key. Builders
// avoid re-parsing path text for every leaf; the walker already knows each
// container's kind. The zero value is ready to use and sits at the document
// root.
type KeyBuilder struct {
	buf  []byte
	ends []int
}

// PushKey descends into the object member name.
func (b *KeyBuilder) PushKey(name string) {
	if len(b.ends) > 0 {
		b.buf = append(b.buf, objectSeparator...)
	}
	b.buf = append(b.buf, name...)
	b.ends = append(b.ends, len(b.buf))
}

// PushIndex descends into array element i.
func (b *KeyBuilder) PushIndex(i int64) {
	if len(b.ends) > 0 {
		b.buf = append(b.buf, arraySeparator...)
	}
	b.buf = strconv.AppendInt(b.buf, i, 10)
	b.ends = append(b.ends, len(b.buf))
}

// Pop ascends one level, removing the most recently pushed segment.
func (b *KeyBuilder) Pop() {
	b.ends = b.ends[:len(b.ends)-1]
	if len(b.ends) == 0 {
		b.buf = b.buf[:0]
		return
	}
	b.buf = b.buf[:b.ends[len(b.ends)-1]]
}

// Depth returns the number of pushed segments.
func (b *KeyBuilder) Depth() int {
	return len(b.ends)
}

// Key returns the canonical key for the current position with the given
// terminal suffix. The returned string does not alias the builder's buffer.
func (b *KeyBuilder) Key(hint TerminalKind) string {
	return string(b.buf) + hint.Suffix()
}
