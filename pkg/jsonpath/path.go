// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

// Package jsonpath parses the $.key.key2[idx] JSON path addressing grammar
// and derives the canonical key strings under which per-path statistics are
// stored.
package jsonpath

import (
	"strconv"
	"strings"
)

// Segment is a single addressing step of a path: an object member access or
// an array element access.
type Segment interface {
	// String renders the segment in source form, including the leading '.'
	// or the surrounding brackets.
	String() string

	// canonicalText is the raw text the segment contributes to a canonical
	// statistics key.
	canonicalText() string

	segment()
}

// Key addresses an object member by name.
type Key string

// Index addresses an array element by ordinal.
type Index int64

func (Key) segment()   {}
func (Index) segment() {}

func (k Key) String() string {
	if isBareKey(string(k)) {
		return "." + string(k)
	}
	var sb strings.Builder
	sb.WriteString(`."`)
	for i := 0; i < len(k); i++ {
		if c := k[i]; c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(k[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func (i Index) String() string {
	return "[" + strconv.FormatInt(int64(i), 10) + "]"
}

func (k Key) canonicalText() string {
	return string(k)
}

func (i Index) canonicalText() string {
	return strconv.FormatInt(int64(i), 10)
}

// Path is the parsed form of a path expression: the ordered segments with
// the leading $ stripped. An empty Path addresses the document root.
type Path []Segment

// String renders the path in source form.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, seg := range p {
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// isBareKey reports whether name can be written without quoting.
func isBareKey(name string) bool {
	for i, r := range name {
		if !identRune(r, i > 0) {
			return false
		}
	}
	return name != ""
}
