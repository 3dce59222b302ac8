// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package jsonpath

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ErrMalformedPath marks every path syntax error returned by this package.
// Callers treat it as "statistics unavailable for this expression", never as
// a fatal condition.
var ErrMalformedPath = errors.New("malformed JSON path")

func malformedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedPath)
}

// scanState enumerates the scanner positions. The scanner is a plain state
// machine: one byte (or rune) of input is consumed per step, and malformed
// input is reported from the state that rejects it.
type scanState int

const (
	// stateExpectSegment sits between segments; '.' or '[' starts the next.
	stateExpectSegment scanState = iota
	// stateObjectKey is inside a bare member name.
	stateObjectKey
	// stateQuotedKey is inside a double-quoted member name.
	stateQuotedKey
	// stateArrayIndex is inside an unclosed bracket.
	stateArrayIndex
)

// Parse scans a path expression in the $.key.key2[idx] grammar: a leading
// $, object member access via .name or ."quoted name", array element access
// via [index]. Wildcard forms (*, **, [*]) are rejected because a statistics
// lookup addresses exactly one path. No whitespace is permitted outside
// quoted member names.
func Parse(input string) (Path, error) {
	if input == "" {
		return nil, malformedf("empty path expression")
	}
	if input[0] != '$' {
		return nil, malformedf("path %q does not start with $", input)
	}
	var (
		p     Path
		buf   strings.Builder
		state = stateExpectSegment
	)
	i := 1
	for i < len(input) {
		switch state {
		case stateExpectSegment:
			switch input[i] {
			case '.':
				i++
				if i >= len(input) {
					return nil, malformedf("path %q ends with a dangling separator", input)
				}
				if input[i] == '"' {
					state = stateQuotedKey
					i++
				} else {
					state = stateObjectKey
				}
			case '[':
				state = stateArrayIndex
				i++
			default:
				return nil, malformedf("unexpected %q at offset %d in path %q", string(input[i]), i, input)
			}
		case stateObjectKey:
			r, size := utf8.DecodeRuneInString(input[i:])
			if !identRune(r, buf.Len() > 0) {
				if buf.Len() == 0 {
					return nil, malformedf("empty member name at offset %d in path %q", i, input)
				}
				p = append(p, Key(buf.String()))
				buf.Reset()
				state = stateExpectSegment
				continue
			}
			buf.WriteRune(r)
			i += size
		case stateQuotedKey:
			switch input[i] {
			case '\\':
				if i+1 >= len(input) {
					return nil, malformedf("unterminated escape in path %q", input)
				}
				esc := input[i+1]
				if esc != '"' && esc != '\\' {
					return nil, malformedf("unsupported escape \\%s in path %q", string(esc), input)
				}
				buf.WriteByte(esc)
				i += 2
			case '"':
				if buf.Len() == 0 {
					return nil, malformedf("empty member name at offset %d in path %q", i, input)
				}
				p = append(p, Key(buf.String()))
				buf.Reset()
				state = stateExpectSegment
				i++
			default:
				r, size := utf8.DecodeRuneInString(input[i:])
				buf.WriteRune(r)
				i += size
			}
		case stateArrayIndex:
			switch c := input[i]; {
			case c >= '0' && c <= '9':
				buf.WriteByte(c)
				i++
			case c == ']':
				if buf.Len() == 0 {
					return nil, malformedf("empty array index at offset %d in path %q", i, input)
				}
				idx, err := strconv.ParseInt(buf.String(), 10, 64)
				if err != nil {
					return nil, malformedf("array index %q out of range in path %q", buf.String(), input)
				}
				p = append(p, Index(idx))
				buf.Reset()
				state = stateExpectSegment
				i++
			default:
				return nil, malformedf("non-numeric array index at offset %d in path %q", i, input)
			}
		}
	}
	switch state {
	case stateObjectKey:
		p = append(p, Key(buf.String()))
	case stateQuotedKey:
		return nil, malformedf("unterminated quoted member in path %q", input)
	case stateArrayIndex:
		return nil, malformedf("unterminated bracket in path %q", input)
	}
	return p, nil
}

// identRune reports whether r may appear in a bare member name. The first
// rune of a name must not be a digit; digit-leading names require quoting.
func identRune(r rune, continuation bool) bool {
	if unicode.IsLetter(r) || r == '_' || r == '$' {
		return true
	}
	return continuation && unicode.IsDigit(r)
}
