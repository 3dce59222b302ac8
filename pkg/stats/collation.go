// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/util/syncutil"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultCollationName is the collation applied to string comparisons when
// a histogram does not name one.
const DefaultCollationName = "utf8mb4_0900_ai_ci"

// Collation names the ordering applied to every string comparison inside a
// histogram: valuegram scans, min/max clipping and bucket validation all go
// through it. Binary collations compare bytewise; the named Unicode
// collations delegate to an x/text collator.
type Collation struct {
	name string
	opts []collate.Option

	// x/text collators keep scratch state between calls and are not safe
	// for concurrent use, so comparisons on non-binary collations serialize
	// on this mutex. The binary tier stays lock-free; it is also the fast
	// path. The collator pointer itself is immutable after construction.
	mu struct {
		syncutil.Mutex
		collator *collate.Collator
	}
}

// MakeCollation resolves a collation name. Unrecognized names are an error:
// decoding a histogram built under an unknown ordering would silently
// change which rows its string statistics describe.
func MakeCollation(name string) (*Collation, error) {
	switch name {
	case "binary", "utf8mb4_bin":
		return &Collation{name: name}, nil
	case "utf8mb4_0900_ai_ci":
		return newCollatorCollation(name, collate.Loose), nil
	case "utf8mb4_0900_as_cs":
		return newCollatorCollation(name), nil
	}
	return nil, errors.Newf("unsupported collation %q", name)
}

// DefaultCollation returns the collation used when none is specified.
func DefaultCollation() *Collation {
	return newCollatorCollation(DefaultCollationName, collate.Loose)
}

func newCollatorCollation(name string, opts ...collate.Option) *Collation {
	c := &Collation{name: name, opts: opts}
	c.mu.collator = collate.New(language.Und, opts...)
	return c
}

// Name returns the collation's name as it appears on the wire.
func (c *Collation) Name() string {
	if c == nil {
		return DefaultCollationName
	}
	return c.name
}

// CompareStrings orders a against b under the collation: -1, 0 or +1. A nil
// receiver compares bytewise.
func (c *Collation) CompareStrings(a, b string) int {
	if c == nil || c.mu.collator == nil {
		return strings.Compare(a, b)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.collator.CompareString(a, b)
}

// clone returns an independent collation with its own collator state, for
// histogram clones that must share no mutable substructure with the
// original.
func (c *Collation) clone() *Collation {
	if c == nil {
		return nil
	}
	out := &Collation{name: strings.Clone(c.name)}
	if c.mu.collator != nil {
		out.opts = c.opts
		out.mu.collator = collate.New(language.Und, c.opts...)
	}
	return out
}
