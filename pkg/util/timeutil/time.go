// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

// Package timeutil is the single source of wall-clock time in this module.
package timeutil

import "time"

// Now returns the current UTC time with the monotonic clock reading
// stripped. Histogram timestamps are serialized and compared across
// processes, so they must carry no process-local state.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
