// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import "github.com/cockroachdb/errors"

// The error taxonomy of this package. Decode errors abort an entire
// histogram load; predicate errors mean "selectivity unavailable" for one
// predicate and are never fatal. Callers classify with errors.Is.
var (
	// ErrMissingAttribute marks decode failures for absent required fields.
	ErrMissingAttribute = errors.New("missing attribute")

	// ErrWrongType marks decode failures where a JSON token has a type
	// other than the one its position requires.
	ErrWrongType = errors.New("wrong type")

	// ErrWrongArity marks positional arrays with an illegal length.
	ErrWrongArity = errors.New("wrong arity")

	// ErrUnsupportedPredicate marks function/operator shapes the estimator
	// does not model.
	ErrUnsupportedPredicate = errors.New("unsupported predicate shape")
)

func missingAttributef(name string) error {
	return errors.Mark(errors.Newf("attribute %q not found", name), ErrMissingAttribute)
}

func wrongTypef(expected, found, location string) error {
	return errors.Mark(
		errors.Newf("expected %s at %s, found %s", expected, location, found),
		ErrWrongType,
	)
}

func wrongArityf(expected string, found int, location string) error {
	return errors.Mark(
		errors.Newf("expected %s elements at %s, found %d", expected, location, found),
		ErrWrongArity,
	)
}

func unsupportedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnsupportedPredicate)
}
