// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"fmt"

	"github.com/cockroachdb/redact"

	"github.com/jonaengs/jsonflex/pkg/jsonpath"
)

// ExtractFunc identifies which JSON extraction function a predicate
// applies to the column before comparing.
type ExtractFunc int

const (
	FuncUnknown ExtractFunc = iota
	// FuncExtract returns the value at a path.
	FuncExtract
	// FuncExtractUnquoted returns the value at a path with string results
	// unquoted.
	FuncExtractUnquoted
	// FuncValueWithDefault returns the value at a path, substituting a
	// default when the path is absent.
	FuncValueWithDefault
)

func (f ExtractFunc) String() string {
	switch f {
	case FuncExtract:
		return "extract"
	case FuncExtractUnquoted:
		return "extract-unquoted"
	case FuncValueWithDefault:
		return "value-with-default"
	}
	return "unknown"
}

// SafeValue implements the redact.SafeValue interface.
func (ExtractFunc) SafeValue() {}

var _ redact.SafeValue = ExtractFunc(0)

// ExtractFuncFromName maps a function identifier to its ExtractFunc,
// returning FuncUnknown for names the estimator does not model.
func ExtractFuncFromName(name string) ExtractFunc {
	switch name {
	case "extract":
		return FuncExtract
	case "extract-unquoted":
		return FuncExtractUnquoted
	case "value-with-default":
		return FuncValueWithDefault
	}
	return FuncUnknown
}

// Operator is the comparison applied to the extracted value.
type Operator int

const (
	OpEQ Operator = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpBetween
	OpNotBetween
	OpInList
	OpNotInList
	OpIsNull
	OpIsNotNull
)

func (op Operator) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpBetween:
		return "BETWEEN"
	case OpNotBetween:
		return "NOT BETWEEN"
	case OpInList:
		return "IN"
	case OpNotInList:
		return "NOT IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// SafeValue implements the redact.SafeValue interface.
func (Operator) SafeValue() {}

var _ redact.SafeValue = Operator(0)

// Predicate is one constant-foldable condition over a JSON column, as the
// planner hands it to the estimator: an extraction function, its path
// argument, an operator and the comparand literals.
type Predicate struct {
	Func ExtractFunc

	// Path is the JSON path argument, e.g. $.user.age.
	Path string

	Op Operator

	// Args holds the comparands. A nil entry stands for a comparand that
	// is not a compile-time constant (or is the null literal); any nil
	// drops the predicate to the untyped statistics for the path.
	Args []Value
}

// checkShape rejects predicates the estimator does not model: unknown
// functions or operators, wrong comparand counts, and comparand lists
// mixing kind families. Int and Float count as one family.
func (p *Predicate) checkShape() error {
	switch p.Func {
	case FuncExtract, FuncExtractUnquoted, FuncValueWithDefault:
	default:
		return unsupportedf("unrecognized function %v", p.Func)
	}
	switch p.Op {
	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE:
		if len(p.Args) > 1 {
			return unsupportedf(
				"operator %v takes at most one comparand, found %d", p.Op, len(p.Args))
		}
	case OpBetween, OpNotBetween:
		if len(p.Args) != 2 {
			return unsupportedf(
				"operator %v takes exactly two comparands, found %d", p.Op, len(p.Args))
		}
	case OpInList, OpNotInList:
		if len(p.Args) == 0 {
			return unsupportedf("operator %v takes at least one comparand", p.Op)
		}
	case OpIsNull, OpIsNotNull:
		if len(p.Args) != 0 {
			return unsupportedf(
				"operator %v takes no comparands, found %d", p.Op, len(p.Args))
		}
	default:
		return unsupportedf("unrecognized operator %v", p.Op)
	}
	family := KindUnknown
	for _, a := range p.Args {
		if a == nil {
			continue
		}
		k := a.Kind()
		if family == KindUnknown {
			family = k
			continue
		}
		if k != family && !(numericKind(k) && numericKind(family)) {
			return unsupportedf("comparands mix %v and %v kinds", family, k)
		}
	}
	return nil
}

// typeHint derives the canonicalization hint from the comparands. Null
// checks carry no comparand and a nil comparand is unknown at plan time;
// both resolve against the untyped key.
func (p *Predicate) typeHint() jsonpath.TerminalKind {
	if len(p.Args) == 0 {
		return jsonpath.TerminalNone
	}
	for _, a := range p.Args {
		if a == nil {
			return jsonpath.TerminalNone
		}
	}
	switch p.Args[0].Kind() {
	case KindInt:
		return jsonpath.TerminalInt
	case KindFloat:
		return jsonpath.TerminalFloat
	case KindStr:
		return jsonpath.TerminalString
	case KindBool:
		return jsonpath.TerminalBool
	}
	return jsonpath.TerminalNone
}
