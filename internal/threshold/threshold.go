// SPDX-License-Identifier: BSD-3-Clause

// Package threshold implements the small "field comparator value"
// condition language used to drive feedback controllers, and the
// deactivate-priority evaluator over it.
//
// Grounded on original_source/agent/src/threshold.rs, which parses the
// same grammar with a pest PEG grammar; no PEG or parser-combinator
// library in the retrieval pack covers this exact three-token grammar,
// so it is reimplemented as a small hand-written lexer/parser rather than
// pulling in an unrelated general-purpose parsing dependency.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Comparator is one of the four relational operators a Condition tests.
type Comparator string

const (
	LessThan           Comparator = "<"
	LessThanOrEqual    Comparator = "<="
	GreaterThan        Comparator = ">"
	GreaterThanOrEqual Comparator = ">="
)

// Evaluate reports whether lhs stands in the relation described by c to rhs.
func (c Comparator) Evaluate(lhs, rhs float64) bool {
	switch c {
	case LessThan:
		return lhs < rhs
	case LessThanOrEqual:
		return lhs <= rhs
	case GreaterThan:
		return lhs > rhs
	case GreaterThanOrEqual:
		return lhs >= rhs
	default:
		return false
	}
}

var (
	// ErrParse indicates the condition string could not be parsed.
	ErrParse = errors.New("invalid condition expression")
	// ErrUnknownField indicates the field name is not valid for this domain.
	ErrUnknownField = errors.New("unknown measurement field")
	// ErrMissingField indicates no measurement in a batch carried the field.
	ErrMissingField = errors.New("no measurement carries the requested field")
)

// Condition is one parsed `field comparator value` clause.
type Condition struct {
	Field      string
	Comparator Comparator
	Value      float64
}

// FieldKind describes the value domain a named field accepts.
type FieldKind int

const (
	// FieldFloat accepts any finite value.
	FieldFloat FieldKind = iota
	// FieldInteger accepts only whole-number values, matching a
	// measurement field (e.g. WaterLevel's millimeter distance) backed
	// by an integer type rather than a float.
	FieldInteger
)

// Fields enumerates the field names valid for one measurement domain and
// the value kind each accepts. Parse and ParseThreshold reject any field
// not present in Fields, and any non-integer value given for a
// FieldInteger field, at parse time rather than deferring the mistake to
// evaluation-time ErrMissingField.
type Fields map[string]FieldKind

// Parse parses a condition expression of the form "field comparator
// value", e.g. "humidity > 65" or "distance<=120". Whitespace around
// tokens is optional. field must be one of the names enumerated by
// fields; if fields names it a FieldInteger, value must have no
// fractional part.
func Parse(expr string, fields Fields) (Condition, error) {
	s := strings.TrimSpace(expr)

	cmp, idx := findComparator(s)
	if cmp == "" {
		return Condition{}, fmt.Errorf("%w: %q: no comparator found", ErrParse, expr)
	}

	field := strings.TrimSpace(s[:idx])
	valueStr := strings.TrimSpace(s[idx+len(cmp):])

	if field == "" {
		return Condition{}, fmt.Errorf("%w: %q: empty field name", ErrParse, expr)
	}
	if valueStr == "" {
		return Condition{}, fmt.Errorf("%w: %q: empty value", ErrParse, expr)
	}

	kind, ok := fields[field]
	if !ok {
		return Condition{}, fmt.Errorf("%w: %q: %w: %q", ErrParse, expr, ErrUnknownField, field)
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %q: invalid numeric value %q", ErrParse, expr, valueStr)
	}
	if kind == FieldInteger && value != math.Trunc(value) {
		return Condition{}, fmt.Errorf("%w: %q: field %q requires an integer value", ErrParse, expr, field)
	}

	return Condition{Field: field, Comparator: cmp, Value: value}, nil
}

// findComparator locates the comparator token in s, preferring the
// two-character forms ("<=", ">=") over their one-character prefixes.
func findComparator(s string) (Comparator, int) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '>':
			if i+1 < len(s) && s[i+1] == '=' {
				return Comparator(s[i : i+2]), i
			}
			return Comparator(s[i : i+1]), i
		}
	}
	return "", -1
}

// Threshold pairs an activation and a deactivation condition, evaluated
// with deactivate-priority: deactivate wins ties against activate.
type Threshold struct {
	Activate   Condition
	Deactivate Condition
}

// ParseThreshold parses both clauses of a Threshold, validating each
// condition's field and value type against fields.
func ParseThreshold(activate, deactivate string, fields Fields) (Threshold, error) {
	a, err := Parse(activate, fields)
	if err != nil {
		return Threshold{}, fmt.Errorf("activate condition: %w", err)
	}
	d, err := Parse(deactivate, fields)
	if err != nil {
		return Threshold{}, fmt.Errorf("deactivate condition: %w", err)
	}
	return Threshold{Activate: a, Deactivate: d}, nil
}

// Decision is the outcome of evaluating a Threshold against a batch.
type Decision int

const (
	NoChange Decision = iota
	Activated
	Deactivated
)

// FieldLookup extracts a named field's value from one measurement,
// returning ok=false if that measurement does not carry the field.
type FieldLookup[M any] func(m M, field string) (value float64, ok bool)

// Evaluate applies deactivate-priority evaluation to a batch of
// measurements: for each condition, the arithmetic mean of the field
// across every measurement that carries it is compared against the
// condition's value. A field absent from every measurement in the batch
// is ErrMissingField.
func Evaluate[M any](t Threshold, batch []M, lookup FieldLookup[M]) (Decision, error) {
	deactivateMean, err := fieldMean(batch, t.Deactivate.Field, lookup)
	if err != nil {
		return NoChange, fmt.Errorf("deactivate: %w", err)
	}
	if t.Deactivate.Comparator.Evaluate(deactivateMean, t.Deactivate.Value) {
		return Deactivated, nil
	}

	activateMean, err := fieldMean(batch, t.Activate.Field, lookup)
	if err != nil {
		return NoChange, fmt.Errorf("activate: %w", err)
	}
	if t.Activate.Comparator.Evaluate(activateMean, t.Activate.Value) {
		return Activated, nil
	}

	return NoChange, nil
}

func fieldMean[M any](batch []M, field string, lookup FieldLookup[M]) (float64, error) {
	var sum float64
	var count int

	for _, m := range batch {
		if v, ok := lookup(m, field); ok {
			sum += v
			count++
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingField, field)
	}

	return sum / float64(count), nil
}
