package rubric

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected rubric
type ErrorKind string

const (
	WeightSumMismatch ErrorKind = "WeightSumMismatch"
	DuplicateSection  ErrorKind = "DuplicateSection"
	InvalidWeight     ErrorKind = "InvalidWeight"
	EmptyRubric       ErrorKind = "EmptyRubric"
	MalformedRubric   ErrorKind = "MalformedRubric"
)

// Error reports why a rubric was rejected. Sum is set for WeightSumMismatch,
// Section for errors tied to one section.
type Error struct {
	Code    ErrorKind
	Section string
	Sum     float64
	Detail  string
}

func (e *Error) Error() string {
	switch e.Code {
	case WeightSumMismatch:
		return fmt.Sprintf("rubric weights sum to %.4g, expected 100 (±%g)", e.Sum, Tolerance)
	case DuplicateSection:
		return fmt.Sprintf("rubric section %q is defined more than once", e.Section)
	case InvalidWeight:
		return fmt.Sprintf("rubric section %q has an invalid weight: %s", e.Section, e.Detail)
	case EmptyRubric:
		return "rubric has no sections"
	default:
		if e.Section != "" {
			return fmt.Sprintf("malformed rubric section %q: %s", e.Section, e.Detail)
		}
		return "malformed rubric: " + e.Detail
	}
}

func (e *Error) Stage() string { return "rubric" }
func (e *Error) Kind() string  { return string(e.Code) }

// KindOf returns the rubric error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code, true
	}
	return "", false
}
