package scoring

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a refused computation
type ErrorKind string

const (
	UnnormalizedRubric ErrorKind = "UnnormalizedRubric"
	EmptyResume        ErrorKind = "EmptyResume"
)

// Error reports why an evaluation could not be computed
type Error struct {
	Code     ErrorKind
	Sections []string
}

func (e *Error) Error() string {
	switch e.Code {
	case UnnormalizedRubric:
		return "score computation requires a normalized rubric"
	case EmptyResume:
		return fmt.Sprintf("resume has no usable evidence for any rubric section (%s); check the extraction step",
			strings.Join(e.Sections, ", "))
	default:
		return string(e.Code)
	}
}

func (e *Error) Stage() string { return "scoring" }
func (e *Error) Kind() string  { return string(e.Code) }
