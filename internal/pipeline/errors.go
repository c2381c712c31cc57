package pipeline

import (
	"context"
	"errors"
	"fmt"

	hirescoreErrors "hirescore/internal/errors"
)

// Stage names a pipeline step
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageRubric     Stage = "rubric"
	StageScoring    Stage = "scoring"
	StageValidation Stage = "validation"
	StageSynthesis  Stage = "synthesis"
)

// Error is a failed pipeline run. Err keeps the typed error of the failing
// stage so errors.As can recover it.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind is the kind reported by the stage error, or a generic kind for
// cancellation and untyped failures.
func (e *Error) Kind() string {
	return kindOf(e.Err)
}

func kindOf(err error) string {
	if se, ok := hirescoreErrors.AsStageError(err); ok {
		return se.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	}
	return "Failed"
}

// StageOf reports the pipeline stage that produced err.
func StageOf(err error) (Stage, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	return "", false
}
