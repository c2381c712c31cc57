package ai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures
type ErrorKind string

const (
	// UnreadableInput means the document is empty or not text.
	UnreadableInput ErrorKind = "UnreadableInput"
	// ExtractionTimeout means the call ran past its deadline.
	ExtractionTimeout ErrorKind = "ExtractionTimeout"
	// ExtractionFailed covers backend and transport failures.
	ExtractionFailed ErrorKind = "ExtractionFailed"
	// SchemaViolation means the backend answered with a document of the wrong shape.
	SchemaViolation ErrorKind = "SchemaViolation"
)

// ErrUnsupported is returned by backends that cannot serve an operation.
var ErrUnsupported = errors.New("operation not supported by this backend")

// Error is an extraction failure
type Error struct {
	Code      ErrorKind
	Operation string
	Detail    string
	Cause     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Operation, e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Stage() string { return "extraction" }
func (e *Error) Kind() string  { return string(e.Code) }

// KindOf reports the extraction error kind in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
