package report

// ErrorKind classifies a refused synthesis
type ErrorKind string

const (
	MissingUpstreamScore ErrorKind = "MissingUpstreamScore"
)

// Error reports why a report could not be synthesized
type Error struct {
	Code  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "cannot synthesize report: " + e.Cause.Error()
	}
	return "cannot synthesize report: " + string(e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }
func (e *Error) Stage() string { return "synthesis" }
func (e *Error) Kind() string  { return string(e.Code) }
