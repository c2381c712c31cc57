package server

import (
	"context"
	"errors"
	"net/http"

	"hirescore/internal/ai"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
	"hirescore/internal/scoring"
	"hirescore/internal/validator"
)

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Stage   string         `json:"stage,omitempty"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Request-level error kinds
const (
	KindInvalidRequest  = "InvalidRequest"
	KindUnauthorized    = "Unauthorized"
	KindRateLimited     = "RateLimited"
	KindInternal        = "Internal"
	KindRequestCanceled = "Canceled"
)

// writeStageError maps a stage failure to its HTTP status and error body
func (s *Server) writeStageError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := describeError(err)
	if status >= http.StatusInternalServerError {
		s.logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	} else {
		s.logger.Info("Request rejected", "endpoint", r.URL.Path, "status", status, "stage", body.Stage, "kind", body.Kind)
	}
	writeJSON(w, status, ErrorResponse{Error: body})
}

func describeError(err error) (int, ErrorBody) {
	body := ErrorBody{Message: err.Error(), Kind: KindInternal}
	if stage, ok := pipeline.StageOf(err); ok {
		body.Stage = string(stage)
	}

	var viol *schema.ViolationError
	if errors.As(err, &viol) && body.Stage == "" {
		body.Kind = viol.Kind()
		body.Context = map[string]any{"schema": viol.SchemaKind, "problems": viol.Problems}
		return http.StatusBadRequest, body
	}

	se, ok := hirescoreErrors.AsStageError(err)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			body.Kind = "Timeout"
			return http.StatusGatewayTimeout, body
		case errors.Is(err, context.Canceled):
			body.Kind = KindRequestCanceled
			return http.StatusServiceUnavailable, body
		}
		return http.StatusInternalServerError, body
	}

	body.Kind = se.Kind()
	if body.Stage == "" {
		body.Stage = se.Stage()
	}
	body.Context = errorContext(err)

	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		switch aiErr.Code {
		case ai.ExtractionTimeout:
			return http.StatusGatewayTimeout, body
		case ai.ExtractionFailed:
			if errors.Is(err, ai.ErrUnsupported) {
				return http.StatusNotImplemented, body
			}
			return http.StatusBadGateway, body
		}
	}
	return http.StatusUnprocessableEntity, body
}

// errorContext exposes the structured detail of typed stage errors
func errorContext(err error) map[string]any {
	var (
		rubricErr  *rubric.Error
		scoringErr *scoring.Error
		incons     *validator.Inconsistency
		aiErr      *ai.Error
	)
	switch {
	case errors.As(err, &rubricErr):
		ctx := map[string]any{}
		if rubricErr.Section != "" {
			ctx["section"] = rubricErr.Section
		}
		if rubricErr.Code == rubric.WeightSumMismatch {
			ctx["sum"] = rubricErr.Sum
		}
		if rubricErr.Detail != "" {
			ctx["detail"] = rubricErr.Detail
		}
		return ctx
	case errors.As(err, &scoringErr):
		if len(scoringErr.Sections) > 0 {
			return map[string]any{"sections": scoringErr.Sections}
		}
	case errors.As(err, &incons):
		return map[string]any{"issues": incons.Issues}
	case errors.As(err, &aiErr):
		return map[string]any{"operation": aiErr.Operation}
	}
	return nil
}

// writeErrorResponse writes a request-level error
func writeErrorResponse(w http.ResponseWriter, kind, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: ErrorBody{Kind: kind, Message: message}})
}
