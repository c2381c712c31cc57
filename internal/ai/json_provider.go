package ai

import (
	"context"
	"fmt"

	"hirescore/internal/config"
)

// JSONProvider is a Backend for documents that are already structured. The
// document itself is the answer; the Service still validates and normalizes it.
type JSONProvider struct{}

var _ Backend = JSONProvider{}

// Name implements Backend
func (JSONProvider) Name() string { return "json" }

// Generate returns the document unchanged. Rubric generation needs a model and
// is not supported.
func (JSONProvider) Generate(_ context.Context, req Request) (*Response, error) {
	if req.Operation == config.OpGenerateRubric {
		return nil, fmt.Errorf("%s: %w", req.Operation, ErrUnsupported)
	}
	return &Response{Data: []byte(req.Document)}, nil
}

// GetModelInfo implements Backend
func (JSONProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "json-passthrough", Available: true}
}

// Stats implements Backend
func (JSONProvider) Stats() map[string]any {
	return map[string]any{"provider": "json"}
}

// Close implements Backend
func (JSONProvider) Close() error { return nil }
