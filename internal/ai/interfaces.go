package ai

import (
	"context"

	"hirescore/internal/types"
)

// Extractor turns raw document text into fully shaped records. Fields the
// document does not state come back absent, never invented.
type Extractor interface {
	ExtractResume(ctx context.Context, text string) (types.ResumeRecord, *TokenUsage, error)
	ExtractJob(ctx context.Context, text string) (types.JobDescription, *TokenUsage, error)
}

// Backend produces a JSON document for a prepared request. Decoding,
// normalization and schema checks are left to the Service.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Stats() map[string]any
	Close() error
}

// Request is one extraction call
type Request struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	Document     string
}

// Response carries the raw JSON produced for a Request
type Response struct {
	Data  []byte
	Usage *TokenUsage
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// Add accumulates other into u. Either side may be nil.
func (u *TokenUsage) Add(other *TokenUsage) {
	if u == nil || other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
