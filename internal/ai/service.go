package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/schema"
	"hirescore/internal/types"
)

// Operation binds one extraction operation to its backend
type Operation struct {
	Backend Backend
	Prompts PromptSet
	Timeout time.Duration // zero means no per-call deadline
}

// Service is the extraction adapter. It implements Extractor and, when a
// rubric operation is configured, rubric.Generator.
type Service struct {
	registry *schema.Registry
	ops      map[string]Operation
	logger   *hirescoreErrors.Logger
	now      func() time.Time
	onUsage  func(operation string, usage *TokenUsage)
}

var _ Extractor = (*Service)(nil)

// NewService builds a Service from configuration. The rubric generation
// operation is only set up when rubric generation is enabled.
func NewService(ctx context.Context, cfg *config.Config, logger *hirescoreErrors.Logger) (*Service, error) {
	registry, err := schema.Default()
	if err != nil {
		return nil, hirescoreErrors.NewInternalError(hirescoreErrors.ErrCodeInvalidConfig,
			"Failed to load record schemas", err)
	}

	operations := []string{config.OpExtractResume, config.OpExtractJob}
	if cfg.Rubric.Generate {
		operations = append(operations, config.OpGenerateRubric)
	}

	ops := make(map[string]Operation, len(operations))
	for _, op := range operations {
		opCfg := cfg.GetOperationConfig(op)

		logger.Debug("Initializing extraction operation",
			"operation", op,
			"provider", opCfg.Provider,
			"model", opCfg.Model,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"use_system_prompts", *opCfg.UseSystemPrompts)

		backend, err := newBackend(ctx, &opCfg, op, logger)
		if err != nil {
			return nil, err
		}
		if op == config.OpGenerateRubric && backend.Name() == "json" {
			logger.Warn("Rubric generation needs a model provider; generation disabled", "provider", opCfg.Provider)
			continue
		}

		ops[op] = Operation{
			Backend: backend,
			Prompts: resolvePrompts(op, opCfg.Prompts),
			Timeout: *opCfg.Timeout,
		}
	}

	return NewServiceWith(registry, ops, logger), nil
}

func newBackend(ctx context.Context, cfg *config.OperationAIConfig, op string, logger *hirescoreErrors.Logger) (Backend, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg, op, logger)
	case "json":
		return JSONProvider{}, nil
	default:
		return nil, hirescoreErrors.NewConfigError(hirescoreErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewServiceWith builds a Service over explicit operations. Operations with
// empty prompts use the built-in ones.
func NewServiceWith(registry *schema.Registry, ops map[string]Operation, logger *hirescoreErrors.Logger) *Service {
	resolved := make(map[string]Operation, len(ops))
	for name, op := range ops {
		op.Prompts = resolvePrompts(name, config.PromptConfig{System: op.Prompts.System, User: op.Prompts.User})
		resolved[name] = op
	}
	return &Service{
		registry: registry,
		ops:      resolved,
		logger:   logger,
		now:      time.Now,
	}
}

// SetUsageHook registers fn to observe token usage of every successful call.
func (s *Service) SetUsageHook(fn func(operation string, usage *TokenUsage)) {
	s.onUsage = fn
}

// ExtractResume implements Extractor
func (s *Service) ExtractResume(ctx context.Context, text string) (types.ResumeRecord, *TokenUsage, error) {
	op := config.OpExtractResume
	data, usage, err := s.call(ctx, op, schema.KindResume, text)
	if err != nil {
		return types.ResumeRecord{}, nil, err
	}

	var rec types.ResumeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.ResumeRecord{}, usage, violation(op, schema.KindResume, err)
	}

	rec = schema.NormalizeResume(rec, s.now())
	if err := s.registry.ValidateValue(schema.KindResume, rec); err != nil {
		return types.ResumeRecord{}, usage, &Error{Code: SchemaViolation, Operation: op, Cause: err}
	}

	s.logger.Info("Resume extracted",
		"candidate", rec.Contact.FullName.String(),
		"roles", len(rec.WorkExperience),
		"education", len(rec.Education))
	return rec, usage, nil
}

// ExtractJob implements Extractor
func (s *Service) ExtractJob(ctx context.Context, text string) (types.JobDescription, *TokenUsage, error) {
	op := config.OpExtractJob
	data, usage, err := s.call(ctx, op, schema.KindJobRequirements, text)
	if err != nil {
		return types.JobDescription{}, nil, err
	}

	var req types.JobRequirements
	if err := json.Unmarshal(data, &req); err != nil {
		return types.JobDescription{}, usage, violation(op, schema.KindJobRequirements, err)
	}

	req = schema.NormalizeJob(req)
	if err := s.registry.ValidateValue(schema.KindJobRequirements, req); err != nil {
		return types.JobDescription{}, usage, &Error{Code: SchemaViolation, Operation: op, Cause: err}
	}

	s.logger.Info("Job description extracted",
		"job_title", req.Title.String(),
		"required_skills", len(req.RequiredSkills),
		"critical_requirements", len(req.CriticalRequirements))
	return types.JobDescription{Text: text, Requirements: req}, usage, nil
}

// CanGenerateRubric reports whether a rubric generation operation is configured.
func (s *Service) CanGenerateRubric() bool {
	_, ok := s.ops[config.OpGenerateRubric]
	return ok
}

// GenerateRubric asks the model for a rubric tailored to job. The document is
// checked against the rubric schema only; weights are checked by the caller
// through rubric normalization.
func (s *Service) GenerateRubric(ctx context.Context, job types.JobDescription) ([]byte, error) {
	op := config.OpGenerateRubric

	requirements, err := json.MarshalIndent(job.Requirements, "", "  ")
	if err != nil {
		return nil, &Error{Code: ExtractionFailed, Operation: op, Cause: err}
	}
	document := string(requirements)
	if text := strings.TrimSpace(job.Text); text != "" {
		document = text + "\n\nExtracted requirements:\n" + document
	}

	data, _, err := s.call(ctx, op, schema.KindRubric, document)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Validate(schema.KindRubric, data); err != nil {
		return nil, &Error{Code: SchemaViolation, Operation: op, Cause: err}
	}
	return data, nil
}

// call runs one operation with its own deadline and maps failures to extraction errors
func (s *Service) call(ctx context.Context, op string, kind schema.Kind, document string) ([]byte, *TokenUsage, error) {
	operation, ok := s.ops[op]
	if !ok {
		return nil, nil, &Error{Code: ExtractionFailed, Operation: op, Cause: ErrUnsupported}
	}

	if detail := unreadable(document); detail != "" {
		return nil, nil, &Error{Code: UnreadableInput, Operation: op, Detail: detail}
	}

	schemaText, err := s.registry.Schema(kind)
	if err != nil {
		return nil, nil, &Error{Code: ExtractionFailed, Operation: op, Cause: err}
	}

	req := Request{
		Operation:    op,
		SystemPrompt: operation.Prompts.System,
		UserPrompt:   renderPrompt(operation.Prompts.User, string(schemaText), document),
		Document:     document,
	}

	callCtx := ctx
	if operation.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, operation.Timeout)
		defer cancel()
	}

	s.logger.Debug("Extraction started",
		"operation", op,
		"backend", operation.Backend.Name(),
		"document_length", len(document))

	start := time.Now()
	resp, err := operation.Backend.Generate(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, nil, &Error{
				Code:      ExtractionTimeout,
				Operation: op,
				Detail:    fmt.Sprintf("no answer within %s", operation.Timeout),
				Cause:     err,
			}
		}
		return nil, nil, &Error{Code: ExtractionFailed, Operation: op, Cause: err}
	}

	s.logger.Debug("Extraction finished",
		"operation", op,
		"duration", time.Since(start),
		"response_length", len(resp.Data))

	if resp.Usage != nil && s.onUsage != nil {
		s.onUsage(op, resp.Usage)
	}
	return resp.Data, resp.Usage, nil
}

// unreadable describes why document cannot be extracted, or returns ""
func unreadable(document string) string {
	switch {
	case strings.TrimSpace(document) == "":
		return "document is empty"
	case !utf8.ValidString(document):
		return "document is not valid UTF-8 text"
	case strings.ContainsRune(document, 0):
		return "document contains binary data"
	}
	return ""
}

func violation(op string, kind schema.Kind, err error) *Error {
	return &Error{
		Code:      SchemaViolation,
		Operation: op,
		Cause:     &schema.ViolationError{SchemaKind: kind, Problems: []string{err.Error()}},
	}
}

// GetModelInfo probes the model behind every operation
func (s *Service) GetModelInfo(ctx context.Context) map[string]*ModelInfo {
	info := make(map[string]*ModelInfo, len(s.ops))
	for name, op := range s.ops {
		info[name] = op.Backend.GetModelInfo(ctx)
	}
	return info
}

// Stats returns backend statistics per operation
func (s *Service) Stats() map[string]any {
	stats := make(map[string]any, len(s.ops))
	for name, op := range s.ops {
		stats[name] = op.Backend.Stats()
	}
	return stats
}

// Close releases every backend
func (s *Service) Close() error {
	var errs []error
	for _, op := range s.ops {
		if err := op.Backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
