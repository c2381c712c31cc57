package common

import (
	"context"
	"fmt"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/errors"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
	"hirescore/internal/types"
	"hirescore/internal/utils"
)

// InputLoader turns command input files into records. Files holding a JSON
// object are decoded against their schema; anything else is raw text for the
// extractor.
type InputLoader struct {
	files     *FileProcessor
	registry  *schema.Registry
	extractor ai.Extractor
	logger    *errors.Logger
	now       func() time.Time
}

// NewInputLoader creates a loader. extractor may be nil when every input is
// already structured.
func NewInputLoader(files *FileProcessor, registry *schema.Registry, extractor ai.Extractor, logger *errors.Logger) *InputLoader {
	return &InputLoader{
		files:     files,
		registry:  registry,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Text reads a raw document
func (l *InputLoader) Text(filename string) (string, error) {
	return l.files.ReadDocument(filename)
}

// Resume loads a resume record from a structured file or extracts one from text.
func (l *InputLoader) Resume(ctx context.Context, filename string) (types.ResumeRecord, *ai.TokenUsage, error) {
	content, err := l.Text(filename)
	if err != nil {
		return types.ResumeRecord{}, nil, err
	}

	if utils.LooksLikeJSON([]byte(content)) {
		rec, err := schema.Decode[types.ResumeRecord](l.registry, schema.KindResume, []byte(content))
		if err != nil {
			return types.ResumeRecord{}, nil, l.invalid(filename, err)
		}
		l.logger.Debug("Loaded structured resume", "file", filename)
		return schema.NormalizeResume(rec, l.now()), nil, nil
	}

	if l.extractor == nil {
		return types.ResumeRecord{}, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s is not a structured resume record and no extractor is configured", filename), nil)
	}
	return l.extractor.ExtractResume(ctx, content)
}

// Job loads job requirements from a structured file or extracts them from text.
func (l *InputLoader) Job(ctx context.Context, filename string) (types.JobDescription, *ai.TokenUsage, error) {
	content, err := l.Text(filename)
	if err != nil {
		return types.JobDescription{}, nil, err
	}

	if utils.LooksLikeJSON([]byte(content)) {
		req, err := schema.Decode[types.JobRequirements](l.registry, schema.KindJobRequirements, []byte(content))
		if err != nil {
			return types.JobDescription{}, nil, l.invalid(filename, err)
		}
		l.logger.Debug("Loaded structured job requirements", "file", filename)
		return types.JobDescription{Requirements: schema.NormalizeJob(req)}, nil, nil
	}

	if l.extractor == nil {
		return types.JobDescription{}, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s is not structured job requirements and no extractor is configured", filename), nil)
	}
	return l.extractor.ExtractJob(ctx, content)
}

// Evaluation decodes a match evaluation produced by the score command
func (l *InputLoader) Evaluation(filename string) (types.MatchEvaluation, error) {
	content, err := l.Text(filename)
	if err != nil {
		return types.MatchEvaluation{}, err
	}
	eval, err := schema.Decode[types.MatchEvaluation](l.registry, schema.KindMatchEvaluation, []byte(content))
	if err != nil {
		return types.MatchEvaluation{}, l.invalid(filename, err)
	}
	return eval, nil
}

// Rubric loads and normalizes a rubric document. An empty filename returns nil.
func (l *InputLoader) Rubric(filename string) (*rubric.Rubric, error) {
	if filename == "" {
		return nil, nil
	}
	if err := utils.ValidateInputFile(filename, l.files.MaxSize()); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	return rubric.LoadFile(filename)
}

func (l *InputLoader) invalid(filename string, err error) error {
	return errors.NewValidationError(errors.ErrCodeSchemaViolation,
		fmt.Sprintf("%s does not match its record schema", filename), err).
		WithContext("file", filename)
}
