// Package pipeline runs an evaluation end to end: extraction, rubric
// resolution, scoring, validation and report synthesis, strictly in order.
package pipeline

import (
	"context"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/report"
	"hirescore/internal/rubric"
	"hirescore/internal/scoring"
	"hirescore/internal/types"
	"hirescore/internal/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Input is the raw material of one evaluation
type Input struct {
	ResumeText string
	JobText    string
	// Rubric is used as is when set; otherwise the resolver picks one.
	Rubric *rubric.Rubric
}

// Result holds every record produced by a run
type Result struct {
	RunID        string                     `json:"run_id"`
	Resume       types.ResumeRecord         `json:"resume"`
	Job          types.JobDescription       `json:"job"`
	Rubric       *rubric.Rubric             `json:"rubric"`
	RubricSource rubric.Source              `json:"rubric_source"`
	Evaluation   types.MatchEvaluation      `json:"evaluation"`
	Validation   validator.ValidationResult `json:"validation"`
	Report       types.Report               `json:"report"`
	Usage        ai.TokenUsage              `json:"token_usage"`
	Duration     time.Duration              `json:"duration"`
}

// Config carries the stage settings and instrumentation of a Pipeline.
// Zero values fall back to the defaults of each stage.
type Config struct {
	Scoring   scoring.Policy
	Report    report.Options
	Tolerance float64
	Metrics   *observability.Metrics
	Tracer    trace.Tracer
	Logger    *hirescoreErrors.Logger
}

// Pipeline evaluates one candidate against one job at a time. It holds no
// per-run state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	extractor   ai.Extractor
	resolver    *rubric.Resolver
	computer    *scoring.Computer
	validator   *validator.Validator
	synthesizer *report.Synthesizer
	metrics     *observability.Metrics
	tracer      trace.Tracer
	logger      *hirescoreErrors.Logger
}

// New builds a pipeline. extractor may be nil when only pre-structured
// records are evaluated; resolver may be nil, in which case the default
// rubric is used.
func New(extractor ai.Extractor, resolver *rubric.Resolver, cfg Config) *Pipeline {
	if resolver == nil {
		resolver = rubric.NewResolver(nil, nil, nil, cfg.Logger)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("hirescore.pipeline")
	}
	v := validator.New(cfg.Tolerance)
	return &Pipeline{
		extractor:   extractor,
		resolver:    resolver,
		computer:    scoring.NewComputer(cfg.Scoring),
		validator:   v,
		synthesizer: report.NewSynthesizer(cfg.Report).WithValidator(v),
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
		logger:      cfg.Logger,
	}
}

type runIDKey struct{}

// WithRunID attaches a run ID to ctx. Runs started without one get a fresh ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run ID attached to ctx, if any.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func ensureRunID(ctx context.Context) (context.Context, string) {
	if id := RunIDFrom(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

// Run extracts both documents, resolves the rubric and evaluates.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	ctx, runID := ensureRunID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	start := time.Now()
	res := &Result{RunID: runID}

	err := p.extract(ctx, in, res)
	if err == nil {
		err = p.resolveRubric(ctx, in.Rubric, res)
	}
	if err == nil {
		err = p.evaluate(ctx, res)
	}
	res.Duration = time.Since(start)

	return p.finish(ctx, span, res, err)
}

// Evaluate scores, validates and reports on pre-structured records. A nil
// rubric is resolved for job the same way Run does.
func (p *Pipeline) Evaluate(ctx context.Context, resume types.ResumeRecord, job types.JobDescription, r *rubric.Rubric) (*Result, error) {
	ctx, runID := ensureRunID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.evaluate", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	start := time.Now()
	res := &Result{RunID: runID, Resume: resume, Job: job}

	err := p.resolveRubric(ctx, r, res)
	if err == nil {
		err = p.evaluate(ctx, res)
	}
	res.Duration = time.Since(start)

	return p.finish(ctx, span, res, err)
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, res *Result, err error) (*Result, error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.RecordEvaluation(ctx, observability.OutcomeFailure, 0)
		p.log(ctx).LogError(err, "Evaluation failed", "duration", res.Duration)
		return nil, err
	}

	score := res.Evaluation.Summary.NormalizedScore
	span.SetAttributes(
		attribute.Float64("score.normalized", score),
		attribute.String("recommendation", string(res.Report.ExecutiveSummary.OverallRecommendation)),
	)
	p.metrics.RecordEvaluation(ctx, observability.OutcomeSuccess, score)
	p.log(ctx).Info("Evaluation completed",
		"candidate", res.Resume.Contact.FullName.String(),
		"job_title", res.Job.Requirements.Title.String(),
		"rubric_source", res.RubricSource,
		"normalized_score", score,
		"recommendation", res.Report.ExecutiveSummary.OverallRecommendation,
		"duration", res.Duration)
	return res, nil
}

func (p *Pipeline) extract(ctx context.Context, in Input, res *Result) error {
	resume, usage, err := p.ExtractResume(ctx, in.ResumeText)
	if err != nil {
		return err
	}
	res.Resume = resume
	res.Usage.Add(usage)

	job, usage, err := p.ExtractJob(ctx, in.JobText)
	if err != nil {
		return err
	}
	res.Job = job
	res.Usage.Add(usage)
	return nil
}

func (p *Pipeline) resolveRubric(ctx context.Context, explicit *rubric.Rubric, res *Result) error {
	r, source, err := p.ResolveRubric(ctx, res.Job, explicit)
	if err != nil {
		return err
	}
	res.Rubric, res.RubricSource = r, source
	return nil
}

// ResolveRubric runs the rubric stage alone: explicit wins, then a cached or
// generated job-specific rubric, then the store's fallback.
func (p *Pipeline) ResolveRubric(ctx context.Context, job types.JobDescription, explicit *rubric.Rubric) (*rubric.Rubric, rubric.Source, error) {
	var (
		r      *rubric.Rubric
		source rubric.Source
	)
	err := p.stage(ctx, StageRubric, func(ctx context.Context) error {
		var err error
		r, source, err = p.resolver.Resolve(ctx, job, explicit)
		if err != nil {
			return err
		}
		p.log(ctx).Info("Rubric resolved", "source", source, "sections", r.Len())
		return nil
	})
	return r, source, err
}

func (p *Pipeline) evaluate(ctx context.Context, res *Result) error {
	eval, err := p.Score(ctx, res.Resume, res.Job, res.Rubric)
	if err != nil {
		return err
	}

	validation, err := p.Validate(ctx, eval)
	if err != nil {
		return err
	}
	res.Validation = validation
	res.Evaluation = validation.Evaluation

	rep, err := p.Report(ctx, res.Resume, res.Evaluation)
	if err != nil {
		return err
	}
	res.Report = rep
	return nil
}

// ExtractResume runs the resume extraction stage alone.
func (p *Pipeline) ExtractResume(ctx context.Context, text string) (types.ResumeRecord, *ai.TokenUsage, error) {
	var rec types.ResumeRecord
	var usage *ai.TokenUsage
	err := p.stage(ctx, StageExtraction, func(ctx context.Context) error {
		if p.extractor == nil {
			return &ai.Error{Code: ai.ExtractionFailed, Operation: config.OpExtractResume, Cause: ai.ErrUnsupported}
		}
		var err error
		rec, usage, err = p.extractor.ExtractResume(ctx, text)
		return err
	})
	return rec, usage, err
}

// ExtractJob runs the job description extraction stage alone.
func (p *Pipeline) ExtractJob(ctx context.Context, text string) (types.JobDescription, *ai.TokenUsage, error) {
	var job types.JobDescription
	var usage *ai.TokenUsage
	err := p.stage(ctx, StageExtraction, func(ctx context.Context) error {
		if p.extractor == nil {
			return &ai.Error{Code: ai.ExtractionFailed, Operation: config.OpExtractJob, Cause: ai.ErrUnsupported}
		}
		var err error
		job, usage, err = p.extractor.ExtractJob(ctx, text)
		return err
	})
	return job, usage, err
}

// Score runs the scoring stage alone.
func (p *Pipeline) Score(ctx context.Context, resume types.ResumeRecord, job types.JobDescription, r *rubric.Rubric) (types.MatchEvaluation, error) {
	var eval types.MatchEvaluation
	err := p.stage(ctx, StageScoring, func(ctx context.Context) error {
		var err error
		eval, err = p.computer.Compute(resume, job, r)
		if err == nil {
			p.log(ctx).Info("Evaluation scored",
				"candidate", resume.Contact.FullName.String(),
				"sections", len(eval.Sections),
				"normalized_score", eval.Summary.NormalizedScore)
		}
		return err
	})
	return eval, err
}

// Validate runs the validation stage alone. The result carries the stamped evaluation.
func (p *Pipeline) Validate(ctx context.Context, eval types.MatchEvaluation) (validator.ValidationResult, error) {
	var result validator.ValidationResult
	err := p.stage(ctx, StageValidation, func(ctx context.Context) error {
		var err error
		result, err = p.validator.Validate(eval)
		if err == nil {
			p.log(ctx).Info("Evaluation validated",
				"total_weighted_score", result.RecomputedTotal,
				"weight_sum", result.WeightSum)
		}
		return err
	})
	return result, err
}

// Report runs the synthesis stage alone. eval must carry a valid validation stamp.
func (p *Pipeline) Report(ctx context.Context, resume types.ResumeRecord, eval types.MatchEvaluation) (types.Report, error) {
	var rep types.Report
	err := p.stage(ctx, StageSynthesis, func(ctx context.Context) error {
		var err error
		rep, err = p.synthesizer.Synthesize(resume, eval)
		if err == nil {
			p.log(ctx).Info("Report synthesized",
				"candidate", rep.ExecutiveSummary.CandidateName.String(),
				"overall_score", rep.ExecutiveSummary.OverallScore,
				"recommendation", rep.ExecutiveSummary.OverallRecommendation)
		}
		return err
	})
	return rep, err
}

// log scopes the pipeline logger to the run in ctx
func (p *Pipeline) log(ctx context.Context) *hirescoreErrors.Logger {
	if id := RunIDFrom(ctx); id != "" {
		return p.logger.With("run_id", id)
	}
	return p.logger
}

// stage runs fn inside a span, records its duration and wraps its failure
func (p *Pipeline) stage(ctx context.Context, name Stage, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+string(name))
	defer span.End()

	p.log(ctx).Debug("Stage started", "stage", name)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		kind := kindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		p.metrics.RecordStage(ctx, string(name), duration, kind)
		p.log(ctx).Debug("Stage failed", "stage", name, "kind", kind, "duration", duration)
		return &Error{Stage: name, Err: err}
	}

	p.metrics.RecordStage(ctx, string(name), duration, "")
	return nil
}
