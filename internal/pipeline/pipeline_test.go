package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hirescore/internal/ai"
	"hirescore/internal/observability"
	"hirescore/internal/report"
	"hirescore/internal/rubric"
	"hirescore/internal/scoring"
	"hirescore/internal/types"
	"hirescore/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type stubExtractor struct {
	resume    types.ResumeRecord
	job       types.JobDescription
	resumeErr error
	jobErr    error
}

func (s stubExtractor) ExtractResume(context.Context, string) (types.ResumeRecord, *ai.TokenUsage, error) {
	if s.resumeErr != nil {
		return types.ResumeRecord{}, nil, s.resumeErr
	}
	return s.resume, &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (s stubExtractor) ExtractJob(context.Context, string) (types.JobDescription, *ai.TokenUsage, error) {
	if s.jobErr != nil {
		return types.JobDescription{}, nil, s.jobErr
	}
	return s.job, &ai.TokenUsage{InputTokens: 60, OutputTokens: 20, TotalTokens: 80}, nil
}

type stubGenerator struct {
	data  string
	calls int
}

func (g *stubGenerator) GenerateRubric(context.Context, types.JobDescription) ([]byte, error) {
	g.calls++
	return []byte(g.data), nil
}

func sampleResume() types.ResumeRecord {
	return types.ResumeRecord{
		Contact: types.ContactInformation{FullName: types.Some("Dana Smith")},
		Education: []types.Education{
			{Degree: types.Some("BSc Computer Science"), Institution: types.Some("State University")},
		},
		WorkExperience: []types.WorkExperience{
			{
				JobTitle:         types.Some("Senior Backend Engineer"),
				Company:          types.Some("Acme"),
				DurationMonths:   types.MonthsOf(48),
				Responsibilities: []string{"Designed event-driven services on Kubernetes"},
				Achievements:     []string{"Cut p99 latency by 40%"},
			},
			{
				JobTitle:       types.Some("Software Engineer"),
				Company:        types.Some("Initech"),
				DurationMonths: types.MonthsOf(24),
			},
		},
		Skills: types.Skills{
			Technical:  []string{"Go", "Kubernetes", "PostgreSQL"},
			SoftSkills: []string{"Communication"},
		},
		Summary: types.AnalysisSummary{TotalExperienceMonths: types.MonthsOf(72)},
	}
}

func sampleJob() types.JobDescription {
	return types.JobDescription{
		Text: "Senior Go engineer",
		Requirements: types.JobRequirements{
			Title:               types.Some("Senior Go Engineer"),
			RequiredSkills:      []string{"Go", "Kubernetes", "PostgreSQL"},
			MinExperienceMonths: types.MonthsOf(48),
			RequiredDegree:      types.Some("Bachelor's degree"),
		},
	}
}

func threeSectionRubric(t *testing.T) *rubric.Rubric {
	t.Helper()
	r, err := rubric.Normalize([]rubric.SectionSpec{
		{Name: "Skills", Weight: 50},
		{Name: "Experience", Weight: 30},
		{Name: "Education", Weight: 20},
	})
	require.NoError(t, err)
	return r
}

func newPipeline(extractor ai.Extractor, resolver *rubric.Resolver) *Pipeline {
	return New(extractor, resolver, Config{
		Scoring: scoring.DefaultPolicy(),
		Report:  report.DefaultOptions(),
	})
}

func TestRunFullMatch(t *testing.T) {
	p := newPipeline(stubExtractor{resume: sampleResume(), job: sampleJob()}, nil)

	res, err := p.Run(context.Background(), Input{
		ResumeText: "resume",
		JobText:    "job",
		Rubric:     threeSectionRubric(t),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, rubric.SourceExplicit, res.RubricSource)
	assert.Equal(t, ai.TokenUsage{InputTokens: 160, OutputTokens: 70, TotalTokens: 230}, res.Usage)

	score := res.Evaluation.Summary.NormalizedScore
	assert.Equal(t, 10.0, score)
	assert.Equal(t, score, res.Report.ExecutiveSummary.OverallScore)
	assert.Equal(t, types.StronglyRecommended, res.Report.ExecutiveSummary.OverallRecommendation)

	require.NotNil(t, res.Evaluation.Validation)
	assert.True(t, res.Evaluation.Validation.Passed)
	assert.NoError(t, validator.Verify(res.Evaluation))
	assert.True(t, res.Validation.Valid)
}

func TestRunUsesResolvedRubric(t *testing.T) {
	t.Run("default when nothing can be generated", func(t *testing.T) {
		p := newPipeline(stubExtractor{resume: sampleResume(), job: sampleJob()}, nil)

		res, err := p.Run(context.Background(), Input{ResumeText: "resume", JobText: "job"})
		require.NoError(t, err)
		assert.Equal(t, rubric.SourceDefault, res.RubricSource)
		assert.Equal(t, rubric.Default().Len(), len(res.Evaluation.Sections))
	})

	t.Run("generated", func(t *testing.T) {
		gen := &stubGenerator{data: `{"sections": [{"section": "Go", "weight": 70, "category": "skills"}, {"section": "Experience", "weight": 30}]}`}
		resolver := rubric.NewResolver(nil, nil, gen, nil)
		p := newPipeline(stubExtractor{resume: sampleResume(), job: sampleJob()}, resolver)

		res, err := p.Run(context.Background(), Input{ResumeText: "resume", JobText: "job"})
		require.NoError(t, err)
		assert.Equal(t, rubric.SourceGenerated, res.RubricSource)
		assert.Len(t, res.Evaluation.Sections, 2)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("generated rubric with bad weights", func(t *testing.T) {
		gen := &stubGenerator{data: `{"sections": [{"section": "A", "weight": 60}, {"section": "B", "weight": 30}]}`}
		resolver := rubric.NewResolver(nil, nil, gen, nil)
		p := newPipeline(stubExtractor{resume: sampleResume(), job: sampleJob()}, resolver)

		_, err := p.Run(context.Background(), Input{ResumeText: "resume", JobText: "job"})
		stage, ok := StageOf(err)
		require.True(t, ok)
		assert.Equal(t, StageRubric, stage)

		kind, ok := rubric.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, rubric.WeightSumMismatch, kind)
	})
}

func TestRunExtractionFailure(t *testing.T) {
	extractErr := &ai.Error{Code: ai.ExtractionTimeout, Operation: "extractResume", Cause: context.DeadlineExceeded}
	p := newPipeline(stubExtractor{resumeErr: extractErr}, nil)

	res, err := p.Run(context.Background(), Input{ResumeText: "resume", JobText: "job"})
	assert.Nil(t, res)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageExtraction, pe.Stage)
	assert.Equal(t, string(ai.ExtractionTimeout), pe.Kind())

	kind, ok := ai.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ai.ExtractionTimeout, kind)
}

func TestRunWithoutExtractor(t *testing.T) {
	p := newPipeline(nil, nil)

	_, err := p.Run(context.Background(), Input{ResumeText: "resume", JobText: "job"})
	assert.ErrorIs(t, err, ai.ErrUnsupported)
}

func TestEvaluateEmptyResume(t *testing.T) {
	p := newPipeline(nil, nil)
	r, err := rubric.Normalize([]rubric.SectionSpec{{Name: "Skills", Weight: 100}})
	require.NoError(t, err)

	resume := types.ResumeRecord{Contact: types.ContactInformation{FullName: types.Some("Nobody")}}
	_, err = p.Evaluate(context.Background(), resume, sampleJob(), r)

	stage, _ := StageOf(err)
	assert.Equal(t, StageScoring, stage)

	var serr *scoring.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, scoring.EmptyResume, serr.Code)
}

func TestReportRequiresValidatedEvaluation(t *testing.T) {
	p := newPipeline(nil, nil)
	ctx := context.Background()

	eval, err := p.Score(ctx, sampleResume(), sampleJob(), threeSectionRubric(t))
	require.NoError(t, err)

	_, err = p.Report(ctx, sampleResume(), eval)
	var rerr *report.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, report.MissingUpstreamScore, rerr.Code)

	validated, err := p.Validate(ctx, eval)
	require.NoError(t, err)

	rep, err := p.Report(ctx, sampleResume(), validated.Evaluation)
	require.NoError(t, err)
	assert.Equal(t, eval.Summary.NormalizedScore, rep.ExecutiveSummary.OverallScore)
}

func TestValidateRejectsDrift(t *testing.T) {
	p := newPipeline(nil, nil)
	ctx := context.Background()

	eval, err := p.Score(ctx, sampleResume(), sampleJob(), threeSectionRubric(t))
	require.NoError(t, err)
	eval.Summary.TotalWeightedScore += 1

	_, err = p.Validate(ctx, eval)
	stage, _ := StageOf(err)
	assert.Equal(t, StageValidation, stage)

	var inc *validator.Inconsistency
	assert.ErrorAs(t, err, &inc)
}

func TestRunIDPropagation(t *testing.T) {
	p := newPipeline(nil, nil)
	ctx := WithRunID(context.Background(), "req-42")

	res, err := p.Evaluate(ctx, sampleResume(), sampleJob(), threeSectionRubric(t))
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.RunID)
}

func TestConcurrentEvaluationsAreIdentical(t *testing.T) {
	p := newPipeline(nil, nil)
	r := threeSectionRubric(t)

	const runs = 8
	results := make([]types.MatchEvaluation, runs)
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Evaluate(context.Background(), sampleResume(), sampleJob(), r)
			errs[i] = err
			if err == nil {
				results[i] = res.Evaluation
			}
		}()
	}
	wg.Wait()

	for i := range runs {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestPipelineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	metrics, err := observability.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	p := New(nil, nil, Config{Metrics: metrics})
	ctx := context.Background()

	_, err = p.Evaluate(ctx, sampleResume(), sampleJob(), threeSectionRubric(t))
	require.NoError(t, err)
	_, err = p.Evaluate(ctx, types.ResumeRecord{}, sampleJob(), threeSectionRubric(t))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	outcomes := map[string]int64{}
	stageErrors := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "hirescore_evaluations_total":
					v, _ := dp.Attributes.Value("outcome")
					outcomes[v.AsString()] += dp.Value
				case "hirescore_stage_errors_total":
					v, _ := dp.Attributes.Value("kind")
					stageErrors[v.AsString()] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, map[string]int64{"success": 1, "failure": 1}, outcomes)
	assert.Equal(t, map[string]int64{string(scoring.EmptyResume): 1}, stageErrors)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "Timeout", (&Error{Stage: StageExtraction, Err: context.DeadlineExceeded}).Kind())
	assert.Equal(t, "Canceled", (&Error{Stage: StageExtraction, Err: context.Canceled}).Kind())
	assert.Equal(t, "Failed", (&Error{Stage: StageRubric, Err: errors.New("boom")}).Kind())
	assert.Contains(t, (&Error{Stage: StageScoring, Err: errors.New("boom")}).Error(), "scoring stage failed")
}
