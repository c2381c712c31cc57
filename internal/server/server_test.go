package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/pipeline"
	"hirescore/internal/report"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
	"hirescore/internal/scoring"
	"hirescore/internal/types"
	"hirescore/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeRecord = `{
  "contact_information": {"full_name": "Dana Smith"},
  "education": [{"degree": "BSc Computer Science", "institution": "State University"}],
  "work_experience": [
    {"job_title": "Backend Engineer", "company": "Acme", "duration_months": 48, "responsibilities": ["Built Go services"]}
  ],
  "skills": {"technical": ["Go", "PostgreSQL"]},
  "languages": [],
  "certifications": [],
  "projects": [],
  "analysis_summary": {"total_experience_months": 48}
}`

const jobRequirements = `{
  "job_title": "Backend Engineer",
  "required_skills": ["Go", "PostgreSQL", "Kafka"],
  "min_experience_months": 36
}`

type stubExtractor struct {
	err error
}

func (s stubExtractor) ExtractResume(_ context.Context, text string) (types.ResumeRecord, *ai.TokenUsage, error) {
	if s.err != nil {
		return types.ResumeRecord{}, nil, s.err
	}
	return types.ResumeRecord{
		Contact: types.ContactInformation{FullName: types.Some("Dana Smith")},
		WorkExperience: []types.WorkExperience{
			{JobTitle: types.Some("Backend Engineer"), DurationMonths: types.MonthsOf(48)},
		},
		Skills:  types.Skills{Technical: []string{"Go", "PostgreSQL"}},
		Summary: types.AnalysisSummary{TotalExperienceMonths: types.MonthsOf(48)},
	}, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (s stubExtractor) ExtractJob(_ context.Context, text string) (types.JobDescription, *ai.TokenUsage, error) {
	if s.err != nil {
		return types.JobDescription{}, nil, s.err
	}
	return types.JobDescription{
		Text: text,
		Requirements: types.JobRequirements{
			Title:          types.Some("Backend Engineer"),
			RequiredSkills: []string{"Go", "PostgreSQL", "Kafka"},
		},
	}, &ai.TokenUsage{InputTokens: 4, OutputTokens: 2, TotalTokens: 6}, nil
}

func newTestServer(t *testing.T, cfg config.ServerConfig, extractor ai.Extractor) *Server {
	t.Helper()
	registry, err := schema.Default()
	require.NoError(t, err)

	store := rubric.NewStore(nil)
	p := pipeline.New(extractor, rubric.NewResolver(store, nil, nil, hirescoreErrors.Discard()), pipeline.Config{
		Scoring: scoring.DefaultPolicy(),
		Report:  report.DefaultOptions(),
		Logger:  hirescoreErrors.Discard(),
	})

	s := NewServer(Options{
		Config:   cfg,
		Version:  "test",
		Pipeline: p,
		Registry: registry,
		Store:    store,
		Logger:   hirescoreErrors.Discard(),
	})
	t.Cleanup(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Close()
		}
	})
	return s
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	rubricInfo, ok := body["rubric"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, rubric.Default().Len(), rubricInfo["sections"])
	assert.EqualValues(t, 100, rubricInfo["weight_sum"])
}

func TestEvaluateFromText(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/evaluate", `{"resume":"resume text","job":"job text"}`,
		map[string]string{"X-Request-ID": "req-42"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get("X-Run-ID"))

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "req-42", res.RunID)
	assert.Equal(t, rubric.SourceDefault, res.RubricSource)
	assert.Equal(t, int64(21), res.Usage.TotalTokens)
	assert.True(t, res.Validation.Valid)
	assert.Equal(t, "Dana Smith", res.Report.ExecutiveSummary.CandidateName.Or(""))
}

func TestEvaluateMixedInputs(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	body := `{"resume_record":` + resumeRecord + `,"job":"job text"}`
	rec := do(t, s, http.MethodPost, "/evaluate", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(6), res.Usage.TotalTokens)
	assert.NotEmpty(t, res.RunID)
}

func TestEvaluateRequestErrors(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	tests := []struct {
		name   string
		body   string
		ctype  string
		status int
		kind   string
	}{
		{"missing job", `{"resume":"text"}`, "application/json", http.StatusBadRequest, KindInvalidRequest},
		{"blank resume", `{"resume":"  ","job":"text"}`, "application/json", http.StatusBadRequest, KindInvalidRequest},
		{"wrong content type", `{"resume":"a","job":"b"}`, "text/plain", http.StatusBadRequest, KindInvalidRequest},
		{"bad json", `{"resume":`, "application/json", http.StatusBadRequest, KindInvalidRequest},
		{"unbalanced rubric", `{"resume":"a","job":"b","rubric":{"Skills":60,"Experience":30}}`, "application/json", http.StatusUnprocessableEntity, string(rubric.WeightSumMismatch)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ctype)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}
}

func TestEvaluateExtractionFailure(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{
		err: &ai.Error{Code: ai.ExtractionTimeout, Operation: "extractResume"},
	})

	rec := do(t, s, http.MethodPost, "/evaluate", `{"resume":"a","job":"b"}`, nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, string(ai.ExtractionTimeout), body.Kind)
	assert.Equal(t, string(pipeline.StageExtraction), body.Stage)
	assert.Equal(t, "extractResume", body.Context["operation"])
}

func TestScoreStructuredRecords(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	body := `{"resume_record":` + resumeRecord + `,"job_requirements":` + jobRequirements +
		`,"rubric":{"Skills":60,"Experience":40}}`
	rec := do(t, s, http.MethodPost, "/score", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var eval types.MatchEvaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	require.Len(t, eval.Sections, 2)
	assert.Equal(t, "Skills", eval.Sections[0].SectionName)
	assert.True(t, eval.Summary.WeightsValidation)
	assert.Equal(t, []string{"Kafka"}, eval.SkillsMatch.MissingSkills)
}

func TestScoreRejectsInvalidRecord(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	body := `{"resume_record":{"contact_information":{}},"job_requirements":` + jobRequirements + `}`
	rec := do(t, s, http.MethodPost, "/score", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeError(t, rec)
	assert.Equal(t, "SchemaViolation", errBody.Kind)
	assert.Equal(t, string(schema.KindResume), errBody.Context["schema"])
}

func TestScoreValidateReportChain(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/score",
		`{"resume_record":`+resumeRecord+`,"job_requirements":`+jobRequirements+`}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	evaluation := rec.Body.String()

	rec = do(t, s, http.MethodPost, "/validate", `{"evaluation":`+evaluation+`}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var validation map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validation))
	assert.Equal(t, true, validation["valid"])

	rec = do(t, s, http.MethodPost, "/report",
		`{"resume_record":`+resumeRecord+`,"evaluation":`+evaluation+`}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep types.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "Dana Smith", rep.ExecutiveSummary.CandidateName.Or(""))
}

func TestReportRevalidatesEvaluation(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/score",
		`{"resume_record":`+resumeRecord+`,"job_requirements":`+jobRequirements+`}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var eval types.MatchEvaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	require.NotEmpty(t, eval.Sections)

	// Full marks with no evidence, arithmetic kept consistent and stamped by the caller.
	last := len(eval.Sections) - 1
	eval.Sections[last].CandidateEvidence = []string{}
	eval.Sections[last].SectionScore = 10
	eval.Sections[last].WeightedScore = eval.Sections[last].WeightPercentage / 10
	var total float64
	for _, sec := range eval.Sections {
		total += sec.WeightedScore
	}
	eval.Summary.TotalWeightedScore = total
	eval.Summary.NormalizedScore = math.Min(total, 10)
	digest, err := validator.Digest(eval)
	require.NoError(t, err)
	eval.Validation = &types.ValidationStamp{Passed: true, Digest: digest}

	forged, err := json.Marshal(eval)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPost, "/report",
		`{"resume_record":`+resumeRecord+`,"evaluation":`+string(forged)+`}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decodeError(t, rec)
	assert.Equal(t, "validation", body.Stage)
	assert.Equal(t, "EvidenceScoreInconsistency", body.Kind)
	assert.Contains(t, rec.Body.String(), eval.Sections[last].SectionName)
}

func TestValidateRequiresEvaluation(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/validate", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SchemaViolation", decodeError(t, rec).Kind)
}

func TestRubricEndpoints(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodGet, "/rubric", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current rubric.Rubric
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, rubric.Default().Len(), current.Len())
	assert.InDelta(t, 100, current.WeightSum(), rubric.Tolerance)

	rec = do(t, s, http.MethodPost, "/rubric/normalize", "Skills: 70\nEducation: 30\n", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var normalized rubric.Rubric
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &normalized))
	require.Equal(t, 2, normalized.Len())
	assert.Equal(t, "education", normalized.Sections()[1].Category)

	rec = do(t, s, http.MethodPost, "/rubric/normalize", "Skills: 70\nEducation: 20\n", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "rubric", body.Stage)
	assert.Equal(t, string(rubric.WeightSumMismatch), body.Kind)
	assert.EqualValues(t, 90, body.Context["sum"])
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{APIKeys: []string{"secret-key-123"}}, stubExtractor{})

	rec := do(t, s, http.MethodGet, "/rubric", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/rubric", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/rubric", "", map[string]string{"Authorization": "Bearer secret-key-123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{MaxRequestSize: 16}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/extract/resume", `{"text":"a much longer resume body"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestExtractEndpoints(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{}, stubExtractor{})

	rec := do(t, s, http.MethodPost, "/extract/job", `{"text":"We need Go"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Record types.JobDescription `json:"record"`
		Usage  ai.TokenUsage        `json:"token_usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "We need Go", resp.Record.Text)
	assert.Equal(t, int64(6), resp.Usage.TotalTokens)

	rec = do(t, s, http.MethodPost, "/extract/resume", `{"text":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "Timeout"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, KindRequestCanceled},
		{"unsupported", &ai.Error{Code: ai.ExtractionFailed, Cause: ai.ErrUnsupported}, http.StatusNotImplemented, string(ai.ExtractionFailed)},
		{"backend failure", &ai.Error{Code: ai.ExtractionFailed}, http.StatusBadGateway, string(ai.ExtractionFailed)},
		{"scoring", &scoring.Error{Code: scoring.EmptyResume}, http.StatusUnprocessableEntity, string(scoring.EmptyResume)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := describeError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}
