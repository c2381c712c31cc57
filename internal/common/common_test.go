package common

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hirescore/internal/ai"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/formatters"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
	"hirescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structuredResume = `{
  "contact_information": {"full_name": "Dana Smith"},
  "education": [{"degree": "BSc Computer Science", "institution": "State University"}],
  "work_experience": [
    {"job_title": "Backend Engineer", "company": "Acme", "start_date": "2023-01", "end_date": "2024-01"}
  ],
  "skills": {"technical": ["Go", "go", "SQL"]},
  "languages": [],
  "certifications": [],
  "projects": [],
  "analysis_summary": {}
}`

const structuredJob = `{
  "job_title": "Backend Engineer",
  "critical_requirements": ["Go services"],
  "required_skills": ["Go", " SQL "]
}`

type stubExtractor struct {
	resumeCalls int
	jobCalls    int
}

func (s *stubExtractor) ExtractResume(_ context.Context, text string) (types.ResumeRecord, *ai.TokenUsage, error) {
	s.resumeCalls++
	return types.ResumeRecord{Contact: types.ContactInformation{FullName: types.Some(text)}},
		&ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (s *stubExtractor) ExtractJob(_ context.Context, text string) (types.JobDescription, *ai.TokenUsage, error) {
	s.jobCalls++
	return types.JobDescription{Text: text}, nil, nil
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newLoader(t *testing.T, extractor ai.Extractor) *InputLoader {
	t.Helper()
	registry, err := schema.Default()
	require.NoError(t, err)
	loader := NewInputLoader(NewFileProcessor(hirescoreErrors.Discard(), 0), registry, extractor, hirescoreErrors.Discard())
	loader.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }
	return loader
}

func TestInputLoaderStructuredRecords(t *testing.T) {
	extractor := &stubExtractor{}
	loader := newLoader(t, extractor)
	ctx := context.Background()

	rec, usage, err := loader.Resume(ctx, writeInput(t, "resume.json", structuredResume))
	require.NoError(t, err)
	assert.Nil(t, usage)
	assert.Equal(t, "Dana Smith", rec.Contact.FullName.Or(""))
	assert.Equal(t, []string{"Go", "SQL"}, rec.Skills.Technical)
	require.Len(t, rec.WorkExperience, 1)
	assert.Equal(t, 12, rec.WorkExperience[0].DurationMonths.Or(-1))

	job, usage, err := loader.Job(ctx, writeInput(t, "job.json", structuredJob))
	require.NoError(t, err)
	assert.Nil(t, usage)
	assert.Equal(t, "Backend Engineer", job.Requirements.Title.Or(""))
	assert.Equal(t, []string{"Go", "SQL"}, job.Requirements.RequiredSkills)

	assert.Zero(t, extractor.resumeCalls+extractor.jobCalls)
}

func TestInputLoaderExtractsText(t *testing.T) {
	extractor := &stubExtractor{}
	loader := newLoader(t, extractor)

	rec, usage, err := loader.Resume(context.Background(), writeInput(t, "resume.txt", "Dana Smith"))
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", rec.Contact.FullName.Or(""))
	assert.Equal(t, int64(15), usage.TotalTokens)
	assert.Equal(t, 1, extractor.resumeCalls)

	_, _, err = loader.Job(context.Background(), writeInput(t, "job.txt", "We hire Go engineers"))
	require.NoError(t, err)
	assert.Equal(t, 1, extractor.jobCalls)
}

func TestInputLoaderFailures(t *testing.T) {
	loader := newLoader(t, nil)
	ctx := context.Background()

	_, _, err := loader.Resume(ctx, writeInput(t, "resume.txt", "plain prose"))
	var appErr *hirescoreErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, hirescoreErrors.ErrCodeInvalidRequest, appErr.Code)

	_, _, err = loader.Job(ctx, writeInput(t, "job.json", `{"job_title": "No skills"}`))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, hirescoreErrors.ErrCodeSchemaViolation, appErr.Code)
	var violation *schema.ViolationError
	assert.True(t, errors.As(err, &violation))

	_, _, err = loader.Resume(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_INPUT_FILE", appErr.Code)
}

func TestInputLoaderRubric(t *testing.T) {
	loader := newLoader(t, nil)

	r, err := loader.Rubric("")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = loader.Rubric(writeInput(t, "rubric.yaml", "sections:\n  - name: Skills\n    weight: 70\n  - name: Experience\n    weight: 30\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = loader.Rubric(writeInput(t, "rubric.yaml", "sections:\n  - name: Skills\n    weight: 70\n"))
	kind, ok := rubric.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rubric.WeightSumMismatch, kind)
}

func TestRunStageCommand(t *testing.T) {
	var out bytes.Buffer
	cfg := CommandConfig{OutputFormat: formatters.FormatJSON}

	err := RunStageCommand(context.Background(), hirescoreErrors.Discard(), cfg, &out,
		func(context.Context) (map[string]int, *ai.TokenUsage, error) {
			return map[string]int{"score": 8}, &ai.TokenUsage{TotalTokens: 3}, nil
		})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 8}`, out.String())

	out.Reset()
	boom := errors.New("boom")
	err = RunStageCommand(context.Background(), hirescoreErrors.Discard(), cfg, &out,
		func(context.Context) (map[string]int, *ai.TokenUsage, error) {
			return nil, nil, boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

func TestRunStageCommandWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "result.json")
	var out bytes.Buffer
	cfg := CommandConfig{OutputFile: target, OutputFormat: formatters.FormatJSON}

	err := RunStageCommand(context.Background(), hirescoreErrors.Discard(), cfg, &out,
		func(context.Context) ([]string, *ai.TokenUsage, error) {
			return []string{"a"}, nil, nil
		})
	require.NoError(t, err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(data))
}

func TestResolveOutputFormat(t *testing.T) {
	tests := []struct {
		format, file, def, want string
	}{
		{"MARKDOWN", "out.json", "text", "markdown"},
		{"", "out.json", "text", "json"},
		{"", "report.md", "json", "markdown"},
		{"", "report.TXT", "json", "text"},
		{"", "", "json", "json"},
		{"", "report.html", "text", "text"},
	}
	for _, tt := range tests {
		if got := ResolveOutputFormat(tt.format, tt.file, tt.def); got != tt.want {
			t.Errorf("ResolveOutputFormat(%q, %q, %q) = %q, want %q", tt.format, tt.file, tt.def, got, tt.want)
		}
	}
}

func TestReadDocument(t *testing.T) {
	fp := NewFileProcessor(hirescoreErrors.Discard(), 64)

	text, err := fp.ReadDocument(writeInput(t, "resume.txt", "\ufeffDana Smith\r\nBackend Engineer\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith\nBackend Engineer\n", text)

	var appErr *hirescoreErrors.AppError
	_, err = fp.ReadDocument(writeInput(t, "resume.pdf", "%PDF-1.7\x00\x01\x02"))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BINARY_INPUT_FILE", appErr.Code)

	_, err = fp.ReadDocument(writeInput(t, "long.txt", string(bytes.Repeat([]byte("a"), 65))))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_INPUT_FILE", appErr.Code)

	assert.Equal(t, int64(10<<20), NewFileProcessor(hirescoreErrors.Discard(), 0).MaxSize())
}
