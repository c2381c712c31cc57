package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageFailure struct{}

func (stageFailure) Error() string { return "weights sum to 90" }
func (stageFailure) Stage() string { return "rubric" }
func (stageFailure) Kind() string  { return "WeightSumMismatch" }

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelInfo).With("run_id", "run-7")

	err := NewValidationError(ErrCodeSchemaViolation, "resume.json does not match its record schema", stageFailure{}).
		WithContext("file", "resume.json")
	logger.LogError(fmt.Errorf("score: %w", err), "Command failed")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "run-7", rec["run_id"])
	assert.Equal(t, "validation", rec["error_type"])
	assert.Equal(t, ErrCodeSchemaViolation, rec["error_code"])
	assert.Equal(t, "resume.json", rec["file"])
	assert.Equal(t, "rubric", rec["stage"])
	assert.Equal(t, "WeightSumMismatch", rec["kind"])

	logger.LogError(fmt.Errorf("plain failure"), "Command failed", "attempt", 2)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "plain failure", rec["error"])
	assert.EqualValues(t, 2, rec["attempt"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("ignored")
		logger.Debug("ignored")
		logger.Warn("ignored")
		logger.LogError(fmt.Errorf("ignored"), "ignored")
		assert.Nil(t, logger.With("k", "v"))
	})
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
	_, err := New("verbose")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestAppErrorChain(t *testing.T) {
	cause := stageFailure{}
	err := NewConfigError(ErrCodeMissingAPIKey, "AI API key is required", cause)
	assert.Equal(t, "MISSING_API_KEY: AI API key is required (caused by: weights sum to 90)", err.Error())

	se, ok := AsStageError(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, "rubric", se.Stage())

	_, ok = AsStageError(NewIOError(ErrCodeFileNotFound, "missing", nil))
	assert.False(t, ok)
}
