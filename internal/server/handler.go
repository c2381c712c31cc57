package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
	"hirescore/internal/types"
)

// EvaluateRequest runs the whole pipeline. Each document is given either as
// raw text or as an already structured record; the record wins when both are set.
type EvaluateRequest struct {
	Resume          string          `json:"resume,omitempty"`
	Job             string          `json:"job,omitempty"`
	ResumeRecord    json.RawMessage `json:"resume_record,omitempty"`
	JobRequirements json.RawMessage `json:"job_requirements,omitempty"`
	Rubric          json.RawMessage `json:"rubric,omitempty"`
}

// ExtractRequest carries one raw document
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse is the record produced by an extraction endpoint
type ExtractResponse struct {
	Record any            `json:"record"`
	Usage  *ai.TokenUsage `json:"token_usage,omitempty"`
}

// ScoreRequest scores structured records. Without a rubric the configured
// resolution order applies.
type ScoreRequest struct {
	ResumeRecord    json.RawMessage `json:"resume_record"`
	JobRequirements json.RawMessage `json:"job_requirements"`
	Rubric          json.RawMessage `json:"rubric,omitempty"`
}

// ValidateRequest carries an evaluation to reconcile
type ValidateRequest struct {
	Evaluation json.RawMessage `json:"evaluation"`
}

// ReportRequest carries the inputs of report synthesis
type ReportRequest struct {
	ResumeRecord json.RawMessage `json:"resume_record"`
	Evaluation   json.RawMessage `json:"evaluation"`
}

// runContext attaches the caller's request ID as the run ID and echoes it back
func runContext(w http.ResponseWriter, r *http.Request) context.Context {
	ctx := r.Context()
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" {
		ctx = pipeline.WithRunID(ctx, id)
		w.Header().Set("X-Run-ID", id)
	}
	return ctx
}

func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	hasResume := len(req.ResumeRecord) > 0 || strings.TrimSpace(req.Resume) != ""
	hasJob := len(req.JobRequirements) > 0 || strings.TrimSpace(req.Job) != ""
	if !hasResume || !hasJob {
		writeErrorResponse(w, KindInvalidRequest, "resume (or resume_record) and job (or job_requirements) are required", http.StatusBadRequest)
		return
	}

	explicit, err := s.decodeRubric(req.Rubric)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}

	ctx := runContext(w, r)

	if len(req.ResumeRecord) == 0 && len(req.JobRequirements) == 0 {
		res, err := s.pipeline.Run(ctx, pipeline.Input{ResumeText: req.Resume, JobText: req.Job, Rubric: explicit})
		if err != nil {
			s.writeStageError(w, r, err)
			return
		}
		w.Header().Set("X-Run-ID", res.RunID)
		writeJSON(w, http.StatusOK, res)
		return
	}

	var usage ai.TokenUsage

	resume, err := s.decodeResume(req.ResumeRecord)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	if len(req.ResumeRecord) == 0 {
		rec, u, err := s.pipeline.ExtractResume(ctx, req.Resume)
		if err != nil {
			s.writeStageError(w, r, err)
			return
		}
		resume = rec
		usage.Add(u)
	}

	job, err := s.decodeJob(req.JobRequirements)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	if len(req.JobRequirements) == 0 {
		extracted, u, err := s.pipeline.ExtractJob(ctx, req.Job)
		if err != nil {
			s.writeStageError(w, r, err)
			return
		}
		job = extracted
		usage.Add(u)
	}

	res, err := s.pipeline.Evaluate(ctx, resume, job, explicit)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	res.Usage.Add(&usage)
	w.Header().Set("X-Run-ID", res.RunID)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) extractResumeHandler(w http.ResponseWriter, r *http.Request) {
	text, ok := s.extractText(w, r)
	if !ok {
		return
	}
	rec, usage, err := s.pipeline.ExtractResume(runContext(w, r), text)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Record: rec, Usage: usage})
}

func (s *Server) extractJobHandler(w http.ResponseWriter, r *http.Request) {
	text, ok := s.extractText(w, r)
	if !ok {
		return
	}
	job, usage, err := s.pipeline.ExtractJob(runContext(w, r), text)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Record: job, Usage: usage})
}

func (s *Server) extractText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ExtractRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErrorResponse(w, KindInvalidRequest, "text field is required", http.StatusBadRequest)
		return "", false
	}
	return req.Text, true
}

func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.ResumeRecord) == 0 || len(req.JobRequirements) == 0 {
		writeErrorResponse(w, KindInvalidRequest, "resume_record and job_requirements are required", http.StatusBadRequest)
		return
	}

	resume, err := s.decodeResume(req.ResumeRecord)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	job, err := s.decodeJob(req.JobRequirements)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	explicit, err := s.decodeRubric(req.Rubric)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}

	ctx := runContext(w, r)
	resolved, _, err := s.pipeline.ResolveRubric(ctx, job, explicit)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}

	eval, err := s.pipeline.Score(ctx, resume, job, resolved)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	eval, err := s.decodeEvaluation(req.Evaluation)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}

	result, err := s.pipeline.Validate(runContext(w, r), eval)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	resume, err := s.decodeResume(req.ResumeRecord)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	eval, err := s.decodeEvaluation(req.Evaluation)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}

	ctx := runContext(w, r)
	result, err := s.pipeline.Validate(ctx, eval)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	rep, err := s.pipeline.Report(ctx, resume, result.Evaluation)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// normalizeRubricHandler accepts a rubric document as YAML or JSON and returns its canonical form
func (s *Server) normalizeRubricHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeErrorResponse(w, KindInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	normalized, err := rubric.Load(body)
	if err != nil {
		s.writeStageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, normalized)
}

func (s *Server) currentRubricHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Current())
}

func (s *Server) decodeResume(raw json.RawMessage) (types.ResumeRecord, error) {
	if len(raw) == 0 {
		return types.ResumeRecord{}, nil
	}
	rec, err := schema.Decode[types.ResumeRecord](s.registry, schema.KindResume, raw)
	if err != nil {
		return types.ResumeRecord{}, err
	}
	return schema.NormalizeResume(rec, time.Now()), nil
}

func (s *Server) decodeJob(raw json.RawMessage) (types.JobDescription, error) {
	if len(raw) == 0 {
		return types.JobDescription{}, nil
	}
	req, err := schema.Decode[types.JobRequirements](s.registry, schema.KindJobRequirements, raw)
	if err != nil {
		return types.JobDescription{}, err
	}
	return types.JobDescription{Requirements: schema.NormalizeJob(req)}, nil
}

func (s *Server) decodeEvaluation(raw json.RawMessage) (types.MatchEvaluation, error) {
	if len(raw) == 0 {
		return types.MatchEvaluation{}, &schema.ViolationError{SchemaKind: schema.KindMatchEvaluation, Problems: []string{"evaluation is required"}}
	}
	return schema.Decode[types.MatchEvaluation](s.registry, schema.KindMatchEvaluation, raw)
}

// decodeRubric normalizes an inline rubric; an absent rubric yields nil
func (s *Server) decodeRubric(raw json.RawMessage) (*rubric.Rubric, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return rubric.Load(raw)
}
