// Package validator cross-checks the arithmetic of a match evaluation and stamps
// evaluations that reconcile, so later stages can tell a validated evaluation apart.
package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"hirescore/internal/rubric"
	"hirescore/internal/types"
)

// ErrNotValidated is returned by Verify for evaluations without a valid stamp.
var ErrNotValidated = errors.New("evaluation has not passed validation")

// ValidationResult describes one validation run. Evaluation is the stamped copy
// and is only set when Valid is true.
type ValidationResult struct {
	Valid           bool                  `json:"valid"`
	StatedTotal     float64               `json:"stated_total"`
	RecomputedTotal float64               `json:"recomputed_total"`
	WeightSum       float64               `json:"weight_sum"`
	Issues          []Issue               `json:"issues"`
	Evaluation      types.MatchEvaluation `json:"evaluation"`
}

// Validator checks evaluations against a fixed tolerance
type Validator struct {
	tolerance float64
}

// New creates a validator. A non-positive tolerance uses the rubric tolerance.
func New(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = rubric.Tolerance
	}
	return &Validator{tolerance: tolerance}
}

// Validate checks eval with the default tolerance.
func Validate(eval types.MatchEvaluation) (ValidationResult, error) {
	return New(rubric.Tolerance).Validate(eval)
}

// Validate recomputes the weighted total and the weight sum independently and compares
// them with the stated values. Every section is checked for range, arithmetic and
// supporting evidence. All issues are collected; any issue fails the evaluation with
// an *Inconsistency. A stamp already present on eval is ignored and replaced.
func (v *Validator) Validate(eval types.MatchEvaluation) (ValidationResult, error) {
	eval = unstamped(eval)

	res := ValidationResult{
		StatedTotal: eval.Summary.TotalWeightedScore,
		Issues:      []Issue{},
	}
	add := func(kind IssueKind, section, format string, args ...any) {
		res.Issues = append(res.Issues, Issue{Kind: kind, Section: section, Detail: fmt.Sprintf(format, args...)})
	}

	for _, s := range eval.Sections {
		if s.SectionScore < 0 || s.SectionScore > 10 || math.IsNaN(s.SectionScore) {
			add(ScoreOutOfRange, s.SectionName, "section score %g outside [0,10]", s.SectionScore)
		}
		if s.WeightPercentage < 0 || s.WeightPercentage > 100 || math.IsNaN(s.WeightPercentage) {
			add(ScoreOutOfRange, s.SectionName, "weight %g outside [0,100]", s.WeightPercentage)
		}
		expected := s.SectionScore * s.WeightPercentage / 100
		if !v.within(s.WeightedScore, expected) {
			add(SectionArithmetic, s.SectionName, "weighted score %g, expected %g (%g x %g%%)",
				s.WeightedScore, expected, s.SectionScore, s.WeightPercentage)
		}
		if s.SectionScore > 0 && len(s.CandidateEvidence) == 0 {
			add(EvidenceScoreInconsistency, s.SectionName, "section scores %g without supporting evidence", s.SectionScore)
		}
		res.RecomputedTotal += s.WeightedScore
		res.WeightSum += s.WeightPercentage
	}
	res.RecomputedTotal = round4(res.RecomputedTotal)
	res.WeightSum = round4(res.WeightSum)

	if !v.within(res.RecomputedTotal, res.StatedTotal) {
		add(ArithmeticDrift, "", "stated total %g, sections sum to %g", res.StatedTotal, res.RecomputedTotal)
	}
	if !v.within(res.WeightSum, 100) {
		add(WeightDrift, "", "section weights sum to %g, expected 100 (±%g)", res.WeightSum, v.tolerance)
	} else if !eval.Summary.WeightsValidation {
		add(WeightDrift, "", "weights reconcile to %g but weights_validation is false", res.WeightSum)
	}

	normalized := eval.Summary.NormalizedScore
	switch {
	case normalized < 0 || normalized > 10 || math.IsNaN(normalized):
		add(NormalizedDrift, "", "normalized score %g outside [0,10]", normalized)
	case !v.within(normalized, math.Min(math.Max(res.StatedTotal, 0), 10)):
		add(NormalizedDrift, "", "normalized score %g does not match total %g", normalized, res.StatedTotal)
	}

	if p := eval.SkillsMatch.MatchPercentage; p < 0 || p > 100 || math.IsNaN(p) {
		add(ScoreOutOfRange, "", "skills match percentage %g outside [0,100]", p)
	}

	if len(res.Issues) > 0 {
		return res, &Inconsistency{Issues: res.Issues}
	}

	digest, err := Digest(eval)
	if err != nil {
		return res, err
	}
	eval.Sections = slices.Clone(eval.Sections)
	eval.Validation = &types.ValidationStamp{Passed: true, Digest: digest}
	res.Valid = true
	res.Evaluation = eval
	return res, nil
}

func (v *Validator) within(a, b float64) bool {
	return math.Abs(a-b) <= v.tolerance+1e-9
}

// Digest returns the hex SHA-256 of the evaluation's JSON encoding with the stamp removed.
func Digest(eval types.MatchEvaluation) (string, error) {
	data, err := json.Marshal(unstamped(eval))
	if err != nil {
		return "", fmt.Errorf("failed to encode evaluation: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks eval with the default tolerance.
func Verify(eval types.MatchEvaluation) error {
	return New(rubric.Tolerance).Verify(eval)
}

// Verify reports whether eval carries a passing stamp whose digest matches its
// content and whose numbers still reconcile. The stamp is an unkeyed digest that
// any caller can compute, so the checks are always re-run.
func (v *Validator) Verify(eval types.MatchEvaluation) error {
	stamp := eval.Validation
	if stamp == nil {
		return fmt.Errorf("%w: no validation stamp", ErrNotValidated)
	}
	if !stamp.Passed {
		return fmt.Errorf("%w: stamp records a failed validation", ErrNotValidated)
	}
	digest, err := Digest(eval)
	if err != nil {
		return err
	}
	if digest != stamp.Digest {
		return fmt.Errorf("%w: evaluation changed after validation", ErrNotValidated)
	}
	if _, err := v.Validate(eval); err != nil {
		return fmt.Errorf("%w: %w", ErrNotValidated, err)
	}
	return nil
}

func unstamped(eval types.MatchEvaluation) types.MatchEvaluation {
	eval.Validation = nil
	return eval
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
