package report

import (
	"fmt"

	"hirescore/internal/types"
)

// Recommendation thresholds on the normalized 0-10 score
const (
	StronglyRecommendedAt      = 8.5
	RecommendedAt              = 6.5
	ConditionallyRecommendedAt = 4.5
)

var bands = []struct {
	min float64
	rec types.Recommendation
}{
	{StronglyRecommendedAt, types.StronglyRecommended},
	{RecommendedAt, types.Recommended},
	{ConditionallyRecommendedAt, types.ConditionallyRecommended},
}

// RecommendationFor maps a normalized score to its recommendation band.
func RecommendationFor(score float64) types.Recommendation {
	for _, b := range bands {
		if score >= b.min {
			return b.rec
		}
	}
	return types.NotRecommended
}

// PerformanceLevel labels a 0-10 section score.
func PerformanceLevel(score float64) string {
	switch {
	case score >= 9:
		return types.PerformanceExcellent
	case score >= 7:
		return types.PerformanceGood
	case score >= 5:
		return types.PerformanceSatisfactory
	case score >= 3:
		return types.PerformanceNeedsImprovement
	default:
		return types.PerformancePoor
	}
}

// Confidence grades how much of the rubric is backed by extracted evidence:
// HIGH when at least 80% of the weight has evidence, MEDIUM from 50%, LOW below.
func Confidence(eval types.MatchEvaluation) string {
	covered, total := 0.0, 0.0
	for _, s := range eval.Sections {
		total += s.WeightPercentage
		if len(s.CandidateEvidence) > 0 {
			covered += s.WeightPercentage
		}
	}
	if total == 0 {
		return types.ConfidenceLow
	}
	switch ratio := covered / total; {
	case ratio >= 0.8:
		return types.ConfidenceHigh
	case ratio >= 0.5:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// Sensitivity states how far score sits from the threshold of its own band and
// from the next band up.
func Sensitivity(score float64) string {
	rec := RecommendationFor(score)
	for i, b := range bands {
		if b.rec != rec {
			continue
		}
		note := fmt.Sprintf("Score %.2f is %.2f above the %s threshold (%.1f)", score, score-b.min, b.rec, b.min)
		if i > 0 {
			next := bands[i-1]
			note += fmt.Sprintf(" and %.2f below %s (%.1f)", next.min-score, next.rec, next.min)
		}
		return note + "."
	}
	last := bands[len(bands)-1]
	return fmt.Sprintf("Score %.2f is %.2f below the %s threshold (%.1f).", score, last.min-score, last.rec, last.min)
}
