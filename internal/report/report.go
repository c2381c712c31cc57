// Package report merges a resume record and a validated match evaluation into the
// final decision report. It narrates upstream numbers and never recomputes them.
package report

import (
	"fmt"
	"math"
	"strings"

	"hirescore/internal/scoring"
	"hirescore/internal/types"
	"hirescore/internal/validator"
)

// Options tunes narrative-only heuristics. Nothing here affects a score.
type Options struct {
	ShortTenureMonths int `mapstructure:"shortTenureMonths"`
}

// DefaultOptions returns the standard narrative options.
func DefaultOptions() Options {
	return Options{ShortTenureMonths: 12}
}

// Synthesizer builds reports
type Synthesizer struct {
	opts      Options
	validator *validator.Validator
}

// NewSynthesizer creates a synthesizer; zero option fields take their defaults.
func NewSynthesizer(opts Options) *Synthesizer {
	if opts.ShortTenureMonths <= 0 {
		opts.ShortTenureMonths = DefaultOptions().ShortTenureMonths
	}
	return &Synthesizer{opts: opts, validator: validator.New(0)}
}

// WithValidator sets the validator used to re-check evaluations before synthesis.
func (s *Synthesizer) WithValidator(v *validator.Validator) *Synthesizer {
	if v != nil {
		s.validator = v
	}
	return s
}

// Synthesize builds a report with the default options.
func Synthesize(resume types.ResumeRecord, eval types.MatchEvaluation) (types.Report, error) {
	return NewSynthesizer(DefaultOptions()).Synthesize(resume, eval)
}

// Synthesize merges resume and eval into a report. eval must carry a current
// validation stamp and still pass validation; otherwise it fails with
// MissingUpstreamScore.
func (s *Synthesizer) Synthesize(resume types.ResumeRecord, eval types.MatchEvaluation) (types.Report, error) {
	if err := s.validator.Verify(eval); err != nil {
		return types.Report{}, &Error{Code: MissingUpstreamScore, Cause: err}
	}

	score := eval.Summary.NormalizedScore
	rec := RecommendationFor(score)
	idx := scoring.NewIndex(resume)

	requirements := analyzeRequirements(eval, idx)
	scoringAnalysis := analyzeScoring(eval)
	strengths := analyzeStrengths(resume, eval)
	gaps := s.analyzeGaps(resume, eval, requirements)
	factors := decisionFactors(eval)
	concerns := criticalConcerns(eval, requirements)

	return types.Report{
		ExecutiveSummary: types.ExecutiveSummary{
			CandidateName:         eval.Candidate.Name,
			PositionApplied:       eval.Job.Title,
			OverallRecommendation: rec,
			OverallScore:          score,
			ConfidenceLevel:       Confidence(eval),
			KeyDecisionFactors:    factors,
			CriticalConcerns:      concerns,
			Summary:               recommendationSummary(eval, rec),
		},
		CandidateProfile:     candidateProfile(resume, eval),
		RequirementsAnalysis: requirements,
		ScoringAnalysis:      scoringAnalysis,
		Strengths:            strengths,
		GapsAndRisks:         gaps,
		Outlook:              outlook(rec, eval),
		DecisionRationale: types.DecisionRationale{
			ReasonsFor:     reasonsFor(eval, strengths),
			ReasonsAgainst: concerns,
			Assumptions:    assumptions(eval),
			Sensitivity:    Sensitivity(score),
		},
	}, nil
}

func candidateProfile(resume types.ResumeRecord, eval types.MatchEvaluation) types.CandidateProfile {
	languages := []string{}
	for _, l := range resume.Languages {
		name, ok := l.Language.Get()
		if !ok {
			continue
		}
		if prof, ok := l.Proficiency.Get(); ok {
			name += " (" + prof + ")"
		}
		languages = append(languages, name)
	}
	certs := []string{}
	for _, c := range resume.Certifications {
		if name, ok := c.Name.Get(); ok {
			certs = append(certs, name)
		}
	}
	gaps := resume.Summary.EmploymentGaps
	if gaps == nil {
		gaps = []types.EmploymentGap{}
	}

	return types.CandidateProfile{
		CurrentRole:           eval.Candidate.CurrentRole,
		CareerLevel:           eval.Candidate.CareerLevel,
		TotalExperienceMonths: eval.Candidate.TotalExperienceMonths,
		HighestDegree:         eval.Candidate.HighestDegree,
		CareerProgression:     resume.Summary.CareerProgression,
		EmploymentGaps:        gaps,
		Languages:             languages,
		Certifications:        certs,
	}
}

func assess(items []string, idx *scoring.Index) []types.RequirementAssessment {
	out := make([]types.RequirementAssessment, 0, len(items))
	for _, item := range items {
		label, ok := idx.Find(item)
		a := types.RequirementAssessment{Requirement: item, Met: ok, Evidence: label}
		if !ok {
			a.Evidence = "No matching resume entry"
		}
		out = append(out, a)
	}
	return out
}

func analyzeRequirements(eval types.MatchEvaluation, idx *scoring.Index) types.RequirementsAnalysis {
	ra := types.RequirementsAnalysis{
		Critical:              assess(eval.Job.CriticalRequirements, idx),
		Preferred:             assess(eval.Job.PreferredRequirements, idx),
		CriticalMissing:       []string{},
		ExperienceMatch:       eval.ExperienceMatch.MatchLevel,
		EducationMatch:        eval.EducationMatch.MatchLevel,
		SkillsMatchPercentage: eval.SkillsMatch.MatchPercentage,
	}

	met, total := 0, 0
	for _, group := range [][]types.RequirementAssessment{ra.Critical, ra.Preferred} {
		for _, a := range group {
			total++
			if a.Met {
				met++
			}
		}
	}
	for _, a := range ra.Critical {
		if !a.Met {
			ra.CriticalMissing = append(ra.CriticalMissing, a.Requirement)
		}
	}
	ra.SatisfactionPercentage = 100
	if total > 0 {
		ra.SatisfactionPercentage = math.Round(float64(met)/float64(total)*1e4) / 100
	}
	return ra
}

const methodology = "Each rubric section is scored 0-10 from the share of its items evidenced in the resume, " +
	"rounded down to the scoring step. Weighted points are score x weight / 100; the total of weighted points " +
	"is the normalized 0-10 score."

func analyzeScoring(eval types.MatchEvaluation) types.ScoringAnalysis {
	rows := make([]types.ScoreRow, 0, len(eval.Sections))
	for _, s := range eval.Sections {
		evidence := s.CandidateEvidence
		if evidence == nil {
			evidence = []string{}
		}
		rows = append(rows, types.ScoreRow{
			Criterion:          s.SectionName,
			RawScore:           s.SectionScore,
			WeightPercentage:   s.WeightPercentage,
			WeightedPoints:     s.WeightedScore,
			PerformanceLevel:   PerformanceLevel(s.SectionScore),
			SupportingEvidence: evidence,
			Justification:      s.ScoreJustification,
		})
	}
	return types.ScoringAnalysis{
		Rows:               rows,
		TotalWeightedScore: eval.Summary.TotalWeightedScore,
		NormalizedScore:    eval.Summary.NormalizedScore,
		Methodology:        methodology,
	}
}

func analyzeStrengths(resume types.ResumeRecord, eval types.MatchEvaluation) types.StrengthsAnalysis {
	sa := types.StrengthsAnalysis{
		CoreStrengths:    []types.Strength{},
		AdditionalSkills: append([]string{}, eval.SkillsMatch.AdditionalSkills...),
		Achievements:     []string{},
	}
	for _, s := range eval.Sections {
		if s.SectionScore >= 7 {
			sa.CoreStrengths = append(sa.CoreStrengths, types.Strength{
				Strength: fmt.Sprintf("%s (%s, %.1f/10)", s.SectionName, PerformanceLevel(s.SectionScore), s.SectionScore),
				Evidence: append([]string{}, s.CandidateEvidence...),
			})
		}
	}
	for _, w := range resume.WorkExperience {
		sa.Achievements = append(sa.Achievements, w.Achievements...)
	}
	for _, p := range resume.Projects {
		if outcome, ok := p.Outcome.Get(); ok {
			sa.Achievements = append(sa.Achievements, outcome)
		}
	}
	sa.Achievements = append(sa.Achievements, resume.Additional.Awards...)
	return sa
}

func impactFor(weight float64) string {
	switch {
	case weight >= 25:
		return types.ImpactHigh
	case weight >= 10:
		return types.ImpactMedium
	default:
		return types.ImpactLow
	}
}

func (s *Synthesizer) analyzeGaps(resume types.ResumeRecord, eval types.MatchEvaluation, ra types.RequirementsAnalysis) types.GapsAndRisks {
	g := types.GapsAndRisks{
		CriticalGaps:      []types.Gap{},
		SkillDeficiencies: append([]string{}, eval.SkillsMatch.MissingSkills...),
		ExperienceGap:     experienceGap(eval.ExperienceMatch),
		EducationGap:      educationGap(eval.EducationMatch),
		RiskFactors:       []string{},
	}

	for _, skill := range eval.SkillsMatch.MissingSkills {
		g.CriticalGaps = append(g.CriticalGaps, types.Gap{Gap: "Missing required skill: " + skill, Category: "skills", ImpactLevel: types.ImpactHigh})
	}
	for _, req := range ra.CriticalMissing {
		g.CriticalGaps = append(g.CriticalGaps, types.Gap{Gap: "Critical requirement not evidenced: " + req, Category: "requirements", ImpactLevel: types.ImpactHigh})
	}
	for _, sec := range eval.Sections {
		if sec.SectionScore < 5 {
			g.CriticalGaps = append(g.CriticalGaps, types.Gap{
				Gap:         fmt.Sprintf("%s scored %.1f/10 (%s)", sec.SectionName, sec.SectionScore, PerformanceLevel(sec.SectionScore)),
				Category:    sec.Category,
				ImpactLevel: impactFor(sec.WeightPercentage),
			})
		}
	}

	for _, gap := range resume.Summary.EmploymentGaps {
		months, ok := gap.DurationMonths.Get()
		if !ok {
			continue
		}
		g.RiskFactors = append(g.RiskFactors, fmt.Sprintf("Employment gap of %d months (%s to %s)", months, gap.StartDate, gap.EndDate))
	}
	for _, w := range resume.WorkExperience {
		if months, ok := w.DurationMonths.Get(); ok && months < s.opts.ShortTenureMonths {
			g.RiskFactors = append(g.RiskFactors, fmt.Sprintf("Short tenure of %d months as %s", months, roleName(w)))
		}
	}
	switch eval.ExperienceMatch.MatchLevel {
	case types.MatchBelow, types.MatchSignificantlyBelow:
		g.RiskFactors = append(g.RiskFactors, "Experience below the stated minimum: "+g.ExperienceGap)
	}
	if Confidence(eval) == types.ConfidenceLow {
		g.RiskFactors = append(g.RiskFactors, "Most rubric weight has no extracted evidence; the resume may be incomplete or poorly extracted")
	}
	return g
}

func roleName(w types.WorkExperience) string {
	title, company := w.JobTitle.Or("an unnamed role"), w.Company.Or("")
	if company != "" {
		return title + " at " + company
	}
	return title
}

func experienceGap(m types.ExperienceMatch) string {
	required, ok := m.RequiredMonths.Get()
	if !ok || m.MatchLevel == types.MatchNotSpecified {
		return fmt.Sprintf("No minimum experience stated; candidate has %d months", m.CandidateMonths)
	}
	return fmt.Sprintf("%d months against a %d month minimum (%s)", m.CandidateMonths, required, m.MatchLevel)
}

func educationGap(m types.EducationMatch) string {
	if m.MatchLevel == types.MatchNotSpecified {
		return fmt.Sprintf("No degree requirement stated; highest degree %s", m.CandidateDegree)
	}
	return fmt.Sprintf("%s (%s) against required %s (%s): %s",
		m.CandidateDegree, m.CandidateLevel, m.RequiredDegree, m.RequiredLevel, m.MatchLevel)
}

// decisionFactors lists the strongest sections by weighted points, at most three.
func decisionFactors(eval types.MatchEvaluation) []string {
	factors := []string{}
	picked := make([]bool, len(eval.Sections))
	for len(factors) < 3 {
		best := -1
		for i, s := range eval.Sections {
			if picked[i] || s.SectionScore < 7 {
				continue
			}
			if best < 0 || s.WeightedScore > eval.Sections[best].WeightedScore {
				best = i
			}
		}
		if best < 0 {
			break
		}
		picked[best] = true
		s := eval.Sections[best]
		factors = append(factors, fmt.Sprintf("%s: %.1f/10 at %g%% weight (%.2f points)", s.SectionName, s.SectionScore, s.WeightPercentage, s.WeightedScore))
	}
	if len(eval.SkillsMatch.MatchedSkills) > 0 {
		factors = append(factors, fmt.Sprintf("Skills match %.2f%% of required skills", eval.SkillsMatch.MatchPercentage))
	}
	return factors
}

func criticalConcerns(eval types.MatchEvaluation, ra types.RequirementsAnalysis) []string {
	concerns := []string{}
	if len(eval.SkillsMatch.MissingSkills) > 0 {
		concerns = append(concerns, "Missing required skills: "+strings.Join(eval.SkillsMatch.MissingSkills, ", "))
	}
	if len(ra.CriticalMissing) > 0 {
		concerns = append(concerns, "Critical requirements not evidenced: "+strings.Join(ra.CriticalMissing, "; "))
	}
	for _, s := range eval.Sections {
		if s.SectionScore < 5 && s.WeightPercentage >= 15 {
			concerns = append(concerns, fmt.Sprintf("%s is %s at %.1f/10 with %g%% weight", s.SectionName, PerformanceLevel(s.SectionScore), s.SectionScore, s.WeightPercentage))
		}
	}
	switch eval.ExperienceMatch.MatchLevel {
	case types.MatchBelow, types.MatchSignificantlyBelow:
		concerns = append(concerns, "Experience "+strings.ReplaceAll(string(eval.ExperienceMatch.MatchLevel), "_", " ")+" requirement")
	}
	switch eval.EducationMatch.MatchLevel {
	case types.MatchBelow, types.MatchSignificantlyBelow:
		concerns = append(concerns, "Education "+strings.ReplaceAll(string(eval.EducationMatch.MatchLevel), "_", " ")+" requirement")
	}
	return concerns
}

func reasonsFor(eval types.MatchEvaluation, sa types.StrengthsAnalysis) []string {
	reasons := []string{}
	for _, s := range sa.CoreStrengths {
		reasons = append(reasons, "Strong "+s.Strength)
	}
	if n := len(eval.SkillsMatch.MatchedSkills); n > 0 {
		reasons = append(reasons, fmt.Sprintf("Has %d required skills: %s", n, strings.Join(eval.SkillsMatch.MatchedSkills, ", ")))
	}
	if len(sa.AdditionalSkills) > 0 {
		reasons = append(reasons, "Brings preferred skills: "+strings.Join(sa.AdditionalSkills, ", "))
	}
	switch eval.ExperienceMatch.MatchLevel {
	case types.MatchMeets, types.MatchExceeds:
		reasons = append(reasons, "Experience "+string(eval.ExperienceMatch.MatchLevel)+" the stated minimum")
	}
	return reasons
}

func assumptions(eval types.MatchEvaluation) []string {
	out := []string{
		"Resume facts were extracted accurately and completely",
		"Rubric weights reflect the hiring team's priorities",
	}
	if !eval.Job.Title.Found() {
		out = append(out, "The job title was not stated; requirements were taken from the description as given")
	}
	if !eval.Job.ExperienceRequiredMonths.Found() {
		out = append(out, "No minimum experience was stated, so experience was not compared against a threshold")
	}
	return out
}

func recommendationSummary(eval types.MatchEvaluation, rec types.Recommendation) string {
	return fmt.Sprintf("%s scored %.2f/10 for %s across %d rubric sections, placing them in the %s band.",
		eval.Candidate.Name.Or("The candidate"), eval.Summary.NormalizedScore,
		eval.Job.Title.Or("the position"), len(eval.Sections), rec)
}

var bandOutlook = map[types.Recommendation]types.Outlook{
	types.StronglyRecommended: {
		MarketPositioning: "Top band: evidence covers nearly all weighted rubric criteria.",
		ImmediateImpact:   "Expected to contribute from the first weeks in the areas scored EXCELLENT.",
		RampUp:            "Short ramp-up; onboarding can focus on team and domain context.",
	},
	types.Recommended: {
		MarketPositioning: "Solid match: most weighted criteria are evidenced, with minor gaps.",
		ImmediateImpact:   "Productive early in the strongest sections; gaps are addressable on the job.",
		RampUp:            "Moderate ramp-up concentrated on the lower scoring sections.",
	},
	types.ConditionallyRecommended: {
		MarketPositioning: "Partial match: roughly half of the weighted criteria are evidenced.",
		ImmediateImpact:   "Impact depends on closing the listed gaps.",
		RampUp:            "Extended ramp-up with targeted training on the missing requirements.",
	},
	types.NotRecommended: {
		MarketPositioning: "Weak match: most weighted criteria lack evidence.",
		ImmediateImpact:   "Limited immediate impact for this role.",
		RampUp:            "Long ramp-up; consider the candidate for a different role.",
	},
}

func outlook(rec types.Recommendation, eval types.MatchEvaluation) types.Outlook {
	o := bandOutlook[rec]
	if len(eval.SkillsMatch.MissingSkills) > 0 {
		o.RampUp += " Skills to develop: " + strings.Join(eval.SkillsMatch.MissingSkills, ", ") + "."
	}
	return o
}
