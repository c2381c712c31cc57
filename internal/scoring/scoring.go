// Package scoring computes rubric-weighted match evaluations from a resume record,
// a job description and a normalized rubric. Computation is deterministic: the same
// inputs always produce the same evaluation.
package scoring

import (
	"math"

	"hirescore/internal/rubric"
	"hirescore/internal/types"
)

// Policy tunes the evidence-coverage curve. Section scores are coverage*10 rounded
// down to a multiple of Step.
type Policy struct {
	Step           float64 `mapstructure:"step"`
	Tolerance      float64 `mapstructure:"tolerance"`
	PresenceTarget int     `mapstructure:"presenceTarget"`
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{Step: 0.5, Tolerance: rubric.Tolerance, PresenceTarget: 3}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Step <= 0 || p.Step > 10 {
		p.Step = def.Step
	}
	if p.Tolerance <= 0 {
		p.Tolerance = def.Tolerance
	}
	if p.PresenceTarget <= 0 {
		p.PresenceTarget = def.PresenceTarget
	}
	return p
}

// Computer produces MatchEvaluations
type Computer struct {
	policy Policy
}

// NewComputer creates a computer; zero policy fields take their defaults.
func NewComputer(policy Policy) *Computer {
	return &Computer{policy: policy.withDefaults()}
}

// Policy returns the effective policy.
func (c *Computer) Policy() Policy {
	return c.policy
}

// Compute scores resume against job using r. It refuses unnormalized rubrics and
// resumes that earn no points in any section.
func (c *Computer) Compute(resume types.ResumeRecord, job types.JobDescription, r *rubric.Rubric) (types.MatchEvaluation, error) {
	if !r.Normalized() {
		return types.MatchEvaluation{}, &Error{Code: UnnormalizedRubric}
	}

	req := job.Requirements
	pools := buildPools(resume)
	skills := matchSkills(pools, req)

	sections := make([]types.SectionEvaluation, 0, r.Len())
	total := 0.0
	anyEvidence := false
	names := make([]string, 0, r.Len())

	for _, section := range r.Sections() {
		a := c.assess(section, resume, req, pools, skills)
		raw := c.quantize(a.ratio)
		if len(a.evidence) == 0 {
			raw = 0
		}
		weighted := round4(raw * section.Weight / 100)

		sections = append(sections, types.SectionEvaluation{
			SectionName:        section.Name,
			Category:           section.Category,
			WeightPercentage:   section.Weight,
			CandidateEvidence:  nonNil(a.evidence),
			ItemsMatched:       a.matched,
			ItemsTotal:         a.total,
			SectionScore:       raw,
			WeightedScore:      weighted,
			ScoreJustification: justify(a, raw, c.policy.Step),
		})
		total += weighted
		names = append(names, section.Name)
		if raw > 0 {
			anyEvidence = true
		}
	}

	if !anyEvidence {
		return types.MatchEvaluation{}, &Error{Code: EmptyResume, Sections: names}
	}

	total = round4(total)
	highest, _ := resume.HighestDegree()

	return types.MatchEvaluation{
		Candidate: types.CandidateOverview{
			Name:                  resume.Contact.FullName,
			CurrentRole:           currentRole(resume),
			TotalExperienceMonths: resume.ExperienceMonths(),
			HighestDegree:         highest.Degree,
			CareerLevel:           resume.Summary.CareerLevel,
		},
		Job: types.JobAnalysis{
			Title:                    req.Title,
			CriticalRequirements:     nonNil(req.CriticalRequirements),
			PreferredRequirements:    nonNil(req.PreferredRequirements),
			ExperienceRequiredMonths: req.MinExperienceMonths,
			EducationRequired:        req.RequiredDegree,
		},
		Sections:        sections,
		SkillsMatch:     skills,
		ExperienceMatch: matchExperience(resume, req),
		EducationMatch:  matchEducation(resume, req),
		Summary: types.ScoringSummary{
			TotalWeightedScore: total,
			NormalizedScore:    round4(math.Min(math.Max(total, 0), 10)),
			WeightsValidation:  math.Abs(r.WeightSum()-100) <= c.policy.Tolerance+1e-9,
		},
	}, nil
}

// Compute scores with the default policy.
func Compute(resume types.ResumeRecord, job types.JobDescription, r *rubric.Rubric) (types.MatchEvaluation, error) {
	return NewComputer(DefaultPolicy()).Compute(resume, job, r)
}

// quantize maps a coverage ratio in [0,1] to a score in [0,10], rounding down to Step.
func (c *Computer) quantize(ratio float64) float64 {
	ratio = math.Min(math.Max(ratio, 0), 1)
	steps := math.Floor(ratio*10/c.policy.Step + 1e-9)
	return math.Min(round4(steps*c.policy.Step), 10)
}

func currentRole(r types.ResumeRecord) types.Text {
	if len(r.WorkExperience) == 0 {
		return types.None()
	}
	w := r.WorkExperience[0]
	title, hasTitle := w.JobTitle.Get()
	company, hasCompany := w.Company.Get()
	switch {
	case hasTitle && hasCompany:
		return types.Some(title + " at " + company)
	case hasTitle:
		return types.Some(title)
	default:
		return types.None()
	}
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
