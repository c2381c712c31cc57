package types

// Report is the final hiring decision report
type Report struct {
	ExecutiveSummary     ExecutiveSummary     `json:"executive_summary"`
	CandidateProfile     CandidateProfile     `json:"candidate_profile"`
	RequirementsAnalysis RequirementsAnalysis `json:"requirements_analysis"`
	ScoringAnalysis      ScoringAnalysis      `json:"detailed_scoring_analysis"`
	Strengths            StrengthsAnalysis    `json:"strengths_and_differentiators"`
	GapsAndRisks         GapsAndRisks         `json:"gaps_and_risk_assessment"`
	Outlook              Outlook              `json:"comparative_and_business_impact"`
	DecisionRationale    DecisionRationale    `json:"decision_rationale"`
}

// Confidence levels for the executive recommendation
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// ExecutiveSummary is the headline of the report
type ExecutiveSummary struct {
	CandidateName         Text           `json:"candidate_name"`
	PositionApplied       Text           `json:"position_applied"`
	OverallRecommendation Recommendation `json:"overall_recommendation"`
	OverallScore          float64        `json:"overall_score"`
	ConfidenceLevel       string         `json:"confidence_level"`
	KeyDecisionFactors    []string       `json:"key_decision_factors"`
	CriticalConcerns      []string       `json:"critical_concerns"`
	Summary               string         `json:"recommendation_summary"`
}

// CandidateProfile restates the resume facts relevant to the decision
type CandidateProfile struct {
	CurrentRole           Text            `json:"current_role"`
	CareerLevel           Text            `json:"career_level"`
	TotalExperienceMonths int             `json:"total_experience_months"`
	HighestDegree         Text            `json:"highest_degree"`
	CareerProgression     Text            `json:"career_progression"`
	EmploymentGaps        []EmploymentGap `json:"employment_gaps"`
	Languages             []string        `json:"languages"`
	Certifications        []string        `json:"certifications"`
}

// RequirementAssessment records whether one job requirement is met
type RequirementAssessment struct {
	Requirement string `json:"requirement"`
	Met         bool   `json:"met"`
	Evidence    string `json:"evidence"`
}

// RequirementsAnalysis checks the job's stated requirements
type RequirementsAnalysis struct {
	Critical               []RequirementAssessment `json:"critical_requirements"`
	Preferred              []RequirementAssessment `json:"preferred_requirements"`
	SatisfactionPercentage float64                 `json:"satisfaction_percentage"`
	CriticalMissing        []string                `json:"critical_missing"`
	ExperienceMatch        MatchLevel              `json:"experience_match"`
	EducationMatch         MatchLevel              `json:"education_match"`
	SkillsMatchPercentage  float64                 `json:"skills_match_percentage"`
}

// Performance levels for a section score
const (
	PerformanceExcellent        = "EXCELLENT"
	PerformanceGood             = "GOOD"
	PerformanceSatisfactory     = "SATISFACTORY"
	PerformanceNeedsImprovement = "NEEDS IMPROVEMENT"
	PerformancePoor             = "POOR"
)

// ScoreRow is one line of the scoring breakdown
type ScoreRow struct {
	Criterion          string   `json:"criterion"`
	RawScore           float64  `json:"raw_score"`
	WeightPercentage   float64  `json:"weight_percentage"`
	WeightedPoints     float64  `json:"weighted_points"`
	PerformanceLevel   string   `json:"performance_level"`
	SupportingEvidence []string `json:"supporting_evidence"`
	Justification      string   `json:"justification"`
}

// ScoringAnalysis narrates the evaluation arithmetic
type ScoringAnalysis struct {
	Rows               []ScoreRow `json:"rubric_breakdown"`
	TotalWeightedScore float64    `json:"total_weighted_score"`
	NormalizedScore    float64    `json:"normalized_score"`
	Methodology        string     `json:"methodology"`
}

// Strength is a positive finding backed by evidence
type Strength struct {
	Strength string   `json:"strength"`
	Evidence []string `json:"evidence"`
}

// StrengthsAnalysis lists what sets the candidate apart
type StrengthsAnalysis struct {
	CoreStrengths    []Strength `json:"core_strengths"`
	AdditionalSkills []string   `json:"additional_skills"`
	Achievements     []string   `json:"notable_achievements"`
}

// Impact levels for a gap
const (
	ImpactHigh   = "HIGH"
	ImpactMedium = "MEDIUM"
	ImpactLow    = "LOW"
)

// Gap is a shortfall against the job
type Gap struct {
	Gap         string `json:"gap"`
	Category    string `json:"category"`
	ImpactLevel string `json:"impact_level"`
}

// GapsAndRisks lists shortfalls and risk factors
type GapsAndRisks struct {
	CriticalGaps      []Gap    `json:"critical_gaps"`
	SkillDeficiencies []string `json:"skill_deficiencies"`
	ExperienceGap     string   `json:"experience_gap"`
	EducationGap      string   `json:"education_gap"`
	RiskFactors       []string `json:"risk_factors"`
}

// Outlook holds positioning and business impact narrative
type Outlook struct {
	MarketPositioning string `json:"market_positioning"`
	ImmediateImpact   string `json:"immediate_impact"`
	RampUp            string `json:"ramp_up"`
}

// DecisionRationale explains the recommendation
type DecisionRationale struct {
	ReasonsFor     []string `json:"reasons_for"`
	ReasonsAgainst []string `json:"reasons_against"`
	Assumptions    []string `json:"key_assumptions"`
	Sensitivity    string   `json:"sensitivity"`
}
