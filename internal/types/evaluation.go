package types

// MatchEvaluation is the rubric-weighted match of one resume against one job
type MatchEvaluation struct {
	Candidate       CandidateOverview   `json:"candidate_overview"`
	Job             JobAnalysis         `json:"job_analysis"`
	Sections        []SectionEvaluation `json:"rubric_evaluation"`
	SkillsMatch     SkillsMatch         `json:"skills_match"`
	ExperienceMatch ExperienceMatch     `json:"experience_match"`
	EducationMatch  EducationMatch      `json:"education_match"`
	Summary         ScoringSummary      `json:"scoring_summary"`
	Validation      *ValidationStamp    `json:"validation,omitempty"`
}

// CandidateOverview identifies the candidate being scored
type CandidateOverview struct {
	Name                  Text `json:"name"`
	CurrentRole           Text `json:"current_role"`
	TotalExperienceMonths int  `json:"total_experience_months"`
	HighestDegree         Text `json:"highest_degree"`
	CareerLevel           Text `json:"career_level"`
}

// JobAnalysis restates the requirements the candidate was scored against
type JobAnalysis struct {
	Title                    Text     `json:"job_title"`
	CriticalRequirements     []string `json:"critical_requirements"`
	PreferredRequirements    []string `json:"preferred_requirements"`
	ExperienceRequiredMonths Months   `json:"experience_required_months"`
	EducationRequired        Text     `json:"education_required"`
}

// SectionEvaluation is the score of one rubric section
type SectionEvaluation struct {
	SectionName        string   `json:"section_name"`
	Category           string   `json:"category"`
	WeightPercentage   float64  `json:"weight_percentage"`
	CandidateEvidence  []string `json:"candidate_evidence"`
	ItemsMatched       int      `json:"items_matched"`
	ItemsTotal         int      `json:"items_total"`
	SectionScore       float64  `json:"section_score"`
	WeightedScore      float64  `json:"weighted_score"`
	ScoreJustification string   `json:"score_justification"`
}

// SkillsMatch compares resume skills with job skill terms
type SkillsMatch struct {
	MatchedSkills    []string `json:"matched_skills"`
	MissingSkills    []string `json:"missing_skills"`
	AdditionalSkills []string `json:"additional_skills"`
	MatchPercentage  float64  `json:"match_percentage"`
}

// ExperienceMatch compares total experience with the stated minimum
type ExperienceMatch struct {
	CandidateMonths int        `json:"candidate_months"`
	RequiredMonths  Months     `json:"required_months"`
	MatchLevel      MatchLevel `json:"match_level"`
}

// EducationMatch compares the highest degree with the stated minimum
type EducationMatch struct {
	CandidateDegree Text        `json:"candidate_degree"`
	CandidateLevel  DegreeLevel `json:"candidate_level"`
	RequiredDegree  Text        `json:"required_degree"`
	RequiredLevel   DegreeLevel `json:"required_level"`
	MatchLevel      MatchLevel  `json:"match_level"`
}

// ScoringSummary aggregates the section scores
type ScoringSummary struct {
	TotalWeightedScore float64 `json:"total_weighted_score"`
	NormalizedScore    float64 `json:"normalized_score"`
	WeightsValidation  bool    `json:"weights_validation"`
}

// ValidationStamp records that an evaluation passed arithmetic validation.
// Digest covers the evaluation with the stamp removed.
type ValidationStamp struct {
	Passed bool   `json:"passed"`
	Digest string `json:"digest"`
}
