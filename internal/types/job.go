package types

// JobRequirements is the structured view of a job description
type JobRequirements struct {
	Title                  Text     `json:"job_title"`
	Company                Text     `json:"company"`
	CriticalRequirements   []string `json:"critical_requirements"`
	PreferredRequirements  []string `json:"preferred_requirements"`
	RequiredSkills         []string `json:"required_skills"`
	PreferredSkills        []string `json:"preferred_skills"`
	MinExperienceMonths    Months   `json:"min_experience_months"`
	RequiredDegree         Text     `json:"required_degree"`
	RequiredCertifications []string `json:"required_certifications"`
	RequiredLanguages      []string `json:"required_languages"`
}

// JobDescription pairs the raw posting text with its extracted requirements
type JobDescription struct {
	Text         string          `json:"text"`
	Requirements JobRequirements `json:"requirements"`
}
