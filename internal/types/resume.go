package types

// ResumeRecord is the normalized, fully shaped candidate record
type ResumeRecord struct {
	Contact        ContactInformation `json:"contact_information"`
	Education      []Education        `json:"education"`
	WorkExperience []WorkExperience   `json:"work_experience"`
	Skills         Skills             `json:"skills"`
	Languages      []Language         `json:"languages"`
	Certifications []Certification    `json:"certifications"`
	Projects       []Project          `json:"projects"`
	Additional     AdditionalSections `json:"additional_sections"`
	Summary        AnalysisSummary    `json:"analysis_summary"`
}

// ContactInformation holds the candidate's contact details
type ContactInformation struct {
	FullName Text `json:"full_name"`
	Email    Text `json:"email"`
	Phone    Text `json:"phone"`
	Location Text `json:"location"`
	LinkedIn Text `json:"linkedin"`
	Website  Text `json:"website"`
}

// Education is one academic entry
type Education struct {
	Degree         Text `json:"degree"`
	FieldOfStudy   Text `json:"field_of_study"`
	Institution    Text `json:"institution"`
	GraduationDate Text `json:"graduation_date"`
	GPA            Text `json:"gpa"`
	Honors         Text `json:"honors"`
}

// WorkExperience is one employment entry
type WorkExperience struct {
	JobTitle         Text     `json:"job_title"`
	Company          Text     `json:"company"`
	Location         Text     `json:"location"`
	StartDate        Text     `json:"start_date"`
	EndDate          Text     `json:"end_date"`
	DurationMonths   Months   `json:"duration_months"`
	Responsibilities []string `json:"responsibilities"`
	Achievements     []string `json:"achievements"`
	ToolsUsed        []string `json:"tools_used"`
}

// Skills groups skills by category
type Skills struct {
	Professional    []string `json:"professional"`
	Technical       []string `json:"technical"`
	SoftwareTools   []string `json:"software_tools"`
	Methodologies   []string `json:"methodologies"`
	SoftSkills      []string `json:"soft_skills"`
	DomainExpertise []string `json:"domain_expertise"`
}

// Hard returns every non-soft skill in category order.
func (s Skills) Hard() []string {
	var out []string
	for _, group := range [][]string{s.Professional, s.Technical, s.SoftwareTools, s.Methodologies, s.DomainExpertise} {
		out = append(out, group...)
	}
	return out
}

// Language is a spoken language and its proficiency
type Language struct {
	Language    Text `json:"language"`
	Proficiency Text `json:"proficiency"`
}

// Certification is a professional certificate
type Certification struct {
	Name         Text `json:"name"`
	Issuer       Text `json:"issuer"`
	DateObtained Text `json:"date_obtained"`
	ExpiryDate   Text `json:"expiry_date"`
}

// Project is a personal or professional project
type Project struct {
	Name        Text     `json:"name"`
	Description Text     `json:"description"`
	SkillsUsed  []string `json:"skills_used"`
	Outcome     Text     `json:"outcome"`
}

// AdditionalSections holds resume content outside the main sections
type AdditionalSections struct {
	Awards       []string `json:"awards"`
	Publications []string `json:"publications"`
	Volunteer    []string `json:"volunteer"`
}

// EmploymentGap is a period without employment between two roles
type EmploymentGap struct {
	StartDate      Text   `json:"gap_start"`
	EndDate        Text   `json:"gap_end"`
	DurationMonths Months `json:"duration_months"`
}

// AnalysisSummary is derived from the rest of the record
type AnalysisSummary struct {
	TotalExperienceMonths Months          `json:"total_experience_months"`
	CareerLevel           Text            `json:"career_level"`
	CareerProgression     Text            `json:"career_progression"`
	EmploymentGaps        []EmploymentGap `json:"employment_gaps"`
	KeyStrengths          []string        `json:"key_strengths"`
}

// HighestDegree returns the highest ranked education entry and its level.
// The first entry wins ties.
func (r ResumeRecord) HighestDegree() (Education, DegreeLevel) {
	var best Education
	level := DegreeNone
	for _, edu := range r.Education {
		l := ParseDegreeLevel(edu.Degree.Or(""))
		if l > level {
			best, level = edu, l
		}
	}
	return best, level
}

// ExperienceMonths returns the summary total, falling back to the sum of role durations.
func (r ResumeRecord) ExperienceMonths() int {
	if total, ok := r.Summary.TotalExperienceMonths.Get(); ok {
		return total
	}
	sum := 0
	for _, w := range r.WorkExperience {
		sum += w.DurationMonths.Or(0)
	}
	return sum
}
