package rubric

import (
	"strings"
)

// Section categories select the evidence a section is scored against
const (
	CategoryExperience     = "experience"
	CategorySkills         = "skills"
	CategoryEducation      = "education"
	CategoryCertifications = "certifications"
	CategoryAchievements   = "achievements"
	CategorySoftSkills     = "soft_skills"
	CategoryLanguages      = "languages"
	CategoryProjects       = "projects"
	CategoryBonus          = "bonus"
	CategoryGeneral        = "general"
)

var categories = map[string]bool{
	CategoryExperience:     true,
	CategorySkills:         true,
	CategoryEducation:      true,
	CategoryCertifications: true,
	CategoryAchievements:   true,
	CategorySoftSkills:     true,
	CategoryLanguages:      true,
	CategoryProjects:       true,
	CategoryBonus:          true,
	CategoryGeneral:        true,
}

// categoryKeywords is ordered: the first rule whose keyword appears in the section name wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategorySoftSkills, []string{"soft skill", "cultural", "culture", "communication", "interpersonal", "leadership", "teamwork"}},
	{CategoryEducation, []string{"education", "degree", "academic", "qualification"}},
	{CategoryCertifications, []string{"certif", "license", "licence", "accreditation"}},
	{CategoryExperience, []string{"experience", "work history", "employment", "career", "seniority"}},
	{CategoryAchievements, []string{"achievement", "impact", "accomplishment", "result", "award"}},
	{CategoryLanguages, []string{"language", "fluency", "linguistic"}},
	{CategoryProjects, []string{"project", "portfolio"}},
	{CategorySkills, []string{"skill", "technical", "expertise", "tool", "technolog", "stack", "competenc"}},
	{CategoryBonus, []string{"bonus", "extra", "additional", "nice to have"}},
}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool {
	return categories[c]
}

// CategoryFor infers a category from a section name, falling back to general.
func CategoryFor(sectionName string) string {
	name := strings.ToLower(sectionName)
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
