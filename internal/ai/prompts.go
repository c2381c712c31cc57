package ai

import (
	"strings"

	"hirescore/internal/config"
)

// Prompt templates may use these placeholders.
const (
	SchemaPlaceholder   = "{{schema}}"
	DocumentPlaceholder = config.DocumentPlaceholder
)

// PromptSet holds the system and user prompt for one operation
type PromptSet struct {
	System string
	User   string
}

// DefaultPrompts holds the built-in prompts, keyed by operation
var DefaultPrompts = map[string]PromptSet{
	config.OpExtractResume: {
		System: `You are a meticulous resume parser. You convert resume text into a JSON record that matches a given JSON Schema exactly.

Rules:
- Copy facts from the resume only. NEVER invent, infer, or embellish employers, dates, degrees, skills, or achievements.
- When the resume does not state a scalar field, use the string "Not found".
- When the resume does not state any item for a list field, use an empty list.
- Keep work experience and education in the order the resume lists them.
- Dates are written as they appear, normalized to "YYYY-MM" where the month is known, "YYYY" otherwise, and "Present" for current roles.
- duration_months and analysis_summary values may be "Not found"; they are derived later from the dates.
- Group skills by the categories in the schema. A skill appears in one category only.`,

		User: `Target JSON Schema:
{{schema}}

Resume text:
"""
{{document}}
"""

Respond with the JSON record only.`,
	},

	config.OpExtractJob: {
		System: `You are an expert recruiter who structures job postings. You convert job description text into a JSON record that matches a given JSON Schema exactly.

Rules:
- critical_requirements are the must-haves the posting states; preferred_requirements are the nice-to-haves.
- required_skills and preferred_skills are short skill names (for example "Go", "Kubernetes"), never sentences.
- min_experience_months is the stated minimum converted to months ("5+ years" is 60). Use "Not found" when no minimum is stated.
- required_degree is the minimum degree named by the posting, or "Not found".
- NEVER add requirements the posting does not state.`,

		User: `Target JSON Schema:
{{schema}}

Job description:
"""
{{document}}
"""

Respond with the JSON record only.`,
	},

	config.OpGenerateRubric: {
		System: `You are a hiring manager designing a scoring rubric for one job. A rubric is a list of weighted sections used to score candidates.

Rules:
- Use between 4 and 7 sections.
- Weights are numbers and MUST sum to exactly 100.
- Each section has a short name, a scoring description, and a criteria list of concrete items taken from the job description.
- Set category to one of: experience, skills, education, certifications, achievements, soft_skills, languages, projects, general.
- Section names are unique.`,

		User: `Target JSON Schema:
{{schema}}

Job description and extracted requirements:
"""
{{document}}
"""

Respond with the JSON rubric only.`,
	},
}

// resolvePrompts picks the configured prompt over the built-in default, field by field
func resolvePrompts(operation string, configured config.PromptConfig) PromptSet {
	def := DefaultPrompts[operation]
	return PromptSet{
		System: resolvePrompt(configured.System, def.System),
		User:   resolvePrompt(configured.User, def.User),
	}
}

func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}

// renderPrompt fills the placeholders of a user prompt template. A template
// without a document placeholder gets the document appended.
func renderPrompt(template, schemaText, document string) string {
	out := strings.NewReplacer(
		SchemaPlaceholder, schemaText,
		DocumentPlaceholder, document,
	).Replace(template)

	if !strings.Contains(template, DocumentPlaceholder) {
		out += "\n\n" + document
	}
	return out
}
