package rubric

// defaultSpecs is the general-purpose rubric used when no job-specific rubric is available.
var defaultSpecs = []SectionSpec{
	{
		Name:     "Relevant Work Experience",
		Weight:   30,
		Category: CategoryExperience,
		Scoring: "Full points when total experience meets or exceeds the stated minimum in directly related roles. " +
			"Partial points in proportion to the share of the minimum covered. Zero points without related experience.",
	},
	{
		Name:     "Skills and Technical Expertise",
		Weight:   25,
		Category: CategorySkills,
		Scoring: "Full points when every required skill is evidenced. " +
			"Partial points in proportion to the required skills found. Zero points when none are found.",
	},
	{
		Name:     "Educational Background and Certifications",
		Weight:   15,
		Category: CategoryEducation,
		Scoring: "Full points when the highest degree meets the stated requirement. " +
			"Partial points for a lower degree in proportion to the degree level. Zero points without a listed degree.",
	},
	{
		Name:     "Achievements and Impact",
		Weight:   15,
		Category: CategoryAchievements,
		Scoring: "Full points for several concrete, preferably quantified achievements. " +
			"Partial points for fewer achievements. Zero points when none are listed.",
	},
	{
		Name:     "Soft Skills and Cultural Fit",
		Weight:   10,
		Category: CategorySoftSkills,
		Scoring: "Full points when interpersonal skills such as communication, teamwork and leadership are evidenced. " +
			"Partial points for fewer. Zero points when none are evidenced.",
	},
	{
		Name:     "Bonus",
		Weight:   5,
		Category: CategoryBonus,
		Scoring:  "Points for evidence beyond the core requirements: certifications, projects, awards, publications or languages.",
	},
}

// Default returns the built-in six-section rubric.
func Default() *Rubric {
	r, err := Normalize(defaultSpecs)
	if err != nil {
		panic("rubric: built-in default rubric is invalid: " + err.Error())
	}
	return r
}
