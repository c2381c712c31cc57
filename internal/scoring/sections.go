package scoring

import (
	"fmt"
	"math"
	"strings"

	"hirescore/internal/rubric"
	"hirescore/internal/types"
)

// assessment is the coverage found for one rubric section before quantization
type assessment struct {
	ratio    float64
	matched  int
	total    int
	evidence []string
	missing  []string
	detail   string
}

func (c *Computer) assess(section rubric.Section, resume types.ResumeRecord, req types.JobRequirements, p evidencePools, skills types.SkillsMatch) assessment {
	if len(section.Criteria) > 0 {
		return coverage(section.Criteria, poolFor(section.Category, p), "rubric criteria", matchItem)
	}

	switch section.Category {
	case rubric.CategorySkills:
		switch {
		case len(req.RequiredSkills) > 0:
			return skillsAssessment(skills, p)
		case len(req.PreferredSkills) > 0:
			return coverage(req.PreferredSkills, append(append(pool{}, p.skills...), p.softSkills...), "preferred skills", matchExact)
		default:
			return c.presence(p.skills, c.policy.PresenceTarget, "skills")
		}

	case rubric.CategoryExperience:
		return c.experienceAssessment(resume, req, p)

	case rubric.CategoryEducation:
		return educationAssessment(resume, req, p)

	case rubric.CategoryCertifications:
		if len(req.RequiredCertifications) > 0 {
			return coverage(req.RequiredCertifications, p.certs, "required certifications", matchItem)
		}
		return c.presence(p.certs, c.policy.PresenceTarget, "certifications")

	case rubric.CategoryLanguages:
		if len(req.RequiredLanguages) > 0 {
			return coverage(req.RequiredLanguages, p.languages, "required languages", matchItem)
		}
		return c.presence(p.languages, c.policy.PresenceTarget, "languages")

	case rubric.CategorySoftSkills:
		return c.presence(p.softSkills, c.policy.PresenceTarget, "soft skills")

	case rubric.CategoryAchievements:
		return c.presence(p.achievements, c.policy.PresenceTarget, "achievements")

	case rubric.CategoryProjects:
		return c.presence(p.projects, c.policy.PresenceTarget, "projects")

	case rubric.CategoryBonus:
		return c.presence(p.extras, c.policy.PresenceTarget, "additional qualifications")

	default:
		items := append(append([]string{}, req.CriticalRequirements...), req.PreferredRequirements...)
		if len(items) > 0 {
			return coverage(items, p.all, "job requirements", matchItem)
		}
		return c.presence(p.all, c.policy.PresenceTarget, "resume entries")
	}
}

func poolFor(category string, p evidencePools) pool {
	switch category {
	case rubric.CategorySkills:
		return append(append(pool{}, p.skills...), p.softSkills...)
	case rubric.CategoryExperience:
		return p.experience
	case rubric.CategoryEducation:
		return append(append(pool{}, p.education...), p.certs...)
	case rubric.CategoryCertifications:
		return p.certs
	case rubric.CategoryLanguages:
		return p.languages
	case rubric.CategorySoftSkills:
		return append(append(pool{}, p.softSkills...), p.experience...)
	case rubric.CategoryAchievements:
		return p.achievements
	case rubric.CategoryProjects:
		return p.projects
	case rubric.CategoryBonus:
		return p.extras
	default:
		return p.all
	}
}

type matcher func(item string, p pool) (evidence, bool)

func matchExact(item string, p pool) (evidence, bool) {
	term := normalizeTerm(item)
	for _, e := range p {
		if e.text == term {
			return e, true
		}
	}
	return evidence{}, false
}

// coverage is the fraction of items matched by some evidence.
func coverage(items []string, p pool, basis string, match matcher) assessment {
	a := assessment{total: len(items)}
	seen := make(map[string]bool)
	for _, item := range items {
		e, ok := match(item, p)
		if !ok {
			a.missing = append(a.missing, item)
			continue
		}
		a.matched++
		if !seen[e.label] {
			seen[e.label] = true
			a.evidence = append(a.evidence, e.label)
		}
	}
	if a.total > 0 {
		a.ratio = float64(a.matched) / float64(a.total)
	}
	a.detail = fmt.Sprintf("Matched %d of %d %s (%.0f%% coverage).", a.matched, a.total, basis, a.ratio*100)
	if len(a.missing) > 0 {
		a.detail += " Not evidenced: " + strings.Join(a.missing, ", ") + "."
	}
	return a
}

// presence scores how many entries exist relative to target when nothing more specific is known.
func (c *Computer) presence(p pool, target int, what string) assessment {
	labels := p.labels()
	found := min(len(labels), target)
	a := assessment{
		ratio:    float64(found) / float64(target),
		matched:  found,
		total:    target,
		evidence: labels,
	}
	a.detail = fmt.Sprintf("Found %d %s against a target of %d (%.0f%% coverage).", len(labels), what, target, a.ratio*100)
	return a
}

func skillsAssessment(skills types.SkillsMatch, p evidencePools) assessment {
	combined := append(append(pool{}, p.skills...), p.softSkills...)
	a := assessment{
		total:   len(skills.MatchedSkills) + len(skills.MissingSkills),
		matched: len(skills.MatchedSkills),
		missing: skills.MissingSkills,
	}
	seen := make(map[string]bool)
	for _, s := range skills.MatchedSkills {
		if e, ok := matchExact(s, combined); ok && !seen[e.label] {
			seen[e.label] = true
			a.evidence = append(a.evidence, e.label)
		}
	}
	if a.total > 0 {
		a.ratio = float64(a.matched) / float64(a.total)
	}
	a.detail = fmt.Sprintf("Matched %d of %d required skills (%.0f%% coverage).", a.matched, a.total, a.ratio*100)
	if len(a.missing) > 0 {
		a.detail += " Missing: " + strings.Join(a.missing, ", ") + "."
	}
	return a
}

func (c *Computer) experienceAssessment(resume types.ResumeRecord, req types.JobRequirements, p evidencePools) assessment {
	required, ok := req.MinExperienceMonths.Get()
	if !ok || required == 0 {
		return c.presence(p.roles, c.policy.PresenceTarget, "roles")
	}

	months := resume.ExperienceMonths()
	a := assessment{
		ratio: math.Min(float64(months)/float64(required), 1),
		total: 1,
	}
	if months >= required {
		a.matched = 1
	}
	if months > 0 {
		a.evidence = append([]string{fmt.Sprintf("experience: %d months total", months)}, p.roles.labels()...)
	}
	a.detail = fmt.Sprintf("%d months of experience against a %d month minimum (%.0f%% of requirement).",
		months, required, float64(months)/float64(required)*100)
	return a
}

// educationAssessment scores the degree requirement and each required certification as
// sub-items. A lower degree earns partial credit in proportion to its level.
func educationAssessment(resume types.ResumeRecord, req types.JobRequirements, p evidencePools) assessment {
	highest, level := resume.HighestDegree()
	requiredLevel := types.DegreeNone
	if d, ok := req.RequiredDegree.Get(); ok {
		requiredLevel = types.ParseDegreeLevel(d)
	}

	if requiredLevel == types.DegreeNone && len(req.RequiredCertifications) == 0 {
		combined := append(append(pool{}, p.education...), p.certs...)
		labels := combined.labels()
		a := assessment{total: 1, evidence: labels}
		if len(p.education) > 0 || len(p.certs) > 0 {
			a.ratio, a.matched = 1, 1
		}
		a.detail = fmt.Sprintf("No degree requirement stated; %d education or certification entries found.", len(labels))
		return a
	}

	var a assessment
	credit := 0.0
	var parts []string

	if requiredLevel > types.DegreeNone {
		a.total++
		if level > types.DegreeNone {
			credit += math.Min(float64(level)/float64(requiredLevel), 1)
			a.evidence = append(a.evidence, "education: "+educationLabel(highest))
		}
		if level >= requiredLevel {
			a.matched++
		}
		parts = append(parts, fmt.Sprintf("highest degree %s against required %s", level, requiredLevel))
	}

	if len(req.RequiredCertifications) > 0 {
		certs := coverage(req.RequiredCertifications, p.certs, "required certifications", matchItem)
		a.total += certs.total
		a.matched += certs.matched
		credit += float64(certs.matched)
		a.evidence = append(a.evidence, certs.evidence...)
		a.missing = certs.missing
		parts = append(parts, fmt.Sprintf("%d of %d required certifications", certs.matched, certs.total))
	}

	a.ratio = credit / float64(a.total)
	a.detail = fmt.Sprintf("Education assessed on %s (%.0f%% coverage).", strings.Join(parts, " and "), a.ratio*100)
	return a
}

func educationLabel(e types.Education) string {
	parts := make([]string, 0, 3)
	for _, t := range []types.Text{e.Degree, e.FieldOfStudy, e.Institution} {
		if v, ok := t.Get(); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func justify(a assessment, score, step float64) string {
	if len(a.evidence) == 0 {
		return strings.TrimSpace(a.detail + " No supporting evidence found; section scores 0.")
	}
	return fmt.Sprintf("%s Score %.1f/10, rounded down to a multiple of %g.", a.detail, score, step)
}
