package scoring

import (
	"hirescore/internal/types"
)

// matchSkills compares resume skills with the job's skill terms as case-insensitive,
// whitespace-trimmed sets. Output keeps the job's order and spelling.
func matchSkills(p evidencePools, req types.JobRequirements) types.SkillsMatch {
	have := make(map[string]bool)
	for _, group := range []pool{p.skills, p.softSkills} {
		for _, e := range group {
			have[e.text] = true
		}
	}

	m := types.SkillsMatch{
		MatchedSkills:    []string{},
		MissingSkills:    []string{},
		AdditionalSkills: []string{},
	}

	required := make(map[string]bool)
	for _, s := range req.RequiredSkills {
		term := normalizeTerm(s)
		if term == "" || required[term] {
			continue
		}
		required[term] = true
		if have[term] {
			m.MatchedSkills = append(m.MatchedSkills, s)
		} else {
			m.MissingSkills = append(m.MissingSkills, s)
		}
	}

	seen := make(map[string]bool)
	for _, s := range req.PreferredSkills {
		term := normalizeTerm(s)
		if term == "" || required[term] || seen[term] {
			continue
		}
		seen[term] = true
		if have[term] {
			m.AdditionalSkills = append(m.AdditionalSkills, s)
		}
	}

	if len(required) == 0 {
		m.MatchPercentage = 100
	} else {
		m.MatchPercentage = round2(float64(len(m.MatchedSkills)) / float64(len(required)) * 100)
	}
	return m
}

// Classify compares a candidate quantity with a requirement:
// significantly_below under 50%, below under 100%, meets under 120%, exceeds otherwise.
// A non-positive requirement is not_specified.
func Classify(candidate, required int) types.MatchLevel {
	if required <= 0 {
		return types.MatchNotSpecified
	}
	switch c, r := candidate*100, required; {
	case c >= r*120:
		return types.MatchExceeds
	case c >= r*100:
		return types.MatchMeets
	case c >= r*50:
		return types.MatchBelow
	default:
		return types.MatchSignificantlyBelow
	}
}

func matchExperience(resume types.ResumeRecord, req types.JobRequirements) types.ExperienceMatch {
	months := resume.ExperienceMonths()
	required, _ := req.MinExperienceMonths.Get()
	return types.ExperienceMatch{
		CandidateMonths: months,
		RequiredMonths:  req.MinExperienceMonths,
		MatchLevel:      Classify(months, required),
	}
}

func matchEducation(resume types.ResumeRecord, req types.JobRequirements) types.EducationMatch {
	highest, level := resume.HighestDegree()
	requiredLevel := types.DegreeNone
	if d, ok := req.RequiredDegree.Get(); ok {
		requiredLevel = types.ParseDegreeLevel(d)
	}
	return types.EducationMatch{
		CandidateDegree: highest.Degree,
		CandidateLevel:  level,
		RequiredDegree:  req.RequiredDegree,
		RequiredLevel:   requiredLevel,
		MatchLevel:      Classify(int(level), int(requiredLevel)),
	}
}
