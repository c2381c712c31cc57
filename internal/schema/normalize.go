package schema

import (
	"sort"
	"strings"
	"time"

	"hirescore/internal/types"
)

// GapThresholdMonths is the minimum break between roles reported as an employment gap.
const GapThresholdMonths = 3

// NormalizeResume returns a fully shaped copy of rec. Absent durations, totals, gaps and the
// career level are derived from the data present; values already present are kept.
// ref resolves ongoing end dates such as "Present".
func NormalizeResume(rec types.ResumeRecord, ref time.Time) types.ResumeRecord {
	out := types.ResumeRecord{
		Contact:        rec.Contact,
		Education:      append([]types.Education{}, rec.Education...),
		WorkExperience: make([]types.WorkExperience, 0, len(rec.WorkExperience)),
		Skills: types.Skills{
			Professional:    cleanList(rec.Skills.Professional),
			Technical:       cleanList(rec.Skills.Technical),
			SoftwareTools:   cleanList(rec.Skills.SoftwareTools),
			Methodologies:   cleanList(rec.Skills.Methodologies),
			SoftSkills:      cleanList(rec.Skills.SoftSkills),
			DomainExpertise: cleanList(rec.Skills.DomainExpertise),
		},
		Languages:      append([]types.Language{}, rec.Languages...),
		Certifications: append([]types.Certification{}, rec.Certifications...),
		Projects:       make([]types.Project, 0, len(rec.Projects)),
		Additional: types.AdditionalSections{
			Awards:       cleanList(rec.Additional.Awards),
			Publications: cleanList(rec.Additional.Publications),
			Volunteer:    cleanList(rec.Additional.Volunteer),
		},
		Summary: types.AnalysisSummary{
			TotalExperienceMonths: rec.Summary.TotalExperienceMonths,
			CareerLevel:           rec.Summary.CareerLevel,
			CareerProgression:     rec.Summary.CareerProgression,
			EmploymentGaps:        append([]types.EmploymentGap{}, rec.Summary.EmploymentGaps...),
			KeyStrengths:          cleanList(rec.Summary.KeyStrengths),
		},
	}

	for _, w := range rec.WorkExperience {
		w.Responsibilities = cleanList(w.Responsibilities)
		w.Achievements = cleanList(w.Achievements)
		w.ToolsUsed = cleanList(w.ToolsUsed)
		if !w.DurationMonths.Found() {
			w.DurationMonths = roleDuration(w, ref)
		}
		out.WorkExperience = append(out.WorkExperience, w)
	}

	for _, p := range rec.Projects {
		p.SkillsUsed = cleanList(p.SkillsUsed)
		out.Projects = append(out.Projects, p)
	}

	if !out.Summary.TotalExperienceMonths.Found() && len(out.WorkExperience) > 0 {
		total, known := 0, false
		for _, w := range out.WorkExperience {
			if d, ok := w.DurationMonths.Get(); ok {
				total += d
				known = true
			}
		}
		if known {
			out.Summary.TotalExperienceMonths = types.MonthsOf(total)
		}
	}

	if len(out.Summary.EmploymentGaps) == 0 {
		out.Summary.EmploymentGaps = employmentGaps(out.WorkExperience, ref)
	}

	if !out.Summary.CareerLevel.Found() {
		if total, ok := out.Summary.TotalExperienceMonths.Get(); ok {
			out.Summary.CareerLevel = types.Some(CareerLevel(total))
		}
	}

	return out
}

// NormalizeJob returns a copy of job with trimmed, de-duplicated lists.
func NormalizeJob(job types.JobRequirements) types.JobRequirements {
	job.CriticalRequirements = cleanList(job.CriticalRequirements)
	job.PreferredRequirements = cleanList(job.PreferredRequirements)
	job.RequiredSkills = cleanList(job.RequiredSkills)
	job.PreferredSkills = cleanList(job.PreferredSkills)
	job.RequiredCertifications = cleanList(job.RequiredCertifications)
	job.RequiredLanguages = cleanList(job.RequiredLanguages)
	return job
}

// CareerLevel buckets total experience months.
func CareerLevel(totalMonths int) string {
	switch {
	case totalMonths < 24:
		return types.CareerEntry
	case totalMonths < 72:
		return types.CareerMid
	case totalMonths < 144:
		return types.CareerSenior
	default:
		return types.CareerExecutive
	}
}

func roleDuration(w types.WorkExperience, ref time.Time) types.Months {
	start, ok := parseText(w.StartDate, ref)
	if !ok {
		return types.NoMonths()
	}
	end, ok := parseText(w.EndDate, ref)
	if !ok {
		return types.NoMonths()
	}
	months, ok := MonthsBetween(start, end)
	if !ok {
		return types.NoMonths()
	}
	return types.MonthsOf(months)
}

func parseText(t types.Text, ref time.Time) (time.Time, bool) {
	s, ok := t.Get()
	if !ok {
		return time.Time{}, false
	}
	return ParseMonth(s, ref)
}

type span struct {
	start, end time.Time
}

func employmentGaps(roles []types.WorkExperience, ref time.Time) []types.EmploymentGap {
	var spans []span
	for _, w := range roles {
		start, ok := parseText(w.StartDate, ref)
		if !ok {
			continue
		}
		end, ok := parseText(w.EndDate, ref)
		if !ok || end.Before(start) {
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	gaps := []types.EmploymentGap{}
	for i := 1; i < len(spans); i++ {
		covered := spans[0].end
		for _, s := range spans[:i] {
			if s.end.After(covered) {
				covered = s.end
			}
		}
		next := spans[i].start
		months := (next.Year()-covered.Year())*12 + int(next.Month()) - int(covered.Month())
		if months > GapThresholdMonths {
			gaps = append(gaps, types.EmploymentGap{
				StartDate:      types.Some(covered.Format("2006-01")),
				EndDate:        types.Some(next.Format("2006-01")),
				DurationMonths: types.MonthsOf(months),
			})
		}
	}
	return gaps
}

// cleanList trims entries, drops blanks and absence markers, and removes case-insensitive duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if types.IsAbsentMarker(s) {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
