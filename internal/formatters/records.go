package formatters

import (
	"fmt"
	"strings"

	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/types"
	"hirescore/internal/validator"
)

func renderResume(d *document, data any) error {
	rec, ok := data.(types.ResumeRecord)
	if !ok {
		return fmt.Errorf("expected ResumeRecord, got %T", data)
	}

	d.title("Resume Record")
	writeResume(d, rec)
	return nil
}

func writeResume(d *document, rec types.ResumeRecord) {
	d.section("Contact")
	d.field("Name", rec.Contact.FullName)
	d.field("Email", rec.Contact.Email)
	d.field("Phone", rec.Contact.Phone)
	d.field("Location", rec.Contact.Location)
	if rec.Contact.LinkedIn.Found() {
		d.field("LinkedIn", rec.Contact.LinkedIn)
	}
	if rec.Contact.Website.Found() {
		d.field("Website", rec.Contact.Website)
	}
	d.gap()

	d.section("Summary")
	d.field("Total Experience (months)", rec.Summary.TotalExperienceMonths)
	d.field("Career Level", rec.Summary.CareerLevel)
	d.field("Career Progression", rec.Summary.CareerProgression)
	if len(rec.Summary.KeyStrengths) > 0 {
		d.subsection("Key Strengths")
		d.list(rec.Summary.KeyStrengths, "")
	}
	if len(rec.Summary.EmploymentGaps) > 0 {
		d.subsection("Employment Gaps")
		gaps := make([]string, 0, len(rec.Summary.EmploymentGaps))
		for _, g := range rec.Summary.EmploymentGaps {
			gaps = append(gaps, fmt.Sprintf("%s to %s (%s months)", g.StartDate, g.EndDate, g.DurationMonths))
		}
		d.list(gaps, "")
	}
	d.gap()

	d.section("Work Experience")
	if len(rec.WorkExperience) == 0 {
		d.list(nil, "None listed")
	}
	for _, w := range rec.WorkExperience {
		d.subsection(fmt.Sprintf("%s at %s", w.JobTitle, w.Company))
		d.field("Period", fmt.Sprintf("%s to %s", w.StartDate, w.EndDate))
		d.field("Duration (months)", w.DurationMonths)
		d.list(w.Responsibilities, "")
		d.list(w.Achievements, "")
		if len(w.ToolsUsed) > 0 {
			d.field("Tools", strings.Join(w.ToolsUsed, ", "))
		}
		d.gap()
	}

	d.section("Education")
	if len(rec.Education) == 0 {
		d.list(nil, "None listed")
	}
	edu := make([]string, 0, len(rec.Education))
	for _, e := range rec.Education {
		edu = append(edu, fmt.Sprintf("%s, %s (%s, %s)", e.Degree, e.FieldOfStudy, e.Institution, e.GraduationDate))
	}
	d.list(edu, "")
	d.gap()

	d.section("Skills")
	skills := []struct {
		label string
		items []string
	}{
		{"Technical", rec.Skills.Technical},
		{"Professional", rec.Skills.Professional},
		{"Software Tools", rec.Skills.SoftwareTools},
		{"Methodologies", rec.Skills.Methodologies},
		{"Domain Expertise", rec.Skills.DomainExpertise},
		{"Soft Skills", rec.Skills.SoftSkills},
	}
	for _, group := range skills {
		if len(group.items) > 0 {
			d.field(group.label, strings.Join(group.items, ", "))
		}
	}
	d.gap()

	if len(rec.Certifications) > 0 {
		d.section("Certifications")
		certs := make([]string, 0, len(rec.Certifications))
		for _, c := range rec.Certifications {
			certs = append(certs, fmt.Sprintf("%s (%s)", c.Name, c.Issuer))
		}
		d.list(certs, "")
		d.gap()
	}

	if len(rec.Languages) > 0 {
		d.section("Languages")
		langs := make([]string, 0, len(rec.Languages))
		for _, l := range rec.Languages {
			langs = append(langs, fmt.Sprintf("%s: %s", l.Language, l.Proficiency))
		}
		d.list(langs, "")
		d.gap()
	}

	if len(rec.Projects) > 0 {
		d.section("Projects")
		projects := make([]string, 0, len(rec.Projects))
		for _, p := range rec.Projects {
			projects = append(projects, fmt.Sprintf("%s: %s", p.Name, p.Description))
		}
		d.list(projects, "")
		d.gap()
	}
}

func renderJob(d *document, data any) error {
	var req types.JobRequirements
	switch v := data.(type) {
	case types.JobDescription:
		req = v.Requirements
	case types.JobRequirements:
		req = v
	default:
		return fmt.Errorf("expected JobDescription, got %T", data)
	}

	d.title("Job Requirements")
	d.field("Title", req.Title)
	d.field("Company", req.Company)
	d.field("Minimum Experience (months)", req.MinExperienceMonths)
	d.field("Required Degree", req.RequiredDegree)
	d.gap()

	d.section("Critical Requirements")
	d.list(req.CriticalRequirements, "None")
	d.gap()
	d.section("Preferred Requirements")
	d.list(req.PreferredRequirements, "None")
	d.gap()
	d.section("Skills")
	d.field("Required", joinOrNone(req.RequiredSkills))
	d.field("Preferred", joinOrNone(req.PreferredSkills))
	d.gap()
	if len(req.RequiredCertifications) > 0 || len(req.RequiredLanguages) > 0 {
		d.section("Other Requirements")
		d.field("Certifications", joinOrNone(req.RequiredCertifications))
		d.field("Languages", joinOrNone(req.RequiredLanguages))
		d.gap()
	}
	return nil
}

func renderRubric(d *document, data any) error {
	r, ok := data.(*rubric.Rubric)
	if !ok || r == nil {
		return fmt.Errorf("expected Rubric, got %T", data)
	}

	d.title("Scoring Rubric")
	writeRubric(d, r)
	return nil
}

func writeRubric(d *document, r *rubric.Rubric) {
	rows := make([][]string, 0, r.Len())
	for _, s := range r.Sections() {
		rows = append(rows, []string{s.Name, s.Category, fmt.Sprintf("%g%%", s.Weight)})
	}
	d.table([]string{"Section", "Category", "Weight"}, rows)
	d.gap()
	d.field("Weight Sum", fmt.Sprintf("%g", r.WeightSum()))
	d.gap()

	for _, s := range r.Sections() {
		if s.Scoring == "" && len(s.Criteria) == 0 {
			continue
		}
		d.subsection(s.Name)
		d.paragraph(s.Scoring)
		d.list(s.Criteria, "")
		d.gap()
	}
}

func renderEvaluation(d *document, data any) error {
	eval, ok := data.(types.MatchEvaluation)
	if !ok {
		return fmt.Errorf("expected MatchEvaluation, got %T", data)
	}

	d.title("Match Evaluation")
	writeEvaluation(d, eval)
	return nil
}

func writeEvaluation(d *document, eval types.MatchEvaluation) {
	d.field("Candidate", eval.Candidate.Name)
	d.field("Current Role", eval.Candidate.CurrentRole)
	d.field("Position", eval.Job.Title)
	d.field("Score", fmt.Sprintf("%s / 10", score(eval.Summary.NormalizedScore)))
	d.field("Total Weighted Score", score(eval.Summary.TotalWeightedScore))
	d.field("Weights Valid", eval.Summary.WeightsValidation)
	if eval.Validation != nil {
		d.field("Validated", eval.Validation.Passed)
	}
	d.gap()

	d.section("Rubric Evaluation")
	rows := make([][]string, 0, len(eval.Sections))
	for _, s := range eval.Sections {
		rows = append(rows, []string{
			s.SectionName,
			fmt.Sprintf("%g%%", s.WeightPercentage),
			fmt.Sprintf("%d/%d", s.ItemsMatched, s.ItemsTotal),
			score(s.SectionScore),
			score(s.WeightedScore),
		})
	}
	d.table([]string{"Section", "Weight", "Matched", "Score", "Weighted"}, rows)
	d.gap()

	d.section("Skills")
	d.field("Match", fmt.Sprintf("%.0f%%", eval.SkillsMatch.MatchPercentage))
	d.field("Matched", joinOrNone(eval.SkillsMatch.MatchedSkills))
	d.field("Missing", joinOrNone(eval.SkillsMatch.MissingSkills))
	d.gap()

	d.section("Experience")
	d.field("Candidate (months)", eval.ExperienceMatch.CandidateMonths)
	d.field("Required (months)", eval.ExperienceMatch.RequiredMonths)
	d.field("Match", eval.ExperienceMatch.MatchLevel)
	d.gap()

	d.section("Education")
	d.field("Candidate", eval.EducationMatch.CandidateDegree)
	d.field("Required", eval.EducationMatch.RequiredDegree)
	d.field("Match", eval.EducationMatch.MatchLevel)
	d.gap()
}

func renderValidation(d *document, data any) error {
	res, ok := data.(validator.ValidationResult)
	if !ok {
		return fmt.Errorf("expected ValidationResult, got %T", data)
	}

	d.title("Validation Result")
	writeValidation(d, res)
	return nil
}

func writeValidation(d *document, res validator.ValidationResult) {
	status := "PASSED"
	if !res.Valid {
		status = "FAILED"
	}
	d.field("Status", status)
	d.field("Stated Total", score(res.StatedTotal))
	d.field("Recomputed Total", score(res.RecomputedTotal))
	d.field("Weight Sum", fmt.Sprintf("%g", res.WeightSum))
	if res.Valid && res.Evaluation.Validation != nil {
		d.field("Digest", res.Evaluation.Validation.Digest)
	}
	d.gap()

	if len(res.Issues) > 0 {
		d.section("Issues")
		issues := make([]string, 0, len(res.Issues))
		for _, issue := range res.Issues {
			issues = append(issues, issue.String())
		}
		d.list(issues, "")
		d.gap()
	}
}

func renderReport(d *document, data any) error {
	rep, ok := data.(types.Report)
	if !ok {
		return fmt.Errorf("expected Report, got %T", data)
	}

	d.title("Candidate Assessment Report")
	writeReport(d, rep)
	return nil
}

func writeReport(d *document, rep types.Report) {
	es := rep.ExecutiveSummary
	d.section("Executive Summary")
	d.field("Candidate", es.CandidateName)
	d.field("Position", es.PositionApplied)
	d.field("Recommendation", es.OverallRecommendation)
	d.field("Score", fmt.Sprintf("%s / 10", score(es.OverallScore)))
	d.field("Confidence", es.ConfidenceLevel)
	d.gap()
	d.paragraph(es.Summary)
	if len(es.KeyDecisionFactors) > 0 {
		d.subsection("Key Decision Factors")
		d.list(es.KeyDecisionFactors, "")
		d.gap()
	}
	if len(es.CriticalConcerns) > 0 {
		d.subsection("Critical Concerns")
		d.list(es.CriticalConcerns, "")
		d.gap()
	}

	cp := rep.CandidateProfile
	d.section("Candidate Profile")
	d.field("Current Role", cp.CurrentRole)
	d.field("Career Level", cp.CareerLevel)
	d.field("Experience (months)", cp.TotalExperienceMonths)
	d.field("Highest Degree", cp.HighestDegree)
	d.field("Languages", joinOrNone(cp.Languages))
	d.field("Certifications", joinOrNone(cp.Certifications))
	d.gap()

	ra := rep.RequirementsAnalysis
	d.section("Requirements Analysis")
	d.field("Satisfaction", fmt.Sprintf("%.0f%%", ra.SatisfactionPercentage))
	d.field("Experience Match", ra.ExperienceMatch)
	d.field("Education Match", ra.EducationMatch)
	d.field("Skills Match", fmt.Sprintf("%.0f%%", ra.SkillsMatchPercentage))
	d.gap()
	if len(ra.Critical) > 0 {
		d.subsection("Critical Requirements")
		d.list(assessments(ra.Critical), "")
		d.gap()
	}
	if len(ra.Preferred) > 0 {
		d.subsection("Preferred Requirements")
		d.list(assessments(ra.Preferred), "")
		d.gap()
	}

	sa := rep.ScoringAnalysis
	d.section("Scoring Analysis")
	rows := make([][]string, 0, len(sa.Rows))
	for _, row := range sa.Rows {
		rows = append(rows, []string{
			row.Criterion,
			score(row.RawScore),
			fmt.Sprintf("%g%%", row.WeightPercentage),
			score(row.WeightedPoints),
			row.PerformanceLevel,
		})
	}
	d.table([]string{"Criterion", "Score", "Weight", "Points", "Level"}, rows)
	d.gap()
	d.field("Total Weighted Score", score(sa.TotalWeightedScore))
	d.field("Normalized Score", score(sa.NormalizedScore))
	d.gap()
	d.paragraph(sa.Methodology)

	d.section("Strengths")
	strengths := make([]string, 0, len(rep.Strengths.CoreStrengths))
	for _, s := range rep.Strengths.CoreStrengths {
		strengths = append(strengths, s.Strength)
	}
	d.list(strengths, "None identified")
	d.gap()

	gr := rep.GapsAndRisks
	d.section("Gaps and Risks")
	gaps := make([]string, 0, len(gr.CriticalGaps))
	for _, g := range gr.CriticalGaps {
		gaps = append(gaps, fmt.Sprintf("[%s] %s", g.ImpactLevel, g.Gap))
	}
	d.list(gaps, "No critical gaps")
	if gr.ExperienceGap != "" {
		d.field("Experience", gr.ExperienceGap)
	}
	if gr.EducationGap != "" {
		d.field("Education", gr.EducationGap)
	}
	if len(gr.RiskFactors) > 0 {
		d.subsection("Risk Factors")
		d.list(gr.RiskFactors, "")
	}
	d.gap()

	d.section("Outlook")
	d.field("Market Positioning", rep.Outlook.MarketPositioning)
	d.field("Immediate Impact", rep.Outlook.ImmediateImpact)
	d.field("Ramp Up", rep.Outlook.RampUp)
	d.gap()

	dr := rep.DecisionRationale
	d.section("Decision Rationale")
	d.subsection("Reasons For")
	d.list(dr.ReasonsFor, "None")
	d.subsection("Reasons Against")
	d.list(dr.ReasonsAgainst, "None")
	if len(dr.Assumptions) > 0 {
		d.subsection("Assumptions")
		d.list(dr.Assumptions, "")
	}
	d.gap()
	d.paragraph(dr.Sensitivity)
}

func renderResult(d *document, data any) error {
	res, ok := data.(*pipeline.Result)
	if !ok || res == nil {
		return fmt.Errorf("expected pipeline result, got %T", data)
	}

	d.title("Evaluation")
	d.field("Run ID", res.RunID)
	d.field("Rubric Source", res.RubricSource)
	d.field("Duration", res.Duration)
	d.field("Tokens", fmt.Sprintf("%d in, %d out", res.Usage.InputTokens, res.Usage.OutputTokens))
	d.gap()

	writeReport(d, res.Report)

	d.section("Validation")
	writeValidation(d, res.Validation)
	return nil
}

func assessments(items []types.RequirementAssessment) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		mark := "MISSING"
		if a.Met {
			mark = "MET"
		}
		line := fmt.Sprintf("[%s] %s", mark, a.Requirement)
		if a.Evidence != "" {
			line += ": " + a.Evidence
		}
		out = append(out, line)
	}
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
