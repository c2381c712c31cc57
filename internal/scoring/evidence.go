package scoring

import (
	"fmt"
	"strings"
	"unicode"

	"hirescore/internal/types"
)

// stopWords are ignored when matching multi-word requirements against evidence.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"team": true, "role": true, "job": true, "about": true, "which": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"years": true, "year": true, "experience": true, "strong": true, "knowledge": true,
	"ability": true, "skills": true, "skill": true, "proficiency": true, "proficient": true,
	"understanding": true, "working": true, "must": true, "should": true, "plus": true,
	"least": true, "minimum": true, "preferred": true, "required": true, "good": true,
}

// evidence is one resume fact that a rubric item can be matched against
type evidence struct {
	label string
	text  string
	words map[string]bool
}

func newEvidence(kind, value string) evidence {
	return evidence{
		label: kind + ": " + strings.TrimSpace(value),
		text:  normalizeTerm(value),
		words: keywords(value),
	}
}

// pool is an ordered collection of evidence
type pool []evidence

func (p *pool) add(kind string, values ...string) {
	for _, v := range values {
		if strings.TrimSpace(v) == "" || types.IsAbsentMarker(v) {
			continue
		}
		*p = append(*p, newEvidence(kind, v))
	}
}

func (p *pool) addText(kind string, t types.Text) {
	if v, ok := t.Get(); ok {
		p.add(kind, v)
	}
}

func (p pool) labels() []string {
	out := make([]string, 0, len(p))
	seen := make(map[string]bool, len(p))
	for _, e := range p {
		if !seen[e.label] {
			seen[e.label] = true
			out = append(out, e.label)
		}
	}
	return out
}

// evidencePools groups resume facts by the categories rubric sections score against
type evidencePools struct {
	skills       pool
	softSkills   pool
	experience   pool
	roles        pool
	education    pool
	certs        pool
	languages    pool
	projects     pool
	achievements pool
	extras       pool
	all          pool
}

func buildPools(r types.ResumeRecord) evidencePools {
	var p evidencePools

	p.skills.add("skill", r.Skills.Hard()...)
	for _, w := range r.WorkExperience {
		p.skills.add("tool", w.ToolsUsed...)
	}
	for _, proj := range r.Projects {
		p.skills.add("project skill", proj.SkillsUsed...)
	}
	p.softSkills.add("soft skill", r.Skills.SoftSkills...)

	for _, w := range r.WorkExperience {
		title, company := w.JobTitle.Or(""), w.Company.Or("")
		if title != "" || company != "" {
			label := title
			switch {
			case title != "" && company != "":
				label = title + " at " + company
			case title == "":
				label = company
			}
			if months, ok := w.DurationMonths.Get(); ok {
				label = fmt.Sprintf("%s (%d months)", label, months)
			}
			p.roles.add("role", label)
			p.experience.add("role", label)
		}
		p.experience.add("responsibility", w.Responsibilities...)
		p.experience.add("achievement", w.Achievements...)
		p.experience.add("tool", w.ToolsUsed...)
		p.achievements.add("achievement", w.Achievements...)
	}
	p.experience.add("domain", r.Skills.DomainExpertise...)

	for _, e := range r.Education {
		parts := make([]string, 0, 3)
		for _, t := range []types.Text{e.Degree, e.FieldOfStudy, e.Institution} {
			if v, ok := t.Get(); ok {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			p.education.add("education", strings.Join(parts, ", "))
		}
	}

	for _, c := range r.Certifications {
		p.certs.addText("certification", c.Name)
	}
	for _, l := range r.Languages {
		name, ok := l.Language.Get()
		if !ok {
			continue
		}
		if prof, ok := l.Proficiency.Get(); ok {
			p.languages.add("language", name+" ("+prof+")")
		} else {
			p.languages.add("language", name)
		}
	}
	for _, proj := range r.Projects {
		p.projects.addText("project", proj.Name)
		p.projects.addText("project", proj.Description)
		p.achievements.addText("project outcome", proj.Outcome)
	}
	p.achievements.add("award", r.Additional.Awards...)
	p.achievements.add("publication", r.Additional.Publications...)

	p.extras = append(p.extras, p.certs...)
	p.extras = append(p.extras, p.projects...)
	p.extras = append(p.extras, p.languages...)
	p.extras.add("award", r.Additional.Awards...)
	p.extras.add("publication", r.Additional.Publications...)
	p.extras.add("volunteer", r.Additional.Volunteer...)

	for _, group := range []pool{p.skills, p.softSkills, p.experience, p.education, p.certs, p.languages, p.projects, p.achievements, p.extras} {
		p.all = append(p.all, group...)
	}
	return p
}

// normalizeTerm lowercases and collapses whitespace.
func normalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

// keywords tokenizes s into lowercase words of at least two characters, skipping stop words.
// '+', '#' and inner dots are kept so "c++", "c#" and "node.js" survive.
func keywords(s string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := strings.Trim(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !stopWords[w] {
			kw[w] = true
		}
	}
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start, end := offset+i, offset+i+len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(text[i-1])
	return !isWordRune(r) && r != '.'
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r := rune(text[i])
	if r == '.' {
		return i+1 >= len(text) || !isWordRune(rune(text[i+1]))
	}
	return !isWordRune(r)
}

// matchItem finds the first evidence satisfying item. An item matches an entry equal to it,
// an entry containing it as a phrase, or, for items of two or more keywords, an entry
// holding at least two thirds of those keywords.
func matchItem(item string, p pool) (evidence, bool) {
	term := normalizeTerm(item)
	if term == "" {
		return evidence{}, false
	}
	for _, e := range p {
		if e.text == term {
			return e, true
		}
	}
	for _, e := range p {
		if containsPhrase(e.text, term) {
			return e, true
		}
	}

	kw := keywords(term)
	if len(kw) < 2 {
		return evidence{}, false
	}
	for _, e := range p {
		hits := 0
		for w := range kw {
			if e.words[w] {
				hits++
			}
		}
		if hits*3 >= len(kw)*2 {
			return e, true
		}
	}
	return evidence{}, false
}

// Index looks up resume evidence for free-text requirements using the same
// matching rules as section scoring.
type Index struct {
	all pool
}

// NewIndex builds an evidence index over resume.
func NewIndex(resume types.ResumeRecord) *Index {
	return &Index{all: buildPools(resume).all}
}

// Find returns the label of the first resume entry satisfying item.
func (i *Index) Find(item string) (string, bool) {
	e, ok := matchItem(item, i.all)
	return e.label, ok
}
