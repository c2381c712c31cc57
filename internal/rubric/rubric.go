// Package rubric parses, validates and canonicalizes weighted scoring rubrics.
package rubric

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Tolerance is the allowed deviation of the weight sum from 100.
const Tolerance = 0.01

// SectionSpec is an unvalidated rubric section as read from a document
type SectionSpec struct {
	Name     string
	Weight   float64
	Scoring  string
	Category string
	Criteria []string
}

// Section is a validated rubric section
type Section struct {
	Name     string   `json:"section"`
	Weight   float64  `json:"weight"`
	Scoring  string   `json:"scoring"`
	Category string   `json:"category"`
	Criteria []string `json:"criteria"`
}

// Rubric is a canonical, ordered rubric whose weights sum to 100.
// Only Normalize produces a usable Rubric; the zero value reports Normalized() == false.
type Rubric struct {
	sections   []Section
	weightSum  float64
	normalized bool
}

// Normalize validates specs and returns the canonical rubric. Section names are trimmed
// and compared case-sensitively; order is preserved. Missing categories are inferred
// from the section name.
func Normalize(specs []SectionSpec) (*Rubric, error) {
	if len(specs) == 0 {
		return nil, &Error{Code: EmptyRubric}
	}

	sections := make([]Section, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	sum := 0.0

	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, &Error{Code: MalformedRubric, Detail: "section name is empty"}
		}
		if seen[name] {
			return nil, &Error{Code: DuplicateSection, Section: name}
		}
		seen[name] = true

		if err := checkWeight(name, spec.Weight); err != nil {
			return nil, err
		}

		category := strings.ToLower(strings.TrimSpace(spec.Category))
		if category == "" {
			category = CategoryFor(name)
		} else if !IsCategory(category) {
			return nil, &Error{Code: MalformedRubric, Section: name, Detail: fmt.Sprintf("unknown category %q", spec.Category)}
		}

		criteria := make([]string, 0, len(spec.Criteria))
		for _, c := range spec.Criteria {
			if c = strings.TrimSpace(c); c != "" {
				criteria = append(criteria, c)
			}
		}

		sections = append(sections, Section{
			Name:     name,
			Weight:   spec.Weight,
			Scoring:  strings.TrimSpace(spec.Scoring),
			Category: category,
			Criteria: criteria,
		})
		sum += spec.Weight
	}

	if math.Abs(sum-100) > Tolerance+1e-9 {
		return nil, &Error{Code: WeightSumMismatch, Sum: sum}
	}

	return &Rubric{sections: sections, weightSum: sum, normalized: true}, nil
}

func checkWeight(name string, w float64) error {
	switch {
	case math.IsNaN(w) || math.IsInf(w, 0):
		return &Error{Code: InvalidWeight, Section: name, Detail: "weight is not a finite number"}
	case w < 0:
		return &Error{Code: InvalidWeight, Section: name, Detail: fmt.Sprintf("weight %g is negative", w)}
	case w > 100:
		return &Error{Code: InvalidWeight, Section: name, Detail: fmt.Sprintf("weight %g exceeds 100", w)}
	}
	return nil
}

// Normalized reports whether r passed Normalize. It is safe on a nil Rubric.
func (r *Rubric) Normalized() bool {
	return r != nil && r.normalized
}

// Sections returns a copy of the sections in rubric order.
func (r *Rubric) Sections() []Section {
	if r == nil {
		return nil
	}
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		s.Criteria = append([]string(nil), s.Criteria...)
		out[i] = s
	}
	return out
}

// Len returns the number of sections.
func (r *Rubric) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sections)
}

// WeightSum returns the validated sum of section weights.
func (r *Rubric) WeightSum() float64 {
	if r == nil {
		return 0
	}
	return r.weightSum
}

// Specs converts the rubric back into section specs.
func (r *Rubric) Specs() []SectionSpec {
	specs := make([]SectionSpec, 0, r.Len())
	for _, s := range r.Sections() {
		specs = append(specs, SectionSpec(s))
	}
	return specs
}

type document struct {
	Sections []Section `json:"sections"`
}

// MarshalJSON emits the canonical list form, which Parse accepts.
func (r *Rubric) MarshalJSON() ([]byte, error) {
	sections := r.Sections()
	if sections == nil {
		sections = []Section{}
	}
	for i := range sections {
		if sections[i].Criteria == nil {
			sections[i].Criteria = []string{}
		}
	}
	return json.Marshal(document{Sections: sections})
}

// UnmarshalJSON accepts any document Load accepts and normalizes it.
func (r *Rubric) UnmarshalJSON(data []byte) error {
	normalized, err := Load(data)
	if err != nil {
		return err
	}
	*r = *normalized
	return nil
}
