package rubric

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// rawSection is the decoded body of one section. Aliases cover the mapping form,
// the list form, and points-based rubrics where each section carries "points".
type rawSection struct {
	Section            string `mapstructure:"section"`
	Name               string `mapstructure:"name"`
	SectionName        string `mapstructure:"section_name"`
	Scoring            string `mapstructure:"scoring"`
	ScoringDescription string `mapstructure:"scoring_description"`
	Description        string `mapstructure:"description"`
	Category           string `mapstructure:"category"`
	Criteria           any    `mapstructure:"criteria"`
}

// Load parses and normalizes a rubric document.
func Load(data []byte) (*Rubric, error) {
	specs, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Normalize(specs)
}

// Parse reads a YAML or JSON rubric document without validating weights against each other.
// Accepted shapes:
//
//	Skills: {weight: 50, scoring: "..."}     # mapping form, document order is kept
//	Skills: 50                               # mapping form, weight only
//	- {section: Skills, weight: 50}          # list form
//	sections: [{section: Skills, points: 50}]
func Parse(data []byte) ([]SectionSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Code: EmptyRubric}
	}

	// JSON forbids raw tabs inside strings, so in a JSON document they are only
	// indentation, which YAML does not accept.
	if trimmed := bytes.TrimSpace(data); trimmed[0] == '{' || trimmed[0] == '[' {
		data = bytes.ReplaceAll(data, []byte("\t"), []byte(" "))
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Code: MalformedRubric, Detail: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &Error{Code: EmptyRubric}
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return parseList(root)
	case yaml.MappingNode:
		if list := mappingValue(root, "sections"); list != nil && list.Kind == yaml.SequenceNode {
			return parseList(list)
		}
		return parseMapping(root)
	default:
		return nil, &Error{Code: MalformedRubric, Detail: "rubric must be a mapping or a list of sections"}
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func parseMapping(node *yaml.Node) ([]SectionSpec, error) {
	specs := make([]SectionSpec, 0, len(node.Content)/2)
	seen := make(map[string]bool)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if seen[name] {
			return nil, &Error{Code: DuplicateSection, Section: name}
		}
		seen[name] = true

		if value.Kind == yaml.ScalarNode {
			w, err := parseWeight(name, scalarValue(value))
			if err != nil {
				return nil, err
			}
			specs = append(specs, SectionSpec{Name: name, Weight: w})
			continue
		}

		spec, err := decodeSection(value, name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

func parseList(node *yaml.Node) ([]SectionSpec, error) {
	specs := make([]SectionSpec, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, &Error{Code: MalformedRubric, Detail: fmt.Sprintf("section %d is not a mapping", i+1)}
		}
		spec, err := decodeSection(item, "")
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeSection(node *yaml.Node, name string) (SectionSpec, error) {
	if node.Kind != yaml.MappingNode {
		return SectionSpec{}, &Error{Code: MalformedRubric, Section: name, Detail: "section body must be a mapping or a weight"}
	}

	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return SectionSpec{}, &Error{Code: MalformedRubric, Section: name, Detail: err.Error()}
	}

	var raw rawSection
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return SectionSpec{}, err
	}
	if err := decoder.Decode(fields); err != nil {
		return SectionSpec{}, &Error{Code: MalformedRubric, Section: name, Detail: err.Error()}
	}

	if name == "" {
		name = strings.TrimSpace(firstNonEmpty(raw.Section, raw.Name, raw.SectionName))
	}

	weightValue, ok := fields["weight"]
	if !ok {
		weightValue, ok = fields["points"]
	}
	if !ok {
		weightValue, ok = fields["weight_percentage"]
	}
	if !ok {
		return SectionSpec{}, &Error{Code: InvalidWeight, Section: name, Detail: "weight is missing"}
	}
	weight, err := parseWeight(name, weightValue)
	if err != nil {
		return SectionSpec{}, err
	}

	criteria, notes := splitCriteria(raw.Criteria)
	scoring := firstNonEmpty(raw.Scoring, raw.ScoringDescription, raw.Description)
	if len(notes) > 0 {
		scoring = strings.TrimSpace(strings.Join(append([]string{scoring}, notes...), "\n"))
	}

	return SectionSpec{
		Name:     name,
		Weight:   weight,
		Scoring:  scoring,
		Category: raw.Category,
		Criteria: criteria,
	}, nil
}

// splitCriteria turns a criteria list into sub-items. A criteria mapping describes score
// bands (full/partial/zero points) and is folded into the scoring description instead.
func splitCriteria(v any) (items []string, notes []string) {
	switch c := v.(type) {
	case []any:
		for _, item := range c {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				items = append(items, s)
			}
		}
	case map[string]any:
		for _, key := range []string{"full_points", "partial_points", "zero_points"} {
			if s, ok := c[key].(string); ok && strings.TrimSpace(s) != "" {
				notes = append(notes, strings.ReplaceAll(key, "_", " ")+": "+strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(c); s != "" {
			items = append(items, s)
		}
	}
	return items, notes
}

// parseWeight accepts YAML or JSON numbers only. Quoted or suffixed values such as
// "30" or 60% are rejected.
func parseWeight(section string, v any) (float64, error) {
	var w float64
	switch n := v.(type) {
	case int:
		w = float64(n)
	case int64:
		w = float64(n)
	case uint64:
		w = float64(n)
	case float64:
		w = n
	case string:
		return 0, &Error{Code: InvalidWeight, Section: section, Detail: fmt.Sprintf("weight %q must be a number, not a string", n)}
	default:
		return 0, &Error{Code: InvalidWeight, Section: section, Detail: fmt.Sprintf("unsupported weight type %T", v)}
	}

	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, &Error{Code: InvalidWeight, Section: section, Detail: "weight is not a finite number"}
	}
	return w, nil
}

func scalarValue(node *yaml.Node) any {
	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
