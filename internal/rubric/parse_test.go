package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMappingFormKeepsDocumentOrder(t *testing.T) {
	doc := `
Skills:
  weight: 50
  scoring: Required skills evidenced
  criteria: [Go, Kubernetes]
Experience:
  weight: 30
Education: 20
`
	specs, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "Skills", specs[0].Name)
	assert.Equal(t, 50.0, specs[0].Weight)
	assert.Equal(t, "Required skills evidenced", specs[0].Scoring)
	assert.Equal(t, []string{"Go", "Kubernetes"}, specs[0].Criteria)
	assert.Equal(t, "Experience", specs[1].Name)
	assert.Equal(t, 30.0, specs[1].Weight)
	assert.Equal(t, "Education", specs[2].Name)
	assert.Equal(t, 20.0, specs[2].Weight)
}

func TestParseDetectsDuplicateKeys(t *testing.T) {
	_, err := Parse([]byte("A: 50\nA: 50\n"))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, DuplicateSection, kind)
}

func TestParseListForms(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		specs, err := Parse([]byte(`[{"section":"A","weight":70,"scoring":"x"},{"section":"B","weight":30}]`))
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "A", specs[0].Name)
		assert.Equal(t, "x", specs[0].Scoring)
	})

	t.Run("points based document", func(t *testing.T) {
		doc := `{
    "job_title": "Data Engineer",
    "sections": [
      {"name": "Relevant Work Experience", "points": 60,
       "criteria": {"full_points": "5+ years", "partial_points": "2-5 years", "zero_points": "none"}},
      {"name": "Skills", "points": 40, "description": "SQL and Spark"}
    ]
  }`
		r, err := Load([]byte(doc))
		require.NoError(t, err)

		sections := r.Sections()
		assert.Equal(t, "Relevant Work Experience", sections[0].Name)
		assert.Equal(t, 60.0, sections[0].Weight)
		assert.Contains(t, sections[0].Scoring, "full points: 5+ years")
		assert.Empty(t, sections[0].Criteria)
		assert.Equal(t, "SQL and Spark", sections[1].Scoring)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want ErrorKind
	}{
		{"empty document", "   ", EmptyRubric},
		{"scalar document", "42", MalformedRubric},
		{"non numeric weight", "A: heavy\n", InvalidWeight},
		{"missing weight", "- {section: A}\n", InvalidWeight},
		{"quoted weight", "A: \"60\"\nB: 40\n", InvalidWeight},
		{"percent weight", "- {section: A, weight: '60%'}\n- {section: B, weight: 40}\n", InvalidWeight},
		{"json string weight", `[{"section":"A","weight":"70"},{"section":"B","weight":30}]`, InvalidWeight},
		{"list item not mapping", "- A\n- B\n", MalformedRubric},
		{"invalid yaml", "A: [1, 2\n", MalformedRubric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			kind, ok := KindOf(err)
			require.True(t, ok, "expected rubric error, got %v", err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestLoadRejectsWeightSumMismatch(t *testing.T) {
	_, err := Load([]byte("A: 60\nB: 30\n"))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, WeightSumMismatch, kind)
}
