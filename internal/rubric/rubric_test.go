package rubric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		specs    []SectionSpec
		wantKind ErrorKind
	}{
		{
			name:  "valid three sections",
			specs: []SectionSpec{{Name: "Skills", Weight: 50}, {Name: "Experience", Weight: 30}, {Name: "Education", Weight: 20}},
		},
		{
			name:  "within tolerance",
			specs: []SectionSpec{{Name: "A", Weight: 33.33}, {Name: "B", Weight: 33.33}, {Name: "C", Weight: 33.33}},
		},
		{
			name:     "sum below 100",
			specs:    []SectionSpec{{Name: "A", Weight: 60}, {Name: "B", Weight: 30}},
			wantKind: WeightSumMismatch,
		},
		{
			name:     "sum just outside tolerance",
			specs:    []SectionSpec{{Name: "A", Weight: 50}, {Name: "B", Weight: 50.02}},
			wantKind: WeightSumMismatch,
		},
		{
			name:     "duplicate section",
			specs:    []SectionSpec{{Name: "A", Weight: 50}, {Name: "A", Weight: 50}},
			wantKind: DuplicateSection,
		},
		{
			name:     "duplicate after trimming",
			specs:    []SectionSpec{{Name: "A", Weight: 50}, {Name: " A ", Weight: 50}},
			wantKind: DuplicateSection,
		},
		{
			name:  "names are case sensitive",
			specs: []SectionSpec{{Name: "a", Weight: 50}, {Name: "A", Weight: 50}},
		},
		{
			name:     "negative weight",
			specs:    []SectionSpec{{Name: "A", Weight: 110}, {Name: "B", Weight: -10}},
			wantKind: InvalidWeight,
		},
		{
			name:     "empty",
			wantKind: EmptyRubric,
		},
		{
			name:     "unknown category",
			specs:    []SectionSpec{{Name: "A", Weight: 100, Category: "astrology"}},
			wantKind: MalformedRubric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Normalize(tt.specs)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.True(t, r.Normalized())
				assert.Equal(t, len(tt.specs), r.Len())
				return
			}
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Nil(t, r)
		})
	}
}

func TestWeightSumMismatchCarriesSum(t *testing.T) {
	_, err := Normalize([]SectionSpec{{Name: "A", Weight: 60}, {Name: "B", Weight: 30}})

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, WeightSumMismatch, rerr.Code)
	assert.InDelta(t, 90.0, rerr.Sum, 1e-9)
	assert.Equal(t, "rubric", rerr.Stage())
	assert.Equal(t, "WeightSumMismatch", rerr.Kind())
	assert.Contains(t, rerr.Error(), "90")
}

func TestNormalizePreservesOrderAndInfersCategory(t *testing.T) {
	r, err := Normalize([]SectionSpec{
		{Name: "Technical Skills", Weight: 40},
		{Name: "Work Experience", Weight: 40},
		{Name: "Degree", Weight: 10},
		{Name: "Bonus", Weight: 10, Category: "Certifications"},
	})
	require.NoError(t, err)

	sections := r.Sections()
	names := make([]string, len(sections))
	cats := make([]string, len(sections))
	for i, s := range sections {
		names[i], cats[i] = s.Name, s.Category
	}
	assert.Equal(t, []string{"Technical Skills", "Work Experience", "Degree", "Bonus"}, names)
	assert.Equal(t, []string{CategorySkills, CategoryExperience, CategoryEducation, CategoryCertifications}, cats)

	// Sections returns a copy.
	sections[0].Name = "changed"
	assert.Equal(t, "Technical Skills", r.Sections()[0].Name)
}

func TestZeroValueRubricIsNotNormalized(t *testing.T) {
	var nilRubric *Rubric
	assert.False(t, nilRubric.Normalized())
	assert.False(t, (&Rubric{}).Normalized())
	assert.Equal(t, 0, nilRubric.Len())
}

func TestDefaultRubric(t *testing.T) {
	r := Default()
	require.True(t, r.Normalized())
	assert.Equal(t, 6, r.Len())
	assert.InDelta(t, 100.0, r.WeightSum(), Tolerance)
	assert.Equal(t, "Relevant Work Experience", r.Sections()[0].Name)
}

func TestMarshalRoundTripsThroughLoad(t *testing.T) {
	original := Default()
	data, err := json.Marshal(original)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, original.Sections(), loaded.Sections())
}

func TestCategoryFor(t *testing.T) {
	tests := map[string]string{
		"Relevant Work Experience":                  CategoryExperience,
		"Skills and Technical Expertise":            CategorySkills,
		"Educational Background and Certifications": CategoryEducation,
		"Achievements and Impact":                   CategoryAchievements,
		"Soft Skills and Cultural Fit":              CategorySoftSkills,
		"Professional Certifications":               CategoryCertifications,
		"Languages":                                 CategoryLanguages,
		"Side Projects":                             CategoryProjects,
		"Bonus":                                     CategoryBonus,
		"Overall Fit":                               CategoryGeneral,
	}
	for name, want := range tests {
		assert.Equal(t, want, CategoryFor(name), name)
	}
}
