package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// MatchLevel classifies a candidate quantity against a stated minimum
type MatchLevel string

const (
	MatchExceeds            MatchLevel = "exceeds"
	MatchMeets              MatchLevel = "meets"
	MatchBelow              MatchLevel = "below"
	MatchSignificantlyBelow MatchLevel = "significantly_below"
	MatchNotSpecified       MatchLevel = "not_specified"
)

// Recommendation is the executive hiring recommendation
type Recommendation string

const (
	StronglyRecommended      Recommendation = "STRONGLY RECOMMENDED"
	Recommended              Recommendation = "RECOMMENDED"
	ConditionallyRecommended Recommendation = "CONDITIONALLY RECOMMENDED"
	NotRecommended           Recommendation = "NOT RECOMMENDED"
)

// Rank orders recommendations from NOT RECOMMENDED (0) to STRONGLY RECOMMENDED (3).
func (r Recommendation) Rank() int {
	switch r {
	case StronglyRecommended:
		return 3
	case Recommended:
		return 2
	case ConditionallyRecommended:
		return 1
	default:
		return 0
	}
}

// Career levels derived from total experience
const (
	CareerEntry     = "entry"
	CareerMid       = "mid"
	CareerSenior    = "senior"
	CareerExecutive = "executive"
)

// DegreeLevel is an ordinal ranking of academic degrees
type DegreeLevel int

const (
	DegreeNone DegreeLevel = iota
	DegreeHighSchool
	DegreeAssociate
	DegreeBachelor
	DegreeMaster
	DegreeDoctorate
)

var degreeNames = []string{"none", "high_school", "associate", "bachelor", "master", "doctorate"}

func (d DegreeLevel) String() string {
	if d < DegreeNone || int(d) >= len(degreeNames) {
		return "none"
	}
	return degreeNames[d]
}

func (d DegreeLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DegreeLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("degree level: %w", err)
	}
	for i, name := range degreeNames {
		if strings.EqualFold(s, name) {
			*d = DegreeLevel(i)
			return nil
		}
	}
	return fmt.Errorf("degree level: unknown value %q", s)
}

// degreeKeywords is checked from the highest level down so "master" wins over "bachelor"
// in strings that mention both. Stems match anywhere, abbreviations only as whole words.
var degreeKeywords = []struct {
	level         DegreeLevel
	stems         []string
	abbreviations []string
}{
	{DegreeDoctorate, []string{"doctor", "ph.d"}, []string{"phd", "dphil", "edd", "dsc"}},
	{DegreeMaster, []string{"master", "magister"}, []string{"msc", "ms", "ma", "mba", "meng", "mphil", "mfa"}},
	{DegreeBachelor, []string{"bachelor", "undergraduate", "licentiate", "sarjana"}, []string{"bsc", "bs", "ba", "beng", "bba", "btech"}},
	{DegreeAssociate, []string{"associate", "diploma"}, []string{"hnd"}},
	{DegreeHighSchool, []string{"high school", "secondary", "baccalaureate"}, []string{"ged"}},
}

// ParseDegreeLevel maps free-text degree descriptions to a DegreeLevel.
func ParseDegreeLevel(s string) DegreeLevel {
	if IsAbsentMarker(s) {
		return DegreeNone
	}
	lower := strings.ToLower(s)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.NewReplacer(".", "", "'", "").Replace(lower), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}

	for _, entry := range degreeKeywords {
		for _, stem := range entry.stems {
			if strings.Contains(lower, stem) {
				return entry.level
			}
		}
		for _, abbr := range entry.abbreviations {
			if words[abbr] {
				return entry.level
			}
		}
	}
	return DegreeNone
}
