package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotFound is the wire form of an absent value.
const NotFound = "Not found"

// absentMarkers are the spellings accepted as "absent" when decoding.
var absentMarkers = map[string]bool{
	"not found":      true,
	"n/a":            true,
	"none":           true,
	"not specified":  true,
	"not applicable": true,
	"":               true,
}

// IsAbsentMarker reports whether s is one of the spellings used for a missing value.
func IsAbsentMarker(s string) bool {
	return absentMarkers[strings.ToLower(strings.TrimSpace(s))]
}

// Text is an optional string. The zero value is absent.
type Text struct {
	value string
	found bool
}

// Some returns a present Text. Blank strings and absence markers yield an absent Text.
func Some(s string) Text {
	s = strings.TrimSpace(s)
	if IsAbsentMarker(s) {
		return Text{}
	}
	return Text{value: s, found: true}
}

// None returns an absent Text.
func None() Text { return Text{} }

// Get returns the value and whether it is present.
func (t Text) Get() (string, bool) { return t.value, t.found }

// Found reports whether the value is present.
func (t Text) Found() bool { return t.found }

// Or returns the value, or def when absent.
func (t Text) Or(def string) string {
	if !t.found {
		return def
	}
	return t.value
}

// String renders the value, using NotFound for absence.
func (t Text) String() string { return t.Or(NotFound) }

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Text{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("optional text: %w", err)
	}
	*t = Some(s)
	return nil
}

// Months is an optional non-negative month count. The zero value is absent.
type Months struct {
	value int
	found bool
}

// MonthsOf returns a present Months. Negative counts are clamped to zero.
func MonthsOf(n int) Months {
	if n < 0 {
		n = 0
	}
	return Months{value: n, found: true}
}

// NoMonths returns an absent Months.
func NoMonths() Months { return Months{} }

// Get returns the count and whether it is present.
func (m Months) Get() (int, bool) { return m.value, m.found }

// Found reports whether the count is present.
func (m Months) Found() bool { return m.found }

// Or returns the count, or def when absent.
func (m Months) Or(def int) int {
	if !m.found {
		return def
	}
	return m.value
}

func (m Months) String() string {
	if !m.found {
		return NotFound
	}
	return strconv.Itoa(m.value)
}

func (m Months) MarshalJSON() ([]byte, error) {
	if !m.found {
		return json.Marshal(NotFound)
	}
	return json.Marshal(m.value)
}

func (m *Months) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Months{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("optional months: %w", err)
		}
		if IsAbsentMarker(s) {
			*m = Months{}
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("optional months: %q is not a number", s)
		}
		return m.setFloat(f)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("optional months: %w", err)
	}
	return m.setFloat(f)
}

func (m *Months) setFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("optional months: invalid value %v", f)
	}
	*m = MonthsOf(int(math.Round(f)))
	return nil
}
