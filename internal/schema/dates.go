package schema

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01",
	"01/2006",
	"1/2006",
	"01-2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"Jan, 2006",
	"January, 2006",
	"2006",
}

var ongoingMarkers = map[string]bool{
	"present": true,
	"current": true,
	"now":     true,
	"ongoing": true,
	"today":   true,
}

// ParseMonth resolves a resume date to the first day of its month. Month names match
// case-insensitively. Ongoing markers such as "Present" resolve to ref.
func ParseMonth(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ongoingMarkers[strings.ToLower(s)] {
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}

	normalized := strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// MonthsBetween counts whole months from start to end. A role that starts and ends in the
// same month counts as one month. ok is false when end precedes start.
func MonthsBetween(start, end time.Time) (int, bool) {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0, false
	}
	if months == 0 {
		months = 1
	}
	return months, true
}
