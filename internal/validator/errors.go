package validator

import (
	"fmt"
	"strings"
)

// IssueKind classifies one inconsistency found in an evaluation
type IssueKind string

const (
	ArithmeticDrift            IssueKind = "ArithmeticDrift"
	WeightDrift                IssueKind = "WeightDrift"
	SectionArithmetic          IssueKind = "SectionArithmetic"
	NormalizedDrift            IssueKind = "NormalizedDrift"
	ScoreOutOfRange            IssueKind = "ScoreOutOfRange"
	EvidenceScoreInconsistency IssueKind = "EvidenceScoreInconsistency"
)

// Issue is a single failed check
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Section string    `json:"section,omitempty"`
	Detail  string    `json:"detail"`
}

func (i Issue) String() string {
	if i.Section != "" {
		return fmt.Sprintf("%s in section %q: %s", i.Kind, i.Section, i.Detail)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
}

// Inconsistency is returned when an evaluation fails validation. It carries every
// issue found, in check order.
type Inconsistency struct {
	Issues []Issue
}

func (e *Inconsistency) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("evaluation failed validation with %d issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

func (e *Inconsistency) Stage() string { return "validation" }

// Kind is the kind of the first issue.
func (e *Inconsistency) Kind() string {
	if len(e.Issues) == 0 {
		return ""
	}
	return string(e.Issues[0].Kind)
}

// Has reports whether any issue is of kind k.
func (e *Inconsistency) Has(k IssueKind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == k {
			return true
		}
	}
	return false
}
