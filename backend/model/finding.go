package model

import (
	"fmt"
	"sort"
)

// Category separates syntax findings from logic findings.
type Category string

const (
	Syntax Category = "syntax"
	Logic  Category = "logic"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one reported syntax or logic issue.
type Finding struct {
	Kind     Category `json:"kind"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location Position `json:"location"`
}

func (f Finding) String() string {
	if f.Location.Line > 0 {
		return fmt.Sprintf("Line %d: %s", f.Location.Line, f.Message)
	}
	return f.Message
}

// SortFindings orders findings by location. Findings without a location sort
// last; ties keep their relative order.
func SortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i].Location, fs[j].Location
		if (a.Line == 0) != (b.Line == 0) {
			return b.Line == 0
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
