package model

import "strings"

// ViolationSeverity distinguishes hard errors from advisory warnings.
type ViolationSeverity string

const (
	SeverityError   ViolationSeverity = "error"
	SeverityWarning ViolationSeverity = "warning"
)

// Violation is one path-qualified validation finding. Suggestion is filled when
// a fix can be derived from the schema (enum values, expected type).
type Violation struct {
	Path       string            `json:"path"`
	Message    string            `json:"message"`
	Severity   ViolationSeverity `json:"severity"`
	Suggestion string            `json:"suggestion,omitempty"`
}

func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(string(v.Severity))
	b.WriteString(" at ")
	if v.Path == "" {
		b.WriteString("root")
	} else {
		b.WriteString(v.Path)
	}
	b.WriteString(": ")
	b.WriteString(v.Message)
	if v.Suggestion != "" {
		b.WriteString(" (suggestion: ")
		b.WriteString(v.Suggestion)
		b.WriteString(")")
	}
	return b.String()
}

// Errors returns the subset of violations with error severity.
func Errors(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns the subset of violations with warning severity.
func Warnings(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}
