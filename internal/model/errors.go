package model

import (
	"fmt"
	"strings"
)

// Error codes reported alongside the typed errors below.
const (
	ErrorCodeLegacyFormat    = "LEGACY_FORMAT_ERROR"
	ErrorCodeSchemaViolation = "SCHEMA_VIOLATION"
	ErrorCodeCrossReference  = "CROSS_REFERENCE_ERROR"
	ErrorCodeMacroMapping    = "MACRO_MAPPING_ERROR"
	ErrorCodeUnknownPriority = "UNKNOWN_PRIORITY_ERROR"
)

// LegacyFormatError reports malformed or incomplete legacy three-document input.
type LegacyFormatError struct {
	Reason string
}

func (e *LegacyFormatError) Error() string {
	return fmt.Sprintf("legacy format error: %s", e.Reason)
}

// SchemaViolation carries every structural violation found in one validation pass.
type SchemaViolation struct {
	Violations []Violation
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema validation failed with %d violation(s):\n%s",
		len(e.Violations), formatViolations(e.Violations))
}

// CrossReferenceError carries hard relational inconsistencies between sections.
type CrossReferenceError struct {
	Violations []Violation
}

func (e *CrossReferenceError) Error() string {
	return fmt.Sprintf("cross-reference validation failed with %d violation(s):\n%s",
		len(e.Violations), formatViolations(e.Violations))
}

// MacroMappingError reports a placeholder rewrite whose capture group is empty
// or malformed.
type MacroMappingError struct {
	Pattern string
	Input   string
	Reason  string
}

func (e *MacroMappingError) Error() string {
	return fmt.Sprintf("macro mapping error: %s (pattern %q, input %q)", e.Reason, e.Pattern, e.Input)
}

// UnknownPriorityError reports a severity label value outside the recognized set.
type UnknownPriorityError struct {
	Alert string
	Value string
	Known []string
}

func (e *UnknownPriorityError) Error() string {
	return fmt.Sprintf("unknown priority %q on alert %q, recognized values: %s",
		e.Value, e.Alert, strings.Join(e.Known, ", "))
}

func formatViolations(vs []Violation) string {
	lines := make([]string, 0, len(vs))
	for _, v := range vs {
		lines = append(lines, "  - "+v.String())
	}
	return strings.Join(lines, "\n")
}
