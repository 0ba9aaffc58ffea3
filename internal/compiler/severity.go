package compiler

import (
	"sort"
	"strings"

	"github.com/wrike/promabbix/internal/model"
)

// Zabbix trigger severities as spelled in template exports.
const (
	SeverityNotClassified = "NOT_CLASSIFIED"
	SeverityInfo          = "INFO"
	SeverityWarning       = "WARNING"
	SeverityAverage       = "AVERAGE"
	SeverityHigh          = "HIGH"
	SeverityDisaster      = "DISASTER"
)

// DefaultPriorityMap translates recognized priority-label values into the
// Zabbix severity enumeration. The accepted vocabulary is configuration, not
// a hard-coded contract: callers may extend or replace it via Options.
func DefaultPriorityMap() map[string]string {
	return map[string]string{
		"NOT_CLASSIFIED": SeverityNotClassified,
		"INFO":           SeverityInfo,
		"INFORMATION":    SeverityInfo,
		"WARNING":        SeverityWarning,
		"AVERAGE":        SeverityAverage,
		"HIGH":           SeverityHigh,
		"DISASTER":       SeverityDisaster,
		"CRITICAL":       SeverityDisaster,
	}
}

// severityFor resolves the trigger severity for an alerting rule. A missing
// priority label falls back to the configured default; an unrecognized value
// is a compilation error, never a silent default.
func severityFor(rule model.Rule, opts Options) (string, error) {
	raw, ok := rule.Labels[opts.PriorityLabel]
	if !ok || strings.TrimSpace(raw) == "" {
		return opts.DefaultSeverity, nil
	}
	if sev, ok := opts.PriorityMap[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return sev, nil
	}
	return "", &model.UnknownPriorityError{
		Alert: rule.Alert,
		Value: raw,
		Known: knownPriorities(opts.PriorityMap),
	}
}

func knownPriorities(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
