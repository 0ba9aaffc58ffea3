package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wrike/promabbix/internal/model"
)

// macroRefRe matches user macro references, with or without macro context
// ({$NAME} and {$NAME:"ctx"}).
var macroRefRe = regexp.MustCompile(`\{\$([A-Z0-9_.]+)(?::[^}]*)?\}`)

// ValidateCrossReferences checks the relationships the structural schema
// cannot express. It must run only after ValidateSchema succeeded. Wiki
// mismatches come back as warnings; undeclared macros, hosts not linking
// their own template and unresolvable alert expressions are hard errors.
func ValidateCrossReferences(doc *model.Document) []model.Violation {
	c := &collector{}

	records := recordNames(doc)
	declared := declaredMacros(doc)

	checkWikiConsistency(c, doc)
	checkFilterMacros(c, doc, declared)
	checkHostTemplateLinks(c, doc)
	checkAlertExpressions(c, doc, records, declared)

	return c.violations
}

// CrossRefErr wraps the error-severity subset into a CrossReferenceError, or
// returns nil when only warnings (or nothing) were found.
func CrossRefErr(vs []model.Violation) error {
	errs := model.Errors(vs)
	if len(errs) == 0 {
		return nil
	}
	return &model.CrossReferenceError{Violations: errs}
}

// checkWikiConsistency compares knowledgebase keys with alerting rule names.
// Documentation may lead implementation, so both directions warn, never fail.
func checkWikiConsistency(c *collector, doc *model.Document) {
	if doc.Wiki == nil {
		return
	}
	alertings := doc.Wiki.Knowledgebase.Alerts.Alertings
	if len(alertings) == 0 {
		return
	}
	alerts := map[string]bool{}
	for _, r := range doc.AlertingRules() {
		alerts[r.Alert] = true
	}

	var undocumented, orphaned []string
	for name := range alerts {
		if _, ok := alertings[name]; !ok {
			undocumented = append(undocumented, name)
		}
	}
	for name := range alertings {
		if !alerts[name] {
			orphaned = append(orphaned, name)
		}
	}
	sort.Strings(undocumented)
	sort.Strings(orphaned)

	if len(undocumented) > 0 {
		c.warnf("wiki.knowledgebase.alerts.alertings",
			"alerts missing wiki documentation: "+strings.Join(undocumented, ", "),
			"Add a knowledgebase entry for each alerting rule")
	}
	if len(orphaned) > 0 {
		c.warnf("wiki.knowledgebase.alerts.alertings",
			"wiki documentation exists for undefined alerts: "+strings.Join(orphaned, ", "),
			"Remove stale entries or check alert names for typos")
	}
}

func checkFilterMacros(c *collector, doc *model.Document, declared map[string]bool) {
	if doc.Zabbix.LLDFilters == nil {
		return
	}
	for i, cond := range doc.Zabbix.LLDFilters.Filter.Conditions {
		for _, ref := range extractMacroRefs(cond.Value) {
			if !declared[ref] {
				c.errorf(fmt.Sprintf("zabbix.lld_filters.filter.conditions[%d].value", i),
					fmt.Sprintf("macro {$%s} is not declared at template or host level", ref),
					"Declare the macro in zabbix.macros or in a host's macros")
			}
		}
	}
}

func checkHostTemplateLinks(c *collector, doc *model.Document) {
	accepted := map[string]bool{
		doc.Zabbix.Template:           true,
		doc.Zabbix.FullTemplateName(): true,
	}
	for i, host := range doc.Zabbix.Hosts {
		linked := false
		for _, t := range host.LinkTemplates {
			if accepted[t] {
				linked = true
				break
			}
		}
		if !linked {
			c.errorf(fmt.Sprintf("zabbix.hosts[%d].link_templates", i),
				fmt.Sprintf("host %q does not link the document's own template %q", host.HostName, doc.Zabbix.Template),
				"Add the template to link_templates: "+doc.Zabbix.FullTemplateName())
		}
	}
}

// checkAlertExpressions verifies every alerting rule expression resolves
// against a recording rule or declared macros, and that every macro it
// references is declared somewhere in the macro chain.
func checkAlertExpressions(c *collector, doc *model.Document, records, declared map[string]bool) {
	for gi, g := range doc.Groups {
		for ri, r := range g.Rules {
			if !r.IsAlerting() {
				continue
			}
			path := fmt.Sprintf("groups[%d].rules[%d].expr", gi, ri)

			refs := extractMacroRefs(r.Expr)
			declaredRef := false
			for _, ref := range refs {
				if declared[ref] {
					declaredRef = true
					continue
				}
				c.errorf(path,
					fmt.Sprintf("alert %q references undeclared macro {$%s}", r.Alert, ref),
					"Declare the macro in zabbix.macros or in a host's macros")
			}
			if !referencesRecord(r.Expr, records) && !declaredRef {
				c.errorf(path,
					fmt.Sprintf("alert %q references neither a recording rule nor a declared macro", r.Alert),
					"Reference a record name defined in this document's recording rules")
			}
		}
	}
}

func recordNames(doc *model.Document) map[string]bool {
	out := map[string]bool{}
	for _, r := range doc.RecordingRules() {
		out[r.Record] = true
	}
	return out
}

// declaredMacros collects macro names (context stripped) from the template
// level and from every host override.
func declaredMacros(doc *model.Document) map[string]bool {
	out := map[string]bool{}
	add := func(ms []model.Macro) {
		for _, m := range ms {
			if name, ok := macroName(m.Macro); ok {
				out[name] = true
			}
		}
	}
	add(doc.Zabbix.Macros)
	for _, h := range doc.Zabbix.Hosts {
		add(h.Macros)
	}
	return out
}

// macroName extracts NAME from {$NAME} or {$NAME:"context"}.
func macroName(decl string) (string, bool) {
	m := macroRefRe.FindStringSubmatch(decl)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractMacroRefs returns the macro names referenced in a piece of text, in
// order of appearance, context stripped.
func extractMacroRefs(text string) []string {
	var out []string
	for _, m := range macroRefRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// referencesRecord reports whether expr mentions any known record name as a
// standalone identifier rather than as a substring of a longer one.
func referencesRecord(expr string, records map[string]bool) bool {
	for name := range records {
		if containsIdentifier(expr, name) {
			return true
		}
	}
	return false
}

func containsIdentifier(s, ident string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], ident)
		if i < 0 {
			return false
		}
		i += start
		before := i - 1
		after := i + len(ident)
		if (before < 0 || !isIdentChar(s[before])) && (after >= len(s) || !isIdentChar(s[after])) {
			return true
		}
		start = i + 1
	}
}

func isIdentChar(b byte) bool {
	return b == '_' || b == ':' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (c *collector) warnf(path, message, suggestion string) {
	c.violations = append(c.violations, model.Violation{
		Path:       path,
		Message:    message,
		Severity:   model.SeverityWarning,
		Suggestion: suggestion,
	})
}
