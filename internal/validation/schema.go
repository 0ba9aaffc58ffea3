// Package validation implements the two validation stages of the pipeline:
// the structural schema check over the raw document and the cross-reference
// check over the typed document. Both collect every finding in one pass.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wrike/promabbix/internal/model"
)

var (
	hostStatuses  = []string{model.HostStatusEnabled, model.HostStatusDisabled}
	hostStates    = []string{model.HostStatePresent, model.HostStateAbsent}
	evalTypes     = []string{"AND", "OR", "AND_OR"}
	templateRe    = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	userMacroRe   = regexp.MustCompile(`^\{\$[A-Z0-9_.]+(?::.+)?\}$`)
	lldMacroRe    = regexp.MustCompile(`^\{#[A-Z0-9_.]+\}$`)
	ruleNameField = map[string]bool{"record": true, "alert": true}
)

// ValidateSchema checks the raw document against the structural schema:
// required sections, field types and enumerations. It is exhaustive and
// returns every violation found, each with a path and, where derivable, a
// suggested fix.
func ValidateSchema(raw map[string]any) []model.Violation {
	c := &collector{}

	groups, ok := requireList(c, raw, "", "groups")
	if ok {
		validateGroups(c, groups)
	}
	zabbix, ok := requireMap(c, raw, "", "zabbix")
	if ok {
		validateZabbix(c, zabbix)
	}
	if prom, present, ok := optionalMap(c, raw, "", "prometheus"); present && ok {
		validatePrometheus(c, prom)
	}
	if pb, present, ok := optionalMap(c, raw, "", "promabbix"); present && ok {
		validatePromabbix(c, pb)
	}
	if wiki, present, ok := optionalMap(c, raw, "", "wiki"); present && ok {
		validateWiki(c, wiki)
	}
	return c.violations
}

// SchemaErr wraps the error-severity subset of violations into a
// SchemaViolation, or returns nil when the document is structurally valid.
func SchemaErr(vs []model.Violation) error {
	errs := model.Errors(vs)
	if len(errs) == 0 {
		return nil
	}
	return &model.SchemaViolation{Violations: errs}
}

func validateGroups(c *collector, groups []any) {
	if len(groups) == 0 {
		c.errorf("groups", "groups must not be empty", "Declare at least one rule group")
		return
	}
	for i, g := range groups {
		path := fmt.Sprintf("groups[%d]", i)
		group, ok := asMap(c, g, path)
		if !ok {
			continue
		}
		requireString(c, group, path, "name")
		rules, ok := requireList(c, group, path, "rules")
		if !ok {
			continue
		}
		for j, r := range rules {
			validateRule(c, r, fmt.Sprintf("%s.rules[%d]", path, j))
		}
	}
}

func validateRule(c *collector, v any, path string) {
	rule, ok := asMap(c, v, path)
	if !ok {
		return
	}
	var names []string
	for field := range ruleNameField {
		if _, ok := rule[field]; ok {
			names = append(names, field)
		}
	}
	sort.Strings(names)
	switch len(names) {
	case 0:
		c.errorf(path, "rule declares neither record nor alert",
			"Add a record field (recording rule) or an alert field (alerting rule)")
	case 1:
		requireString(c, rule, path, names[0])
	default:
		c.errorf(path, "rule declares both record and alert",
			"Split into one recording rule and one alerting rule")
	}
	requireString(c, rule, path, "expr")
	optionalString(c, rule, path, "for")
	optionalStringMap(c, rule, path, "labels")
	optionalStringMap(c, rule, path, "annotations")
}

func validateZabbix(c *collector, zabbix map[string]any) {
	if tpl, ok := requireString(c, zabbix, "zabbix", "template"); ok && !templateRe.MatchString(tpl) {
		c.patternf("zabbix.template", tpl, templateRe.String())
	}
	optionalString(c, zabbix, "zabbix", "name")
	optionalStringMap(c, zabbix, "zabbix", "labels")

	if lld, present, ok := optionalMap(c, zabbix, "zabbix", "lld_filters"); present && ok {
		validateLLDFilters(c, lld)
	}
	if macros, present, ok := optionalList(c, zabbix, "zabbix", "macros"); present && ok {
		validateMacros(c, macros, "zabbix.macros")
	}
	if tags, present, ok := optionalList(c, zabbix, "zabbix", "tags"); present && ok {
		for i, t := range tags {
			path := fmt.Sprintf("zabbix.tags[%d]", i)
			if tag, ok := asMap(c, t, path); ok {
				requireString(c, tag, path, "tag")
				optionalString(c, tag, path, "value")
			}
		}
	}
	if hosts, present, ok := optionalList(c, zabbix, "zabbix", "hosts"); present && ok {
		for i, h := range hosts {
			validateHost(c, h, fmt.Sprintf("zabbix.hosts[%d]", i))
		}
	}
}

func validateLLDFilters(c *collector, lld map[string]any) {
	filter, ok := requireMap(c, lld, "zabbix.lld_filters", "filter")
	if !ok {
		return
	}
	conditions, ok := requireList(c, filter, "zabbix.lld_filters.filter", "conditions")
	if ok {
		for i, cond := range conditions {
			path := fmt.Sprintf("zabbix.lld_filters.filter.conditions[%d]", i)
			m, ok := asMap(c, cond, path)
			if !ok {
				continue
			}
			if macro, ok := requireString(c, m, path, "macro"); ok && !lldMacroRe.MatchString(macro) {
				c.patternf(path+".macro", macro, lldMacroRe.String())
			}
			requireString(c, m, path, "value")
			optionalString(c, m, path, "formulaid")
			optionalString(c, m, path, "operator")
		}
	}
	if et, present, ok := optionalStringValue(c, filter, "zabbix.lld_filters.filter", "evaltype"); present && ok {
		if !contains(evalTypes, et) {
			c.enumf("zabbix.lld_filters.filter.evaltype", et, evalTypes)
		}
	}
}

func validateMacros(c *collector, macros []any, base string) {
	for i, m := range macros {
		path := fmt.Sprintf("%s[%d]", base, i)
		mm, ok := asMap(c, m, path)
		if !ok {
			continue
		}
		if name, ok := requireString(c, mm, path, "macro"); ok && !userMacroRe.MatchString(name) {
			c.patternf(path+".macro", name, userMacroRe.String())
		}
		if v, ok := mm["value"]; !ok {
			c.requiredf(path, "value")
		} else if !isScalar(v) {
			c.typef(path+".value", "scalar", v)
		}
		optionalString(c, mm, path, "description")
	}
}

func validateHost(c *collector, v any, path string) {
	host, ok := asMap(c, v, path)
	if !ok {
		return
	}
	requireString(c, host, path, "host_name")
	optionalString(c, host, path, "visible_name")
	requireStringList(c, host, path, "host_groups")
	requireStringList(c, host, path, "link_templates")
	if status, present, ok := optionalStringValue(c, host, path, "status"); present && ok && !contains(hostStatuses, status) {
		c.enumf(path+".status", status, hostStatuses)
	}
	if state, present, ok := optionalStringValue(c, host, path, "state"); present && ok && !contains(hostStates, state) {
		c.enumf(path+".state", state, hostStates)
	}
	if p, ok := host["proxy"]; ok && p != nil {
		if _, isStr := p.(string); !isStr {
			c.typef(path+".proxy", "string", p)
		}
	}
	if macros, present, ok := optionalList(c, host, path, "macros"); present && ok {
		validateMacros(c, macros, path+".macros")
	}
}

func validatePrometheus(c *collector, prom map[string]any) {
	if api, present, ok := optionalMap(c, prom, "prometheus", "api"); present && ok {
		requireString(c, api, "prometheus.api", "url")
	}
	if mappings, present, ok := optionalList(c, prom, "prometheus", "labels_to_zabbix_macros"); present && ok {
		for i, m := range mappings {
			path := fmt.Sprintf("prometheus.labels_to_zabbix_macros[%d]", i)
			if mm, ok := asMap(c, m, path); ok {
				if pattern, ok := requireString(c, mm, path, "pattern"); ok {
					if _, err := regexp.Compile(pattern); err != nil {
						c.errorf(path+".pattern", fmt.Sprintf("invalid regular expression: %v", err),
							"Fix the regular expression syntax")
					}
				}
				requireString(c, mm, path, "value")
			}
		}
	}
	if encodings, present, ok := optionalList(c, prom, "prometheus", "query_chars_encoding"); present && ok {
		for i, e := range encodings {
			path := fmt.Sprintf("prometheus.query_chars_encoding[%d]", i)
			if em, ok := asMap(c, e, path); ok {
				requireString(c, em, path, "char")
				requireString(c, em, path, "encode")
			}
		}
	}
}

func validatePromabbix(c *collector, pb map[string]any) {
	optionalString(c, pb, "promabbix", "zabbix_depend_item_preprocessing")
	optionalString(c, pb, "promabbix", "zabbix_master_item_preprocessing")
}

func validateWiki(c *collector, wiki map[string]any) {
	kb, present, ok := optionalMap(c, wiki, "wiki", "knowledgebase")
	if !present || !ok {
		return
	}
	alerts, present, ok := optionalMap(c, kb, "wiki.knowledgebase", "alerts")
	if !present || !ok {
		return
	}
	alertings, present, ok := optionalMap(c, alerts, "wiki.knowledgebase.alerts", "alertings")
	if !present || !ok {
		return
	}
	for name, entry := range alertings {
		path := "wiki.knowledgebase.alerts.alertings." + name
		if em, ok := asMap(c, entry, path); ok {
			optionalString(c, em, path, "title")
			optionalString(c, em, path, "content")
		}
	}
}

// collector accumulates violations and owns the message/suggestion formats.
type collector struct {
	violations []model.Violation
}

func (c *collector) errorf(path, message, suggestion string) {
	c.violations = append(c.violations, model.Violation{
		Path:       path,
		Message:    message,
		Severity:   model.SeverityError,
		Suggestion: suggestion,
	})
}

func (c *collector) requiredf(path, field string) {
	c.errorf(path, fmt.Sprintf("missing required field %q", field),
		"Add the required field: "+field)
}

func (c *collector) typef(path, want string, got any) {
	c.errorf(path, fmt.Sprintf("expected %s, got %s", want, typeName(got)),
		"Change value to type: "+want)
}

func (c *collector) enumf(path, got string, allowed []string) {
	c.errorf(path, fmt.Sprintf("value %q is not allowed", got),
		"Use one of the allowed values: "+strings.Join(allowed, ", "))
}

func (c *collector) patternf(path, got, pattern string) {
	c.errorf(path, fmt.Sprintf("value %q does not match the expected shape", got),
		"Value must match pattern: "+pattern)
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func asMap(c *collector, v any, path string) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		c.typef(path, "mapping", v)
		return nil, false
	}
	return m, true
}

func requireMap(c *collector, parent map[string]any, base, field string) (map[string]any, bool) {
	v, ok := parent[field]
	if !ok {
		c.requiredf(base, field)
		return nil, false
	}
	return asMap(c, v, joinPath(base, field))
}

func optionalMap(c *collector, parent map[string]any, base, field string) (m map[string]any, present, ok bool) {
	v, present := parent[field]
	if !present || v == nil {
		return nil, false, false
	}
	m, ok = asMap(c, v, joinPath(base, field))
	return m, true, ok
}

func requireList(c *collector, parent map[string]any, base, field string) ([]any, bool) {
	v, ok := parent[field]
	if !ok {
		c.requiredf(base, field)
		return nil, false
	}
	l, ok := v.([]any)
	if !ok {
		c.typef(joinPath(base, field), "list", v)
		return nil, false
	}
	return l, true
}

func optionalList(c *collector, parent map[string]any, base, field string) (l []any, present, ok bool) {
	v, present := parent[field]
	if !present || v == nil {
		return nil, false, false
	}
	l, ok = v.([]any)
	if !ok {
		c.typef(joinPath(base, field), "list", v)
		return nil, true, false
	}
	return l, true, true
}

func requireString(c *collector, parent map[string]any, base, field string) (string, bool) {
	v, ok := parent[field]
	if !ok {
		c.requiredf(base, field)
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		c.typef(joinPath(base, field), "string", v)
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		c.errorf(joinPath(base, field), "value must not be empty", "Provide a non-empty value")
		return "", false
	}
	return s, true
}

func optionalString(c *collector, parent map[string]any, base, field string) {
	v, ok := parent[field]
	if !ok || v == nil {
		return
	}
	if _, isStr := v.(string); !isStr {
		c.typef(joinPath(base, field), "string", v)
	}
}

func optionalStringValue(c *collector, parent map[string]any, base, field string) (s string, present, ok bool) {
	v, present := parent[field]
	if !present || v == nil {
		return "", false, false
	}
	s, ok = v.(string)
	if !ok {
		c.typef(joinPath(base, field), "string", v)
	}
	return s, true, ok
}

func requireStringList(c *collector, parent map[string]any, base, field string) {
	l, ok := requireList(c, parent, base, field)
	if !ok {
		return
	}
	if len(l) == 0 {
		c.errorf(joinPath(base, field), "list must not be empty", "Provide at least one entry")
		return
	}
	for i, v := range l {
		if _, isStr := v.(string); !isStr {
			c.typef(fmt.Sprintf("%s[%d]", joinPath(base, field), i), "string", v)
		}
	}
}

func optionalStringMap(c *collector, parent map[string]any, base, field string) {
	v, ok := parent[field]
	if !ok || v == nil {
		return
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.typef(joinPath(base, field), "mapping", v)
		return
	}
	for k, val := range m {
		if !isScalar(val) {
			c.typef(joinPath(base, field)+"."+k, "scalar", val)
		}
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, uint64, float64:
		return true
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64:
		return "integer"
	case float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	}
	return fmt.Sprintf("%T", v)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
