// Package compiler turns a validated unified document into a Zabbix
// template-export document. Compilation is a pure function of its input:
// identical documents compile to byte-identical output, including every
// entity UUID, regardless of process or machine.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	prommodel "github.com/prometheus/common/model"
	"github.com/wrike/promabbix/internal/model"
)

// Options carries the configurable parts of compilation. The priority-label
// vocabulary is deliberately configuration rather than a constant.
type Options struct {
	// PriorityLabel is the rule label read for the trigger severity.
	PriorityLabel string
	// PriorityMap translates label values (upper-cased) into Zabbix severities.
	PriorityMap map[string]string
	// DefaultSeverity is used when the priority label is absent.
	DefaultSeverity string
	// TemplateGroup is the Zabbix group the template is filed under.
	TemplateGroup string
}

// DefaultOptions returns the options used by the CLI unless overridden.
func DefaultOptions() Options {
	return Options{
		PriorityLabel:   model.PriorityLabel,
		PriorityMap:     DefaultPriorityMap(),
		DefaultSeverity: SeverityWarning,
		TemplateGroup:   "Templates/Modules",
	}
}

// Result is the compiled template plus the host list for downstream sync.
type Result struct {
	Export *Export
	Hosts  []CompiledHost
}

// Compile builds the template export from a validated document. It either
// returns a complete, internally consistent document or an error; no partial
// output is ever produced.
func Compile(doc *model.Document, opts Options) (*Result, error) {
	if doc.Zabbix.Template == "" {
		return nil, fmt.Errorf("document has no template identifier")
	}

	mappings := doc.Prometheus.LabelsToZabbixMacros
	if len(mappings) == 0 {
		mappings = DefaultLabelMappings
	}
	rw, err := newRewriter(mappings)
	if err != nil {
		return nil, err
	}

	templateID := doc.Zabbix.Template
	templateName := doc.Zabbix.FullTemplateName()
	visibleName := doc.Zabbix.Name
	if visibleName == "" {
		visibleName = templateName
	}

	discovery, err := buildDiscoveryRule(doc, templateID)
	if err != nil {
		return nil, err
	}
	discovery.ItemPrototypes = buildItemPrototypes(doc, templateID)
	discovery.TriggerPrototypes, err = buildTriggerPrototypes(doc, templateID, rw, opts)
	if err != nil {
		return nil, err
	}

	tpl := Template{
		UUID:           entityUUID(templateID, kindTemplate, templateID),
		Template:       templateName,
		Name:           visibleName,
		Groups:         []GroupRef{{Name: opts.TemplateGroup}},
		DiscoveryRules: []DiscoveryRule{*discovery},
		Macros:         exportMacros(doc.Zabbix.Macros),
		Tags:           exportTags(doc.Zabbix.Tags),
	}

	return &Result{
		Export: &Export{ZabbixExport: ExportBody{
			Version:   exportVersion,
			Groups:    []GroupRef{{Name: opts.TemplateGroup}},
			Templates: []Template{tpl},
		}},
		Hosts: buildHosts(doc),
	}, nil
}

// buildDiscoveryRule compiles the single LLD rule: an HTTP-agent rule that
// queries the metrics backend with every recording expression and extracts
// the discovery list from the response. Filter conditions and evaluation mode
// are copied verbatim from the document.
func buildDiscoveryRule(doc *model.Document, templateID string) (*DiscoveryRule, error) {
	rule := &DiscoveryRule{
		UUID:  entityUUID(templateID, kindDiscovery),
		Name:  "Prometheus metrics discovery",
		Type:  itemTypeHTTPAgent,
		Key:   fmt.Sprintf("promt.lld.discovery[%s]", templateID),
		Delay: "1m",
		URL:   doc.Prometheus.API.URL,
	}
	for _, r := range doc.RecordingRules() {
		rule.QueryFields = append(rule.QueryFields, QueryField{
			Name:  "query." + r.Record,
			Value: encodeQuery(r.Expr, doc.Prometheus.QueryCharsEncoding),
		})
	}
	if doc.Zabbix.LLDFilters != nil {
		f := doc.Zabbix.LLDFilters.Filter
		out := &Filter{EvalType: f.EvalType}
		for _, c := range f.Conditions {
			out.Conditions = append(out.Conditions, FilterCondition{
				FormulaID: c.FormulaID,
				Macro:     c.Macro,
				Value:     c.Value,
				Operator:  c.Operator,
			})
		}
		rule.Filter = out
	}
	if js := doc.Promabbix.MasterItemPreprocessing; js != "" {
		rule.Preprocessing = append(rule.Preprocessing, Preprocessing{
			Type:       preprocJavaScript,
			Parameters: []string{js},
		})
	}
	rule.Preprocessing = append(rule.Preprocessing, Preprocessing{
		Type:       preprocJSONPath,
		Parameters: []string{"$.lld"},
	})
	return rule, nil
}

// buildItemPrototypes compiles one prototype per recording rule. The key is
// annotated with the LLD subkey macro the discovery rule substitutes per
// discovered entity.
func buildItemPrototypes(doc *model.Document, templateID string) []ItemPrototype {
	var out []ItemPrototype
	for _, r := range doc.RecordingRules() {
		item := ItemPrototype{
			UUID:        entityUUID(templateID, kindItem, r.Record),
			Name:        r.Record,
			Type:        itemTypeHTTPAgent,
			Key:         fmt.Sprintf("promt.metric[{#ZBX.ITEM.SUBKEY},%s]", r.Record),
			Delay:       "1m",
			URL:         doc.Prometheus.API.URL,
			ValueType:   valueTypeFloat,
			Description: r.Expr,
			QueryFields: []QueryField{{
				Name:  "query",
				Value: encodeQuery(r.Expr, doc.Prometheus.QueryCharsEncoding),
			}},
		}
		if js := doc.Promabbix.MasterItemPreprocessing; js != "" {
			item.Preprocessing = append(item.Preprocessing, Preprocessing{
				Type:       preprocJavaScript,
				Parameters: []string{js},
			})
		}
		if jp := doc.Promabbix.DependItemPreprocessing; jp != "" {
			item.Preprocessing = append(item.Preprocessing, Preprocessing{
				Type:       preprocJSONPath,
				Parameters: []string{jp},
			})
		}
		out = append(out, item)
	}
	return out
}

// buildTriggerPrototypes compiles one prototype per alerting rule, rewriting
// Prometheus placeholders in the expression and annotations through the
// ordered mapping table.
func buildTriggerPrototypes(doc *model.Document, templateID string, rw *rewriter, opts Options) ([]TriggerPrototype, error) {
	var out []TriggerPrototype
	for _, r := range doc.AlertingRules() {
		expr, err := rw.Rewrite(r.Expr)
		if err != nil {
			return nil, err
		}
		severity, err := severityFor(r, opts)
		if err != nil {
			return nil, err
		}
		trigger := TriggerPrototype{
			UUID:       entityUUID(templateID, kindTrigger, r.Alert),
			Name:       r.Alert,
			Expression: expr,
			Priority:   severity,
		}
		if r.For != "" {
			d, err := prommodel.ParseDuration(r.For)
			if err != nil {
				return nil, fmt.Errorf("alert %q: invalid for duration %q: %w", r.Alert, r.For, err)
			}
			trigger.EvaluationDelay = d.String()
		}
		trigger.Description, err = buildTriggerDescription(r, rw)
		if err != nil {
			return nil, err
		}
		trigger.Tags = triggerTags(r, opts.PriorityLabel)
		out = append(out, trigger)
	}
	return out, nil
}

// buildTriggerDescription joins the rule annotations, summary first, then
// description, then any remaining keys in sorted order, all rewritten.
func buildTriggerDescription(r model.Rule, rw *rewriter) (string, error) {
	if len(r.Annotations) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(r.Annotations))
	for k := range r.Annotations {
		if k != "summary" && k != "description" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	ordered := make([]string, 0, len(r.Annotations))
	for _, k := range append([]string{"summary", "description"}, keys...) {
		if v, ok := r.Annotations[k]; ok {
			ordered = append(ordered, v)
		}
	}
	var lines []string
	for _, v := range ordered {
		rewritten, err := rw.Rewrite(v)
		if err != nil {
			return "", err
		}
		lines = append(lines, rewritten)
	}
	return strings.Join(lines, "\n"), nil
}

// triggerTags copies rule labels onto the trigger, skipping the priority
// hint, in sorted key order for stable output.
func triggerTags(r model.Rule, priorityLabel string) []TagRef {
	if len(r.Labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		if k != priorityLabel {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var out []TagRef
	for _, k := range keys {
		out = append(out, TagRef{Tag: k, Value: r.Labels[k]})
	}
	return out
}

// buildHosts merges the macro chain per host: template-level declaration
// order first with host overrides replacing values in place, host-only
// macros appended in their own order.
func buildHosts(doc *model.Document) []CompiledHost {
	var out []CompiledHost
	for _, h := range doc.Zabbix.Hosts {
		out = append(out, CompiledHost{
			Host:      h.HostName,
			Name:      h.VisibleName,
			Groups:    h.HostGroups,
			Templates: h.LinkTemplates,
			Status:    h.Status,
			State:     h.State,
			Proxy:     h.Proxy,
			Macros:    MergeMacros(doc.Zabbix.Macros, h.Macros),
		})
	}
	return out
}

// MergeMacros implements the macro precedence contract: the result follows
// template-level declaration order, a host macro of the same name replaces
// the template entry, and host-only macros are appended.
func MergeMacros(template, host []model.Macro) []TemplateMacro {
	overrides := make(map[string]model.Macro, len(host))
	for _, m := range host {
		overrides[m.Macro] = m
	}
	var out []TemplateMacro
	seen := make(map[string]bool, len(template))
	for _, m := range template {
		seen[m.Macro] = true
		if o, ok := overrides[m.Macro]; ok {
			m = mergeOverride(m, o)
		}
		out = append(out, toExportMacro(m))
	}
	for _, m := range host {
		if !seen[m.Macro] {
			out = append(out, toExportMacro(m))
		}
	}
	return out
}

// mergeOverride keeps the template description when the override has none.
func mergeOverride(tpl, host model.Macro) model.Macro {
	if host.Description == "" {
		host.Description = tpl.Description
	}
	return host
}

func toExportMacro(m model.Macro) TemplateMacro {
	return TemplateMacro{
		Macro:       m.Macro,
		Value:       m.Value.String(),
		Description: m.Description,
	}
}

func exportMacros(ms []model.Macro) []TemplateMacro {
	var out []TemplateMacro
	for _, m := range ms {
		out = append(out, toExportMacro(m))
	}
	return out
}

func exportTags(ts []model.Tag) []TagRef {
	var out []TagRef
	for _, t := range ts {
		out = append(out, TagRef{Tag: t.Tag, Value: t.Value})
	}
	return out
}

// encodeQuery applies the configured character substitutions to a query
// expression before it is embedded into an item URL.
func encodeQuery(expr string, encodings []model.CharEncoding) string {
	out := expr
	for _, e := range encodings {
		out = strings.ReplaceAll(out, e.Char, e.Encode)
	}
	return out
}
