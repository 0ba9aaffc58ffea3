package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group names recognized in the unified document. Rules inside a group are still
// classified by their own record/alert field, the group name is a convention.
const (
	GroupRecordingRules = "recording_rules"
	GroupAlertingRules  = "alerting_rules"
)

// PriorityLabel is the rule label carrying the Zabbix severity hint.
const PriorityLabel = "__zbx_priority"

// Document is the unified configuration: Prometheus-style rule groups plus the
// Zabbix metadata needed to compile them into a template export.
type Document struct {
	Groups     []RuleGroup `yaml:"groups" json:"groups"`
	Prometheus Prometheus  `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
	Promabbix  Promabbix   `yaml:"promabbix,omitempty" json:"promabbix,omitempty"`
	Zabbix     Zabbix      `yaml:"zabbix" json:"zabbix"`
	Wiki       *Wiki       `yaml:"wiki,omitempty" json:"wiki,omitempty"`
}

// RuleGroup is a named collection of recording or alerting rules.
type RuleGroup struct {
	Name  string `yaml:"name" json:"name"`
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Rule is a single Prometheus-style rule. Exactly one of Record or Alert is set.
type Rule struct {
	Record      string            `yaml:"record,omitempty" json:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty" json:"alert,omitempty"`
	Expr        string            `yaml:"expr" json:"expr"`
	For         string            `yaml:"for,omitempty" json:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// IsRecording reports whether the rule declares a record name.
func (r Rule) IsRecording() bool { return r.Record != "" }

// IsAlerting reports whether the rule declares an alert name.
func (r Rule) IsAlerting() bool { return r.Alert != "" }

// Name returns the record or alert name, whichever is set.
func (r Rule) Name() string {
	if r.Record != "" {
		return r.Record
	}
	return r.Alert
}

// RecordingRules returns all recording rules across groups, in document order.
func (d *Document) RecordingRules() []Rule {
	var out []Rule
	for _, g := range d.Groups {
		for _, r := range g.Rules {
			if r.IsRecording() {
				out = append(out, r)
			}
		}
	}
	return out
}

// AlertingRules returns all alerting rules across groups, in document order.
func (d *Document) AlertingRules() []Rule {
	var out []Rule
	for _, g := range d.Groups {
		for _, r := range g.Rules {
			if r.IsAlerting() {
				out = append(out, r)
			}
		}
	}
	return out
}

// Prometheus holds the metrics backend endpoint and the rewrite tables applied
// while compiling expressions.
type Prometheus struct {
	API                  PrometheusAPI       `yaml:"api,omitempty" json:"api,omitempty"`
	LabelsToZabbixMacros []LabelMacroMapping `yaml:"labels_to_zabbix_macros,omitempty" json:"labels_to_zabbix_macros,omitempty"`
	QueryCharsEncoding   []CharEncoding      `yaml:"query_chars_encoding,omitempty" json:"query_chars_encoding,omitempty"`
}

type PrometheusAPI struct {
	URL string `yaml:"url" json:"url"`
}

// LabelMacroMapping rewrites one Prometheus placeholder shape into Zabbix macro
// syntax. Pattern is a regular expression; Value may reference named capture
// groups as \g<name> (original notation) or ${name}.
type LabelMacroMapping struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Value   string `yaml:"value" json:"value"`
}

// CharEncoding is a single character substitution applied to query expressions
// before they are embedded into the master item URL.
type CharEncoding struct {
	Char   string `yaml:"char" json:"char"`
	Encode string `yaml:"encode" json:"encode"`
}

// Promabbix carries the preprocessing snippets injected into the generated items.
type Promabbix struct {
	DependItemPreprocessing string `yaml:"zabbix_depend_item_preprocessing,omitempty" json:"zabbix_depend_item_preprocessing,omitempty"`
	MasterItemPreprocessing string `yaml:"zabbix_master_item_preprocessing,omitempty" json:"zabbix_master_item_preprocessing,omitempty"`
}

// TemplateNamePrefix is the naming convention applied to the template id when
// the template is deployed. Host link_templates may use either form.
const TemplateNamePrefix = "templ_module_promt_"

// Zabbix is the template metadata section of the unified document.
type Zabbix struct {
	Template   string            `yaml:"template" json:"template"`
	Name       string            `yaml:"name,omitempty" json:"name,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	LLDFilters *LLDFilters       `yaml:"lld_filters,omitempty" json:"lld_filters,omitempty"`
	Macros     []Macro           `yaml:"macros,omitempty" json:"macros,omitempty"`
	Tags       []Tag             `yaml:"tags,omitempty" json:"tags,omitempty"`
	Hosts      []Host            `yaml:"hosts,omitempty" json:"hosts,omitempty"`
}

// FullTemplateName returns the deployed template name for the document, the
// template id carrying the conventional prefix unless already present.
func (z Zabbix) FullTemplateName() string {
	if strings.HasPrefix(z.Template, TemplateNamePrefix) {
		return z.Template
	}
	return TemplateNamePrefix + z.Template
}

// LLDFilters wraps the discovery rule filter definition.
type LLDFilters struct {
	Filter Filter `yaml:"filter" json:"filter"`
}

// Filter is a set of LLD conditions combined by EvalType (AND, OR, AND_OR).
type Filter struct {
	Conditions []FilterCondition `yaml:"conditions" json:"conditions"`
	EvalType   string            `yaml:"evaltype,omitempty" json:"evaltype,omitempty"`
}

type FilterCondition struct {
	FormulaID string `yaml:"formulaid,omitempty" json:"formulaid,omitempty"`
	Macro     string `yaml:"macro" json:"macro"`
	Value     string `yaml:"value" json:"value"`
	Operator  string `yaml:"operator,omitempty" json:"operator,omitempty"`
}

// Macro is a user macro declaration at template or host level.
type Macro struct {
	Macro       string     `yaml:"macro" json:"macro"`
	Value       FlexScalar `yaml:"value" json:"value"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
}

type Tag struct {
	Tag   string `yaml:"tag" json:"tag"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Host statuses and states accepted by the schema.
const (
	HostStatusEnabled  = "enabled"
	HostStatusDisabled = "disabled"
	HostStatePresent   = "present"
	HostStateAbsent    = "absent"
)

// Host is a pseudo-host anchoring the compiled template, with optional macro
// overrides taking precedence over the template-level values.
type Host struct {
	HostName      string   `yaml:"host_name" json:"host_name"`
	VisibleName   string   `yaml:"visible_name,omitempty" json:"visible_name,omitempty"`
	HostGroups    []string `yaml:"host_groups" json:"host_groups"`
	LinkTemplates []string `yaml:"link_templates" json:"link_templates"`
	Status        string   `yaml:"status,omitempty" json:"status,omitempty"`
	State         string   `yaml:"state,omitempty" json:"state,omitempty"`
	Proxy         string   `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Macros        []Macro  `yaml:"macros,omitempty" json:"macros,omitempty"`
}

// Wiki mirrors the knowledgebase section linking alerts to documentation.
type Wiki struct {
	Templates     map[string]any `yaml:"templates,omitempty" json:"templates,omitempty"`
	Knowledgebase Knowledgebase  `yaml:"knowledgebase,omitempty" json:"knowledgebase,omitempty"`
}

type Knowledgebase struct {
	Alerts KnowledgebaseAlerts `yaml:"alerts,omitempty" json:"alerts,omitempty"`
}

type KnowledgebaseAlerts struct {
	Alertings map[string]WikiAlert `yaml:"alertings,omitempty" json:"alertings,omitempty"`
}

type WikiAlert struct {
	Title   string `yaml:"title,omitempty" json:"title,omitempty"`
	Content string `yaml:"content,omitempty" json:"content,omitempty"`
}

// FlexScalar is a string that also accepts numeric and boolean scalars when
// decoding, since macro values are commonly written unquoted in YAML.
type FlexScalar string

func (f *FlexScalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar, got %s", kindName(value.Kind))
	}
	*f = FlexScalar(value.Value)
	return nil
}

func (f *FlexScalar) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		*f = FlexScalar(unquoted)
		return nil
	}
	*f = FlexScalar(s)
	return nil
}

func (f FlexScalar) String() string { return string(f) }

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// DecodeDocument converts a raw document (as produced by the loader or the
// migrator) into the typed Document by round-tripping through YAML.
func DecodeDocument(raw map[string]any) (*Document, error) {
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw document: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("decode unified document: %w", err)
	}
	return &doc, nil
}
