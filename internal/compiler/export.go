package compiler

// Zabbix template-export document shape, schema version 6.0. Field order is
// fixed by the struct declarations, which keeps serialized output stable for
// identical input.

// Export is the root of a Zabbix template-export document.
type Export struct {
	ZabbixExport ExportBody `json:"zabbix_export" yaml:"zabbix_export"`
}

type ExportBody struct {
	Version   string     `json:"version" yaml:"version"`
	Groups    []GroupRef `json:"groups,omitempty" yaml:"groups,omitempty"`
	Templates []Template `json:"templates" yaml:"templates"`
}

type GroupRef struct {
	Name string `json:"name" yaml:"name"`
}

type Template struct {
	UUID           string          `json:"uuid" yaml:"uuid"`
	Template       string          `json:"template" yaml:"template"`
	Name           string          `json:"name" yaml:"name"`
	Groups         []GroupRef      `json:"groups" yaml:"groups"`
	DiscoveryRules []DiscoveryRule `json:"discovery_rules,omitempty" yaml:"discovery_rules,omitempty"`
	Macros         []TemplateMacro `json:"macros,omitempty" yaml:"macros,omitempty"`
	Tags           []TagRef        `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DiscoveryRule is the single LLD rule compiled per document. It polls the
// metrics backend itself (HTTP agent) and derives the discovery list from the
// response, so no separate master item is needed.
type DiscoveryRule struct {
	UUID              string             `json:"uuid" yaml:"uuid"`
	Name              string             `json:"name" yaml:"name"`
	Type              string             `json:"type" yaml:"type"`
	Key               string             `json:"key" yaml:"key"`
	Delay             string             `json:"delay" yaml:"delay"`
	URL               string             `json:"url,omitempty" yaml:"url,omitempty"`
	QueryFields       []QueryField       `json:"query_fields,omitempty" yaml:"query_fields,omitempty"`
	Filter            *Filter            `json:"filter,omitempty" yaml:"filter,omitempty"`
	Preprocessing     []Preprocessing    `json:"preprocessing,omitempty" yaml:"preprocessing,omitempty"`
	ItemPrototypes    []ItemPrototype    `json:"item_prototypes,omitempty" yaml:"item_prototypes,omitempty"`
	TriggerPrototypes []TriggerPrototype `json:"trigger_prototypes,omitempty" yaml:"trigger_prototypes,omitempty"`
}

type QueryField struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Filter mirrors the document's LLD filter definition verbatim.
type Filter struct {
	EvalType   string            `json:"evaltype,omitempty" yaml:"evaltype,omitempty"`
	Conditions []FilterCondition `json:"conditions" yaml:"conditions"`
}

type FilterCondition struct {
	FormulaID string `json:"formulaid,omitempty" yaml:"formulaid,omitempty"`
	Macro     string `json:"macro" yaml:"macro"`
	Value     string `json:"value" yaml:"value"`
	Operator  string `json:"operator,omitempty" yaml:"operator,omitempty"`
}

type Preprocessing struct {
	Type       string   `json:"type" yaml:"type"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

type ItemPrototype struct {
	UUID          string          `json:"uuid" yaml:"uuid"`
	Name          string          `json:"name" yaml:"name"`
	Type          string          `json:"type" yaml:"type"`
	Key           string          `json:"key" yaml:"key"`
	Delay         string          `json:"delay" yaml:"delay"`
	URL           string          `json:"url,omitempty" yaml:"url,omitempty"`
	QueryFields   []QueryField    `json:"query_fields,omitempty" yaml:"query_fields,omitempty"`
	ValueType     string          `json:"value_type" yaml:"value_type"`
	Preprocessing []Preprocessing `json:"preprocessing,omitempty" yaml:"preprocessing,omitempty"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// TriggerPrototype carries the rewritten alert expression. EvaluationDelay is
// the best-effort carry-over of the Prometheus for: window; Zabbix threshold
// evaluation has no exact equivalent, so downstream sync treats it as
// advisory.
type TriggerPrototype struct {
	UUID            string   `json:"uuid" yaml:"uuid"`
	Name            string   `json:"name" yaml:"name"`
	Expression      string   `json:"expression" yaml:"expression"`
	Priority        string   `json:"priority" yaml:"priority"`
	EvaluationDelay string   `json:"evaluation_delay,omitempty" yaml:"evaluation_delay,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags            []TagRef `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type TemplateMacro struct {
	Macro       string `json:"macro" yaml:"macro"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type TagRef struct {
	Tag   string `json:"tag" yaml:"tag"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// CompiledHost is a pseudo-host entry for the downstream sync layer, its
// macro set already merged (host overrides winning over template values).
type CompiledHost struct {
	Host      string          `json:"host" yaml:"host"`
	Name      string          `json:"name,omitempty" yaml:"name,omitempty"`
	Groups    []string        `json:"groups" yaml:"groups"`
	Templates []string        `json:"templates" yaml:"templates"`
	Status    string          `json:"status,omitempty" yaml:"status,omitempty"`
	State     string          `json:"state,omitempty" yaml:"state,omitempty"`
	Proxy     string          `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Macros    []TemplateMacro `json:"macros,omitempty" yaml:"macros,omitempty"`
}

// Item and preprocessing type constants used in the export.
const (
	exportVersion = "6.0"

	itemTypeHTTPAgent = "HTTP_AGENT"

	valueTypeFloat = "FLOAT"

	preprocJavaScript = "JAVASCRIPT"
	preprocJSONPath   = "JSONPATH"
)
