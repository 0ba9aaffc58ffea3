// Package migration normalizes the legacy three-document configuration layout
// (alert rules, zabbix vars, wiki vars) into the unified document shape. It is
// the only consumer of the legacy input variant; everything downstream sees the
// unified shape.
package migration

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/wrike/promabbix/internal/model"
)

// Format tags the input document shape, resolved once at the boundary.
type Format string

const (
	FormatUnified Format = "unified"
	FormatLegacy  Format = "legacy"
)

// Legacy three-document marker keys.
const (
	legacyKeyAlertRules = "alert_rules"
	legacyKeyZabbixVars = "zabbix_vars"
	legacyKeyWikiVars   = "wiki_vars"
)

// Defaults injected for sections the legacy layout never carried.
const (
	defaultPrometheusURL = "http://victoria-metrics.monitoring.svc:8481/api/v1/query"

	defaultDependItemPreprocessing = `$.metrics["{#ZBX.ITEM.SUBKEY}"]`

	defaultMasterItemPreprocessing = `var ingest_json = JSON.parse(value),
    metrics = ingest_json.data.result || [],
    result = { "lld": [], "metrics": {} };
for (var i = 0; i < metrics.length; i++) {
    var metric = metrics[i];
    var labels = metric.metric || {};
    var key = Object.keys(labels).map(k => labels[k]).join('_') || 'default';
    result.lld.push(labels);
    result.metrics[key] = metric.value[1];
}
return JSON.stringify(result);`
)

// Input is the tagged variant wrapping a raw decoded document.
type Input struct {
	Format Format
	Raw    map[string]any
}

// Resolve classifies a raw document. Unified mode requires both top-level
// groups and zabbix sections and none of the legacy markers; everything else
// is treated as legacy input.
func Resolve(raw map[string]any) Input {
	_, hasGroups := raw["groups"]
	_, hasZabbix := raw["zabbix"]
	if hasGroups && hasZabbix && !hasLegacyMarkers(raw) {
		return Input{Format: FormatUnified, Raw: raw}
	}
	return Input{Format: FormatLegacy, Raw: raw}
}

func hasLegacyMarkers(raw map[string]any) bool {
	for _, k := range []string{legacyKeyAlertRules, legacyKeyZabbixVars, legacyKeyWikiVars} {
		if _, ok := raw[k]; ok {
			return true
		}
	}
	return false
}

// Result is the migrated unified document plus non-fatal migration warnings.
type Result struct {
	Document map[string]any
	Warnings []model.Violation
}

// Migrate produces the unified document. Unified input passes through
// untouched; legacy input is merged under groups, zabbix and wiki, with
// default prometheus/promabbix sections injected when absent. Fields with no
// unified counterpart are reported as warnings, never dropped silently.
func Migrate(in Input) (*Result, error) {
	if in.Format == FormatUnified {
		return &Result{Document: in.Raw}, nil
	}
	return migrateLegacy(in.Raw)
}

func migrateLegacy(raw map[string]any) (*Result, error) {
	res := &Result{Document: map[string]any{}}

	alertRules, ok := raw[legacyKeyAlertRules].(map[string]any)
	if !ok {
		return nil, &model.LegacyFormatError{Reason: "missing alert_rules section"}
	}
	groups, ok := alertRules["groups"].([]any)
	if !ok || len(groups) == 0 {
		return nil, &model.LegacyFormatError{Reason: "alert_rules has no groups"}
	}
	res.Document["groups"] = groups
	res.warnUnmapped(legacyKeyAlertRules, alertRules, "groups")

	zabbixVars, ok := raw[legacyKeyZabbixVars].(map[string]any)
	if !ok {
		return nil, &model.LegacyFormatError{Reason: "missing zabbix_vars section"}
	}
	zabbix, ok := zabbixVars["zabbix"].(map[string]any)
	if !ok {
		return nil, &model.LegacyFormatError{Reason: "zabbix_vars has no zabbix mapping"}
	}
	if _, ok := zabbix["template"]; !ok {
		return nil, &model.LegacyFormatError{Reason: "zabbix_vars without a template key"}
	}
	res.Document["zabbix"] = zabbix
	res.warnUnmapped(legacyKeyZabbixVars, zabbixVars, "zabbix")

	// Wiki is optional; a malformed wiki document degrades to a warning.
	if wikiVars, present := raw[legacyKeyWikiVars]; present {
		if wv, ok := wikiVars.(map[string]any); ok {
			if wiki, ok := wv["wiki"].(map[string]any); ok {
				res.Document["wiki"] = wiki
				res.warnUnmapped(legacyKeyWikiVars, wv, "wiki")
			} else {
				res.warn(legacyKeyWikiVars, "wiki_vars has no wiki mapping, section skipped")
			}
		} else {
			res.warn(legacyKeyWikiVars, "wiki_vars is not a mapping, section skipped")
		}
	}

	// Legacy layouts may already carry unified sections next to the markers.
	for _, key := range []string{"prometheus", "promabbix"} {
		if v, ok := raw[key]; ok {
			res.Document[key] = v
		}
	}
	for key := range raw {
		switch key {
		case legacyKeyAlertRules, legacyKeyZabbixVars, legacyKeyWikiVars, "prometheus", "promabbix":
		default:
			res.warn(key, "legacy field has no unified-schema counterpart")
		}
	}

	applySectionDefaults(res.Document)

	log.Debug().Int("warnings", len(res.Warnings)).Msg("migrated legacy document to unified format")
	return res, nil
}

// applySectionDefaults fills the prometheus and promabbix sections the legacy
// layout never declared.
func applySectionDefaults(doc map[string]any) {
	if _, ok := doc["prometheus"]; !ok {
		doc["prometheus"] = map[string]any{
			"api": map[string]any{"url": defaultPrometheusURL},
		}
	}
	if _, ok := doc["promabbix"]; !ok {
		doc["promabbix"] = map[string]any{
			"zabbix_depend_item_preprocessing": defaultDependItemPreprocessing,
			"zabbix_master_item_preprocessing": defaultMasterItemPreprocessing,
		}
	}
}

func (r *Result) warn(path, message string) {
	r.Warnings = append(r.Warnings, model.Violation{
		Path:     path,
		Message:  message,
		Severity: model.SeverityWarning,
	})
}

// warnUnmapped flags sibling keys of the mapped one so no legacy field is
// carried over or lost without a trace.
func (r *Result) warnUnmapped(section string, m map[string]any, mapped string) {
	var extra []string
	for k := range m {
		if k != mapped {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		r.warn(fmt.Sprintf("%s.%s", section, k), "legacy field has no unified-schema counterpart")
	}
}
