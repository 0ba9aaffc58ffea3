package model

import "testing"

func TestDecodeDocument(t *testing.T) {
	raw := map[string]any{
		"groups": []any{
			map[string]any{
				"name": "recording_rules",
				"rules": []any{
					map[string]any{"record": "x", "expr": "sum(y)"},
				},
			},
			map[string]any{
				"name": "alerting_rules",
				"rules": []any{
					map[string]any{
						"alert":  "x_high",
						"expr":   "x > {$T}",
						"for":    "5m",
						"labels": map[string]any{"__zbx_priority": "HIGH"},
					},
				},
			},
		},
		"zabbix": map[string]any{
			"template": "svc",
			"macros": []any{
				map[string]any{"macro": "{$T}", "value": 1000},
			},
		},
	}
	doc, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := len(doc.RecordingRules()); got != 1 {
		t.Fatalf("expected 1 recording rule, got %d", got)
	}
	if got := len(doc.AlertingRules()); got != 1 {
		t.Fatalf("expected 1 alerting rule, got %d", got)
	}
	if doc.AlertingRules()[0].For != "5m" {
		t.Fatalf("for not carried: %#v", doc.AlertingRules()[0])
	}
	// numeric macro values decode as their string form
	if v := doc.Zabbix.Macros[0].Value.String(); v != "1000" {
		t.Fatalf("macro value = %q, want 1000", v)
	}
}

func TestRuleClassification(t *testing.T) {
	rec := Rule{Record: "x", Expr: "sum(y)"}
	al := Rule{Alert: "x_high", Expr: "x > 1"}
	if !rec.IsRecording() || rec.IsAlerting() {
		t.Fatalf("recording rule misclassified")
	}
	if !al.IsAlerting() || al.IsRecording() {
		t.Fatalf("alerting rule misclassified")
	}
	if rec.Name() != "x" || al.Name() != "x_high" {
		t.Fatalf("unexpected names: %q, %q", rec.Name(), al.Name())
	}
}

func TestFullTemplateName(t *testing.T) {
	z := Zabbix{Template: "service_redis"}
	if got := z.FullTemplateName(); got != "templ_module_promt_service_redis" {
		t.Fatalf("unexpected full name: %s", got)
	}
	z = Zabbix{Template: "templ_module_promt_service_redis"}
	if got := z.FullTemplateName(); got != "templ_module_promt_service_redis" {
		t.Fatalf("prefix applied twice: %s", got)
	}
}
