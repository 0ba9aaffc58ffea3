package config

import (
	"testing"

	"github.com/wrike/promabbix/internal/compiler"
	"github.com/wrike/promabbix/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PROMABBIX_LOG_LEVEL", "PROMABBIX_OUTPUT",
		"PROMABBIX_PRIORITY_LABEL", "PROMABBIX_DEFAULT_SEVERITY",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Logging.Level != "info" {
		t.Fatalf("default log level = %q", cfg.Logging.Level)
	}
	if cfg.Output.Path != "/tmp/zbx_template.json" {
		t.Fatalf("default output path = %q", cfg.Output.Path)
	}
	if cfg.Compiler.PriorityLabel != model.PriorityLabel {
		t.Fatalf("default priority label = %q", cfg.Compiler.PriorityLabel)
	}
	if cfg.Compiler.DefaultSeverity != compiler.SeverityWarning {
		t.Fatalf("default severity = %q", cfg.Compiler.DefaultSeverity)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PROMABBIX_LOG_LEVEL", "debug")
	t.Setenv("PROMABBIX_PRIORITY_LABEL", "severity")
	t.Setenv("PROMABBIX_PRIORITY_MAP", "sev1=disaster, sev2=high")

	cfg := Load()
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	opts := cfg.Options()
	if opts.PriorityLabel != "severity" {
		t.Fatalf("priority label = %q", opts.PriorityLabel)
	}
	if opts.PriorityMap["SEV1"] != "DISASTER" {
		t.Fatalf("SEV1 mapping = %q", opts.PriorityMap["SEV1"])
	}
	if opts.PriorityMap["SEV2"] != "HIGH" {
		t.Fatalf("SEV2 mapping = %q", opts.PriorityMap["SEV2"])
	}
	// Overrides extend the default vocabulary, they do not replace it.
	if opts.PriorityMap["CRITICAL"] != compiler.SeverityDisaster {
		t.Fatalf("default vocabulary lost: %v", opts.PriorityMap)
	}
}

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{name: "empty", in: "", want: map[string]string{}},
		{name: "single", in: "A=B", want: map[string]string{"A": "B"}},
		{name: "spaces and trailing comma", in: " A = B , C=D ,", want: map[string]string{"A": "B", "C": "D"}},
		{name: "entry without equals skipped", in: "A=B,broken", want: map[string]string{"A": "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePairs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parsePairs(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Fatalf("parsePairs(%q)[%s] = %q, want %q", tt.in, k, got[k], v)
				}
			}
		})
	}
}
