package config

import (
	"os"
	"strings"

	"github.com/wrike/promabbix/internal/compiler"
)

type Config struct {
	Logging  LoggingConfig
	Output   OutputConfig
	Compiler CompilerConfig
}

type LoggingConfig struct {
	Level string
}

type OutputConfig struct {
	Path string
}

// CompilerConfig keeps the severity vocabulary configurable: overrides extend
// the recognized priority-label values without a rebuild.
type CompilerConfig struct {
	PriorityLabel     string
	DefaultSeverity   string
	PriorityOverrides map[string]string
	TemplateGroup     string
}

// Load builds the configuration from environment variables with defaults.
func Load() *Config {
	defaults := compiler.DefaultOptions()
	return &Config{
		Logging: LoggingConfig{
			Level: getEnv("PROMABBIX_LOG_LEVEL", "info"),
		},
		Output: OutputConfig{
			Path: getEnv("PROMABBIX_OUTPUT", "/tmp/zbx_template.json"),
		},
		Compiler: CompilerConfig{
			PriorityLabel:     getEnv("PROMABBIX_PRIORITY_LABEL", defaults.PriorityLabel),
			DefaultSeverity:   getEnv("PROMABBIX_DEFAULT_SEVERITY", defaults.DefaultSeverity),
			PriorityOverrides: parsePairs(getEnv("PROMABBIX_PRIORITY_MAP", "")),
			TemplateGroup:     getEnv("PROMABBIX_TEMPLATE_GROUP", defaults.TemplateGroup),
		},
	}
}

// Options materializes compiler options from the configuration.
func (c *Config) Options() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.PriorityLabel = c.Compiler.PriorityLabel
	opts.DefaultSeverity = c.Compiler.DefaultSeverity
	opts.TemplateGroup = c.Compiler.TemplateGroup
	for k, v := range c.Compiler.PriorityOverrides {
		opts.PriorityMap[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return opts
}

// parsePairs decodes "KEY=VALUE,KEY=VALUE" lists, e.g.
// PROMABBIX_PRIORITY_MAP="SEV1=HIGH,SEV2=AVERAGE".
func parsePairs(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if k, v, ok := strings.Cut(pair, "="); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
