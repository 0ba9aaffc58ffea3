package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wrike/promabbix/internal/config"
	"github.com/wrike/promabbix/internal/fsio"
	"github.com/wrike/promabbix/internal/model"
	"github.com/wrike/promabbix/internal/pipeline"
)

func main() {
	cfg := config.Load()

	var (
		output       string
		validateOnly bool
		logLevel     string
	)
	flag.StringVar(&output, "o", cfg.Output.Path, "path to save the generated Zabbix template ('-' for STDOUT)")
	flag.StringVar(&output, "output", cfg.Output.Path, "path to save the generated Zabbix template ('-' for STDOUT)")
	flag.BoolVar(&validateOnly, "validate-only", false, "only validate the configuration, do not generate a template")
	flag.StringVar(&logLevel, "log-level", cfg.Logging.Level, "log level (trace, debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	setLogLevel(logLevel)

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	configPath := flag.Arg(0)

	if err := run(configPath, output, validateOnly, cfg); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func run(configPath, output string, validateOnly bool, cfg *config.Config) error {
	raw, err := fsio.NewLoader().Load(configPath)
	if err != nil {
		return err
	}

	if validateOnly {
		warnings, err := pipeline.Validate(raw)
		if err != nil {
			return err
		}
		reportWarnings(warnings)
		log.Info().Msg("configuration validation passed")
		return nil
	}

	result, err := pipeline.Run(raw, cfg.Options())
	if err != nil {
		return err
	}
	reportWarnings(result.Warnings)
	return fsio.NewSaver().Save(result.Compiled.Export, output)
}

func reportWarnings(warnings []model.Violation) {
	for _, w := range warnings {
		log.Warn().Str("path", w.Path).Msg(w.Message)
	}
}

func reportError(err error) {
	var (
		schemaErr   *model.SchemaViolation
		crossRefErr *model.CrossReferenceError
	)
	switch {
	case errors.As(err, &schemaErr):
		for _, v := range schemaErr.Violations {
			log.Error().Str("path", v.Path).Str("suggestion", v.Suggestion).Msg(v.Message)
		}
		log.Error().Int("violations", len(schemaErr.Violations)).Msg("configuration validation failed")
	case errors.As(err, &crossRefErr):
		for _, v := range crossRefErr.Violations {
			log.Error().Str("path", v.Path).Str("suggestion", v.Suggestion).Msg(v.Message)
		}
		log.Error().Int("violations", len(crossRefErr.Violations)).Msg("configuration validation failed")
	default:
		log.Error().Err(err).Msg("template generation failed")
	}
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <config-file>\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Generate a Zabbix template from a Prometheus alert rules configuration.")
	fmt.Fprintln(os.Stderr, "Use '-' as the config file to read from STDIN.")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}
