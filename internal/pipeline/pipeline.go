// Package pipeline wires the stages together: legacy migration, structural
// validation, cross-reference validation, compilation. Each stage is a pure
// function of its input; a validation failure short-circuits before the
// compiler runs.
package pipeline

import (
	"github.com/rs/zerolog/log"
	"github.com/wrike/promabbix/internal/compiler"
	"github.com/wrike/promabbix/internal/migration"
	"github.com/wrike/promabbix/internal/model"
	"github.com/wrike/promabbix/internal/validation"
)

// Result is the compiled output plus every non-fatal warning collected along
// the way (migration drops, wiki documentation mismatches).
type Result struct {
	Compiled *compiler.Result
	Warnings []model.Violation
}

// Run executes the full pipeline on a raw decoded document.
func Run(raw map[string]any, opts compiler.Options) (*Result, error) {
	doc, warnings, err := validate(raw)
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(doc, opts)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("template", doc.Zabbix.Template).
		Int("warnings", len(warnings)).
		Msg("document compiled")
	return &Result{Compiled: compiled, Warnings: warnings}, nil
}

// Validate executes the pipeline up to and including cross-reference
// validation, returning the collected warnings.
func Validate(raw map[string]any) ([]model.Violation, error) {
	_, warnings, err := validate(raw)
	return warnings, err
}

func validate(raw map[string]any) (*model.Document, []model.Violation, error) {
	in := migration.Resolve(raw)
	migrated, err := migration.Migrate(in)
	if err != nil {
		return nil, nil, err
	}
	warnings := migrated.Warnings

	schemaFindings := validation.ValidateSchema(migrated.Document)
	warnings = append(warnings, model.Warnings(schemaFindings)...)
	if err := validation.SchemaErr(schemaFindings); err != nil {
		return nil, nil, err
	}

	doc, err := model.DecodeDocument(migrated.Document)
	if err != nil {
		return nil, nil, err
	}

	crossFindings := validation.ValidateCrossReferences(doc)
	warnings = append(warnings, model.Warnings(crossFindings)...)
	if err := validation.CrossRefErr(crossFindings); err != nil {
		return nil, nil, err
	}
	return doc, warnings, nil
}
