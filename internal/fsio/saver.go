package fsio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Saver writes compiled output to a file or STDOUT. The format follows the
// destination extension: .yaml/.yml as YAML, everything else as JSON.
type Saver struct {
	Stdout io.Writer
}

func NewSaver() *Saver {
	return &Saver{Stdout: os.Stdout}
}

// Save serializes v and writes it to path, or to STDOUT when path is "-".
func (s *Saver) Save(v any, path string) error {
	format := formatForPath(path)
	data, err := Encode(v, format)
	if err != nil {
		return err
	}
	if path == StdinPath {
		_, err = s.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	log.Info().Str("path", path).Str("format", format).Msg("template saved")
	return nil
}

// Format names accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode serializes v deterministically: JSON with two-space indentation and
// a trailing newline, or YAML. Struct field order drives key order, which
// keeps repeated runs byte-identical.
func Encode(v any, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode output: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func formatForPath(path string) string {
	if path == StdinPath {
		return FormatJSON
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
