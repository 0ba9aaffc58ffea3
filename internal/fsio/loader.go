// Package fsio holds the I/O boundary of the tool: loading a document from a
// path or STDIN and saving the compiled template to a path or STDOUT. The
// pipeline itself never touches the filesystem.
package fsio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// StdinPath selects STDIN as the input (or STDOUT as the output) location.
const StdinPath = "-"

// Loader reads a raw document from a file or STDIN, accepting YAML or JSON.
type Loader struct {
	Stdin io.Reader
}

func NewLoader() *Loader {
	return &Loader{Stdin: os.Stdin}
}

// Load reads and parses the document at path, or from STDIN when path is "-".
func (l *Loader) Load(path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == StdinPath {
		data, err = io.ReadAll(l.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read from stdin: %w", err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			log.Warn().Msg("no data received from stdin")
			return map[string]any{}, nil
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes a document as YAML first and falls back to JSON, mirroring
// the loader contract: either format is accepted on any input.
func Parse(data []byte) (map[string]any, error) {
	var doc map[string]any
	yamlErr := yaml.Unmarshal(data, &doc)
	if yamlErr == nil && doc != nil {
		return doc, nil
	}
	if yamlErr == nil {
		yamlErr = fmt.Errorf("parser returned no document")
	}
	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr == nil && doc != nil {
		return doc, nil
	}
	if jsonErr == nil {
		jsonErr = fmt.Errorf("parser returned no document")
	}
	return nil, fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", yamlErr, jsonErr)
}
