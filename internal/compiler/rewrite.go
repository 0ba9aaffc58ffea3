package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wrike/promabbix/internal/model"
)

// DefaultLabelMappings rewrites the two canonical Prometheus placeholders:
// {{ $value }} (whitespace-tolerant) into {ITEM.VALUE1} and
// {{ $labels.name }} into the LLD macro {#NAME}.
var DefaultLabelMappings = []model.LabelMacroMapping{
	{Pattern: `\{\{(?:\s*)\$value(?:\s*)\}\}`, Value: `{ITEM.VALUE1}`},
	{Pattern: `\{\{(?:\s*)\$labels\.(?P<label>[a-zA-Z0-9_\-]*)(?:\s*)\}\}`, Value: `{#\g<label>}`},
}

// rewriter applies an ordered list of label-to-macro mappings. Order matters:
// patterns are tried first-match-wins per occurrence, not globally exclusive.
type rewriter struct {
	mappings []compiledMapping
}

type compiledMapping struct {
	source   model.LabelMacroMapping
	re       *regexp.Regexp
	segments []segment
}

// segment is one piece of a replacement template: either a literal or a
// reference to a named capture group.
type segment struct {
	literal string
	group   string
}

func newRewriter(mappings []model.LabelMacroMapping) (*rewriter, error) {
	r := &rewriter{}
	for _, m := range mappings {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, &model.MacroMappingError{
				Pattern: m.Pattern,
				Reason:  fmt.Sprintf("invalid pattern: %v", err),
			}
		}
		segments, err := parseReplacement(m.Value)
		if err != nil {
			return nil, &model.MacroMappingError{Pattern: m.Pattern, Reason: err.Error()}
		}
		groups := map[string]bool{}
		for _, name := range re.SubexpNames() {
			if name != "" {
				groups[name] = true
			}
		}
		for _, s := range segments {
			if s.group != "" && !groups[s.group] {
				return nil, &model.MacroMappingError{
					Pattern: m.Pattern,
					Reason:  fmt.Sprintf("replacement references unknown capture group %q", s.group),
				}
			}
		}
		r.mappings = append(r.mappings, compiledMapping{source: m, re: re, segments: segments})
	}
	return r, nil
}

// Rewrite translates every placeholder occurrence in text. A match whose
// referenced capture group is empty is a hard error, never silently dropped.
func (r *rewriter) Rewrite(text string) (string, error) {
	out := text
	for _, m := range r.mappings {
		var rewriteErr error
		out = m.re.ReplaceAllStringFunc(out, func(match string) string {
			if rewriteErr != nil {
				return match
			}
			expanded, err := m.expand(match)
			if err != nil {
				rewriteErr = err
				return match
			}
			return expanded
		})
		if rewriteErr != nil {
			return "", rewriteErr
		}
	}
	return out, nil
}

func (m compiledMapping) expand(match string) (string, error) {
	sub := m.re.FindStringSubmatch(match)
	names := m.re.SubexpNames()

	var b strings.Builder
	for _, s := range m.segments {
		if s.group == "" {
			b.WriteString(s.literal)
			continue
		}
		captured := ""
		for i, name := range names {
			if name == s.group && i < len(sub) {
				captured = sub[i]
			}
		}
		if captured == "" {
			return "", &model.MacroMappingError{
				Pattern: m.source.Pattern,
				Input:   match,
				Reason:  fmt.Sprintf("capture group %q matched empty", s.group),
			}
		}
		b.WriteString(captured)
	}
	result := b.String()
	// LLD macro names follow the Zabbix upper-case convention.
	if strings.HasPrefix(result, "{#") {
		result = strings.ToUpper(result)
	}
	return result, nil
}

// parseReplacement splits a replacement template into literal and group-ref
// segments. Both the original \g<name> notation and Go's ${name} are accepted.
func parseReplacement(value string) ([]segment, error) {
	var segments []segment
	rest := value
	for rest != "" {
		gi := strings.Index(rest, `\g<`)
		di := strings.Index(rest, `${`)
		switch {
		case gi >= 0 && (di < 0 || gi < di):
			if gi > 0 {
				segments = append(segments, segment{literal: rest[:gi]})
			}
			end := strings.Index(rest[gi:], ">")
			if end < 0 {
				return nil, fmt.Errorf("unterminated group reference in replacement %q", value)
			}
			name := rest[gi+3 : gi+end]
			if name == "" {
				return nil, fmt.Errorf("empty group reference in replacement %q", value)
			}
			segments = append(segments, segment{group: name})
			rest = rest[gi+end+1:]
		case di >= 0:
			if di > 0 {
				segments = append(segments, segment{literal: rest[:di]})
			}
			end := strings.Index(rest[di:], "}")
			if end < 0 {
				return nil, fmt.Errorf("unterminated group reference in replacement %q", value)
			}
			name := rest[di+2 : di+end]
			if name == "" {
				return nil, fmt.Errorf("empty group reference in replacement %q", value)
			}
			segments = append(segments, segment{group: name})
			rest = rest[di+end+1:]
		default:
			segments = append(segments, segment{literal: rest})
			rest = ""
		}
	}
	return segments, nil
}
