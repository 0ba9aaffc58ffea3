package compiler

import (
	"errors"
	"testing"

	"github.com/wrike/promabbix/internal/model"
)

func TestRewriteDefaults(t *testing.T) {
	rw, err := newRewriter(DefaultLabelMappings)
	if err != nil {
		t.Fatalf("newRewriter: %v", err)
	}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "value placeholder", in: "current value {{ $value }}", want: "current value {ITEM.VALUE1}"},
		{name: "value without spaces", in: "{{$value}}", want: "{ITEM.VALUE1}"},
		{name: "label placeholder", in: "on {{ $labels.cluster }}", want: "on {#CLUSTER}"},
		{name: "label without spaces", in: "{{$labels.cluster}}", want: "{#CLUSTER}"},
		{name: "underscored label upper-cased", in: "{{ $labels.instance_name }}", want: "{#INSTANCE_NAME}"},
		{name: "multiple placeholders", in: "{{ $labels.job }} at {{ $value }}", want: "{#JOB} at {ITEM.VALUE1}"},
		{name: "no placeholders", in: "x > 1", want: "x > 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rw.Rewrite(tt.in)
			if err != nil {
				t.Fatalf("Rewrite(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Rewrite(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriteEmptyCaptureIsError(t *testing.T) {
	rw, err := newRewriter(DefaultLabelMappings)
	if err != nil {
		t.Fatalf("newRewriter: %v", err)
	}
	_, err = rw.Rewrite("on {{ $labels. }}")
	var mme *model.MacroMappingError
	if !errors.As(err, &mme) {
		t.Fatalf("expected MacroMappingError, got %v", err)
	}
	if mme.Input == "" {
		t.Fatalf("error does not carry the offending match: %+v", mme)
	}
}

func TestRewriteCustomMappings(t *testing.T) {
	mappings := []model.LabelMacroMapping{
		{Pattern: `\$(?P<n>[a-z]+)`, Value: `<${n}>`},
	}
	rw, err := newRewriter(mappings)
	if err != nil {
		t.Fatalf("newRewriter: %v", err)
	}
	got, err := rw.Rewrite("read $abc and $def")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "read <abc> and <def>" {
		t.Fatalf("Rewrite = %q", got)
	}
}

func TestRewriteMappingOrder(t *testing.T) {
	// The first mapping consumes its matches before the second one runs.
	mappings := []model.LabelMacroMapping{
		{Pattern: `foo`, Value: `bar`},
		{Pattern: `bar`, Value: `baz`},
	}
	rw, err := newRewriter(mappings)
	if err != nil {
		t.Fatalf("newRewriter: %v", err)
	}
	got, err := rw.Rewrite("foo")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "baz" {
		t.Fatalf("mappings must apply in declaration order, got %q", got)
	}
}

func TestNewRewriterRejectsBadMappings(t *testing.T) {
	tests := []struct {
		name    string
		mapping model.LabelMacroMapping
	}{
		{name: "invalid pattern", mapping: model.LabelMacroMapping{Pattern: `([unclosed`, Value: "x"}},
		{name: "unknown group", mapping: model.LabelMacroMapping{Pattern: `(?P<a>x)`, Value: `\g<b>`}},
		{name: "unterminated reference", mapping: model.LabelMacroMapping{Pattern: `(?P<a>x)`, Value: `\g<a`}},
		{name: "empty reference", mapping: model.LabelMacroMapping{Pattern: `(?P<a>x)`, Value: `${}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRewriter([]model.LabelMacroMapping{tt.mapping})
			var mme *model.MacroMappingError
			if !errors.As(err, &mme) {
				t.Fatalf("expected MacroMappingError, got %v", err)
			}
		})
	}
}
