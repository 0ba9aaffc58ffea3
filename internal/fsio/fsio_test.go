package fsio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "yaml", data: "zabbix:\n  template: svc\n"},
		{name: "json", data: `{"zabbix": {"template": "svc"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			zabbix, ok := doc["zabbix"].(map[string]any)
			if !ok {
				t.Fatalf("zabbix section not decoded: %#v", doc)
			}
			if zabbix["template"] != "svc" {
				t.Fatalf("template = %v", zabbix["template"])
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(":\n:::"))
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "YAML") || !strings.Contains(msg, "JSON") {
		t.Fatalf("error must mention both formats tried: %v", err)
	}
}

func TestParseScalarDocument(t *testing.T) {
	if _, err := Parse([]byte("just a string")); err == nil {
		t.Fatalf("a scalar document must be rejected")
	}
}

func TestLoaderStdin(t *testing.T) {
	l := &Loader{Stdin: strings.NewReader("zabbix:\n  template: svc\n")}
	doc, err := l.Load(StdinPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := doc["zabbix"]; !ok {
		t.Fatalf("stdin document not decoded: %#v", doc)
	}
}

func TestLoaderEmptyStdin(t *testing.T) {
	l := &Loader{Stdin: strings.NewReader("  \n")}
	doc, err := l.Load(StdinPath)
	if err != nil {
		t.Fatalf("empty stdin must not fail: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected an empty document, got %#v", doc)
	}
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	if err := os.WriteFile(path, []byte("groups: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader()
	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := doc["groups"]; !ok {
		t.Fatalf("file document not decoded: %#v", doc)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader()
	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestEncodeJSON(t *testing.T) {
	data, err := Encode(map[string]string{"html": "<b>&</b>"}, FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "<b>&</b>") {
		t.Fatalf("html must not be escaped: %s", out)
	}
	if !strings.Contains(out, "\n  ") {
		t.Fatalf("output must be indented: %s", out)
	}
}

func TestEncodeYAML(t *testing.T) {
	data, err := Encode(map[string]string{"key": "value"}, FormatYAML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "key: value") {
		t.Fatalf("unexpected yaml: %s", data)
	}
}

func TestSaverWritesStdout(t *testing.T) {
	var buf bytes.Buffer
	s := &Saver{Stdout: &buf}
	if err := s.Save(map[string]string{"a": "b"}, StdinPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(buf.String(), `"a": "b"`) {
		t.Fatalf("stdout output missing: %s", buf.String())
	}
}

func TestSaverFormatFollowsExtension(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver()

	yamlPath := filepath.Join(dir, "out.yaml")
	if err := s.Save(map[string]string{"a": "b"}, yamlPath); err != nil {
		t.Fatalf("Save yaml: %v", err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "a: b") {
		t.Fatalf("expected yaml output, got: %s", data)
	}

	jsonPath := filepath.Join(dir, "out.json")
	if err := s.Save(map[string]string{"a": "b"}, jsonPath); err != nil {
		t.Fatalf("Save json: %v", err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a": "b"`) {
		t.Fatalf("expected json output, got: %s", data)
	}
}
