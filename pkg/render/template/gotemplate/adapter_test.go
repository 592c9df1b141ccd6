package gotemplate

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func newEngine(t *testing.T, options ...Option) *Engine {
	t.Helper()

	files := fstest.MapFS{
		"templates/hello.tmpl":  {Data: []byte(`Hello {{ name }}!`)},
		"templates/escape.tmpl": {Data: []byte(`<p>{{ message }}</p>`)},
		"templates/lines.tmpl":  {Data: []byte(`{% for line in lines %}{{ line.label }}={{ line.value }};{% endfor %}`)},
		"templates/plain.txt":   {Data: []byte(`plain {{ name }}`)},
	}
	engine, err := New(append([]Option{WithFS(files)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWritesToOutputs(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	result, err := engine.RenderTemplate("templates/hello", map[string]any{"name": "Ada"}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Hello Ada!" {
		t.Fatalf("unexpected result %q", result)
	}
	if buf.String() != result {
		t.Fatalf("writer mismatch: %q", buf.String())
	}
}

func TestEngine_AutoescapesValues(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("templates/escape.tmpl", map[string]any{"message": "<b>x</b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(result, "<b>") {
		t.Fatalf("expected markup to be escaped, got %q", result)
	}
}

func TestEngine_StructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)

	type line struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	data := struct {
		Lines []line `json:"lines"`
	}{
		Lines: []line{{Label: "MT", Value: "650.5"}, {Label: "Redação", Value: "720"}},
	}
	result, err := engine.RenderTemplate("templates/lines", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "MT=650.5;Redação=720;" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestEngine_CustomExtension(t *testing.T) {
	engine := newEngine(t, WithExtension("txt"))

	result, err := engine.RenderTemplate("templates/plain", map[string]any{"name": "Grace"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "plain Grace" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)

	if _, err := engine.RenderTemplate("templates/absent", nil); err == nil {
		t.Fatalf("expected error for a missing template")
	}
}

func TestNew_RequiresFS(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error without templates fs")
	}
}
