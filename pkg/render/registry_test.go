package render

import (
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	html, err := NewHTML()
	if err != nil {
		t.Fatalf("new html: %v", err)
	}
	text, err := NewText()
	if err != nil {
		t.Fatalf("new text: %v", err)
	}
	registry := NewRegistry()
	for _, renderer := range []Renderer{html, text} {
		if err := registry.Register(renderer); err != nil {
			t.Fatalf("register %s: %v", renderer.Name(), err)
		}
	}
	return registry
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := newTestRegistry(t)

	got, err := registry.Get(TextName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContentType() != TextContentType {
		t.Fatalf("unexpected content type %q", got.ContentType())
	}

	if err := registry.Register(got); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}
}

func TestRegistry_Negotiate(t *testing.T) {
	registry := newTestRegistry(t)

	cases := map[string]string{
		"":                                       HTMLName,
		"*/*":                                    HTMLName,
		"text/plain":                             TextName,
		"text/html":                              HTMLName,
		"text/*":                                 HTMLName,
		"application/json, text/plain;q=0.5":     TextName,
		"text/html;q=0.2, text/plain;q=0.9":      TextName,
		"text/plain;q=0, */*;q=0.1":              HTMLName,
		"application/xhtml+xml, text/html;q=0.9": HTMLName,
	}
	for accept, want := range cases {
		got, err := registry.Negotiate(accept)
		if err != nil {
			t.Fatalf("Negotiate(%q): %v", accept, err)
		}
		if got.Name() != want {
			t.Fatalf("Negotiate(%q): want %s, got %s", accept, want, got.Name())
		}
	}

	if _, err := registry.Negotiate("application/pdf"); !errors.Is(err, ErrNotAcceptable) {
		t.Fatalf("expected ErrNotAcceptable, got %v", err)
	}
	if _, err := NewRegistry().Negotiate(""); !errors.Is(err, ErrNotAcceptable) {
		t.Fatalf("expected ErrNotAcceptable from empty registry, got %v", err)
	}
}

func TestSanitizeIntro(t *testing.T) {
	cases := map[string]string{
		"":                            "",
		"   ":                         "",
		`<p class="lead">Olá</p>`:     `<p class="lead">Olá</p>`,
		`<script>alert(1)</script>ok`: "ok",
	}
	for in, want := range cases {
		if got := SanitizeIntro(in); got != want {
			t.Fatalf("SanitizeIntro(%q): want %q, got %q", in, want, got)
		}
	}
}
