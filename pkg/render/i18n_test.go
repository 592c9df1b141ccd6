package render

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestDefaultCatalog_LoadsEmbeddedLocales(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if !catalog.HasLocale("pt-BR") || !catalog.HasLocale("en") {
		t.Fatalf("expected pt-BR and en, got %v", catalog.Locales())
	}
	if catalog.Locales()[0] != DefaultLocale {
		t.Fatalf("default locale should be listed first, got %v", catalog.Locales())
	}

	got, err := catalog.Translate("pt-BR", "subject.NU_NOTA_REDACAO")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Redação" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestCatalog_FallbackChain(t *testing.T) {
	catalog := NewCatalog("pt-BR")
	catalog.AddLocale("pt-BR", map[string]string{"greeting": "Olá", "only.default": "padrão"})
	catalog.AddLocale("en", map[string]string{"greeting": "Hello"})

	cases := []struct {
		locale string
		key    string
		want   string
	}{
		{locale: "en", key: "greeting", want: "Hello"},
		{locale: "en-GB", key: "greeting", want: "Hello"},
		{locale: "en", key: "only.default", want: "padrão"},
		{locale: "fr", key: "greeting", want: "Olá"},
		{locale: "", key: "greeting", want: "Olá"},
	}
	for _, tc := range cases {
		got, err := catalog.Translate(tc.locale, tc.key)
		if err != nil {
			t.Fatalf("translate %s/%s: %v", tc.locale, tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("translate %s/%s: want %q, got %q", tc.locale, tc.key, tc.want, got)
		}
	}

	if _, err := catalog.Translate("en", "nope"); !errors.Is(err, ErrMissingTranslation) {
		t.Fatalf("expected ErrMissingTranslation, got %v", err)
	}
}

func TestCatalog_TranslateFormatsArgs(t *testing.T) {
	catalog := NewCatalog("pt-BR")
	catalog.AddLocale("pt-BR", map[string]string{"failure": "Erro: %s"})

	got, err := catalog.Translate("pt-BR", "failure", "boom")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Erro: boom" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCatalog_Match(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	cases := map[string]string{
		"":                       "pt-BR",
		"en-US,en;q=0.9":         "en",
		"pt-BR,pt;q=0.9,en;q=.8": "pt-BR",
		"pt":                     "pt-BR",
		"de-DE":                  "pt-BR",
		"not a header;;;":        "pt-BR",
	}
	for header, want := range cases {
		if got := catalog.Match(header); got != want {
			t.Fatalf("Match(%q): want %q, got %q", header, want, got)
		}
	}
}

func TestLoadCatalog_NestedYAML(t *testing.T) {
	files := fstest.MapFS{
		"i18n/es.yaml": {Data: []byte("results:\n  heading: \"Notas:\"\n")},
		"i18n/README":  {Data: []byte("ignored")},
	}

	catalog, err := LoadCatalog(files, "i18n", "es")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	got, err := catalog.Translate("es", "results.heading")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Notas:" {
		t.Fatalf("unexpected heading %q", got)
	}
}

func TestLoadCatalog_RequiresDefaultLocale(t *testing.T) {
	files := fstest.MapFS{
		"i18n/en.yaml": {Data: []byte("a: b\n")},
	}
	if _, err := LoadCatalog(files, "i18n", "pt-BR"); err == nil {
		t.Fatalf("expected error when default locale is absent")
	}
}

func TestTranslate_MissingHandler(t *testing.T) {
	catalog := NewCatalog("pt-BR")
	var seen string
	handler := func(locale, key string, _ []any, err error) string {
		seen = key
		return "[" + key + "]"
	}

	if got := translate("pt-BR", "absent", "fallback", catalog, handler); got != "[absent]" {
		t.Fatalf("unexpected handler output %q", got)
	}
	if seen != "absent" {
		t.Fatalf("handler not invoked")
	}
	if got := translate("pt-BR", "absent", "fallback", catalog, nil); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := translate("pt-BR", "absent", "", nil, nil); got != "absent" {
		t.Fatalf("expected key, got %q", got)
	}
}
