package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a request does not name a supported locale.
const DefaultLocale = "pt-BR"

// ErrMissingTranslation is returned when no catalog in the fallback chain
// holds the key.
var ErrMissingTranslation = errors.New("render: missing translation")

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show when a key cannot be
// translated. The returned string is rendered as-is.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog is a Translator backed by flattened YAML message files, one per
// locale. Lookups fall back from the requested locale to its base language
// and then to the default locale.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	messages      map[string]map[string]string
	matcher       language.Matcher
	locales       []string
}

var _ Translator = (*Catalog)(nil)

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the catalog built from the embedded locale files.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(embeddedLocales, "locales", DefaultLocale)
	})
	return defaultCatalog, defaultCatalogErr
}

// NewCatalog returns an empty catalog. Add locales with AddLocale.
func NewCatalog(defaultLocale string) *Catalog {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = DefaultLocale
	}
	return &Catalog{
		defaultLocale: defaultLocale,
		messages:      make(map[string]map[string]string),
	}
}

// LoadCatalog reads every *.yaml file in dir; the file name without extension
// is the locale.
func LoadCatalog(fsys fs.FS, dir, defaultLocale string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("render: read locales %q: %w", dir, err)
	}

	catalog := NewCatalog(defaultLocale)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("render: read locale %q: %w", entry.Name(), err)
		}
		locale := strings.TrimSuffix(entry.Name(), ".yaml")
		if err := catalog.AddYAML(locale, raw); err != nil {
			return nil, err
		}
	}

	if !catalog.HasLocale(catalog.defaultLocale) {
		return nil, fmt.Errorf("render: default locale %q has no catalog", catalog.defaultLocale)
	}
	return catalog, nil
}

// AddYAML parses a nested YAML document into dotted keys for locale.
func (c *Catalog) AddYAML(locale string, raw []byte) error {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("render: parse locale %q: %w", locale, err)
	}
	flat := make(map[string]string)
	flatten("", tree, flat)
	c.AddLocale(locale, flat)
	return nil
}

// AddLocale merges messages into locale, replacing existing keys.
func (c *Catalog) AddLocale(locale string, messages map[string]string) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.messages[locale]
	if !ok {
		bucket = make(map[string]string, len(messages))
		c.messages[locale] = bucket
		c.locales = append(c.locales, locale)
		sort.Strings(c.locales)
		c.rebuildMatcher()
	}
	for key, value := range messages {
		bucket[key] = value
	}
}

// HasLocale reports whether locale has a catalog.
func (c *Catalog) HasLocale(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[locale]
	return ok
}

// Locales lists the loaded locales, default first and the rest sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.locales...)
}

// DefaultLocale returns the locale used as the last fallback.
func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// Translate looks key up along the fallback chain and applies fmt-style args.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range c.chain(locale) {
		bucket, ok := c.messages[candidate]
		if !ok {
			continue
		}
		if msg, ok := bucket[key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

// Match picks the best supported locale for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.matcher == nil || strings.TrimSpace(acceptLanguage) == "" {
		return c.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.defaultLocale
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return c.defaultLocale
	}
	return c.locales[index]
}

// chain lists the locales consulted for a lookup, most specific first.
func (c *Catalog) chain(locale string) []string {
	out := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	locale = strings.TrimSpace(locale)
	add(locale)
	if base, _, ok := strings.Cut(locale, "-"); ok {
		add(base)
	}
	add(c.defaultLocale)
	return out
}

// rebuildMatcher keeps the default locale first so it wins ties.
func (c *Catalog) rebuildMatcher() {
	ordered := make([]string, 0, len(c.locales))
	for _, locale := range c.locales {
		if locale == c.defaultLocale {
			ordered = append([]string{locale}, ordered...)
			continue
		}
		ordered = append(ordered, locale)
	}
	c.locales = ordered

	tags := make([]language.Tag, 0, len(ordered))
	for _, locale := range ordered {
		tags = append(tags, language.Make(locale))
	}
	c.matcher = language.NewMatcher(tags)
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
			out[full] = ""
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// translate resolves key, falling back to fallback (or the key itself) when
// the translator cannot serve it.
func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler, args ...any) string {
	if t == nil {
		return fallbackText(key, fallback, args)
	}
	msg, err := t.Translate(locale, key, args...)
	if err == nil {
		return msg
	}
	if onMissing != nil {
		if out := onMissing(locale, key, args, err); out != "" {
			return out
		}
	}
	return fallbackText(key, fallback, args)
}

func fallbackText(key, fallback string, args []any) string {
	if fallback == "" {
		return key
	}
	if len(args) > 0 && strings.Contains(fallback, "%") {
		return fmt.Sprintf(fallback, args...)
	}
	return fallback
}
