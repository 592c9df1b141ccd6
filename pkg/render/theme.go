package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	DefaultThemeName    = "predictform"
	DefaultThemeVariant = "light"

	stylesheetAsset = "page.stylesheet"
)

// DefaultThemeManifest describes the built-in palette. The base tokens are
// the light palette; the dark variant overrides them.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-bg":      "#f7f7f9",
			"color-surface": "#ffffff",
			"color-text":    "#1f2933",
			"color-accent":  "#2563eb",
			"color-error":   "#b91c1c",
			"radius":        "6px",
		},
		Assets: theme.Assets{
			Prefix: "/static",
			Files: map[string]string{
				stylesheetAsset: "predictform.css",
			},
		},
		Variants: map[string]theme.Variant{
			"light": {},
			"dark": {
				Tokens: map[string]string{
					"color-bg":      "#111827",
					"color-surface": "#1f2937",
					"color-text":    "#f3f4f6",
					"color-accent":  "#60a5fa",
					"color-error":   "#f87171",
				},
			},
		},
	}
}

// ThemeSet holds the manifests available to the page renderer. Manifests are
// validated by registering them with a go-theme registry.
type ThemeSet struct {
	provider  theme.ThemeProvider
	manifests map[string]*theme.Manifest
}

// NewThemeSet registers the supplied manifests, or the default manifest when
// none are given.
func NewThemeSet(manifests ...*theme.Manifest) (*ThemeSet, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultThemeManifest()}
	}

	registry := theme.NewRegistry()
	set := &ThemeSet{
		manifests: make(map[string]*theme.Manifest, len(manifests)),
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
		}
		set.manifests[manifest.Name] = manifest
	}
	set.provider = registry
	return set, nil
}

// Provider exposes the underlying go-theme provider.
func (s *ThemeSet) Provider() theme.ThemeProvider {
	if s == nil {
		return nil
	}
	return s.provider
}

// Resolve builds the renderer configuration for a theme and variant. An
// empty name selects the default theme.
func (s *ThemeSet) Resolve(name, variant string) (*theme.RendererConfig, error) {
	if s == nil {
		return nil, fmt.Errorf("render: theme set is nil")
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultThemeName
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not registered", name)
	}
	return ThemeConfig(&theme.Selection{Theme: name, Variant: variant, Manifest: manifest})
}

// ThemeConfig merges a selection's base manifest with its variant.
func ThemeConfig(selection *theme.Selection) (*theme.RendererConfig, error) {
	if selection == nil || selection.Manifest == nil {
		return nil, fmt.Errorf("render: theme selection has no manifest")
	}
	manifest := selection.Manifest

	var variant theme.Variant
	if selection.Variant != "" {
		v, ok := manifest.Variants[selection.Variant]
		if !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", manifest.Name, selection.Variant)
		}
		variant = v
	}

	tokens := mergeStrings(manifest.Tokens, variant.Tokens)
	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}
	files := mergeStrings(manifest.Assets.Files, variant.Assets.Files)

	name := selection.Theme
	if name == "" {
		name = manifest.Name
	}

	return &theme.RendererConfig{
		Theme:    name,
		Variant:  selection.Variant,
		Partials: mergeStrings(manifest.Templates, variant.Templates),
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
				return file
			}
			return strings.TrimSuffix(prefix, "/") + "/" + file
		},
	}, nil
}

// cssVarsStyle serialises CSS variables as a declaration block in key order.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

func mergeStrings(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}
