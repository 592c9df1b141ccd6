package render

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render/template"
	"github.com/goliatone/go-predictform/pkg/render/template/gotemplate"
)

const (
	HTMLName        = "html"
	HTMLContentType = "text/html; charset=utf-8"

	pageTemplate    = "page"
	resultsTemplate = "results"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed static/*
var embeddedStatic embed.FS

// StaticFS exposes the stylesheet referenced by the default theme.
func StaticFS() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatesFS exposes the built-in page and results templates so callers can
// copy or extend them and pass the result to WithTemplatesFS.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageView is the input for a full page render.
type PageView struct {
	Locale string
	Form   model.FormModel
	// Values preselects controls, typically the last submitted input.
	Values model.FormInput
	// Results is the pre-rendered content of the results container.
	Results []byte
	// Action is the form post target; empty posts back to the current URL.
	Action  string
	Variant string
}

// HTMLRenderer renders result fragments and the form page with pongo2
// templates.
type HTMLRenderer struct {
	cfg       config
	onMissing MissingTranslationHandler
	engine    template.TemplateRenderer
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTML constructs the HTML renderer.
func NewHTML(options ...Option) (*HTMLRenderer, error) {
	cfg := newConfig(options)
	if err := cfg.resolveTranslator(); err != nil {
		return nil, err
	}

	files := cfg.templates
	if files == nil {
		files = TemplatesFS()
	}

	engine, err := gotemplate.New(
		gotemplate.WithFS(files),
		gotemplate.WithExtension(".tmpl"),
	)
	if err != nil {
		return nil, fmt.Errorf("render: template engine: %w", err)
	}

	return &HTMLRenderer{
		cfg:       cfg,
		onMissing: cfg.missingHandler(),
		engine:    engine,
	}, nil
}

func (r *HTMLRenderer) Name() string        { return HTMLName }
func (r *HTMLRenderer) ContentType() string { return HTMLContentType }

// Render produces the results container fragment for view.
func (r *HTMLRenderer) Render(ctx context.Context, view View) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := view.messages(r.cfg.translator, r.onMissing)
	data := map[string]any{
		"phase":    string(view.Phase),
		"heading":  msg.Heading,
		"text":     msg.Text,
		"is_error": msg.IsError,
	}
	if view.Phase == PhaseSuccess {
		data["lines"] = view.lines(r.cfg.translator, r.onMissing)
	}

	out, err := r.engine.RenderTemplate(resultsTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render: results fragment: %w", err)
	}
	return []byte(out), nil
}

// RenderPage produces the full document with the form and results container.
func (r *HTMLRenderer) RenderPage(ctx context.Context, page PageView) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locale := page.Locale
	tr := func(key, fallback string) string {
		return translate(locale, key, fallback, r.cfg.translator, r.onMissing)
	}

	title := page.Form.Title
	if title == "" {
		title = tr("page.title", "")
	}

	themeData, err := r.themeData(page.Variant)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"lang":    locale,
		"title":   title,
		"intro":   r.cfg.intro,
		"action":  page.Action,
		"submit":  tr("page.submit", ""),
		"choose":  tr("page.choose", ""),
		"fields":  pageFields(page.Form, page.Values),
		"results": string(page.Results),
		"theme":   themeData,
	}

	out, err := r.engine.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render: page: %w", err)
	}
	return []byte(out), nil
}

func (r *HTMLRenderer) themeData(variant string) (map[string]any, error) {
	if r.cfg.themes == nil {
		return map[string]any{}, nil
	}
	if variant == "" {
		variant = r.cfg.variant
	}
	cfg, err := r.cfg.themes.Resolve(r.cfg.themeName, variant)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"name":     cfg.Theme,
		"variant":  cfg.Variant,
		"css_vars": cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		data["stylesheet"] = cfg.AssetURL(stylesheetAsset)
	}
	return data, nil
}

func pageFields(form model.FormModel, values model.FormInput) []map[string]any {
	out := make([]map[string]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		current, ok := values.Get(field.Name)
		if !ok {
			current = field.Default
		}

		label := field.Label
		if label == "" {
			label = field.Name
		}
		entry := map[string]any{
			"name":        field.Name,
			"label":       label,
			"description": field.Description,
			"required":    field.Required,
			"value":       current,
		}
		if len(field.Options) > 0 {
			options := make([]map[string]any, 0, len(field.Options))
			for _, option := range field.Options {
				options = append(options, map[string]any{
					"value":    option.Value,
					"label":    option.Label,
					"selected": option.Value == current,
				})
			}
			entry["options"] = options
		}
		out = append(out, entry)
	}
	return out
}
