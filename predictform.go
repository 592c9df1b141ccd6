// Package predictform is the top-level entry point for embedding the ENEM
// score prediction form. The building blocks live under pkg/; this package
// wires the defaults together for callers that only want HTML.
package predictform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render"
)

// Form returns the prediction form described by the embedded contract.
func Form(ctx context.Context) (model.FormModel, error) {
	c, err := contract.Default(ctx)
	if err != nil {
		return model.FormModel{}, err
	}
	return c.Form(), nil
}

// GeneratePage renders the empty form page with the default theme. Options
// are applied after the defaults, so WithThemes or WithTranslator replace
// them.
func GeneratePage(ctx context.Context, locale string, options ...render.Option) ([]byte, error) {
	form, err := Form(ctx)
	if err != nil {
		return nil, err
	}
	themes, err := render.NewThemeSet(render.DefaultThemeManifest())
	if err != nil {
		return nil, err
	}

	defaults := []render.Option{
		render.WithThemes(themes, render.DefaultThemeName, render.DefaultThemeVariant),
	}
	html, err := render.NewHTML(append(defaults, options...)...)
	if err != nil {
		return nil, err
	}
	return html.RenderPage(ctx, render.PageView{Locale: locale, Form: form})
}

// StaticFS exposes the stylesheet referenced by the default theme so Go
// applications can serve it next to the page.
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(predictform.StaticFS()),
//	  ),
//	)
func StaticFS() fs.FS {
	return render.StaticFS()
}

// EmbeddedTemplates exposes the built-in pongo2 templates.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}
