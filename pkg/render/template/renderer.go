package template

import (
	"io"
)

// TemplateRenderer renders a named template with view data.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
