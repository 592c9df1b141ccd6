package render

import (
	"bytes"
	"context"
)

const (
	TextName        = "text"
	TextContentType = "text/plain; charset=utf-8"
)

// TextRenderer renders views as plain lines for terminal output.
type TextRenderer struct {
	cfg       config
	onMissing MissingTranslationHandler
}

var _ Renderer = (*TextRenderer)(nil)

// NewText constructs the text renderer.
func NewText(options ...Option) (*TextRenderer, error) {
	cfg := newConfig(options)
	if err := cfg.resolveTranslator(); err != nil {
		return nil, err
	}
	return &TextRenderer{cfg: cfg, onMissing: cfg.missingHandler()}, nil
}

func (r *TextRenderer) Name() string        { return TextName }
func (r *TextRenderer) ContentType() string { return TextContentType }

// Render writes one line per message, or the heading followed by indented
// score lines on success.
func (r *TextRenderer) Render(ctx context.Context, view View) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := view.messages(r.cfg.translator, r.onMissing)

	var buf bytes.Buffer
	if view.Phase != PhaseSuccess {
		buf.WriteString(msg.Text)
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}

	buf.WriteString(msg.Heading)
	buf.WriteByte('\n')
	for _, line := range view.lines(r.cfg.translator, r.onMissing) {
		buf.WriteString("  ")
		buf.WriteString(line.Label)
		buf.WriteString(": ")
		buf.WriteString(line.Value)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
