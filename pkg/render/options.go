package render

import (
	"io/fs"

	"github.com/rs/zerolog"
)

// Option configures the HTML and text renderers.
type Option func(*config)

type config struct {
	translator Translator
	onMissing  MissingTranslationHandler
	themes     *ThemeSet
	themeName  string
	variant    string
	intro      string
	templates  fs.FS
	logger     zerolog.Logger
}

func newConfig(options []Option) config {
	cfg := config{
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithTranslator sets the message source. Without one the embedded catalog
// is used.
func WithTranslator(t Translator) Option {
	return func(cfg *config) {
		cfg.translator = t
	}
}

// WithMissingTranslationHandler customises the text shown for unknown keys.
func WithMissingTranslationHandler(handler MissingTranslationHandler) Option {
	return func(cfg *config) {
		cfg.onMissing = handler
	}
}

// WithThemes supplies the theme set and the selection used for pages.
func WithThemes(set *ThemeSet, name, variant string) Option {
	return func(cfg *config) {
		cfg.themes = set
		cfg.themeName = name
		cfg.variant = variant
	}
}

// WithIntro sets markup shown above the form. It is sanitised before use.
func WithIntro(html string) Option {
	return func(cfg *config) {
		cfg.intro = SanitizeIntro(html)
	}
}

// WithTemplatesFS overrides the embedded templates. The filesystem must hold
// page.tmpl and results.tmpl at its root.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithLogger attaches a logger for render diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

func (cfg *config) resolveTranslator() error {
	if cfg.translator != nil {
		return nil
	}
	catalog, err := DefaultCatalog()
	if err != nil {
		return err
	}
	cfg.translator = catalog
	return nil
}

func (cfg *config) missingHandler() MissingTranslationHandler {
	logger := cfg.logger
	custom := cfg.onMissing
	return func(locale, key string, args []any, err error) string {
		logger.Debug().Str("locale", locale).Str("key", key).Err(err).Msg("missing translation")
		if custom != nil {
			return custom(locale, key, args, err)
		}
		return ""
	}
}
