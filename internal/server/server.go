// Package server exposes the prediction form page and the prediction
// endpoint over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/knn"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
)

const maxRequestBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithModel sets the regressor behind POST /predict. Without a model the
// endpoint answers 500.
func WithModel(m *knn.Model) Option {
	return func(s *Server) {
		s.model = m
	}
}

// WithPredictor sets the predictor used for page submissions. By default
// page submissions post JSON to this server's own POST /predict, addressed
// by the request host.
func WithPredictor(p predict.Predictor) Option {
	return func(s *Server) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithInProcessPredictor answers page submissions by calling the model
// directly, with the same status and messages POST /predict would produce.
func WithInProcessPredictor() Option {
	return func(s *Server) {
		s.inProcess = true
	}
}

// WithContract overrides the embedded form contract.
func WithContract(c *contract.Contract) Option {
	return func(s *Server) {
		if c != nil {
			s.contract = c
		}
	}
}

// WithRenderer overrides the HTML renderer.
func WithRenderer(r *render.HTMLRenderer) Option {
	return func(s *Server) {
		if r != nil {
			s.html = r
		}
	}
}

// WithFragmentRenderer adds a renderer POST /results can answer with, picked
// by name through "format" or by its content type through Accept.
func WithFragmentRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.fragments = append(s.fragments, r)
		}
	}
}

// WithCatalog sets the catalog used for Accept-Language negotiation.
func WithCatalog(c *render.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithDefaultLocale sets the locale used when the request names none.
func WithDefaultLocale(locale string) Option {
	return func(s *Server) {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			s.locale = trimmed
		}
	}
}

// WithPolicy sets the submission policy for page submissions.
func WithPolicy(policy submit.Policy) Option {
	return func(s *Server) {
		s.policy = policy
	}
}

// WithCORS enables CORS for the given origins.
func WithCORS(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append([]string(nil), origins...)
		s.cors = true
	}
}

// WithTimeout bounds request handling time.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// Server routes page, fragment and prediction requests.
type Server struct {
	router chi.Router

	model     *knn.Model
	predictor predict.Predictor
	inProcess bool
	loopback  *http.Client
	contract  *contract.Contract
	html      *render.HTMLRenderer
	renderers *render.Registry
	fragments []render.Renderer
	catalog   *render.Catalog

	locale      string
	policy      submit.Policy
	cors        bool
	corsOrigins []string
	timeout     time.Duration
	version     string
	started     time.Time
	logger      zerolog.Logger
}

// New constructs a Server and its router.
func New(ctx context.Context, options ...Option) (*Server, error) {
	s := &Server{
		locale:  render.DefaultLocale,
		policy:  submit.LatestWins,
		timeout: 30 * time.Second,
		version: "dev",
		started: time.Now(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if s.contract == nil {
		c, err := contract.Default(ctx)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.contract = c
	}
	if s.catalog == nil {
		catalog, err := render.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.catalog = catalog
	}
	if s.html == nil {
		themes, err := render.NewThemeSet(render.DefaultThemeManifest())
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		html, err := render.NewHTML(
			render.WithTranslator(s.catalog),
			render.WithThemes(themes, render.DefaultThemeName, render.DefaultThemeVariant),
			render.WithLogger(s.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.html = html
	}
	if s.predictor == nil && s.inProcess {
		s.predictor = endpointPredictor{server: s}
	}
	s.loopback = &http.Client{Timeout: s.timeout}

	text, err := render.NewText(render.WithTranslator(s.catalog), render.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.renderers = render.NewRegistry()
	for _, renderer := range append([]render.Renderer{s.html, text}, s.fragments...) {
		if err := s.renderers.Register(renderer); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}

	s.router = s.routes()
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ModelReady reports whether POST /predict can answer.
func (s *Server) ModelReady() bool {
	return s.model.Ready()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	if s.cors {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         86400,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/openapi.yaml", s.handleContract)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(render.StaticFS()))))

	r.Get("/", s.handlePage)
	r.Post("/", s.handleSubmit)
	r.Post("/results", s.handleResults)
	r.Post(predict.DefaultEndpoint, s.handlePredict)

	return r
}

// requestLocale picks the "lang" query parameter when the catalog knows it,
// then Accept-Language, then the configured default.
func (s *Server) requestLocale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" && s.catalog.HasLocale(lang) {
		return lang
	}
	if header := strings.TrimSpace(r.Header.Get("Accept-Language")); header != "" {
		return s.catalog.Match(header)
	}
	return s.locale
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			event := logger.Info()
			if ww.Status() >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
