package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
)

// handlePage renders the empty form.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, render.PageView{
		Locale:  s.requestLocale(r),
		Form:    s.contract.Form(),
		Variant: r.URL.Query().Get("variant"),
	})
}

// handleSubmit runs a submission and re-renders the page in place with the
// results container filled.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	input, err := s.readInput(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	locale := s.requestLocale(r)
	_, content, err := s.runSubmission(r, s.html, locale, input)
	if err != nil {
		s.logger.Error().Err(err).Msg("submission setup failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.writePage(w, r, render.PageView{
		Locale:  locale,
		Form:    s.contract.Form(),
		Values:  input,
		Results: content,
		Variant: r.URL.Query().Get("variant"),
	})
}

// handleResults runs a submission and answers with the results fragment only.
// The "format" query parameter names the renderer; without it the Accept
// header picks one by content type, html by default.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	renderer, err := s.fragmentRenderer(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, render.ErrNotAcceptable) {
			status = http.StatusNotAcceptable
		}
		http.Error(w, err.Error(), status)
		return
	}

	input, err := s.readInput(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, _, err := s.runSubmission(r, renderer, s.requestLocale(r), input)
	if err != nil {
		s.logger.Error().Err(err).Msg("submission setup failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !out.Rendered() || out.Content == nil {
		s.logger.Error().Err(out.Err).Str("kind", string(out.Kind)).Msg("results fragment not rendered")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("X-Submission-Kind", string(out.Kind))
	_, _ = w.Write(out.Content)
}

func (s *Server) fragmentRenderer(r *http.Request) (render.Renderer, error) {
	if format := r.URL.Query().Get("format"); format != "" {
		return s.renderers.Get(format)
	}
	return s.renderers.Negotiate(r.Header.Get("Accept"))
}

// runSubmission drives a handler whose container is owned by this request and
// returns the outcome with the final container content.
func (s *Server) runSubmission(r *http.Request, renderer render.Renderer, locale string, input model.FormInput) (submit.Outcome, []byte, error) {
	predictor, err := s.predictorFor(r)
	if err != nil {
		return submit.Outcome{}, nil, err
	}

	recorder := submit.NewRecorder()
	handler, err := submit.New(
		submit.StaticFields(input),
		recorder,
		predictor,
		renderer,
		submit.WithPolicy(s.policy),
		submit.WithLocale(locale),
		submit.WithSubjects(s.contract.Subjects()),
		submit.WithLogger(s.logger),
	)
	if err != nil {
		return submit.Outcome{}, nil, err
	}

	out := handler.Submit(r.Context())
	if missing := s.contract.Missing(input); len(missing) > 0 {
		s.logger.Debug().Strs("missing", missing).Str("kind", string(out.Kind)).Msg("submitted with missing fields")
	}
	return out, recorder.Content(), nil
}

// predictorFor returns the configured predictor, or a client for this
// server's own endpoint at the address the request came in on.
func (s *Server) predictorFor(r *http.Request) (predict.Predictor, error) {
	if s.predictor != nil {
		return s.predictor, nil
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return predict.NewClient(
		predict.WithBaseURL(scheme+"://"+r.Host),
		predict.WithHTTPClient(s.loopback),
		predict.WithLogger(s.logger),
	)
}

// readInput accepts a JSON object or an urlencoded form. Form values follow
// the contract field order.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (model.FormInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			return model.FormInput{}, fmt.Errorf("server: read body: %w", err)
		}
		var input model.FormInput
		if err := input.UnmarshalJSON(raw); err != nil {
			return model.FormInput{}, err
		}
		return input, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		return model.FormInput{}, fmt.Errorf("server: parse form: %w", err)
	}
	return model.FormInputFromValues(r.PostForm, s.contract.Features()), nil
}

// writePage renders even when the request deadline has passed, so a timed out
// submission still shows its connectivity message.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, page render.PageView) {
	body, err := s.html.RenderPage(context.WithoutCancel(r.Context()), page)
	if err != nil {
		s.logger.Error().Err(err).Msg("page render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.html.ContentType())
	_, _ = w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     "predictform",
		"version":     s.version,
		"model_ready": s.ModelReady(),
		"uptime":      time.Since(s.started).String(),
	})
}

func (s *Server) handleContract(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(contract.Document())
}
