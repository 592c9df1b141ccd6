// Package submit implements the form submission flow: show a loading state,
// read the form, post it to the prediction endpoint and replace the results
// container with the scores or an error message.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
)

// Policy controls overlapping submissions.
type Policy int

const (
	// LatestWins lets submissions overlap but drops responses that resolve
	// after a newer submission started.
	LatestWins Policy = iota
	// RejectWhileBusy refuses a submission while another one is pending.
	RejectWhileBusy
	// Unguarded writes every response as it resolves.
	Unguarded
)

func (p Policy) String() string {
	switch p {
	case LatestWins:
		return "latest-wins"
	case RejectWhileBusy:
		return "reject-while-busy"
	case Unguarded:
		return "unguarded"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(raw string) (Policy, error) {
	switch raw {
	case "", "latest-wins":
		return LatestWins, nil
	case "reject-while-busy":
		return RejectWhileBusy, nil
	case "unguarded":
		return Unguarded, nil
	default:
		return LatestWins, fmt.Errorf("submit: unknown policy %q", raw)
	}
}

// Option configures a Handler.
type Option func(*Handler)

// WithPolicy sets the overlap policy (default LatestWins).
func WithPolicy(policy Policy) Option {
	return func(h *Handler) {
		h.policy = policy
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithLocale sets the locale passed to the renderer.
func WithLocale(locale string) Option {
	return func(h *Handler) {
		h.locale = locale
	}
}

// WithSubjects overrides the subjects rendered on success.
func WithSubjects(subjects []model.Subject) Option {
	return func(h *Handler) {
		if len(subjects) > 0 {
			h.subjects = append([]model.Subject(nil), subjects...)
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(h *Handler) {
		if fn != nil {
			h.newID = fn
		}
	}
}

// Handler wires a form, a results container, a predictor and a renderer.
// It is safe for concurrent use.
type Handler struct {
	form      FieldSource
	results   Container
	predictor predict.Predictor
	renderer  render.Renderer

	logger   zerolog.Logger
	policy   Policy
	locale   string
	subjects []model.Subject
	newID    func() uuid.UUID

	mu      sync.Mutex
	seq     uint64
	pending int
}

// New constructs a Handler. All four collaborators are required.
func New(form FieldSource, results Container, predictor predict.Predictor, renderer render.Renderer, options ...Option) (*Handler, error) {
	switch {
	case form == nil:
		return nil, errors.New("submit: field source is required")
	case results == nil:
		return nil, errors.New("submit: results container is required")
	case predictor == nil:
		return nil, errors.New("submit: predictor is required")
	case renderer == nil:
		return nil, errors.New("submit: renderer is required")
	}

	h := &Handler{
		form:      form,
		results:   results,
		predictor: predictor,
		renderer:  renderer,
		logger:    zerolog.Nop(),
		policy:    LatestWins,
		subjects:  model.DefaultSubjects(),
		newID:     uuid.New,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Pending reports how many submissions are waiting on the predictor.
func (h *Handler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

// Submit runs one submission to completion. Failures are rendered into the
// container and described by the returned Outcome; they are never returned
// as errors.
func (h *Handler) Submit(ctx context.Context) Outcome {
	out, ok := h.begin(ctx)
	if !ok {
		return out
	}

	logger := h.logger.With().Str("submission", out.ID.String()).Uint64("seq", out.Seq).Logger()

	input, err := h.form.Fields(ctx)
	if err != nil {
		h.finish()
		out.Kind = KindAborted
		out.Err = err
		logger.Debug().Err(err).Msg("form read aborted")
		return out
	}
	out.Input = input

	result, err := h.predictor.Predict(ctx, input)
	view := h.classify(&out, result, err)

	// A deadline or cancellation is itself a connectivity failure and must
	// still reach the container.
	content, renderErr := h.renderer.Render(context.WithoutCancel(ctx), view)
	if renderErr != nil {
		h.finish()
		out.Kind = KindRenderFailed
		out.Content = nil
		out.Err = errors.Join(out.Err, fmt.Errorf("submit: render %s: %w", view.Phase, renderErr))
		logger.Error().Err(out.Err).Msg("render failed")
		return out
	}

	if !h.commit(out.Seq, content) {
		out.Kind = KindStale
		logger.Debug().Str("phase", string(view.Phase)).Msg("dropped stale response")
		return out
	}
	out.Content = content

	event := logger.Info()
	if out.Kind != KindSuccess {
		event = logger.Warn().Err(out.Err)
	}
	event.Str("kind", string(out.Kind)).Int("status", out.StatusCode).Msg("submission rendered")
	return out
}

// begin allocates the submission and shows the loading state before any
// network activity.
func (h *Handler) begin(ctx context.Context) (Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.policy == RejectWhileBusy && h.pending > 0 {
		h.logger.Debug().Int("pending", h.pending).Msg("submission rejected while busy")
		return Outcome{ID: h.newID(), Kind: KindBusy}, false
	}

	h.seq++
	h.pending++
	out := Outcome{ID: h.newID(), Seq: h.seq, Phase: render.PhaseLoading}

	loading, err := h.renderer.Render(context.WithoutCancel(ctx), render.LoadingView(h.locale))
	if err != nil {
		h.logger.Error().Err(err).Msg("render loading state")
		return out, true
	}
	h.results.Replace(loading)
	out.Content = loading
	return out, true
}

func (h *Handler) finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending--
}

// commit writes content unless a newer submission has started under
// LatestWins.
func (h *Handler) commit(seq uint64, content []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending--

	if h.policy == LatestWins && seq != h.seq {
		return false
	}
	h.results.Replace(content)
	return true
}

func (h *Handler) classify(out *Outcome, result model.PredictionResult, err error) render.View {
	view := render.View{Locale: h.locale, Subjects: h.subjects}

	var (
		serverErr *predict.ServerError
		decodeErr *predict.DecodeError
	)
	switch {
	case err == nil:
		out.Kind = KindSuccess
		out.Result = result
		view.Phase = render.PhaseSuccess
		view.Result = result
	case errors.As(err, &serverErr):
		out.Kind = KindServerError
		out.StatusCode = serverErr.StatusCode
		out.Message = serverErr.Message("")
		view.Phase = render.PhaseFailure
		view.Message = out.Message
	case errors.As(err, &decodeErr):
		out.Kind = KindMalformed
		out.StatusCode = decodeErr.StatusCode
		view.Phase = render.PhaseMalformed
	default:
		// Anything else, typed transport error or not, is a connectivity
		// failure from the user's point of view.
		out.Kind = KindTransport
		view.Phase = render.PhaseConnectivity
	}
	if err != nil {
		out.Err = err
	}
	out.Phase = view.Phase
	return view
}
