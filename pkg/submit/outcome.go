package submit

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render"
)

// Kind classifies how a submission ended.
type Kind string

const (
	KindSuccess     Kind = "success"
	KindServerError Kind = "server_error"
	KindMalformed   Kind = "malformed_response"
	KindTransport   Kind = "transport_error"
	// KindStale marks a response that resolved after a newer submission
	// started. The container is left untouched.
	KindStale Kind = "stale"
	// KindBusy marks a submission refused because another one is pending.
	KindBusy    Kind = "busy"
	KindAborted Kind = "aborted"
	// KindRenderFailed marks a submission whose final view could not be
	// rendered. Phase still names the view that was attempted.
	KindRenderFailed Kind = "render_failed"
)

// Outcome describes what a call to Submit rendered.
type Outcome struct {
	ID   uuid.UUID
	Seq  uint64
	Kind Kind
	// Phase is the phase that was (or, for stale outcomes, would have been)
	// rendered into the container.
	Phase      render.Phase
	Input      model.FormInput
	Result     model.PredictionResult
	Message    string
	StatusCode int
	// Content is the last content written to the container by this
	// submission.
	Content []byte
	// Err holds the underlying failure for logging. It is never returned.
	Err error
}

// Rendered reports whether the final content reached the container.
func (o Outcome) Rendered() bool {
	switch o.Kind {
	case KindStale, KindBusy, KindAborted, KindRenderFailed:
		return false
	default:
		return true
	}
}
