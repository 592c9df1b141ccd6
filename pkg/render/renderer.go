package render

import (
	"context"

	"github.com/goliatone/go-predictform/pkg/model"
)

// Phase identifies what the results container is showing.
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseSuccess      Phase = "success"
	PhaseFailure      Phase = "failure"
	PhaseConnectivity Phase = "connectivity"
	PhaseMalformed    Phase = "malformed"
)

// View is the renderer input for a single container update.
type View struct {
	Phase  Phase
	Locale string
	// Subjects controls the order and labels of the success lines. Empty
	// means model.DefaultSubjects().
	Subjects []model.Subject
	Result   model.PredictionResult
	// Message carries the server supplied error text for PhaseFailure. Empty
	// selects the generic fallback.
	Message string
}

// Line is one rendered subject score.
type Line struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// LoadingView returns the view shown while a request is pending.
func LoadingView(locale string) View {
	return View{Phase: PhaseLoading, Locale: locale}
}

// Renderer produces container content for a view.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View) ([]byte, error)
}

func (v View) subjects() []model.Subject {
	if len(v.Subjects) > 0 {
		return v.Subjects
	}
	return model.DefaultSubjects()
}

// lines resolves subject labels through the translator and values through
// the result display rules. Absent keys render as empty strings.
func (v View) lines(t Translator, onMissing MissingTranslationHandler) []Line {
	subjects := v.subjects()
	out := make([]Line, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, Line{
			Key:   subject.Key,
			Label: translate(v.Locale, "subject."+subject.Key, subject.Label, t, onMissing),
			Value: v.Result.Display(subject.Key),
		})
	}
	return out
}

// messages resolves the phase text shared by every renderer.
type messages struct {
	Heading string
	Text    string
	IsError bool
}

func (v View) messages(t Translator, onMissing MissingTranslationHandler) messages {
	tr := func(key string, args ...any) string {
		return translate(v.Locale, key, "", t, onMissing, args...)
	}
	switch v.Phase {
	case PhaseLoading:
		return messages{Text: tr("results.loading")}
	case PhaseSuccess:
		return messages{Heading: tr("results.heading")}
	case PhaseFailure:
		detail := v.Message
		if detail == "" {
			detail = tr("results.unknown_error")
		}
		return messages{Text: tr("results.failure", detail), IsError: true}
	case PhaseConnectivity:
		return messages{Text: tr("results.connectivity"), IsError: true}
	case PhaseMalformed:
		return messages{Text: tr("results.malformed"), IsError: true}
	default:
		return messages{}
	}
}
