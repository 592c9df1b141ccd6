package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Subject pairs a prediction key with its display label.
type Subject struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Prediction keys returned by the prediction endpoint.
const (
	KeyMath       = "NU_NOTA_MT"
	KeyNature     = "NU_NOTA_CN"
	KeyLanguages  = "NU_NOTA_LC"
	KeyHumanities = "NU_NOTA_CH"
	KeyEssay      = "NU_NOTA_REDACAO"
)

// DefaultSubjects returns the five predicted subjects in render order.
func DefaultSubjects() []Subject {
	return []Subject{
		{Key: KeyMath, Label: "Matemática (MT)"},
		{Key: KeyNature, Label: "Ciências da Natureza (CN)"},
		{Key: KeyLanguages, Label: "Linguagens e Códigos (LC)"},
		{Key: KeyHumanities, Label: "Ciências Humanas (CH)"},
		{Key: KeyEssay, Label: "Redação"},
	}
}

// SubjectKeys lists the keys of subjects in order.
func SubjectKeys(subjects []Subject) []string {
	keys := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		keys = append(keys, subject.Key)
	}
	return keys
}

// PredictionResult holds the raw values of a successful prediction response.
// No schema is enforced: values are looked up by key and displayed as sent.
type PredictionResult map[string]json.RawMessage

// Display returns the text shown for key. Missing keys and null render as an
// empty string, strings render unquoted, numbers keep their literal text and
// anything else renders as compact JSON.
func (r PredictionResult) Display(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return string(trimmed)
}

// Has reports whether key is present.
func (r PredictionResult) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys lists the result keys sorted alphabetically.
func (r PredictionResult) Keys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ErrorPayload is the body of a non-2xx prediction response.
type ErrorPayload struct {
	Error *string `json:"error,omitempty"`
}

// NewErrorPayload builds a payload carrying message.
func NewErrorPayload(message string) ErrorPayload {
	return ErrorPayload{Error: &message}
}

// UnmarshalJSON accepts any scalar under "error". Falsy values (empty string,
// null, false, 0) count as absent.
func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	var fields PredictionResult
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = ErrorPayload{}
	if !fields.Has("error") {
		return nil
	}
	message := fields.Display("error")
	switch message {
	case "", "false", "0":
		return nil
	}
	p.Error = &message
	return nil
}

// Message returns the server supplied message, or fallback when it is absent
// or blank.
func (p ErrorPayload) Message(fallback string) string {
	if p.Error == nil || strings.TrimSpace(*p.Error) == "" {
		return fallback
	}
	return *p.Error
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
