package submit

import (
	"context"
	"sync"

	"github.com/goliatone/go-predictform/pkg/model"
)

// FieldSource reads the current values of the form controls.
type FieldSource interface {
	Fields(ctx context.Context) (model.FormInput, error)
}

// FieldSourceFunc adapts a function to FieldSource.
type FieldSourceFunc func(ctx context.Context) (model.FormInput, error)

func (f FieldSourceFunc) Fields(ctx context.Context) (model.FormInput, error) {
	return f(ctx)
}

// StaticFields returns a FieldSource that always yields input.
func StaticFields(input model.FormInput) FieldSource {
	return FieldSourceFunc(func(context.Context) (model.FormInput, error) {
		return input, nil
	})
}

// Container is the results area. Replace swaps its whole content.
type Container interface {
	Replace(content []byte)
}

// Recorder is an in-memory Container that keeps every write. The HTTP
// front-end uses it per request; tests use it to assert write order.
type Recorder struct {
	mu     sync.Mutex
	writes [][]byte
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Replace(content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, append([]byte(nil), content...))
}

// Content returns the current content.
func (r *Recorder) Content() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return nil
	}
	return append([]byte(nil), r.writes[len(r.writes)-1]...)
}

// Writes returns a copy of every write in order.
func (r *Recorder) Writes() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.writes))
	for i, w := range r.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}
