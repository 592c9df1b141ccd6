// Package terminal drives the prediction form from an interactive terminal:
// fields are asked with survey prompts and results are printed as text.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/submit"
)

// ErrRequired is returned by the input validator for blank required fields.
var ErrRequired = errors.New("terminal: value is required")

// PromptSource asks every form field in order. Answers are remembered and
// offered as defaults on the next round.
type PromptSource struct {
	driver PromptDriver
	form   model.FormModel

	mu   sync.Mutex
	last map[string]string
}

var _ submit.FieldSource = (*PromptSource)(nil)

// NewPromptSource builds a FieldSource for form.
func NewPromptSource(driver PromptDriver, form model.FormModel) (*PromptSource, error) {
	if driver == nil {
		return nil, errors.New("terminal: prompt driver is required")
	}
	if len(form.Fields) == 0 {
		return nil, errors.New("terminal: form has no fields")
	}
	return &PromptSource{
		driver: driver,
		form:   form,
		last:   make(map[string]string),
	}, nil
}

// Fields prompts for each field and returns the answers in form order.
func (s *PromptSource) Fields(ctx context.Context) (model.FormInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var input model.FormInput
	for _, field := range s.form.Fields {
		value, err := s.ask(ctx, field)
		if err != nil {
			return model.FormInput{}, fmt.Errorf("terminal: field %s: %w", field.Name, err)
		}
		input.Set(field.Name, value)
	}
	for _, name := range input.Keys() {
		s.last[name], _ = input.Get(name)
	}
	return input, nil
}

func (s *PromptSource) ask(ctx context.Context, field model.Field) (string, error) {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	current, ok := s.last[field.Name]
	if !ok {
		current = field.Default
	}

	if len(field.Options) == 0 {
		cfg := InputConfig{Message: label, Default: current, Help: field.Description}
		if field.Required {
			cfg.Validator = func(value string) error {
				if strings.TrimSpace(value) == "" {
					return ErrRequired
				}
				return nil
			}
		}
		value, err := s.driver.Input(ctx, cfg)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(value), nil
	}

	value, err := s.driver.Select(ctx, SelectConfig{
		Message:  label,
		Help:     field.Description,
		Options:  field.Options,
		Default:  current,
		PageSize: 10,
	})
	if err != nil {
		return "", err
	}
	if !hasOption(field.Options, value) {
		return "", fmt.Errorf("terminal: %q is not an option", value)
	}
	return value, nil
}

func hasOption(options []model.Option, value string) bool {
	for _, option := range options {
		if option.Value == value {
			return true
		}
	}
	return false
}
