package terminal

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
)

// WriterContainer prints every container update to a writer. A terminal
// cannot replace earlier output, so each phase is appended.
type WriterContainer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ submit.Container = (*WriterContainer)(nil)

// NewWriterContainer wraps out.
func NewWriterContainer(out io.Writer) *WriterContainer {
	return &WriterContainer{out: out}
}

func (c *WriterContainer) Replace(content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.out.Write(content)
}

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context) submit.Outcome
}

// Option configures a Session.
type Option func(*Session)

// WithTranslator sets the source of the "ask again" prompt text.
func WithTranslator(t render.Translator, locale string) Option {
	return func(s *Session) {
		s.translator = t
		s.locale = locale
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSingleRound stops after the first submission.
func WithSingleRound() Option {
	return func(s *Session) {
		s.single = true
	}
}

// WithTitle prints title once before the first round.
func WithTitle(title string) Option {
	return func(s *Session) {
		s.title = title
	}
}

// Session repeats submissions until the user declines or aborts.
type Session struct {
	submitter  Submitter
	driver     PromptDriver
	translator render.Translator
	locale     string
	logger     zerolog.Logger
	single     bool
	title      string
}

// NewSession builds a Session.
func NewSession(submitter Submitter, driver PromptDriver, options ...Option) (*Session, error) {
	if submitter == nil {
		return nil, errors.New("terminal: submitter is required")
	}
	if driver == nil {
		return nil, errors.New("terminal: prompt driver is required")
	}
	s := &Session{
		submitter: submitter,
		driver:    driver,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run loops until the user stops. A Ctrl+C during prompts ends the session
// without error.
func (s *Session) Run(ctx context.Context) ([]submit.Outcome, error) {
	if s.title != "" {
		if err := s.driver.Info(ctx, s.title); err != nil {
			return nil, err
		}
	}

	var outcomes []submit.Outcome
	for {
		out := s.submitter.Submit(ctx)
		outcomes = append(outcomes, out)
		s.logger.Debug().Str("kind", string(out.Kind)).Msg("terminal submission finished")

		if out.Kind == submit.KindAborted {
			if errors.Is(out.Err, ErrAborted) {
				return outcomes, nil
			}
			return outcomes, out.Err
		}
		if s.single {
			return outcomes, nil
		}

		again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: s.againMessage(), Default: true})
		if errors.Is(err, ErrAborted) {
			return outcomes, nil
		}
		if err != nil {
			return outcomes, err
		}
		if !again {
			return outcomes, nil
		}
	}
}

func (s *Session) againMessage() string {
	const fallback = "Fazer outra previsão?"
	if s.translator == nil {
		return fallback
	}
	msg, err := s.translator.Translate(s.locale, "terminal.again")
	if err != nil {
		return fallback
	}
	return msg
}
