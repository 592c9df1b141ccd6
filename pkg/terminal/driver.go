package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-predictform/pkg/model"
)

// InputConfig configures a free text field prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig configures the "another prediction?" style prompt.
type ConfirmConfig struct {
	Message string
	Default bool
}

// SelectConfig configures a prompt over the coded answers of a field.
type SelectConfig struct {
	Message string
	Help    string
	Options []model.Option
	// Default is the value preselected, if it is one of Options.
	Default  string
	PageSize int
}

// PromptDriver asks single form answers. Select returns the chosen option
// value, not its label.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

// DriverOption configures the survey driver.
type DriverOption func(*surveyDriver)

// WithOutput sends Info messages to out.
func WithOutput(out io.Writer) DriverOption {
	return func(d *surveyDriver) {
		if out != nil {
			d.out = out
		}
	}
}

// WithStdio runs prompts over the given terminal streams instead of the
// process stdio.
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) DriverOption {
	return func(d *surveyDriver) {
		d.askOpts = append(d.askOpts, survey.WithStdio(in, out, errOut))
	}
}

type surveyDriver struct {
	out     io.Writer
	askOpts []survey.AskOpt
}

// NewSurveyDriver returns a PromptDriver backed by survey.
func NewSurveyDriver(options ...DriverOption) PromptDriver {
	d := &surveyDriver{out: os.Stdout}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *surveyDriver) ask(prompt survey.Prompt, response any, extra ...survey.AskOpt) error {
	opts := append(append([]survey.AskOpt(nil), d.askOpts...), extra...)
	if err := survey.AskOne(prompt, response, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var extra []survey.AskOpt
	if cfg.Validator != nil {
		extra = append(extra, survey.WithValidator(func(ans any) error {
			text, _ := ans.(string)
			return cfg.Validator(text)
		}))
	}
	var answer string
	prompt := &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}
	if err := d.ask(prompt, &answer, extra...); err != nil {
		return "", err
	}
	return answer, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var answer bool
	if err := d.ask(&survey.Confirm{Message: cfg.Message, Default: cfg.Default}, &answer); err != nil {
		return false, err
	}
	return answer, nil
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(cfg.Options) == 0 {
		return "", fmt.Errorf("terminal: %q has no options", cfg.Message)
	}
	prompt := selectPrompt(cfg)
	var answer string
	if err := d.ask(prompt, &answer, survey.WithFilter(optionFilter(cfg.Options))); err != nil {
		return "", err
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// selectPrompt lists option values with their labels as descriptions.
func selectPrompt(cfg SelectConfig) *survey.Select {
	values := make([]string, len(cfg.Options))
	for i, option := range cfg.Options {
		values[i] = option.Value
	}
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: values,
		Help:    cfg.Help,
		Description: func(_ string, index int) string {
			label := cfg.Options[index].Label
			if label == cfg.Options[index].Value {
				return ""
			}
			return label
		},
	}
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	for _, option := range cfg.Options {
		if option.Value == cfg.Default {
			prompt.Default = option.Value
			break
		}
	}
	return prompt
}

// optionFilter matches a typed filter against the answer code first, then
// anywhere in the label, ignoring case.
func optionFilter(options []model.Option) func(filter, value string, index int) bool {
	return func(filter, value string, index int) bool {
		needle := strings.ToLower(strings.TrimSpace(filter))
		if needle == "" {
			return true
		}
		if strings.HasPrefix(strings.ToLower(value), needle) {
			return true
		}
		if index < 0 || index >= len(options) {
			return false
		}
		return strings.Contains(strings.ToLower(options[index].Label), needle)
	}
}
