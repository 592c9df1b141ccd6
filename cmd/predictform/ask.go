package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/knn"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
	"github.com/goliatone/go-predictform/pkg/terminal"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:  "ask",
		Usage: "Fill in the prediction form in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Prediction server origin (empty uses the local model)",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Path to the trained model used without --base-url",
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "Message locale",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Stop after one prediction",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			override(c, "base-url", &cfg.Client.BaseURL)
			override(c, "model", &cfg.Model.Path)
			override(c, "locale", &cfg.Render.Locale)
			if err := cfg.Validate(); err != nil {
				return err
			}

			var predictor predict.Predictor
			if cfg.Client.BaseURL != "" {
				client, err := newClient(cfg.Client, logger)
				if err != nil {
					return err
				}
				predictor = client
			} else {
				model, err := knn.LoadFile(cfg.Model.Path)
				if err != nil {
					return fmt.Errorf("ask: no --base-url given and the local model is unavailable: %w", err)
				}
				predictor = model
			}

			form, err := contract.Default(c.Context)
			if err != nil {
				return err
			}
			catalog, err := render.DefaultCatalog()
			if err != nil {
				return err
			}
			text, err := render.NewText(render.WithTranslator(catalog), render.WithLogger(logger))
			if err != nil {
				return err
			}
			policy, err := submit.ParsePolicy(cfg.Client.Policy)
			if err != nil {
				return err
			}

			driver := terminal.NewSurveyDriver(terminal.WithOutput(c.App.Writer))
			source, err := terminal.NewPromptSource(driver, form.Form())
			if err != nil {
				return err
			}
			handler, err := submit.New(source, terminal.NewWriterContainer(c.App.Writer), predictor, text,
				submit.WithPolicy(policy),
				submit.WithLocale(cfg.Render.Locale),
				submit.WithSubjects(form.Subjects()),
				submit.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			title, err := catalog.Translate(cfg.Render.Locale, "page.title")
			if err != nil {
				title = form.Form().Title
			}
			options := []terminal.Option{
				terminal.WithTranslator(catalog, cfg.Render.Locale),
				terminal.WithTitle(title),
				terminal.WithLogger(logger),
			}
			if c.Bool("once") {
				options = append(options, terminal.WithSingleRound())
			}
			session, err := terminal.NewSession(handler, driver, options...)
			if err != nil {
				return err
			}

			outcomes, err := session.Run(c.Context)
			if err != nil && !errors.Is(err, terminal.ErrAborted) {
				return err
			}
			logger.Debug().Int("submissions", len(outcomes)).Msg("terminal session finished")
			return nil
		},
	}
}
