package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/goliatone/go-predictform/pkg/dataset"
	"github.com/goliatone/go-predictform/pkg/knn"
)

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Fit the prediction model from the ENEM microdata CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "Path to the microdata CSV",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Where to write the fitted model",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "CSV encoding (auto, utf-8, iso-8859-1)",
			},
			&cli.StringFlag{
				Name:  "comma",
				Usage: "CSV field separator",
			},
			&cli.IntFlag{
				Name:  "k",
				Usage: "Number of neighbours averaged per prediction",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			override(c, "dataset", &cfg.Dataset.Path)
			override(c, "model", &cfg.Model.Path)
			override(c, "encoding", &cfg.Dataset.Encoding)
			override(c, "comma", &cfg.Dataset.Comma)
			if c.IsSet("k") {
				cfg.Model.K = c.Int("k")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			encoding, err := dataset.ParseEncoding(cfg.Dataset.Encoding)
			if err != nil {
				return err
			}

			logger.Info().Str("path", cfg.Dataset.Path).Msg("loading dataset")
			table, stats, err := dataset.ReadFile(c.Context, cfg.Dataset.Path,
				dataset.WithEncoding(encoding),
				dataset.WithComma(cfg.CommaRune()),
				dataset.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			model, err := knn.Fit(table, knn.WithK(cfg.Model.K))
			if err != nil {
				return err
			}
			if err := model.SaveFile(cfg.Model.Path); err != nil {
				return err
			}

			logger.Info().
				Int("rows", stats.Rows).
				Int("kept", stats.Kept).
				Int("dropped", stats.Dropped).
				Int("filled", stats.Filled).
				Str("model", cfg.Model.Path).
				Msg("model trained")
			fmt.Fprintf(c.App.Writer, "trained on %d of %d rows, model written to %s\n", stats.Kept, stats.Rows, cfg.Model.Path)
			return nil
		},
	}
}
