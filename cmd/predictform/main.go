// predictform serves the ENEM score prediction form, trains its model and
// runs the form in a terminal.
//
// Usage:
//
//	predictform serve [--addr :5000] [--model model/knn_model.json]
//	predictform train --dataset data/microdados_enem2023.csv
//	predictform ask [--base-url http://localhost:5000]
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "predictform",
		Usage:   "ENEM score prediction form, endpoint and model trainer",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "json",
				Usage: "Log format (json, console)",
			},
		},

		Commands: []*cli.Command{
			serveCommand(),
			trainCommand(),
			askCommand(),
			versionCommand(),
		},
	}
}

// setup loads the configuration, applies global flag overrides and installs
// the logger.
func setup(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, c.App.ErrWriter)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// override copies a string flag into target when the flag was given.
func override(c *cli.Context, flag string, target *string) {
	if c.IsSet(flag) {
		*target = c.String(flag)
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "predictform %s\n", version)
			fmt.Fprintf(c.App.Writer, "  commit: %s\n", commit)
			fmt.Fprintf(c.App.Writer, "  built:  %s\n", date)
			return nil
		},
	}
}
