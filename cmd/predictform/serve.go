package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/server"
	"github.com/goliatone/go-predictform/pkg/knn"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the prediction form and the /predict endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Path to the trained model",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Prediction origin for page submissions (empty uses this server's own address)",
			},
			&cli.BoolFlag{
				Name:  "in-process",
				Usage: "Answer page submissions without the HTTP round trip to /predict",
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "Default page locale",
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "Theme variant (light, dark)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			override(c, "addr", &cfg.Server.Addr)
			override(c, "model", &cfg.Model.Path)
			override(c, "base-url", &cfg.Client.BaseURL)
			override(c, "locale", &cfg.Render.Locale)
			override(c, "variant", &cfg.Render.Variant)
			if c.IsSet("in-process") {
				cfg.Client.InProcess = c.Bool("in-process")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("serve: listen %s: %w", cfg.Server.Addr, err)
			}

			srv, err := buildServer(ctx, cfg, ln.Addr(), logger)
			if err != nil {
				_ = ln.Close()
				return err
			}
			return runServer(ctx, cfg.Server, ln, srv.Handler(), logger)
		},
	}
}

// buildServer wires the server. Page submissions post to client.base_url,
// or to listen when it is empty, unless client.in_process is set.
func buildServer(ctx context.Context, cfg *config.Config, listen net.Addr, logger zerolog.Logger) (*server.Server, error) {
	catalog, err := render.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	themes, err := render.NewThemeSet(render.DefaultThemeManifest())
	if err != nil {
		return nil, err
	}
	html, err := render.NewHTML(
		render.WithTranslator(catalog),
		render.WithThemes(themes, cfg.Render.Theme, cfg.Render.Variant),
		render.WithIntro(cfg.Render.Intro),
		render.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	policy, err := submit.ParsePolicy(cfg.Client.Policy)
	if err != nil {
		return nil, err
	}

	options := []server.Option{
		server.WithRenderer(html),
		server.WithCatalog(catalog),
		server.WithDefaultLocale(cfg.Render.Locale),
		server.WithPolicy(policy),
		server.WithTimeout(cfg.Server.WriteTimeout),
		server.WithLogger(logger),
		server.WithVersion(version),
	}

	model, err := knn.LoadFile(cfg.Model.Path)
	if err != nil {
		// The endpoint still starts and answers 500 until a model is trained.
		logger.Error().Err(err).Str("path", cfg.Model.Path).Msg("prediction model not loaded")
	} else {
		logger.Info().Str("path", cfg.Model.Path).Int("samples", len(model.Samples)).Int("k", model.K).Msg("prediction model loaded")
		options = append(options, server.WithModel(model))
	}

	switch {
	case cfg.Client.InProcess:
		options = append(options, server.WithInProcessPredictor())
	default:
		clientCfg := cfg.Client
		if clientCfg.BaseURL == "" {
			clientCfg.BaseURL = selfBaseURL(listen)
		}
		client, err := newClient(clientCfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("url", client.URL()).Msg("page submissions post to prediction endpoint")
		options = append(options, server.WithPredictor(client))
	}
	if cfg.Server.EnableCORS {
		options = append(options, server.WithCORS(cfg.Server.CORSOrigins...))
	}

	return server.New(ctx, options...)
}

func newClient(cfg config.ClientConfig, logger zerolog.Logger) (*predict.Client, error) {
	return predict.NewClient(
		predict.WithBaseURL(cfg.BaseURL),
		predict.WithEndpoint(cfg.Endpoint),
		predict.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		predict.WithLogger(logger),
	)
}

// selfBaseURL turns a listen address into an origin this process can dial.
// Unspecified hosts map to loopback.
func selfBaseURL(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// runServer serves on ln until ctx is cancelled, then shuts down within the
// grace period.
func runServer(ctx context.Context, cfg config.ServerConfig, ln net.Listener, handler http.Handler, logger zerolog.Logger) error {
	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Str("version", version).Msg("starting predictform server")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down predictform server")
		grace := cfg.ShutdownGrace
		if grace <= 0 {
			grace = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
