package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberelites/formmailer/internal/bootstrap"
	"github.com/cyberelites/formmailer/internal/config"
	"github.com/cyberelites/formmailer/internal/handler"
	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/middleware"
	"github.com/cyberelites/formmailer/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting formmailer server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Redis and the tabular store, build services
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer app.Close()

	// Initialize handlers
	h := handler.New(app.Dispatcher, app.Registrar, app.HealthChecks(), log)

	// Initialize middleware
	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server.trusted_proxies")
	}
	mw := middleware.New(app.Redis, trustedProxies, log)

	// Set up router
	r := router.New(h, mw, router.RateLimit{
		Limit:  cfg.Server.SubmissionRateLimit,
		Window: cfg.Server.SubmissionRateWindow,
	})

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Start the responses-sheet watcher
	if cfg.Watch.Enabled {
		source := cfg.Trigger.Source
		if source == "" {
			source = cfg.Store.SpreadsheetID
		}
		if source == "" {
			log.Warn().Msg("watch enabled but no trigger source configured, watcher not started")
		} else {
			w := app.Watcher(source)
			g.Go(func() error {
				return w.Run(gctx)
			})
		}
	}

	// Start server
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down on signal or when another goroutine fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		app.Close()
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
