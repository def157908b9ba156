// Package bootstrap builds the collaborators shared by the server and formctl
// binaries from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/cyberelites/formmailer/internal/config"
	"github.com/cyberelites/formmailer/internal/database"
	"github.com/cyberelites/formmailer/internal/email"
	"github.com/cyberelites/formmailer/internal/handler"
	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/repository"
	"github.com/cyberelites/formmailer/internal/service"
	"github.com/cyberelites/formmailer/internal/sheets"
	"github.com/cyberelites/formmailer/internal/trigger"
	"github.com/cyberelites/formmailer/internal/watcher"
)

// App holds the wired collaborators
type App struct {
	Config     *config.Config
	Log        *logger.Logger
	Redis      *database.Redis
	Postgres   *database.Postgres
	Store      sheets.ReadableStore
	Sender     email.Sender
	ErrorLog   *service.ErrorLogService
	Dispatcher *service.DispatchService
	Registrar  *trigger.Registrar

	closers []func() error
}

// New connects to Redis and the configured store and builds the services
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.Redis = rdb
	app.closers = append(app.closers, rdb.Close)
	log.Info().Msg("connected to Redis")

	if err := app.openStore(ctx); err != nil {
		app.Close()
		return nil, err
	}

	sender, err := NewSender(ctx, cfg.Email)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sender = sender
	log.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	renderer := email.NewRenderer(email.Branding{
		Name:     cfg.Template.ClubName,
		LinkText: cfg.Template.ClubLinkText,
		URL:      cfg.Template.ClubURL,
	}, cfg.Template.EscapeValues)
	app.ErrorLog = service.NewErrorLogService(app.Store, cfg.ErrorLog.SheetName, log)
	app.Dispatcher = service.NewDispatchService(sender, renderer, app.ErrorLog, service.DispatchConfig{
		Subject:     cfg.Email.Subject,
		IncludeText: cfg.Template.IncludeText,
	}, log)

	app.Registrar = trigger.NewRegistrar(
		trigger.NewRedisRegistry(rdb),
		trigger.NewRedisFlagStore(rdb),
		cfg.Trigger.HandlerName,
		log,
	)

	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config.Store

	switch cfg.Driver {
	case config.StoreDriverGoogle:
		store, err := sheets.NewGoogleStore(ctx, sheets.GoogleConfig{
			SpreadsheetID:     cfg.SpreadsheetID,
			CredentialsJSON:   cfg.CredentialsJSON,
			RequestsPerSecond: cfg.GoogleRequestsPerSecond,
		})
		if err != nil {
			return err
		}
		a.Store = store

	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(a.Config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.Postgres = db
		a.closers = append(a.closers, db.Close)
		a.Store = repository.NewSheetRepository(db)
		a.Log.Info().Msg("connected to PostgreSQL")

	case config.StoreDriverXLSX:
		store, err := sheets.NewXLSXStore(cfg.XLSXPath)
		if err != nil {
			return err
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	a.Log.Info().Str("driver", cfg.Driver).Msg("tabular store opened")
	return nil
}

// NewSender builds the configured email provider
func NewSender(ctx context.Context, cfg config.EmailConfig) (email.Sender, error) {
	switch cfg.Provider {
	case config.ProviderGmail:
		sender, err := email.NewGmailSender(ctx, email.GmailConfig{
			CredentialsJSON: cfg.Gmail.CredentialsJSON,
			ClientID:        cfg.Gmail.ClientID,
			ClientSecret:    cfg.Gmail.ClientSecret,
			RefreshToken:    cfg.Gmail.RefreshToken,
			SenderAddress:   cfg.Gmail.SenderAddress,
			SenderName:      cfg.Gmail.SenderName,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.ProviderResend:
		sender, err := email.NewResendSender(email.ResendConfig{
			APIKey:        cfg.Resend.APIKey,
			SenderAddress: cfg.Resend.SenderAddress,
			SenderName:    cfg.Resend.SenderName,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// HealthChecks returns the dependencies reported by /health and /ready
func (a *App) HealthChecks() map[string]handler.HealthChecker {
	checks := map[string]handler.HealthChecker{"redis": a.Redis}
	if a.Postgres != nil {
		checks["postgres"] = a.Postgres
	}
	return checks
}

// Watcher builds the responses-sheet poller for source
func (a *App) Watcher(source string) *watcher.Watcher {
	return watcher.New(
		a.Store,
		a.Dispatcher,
		a.Registrar,
		watcher.NewRedisCursorStore(a.Redis),
		watcher.Config{
			Source:         source,
			ResponsesSheet: a.Config.Watch.ResponsesSheet,
			HeaderRows:     1,
			Interval:       a.Config.Watch.Interval,
		},
		a.Log,
	)
}

// Close releases connections in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}
