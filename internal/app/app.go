// Package app wires configuration, storage backends and services together
// for the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"aptracker/internal/config"
	"aptracker/internal/database"
	"aptracker/internal/middleware"
	"aptracker/internal/repository"
	"aptracker/internal/repository/memory"
	"aptracker/internal/service"
	"aptracker/internal/storage"
	"aptracker/internal/websocket"

	"github.com/rs/zerolog"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	Rules  service.Rules
	Repos  repository.Set
	Hub    *websocket.Hub
	Auth   *middleware.Auth

	Vendors  service.VendorService
	Invoices service.InvoiceService
	Forecast service.ForecastService
	Reports  service.ReportService
	Audit    service.AuditService
	Users    service.UserService

	log   zerolog.Logger
	close func() error
}

// Rules translates the configured business constants for the services.
func Rules(cfg config.Rules) (service.Rules, error) {
	normalizer, err := cfg.Normalizer()
	if err != nil {
		return service.Rules{}, fmt.Errorf("rates: %w", err)
	}
	return service.Rules{
		DueDate:          cfg.DueDateRules(),
		Checklist:        cfg.Checklist(),
		Policy:           cfg.Policy(),
		Normalizer:       normalizer,
		Currencies:       cfg.SupportedCurrencies(),
		ForecastMonths:   cfg.ForecastMonths,
		DashboardHorizon: cfg.DashboardHorizon,
	}, nil
}

// New opens the configured backend and builds every service.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	rules, err := Rules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Rules:  rules,
		Hub:    websocket.NewHub(log.With().Str("component", "websocket").Logger()),
		Auth:   middleware.NewAuth(string(cfg.JWTSecret()), cfg.Server.Mode == "release"),
		log:    log,
		close:  func() error { return nil },
	}

	switch cfg.Storage.Backend {
	case "memory":
		a.Repos = memory.NewStore().Repositories()
		log.Warn().Msg("using in-memory storage, data is lost on exit")
	default:
		db, err := database.NewConnection(cfg.DSN(), log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		a.Repos = repository.NewGormSet(db)
		a.close = sqlDB.Close
		log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to PostgreSQL")
	}

	// A nil *S3Store must not reach the service as a non-nil interface.
	var store storage.ObjectStore
	if cfg.Attachments.Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.Attachments.Bucket,
			Region:       cfg.Attachments.Region,
			Endpoint:     cfg.Attachments.Endpoint,
			AccessKey:    cfg.Attachments.AccessKey,
			SecretKey:    cfg.Attachments.SecretKey,
			UsePathStyle: cfg.Attachments.UsePathStyle,
			PresignTTL:   cfg.Attachments.PresignTTL,
		})
		if err != nil {
			_ = a.close()
			return nil, err
		}
		store = s3store
		log.Info().Str("bucket", cfg.Attachments.Bucket).Msg("attachment store enabled")
	}

	tokens := service.TokenConfig{
		Secret: string(cfg.JWTSecret()),
		TTL:    time.Duration(cfg.JWT.ExpirationHours) * time.Hour,
	}

	a.Vendors = service.NewVendorService(a.Repos, rules, log.With().Str("component", "vendors").Logger())
	a.Invoices = service.NewInvoiceService(a.Repos, rules, store, a.Hub, nil, log.With().Str("component", "invoices").Logger())
	a.Forecast = service.NewForecastService(a.Repos, rules, nil, log.With().Str("component", "forecast").Logger())
	a.Reports = service.NewReportService(a.Repos, nil)
	a.Audit = service.NewAuditService(a.Repos.Audit)
	a.Users = service.NewUserService(a.Repos, tokens, log.With().Str("component", "users").Logger())

	return a, nil
}

// Bootstrap creates the configured admin account if it does not exist yet.
func (a *App) Bootstrap(ctx context.Context) error {
	admin := a.Config.Admin
	if err := a.Users.BootstrapAdmin(ctx, admin.Username, admin.Email, admin.Password); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.close()
}
