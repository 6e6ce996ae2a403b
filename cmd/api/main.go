package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aptracker/internal/app"
	"aptracker/internal/config"
	"aptracker/internal/logger"
)

// @title           AP Tracker API
// @version         1.0
// @description     Accounts-payable invoice lifecycle, payment scheduling and cash-flow forecasting.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	log := logger.WithComponent("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer application.Close()

	if err := application.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}

	// Set up WebSocket Hub
	go application.Hub.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("storage", cfg.Storage.Backend).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
