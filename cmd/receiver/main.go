package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telhawk-systems/telhawk-receiver/internal/config"
	"github.com/telhawk-systems/telhawk-receiver/internal/handlers"
	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
	"github.com/telhawk-systems/telhawk-receiver/internal/relay"
	"github.com/telhawk-systems/telhawk-receiver/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("receiver"))
	logging.SetDefault(logger)

	slog.Info("Starting receiver",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Initialize relay
	var pub relay.Publisher = relay.NoOp{}
	if cfg.Relay.Enabled {
		relayCfg := relay.DefaultConfig()
		relayCfg.URL = cfg.Relay.URL
		relayCfg.Subject = cfg.Relay.Subject
		relayCfg.Name = cfg.Relay.Name

		natsRelay, err := relay.NewNATS(relayCfg, logger.Logger)
		if err != nil {
			slog.Warn("Relay unavailable, continuing without it",
				slog.String("url", cfg.Relay.URL),
				logging.Error(err),
			)
			pub = relay.Unavailable{}
		} else {
			slog.Info("Relay enabled",
				slog.String("url", cfg.Relay.URL),
				slog.String("subject", natsRelay.Subject()),
			)
			pub = natsRelay
		}
	} else {
		slog.Info("Relay disabled")
	}
	defer pub.Close()

	// Admin listener
	var adminSrv *http.Server
	if cfg.Admin.Enabled {
		adminSrv = &http.Server{
			Addr:              cfg.Admin.Addr(),
			Handler:           server.NewAdminRouter(server.NewAdmin(pub, cfg.Relay.Enabled)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Admin listener started", slog.String("addr", adminSrv.Addr))
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Admin server error", logging.Error(err))
			}
		}()
	}

	// Ingestion listener
	handler := handlers.NewDataHandler(logger, pub, cfg.Ingestion.MaxBodyBytes)
	srv := server.New(cfg.Server, server.NewRouter(handler))

	go func() {
		slog.Info("Receiver listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", logging.Error(err))
	}
	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Admin server forced to shutdown", logging.Error(err))
		}
	}

	slog.Info("Server stopped")
}
