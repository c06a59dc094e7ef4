package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	be, err := backend.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.SessionMaxEntries, cfg.SessionTTL)
	janitorStop := make(chan struct{})
	go sessions.Janitor(cfg.CleanupInterval, janitorStop)

	srv, err := apphttp.NewServer(":"+cfg.Port, be, sessions)
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		close(janitorStop)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting finboard server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
