package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ericksa/reclaimdigest/internal/app"
	"github.com/ericksa/reclaimdigest/internal/audit"
	"github.com/ericksa/reclaimdigest/internal/config"
	"github.com/ericksa/reclaimdigest/pkg/mcp"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("DIGEST_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if _, err := cfg.Credential(); err != nil {
		logger.Warn("task endpoints will fail until a token is configured", "error", err)
	}

	composer, err := app.NewComposer(cfg, app.NewClient(cfg, logger), logger)
	if err != nil {
		logger.Error("failed to build composer", "error", err)
		os.Exit(1)
	}

	var auditor *audit.Auditor
	if cfg.Audit.Enabled {
		auditor, err = audit.Open(cfg.Audit.Path, logger)
		if err != nil {
			logger.Error("failed to open audit log", "error", err)
			os.Exit(1)
		}
		defer auditor.Close()
	}

	s := &server{
		cfg:    cfg,
		digest: composer,
		audit:  auditor,
		logger: logger,
		now:    time.Now,
	}
	if cfg.MCP.Enabled {
		s.mcp = mcp.NewHandler(cfg, composer, auditor, version, logger)
	}

	timeout := cfg.ServerTimeout()
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting reclaim digest gateway", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return
	}
	logger.Info("server stopped")
}
