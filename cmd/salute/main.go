package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/menezmethod/salute/internal/config"
	"github.com/menezmethod/salute/internal/logging"
	"github.com/menezmethod/salute/internal/observability"
	"github.com/menezmethod/salute/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional, env vars work without it)")
	flag.Parse()

	// Load configuration: defaults -> YAML file -> env vars.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	srv, store := server.New(cfg, logger)

	// Optional OpenTelemetry tracing: wrap the handler so all requests are traced.
	var tp *observability.TracerProvider
	if cfg.Observability.OTelEnabled {
		var errOTel error
		tp, errOTel = observability.NewTracerProvider(context.Background(), cfg.Observability.OTelEndpoint, cfg.Observability.OTelServiceName)
		if errOTel != nil {
			logger.Error("otel tracer provider failed", "err", errOTel)
			os.Exit(1)
		}
		srv.Handler = observability.HTTPHandler(srv.Handler, cfg.Observability.OTelServiceName)
		logger.Info("opentelemetry tracing enabled", "endpoint", cfg.Observability.OTelEndpoint)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if tp != nil {
		_ = tp.Shutdown(ctx)
	}
	store.Close()
	server.Shutdown(ctx, srv, logger)
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.Development() && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	return logging.NewLogger(os.Stdout, level, cfg.Log.Format, cfg.Log.CloudFormat)
}
