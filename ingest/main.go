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

	"github.com/lineagelab/olgen/internal/lineagestore"
	"github.com/lineagelab/olgen/internal/platform/auth"
	"github.com/lineagelab/olgen/internal/platform/env"
	"github.com/lineagelab/olgen/internal/platform/httpserver"
	"github.com/lineagelab/olgen/internal/platform/metrics"
	"github.com/lineagelab/olgen/internal/platform/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("OLGEN_INGEST_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("OLGEN_INGEST_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := lineagestore.EnsureSchema(ctx, db); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	authenticator, err := auth.New(ctx, authCfg)
	if err != nil {
		logger.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	ingestMetrics := metrics.NewIngest()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("ingest"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"ingest",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
		),
	)
	mux.Handle("GET /metrics", ingestMetrics.Handler())

	api := newIngestAPI(logger, db, ingestMetrics)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		SkipPrefixes:  []string{"/healthz", "/readyz", "/metrics"},
		OnDeny: func(*http.Request) {
			ingestMetrics.EventsRejected.WithLabelValues("unauthorized").Inc()
		},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "ingest",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "ingest", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
