package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fcdex/internal/config"
	"github.com/kailas-cloud/fcdex/internal/db"
	dbBadger "github.com/kailas-cloud/fcdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/fcdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/fcdex/internal/logger"
	"github.com/kailas-cloud/fcdex/internal/metrics"
	"github.com/kailas-cloud/fcdex/internal/repository/fcstore"
	"github.com/kailas-cloud/fcdex/internal/repository/labelstore"
	chiTransport "github.com/kailas-cloud/fcdex/internal/transport/chi"
	fcsuc "github.com/kailas-cloud/fcdex/internal/usecase/fcs"
	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
	healthuc "github.com/kailas-cloud/fcdex/internal/usecase/health"
	labelsuc "github.com/kailas-cloud/fcdex/internal/usecase/labels"
	searchuc "github.com/kailas-cloud/fcdex/internal/usecase/search"
	"github.com/kailas-cloud/fcdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fcdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis", "valkey":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
	case "badger":
		store, err = dbBadger.NewStore(dbBadger.Config{
			Path:   cfg.Database.Path,
			Logger: logger,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Repositories
	fcRepo := fcstore.New(store, cfg.Storage.KeyPrefix)
	labelRepo := labelstore.New(store, cfg.Storage.KeyPrefix)

	// Filter registry — composition root wires the store-backed filters.
	filterReg := filters.Registry{
		"already_labeled": filters.AlreadyLabeled(labelRepo),
		"nilsimsa_near_duplicate": filters.NearDuplicate(
			fcRepo, labelRepo,
			cfg.Search.NilsimsaThreshold,
			metrics.NearDuplicatesRejectedTotal,
		),
	}

	// Engine registry
	engineReg := searchuc.Registry{
		"index_scan": func() searchuc.Engine { return searchuc.NewIndexScan(fcRepo) },
		"random":     func() searchuc.Engine { return searchuc.NewRandom(fcRepo, nil) },
	}

	// Use case services
	fcSvc := fcsuc.New(fcRepo).WithRandomCutoff(cfg.Search.RandomScanCutoff)
	searchSvc := searchuc.New(engineReg, filterReg).
		WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	labelSvc := labelsuc.New(labelRepo, labelsuc.HookRegistry{
		"log": labelsuc.LogHook(logger),
	})
	healthSvc := healthuc.New(map[string]healthuc.Pinger{"database": store})

	// Create chi server
	server := chiTransport.NewServer(fcSvc, searchSvc, labelSvc, healthSvc, logger).
		WithPagination(cfg.Search.DefaultPerPage, cfg.Search.MaxPerPage)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
