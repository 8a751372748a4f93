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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/cache"
	"github.com/civicscope/transearch/internal/config"
	dbRedis "github.com/civicscope/transearch/internal/db/redis"
	logpkg "github.com/civicscope/transearch/internal/logger"
	"github.com/civicscope/transearch/internal/metrics"
	"github.com/civicscope/transearch/internal/repository/pagecache"
	"github.com/civicscope/transearch/internal/transport/httpapi"
	"github.com/civicscope/transearch/internal/transport/restapi"
	interpretuc "github.com/civicscope/transearch/internal/usecase/interpret"
	searchuc "github.com/civicscope/transearch/internal/usecase/search"
	"github.com/civicscope/transearch/internal/version"
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

	logger.Info("Starting transearch gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("relational_url", cfg.Backends.Relational.BaseURL),
		zap.String("document_url", cfg.Backends.Document.BaseURL),
	)

	// Backend clients
	relational, err := restapi.NewRelationalClient(restapi.Config{
		BaseURL:           cfg.Backends.Relational.BaseURL,
		RequestsPerSecond: cfg.Backends.Relational.RequestsPerSecond,
		Burst:             cfg.Backends.Relational.Burst,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("Failed to create relational client", zap.Error(err))
	}
	document, err := restapi.NewDocumentClient(restapi.Config{
		BaseURL:           cfg.Backends.Document.BaseURL,
		RequestsPerSecond: cfg.Backends.Document.RequestsPerSecond,
		Burst:             cfg.Backends.Document.Burst,
		Logger:            logger,
	}, cfg.Backends.Document.Index)
	if err != nil {
		logger.Fatal("Failed to create document client", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	searchMetrics := metrics.NewSearch()
	searchMetrics.Register(prometheus.DefaultRegisterer)
	metrics.RegisterHTTPMetrics()

	// In-process response cache
	responseCache := cache.New(
		cache.WithPolicies(policiesFromConfig(cfg.Cache)),
		cache.WithLogger(logger),
		cache.WithObserver(searchMetrics.ObserveCache),
	)
	responseCache.StartJanitor(time.Duration(cfg.Cache.JanitorSec) * time.Second)
	defer responseCache.Close()

	searchSvc := searchuc.New(relational, document, relational, relational, responseCache, logger).
		WithMetrics(searchMetrics)

	// Optional shared page cache tier
	var storePinger httpapi.Pinger
	if cfg.SharedCacheEnabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to shared page cache", zap.Strings("addrs", cfg.Redis.Addrs))

		searchSvc.WithPageCache(pagecache.New(store, cfg.PageTTL(), logger))
		storePinger = store
	}

	server := httpapi.NewServer(searchSvc, interpretuc.New(), storePinger, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func policiesFromConfig(c config.CacheConfig) map[cache.Category]cache.Policy {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	p := cache.DefaultPolicies()
	p[cache.CategorySearch] = cache.Policy{
		Fresh:   sec(c.SearchFreshSec),
		Evict:   sec(c.SearchEvictSec),
		Retries: p[cache.CategorySearch].Retries,
	}
	p[cache.CategorySuggest] = cache.Policy{
		Fresh:   sec(c.SuggestFreshSec),
		Evict:   sec(c.SuggestEvictSec),
		Retries: p[cache.CategorySuggest].Retries,
	}
	p[cache.CategorySimilar] = cache.Policy{
		Fresh:   sec(c.SimilarFreshSec),
		Evict:   sec(c.SimilarEvictSec),
		Retries: p[cache.CategorySimilar].Retries,
	}
	return p
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
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
