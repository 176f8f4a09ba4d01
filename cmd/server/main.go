package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/handler"
	"github.com/yourorg/orderdesk/internal/infrastructure/logger"
	"github.com/yourorg/orderdesk/internal/infrastructure/redis"
	"github.com/yourorg/orderdesk/internal/observability/metrics"
	"github.com/yourorg/orderdesk/internal/observability/tracing"
	"github.com/yourorg/orderdesk/internal/repository"
	"github.com/yourorg/orderdesk/internal/security/audit"
	"github.com/yourorg/orderdesk/internal/security/middleware"
	"github.com/yourorg/orderdesk/internal/security/ratelimit"
	"github.com/yourorg/orderdesk/internal/worker"
	"github.com/yourorg/orderdesk/pkg/config"
	"github.com/yourorg/orderdesk/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting orderdesk console",
		slog.String("environment", cfg.Environment),
		slog.String("backend", cfg.BackendURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "orderdesk", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	checks := map[string]handler.Pinger{"redis": nil, "database": nil}

	// 4. Token storage: Redis when configured, process memory otherwise
	var (
		newTokenStore func(sessionID string) domain.TokenStore
		pruners       []worker.Pruner
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		checks["redis"] = redisClient
		newTokenStore = func(id string) domain.TokenStore {
			return repository.NewRedisTokenStore(redisClient, id, cfg.TokenTTL, log)
		}
	} else {
		log.Warn("REDIS_URL not set: session tokens are kept in memory and lost on restart")
		tokens := repository.NewMemoryTokens()
		pruners = append(pruners, tokens)
		newTokenStore = func(id string) domain.TokenStore {
			return repository.NewMemoryTokenStore(tokens, id, cfg.TokenTTL)
		}
	}

	// 5. Audit trail, persisted when a database is configured
	var auditRepo domain.AuditRepository
	if cfg.Database.Enabled() {
		pool, err := database.Open(ctx, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		}, log)
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		repo := repository.NewPostgresAuditRepository(pool.DB(), log)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare audit schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		auditRepo = repo
		checks["database"] = pool
	}
	auditLogger := audit.NewLogger(log, auditRepo)

	// 6. Console sessions
	base := backend.NewClient(cfg.BackendURL, nil, backend.NewHTTPClient(), log)
	registry := app.NewRegistry(func(id string) *app.App {
		return app.New(id, base, newTokenStore(id), log)
	}, log)

	// 7. Routes
	mux := http.NewServeMux()
	handler.NewConsole(auditLogger, log).Register(mux)
	health := handler.NewHealthHandler(checks, log)
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("GET /readyz", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> sanitize -> session -> rate
	// limit -> content type -> tracing -> metrics -> routes
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	rootHandler := middleware.Chain(
		otelhttp.NewHandler(metrics.HTTPMetricsMiddleware(mux), "orderdesk"),
		middleware.RequestID(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizeInputs(log),
		middleware.Session(registry, cfg.CookieSecure),
		middleware.RateLimit(rateLimiter, cfg.LoginPerMinute, log),
		middleware.RequireContentType(log),
	)

	// 8. Start session sweeper in background
	sweeper := worker.NewSessionSweeper(registry, cfg.SessionIdle, cfg.SweepInterval, log, pruners...)
	go sweeper.Start(ctx)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Int("login_rate_limit", cfg.LoginPerMinute),
		slog.Bool("audit_persistent", auditLogger.Persistent()),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop session sweeper
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
