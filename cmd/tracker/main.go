package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davigor/finance-tracker-go/internal/config"
	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/handler"
	"github.com/davigor/finance-tracker-go/internal/infra/cache"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/infra/resilience"
	"github.com/davigor/finance-tracker-go/internal/infra/supabase"
	"github.com/davigor/finance-tracker-go/internal/port"
	"github.com/davigor/finance-tracker-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("token_ttl", cfg.TokenTTL),
		zap.Bool("dev_auth", cfg.DevAuth),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finance-tracker")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	dashboardCache := cache.New[*domain.DashboardSummary](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	var identity port.IdentityProvider = supabaseClient
	if cfg.DevAuth {
		logger.Warn("dev auth enabled: credentials verified against local_credentials")
		identity = supabase.NewLocalIdentity(supabaseClient)
	}

	// --- Services ---
	authSvc := service.NewAuthService(identity, supabaseClient, cfg.JWTSecret, cfg.TokenTTL, logger)
	svcs := handler.Services{
		Auth:         authSvc,
		Transactions: service.NewTransactionService(supabaseClient, dashboardCache, metrics, logger),
		Loans:        service.NewLoanService(supabaseClient, dashboardCache, metrics, logger),
		Contacts:     service.NewContactService(supabaseClient, dashboardCache, metrics, logger),
		Dashboard:    service.NewDashboardService(supabaseClient, dashboardCache, metrics, logger),
		Advisor:      service.NewAdvisorService(supabaseClient, metrics, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger, cfg.AllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
