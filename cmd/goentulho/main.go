package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/boddenberg/go-entulho/internal/config"
	"github.com/boddenberg/go-entulho/internal/handler"
	"github.com/boddenberg/go-entulho/internal/infra/cache"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/infra/resilience"
	"github.com/boddenberg/go-entulho/internal/infra/slot"
	"github.com/boddenberg/go-entulho/internal/infra/webhook"
	"github.com/boddenberg/go-entulho/internal/port"
	"github.com/boddenberg/go-entulho/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "ignoring unreadable .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.String("storage_slot", cfg.StorageSlot),
		zap.Bool("webhook_enabled", cfg.WebhookURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("highlight_ttl", cfg.HighlightTTL),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "goentulho")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	slots, closeSlots, err := openSlots(cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer closeSlots.Close()

	store := service.NewClientStore(slots, cfg.StorageSlot, metrics, logger)
	if err := store.Load(context.Background()); err != nil {
		// Not fatal: the store starts empty and the list view shows the warning.
		logger.Warn("starting with an empty client list", zap.Error(err))
	}

	// --- Cache ---
	highlights := cache.New[string](cfg.HighlightTTL)
	defer highlights.Close()

	// --- Webhook ---
	var dispatcher *webhook.Dispatcher
	var notifier port.Dispatcher
	if cfg.WebhookURL != "" {
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		client := webhook.NewClient(httpClient, cfg.WebhookURL, resilience.NewCircuitBreaker("webhook"), resilienceCfg)
		// each delivery may spend every retry plus backoff before giving up
		deliveryTimeout := time.Duration(cfg.MaxRetries+1) * (cfg.HTTPTimeout + cfg.InitialBackoff)
		dispatcher = webhook.NewDispatcher(client, cfg.MaxConcurrency, deliveryTimeout, metrics, logger)
		notifier = dispatcher
		logger.Info("webhook notifier enabled")
	} else {
		logger.Info("webhook notifier disabled (WEBHOOK_URL not set)")
	}

	// --- Services ---
	query := service.NewQueryService(store, highlights, metrics, logger)
	lifecycle := service.NewLifecycle(store, notifier, logger)

	// --- Router ---
	router := handler.NewRouter(store, query, lifecycle, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Run until signalled ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("server stopped")
}

// openSlots builds the configured slot backend. The returned closer releases
// the sqlite handle; it is a no-op for the file backend.
func openSlots(cfg *config.Config) (port.SlotStore, io.Closer, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		s, err := slot.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		s, err := slot.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
