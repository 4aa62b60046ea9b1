package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/go-entulho/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_CountersReadBack(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrNotifier("delivered")
	m.IncrNotifier("delivered")
	m.IncrNotifier("failed")
	m.IncrPersistError()
	m.IncrMutation("create")
	m.RecordPersist(5 * time.Millisecond)

	if got := m.NotifierCount("delivered"); got != 2 {
		t.Errorf("expected 2 delivered, got %d", got)
	}
	if got := m.NotifierCount("failed"); got != 1 {
		t.Errorf("expected 1 failed, got %d", got)
	}
	if got := m.PersistErrorCount(); got != 1 {
		t.Errorf("expected 1 persist error, got %d", got)
	}
	if got := m.MutationCount("create"); got != 1 {
		t.Errorf("expected 1 create, got %d", got)
	}
}

func TestNewMetrics_Twice(t *testing.T) {
	// private registries: no duplicate collector panic
	observability.NewMetrics()
	observability.NewMetrics()
}

func TestZapLoggerMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Get("/v1/clients/{nif}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/clients/123456789", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("expected warn for 404, got %s", entries[0].Level)
	}
	if route := entries[0].ContextMap()["route"]; route != "/v1/clients/{nif}" {
		t.Errorf("expected route pattern, got %v", route)
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer("", "goentulho-test")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}
