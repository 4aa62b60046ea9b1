package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/infra/resilience"
	"github.com/boddenberg/go-entulho/internal/infra/webhook"

	"go.uber.org/zap"
)

var testCfg = resilience.Config{MaxRetries: 2, InitialBackoff: 5 * time.Millisecond}

func sampleRecord() domain.ClientRecord {
	return domain.ClientRecord{
		NIF:        "123-456-789",
		Nome:       "Obras Silva",
		Numero:     "912-345-678",
		Valor:      "100",
		TaxaIVA:    domain.VATNormal,
		ValorIVA:   "123,00",
		ValorTotal: "123,00",
	}
}

func TestNotify_PostsRecordJSON(t *testing.T) {
	var got domain.ClientRecord
	var deliveryID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		deliveryID = r.Header.Get("X-Delivery-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := webhook.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("t"), testCfg)
	if err := c.Notify(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != sampleRecord() {
		t.Errorf("webhook received %+v", got)
	}
	if deliveryID == "" {
		t.Error("expected X-Delivery-Id header")
	}
}

func TestNotify_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := webhook.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("t"), testCfg)
	if err := c.Notify(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestNotify_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := webhook.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("t"), testCfg)
	err := c.Notify(context.Background(), sampleRecord())

	var notifierErr *domain.ErrNotifier
	if !errors.As(err, &notifierErr) {
		t.Fatalf("expected ErrNotifier, got %v", err)
	}
	if notifierErr.Status != http.StatusGone {
		t.Errorf("expected status 410, got %d", notifierErr.Status)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

type stubNotifier struct {
	err   error
	calls int32
}

func (s *stubNotifier) Notify(_ context.Context, _ domain.ClientRecord) error {
	atomic.AddInt32(&s.calls, 1)
	return s.err
}

func TestDispatcher_CountsOutcomes(t *testing.T) {
	metrics := observability.NewMetrics()

	ok := webhook.NewDispatcher(&stubNotifier{}, 2, time.Second, metrics, zap.NewNop())
	ok.Dispatch(sampleRecord())
	ok.Dispatch(sampleRecord())
	ok.Wait()

	failing := webhook.NewDispatcher(&stubNotifier{err: &domain.ErrNotifier{Status: 500}}, 2, time.Second, metrics, zap.NewNop())
	failing.Dispatch(sampleRecord())
	failing.Wait()

	if got := metrics.NotifierCount("delivered"); got != 2 {
		t.Errorf("expected 2 delivered, got %d", got)
	}
	if got := metrics.NotifierCount("failed"); got != 1 {
		t.Errorf("expected 1 failed, got %d", got)
	}
}

func TestNotify_OpenCircuitStopsDeliveries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := webhook.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("t"), testCfg)
	for i := 0; i < 5; i++ {
		_ = c.Notify(context.Background(), sampleRecord())
	}

	err := c.Notify(context.Background(), sampleRecord())
	var notifierErr *domain.ErrNotifier
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &notifierErr) || !errors.As(err, &open) {
		t.Fatalf("expected ErrNotifier wrapping ErrCircuitOpen, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 5 {
		t.Errorf("expected the open circuit to skip the request, got %d calls", n)
	}
}
