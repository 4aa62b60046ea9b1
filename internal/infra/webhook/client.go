// Package webhook delivers submitted client records to an external
// automation endpoint. Delivery is best effort: failures are reported to the
// caller, never to the record store.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("webhook")

// Client POSTs records to the automation webhook.
type Client struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates a new webhook Client.
func NewClient(httpClient *http.Client, url string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		url:        url,
		cb:         cb,
		cfg:        cfg,
	}
}

// Notify sends the full record as JSON. Network errors and 5xx responses are
// retried with backoff; 4xx responses are not.
func (c *Client) Notify(ctx context.Context, rec domain.ClientRecord) error {
	ctx, span := tracer.Start(ctx, "webhook.Notify")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", rec.NIF))

	body, err := json.Marshal(rec)
	if err != nil {
		return &domain.ErrNotifier{Err: err}
	}
	deliveryID := uuid.New().String()

	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.post(ctx, deliveryID, body)
		})
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrNotifier{Err: &domain.ErrCircuitOpen{Service: "webhook"}}
	}
	var notifierErr *domain.ErrNotifier
	if errors.As(err, &notifierErr) {
		return notifierErr
	}
	return &domain.ErrNotifier{Err: err}
}

func (c *Client) post(ctx context.Context, deliveryID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", deliveryID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return &domain.ErrNotifier{Status: resp.StatusCode, Err: fmt.Errorf("webhook returned status %d", resp.StatusCode)}
	default:
		return resilience.Permanent(&domain.ErrNotifier{Status: resp.StatusCode, Err: fmt.Errorf("webhook returned status %d", resp.StatusCode)})
	}
}
