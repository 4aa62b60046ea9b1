package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/infra/resilience"
	"github.com/boddenberg/go-entulho/internal/port"

	"go.uber.org/zap"
)

// Dispatcher runs deliveries in the background. Each delivery gets its own
// timeout, detached from the request that triggered it, and at most
// MaxConcurrency deliveries run at once.
type Dispatcher struct {
	notifier port.Notifier
	bulkhead *resilience.Bulkhead
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher around a Notifier.
func NewDispatcher(notifier port.Notifier, maxConcurrency int, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		bulkhead: resilience.NewBulkhead(maxConcurrency),
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Dispatch queues a delivery and returns immediately.
func (d *Dispatcher) Dispatch(rec domain.ClientRecord) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.bulkhead.Acquire(ctx); err != nil {
			d.fail(rec, err)
			return
		}
		defer d.bulkhead.Release()

		if err := d.notifier.Notify(ctx, rec); err != nil {
			d.fail(rec, err)
			return
		}
		d.metrics.IncrNotifier("delivered")
		d.logger.Debug("webhook delivered", zap.String("nif", rec.NIF))
	}()
}

func (d *Dispatcher) fail(rec domain.ClientRecord, err error) {
	d.metrics.IncrNotifier("failed")
	d.logger.Error("webhook delivery failed",
		zap.String("nif", rec.NIF),
		zap.Error(err),
	)
}

// Wait blocks until every dispatched delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
