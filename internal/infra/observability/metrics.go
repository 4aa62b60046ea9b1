package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for GO-Entulho.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	mutations          *prometheus.CounterVec
	persistDuration    prometheus.Histogram
	persistErrors      prometheus.Counter
	notifierDeliveries *prometheus.CounterVec
	searches           *prometheus.CounterVec
	clients            prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goentulho_mutations_total",
				Help: "Record store mutations by operation.",
			},
			[]string{"op"},
		),
		persistDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "goentulho_persist_duration_seconds",
				Help:    "Time spent writing the client snapshot.",
				Buckets: prometheus.DefBuckets,
			},
		),
		persistErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "goentulho_persist_errors_total",
				Help: "Snapshot reads or writes that failed.",
			},
		),
		notifierDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goentulho_notifier_deliveries_total",
				Help: "Webhook deliveries by outcome.",
			},
			[]string{"status"},
		),
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goentulho_searches_total",
				Help: "Phone searches by result.",
			},
			[]string{"result"},
		),
		clients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "goentulho_clients",
				Help: "Client records currently stored.",
			},
		),
	}
}

// IncrMutation counts a store mutation (create, update, delete, toggle).
func (m *Metrics) IncrMutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// RecordPersist records how long a snapshot write took.
func (m *Metrics) RecordPersist(d time.Duration) {
	m.persistDuration.Observe(d.Seconds())
}

// IncrPersistError counts a failed snapshot read or write.
func (m *Metrics) IncrPersistError() {
	m.persistErrors.Inc()
}

// IncrNotifier counts a webhook delivery outcome ("delivered" or "failed").
func (m *Metrics) IncrNotifier(status string) {
	m.notifierDeliveries.WithLabelValues(status).Inc()
}

// IncrSearch counts a phone search outcome ("found" or "not_found").
func (m *Metrics) IncrSearch(result string) {
	m.searches.WithLabelValues(result).Inc()
}

// SetClients publishes the current collection size.
func (m *Metrics) SetClients(n int) {
	m.clients.Set(float64(n))
}

// NotifierCount returns the cumulative deliveries with the given outcome.
func (m *Metrics) NotifierCount(status string) int64 {
	return int64(counterValue(m.notifierDeliveries.WithLabelValues(status)))
}

// PersistErrorCount returns the cumulative snapshot failures.
func (m *Metrics) PersistErrorCount() int64 {
	return int64(counterValue(m.persistErrors))
}

// MutationCount returns the cumulative mutations for an operation.
func (m *Metrics) MutationCount(op string) int64 {
	return int64(counterValue(m.mutations.WithLabelValues(op)))
}

// counterValue extracts the current float64 value of a counter.
func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
