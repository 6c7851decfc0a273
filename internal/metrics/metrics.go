// Package metrics exposes Prometheus collectors for ingestion and live updates.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/racetag/racetag/internal/telemetry"
)

const namespace = "racetag"

// Metrics owns a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	batches          prometheus.Counter
	items            *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	published        *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Ingestion batches received.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Ingestion batch items by outcome and code.",
		}, []string{"outcome", "code"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Time to apply and publish one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "notifications_published_total",
			Help:      "Notifications published to the hub by type.",
		}, []string{"type"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "delivery_failures_total",
			Help:      "Notifications not delivered intact to a subscriber.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.batches,
		m.items,
		m.batchDuration,
		m.published,
		m.deliveryFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterGauge exposes fn as a gauge sampled at scrape time.
func (m *Metrics) RegisterGauge(subsystem, name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

// ObserveBatch records one processed batch.
func (m *Metrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.batchDuration.Observe(d.Seconds())
}

// ObserveItem records one batch item.
func (m *Metrics) ObserveItem(outcome, code string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(outcome, code).Inc()
}

// ObservePublished records one published notification.
func (m *Metrics) ObservePublished(kind string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(kind).Inc()
}

// ObserveDeliveryFailure is installed as the hub failure hook.
func (m *Metrics) ObserveDeliveryFailure(f telemetry.DeliveryFailure) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(failureReason(f.Err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, telemetry.ErrSubscriberOverflow):
		return "overflow"
	case errors.Is(err, telemetry.ErrSubscriptionClosed):
		return "closed"
	default:
		return "other"
	}
}
