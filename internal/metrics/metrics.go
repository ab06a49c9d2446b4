// Package metrics exposes store, reminder and HTTP activity to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evcal/internal/model"
)

const namespace = "evcal"

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	reg *prometheus.Registry

	mutations     *prometheus.CounterVec
	errors        *prometheus.CounterVec
	events        prometheus.Gauge
	days          prometheus.Gauge
	notifications *prometheus.CounterVec
	unread        prometheus.Gauge
	scanDur       prometheus.Summary
	lastScanTS    prometheus.Gauge
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Committed store mutations by kind",
	}, []string{"kind"})
	m.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Rejected store operations by operation and error class",
	}, []string{"op", "class"})
	m.events = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "events",
		Help:      "Events currently stored",
	})
	m.days = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "days",
		Help:      "Date keys currently stored",
	})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications pushed by type",
	}, []string{"type"})
	m.unread = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_unread",
		Help:      "Unread notifications in the queue",
	})
	m.scanDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: "reminder",
		Name:      "scan_duration_seconds",
		Help:      "Time spent in one reminder scan",
	})
	m.lastScanTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "reminder",
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix timestamp of the last reminder scan",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code",
	}, []string{"method", "code"})

	m.reg.MustRegister(
		m.mutations, m.errors, m.events, m.days,
		m.notifications, m.unread, m.scanDur, m.lastScanTS, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Instrument counts requests served by next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
}

func (m *Metrics) Mutation(kind string) {
	m.mutations.WithLabelValues(kind).Inc()
}

// StoreSize records the current document size.
func (m *Metrics) StoreSize(days, events int) {
	m.days.Set(float64(days))
	m.events.Set(float64(events))
}

// StoreError classifies err by the model error taxonomy.
func (m *Metrics) StoreError(op string, err error) {
	if err == nil {
		return
	}
	m.errors.WithLabelValues(op, Class(err)).Inc()
}

func (m *Metrics) Notification(typ model.NotificationType) {
	m.notifications.WithLabelValues(string(typ)).Inc()
}

func (m *Metrics) Unread(n int) {
	m.unread.Set(float64(n))
}

// Scan records one reminder scan that started at start.
func (m *Metrics) Scan(start time.Time) {
	m.scanDur.Observe(time.Since(start).Seconds())
	m.lastScanTS.Set(float64(time.Now().Unix()))
}

// Class names the error class used as a metric label.
func Class(err error) string {
	var ve *model.ValidationError
	var nf *model.NotFoundError
	var pe *model.PersistenceError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &pe):
		return "persistence"
	default:
		return "other"
	}
}
