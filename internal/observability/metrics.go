package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	eventsTotal       *prometheus.CounterVec
	itemFailures      *prometheus.CounterVec
	notificationsSent prometheus.Counter
	reportsTotal      *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpilot_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_webhook_events_total",
		Help: "Webhook deliveries processed by topic and outcome.",
	}, []string{"topic", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_item_failures_total",
		Help: "Per-item failures isolated inside reconciliation loops.",
	}, []string{"component"})
	notifications := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockpilot_restock_notifications_total",
		Help: "Restock notification emails successfully sent.",
	})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_lowstock_reports_total",
		Help: "Low-stock report outcomes (sent, suppressed, unchanged).",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, events, failures, notifications, reports)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		eventsTotal:       events,
		itemFailures:      failures,
		notificationsSent: notifications,
		reportsTotal:      reports,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveEvent counts one processed webhook delivery.
func (m *Metrics) ObserveEvent(topic, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(topic, outcome).Inc()
}

// ObserveItemFailure counts one isolated per-item failure.
func (m *Metrics) ObserveItemFailure(component string) {
	if m == nil {
		return
	}
	m.itemFailures.WithLabelValues(component).Inc()
}

// ObserveNotification counts one successful restock notification send.
func (m *Metrics) ObserveNotification() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

// ObserveReport counts one low-stock reconciliation outcome.
func (m *Metrics) ObserveReport(outcome string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(outcome).Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
