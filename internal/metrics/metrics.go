// Package metrics exposes Prometheus collectors for the HTTP API and the
// background jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	RemindersSent    prometheus.Counter
	SessionsActive   prometheus.GaugeFunc
	WebhookFailures  *prometheus.CounterVec
	WebhookDelivered *prometheus.CounterVec
}

// New registers collectors on a private registry. sessions, when set,
// reports the live session count.
func New(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brokerdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brokerdesk",
			Name:      "reminder_digests_sent_total",
			Help:      "Reminder digests delivered to advisors.",
		}),
		WebhookDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerdesk",
			Name:      "webhook_deliveries_total",
			Help:      "Webhook events delivered by event type.",
		}, []string{"type"}),
		WebhookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerdesk",
			Name:      "webhook_failures_total",
			Help:      "Failed webhook deliveries by event type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.requests, m.duration, m.RemindersSent, m.WebhookDelivered, m.WebhookFailures,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if sessions != nil {
		m.SessionsActive = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "brokerdesk",
			Name:      "sessions_active",
			Help:      "View-model sessions held in memory.",
		}, func() float64 { return float64(sessions()) })
		reg.MustRegister(m.SessionsActive)
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(route, req.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}
