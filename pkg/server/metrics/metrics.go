// Package metrics holds the Prometheus collectors of the data-schema server.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Conversion results recorded by RecordsConvertedTotal
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics owns a private registry so that servers built in tests don't collide
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request rate by route and status class
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency by route
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight
	HTTPRequestsInFlight prometheus.Gauge

	// Records converted by schema and result
	RecordsConvertedTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with a new registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "data_schema_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "data_schema_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "data_schema_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
		RecordsConvertedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "data_schema_records_converted_total",
				Help: "Total number of records converted",
			},
			[]string{"schema", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecordsConvertedTotal,
	)
	return m
}

// Registry exposes the registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordConversion counts one converted record
func (m *Metrics) RecordConversion(schema string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.RecordsConvertedTotal.WithLabelValues(schema, result).Inc()
}

// Middleware records request counts and latencies by route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeTemplate(r)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, statusClass(recorder.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
