// Package metrics maintains the prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics represents the set of collectors exposed on the debug mux.
type Metrics struct {
	Registry *prometheus.Registry
	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Panics   prometheus.Counter
	Latency  *prometheus.HistogramVec
	Events   *prometheus.CounterVec
	Streams  prometheus.Gauge
}

// New constructs the collectors and registers them with a new registry
// along with the go runtime and process collectors.
func New(namespace string) *Metrics {
	m := Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of requests handled by route and status.",
		}, []string{"method", "route", "status"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Number of requests that returned an error by route.",
		}, []string{"method", "route"}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Number of recovered handler panics.",
		}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Number of ledger, wallet, nft and auction events published.",
		}, []string{"type"}),
		Streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_streams",
			Help:      "Number of connected event stream clients.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.Errors,
		m.Panics,
		m.Latency,
		m.Events,
		m.Streams,
	)

	return &m
}
