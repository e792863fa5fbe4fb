// Package metrics exposes Prometheus instrumentation for the sync daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles the daemon's metric collectors around one registry.
type Set struct {
	registry *prometheus.Registry

	JobsTotal          *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyStreamedBytes prometheus.Counter
}

// NewSet builds a metric set backed by a fresh registry.
func NewSet() *Set {
	registry := prometheus.NewRegistry()

	s := &Set{
		registry: registry,
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nucliasync",
			Name:      "jobs_total",
			Help:      "Processed jobs by hook and outcome.",
		}, []string{"hook", "result"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nucliasync",
			Name:      "job_duration_seconds",
			Help:      "Job handler execution time by hook.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"hook"}),
		ProxyRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nucliasync",
			Name:      "proxy_requests_total",
			Help:      "Proxied widget requests by upstream status class.",
		}, []string{"status"}),
		ProxyStreamedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nucliasync",
			Name:      "proxy_streamed_bytes_total",
			Help:      "Bytes relayed through streaming proxy responses.",
		}),
	}

	registry.MustRegister(
		s.JobsTotal,
		s.JobDuration,
		s.ProxyRequestsTotal,
		s.ProxyStreamedBytes,
	)
	return s
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveJob records one finished job.
func (s *Set) ObserveJob(hook, result string, seconds float64) {
	if s == nil {
		return
	}
	s.JobsTotal.WithLabelValues(hook, result).Inc()
	s.JobDuration.WithLabelValues(hook).Observe(seconds)
}

// ObserveProxy records one proxied request and the bytes it relayed.
func (s *Set) ObserveProxy(status string, bytes int64) {
	if s == nil {
		return
	}
	s.ProxyRequestsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		s.ProxyStreamedBytes.Add(float64(bytes))
	}
}
