// Package telemetry instruments the exporter itself. The main /metrics body
// must stay byte-stable for downstream dashboards, so self-instrumentation
// lives on a separate registry served at /telemetry.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asset_monitoring"

// Telemetry holds the exporter's own operational metrics.
type Telemetry struct {
	registry *prometheus.Registry

	ScrapesTotal     *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New creates a Telemetry instance with all metrics registered on a private
// registry, alongside the standard Go and process collectors.
func New() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),

		ScrapesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "exporter",
				Name:      "scrapes_total",
				Help:      "Total number of /metrics scrapes by outcome",
			},
			[]string{"status"},
		),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "exporter",
				Name:      "upstream_requests_total",
				Help:      "Total number of outbound upstream request attempts",
			},
			[]string{"source", "outcome"},
		),

		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "exporter",
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of outbound upstream request attempts",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}

	t.registry.MustRegister(
		t.ScrapesTotal,
		t.UpstreamRequests,
		t.UpstreamDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return t
}

// Handler serves the telemetry registry in prometheus format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// ObserveScrape records the outcome of one /metrics scrape.
func (t *Telemetry) ObserveScrape(ok bool) {
	if t == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	t.ScrapesTotal.WithLabelValues(status).Inc()
}

// ObserveUpstream records one outbound request attempt.
func (t *Telemetry) ObserveUpstream(source, outcome string, seconds float64) {
	if t == nil {
		return
	}
	t.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	t.UpstreamDuration.WithLabelValues(source).Observe(seconds)
}
