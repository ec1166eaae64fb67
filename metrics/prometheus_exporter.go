package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusConfig configures the Prometheus exporter.
type PrometheusConfig struct {
	// Namespace is prepended to all metric names
	// (e.g. "feedoracle" produces "feedoracle_feeds_paused").
	Namespace string
	// EnableRuntime adds Go runtime and process collectors.
	EnableRuntime bool
	// Path is the HTTP path to serve metrics on (default "/metrics").
	Path string
}

// DefaultPrometheusConfig returns a config with sensible defaults.
func DefaultPrometheusConfig() PrometheusConfig {
	return PrometheusConfig{
		Namespace:     "feedoracle",
		EnableRuntime: true,
		Path:          "/metrics",
	}
}

// PrometheusExporter owns a private registry and serves it over HTTP.
type PrometheusExporter struct {
	config   PrometheusConfig
	registry *prometheus.Registry
	oracle   *Oracle
}

// NewPrometheusExporter creates the registry and the oracle instruments.
func NewPrometheusExporter(config PrometheusConfig) *PrometheusExporter {
	if config.Path == "" {
		config.Path = "/metrics"
	}
	reg := prometheus.NewRegistry()
	if config.EnableRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &PrometheusExporter{
		config:   config,
		registry: reg,
		oracle:   NewOracle(config.Namespace, reg),
	}
}

// Oracle returns the registered instruments.
func (pe *PrometheusExporter) Oracle() *Oracle { return pe.oracle }

// Registerer exposes the registry for additional collectors.
func (pe *PrometheusExporter) Registerer() prometheus.Registerer { return pe.registry }

// Gatherer exposes the registry for scraping in-process.
func (pe *PrometheusExporter) Gatherer() prometheus.Gatherer { return pe.registry }

// Path returns the configured HTTP path.
func (pe *PrometheusExporter) Path() string { return pe.config.Path }

// Handler returns the scrape handler.
func (pe *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(pe.registry, promhttp.HandlerOpts{})
}
