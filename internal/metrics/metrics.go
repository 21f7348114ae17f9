package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fiscal/pkg/models"
)

// Metrics provides observability for decoding, the ledger and the HTTP API.
// Each instance owns its registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Decoded documents by family
	Decoded *prometheus.CounterVec

	// Decode failures by reason: malformed, unrecognized, missing_section, too_large, other
	Failures *prometheus.CounterVec

	// Duration of a successful decode
	DecodeLatency prometheus.Histogram

	// Documents held by the catalog
	CatalogDocuments prometheus.Gauge

	// Ledger status updates
	StatusUpdates prometheus.Counter

	// HTTP requests by route pattern, method and status code
	Requests *prometheus.CounterVec
}

// New creates a Metrics instance with all metrics registered on a private
// registry, together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Decoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscal_documents_decoded_total",
			Help: "Total documents decoded by family",
		}, []string{"family"}), // family: "nfe", "cte"

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscal_decode_failures_total",
			Help: "Total decode failures by reason",
		}, []string{"reason"}),

		DecodeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fiscal_decode_duration_seconds",
			Help:    "Duration of reading and decoding one document",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		CatalogDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fiscal_catalog_documents",
			Help: "Number of documents held by the catalog",
		}),

		StatusUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "fiscal_ledger_status_updates_total",
			Help: "Total ledger status updates",
		}),

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscal_http_requests_total",
			Help: "Total HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
	}
}

// ObserveDecoded records a successful decode.
func (m *Metrics) ObserveDecoded(family models.Family, elapsed time.Duration) {
	if m != nil {
		m.Decoded.WithLabelValues(string(family)).Inc()
		m.DecodeLatency.Observe(elapsed.Seconds())
	}
}

// ObserveFailed records a failed decode.
func (m *Metrics) ObserveFailed(reason string) {
	if m != nil {
		m.Failures.WithLabelValues(reason).Inc()
	}
}

// SetCatalogSize sets the catalog gauge.
func (m *Metrics) SetCatalogSize(n int) {
	if m != nil {
		m.CatalogDocuments.Set(float64(n))
	}
}

// IncrementStatusUpdates counts one ledger status update.
func (m *Metrics) IncrementStatusUpdates() {
	if m != nil {
		m.StatusUpdates.Inc()
	}
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int) {
	if m != nil {
		m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
