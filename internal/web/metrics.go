package web

import (
	"net/http"
	"time"

	"github.com/buemura/threatscore/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	// OverallPercent is the overall score of the latest successful run per platform.
	OverallPercent *prometheus.GaugeVec
	// Computations counts score runs by platform and outcome.
	Computations *prometheus.CounterVec
	// LoadSeconds observes threat model load latency.
	LoadSeconds *prometheus.HistogramVec
}

// NewMetrics registers the score collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OverallPercent: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threatscore_overall_percent",
				Help: "Overall security score of the latest run by platform",
			},
			[]string{"platform"},
		),
		Computations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threatscore_computations_total",
				Help: "Score computations by platform and status",
			},
			[]string{"platform", "status"},
		),
		LoadSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "threatscore_load_seconds",
				Help:    "Threat model load time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),
	}
}

// Observe records the outcome of one run.
func (m *Metrics) Observe(platform types.Platform, report *types.PlatformReport, loadTime time.Duration, err error) {
	p := string(platform)
	m.LoadSeconds.WithLabelValues(p).Observe(loadTime.Seconds())

	if err != nil || report == nil || report.Result == nil {
		m.Computations.WithLabelValues(p, "error").Inc()
		return
	}
	m.Computations.WithLabelValues(p, "ok").Inc()
	m.OverallPercent.WithLabelValues(p).Set(float64(report.Result.Overall))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
