package metrics

import (
	"fxrates-adapter/internal/application"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ConversionsTotal  *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	RefreshRunsTotal  *prometheus.CounterVec
	ProviderHealthy   *prometheus.GaugeVec
}

var _ application.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		ConversionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_conversions_total",
				Help: "Currency conversions by outcome",
			},
			[]string{"outcome"},
		),

		CacheLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_rate_cache_lookups_total",
				Help: "Rate cache lookups by result",
			},
			[]string{"result"},
		),

		RefreshRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_refresh_runs_total",
				Help: "Cache refresh runs by outcome",
			},
			[]string{"outcome"},
		),

		ProviderHealthy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fx_provider_healthy",
				Help: "1 when the provider's last health check passed",
			},
			[]string{"provider"},
		),
	}
}

func (m *Metrics) ObserveConversion(outcome string) {
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCache(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	m.RefreshRunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetHealthy(provider string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.ProviderHealthy.WithLabelValues(provider).Set(v)
}
