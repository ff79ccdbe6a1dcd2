package metrics

import (
	"strconv"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateMetrics holds every metric exported by the rates service
type RateMetrics struct {
	// Aggregation runs
	AggregationsTotal   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram

	// Upstream feeds
	SourceRequestsTotal *prometheus.CounterVec
	DefaultsUsedTotal   *prometheus.CounterVec

	// Resolver
	ResolutionGapsTotal *prometheus.CounterVec

	// Cache
	CacheLookupsTotal  *prometheus.CounterVec
	CacheRefreshTotal  *prometheus.CounterVec
	LastRefreshSeconds prometheus.Gauge

	// Transport
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRateMetrics registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewRateMetrics(reg prometheus.Registerer) *RateMetrics {
	f := promauto.With(reg)
	return &RateMetrics{
		AggregationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_aggregations_total",
				Help: "Number of completed rate aggregations",
			},
			[]string{"degraded"},
		),
		AggregationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rates_aggregation_duration_seconds",
				Help:    "Wall time of one aggregation run",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		SourceRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_source_requests_total",
				Help: "Upstream feed requests by outcome",
			},
			[]string{"source", "result"},
		),
		DefaultsUsedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_defaults_used_total",
				Help: "Pairs filled with a configured default",
			},
			[]string{"pair"},
		),

		ResolutionGapsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_resolution_gaps_total",
				Help: "Resolutions that fell back to the neutral rate of 1",
			},
			[]string{"pair"},
		),

		CacheLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_cache_lookups_total",
				Help: "Cache lookups by hit or miss",
			},
			[]string{"result"},
		),
		CacheRefreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_cache_refresh_total",
				Help: "Cache refreshes by outcome",
			},
			[]string{"result"},
		),
		LastRefreshSeconds: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rates_last_refresh_timestamp_seconds",
				Help: "Unix time of the last successful refresh",
			},
		),

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rates_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordAggregation records one finished aggregation
func (m *RateMetrics) RecordAggregation(duration time.Duration, degraded bool) {
	m.AggregationsTotal.WithLabelValues(strconv.FormatBool(degraded)).Inc()
	m.AggregationDuration.Observe(duration.Seconds())
}

// RecordSourceResult records the outcome of one upstream call
func (m *RateMetrics) RecordSourceResult(source domain.RateSource, err error) {
	m.SourceRequestsTotal.WithLabelValues(string(source), outcome(err)).Inc()
}

func (m *RateMetrics) RecordDefaultUsed(pair domain.Pair) {
	m.DefaultsUsedTotal.WithLabelValues(pair.String()).Inc()
}

func (m *RateMetrics) RecordResolutionGap(pair domain.Pair) {
	m.ResolutionGapsTotal.WithLabelValues(pair.String()).Inc()
}

func (m *RateMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRefresh records a cache refresh and stamps the time of success
func (m *RateMetrics) RecordRefresh(err error) {
	m.CacheRefreshTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.LastRefreshSeconds.SetToCurrentTime()
	}
}

// RecordHTTPRequest records one served request
func (m *RateMetrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
