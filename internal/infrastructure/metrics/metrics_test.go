package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ usecase.RateMetrics = (*RateMetrics)(nil)

func TestRateMetrics_Records(t *testing.T) {
	m := NewRateMetrics(prometheus.NewRegistry())

	m.RecordAggregation(120*time.Millisecond, true)
	m.RecordSourceResult(domain.SourceCrypto, nil)
	m.RecordSourceResult(domain.SourceFiatPrimary, errors.New("down"))
	m.RecordDefaultUsed(domain.NewPair(domain.BTC, domain.USD))
	m.RecordResolutionGap(domain.NewPair(domain.EUR, domain.GBP))
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordRefresh(nil)
	m.RecordHTTPRequest("/rates", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AggregationsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequestsTotal.WithLabelValues("crypto", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequestsTotal.WithLabelValues("fiat_primary", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DefaultsUsedTotal.WithLabelValues("BTC-USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionGapsTotal.WithLabelValues("EUR-GBP")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRefreshTotal.WithLabelValues("ok")))
	assert.Greater(t, testutil.ToFloat64(m.LastRefreshSeconds), 0.0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/rates", "200")))
}

func TestNewRateMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRateMetrics(prometheus.NewRegistry())
		NewRateMetrics(prometheus.NewRegistry())
	})
}
