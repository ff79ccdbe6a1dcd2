package usecase

import (
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

// RateMetrics is the subset of the prometheus recorder the rate usecases use.
type RateMetrics interface {
	RecordAggregation(duration time.Duration, degraded bool)
	RecordSourceResult(source domain.RateSource, err error)
	RecordDefaultUsed(pair domain.Pair)
	RecordResolutionGap(pair domain.Pair)
	RecordCacheLookup(hit bool)
	RecordRefresh(err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordAggregation(time.Duration, bool) {}
func (noopMetrics) RecordSourceResult(domain.RateSource, error) {}
func (noopMetrics) RecordDefaultUsed(domain.Pair) {}
func (noopMetrics) RecordResolutionGap(domain.Pair) {}
func (noopMetrics) RecordCacheLookup(bool) {}
func (noopMetrics) RecordRefresh(error) {}

func metricsOrNoop(m RateMetrics) RateMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
