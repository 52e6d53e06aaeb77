package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
)

var _ monitor.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     monitor.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc monitor.Service) monitor.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Run(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "run").Add(1)
		mm.latency.With("method", "run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Run(ctx)
}

func (mm *metricsMiddleware) RunOnce(ctx context.Context) (audit.CycleRecord, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run-once").Add(1)
		mm.latency.With("method", "run-once").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunOnce(ctx)
}

func (mm *metricsMiddleware) Status(ctx context.Context) (audit.CycleRecord, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "status").Add(1)
		mm.latency.With("method", "status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Status(ctx)
}
