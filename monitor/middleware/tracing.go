package middleware

import (
	"context"

	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ monitor.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    monitor.Service
}

func Tracing(tracer trace.Tracer, svc monitor.Service) monitor.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Run(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "run")
	defer span.End()

	return tm.svc.Run(ctx)
}

func (tm *tracing) RunOnce(ctx context.Context) (audit.CycleRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "run-once")
	defer span.End()

	rec, err := tm.svc.RunOnce(ctx)
	span.SetAttributes(
		attribute.String("cycle_id", rec.ID),
		attribute.String("severity", rec.Severity.String()),
	)

	return rec, err
}

func (tm *tracing) Status(ctx context.Context) (audit.CycleRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "status")
	defer span.End()

	return tm.svc.Status(ctx)
}
