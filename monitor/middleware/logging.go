package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    monitor.Service
}

func Logging(logger *slog.Logger, svc monitor.Service) monitor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Run(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Monitor loop exited with failure", args...)

			return
		}
		lm.logger.Info("Monitor loop exited", args...)
	}(time.Now())

	return lm.svc.Run(ctx)
}

func (lm *loggingMiddleware) RunOnce(ctx context.Context) (rec audit.CycleRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("cycle",
				slog.String("id", rec.ID),
				slog.String("severity", rec.Severity.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run once failed", args...)

			return
		}
		lm.logger.Info("Run once completed successfully", args...)
	}(time.Now())

	return lm.svc.RunOnce(ctx)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (rec audit.CycleRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Status failed", args...)

			return
		}
		lm.logger.Info("Status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}
