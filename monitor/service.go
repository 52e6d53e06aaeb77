package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/oom"
	"github.com/swipswaps/kde-memory-guardian-sub002/remediation"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

type service struct {
	sampler    metrics.Sampler
	probe      oom.Probe
	classifier *severity.Classifier
	dispatcher *remediation.Dispatcher
	lock       InstanceLock
	auditor    Recorder
	auditPath  string
	instance   string
	interval   time.Duration
	logger     *slog.Logger
}

func NewService(
	sampler metrics.Sampler,
	probe oom.Probe,
	classifier *severity.Classifier,
	dispatcher *remediation.Dispatcher,
	instanceLock InstanceLock,
	auditor Recorder,
	auditPath string,
	instance string,
	interval time.Duration,
	logger *slog.Logger,
) Service {
	return &service{
		sampler:    sampler,
		probe:      probe,
		classifier: classifier,
		dispatcher: dispatcher,
		lock:       instanceLock,
		auditor:    auditor,
		auditPath:  auditPath,
		instance:   instance,
		interval:   interval,
		logger:     logger,
	}
}

func (svc *service) Run(ctx context.Context) error {
	svc.logger.Info("monitoring started",
		slog.String("instance", svc.instance),
		slog.Duration("interval", svc.interval))

	// First cycle fires immediately; under real pressure a 30s wait
	// before the first sample is 30s too long.
	svc.tick(ctx)

	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			svc.logger.Info("monitoring stopped")

			return nil
		case <-ticker.C:
			svc.tick(ctx)
		}
	}
}

func (svc *service) tick(ctx context.Context) {
	// The in-flight cycle runs to completion even if shutdown arrives
	// mid-dispatch, so the lock is always released cleanly and no cycle
	// is left half-applied. Cancellation is observed at the loop select.
	if _, err := svc.RunOnce(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrCycleSkipped) {
		svc.logger.Error("cycle failed", slog.Any("error", err))
	}
}

func (svc *service) RunOnce(ctx context.Context) (audit.CycleRecord, error) {
	acquired, err := svc.lock.TryAcquire()
	if err != nil {
		return audit.CycleRecord{}, fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !acquired {
		svc.logger.Info("skipped: prior cycle still running")

		return audit.CycleRecord{}, ErrCycleSkipped
	}
	defer func() {
		if err := svc.lock.Release(); err != nil {
			svc.logger.Error("failed to release instance lock", slog.Any("error", err))
		}
	}()

	begin := time.Now()

	snap, err := svc.sampler.Sample(ctx)
	if err != nil {
		// Transient: this cycle is aborted, the loop continues next tick.
		return audit.CycleRecord{}, fmt.Errorf("sampling failed: %w", err)
	}

	activity := svc.probe.Probe(ctx)
	level := svc.classifier.Classify(snap, activity)
	outcomes := svc.dispatcher.Dispatch(ctx, level, snap)

	rec := audit.CycleRecord{
		ID:              uuid.NewString(),
		Instance:        svc.instance,
		Timestamp:       begin.UTC(),
		Snapshot:        snap,
		OomActivity:     activity,
		Severity:        level,
		Outcomes:        outcomes,
		CycleDurationMs: time.Since(begin).Milliseconds(),
	}

	// Observability degradation never blocks remediation: a failed audit
	// write is reported on the live stream and the cycle still succeeds.
	if err := svc.auditor.Record(ctx, rec); err != nil {
		svc.logger.Error("audit sink write failed", slog.Any("error", err))
	}

	return rec, nil
}

func (svc *service) Status(_ context.Context) (audit.CycleRecord, error) {
	return audit.ReadLast(svc.auditPath)
}
