package monitor

import (
	"context"
	"errors"

	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
)

// ErrCycleSkipped signals lock contention: a prior cycle (scheduled tick or
// operator-triggered run) is still in progress. It is a normal outcome, not
// a failure.
var ErrCycleSkipped = errors.New("cycle skipped: prior cycle still running")

// Service is the pressure control loop. The periodic monitor and the
// on-demand emergency path share the RunOnce pipeline, so escalation policy
// cannot drift between the two.
type Service interface {
	// Run executes cycles on the configured interval until ctx is
	// cancelled. An in-flight cycle is allowed to finish on shutdown.
	Run(ctx context.Context) error

	// RunOnce executes exactly one lock/sample/classify/dispatch/record
	// cycle. It returns ErrCycleSkipped when the instance lock is held.
	RunOnce(ctx context.Context) (audit.CycleRecord, error)

	// Status returns the most recent audit record.
	Status(ctx context.Context) (audit.CycleRecord, error)
}

// InstanceLock guards against overlapping cycles on the same host.
type InstanceLock interface {
	TryAcquire() (bool, error)
	Release() error
}

// Recorder is the durable audit sink.
type Recorder interface {
	Record(ctx context.Context, rec audit.CycleRecord) error
}
