package plugins

import (
	"context"
	"fmt"
	"strconv"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

const defaultNiceness = 15

// Renice de-prioritizes heavyweight, non-essential processes (typically
// browsers) so the desktop shell keeps CPU while the kernel swaps. It never
// terminates anything.
type Renice struct {
	runner   Runner
	patterns []string
	niceness int
	list     processLister
}

func NewRenice(runner Runner, patterns []string) *Renice {
	return &Renice{
		runner:   runner,
		patterns: patterns,
		niceness: defaultNiceness,
		list:     listProcesses,
	}
}

func (r *Renice) Name() string {
	return "process-renice"
}

func (r *Renice) AppliesTo() []severity.Level {
	return []severity.Level{severity.High, severity.Critical}
}

func (r *Renice) Invoke(ctx context.Context, _ severity.Level, _ metrics.Snapshot) (string, error) {
	procs, err := r.list(ctx)
	if err != nil {
		return "", err
	}

	reniced := 0
	for _, proc := range procs {
		if !matchesAny(proc.name, r.patterns) {
			continue
		}

		if _, err := r.runner.Run(ctx, "renice", "-n", strconv.Itoa(r.niceness), "-p", strconv.Itoa(int(proc.pid))); err != nil {
			return "", fmt.Errorf("failed to renice pid %d (%s): %w", proc.pid, proc.name, err)
		}
		reniced++
	}

	if reniced == 0 {
		return "no matching processes", nil
	}

	return fmt.Sprintf("re-niced %d processes to %d", reniced, r.niceness), nil
}
