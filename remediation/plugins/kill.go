package plugins

import (
	"context"
	"fmt"
	"strconv"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// EmergencyKill terminates the single largest eligible process by resident
// set size. It is the last line of defense before the kernel OOM killer picks
// a victim itself, and runs only at Critical. Session-essential processes are
// excluded via the protected patterns.
type EmergencyKill struct {
	runner    Runner
	protected []string
	list      processLister
}

func NewEmergencyKill(runner Runner, protected []string) *EmergencyKill {
	return &EmergencyKill{
		runner:    runner,
		protected: protected,
		list:      listProcesses,
	}
}

func (e *EmergencyKill) Name() string {
	return "emergency-kill"
}

func (e *EmergencyKill) AppliesTo() []severity.Level {
	return []severity.Level{severity.Critical}
}

func (e *EmergencyKill) Invoke(ctx context.Context, _ severity.Level, _ metrics.Snapshot) (string, error) {
	procs, err := e.list(ctx)
	if err != nil {
		return "", err
	}

	var victim *processInfo
	for i := range procs {
		proc := procs[i]
		if matchesAny(proc.name, e.protected) {
			continue
		}
		if victim == nil || proc.rssBytes > victim.rssBytes {
			victim = &proc
		}
	}

	if victim == nil || victim.rssBytes == 0 {
		return "no eligible process", nil
	}

	// SIGTERM, not SIGKILL: the victim gets a chance to save state.
	if _, err := e.runner.Run(ctx, "kill", "-TERM", strconv.Itoa(int(victim.pid))); err != nil {
		return "", fmt.Errorf("failed to terminate pid %d (%s): %w", victim.pid, victim.name, err)
	}

	return fmt.Sprintf("sent SIGTERM to %s (pid %d, rss %d MiB)",
		victim.name, victim.pid, victim.rssBytes/(1024*1024)), nil
}
