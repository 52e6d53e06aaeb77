package plugins

import (
	"context"
	"fmt"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// CacheDrop reclaims kernel caches via vm.drop_caches. It is the first
// plugin in the escalation order: high impact on reclaimable memory, no
// impact on running processes. Moderate pressure drops only the page cache;
// High and Critical also drop dentries and inodes.
type CacheDrop struct {
	runner Runner
}

func NewCacheDrop(runner Runner) *CacheDrop {
	return &CacheDrop{runner: runner}
}

func (c *CacheDrop) Name() string {
	return "kernel-cache-drop"
}

func (c *CacheDrop) AppliesTo() []severity.Level {
	return []severity.Level{severity.Moderate, severity.High, severity.Critical}
}

func (c *CacheDrop) Invoke(ctx context.Context, level severity.Level, _ metrics.Snapshot) (string, error) {
	mode := "3"
	if level == severity.Moderate {
		mode = "1"
	}

	// Dirty pages must reach disk before the cache drop frees anything.
	if _, err := c.runner.Run(ctx, "sync"); err != nil {
		return "", fmt.Errorf("sync before cache drop failed: %w", err)
	}

	if _, err := c.runner.Run(ctx, "sysctl", "-w", "vm.drop_caches="+mode); err != nil {
		return "", fmt.Errorf("cache drop failed: %w", err)
	}

	return "dropped kernel caches (mode " + mode + ")", nil
}
