package remediation

import (
	"context"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// Plugin is one named, opaque mitigation strategy. Implementations must honor
// context cancellation; the dispatcher bounds every invocation with a timeout.
type Plugin interface {
	Name() string
	AppliesTo() []severity.Level
	Invoke(ctx context.Context, level severity.Level, snap metrics.Snapshot) (string, error)
}

// Outcome is the result of one plugin invocation within a cycle.
type Outcome struct {
	PluginName string `json:"plugin_name"`
	Attempted  bool   `json:"attempted"`
	Succeeded  bool   `json:"succeeded"`
	Detail     string `json:"detail"`
	DurationMs int64  `json:"duration_ms"`
}
