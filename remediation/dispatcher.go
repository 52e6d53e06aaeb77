package remediation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

const defaultPluginTimeout = 30 * time.Second

// Dispatcher invokes the plugins applicable to a severity level, one at a
// time. Plugins mutate shared host state (caches, process lists), so they run
// sequentially and never in parallel. One plugin's failure, timeout or panic
// does not stop the remaining plugins: remediation is best-effort and additive.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultPluginTimeout
	}

	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch runs every plugin registered for level in registration order and
// returns one Outcome per attempted plugin. It stops early only when ctx is
// cancelled at the loop level.
func (d *Dispatcher) Dispatch(ctx context.Context, level severity.Level, snap metrics.Snapshot) []Outcome {
	plugins := d.registry.PluginsFor(level)
	outcomes := make([]Outcome, 0, len(plugins))

	for _, p := range plugins {
		if ctx.Err() != nil {
			d.logger.Warn("dispatch cancelled, remaining plugins skipped",
				slog.String("severity", level.String()))

			break
		}

		outcome := d.invoke(ctx, p, level, snap)
		outcomes = append(outcomes, outcome)

		if !outcome.Succeeded {
			d.logger.Warn("remediation plugin failed",
				slog.String("plugin", outcome.PluginName),
				slog.String("severity", level.String()),
				slog.String("detail", outcome.Detail))
		}
	}

	return outcomes
}

type invocation struct {
	detail string
	err    error
}

// invoke runs a single plugin under the per-plugin timeout and isolates
// panics so that no plugin fault propagates into the dispatcher.
func (d *Dispatcher) invoke(ctx context.Context, p Plugin, level severity.Level, snap metrics.Snapshot) Outcome {
	outcome := Outcome{
		PluginName: p.Name(),
		Attempted:  true,
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	begin := time.Now()
	done := make(chan invocation, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocation{err: fmt.Errorf("plugin panicked: %v", r)}
			}
		}()

		detail, err := p.Invoke(ctx, level, snap)
		done <- invocation{detail: detail, err: err}
	}()

	select {
	case result := <-done:
		outcome.DurationMs = time.Since(begin).Milliseconds()
		if result.err != nil {
			outcome.Detail = result.err.Error()

			return outcome
		}
		outcome.Succeeded = true
		outcome.Detail = result.detail
	case <-ctx.Done():
		outcome.DurationMs = time.Since(begin).Milliseconds()
		outcome.Detail = "timeout"
	}

	return outcome
}
