package plugins

import (
	"context"
	"errors"
	"fmt"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// ServiceRestart restarts configured user services whose caches grow without
// bound (desktop shell, compositor helpers). A restart sheds the service's
// entire heap at the cost of a brief visual interruption, so it only runs at
// High and above.
type ServiceRestart struct {
	runner Runner
	units  []string
}

func NewServiceRestart(runner Runner, units []string) *ServiceRestart {
	return &ServiceRestart{
		runner: runner,
		units:  units,
	}
}

func (s *ServiceRestart) Name() string {
	return "service-restart"
}

func (s *ServiceRestart) AppliesTo() []severity.Level {
	return []severity.Level{severity.High, severity.Critical}
}

func (s *ServiceRestart) Invoke(ctx context.Context, _ severity.Level, _ metrics.Snapshot) (string, error) {
	if len(s.units) == 0 {
		return "no services configured", nil
	}

	restarted := 0
	var errs error
	for _, unit := range s.units {
		if _, err := s.runner.Run(ctx, "systemctl", "--user", "restart", unit); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to restart %s: %w", unit, err))

			continue
		}
		restarted++
	}

	detail := fmt.Sprintf("restarted %d/%d services", restarted, len(s.units))
	if errs != nil {
		return "", fmt.Errorf("%s: %w", detail, errs)
	}

	return detail, nil
}
