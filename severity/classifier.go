package severity

import (
	"errors"
	"fmt"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/oom"
)

var errThresholdOrder = errors.New("thresholds must satisfy moderate <= high <= critical")

// Thresholds configure the classification rules. Memory and swap values are
// whole percentages; pressure values are PSI avg10 stall percentages and are
// always compared with a strict greater-than.
type Thresholds struct {
	CriticalMemoryPercent int     `toml:"critical_memory_percent" env:"GUARDIAN_CRITICAL_MEMORY_PERCENT"`
	CriticalSwapPercent   int     `toml:"critical_swap_percent"   env:"GUARDIAN_CRITICAL_SWAP_PERCENT"`
	HighMemoryPercent     int     `toml:"high_memory_percent"     env:"GUARDIAN_HIGH_MEMORY_PERCENT"`
	HighPressure          float64 `toml:"high_pressure"           env:"GUARDIAN_HIGH_PRESSURE"`
	ModerateMemoryPercent int     `toml:"moderate_memory_percent" env:"GUARDIAN_MODERATE_MEMORY_PERCENT"`
	ModeratePressure      float64 `toml:"moderate_pressure"       env:"GUARDIAN_MODERATE_PRESSURE"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalMemoryPercent: 90,
		CriticalSwapPercent:   70,
		HighMemoryPercent:     80,
		HighPressure:          50,
		ModerateMemoryPercent: 60,
		ModeratePressure:      10,
	}
}

func (t Thresholds) Validate() error {
	percents := map[string]int{
		"critical_memory_percent": t.CriticalMemoryPercent,
		"critical_swap_percent":   t.CriticalSwapPercent,
		"high_memory_percent":     t.HighMemoryPercent,
		"moderate_memory_percent": t.ModerateMemoryPercent,
	}
	for name, value := range percents {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be in [0, 100], got %d", name, value)
		}
	}
	if t.HighPressure < 0 || t.ModeratePressure < 0 {
		return errors.New("pressure thresholds must be non-negative")
	}
	if t.ModerateMemoryPercent > t.HighMemoryPercent || t.HighMemoryPercent > t.CriticalMemoryPercent {
		return errThresholdOrder
	}
	if t.ModeratePressure > t.HighPressure {
		return errThresholdOrder
	}

	return nil
}

// Classifier maps a metrics snapshot and OOM history to a Level. It holds no
// mutable state; classification is a pure function of its inputs.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	return &Classifier{thresholds: t}, nil
}

// Classify evaluates the rules high-to-low; the first match wins. Pressure
// rules are skipped entirely when the host does not support PSI. Memory
// percentage alone under-detects thrashing, so swap and stall time act as
// independent escalation triggers rather than tie-breakers.
func (c *Classifier) Classify(snap metrics.Snapshot, activity oom.Activity) Level {
	t := c.thresholds

	if activity.OccurredToday ||
		snap.MemoryUsedPercent > t.CriticalMemoryPercent ||
		snap.SwapUsedPercent > t.CriticalSwapPercent {
		return Critical
	}

	if snap.MemoryUsedPercent > t.HighMemoryPercent ||
		(snap.PressureSupported && snap.PressureSomeAvg10 > t.HighPressure) {
		return High
	}

	if snap.MemoryUsedPercent > t.ModerateMemoryPercent ||
		(snap.PressureSupported && snap.PressureSomeAvg10 > t.ModeratePressure) {
		return Moderate
	}

	return Normal
}
