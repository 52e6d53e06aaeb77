package metrics

import (
	"context"
	"time"
)

// Snapshot is the set of host memory counters captured once per cycle.
// Percentages are whole numbers in [0, 100]; PSI averages are the kernel's
// avg10 values and are zero when PressureSupported is false.
type Snapshot struct {
	MemoryUsedPercent int       `json:"memory_used_percent"`
	SwapUsedPercent   int       `json:"swap_used_percent"`
	PressureSomeAvg10 float64   `json:"pressure_some_avg10"`
	PressureFullAvg10 float64   `json:"pressure_full_avg10"`
	PressureSupported bool      `json:"pressure_supported"`
	Timestamp         time.Time `json:"timestamp"`
}

// Sampler reads instantaneous memory, swap and pressure-stall metrics.
type Sampler interface {
	Sample(ctx context.Context) (Snapshot, error)
}
