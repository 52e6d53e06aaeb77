package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

const defaultPressurePath = "/proc/pressure/memory"

type hostSampler struct {
	pressurePath string
}

// NewHostSampler returns a Sampler backed by the kernel's memory counters.
// pressurePath overrides the PSI source and may be empty for the default.
func NewHostSampler(pressurePath string) Sampler {
	if pressurePath == "" {
		pressurePath = defaultPressurePath
	}

	return &hostSampler{pressurePath: pressurePath}
}

func (s *hostSampler) Sample(ctx context.Context) (Snapshot, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read virtual memory counters: %w", err)
	}

	snap := Snapshot{
		MemoryUsedPercent: usedPercent(vm.Total, vm.Available),
		Timestamp:         time.Now().UTC(),
	}

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read swap counters: %w", err)
	}
	snap.SwapUsedPercent = usedPercent(swap.Total, swap.Free)

	// PSI is optional. Hosts without CONFIG_PSI report zero pressure but
	// are marked unsupported so the classifier can tell the two apart.
	data, err := os.ReadFile(s.pressurePath)
	if err != nil {
		return snap, nil
	}

	some10, full10, err := parsePressure(data)
	if err != nil {
		return snap, nil
	}

	snap.PressureSomeAvg10 = some10
	snap.PressureFullAvg10 = full10
	snap.PressureSupported = true

	return snap, nil
}

// usedPercent computes (total-available)/total as a whole percentage,
// reporting 0 when total is 0 (e.g. hosts without swap).
func usedPercent(total, available uint64) int {
	if total == 0 {
		return 0
	}
	if available > total {
		available = total
	}

	return int((total - available) * 100 / total)
}
