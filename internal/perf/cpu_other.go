//go:build !linux

package perf

import (
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/cpu"
)

// ticksPerSecond converts gopsutil seconds to integer ticks.
const ticksPerSecond = 100

// HostTimesSampler reads aggregate CPU times through gopsutil.
type HostTimesSampler struct{}

func newPlatformSampler() CPUSampler {
	return HostTimesSampler{}
}

// Sample implements CPUSampler. gopsutil fails on platforms it does not
// implement, which is reported as ErrUnsupported.
func (HostTimesSampler) Sample() (uint64, uint64, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if len(times) == 0 {
		return 0, 0, ErrUnsupported
	}

	t := times[0]
	idle := toTicks(t.Idle) + toTicks(t.Iowait)
	total := toTicks(t.User) + toTicks(t.Nice) + toTicks(t.System) + idle +
		toTicks(t.Irq) + toTicks(t.Softirq) + toTicks(t.Steal)

	return idle, total, nil
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * ticksPerSecond))
}
