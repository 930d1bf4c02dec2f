package perf

import (
	"fmt"
	"math"

	"github.com/prometheus/procfs"
)

// ticksPerSecond converts procfs seconds back to USER_HZ ticks.
const ticksPerSecond = 100

// ProcStatSampler reads the aggregate "cpu" line of /proc/stat.
type ProcStatSampler struct {
	fs  procfs.FS
	err error
}

// NewProcStatSampler opens procfs at mountPoint ("" for /proc).
func NewProcStatSampler(mountPoint string) *ProcStatSampler {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	return &ProcStatSampler{fs: fs, err: err}
}

func newPlatformSampler() CPUSampler {
	return NewProcStatSampler("")
}

// Sample implements CPUSampler. Idle includes iowait; guest time is already
// accounted in user and nice and is not added again.
func (s *ProcStatSampler) Sample() (uint64, uint64, error) {
	if s.err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupported, s.err)
	}

	stat, err := s.fs.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("read cpu stat: %w", err)
	}

	c := stat.CPUTotal
	idle := toTicks(c.Idle) + toTicks(c.Iowait)
	total := toTicks(c.User) + toTicks(c.Nice) + toTicks(c.System) + idle +
		toTicks(c.IRQ) + toTicks(c.SoftIRQ) + toTicks(c.Steal)

	return idle, total, nil
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * ticksPerSecond))
}
