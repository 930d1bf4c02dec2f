package perf

// CPUSampler reads the host's cumulative CPU time counters.
//
// Sample returns the idle and total time spent by all CPUs since boot, in
// implementation-defined ticks. Implementations return ErrUnsupported
// (possibly wrapped) when the platform offers no way to read them.
type CPUSampler interface {
	Sample() (idle, total uint64, err error)
}

// NewCPUSampler returns the sampler for the running platform.
func NewCPUSampler() CPUSampler {
	return newPlatformSampler()
}

// UnsupportedSampler is a CPUSampler for platforms without CPU counters.
type UnsupportedSampler struct{}

// Sample always fails with ErrUnsupported.
func (UnsupportedSampler) Sample() (uint64, uint64, error) {
	return 0, 0, ErrUnsupported
}

// ComputeLoad returns the busy percentage (0-100) between two samples,
// rounded to the nearest integer.
//
// A counter that went backwards (reset or wrap) contributes a zero delta.
func ComputeLoad(prevIdle, prevTotal, curIdle, curTotal uint64) uint32 {
	total := counterDelta(prevTotal, curTotal)
	if total == 0 {
		return 0
	}

	idle := counterDelta(prevIdle, curIdle)
	if idle > total {
		idle = total
	}
	busy := total - idle

	return uint32((1000*busy/total + 5) / 10)
}

func counterDelta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
