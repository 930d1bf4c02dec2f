package perf

import "time"

// Default element settings.
const (
	DefaultPrintCPULoad      = false
	DefaultBitrateInterval   = 100 // milliseconds
	DefaultBitrateWindowSize = 0   // cumulative average
)

// Settings is the configuration surface of an Engine.
type Settings struct {
	// PrintCPULoad enables CPU load sampling and reporting.
	PrintCPULoad bool `json:"printCpuLoad" yaml:"printCpuLoad"`

	// BitrateInterval is the recomputation period in milliseconds.
	BitrateInterval uint32 `json:"bitrateInterval" yaml:"bitrateInterval"`

	// BitrateWindowSize is the number of bitrate samples in the moving
	// average; 0 averages over all samples.
	BitrateWindowSize uint32 `json:"bitrateWindowSize" yaml:"bitrateWindowSize"`
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		PrintCPULoad:      DefaultPrintCPULoad,
		BitrateInterval:   DefaultBitrateInterval,
		BitrateWindowSize: DefaultBitrateWindowSize,
	}
}

// Interval returns BitrateInterval as a time.Duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.BitrateInterval) * time.Millisecond
}

// state holds the mutable counters of one engine. Only Engine methods touch
// it, always with the engine lock held.
type state struct {
	prevTime time.Time

	fps             float64
	frameCount      uint64 // since last fps computation
	frameCountTotal uint64

	bps            float64
	meanBps        float64
	bpsWindow      *Window
	bpsSampleCount uint64 // samples folded into meanBps
	byteCount      uint64 // since last bitrate computation
	byteCountTotal uint64

	bpsInterval        uint32 // configured, ms
	elapsedSinceTickMs uint32 // at the last tick

	prevCPUIdle    uint64
	prevCPUTotal   uint64
	cpuLoad        uint32
	cpuLoadValid   bool
	cpuLoadEnabled bool
	cpuUnsupported bool // sampler reported ErrUnsupported this session

	intervals *intervalRecorder
}

func newState(settings Settings, now time.Time) *state {
	return &state{
		prevTime:       now,
		bpsWindow:      NewWindow(settings.BitrateWindowSize),
		bpsInterval:    settings.BitrateInterval,
		cpuLoadEnabled: settings.PrintCPULoad,
		intervals:      newIntervalRecorder(),
	}
}

func (s *state) settings() Settings {
	return Settings{
		PrintCPULoad:      s.cpuLoadEnabled,
		BitrateInterval:   s.bpsInterval,
		BitrateWindowSize: s.bpsWindow.Cap(),
	}
}

// resetCounts zeroes the per-interval frame count.
func (s *state) resetCounts() {
	s.frameCount = 0
}

// clear zeroes every counter, derived metric and CPU sample, and restarts
// the clock reference at now.
func (s *state) clear(now time.Time) {
	s.prevTime = now

	s.fps = 0
	s.frameCount = 0
	s.frameCountTotal = 0

	s.bps = 0
	s.meanBps = 0
	s.bpsWindow.Reset()
	s.bpsSampleCount = 0
	s.byteCount = 0
	s.byteCountTotal = 0
	s.elapsedSinceTickMs = 0

	s.prevCPUIdle = 0
	s.prevCPUTotal = 0
	s.cpuLoad = 0
	s.cpuLoadValid = false
	s.cpuUnsupported = false

	s.intervals.reset()
}

// updateMeanBps folds the latest bps sample into meanBps, using the window
// when one is configured.
func (s *state) updateMeanBps(windowSize uint32) {
	if windowSize == 0 {
		s.bpsSampleCount++
		s.meanBps = UpdateAverage(s.bpsSampleCount, s.bps, s.meanBps)
		return
	}

	evicted, full := s.bpsWindow.Push(s.bps)
	if !full {
		// Still filling: the mean is cumulative over what we have.
		s.bpsSampleCount++
		s.meanBps = UpdateAverage(s.bpsSampleCount, s.bps, s.meanBps)
		return
	}
	s.meanBps = UpdateMovingAverage(windowSize, s.meanBps, s.bps, evicted)
	if s.meanBps < 0 {
		// rounding drift after a run of zero samples
		s.meanBps = 0
	}
}
