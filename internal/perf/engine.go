package perf

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/streamperf/internal/logger"
)

// Engine computes frame rate, bitrate and CPU load for one pipeline element.
//
// Engine moves between two states, stopped and running. Start resets all
// counters; OnBuffer and Tick are only accepted while running.
//
// # Thread Safety
//
// Engine is safe for concurrent use. A single mutex guards the counters and
// the settings; every method holds it for one bounded update.
type Engine struct {
	mu        sync.Mutex
	state     *state
	running   bool
	sessionID string

	name    string
	clock   Clock
	sampler CPUSampler
	log     logger.Logger
}

// EngineConfig contains the collaborators of an Engine.
type EngineConfig struct {
	// Name identifies the element in logs (default: "perf")
	Name string

	// Settings is the initial configuration
	Settings Settings

	// Clock supplies the start timestamp (default: SystemClock)
	Clock Clock

	// Sampler reads CPU counters (default: NewCPUSampler())
	Sampler CPUSampler

	// Logger receives configuration changes and snapshots (default: no-op)
	Logger logger.Logger
}

// Snapshot contains the metrics computed at the end of a tick.
type Snapshot struct {
	SessionID string        `json:"sessionId" yaml:"sessionId"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`

	FPS     float64 `json:"fps" yaml:"fps"`
	Bps     float64 `json:"bps" yaml:"bps"`
	MeanBps float64 `json:"meanBps" yaml:"meanBps"`

	// CPULoad is the busy percentage since the previous tick, nil when CPU
	// load is disabled or could not be sampled.
	CPULoad *uint32 `json:"cpuLoad,omitempty" yaml:"cpuLoad,omitempty"`

	FrameCountTotal uint64 `json:"frameCountTotal" yaml:"frameCountTotal"`
	ByteCountTotal  uint64 `json:"byteCountTotal" yaml:"byteCountTotal"`

	FrameInterval IntervalStats `json:"frameInterval" yaml:"frameInterval"`
}

// NewEngine creates a stopped engine with the given settings and default
// collaborators.
func NewEngine(settings Settings) *Engine {
	return NewEngineWithConfig(EngineConfig{Settings: settings})
}

// NewEngineWithConfig creates a stopped engine from config.
func NewEngineWithConfig(config EngineConfig) *Engine {
	if config.Name == "" {
		config.Name = "perf"
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Sampler == nil {
		config.Sampler = NewCPUSampler()
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}

	return &Engine{
		state:   newState(config.Settings, config.Clock.Now()),
		name:    config.Name,
		clock:   config.Clock,
		sampler: config.Sampler,
		log:     config.Logger.With(logger.String("element", config.Name)),
	}
}

// Name returns the element name.
func (e *Engine) Name() string {
	return e.name
}

// Start clears all metrics and begins a new session.
//
// Returns ErrAlreadyRunning if the engine is already running; accumulated
// counters are left untouched in that case.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	e.state.clear(e.clock.Now())
	e.sessionID = uuid.NewString()
	e.running = true

	if e.state.cpuLoadEnabled {
		e.sampleCPU(false)
	}

	e.log.Info("perf started",
		logger.String("session", e.sessionID),
		logger.Bool("print_cpu_load", e.state.cpuLoadEnabled),
		logger.Uint32("bitrate_interval_ms", e.state.bpsInterval),
		logger.Uint32("bitrate_window_size", e.state.bpsWindow.Cap()))
	return nil
}

// Stop ends the session. Returns ErrNotRunning if already stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}
	e.running = false

	e.log.Info("perf stopped",
		logger.String("session", e.sessionID),
		logger.Uint64("frames", e.state.frameCountTotal),
		logger.Uint64("bytes", e.state.byteCountTotal))
	return nil
}

// Running reports whether the engine is between Start and Stop.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// OnBuffer accounts one buffer of byteLen bytes that arrived at ts.
func (e *Engine) OnBuffer(byteLen uint64, ts time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}

	s := e.state
	s.frameCount++
	s.frameCountTotal++
	s.byteCount += byteLen
	s.byteCountTotal += byteLen
	s.intervals.observe(ts)

	return nil
}

// Tick recomputes the metrics if at least BitrateInterval has elapsed since
// the previous computation.
//
// Returns a nil Snapshot when the interval has not elapsed yet, or when now
// is not after the previous computation; the counters keep accumulating.
func (e *Engine) Tick(now time.Time) (*Snapshot, error) {
	return e.tick(now, false)
}

// Flush recomputes the metrics regardless of BitrateInterval, e.g. when the
// host stops. A nil Snapshot is returned when no time has elapsed.
func (e *Engine) Flush(now time.Time) (*Snapshot, error) {
	return e.tick(now, true)
}

func (e *Engine) tick(now time.Time, force bool) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil, ErrNotRunning
	}

	s := e.state
	elapsed := now.Sub(s.prevTime)
	if elapsed <= 0 {
		// Zero or backwards: nothing to divide by.
		return nil, nil
	}
	if !force && elapsed < time.Duration(s.bpsInterval)*time.Millisecond {
		return nil, nil
	}

	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	s.elapsedSinceTickMs = saturateUint32(elapsed.Milliseconds())

	s.fps = float64(s.frameCount) * 1000.0 / elapsedMs
	s.resetCounts()

	s.bps = float64(s.byteCount) * 8.0 * 1000.0 / elapsedMs
	s.byteCount = 0

	s.updateMeanBps(s.bpsWindow.Cap())

	s.cpuLoadValid = false
	if s.cpuLoadEnabled {
		e.sampleCPU(true)
	}

	s.prevTime = now

	snap := e.snapshot(elapsed)
	e.log.Debug("perf",
		logger.Float64("fps", snap.FPS),
		logger.Float64("bps", snap.Bps),
		logger.Float64("mean_bps", snap.MeanBps),
		logger.Any("cpu_load", snap.CPULoad))
	return &snap, nil
}

// sampleCPU reads the sampler and, when report is set, computes the load
// since the previous sample. ErrUnsupported disables CPU load for the rest
// of the session.
func (e *Engine) sampleCPU(report bool) {
	s := e.state
	if s.cpuUnsupported {
		return
	}

	idle, total, err := e.sampler.Sample()
	if errors.Is(err, ErrUnsupported) {
		s.cpuUnsupported = true
		e.log.Warn("cpu load unavailable, disabling for this session", logger.Error(err))
		return
	}
	if err != nil {
		e.log.Error("cpu sample failed", logger.Error(err))
		return
	}

	if report {
		s.cpuLoad = ComputeLoad(s.prevCPUIdle, s.prevCPUTotal, idle, total)
		s.cpuLoadValid = true
	}
	s.prevCPUIdle = idle
	s.prevCPUTotal = total
}

// Snapshot returns the most recently computed metrics together with the
// current totals. It does not recompute anything.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(time.Duration(e.state.elapsedSinceTickMs) * time.Millisecond)
}

func (e *Engine) snapshot(elapsed time.Duration) Snapshot {
	s := e.state
	snap := Snapshot{
		SessionID:       e.sessionID,
		Timestamp:       s.prevTime,
		Elapsed:         elapsed,
		FPS:             s.fps,
		Bps:             s.bps,
		MeanBps:         s.meanBps,
		FrameCountTotal: s.frameCountTotal,
		ByteCountTotal:  s.byteCountTotal,
		FrameInterval:   s.intervals.stats(),
	}
	if s.cpuLoadEnabled && s.cpuLoadValid {
		load := s.cpuLoad
		snap.CPULoad = &load
	}
	return snap
}

// ResetCounts zeroes the frame count of the current interval.
func (e *Engine) ResetCounts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.resetCounts()
}

// Clear zeroes all counters, derived metrics and CPU history without
// changing the running state or the settings.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.clear(e.clock.Now())
}

// Settings returns the current configuration.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.settings()
}

// Configure applies all settings at once.
func (e *Engine) Configure(settings Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setPrintCPULoad(settings.PrintCPULoad)
	e.setBitrateInterval(settings.BitrateInterval)
	e.setBitrateWindowSize(settings.BitrateWindowSize)
}

// SetPrintCPULoad enables or disables CPU load reporting.
func (e *Engine) SetPrintCPULoad(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPrintCPULoad(enabled)
}

// SetBitrateInterval changes the recomputation period, in milliseconds.
// It takes effect on the next tick.
func (e *Engine) SetBitrateInterval(ms uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setBitrateInterval(ms)
}

// SetBitrateWindowSize changes the moving average window. A different size
// discards the collected samples and restarts averaging.
func (e *Engine) SetBitrateWindowSize(size uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setBitrateWindowSize(size)
}

func (e *Engine) setPrintCPULoad(enabled bool) {
	s := e.state
	if s.cpuLoadEnabled == enabled {
		return
	}
	e.log.Info("changing print-cpu-load", logger.Bool("value", enabled))
	s.cpuLoadEnabled = enabled
	s.cpuLoadValid = false

	// Take a reference sample so the first report covers one interval
	// instead of the time since boot.
	if enabled && e.running {
		e.sampleCPU(false)
	}
}

func (e *Engine) setBitrateInterval(ms uint32) {
	s := e.state
	if s.bpsInterval == ms {
		return
	}
	e.log.Info("changing bitrate-interval", logger.Uint32("value", ms))
	s.bpsInterval = ms
}

func (e *Engine) setBitrateWindowSize(size uint32) {
	s := e.state
	if s.bpsWindow.Cap() == size {
		return
	}
	e.log.Info("changing bitrate-window-size", logger.Uint32("value", size))
	s.bpsWindow = NewWindow(size)
	s.bpsSampleCount = 0
}

func saturateUint32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
