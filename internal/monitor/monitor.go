// Package monitor runs a perf.Engine as a live pipeline element: it ticks the
// engine on a timer, forwards every snapshot to a set of reporters and counts
// the buffers of a byte stream passing through it.
package monitor

import (
	"context"
	"time"

	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

// minTickPeriod bounds the timer when bitrate-interval is 0.
const minTickPeriod = time.Millisecond

// Reporter receives every snapshot produced by the engine.
type Reporter interface {
	Report(snap perf.Snapshot) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(snap perf.Snapshot) error

// Report calls f(snap).
func (f ReporterFunc) Report(snap perf.Snapshot) error {
	return f(snap)
}

// Monitor drives one engine from a timer goroutine.
type Monitor struct {
	engine    *perf.Engine
	clock     perf.Clock
	reporters []Reporter
	log       logger.Logger
}

// Config contains the collaborators of a Monitor.
type Config struct {
	Engine    *perf.Engine
	Reporters []Reporter

	// Clock defaults to perf.SystemClock.
	Clock perf.Clock

	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

// New creates a Monitor. The engine must be stopped; Run starts it.
func New(config Config) *Monitor {
	if config.Clock == nil {
		config.Clock = perf.SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}
	return &Monitor{
		engine:    config.Engine,
		clock:     config.Clock,
		reporters: config.Reporters,
		log:       config.Logger.With(logger.String("element", config.Engine.Name())),
	}
}

// Engine returns the monitored engine.
func (m *Monitor) Engine() *perf.Engine {
	return m.engine
}

// Run starts the engine and ticks it every bitrate-interval until ctx is
// done. A final snapshot is flushed and reported before the engine stops.
//
// The interval is re-read after every tick, so SetBitrateInterval takes
// effect while running.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	return m.Serve(ctx)
}

// Start starts the engine so buffers are counted before Serve runs.
func (m *Monitor) Start() error {
	return m.engine.Start()
}

// Serve ticks an engine that was started with Start until ctx is done,
// then flushes and stops it like Run.
func (m *Monitor) Serve(ctx context.Context) error {
	if !m.engine.Running() {
		return perf.ErrNotRunning
	}

	timer := time.NewTimer(m.period())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.flush()
			return m.engine.Stop()
		case <-timer.C:
			snap, err := m.engine.Tick(m.clock.Now())
			if err != nil {
				return err
			}
			if snap != nil {
				m.report(*snap)
			}
			timer.Reset(m.period())
		}
	}
}

func (m *Monitor) period() time.Duration {
	d := m.engine.Settings().Interval()
	if d < minTickPeriod {
		d = minTickPeriod
	}
	return d
}

func (m *Monitor) flush() {
	snap, err := m.engine.Flush(m.clock.Now())
	if err != nil {
		m.log.Error("final flush failed", logger.Error(err))
		return
	}
	if snap != nil {
		m.report(*snap)
	}
}

// report fans out to every reporter. A failing reporter is logged and does
// not affect the others.
func (m *Monitor) report(snap perf.Snapshot) {
	for _, r := range m.reporters {
		if err := r.Report(snap); err != nil {
			m.log.Error("report failed", logger.Error(err))
		}
	}
}

// Observe accounts one buffer of n bytes arriving now.
func (m *Monitor) Observe(n int) error {
	if n < 0 {
		n = 0
	}
	return m.engine.OnBuffer(uint64(n), m.clock.Now())
}
