package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/monitor"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

// Origin is the wall time that trace timestamp zero maps to.
var Origin = time.Unix(0, 0).UTC()

// VirtualClock is a perf.Clock that only moves when told to.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock returns a clock reading t.
func NewVirtualClock(t time.Time) *VirtualClock {
	return &VirtualClock{now: t}
}

// Now implements perf.Clock.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t. Earlier times are ignored.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// Replayer drives a fresh engine from a trace.
type Replayer struct {
	// Name identifies the element (default: "perf")
	Name     string
	Settings perf.Settings

	// Sampler reads CPU counters. Host load has no meaning on trace time,
	// so it defaults to perf.UnsupportedSampler.
	Sampler perf.CPUSampler

	Reporters []monitor.Reporter
	Logger    logger.Logger
}

// Summary describes a finished replay.
type Summary struct {
	Records   int
	Snapshots int
	Duration  time.Duration
	Last      perf.Snapshot
}

// Run replays every record of r. The engine ticks at each interval boundary
// of trace time, so a trace always yields the same snapshots. After the last
// record a final snapshot is flushed.
func (p *Replayer) Run(ctx context.Context, r *Reader) (Summary, error) {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	sampler := p.Sampler
	if sampler == nil {
		sampler = perf.UnsupportedSampler{}
	}

	var summary Summary

	first, err := r.Next()
	if errors.Is(err, io.EOF) {
		return summary, nil
	}
	if err != nil {
		return summary, err
	}

	clock := NewVirtualClock(Origin.Add(first.Timestamp))
	engine := perf.NewEngineWithConfig(perf.EngineConfig{
		Name:     p.Name,
		Settings: p.Settings,
		Clock:    clock,
		Sampler:  sampler,
		Logger:   log,
	})
	if err := engine.Start(); err != nil {
		return summary, fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if engine.Running() {
			_ = engine.Stop()
		}
	}()

	start := clock.Now()
	nextTick := start.Add(engine.Settings().Interval())

	emit := func(snap *perf.Snapshot) {
		if snap == nil {
			return
		}
		summary.Snapshots++
		summary.Last = *snap
		for _, reporter := range p.Reporters {
			if err := reporter.Report(*snap); err != nil {
				log.Error("reporter failed", logger.Error(err))
			}
		}
	}

	for rec := first; ; {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		ts := Origin.Add(rec.Timestamp)
		interval := engine.Settings().Interval()
		if interval == 0 {
			nextTick = ts
		}
		for !nextTick.After(ts) {
			snap, err := engine.Tick(nextTick)
			if err != nil {
				return summary, err
			}
			emit(snap)
			if interval == 0 {
				break
			}
			nextTick = nextTick.Add(interval)
		}

		clock.Set(ts)
		if err := engine.OnBuffer(rec.Size, ts); err != nil {
			return summary, err
		}
		summary.Records++

		rec, err = r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}
	}

	snap, err := engine.Flush(clock.Now())
	if err != nil {
		return summary, err
	}
	emit(snap)
	if snap == nil {
		// Nothing elapsed since the last tick; keep the final totals.
		summary.Last = engine.Snapshot()
	}

	summary.Duration = clock.Now().Sub(start)
	if err := engine.Stop(); err != nil {
		return summary, err
	}

	log.Info("replay finished",
		logger.Int("records", summary.Records),
		logger.Int("snapshots", summary.Snapshots),
		logger.Duration("duration", summary.Duration))
	return summary, nil
}
