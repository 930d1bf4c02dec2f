// Package source generates synthetic media buffers at a steady frame rate.
package source

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

// Pacer schedules frames with the leaky bucket algorithm.
//
// It keeps a virtual drip time advancing at the target rate; Next returns
// when the next frame is due. A producer that falls behind gets frames
// immediately, up to maxBurst of them, instead of a flood.
//
// # Thread Safety
//
// Pacer is safe for concurrent use.
type Pacer struct {
	rate        float64 // frames per second
	lastDrip    time.Time
	accumulated float64
	maxBurst    float64
	clock       perf.Clock
	mu          sync.Mutex

	totalFrames   atomic.Int64
	totalWaitTime atomic.Int64 // nanoseconds
}

// PacerStats contains statistics about a pacer.
type PacerStats struct {
	Rate          float64       `json:"rate"`
	MaxBurst      float64       `json:"maxBurst"`
	TotalFrames   int64         `json:"totalFrames"`
	TotalWaitTime time.Duration `json:"totalWaitTime"`
}

// NewPacer creates a pacer emitting fps frames per second. Non-positive
// rates fall back to 1. The first frame is due immediately.
func NewPacer(fps float64, clock perf.Clock) *Pacer {
	if fps <= 0 {
		fps = 1.0
	}
	if clock == nil {
		clock = perf.SystemClock{}
	}
	return &Pacer{
		rate:        fps,
		lastDrip:    clock.Now(),
		accumulated: 1.0,
		maxBurst:    1.0,
		clock:       clock,
	}
}

// Next returns when the next frame should be emitted. The returned time
// may be in the past if the producer is behind schedule.
func (p *Pacer) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	elapsed := now.Sub(p.lastDrip).Seconds()
	if elapsed < 0 {
		// lastDrip is a scheduled frame still in the future
		elapsed = 0
	}

	p.accumulated += elapsed * p.rate
	if p.accumulated > p.maxBurst {
		p.accumulated = p.maxBurst
	}

	if p.accumulated >= 1.0 {
		p.accumulated -= 1.0
		if now.After(p.lastDrip) {
			p.lastDrip = now
		}
		p.totalFrames.Add(1)
		return now
	}

	deficit := 1.0 - p.accumulated
	p.accumulated = 0

	base := now
	if p.lastDrip.After(now) {
		base = p.lastDrip
	}
	next := base.Add(time.Duration(deficit / p.rate * float64(time.Second)))

	// The drip time moves to the scheduled frame so waking up at next
	// does not count the same interval twice.
	p.lastDrip = next

	p.totalFrames.Add(1)
	p.totalWaitTime.Add(int64(next.Sub(now)))
	return next
}

// Wait blocks until the next frame is due or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	wait := p.Next().Sub(p.clock.Now())
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetMaxBurst sets how many overdue frames may be released back to back.
// Values below 1 mean strict pacing.
func (p *Pacer) SetMaxBurst(burst float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if burst < 1.0 {
		burst = 1.0
	}
	p.maxBurst = burst
}

// Stats returns scheduling statistics.
func (p *Pacer) Stats() PacerStats {
	p.mu.Lock()
	rate, maxBurst := p.rate, p.maxBurst
	p.mu.Unlock()

	return PacerStats{
		Rate:          rate,
		MaxBurst:      maxBurst,
		TotalFrames:   p.totalFrames.Load(),
		TotalWaitTime: time.Duration(p.totalWaitTime.Load()),
	}
}

// Reset restores the initial state; the next frame is due immediately.
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accumulated = 1.0
	p.lastDrip = p.clock.Now()
	p.totalFrames.Store(0)
	p.totalWaitTime.Store(0)
}
