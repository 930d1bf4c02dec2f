package source

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

// SynthConfig describes a synthetic stream.
type SynthConfig struct {
	// FPS is the frame rate (default: 30)
	FPS float64

	// FrameSize is the mean frame size in bytes (default: 4096)
	FrameSize int

	// Variation spreads frame sizes uniformly over
	// FrameSize*(1-Variation) .. FrameSize*(1+Variation); 0 to 1
	Variation float64

	// Frames stops the stream after this many frames, 0 for no limit
	Frames int

	// Seed makes the size sequence reproducible
	Seed uint64

	// MaxBurst is how many overdue frames may be released back to back
	// after a stall (default: 1)
	MaxBurst float64

	// Clock drives pacing (default: perf.SystemClock)
	Clock perf.Clock
}

// Frame is one synthetic buffer.
type Frame struct {
	Seq       int
	Size      int
	Timestamp time.Time
}

// ErrStopped is returned by a frame callback to end the stream early
// without an error.
var ErrStopped = errors.New("source stopped")

// Synth produces paced frames.
type Synth struct {
	config SynthConfig
	pacer  *Pacer
	rng    *rand.Rand
}

// NewSynth validates config and returns a generator.
func NewSynth(config SynthConfig) (*Synth, error) {
	if config.FPS == 0 {
		config.FPS = 30
	}
	if config.FrameSize == 0 {
		config.FrameSize = 4096
	}
	if config.Clock == nil {
		config.Clock = perf.SystemClock{}
	}

	if config.FPS < 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", config.FPS)
	}
	if config.FrameSize < 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", config.FrameSize)
	}
	if config.Variation < 0 || config.Variation > 1 {
		return nil, fmt.Errorf("variation must be between 0 and 1, got %g", config.Variation)
	}
	if config.Frames < 0 {
		return nil, fmt.Errorf("frame limit must not be negative, got %d", config.Frames)
	}
	if config.MaxBurst < 0 {
		return nil, fmt.Errorf("max burst must not be negative, got %g", config.MaxBurst)
	}

	pacer := NewPacer(config.FPS, config.Clock)
	if config.MaxBurst > 0 {
		pacer.SetMaxBurst(config.MaxBurst)
	}

	return &Synth{
		config: config,
		pacer:  pacer,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Pacer exposes the scheduler.
func (s *Synth) Pacer() *Pacer {
	return s.pacer
}

// Run emits frames into fn until ctx is done, the frame limit is reached
// or fn fails. It returns the number of frames emitted. Reaching the limit
// or fn returning ErrStopped is not an error; a cancelled ctx returns
// ctx.Err(). Each run starts a fresh schedule with its first frame due
// immediately.
func (s *Synth) Run(ctx context.Context, fn func(Frame) error) (int, error) {
	s.pacer.Reset()

	emitted := 0
	for s.config.Frames == 0 || emitted < s.config.Frames {
		if err := s.pacer.Wait(ctx); err != nil {
			return emitted, err
		}

		frame := Frame{
			Seq:       emitted,
			Size:      s.nextSize(),
			Timestamp: s.config.Clock.Now(),
		}
		if err := fn(frame); err != nil {
			if errors.Is(err, ErrStopped) {
				return emitted, nil
			}
			return emitted, err
		}
		emitted++
	}
	return emitted, nil
}

func (s *Synth) nextSize() int {
	if s.config.Variation == 0 {
		return s.config.FrameSize
	}
	spread := float64(s.config.FrameSize) * s.config.Variation
	size := float64(s.config.FrameSize) + (s.rng.Float64()*2-1)*spread
	if size < 1 {
		size = 1
	}
	return int(size + 0.5)
}
