package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, config SynthConfig) []Frame {
	t.Helper()
	s, err := NewSynth(config)
	require.NoError(t, err)

	var frames []Frame
	n, err := s.Run(context.Background(), func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(frames), n)
	return frames
}

func TestSynth_FrameLimit(t *testing.T) {
	frames := collect(t, SynthConfig{FPS: 1000, FrameSize: 188, Frames: 5})

	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, i, f.Seq)
		assert.Equal(t, 188, f.Size)
	}
	for i := 1; i < len(frames); i++ {
		assert.False(t, frames[i].Timestamp.Before(frames[i-1].Timestamp))
	}
}

func TestSynth_Variation(t *testing.T) {
	config := SynthConfig{FPS: 10000, FrameSize: 1000, Variation: 0.25, Frames: 200, Seed: 42}
	frames := collect(t, config)

	distinct := map[int]bool{}
	for _, f := range frames {
		assert.GreaterOrEqual(t, f.Size, 750)
		assert.LessOrEqual(t, f.Size, 1250)
		distinct[f.Size] = true
	}
	assert.Greater(t, len(distinct), 1)

	again := collect(t, config)
	for i := range frames {
		assert.Equal(t, frames[i].Size, again[i].Size)
	}
}

func TestSynth_Defaults(t *testing.T) {
	s, err := NewSynth(SynthConfig{})
	require.NoError(t, err)
	assert.Equal(t, 30.0, s.Pacer().Stats().Rate)
	assert.Equal(t, 1.0, s.Pacer().Stats().MaxBurst)
	assert.Equal(t, 4096, s.nextSize())
}

func TestSynth_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config SynthConfig
	}{
		{"negative fps", SynthConfig{FPS: -1}},
		{"negative size", SynthConfig{FrameSize: -1}},
		{"variation too large", SynthConfig{Variation: 1.5}},
		{"negative limit", SynthConfig{Frames: -2}},
		{"negative burst", SynthConfig{MaxBurst: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSynth(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestSynth_CallbackStops(t *testing.T) {
	s, err := NewSynth(SynthConfig{FPS: 1000})
	require.NoError(t, err)

	n, err := s.Run(context.Background(), func(f Frame) error {
		if f.Seq == 3 {
			return ErrStopped
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	boom := errors.New("sink closed")
	n, err = s.Run(context.Background(), func(Frame) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestSynth_ContextCancelled(t *testing.T) {
	s, err := NewSynth(SynthConfig{FPS: 200})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n, err := s.Run(ctx, func(Frame) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, n, 0)
}

func TestSynth_MaxBurst(t *testing.T) {
	s, err := NewSynth(SynthConfig{FPS: 100, MaxBurst: 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Pacer().Stats().MaxBurst)
}

func TestSynth_RunRestartsSchedule(t *testing.T) {
	clock := newManualClock()
	s, err := NewSynth(SynthConfig{FPS: 1000, Frames: 2, Clock: clock})
	require.NoError(t, err)

	_, err = s.Run(context.Background(), func(Frame) error { return nil })
	require.NoError(t, err)
	stats := s.Pacer().Stats()
	assert.Equal(t, int64(2), stats.TotalFrames)
	assert.Equal(t, time.Millisecond, stats.TotalWaitTime)

	var first Frame
	_, err = s.Run(context.Background(), func(f Frame) error {
		if f.Seq == 0 {
			first = f
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), first.Timestamp)
	assert.Equal(t, int64(2), s.Pacer().Stats().TotalFrames)
}
