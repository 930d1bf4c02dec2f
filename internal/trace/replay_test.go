package trace

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/streamperf/internal/monitor"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

type collector struct {
	snaps []perf.Snapshot
}

func (c *collector) Report(snap perf.Snapshot) error {
	c.snaps = append(c.snaps, snap)
	return nil
}

// evenTrace returns n buffers of size bytes spaced step milliseconds apart.
func evenTrace(n int, step float64, size int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "{\"ts\": %g, \"size\": %d}\n", float64(i)*step, size)
	}
	return sb.String()
}

func replay(t *testing.T, settings perf.Settings, input string) (Summary, []perf.Snapshot) {
	t.Helper()
	c := &collector{}
	p := &Replayer{Settings: settings, Reporters: []monitor.Reporter{c}}

	summary, err := p.Run(context.Background(), NewReader(strings.NewReader(input), Options{}))
	require.NoError(t, err)
	return summary, c.snaps
}

func TestReplayer_TicksOnIntervalBoundaries(t *testing.T) {
	settings := perf.Settings{BitrateInterval: 100}
	summary, snaps := replay(t, settings, evenTrace(20, 10, 1000))

	assert.Equal(t, 20, summary.Records)
	assert.Equal(t, 190*time.Millisecond, summary.Duration)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, summary.Snapshots)

	// Ten buffers of 1000 bytes in the first 100 ms.
	assert.InDelta(t, 100.0, snaps[0].FPS, 1e-9)
	assert.InDelta(t, 800000.0, snaps[0].Bps, 1e-6)
	assert.InDelta(t, 800000.0, snaps[0].MeanBps, 1e-6)
	assert.Equal(t, Origin.Add(100*time.Millisecond), snaps[0].Timestamp)

	// Flush covers the remaining ten buffers over 90 ms.
	assert.InDelta(t, 1000.0/9, snaps[1].FPS, 1e-9)
	assert.InDelta(t, 80000000.0/90, snaps[1].Bps, 1e-6)
	assert.InDelta(t, (800000.0+80000000.0/90)/2, snaps[1].MeanBps, 1e-6)
	assert.Equal(t, uint64(20), snaps[1].FrameCountTotal)
	assert.Equal(t, uint64(20000), snaps[1].ByteCountTotal)
	assert.Nil(t, snaps[1].CPULoad)

	assert.Equal(t, snaps[1], summary.Last)
}

func TestReplayer_GapsProduceZeroRateTicks(t *testing.T) {
	input := "{\"ts\": 0, \"size\": 500}\n{\"ts\": 350, \"size\": 500}\n"
	_, snaps := replay(t, perf.Settings{BitrateInterval: 100}, input)

	require.Len(t, snaps, 4)
	assert.InDelta(t, 10.0, snaps[0].FPS, 1e-9)
	assert.Zero(t, snaps[1].FPS)
	assert.Zero(t, snaps[2].FPS)
	assert.InDelta(t, 20.0, snaps[3].FPS, 1e-9)
}

func TestReplayer_Deterministic(t *testing.T) {
	settings := perf.Settings{BitrateInterval: 40, BitrateWindowSize: 3}
	input := evenTrace(50, 7.5, 1316)

	_, first := replay(t, settings, input)
	_, second := replay(t, settings, input)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Timestamp, second[i].Timestamp)
		assert.Equal(t, first[i].FPS, second[i].FPS)
		assert.Equal(t, first[i].Bps, second[i].Bps)
		assert.Equal(t, first[i].MeanBps, second[i].MeanBps)
	}
}

func TestReplayer_ZeroIntervalTicksEveryRecord(t *testing.T) {
	_, snaps := replay(t, perf.Settings{BitrateInterval: 0}, evenTrace(4, 10, 100))

	// Ticks at 10, 20 and 30 ms; the flush at 30 ms has nothing left to cover.
	require.Len(t, snaps, 3)
	for _, snap := range snaps {
		assert.InDelta(t, 100.0, snap.FPS, 1e-9)
	}
}

func TestReplayer_EmptyTrace(t *testing.T) {
	summary, snaps := replay(t, perf.DefaultSettings(), "\n\n")
	assert.Zero(t, summary.Records)
	assert.Empty(t, snaps)
}

func TestReplayer_StopsOnBadLine(t *testing.T) {
	p := &Replayer{Settings: perf.DefaultSettings()}
	input := "{\"ts\": 0, \"size\": 1}\nnot json\n"

	summary, err := p.Run(context.Background(), NewReader(strings.NewReader(input), Options{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace line 2")
	assert.Equal(t, 1, summary.Records)
}

func TestReplayer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Replayer{Settings: perf.DefaultSettings()}
	_, err := p.Run(ctx, NewReader(strings.NewReader(evenTrace(3, 10, 1)), Options{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVirtualClock(t *testing.T) {
	c := NewVirtualClock(Origin)
	c.Set(Origin.Add(time.Second))
	c.Set(Origin)
	assert.Equal(t, Origin.Add(time.Second), c.Now())
}
