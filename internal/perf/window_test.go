package perf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_FillThenEvict(t *testing.T) {
	w := NewWindow(3)

	for i, v := range []float64{1, 2, 3} {
		evicted, full := w.Push(v)
		assert.False(t, full, "push %d", i)
		assert.Equal(t, 0.0, evicted)
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{1, 2, 3}, w.Samples())

	evicted, full := w.Push(4)
	assert.True(t, full)
	assert.Equal(t, 1.0, evicted)
	assert.Equal(t, []float64{2, 3, 4}, w.Samples())

	evicted, full = w.Push(5)
	assert.True(t, full)
	assert.Equal(t, 2.0, evicted)
	assert.Equal(t, []float64{3, 4, 5}, w.Samples())
}

func TestWindow_ZeroCapacity(t *testing.T) {
	w := NewWindow(0)

	evicted, full := w.Push(10)
	assert.False(t, full)
	assert.Equal(t, 0.0, evicted)
	assert.Equal(t, 0, w.Len())
	assert.Empty(t, w.Samples())
}

func TestWindow_Reset(t *testing.T) {
	w := NewWindow(2)
	w.Push(1)
	w.Push(2)
	w.Push(3)

	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, uint32(2), w.Cap())
	_, full := w.Push(9)
	assert.False(t, full)
	assert.Equal(t, []float64{9}, w.Samples())
}

func TestWindow_LargeCapacityGrowsWithSamples(t *testing.T) {
	w := NewWindow(math.MaxUint32)

	for i := 0; i < 1000; i++ {
		_, full := w.Push(float64(i))
		require.False(t, full)
	}

	assert.Equal(t, 1000, w.Len())
	assert.Equal(t, uint32(math.MaxUint32), w.Cap())
	assert.LessOrEqual(t, cap(w.samples), 2048)
}

func TestWindow_ResetAfterWrap(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	require.Equal(t, []float64{3, 4, 5}, w.Samples())

	w.Reset()
	w.Push(7)
	w.Push(8)
	assert.Equal(t, []float64{7, 8}, w.Samples())

	w.Push(9)
	evicted, full := w.Push(10)
	assert.True(t, full)
	assert.Equal(t, 7.0, evicted)
	assert.Equal(t, []float64{8, 9, 10}, w.Samples())
}
