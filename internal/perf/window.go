package perf

// Window is a fixed-capacity ring buffer of bitrate samples. Storage grows
// with the samples pushed, so a large capacity costs nothing until it fills.
//
// Window is not safe for concurrent use; the Engine guards it with its own
// lock.
type Window struct {
	samples []float64
	size    uint32
	head    int // Next write position once full
}

// NewWindow creates a window holding at most size samples.
func NewWindow(size uint32) *Window {
	return &Window{size: size}
}

// Push stores v, displacing the oldest sample once the window is full.
//
// When full is true, evicted is the sample that v replaced.
func (w *Window) Push(v float64) (evicted float64, full bool) {
	if w.size == 0 {
		return 0, false
	}

	if uint64(len(w.samples)) < uint64(w.size) {
		w.samples = append(w.samples, v)
		return 0, false
	}

	evicted = w.samples[w.head]
	w.samples[w.head] = v
	w.head = (w.head + 1) % len(w.samples)
	return evicted, true
}

// Len returns the number of samples held.
func (w *Window) Len() int {
	return len(w.samples)
}

// Cap returns the window size.
func (w *Window) Cap() uint32 {
	return w.size
}

// Samples returns the held samples in chronological order.
func (w *Window) Samples() []float64 {
	result := make([]float64, 0, len(w.samples))
	result = append(result, w.samples[w.head:]...)
	return append(result, w.samples[:w.head]...)
}

// Reset drops all samples, keeping the capacity.
func (w *Window) Reset() {
	w.samples = w.samples[:0]
	w.head = 0
}
