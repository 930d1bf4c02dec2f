package perf

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range for buffer inter-arrival times, in microseconds.
const (
	intervalHistMin     = 1
	intervalHistMax     = 3600000000 // 1 hour
	intervalHistSigFigs = 3
)

// IntervalStats summarizes the time between consecutive buffers.
type IntervalStats struct {
	P50   time.Duration `json:"p50" yaml:"p50"`
	P95   time.Duration `json:"p95" yaml:"p95"`
	P99   time.Duration `json:"p99" yaml:"p99"`
	Max   time.Duration `json:"max" yaml:"max"`
	Count int64         `json:"count" yaml:"count"`
}

// intervalRecorder tracks buffer arrival gaps in an HDR histogram.
// It is guarded by the engine lock.
type intervalRecorder struct {
	hist *hdrhistogram.Histogram
	last time.Time
}

func newIntervalRecorder() *intervalRecorder {
	return &intervalRecorder{
		hist: hdrhistogram.New(intervalHistMin, intervalHistMax, intervalHistSigFigs),
	}
}

// observe records the gap between ts and the previous buffer. Buffers
// arriving out of order are not recorded but still move the reference.
func (r *intervalRecorder) observe(ts time.Time) {
	if !r.last.IsZero() && ts.After(r.last) {
		micros := ts.Sub(r.last).Microseconds()
		if micros < intervalHistMin {
			micros = intervalHistMin
		}
		if micros > intervalHistMax {
			micros = intervalHistMax
		}
		r.hist.RecordValue(micros)
	}
	r.last = ts
}

func (r *intervalRecorder) stats() IntervalStats {
	if r.hist.TotalCount() == 0 {
		return IntervalStats{}
	}
	return IntervalStats{
		P50:   time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(r.hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(r.hist.Max()) * time.Microsecond,
		Count: r.hist.TotalCount(),
	}
}

func (r *intervalRecorder) reset() {
	r.hist.Reset()
	r.last = time.Time{}
}
