// Package output renders perf snapshots for humans and machines.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

// Console writes one human-readable line per snapshot.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	name   string
	scheme *ColorScheme
	start  time.Time
}

// NewConsole creates a console reporter for element name.
func NewConsole(w io.Writer, name string, scheme *ColorScheme) *Console {
	if scheme == nil {
		scheme = NoColorScheme()
	}
	return &Console{w: w, name: name, scheme: scheme}
}

// Report implements monitor.Reporter.
func (c *Console) Report(snap perf.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.start.IsZero() || snap.Timestamp.Before(c.start) {
		c.start = snap.Timestamp.Add(-snap.Elapsed)
	}

	_, err := io.WriteString(c.w, c.format(snap))
	return err
}

func (c *Console) format(snap perf.Snapshot) string {
	s := c.scheme
	var sb strings.Builder

	sb.WriteString(s.Element.Sprint(c.name))
	sb.WriteString(": ")
	field := func(label, value string) {
		sb.WriteString(s.Label.Sprint(label))
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString(" ")
	}

	field("timestamp", FormatClock(snap.Timestamp.Sub(c.start)))
	field("fps", s.Rate.Sprintf("%.2f", snap.FPS))
	field("bitrate", s.Rate.Sprint(FormatBitrate(snap.Bps)))
	field("mean-bitrate", s.Mean.Sprint(FormatBitrate(snap.MeanBps)))
	if snap.CPULoad != nil {
		field("cpu", s.CPU(*snap.CPULoad).Sprintf("%d%%", *snap.CPULoad))
	}
	field("frames", s.Total.Sprintf("%d", snap.FrameCountTotal))
	field("bytes", s.Total.Sprintf("%d", snap.ByteCountTotal))
	if snap.FrameInterval.Count > 0 {
		field("interval-p95", s.Total.Sprint(snap.FrameInterval.P95.Round(time.Microsecond)))
	}

	return strings.TrimRight(sb.String(), " ") + "\n"
}

// FormatClock renders d as H:MM:SS.mmm.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, sec, ms)
}

// FormatBitrate renders bits per second with a decimal SI prefix.
func FormatBitrate(bps float64) string {
	switch {
	case bps >= 1e9:
		return fmt.Sprintf("%.2f Gbit/s", bps/1e9)
	case bps >= 1e6:
		return fmt.Sprintf("%.2f Mbit/s", bps/1e6)
	case bps >= 1e3:
		return fmt.Sprintf("%.2f kbit/s", bps/1e3)
	default:
		return fmt.Sprintf("%.0f bit/s", bps)
	}
}
