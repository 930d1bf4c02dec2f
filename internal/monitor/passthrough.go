package monitor

import "io"

// Reader returns a reader that yields r's bytes unchanged and counts every
// non-empty Read as one buffer.
func (m *Monitor) Reader(r io.Reader) io.Reader {
	return &countingReader{r: r, m: m}
}

// Writer returns a writer that forwards to w unchanged and counts every
// non-empty Write as one buffer.
func (m *Monitor) Writer(w io.Writer) io.Writer {
	return &countingWriter{w: w, m: m}
}

type countingReader struct {
	r io.Reader
	m *Monitor
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		// Measurement never interferes with the stream; a stopped engine
		// simply misses the buffer.
		_ = c.m.Observe(n)
	}
	return n, err
}

type countingWriter struct {
	w io.Writer
	m *Monitor
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		_ = c.m.Observe(n)
	}
	return n, err
}
