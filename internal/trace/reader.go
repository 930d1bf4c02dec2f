// Package trace reads recorded buffer traces and replays them through a
// perf engine on a virtual clock.
//
// A trace is JSON lines, one buffer per line:
//
//	{"ts": 0, "size": 1316}
//	{"ts": 33.3, "size": 1204}
//
// Field locations are gjson paths; JSONPath-style "$.a.b" and "a[0]" forms
// are accepted too.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultTimestampPath locates the arrival time of a buffer.
	DefaultTimestampPath = "ts"
	// DefaultSizePath locates the buffer size in bytes.
	DefaultSizePath = "size"
	// DefaultTimestampUnit is the unit of the timestamp field.
	DefaultTimestampUnit = time.Millisecond

	maxLineSize = 1 << 20
)

// Record is one buffer of a trace.
type Record struct {
	// Timestamp is the arrival time relative to the trace origin
	Timestamp time.Duration
	Size      uint64
	Line      int
}

// Options configures how trace lines are interpreted.
type Options struct {
	TimestampPath string
	SizePath      string
	TimestampUnit time.Duration
}

func (o *Options) setDefaults() {
	if o.TimestampPath == "" {
		o.TimestampPath = DefaultTimestampPath
	}
	if o.SizePath == "" {
		o.SizePath = DefaultSizePath
	}
	if o.TimestampUnit <= 0 {
		o.TimestampUnit = DefaultTimestampUnit
	}
	o.TimestampPath = gjsonPath(o.TimestampPath)
	o.SizePath = gjsonPath(o.SizePath)
}

// Reader decodes a trace one record at a time.
type Reader struct {
	scanner *bufio.Scanner
	opts    Options
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts Options) *Reader {
	opts.setDefaults()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{scanner: scanner, opts: opts}
}

// Next returns the next record. Blank lines are skipped. It returns io.EOF
// after the last record; any other error names the offending line.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		return r.parse(text)
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("trace line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

func (r *Reader) parse(text string) (Record, error) {
	if !gjson.Valid(text) {
		return Record{}, fmt.Errorf("trace line %d: invalid JSON", r.line)
	}

	ts := gjson.Get(text, r.opts.TimestampPath)
	if ts.Type != gjson.Number {
		return Record{}, fmt.Errorf("trace line %d: %s is missing or not a number", r.line, r.opts.TimestampPath)
	}
	size := gjson.Get(text, r.opts.SizePath)
	if size.Type != gjson.Number {
		return Record{}, fmt.Errorf("trace line %d: %s is missing or not a number", r.line, r.opts.SizePath)
	}

	stamp := ts.Float() * float64(r.opts.TimestampUnit)
	if stamp < 0 || math.IsInf(stamp, 0) || stamp > math.MaxInt64 {
		return Record{}, fmt.Errorf("trace line %d: timestamp %s out of range", r.line, ts.Raw)
	}
	if size.Float() < 0 || size.Float() != math.Trunc(size.Float()) {
		return Record{}, fmt.Errorf("trace line %d: size %s is not a byte count", r.line, size.Raw)
	}

	return Record{
		Timestamp: time.Duration(stamp),
		Size:      size.Uint(),
		Line:      r.line,
	}, nil
}

// gjsonPath converts a JSONPath expression such as $.frame["size"] or
// $.sizes[0] to gjson syntax. Plain gjson paths are returned unchanged.
func gjsonPath(path string) string {
	if !strings.HasPrefix(path, "$") && !strings.Contains(path, "[") {
		return path
	}

	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	replacer := strings.NewReplacer(`['`, ".", `']`, "", `["`, ".", `"]`, "", "[", ".", "]", "")
	path = replacer.Replace(path)
	path = strings.TrimPrefix(path, ".")

	if path == "" {
		return "@this"
	}
	return path
}
