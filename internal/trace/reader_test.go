package trace

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Record {
	t.Helper()
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

func TestReader_Defaults(t *testing.T) {
	input := `{"ts": 0, "size": 1316}

{"ts": 33.5, "size": 1204, "kind": "P"}
`
	records := readAll(t, NewReader(strings.NewReader(input), Options{}))

	require.Len(t, records, 2)
	assert.Equal(t, Record{Timestamp: 0, Size: 1316, Line: 1}, records[0])
	assert.Equal(t, Record{Timestamp: 33500 * time.Microsecond, Size: 1204, Line: 3}, records[1])
}

func TestReader_CustomPaths(t *testing.T) {
	input := `{"pts": {"us": 40000}, "buffer": {"bytes": [512]}}`
	r := NewReader(strings.NewReader(input), Options{
		TimestampPath: "$.pts.us",
		SizePath:      "$.buffer.bytes[0]",
		TimestampUnit: time.Microsecond,
	})

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, rec.Timestamp)
	assert.Equal(t, uint64(512), rec.Size)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"invalid json", "{\"ts\": 0, \"size\": 1}\n{ts: 1}", "trace line 2: invalid JSON"},
		{"missing size", `{"ts": 5}`, "trace line 1: size is missing or not a number"},
		{"string timestamp", `{"ts": "5", "size": 1}`, "trace line 1: ts is missing or not a number"},
		{"negative size", `{"ts": 5, "size": -3}`, "trace line 1: size -3 is not a byte count"},
		{"fractional size", `{"ts": 5, "size": 1.5}`, "trace line 1: size 1.5 is not a byte count"},
		{"negative timestamp", `{"ts": -1, "size": 1}`, "trace line 1: timestamp -1 out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), Options{})
			var err error
			for err == nil {
				_, err = r.Next()
			}
			require.NotEqual(t, io.EOF, err)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestGjsonPath(t *testing.T) {
	tests := map[string]string{
		"ts":                 "ts",
		"frame.size":         "frame.size",
		"$":                  "@this",
		"$.frame.size":       "frame.size",
		"$.sizes[1]":         "sizes.1",
		`$['frame']['size']`: "frame.size",
		`$["frame"].size`:    "frame.size",
		"$[0].ts":            "0.ts",
	}
	for in, want := range tests {
		assert.Equal(t, want, gjsonPath(in), in)
	}
}
