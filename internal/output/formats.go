package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

// Format represents the available snapshot output formats
type Format string

const (
	// FormatConsole is the default human-readable line format
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line
	FormatJSON Format = "json"
	// FormatYAML writes one YAML document per snapshot
	FormatYAML Format = "yaml"
)

// Reporter renders snapshots.
type Reporter interface {
	Report(snap perf.Snapshot) error
}

// Options configure a reporter built by New.
type Options struct {
	Name    string
	NoColor bool
	// ForceColor enables colors even when the writer is not a terminal
	ForceColor bool
}

// New returns the reporter for format, writing to w.
func New(format Format, w io.Writer, opts Options) (Reporter, error) {
	switch format {
	case FormatConsole, "":
		scheme := NoColorScheme()
		if opts.ForceColor {
			scheme = ForcedColorScheme()
		} else if !opts.NoColor && UseColors(w) {
			scheme = DefaultColorScheme()
		}
		return NewConsole(w, opts.Name, scheme), nil
	case FormatJSON:
		return NewJSONLines(w, opts.Name), nil
	case FormatYAML:
		return NewYAML(w, opts.Name), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want console, json or yaml)", format)
	}
}

// Record is the serialized form of a snapshot.
type Record struct {
	Element       string `json:"element" yaml:"element"`
	perf.Snapshot `yaml:",inline"`
}

// JSONLines writes snapshots as newline-delimited JSON.
type JSONLines struct {
	mu   sync.Mutex
	enc  *json.Encoder
	name string
}

// NewJSONLines creates a JSON lines reporter.
func NewJSONLines(w io.Writer, name string) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w), name: name}
}

// Report implements monitor.Reporter.
func (j *JSONLines) Report(snap perf.Snapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(Record{Element: j.name, Snapshot: snap})
}

// YAML writes snapshots as a stream of YAML documents.
type YAML struct {
	mu   sync.Mutex
	w    io.Writer
	name string
}

// NewYAML creates a YAML reporter.
func NewYAML(w io.Writer, name string) *YAML {
	return &YAML{w: w, name: name}
}

// Report implements monitor.Reporter.
func (y *YAML) Report(snap perf.Snapshot) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	data, err := yaml.Marshal(Record{Element: y.name, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := io.WriteString(y.w, "---\n"); err != nil {
		return err
	}
	_, err = y.w.Write(data)
	return err
}
