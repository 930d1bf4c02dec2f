// Package config loads the streamperf configuration file.
//
// A file may be YAML or JSON; the format is chosen by extension. Loading
// starts from Default, overlays the file, checks it against the embedded
// JSON schema and finally runs Validate.
package config

import (
	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/output"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

// DefaultElementName is used when neither the file nor a flag names the
// element.
const DefaultElementName = "perf0"

// Config is the top-level configuration.
type Config struct {
	Element  ElementConfig  `json:"element" yaml:"element"`
	Output   OutputConfig   `json:"output" yaml:"output"`
	Exporter ExporterConfig `json:"exporter" yaml:"exporter"`
	Logging  logger.Config  `json:"logging" yaml:"logging"`
}

// ElementConfig holds the properties of the monitored element.
type ElementConfig struct {
	// Name labels console lines, JSON records and metrics
	Name string `json:"name" yaml:"name"`

	PrintCPULoad      bool   `json:"printCpuLoad" yaml:"printCpuLoad"`
	BitrateInterval   uint32 `json:"bitrateInterval" yaml:"bitrateInterval"`
	BitrateWindowSize uint32 `json:"bitrateWindowSize" yaml:"bitrateWindowSize"`
}

// Settings converts the element properties to engine settings.
func (e ElementConfig) Settings() perf.Settings {
	return perf.Settings{
		PrintCPULoad:      e.PrintCPULoad,
		BitrateInterval:   e.BitrateInterval,
		BitrateWindowSize: e.BitrateWindowSize,
	}
}

// OutputConfig selects how snapshots are reported.
type OutputConfig struct {
	Format  output.Format `json:"format" yaml:"format"`
	NoColor bool          `json:"noColor,omitempty" yaml:"noColor,omitempty"`

	// ForceColor colors console reports even when they are not written to
	// a terminal
	ForceColor bool `json:"forceColor,omitempty" yaml:"forceColor,omitempty"`

	// Quiet suppresses snapshot reports; metrics are still exported
	Quiet bool `json:"quiet,omitempty" yaml:"quiet,omitempty"`
}

// ExporterConfig configures the Prometheus endpoint.
type ExporterConfig struct {
	// Addr is the listen address for /metrics, empty to disable
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	settings := perf.DefaultSettings()

	cfg := &Config{
		Element: ElementConfig{
			Name:              DefaultElementName,
			PrintCPULoad:      settings.PrintCPULoad,
			BitrateInterval:   settings.BitrateInterval,
			BitrateWindowSize: settings.BitrateWindowSize,
		},
		Output: OutputConfig{
			Format: output.FormatConsole,
		},
	}
	cfg.Logging.SetDefaults()
	return cfg
}
