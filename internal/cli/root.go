// Package cli implements the streamperf command line.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

var version = "0.1.0"

// envPrefix namespaces environment overrides, e.g. STREAMPERF_BITRATE_INTERVAL.
const envPrefix = "STREAMPERF"

// Flag keys shared by every command. They double as viper keys.
const (
	keyConfig            = "config"
	keyName              = "name"
	keyPrintCPULoad      = "print-cpu-load"
	keyBitrateInterval   = "bitrate-interval"
	keyBitrateWindowSize = "bitrate-window-size"
	keyFormat            = "format"
	keyColor             = "color"
	keyNoColor           = "no-color"
	keyQuiet             = "quiet"
	keyMetricsAddr       = "metrics-addr"
	keyLogLevel          = "log-level"
)

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Settings resolve from flags, then
// environment variables prefixed with STREAMPERF, then the --config file.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "streamperf",
		Short:   "Measure frame rate, bitrate and CPU load of a media stream",
		Version: version,
		Long: `streamperf is a pass-through performance monitor for streaming media.

It counts every buffer that flows through it and periodically reports the
frame rate, the bitrate with an optional moving average, and the host CPU
load. Streams can be monitored live, replayed from a recorded trace, or
generated synthetically.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	defaults := perf.DefaultSettings()
	flags := cmd.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "Configuration file (YAML or JSON)")
	flags.String(keyName, "", "Element name used in reports and metrics")
	flags.Bool(keyPrintCPULoad, defaults.PrintCPULoad, "Report host CPU load")
	flags.Uint32(keyBitrateInterval, defaults.BitrateInterval, "Milliseconds between reports")
	flags.Uint32(keyBitrateWindowSize, defaults.BitrateWindowSize, "Bitrate samples in the moving average, 0 for a cumulative mean")
	flags.StringP(keyFormat, "f", "", "Report format (console, json, yaml)")
	flags.String(keyColor, "auto", "Color console output (auto, always, never)")
	flags.Bool(keyNoColor, false, "Disable colored console output, same as --color=never")
	flags.BoolP(keyQuiet, "q", false, "Do not print reports")
	flags.String(keyMetricsAddr, "", "Serve Prometheus metrics on this address, e.g. :9105")
	flags.String(keyLogLevel, "", "Log level (debug, info, warn, error)")

	for _, key := range []string{
		keyConfig, keyName, keyPrintCPULoad, keyBitrateInterval, keyBitrateWindowSize,
		keyFormat, keyColor, keyNoColor, keyQuiet, keyMetricsAddr, keyLogLevel,
	} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(
		newMonitorCommand(v),
		newReplayCommand(v),
		newSynthCommand(v),
		newVersionCommand(),
	)
	return cmd
}
