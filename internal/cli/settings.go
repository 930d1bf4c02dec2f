package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/config"
	"github.com/wesleyorama2/streamperf/internal/output"
)

// resolveConfig loads the --config file, or the defaults, and overlays every
// flag or environment variable that was explicitly set.
func resolveConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString(keyConfig); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	if v.IsSet(keyName) {
		cfg.Element.Name = v.GetString(keyName)
	}
	if v.IsSet(keyPrintCPULoad) {
		cfg.Element.PrintCPULoad = v.GetBool(keyPrintCPULoad)
	}
	if v.IsSet(keyBitrateInterval) {
		cfg.Element.BitrateInterval = v.GetUint32(keyBitrateInterval)
	}
	if v.IsSet(keyBitrateWindowSize) {
		cfg.Element.BitrateWindowSize = v.GetUint32(keyBitrateWindowSize)
	}
	if v.IsSet(keyFormat) {
		cfg.Output.Format = output.Format(v.GetString(keyFormat))
	}
	if v.IsSet(keyColor) {
		switch color := v.GetString(keyColor); color {
		case "auto":
			cfg.Output.NoColor, cfg.Output.ForceColor = false, false
		case "always":
			cfg.Output.NoColor, cfg.Output.ForceColor = false, true
		case "never":
			cfg.Output.NoColor, cfg.Output.ForceColor = true, false
		default:
			return nil, fmt.Errorf("invalid --%s %q (want auto, always or never)", keyColor, color)
		}
	}
	if v.IsSet(keyNoColor) {
		cfg.Output.NoColor = v.GetBool(keyNoColor)
	}
	if v.IsSet(keyQuiet) {
		cfg.Output.Quiet = v.GetBool(keyQuiet)
	}
	if v.IsSet(keyMetricsAddr) {
		cfg.Exporter.Addr = v.GetString(keyMetricsAddr)
	}
	if v.IsSet(keyLogLevel) {
		cfg.Logging.Level = v.GetString(keyLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
