package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/streamperf/internal/output"
	"github.com/wesleyorama2/streamperf/internal/perf"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultElementName, cfg.Element.Name)
	assert.Equal(t, perf.DefaultSettings(), cfg.Element.Settings())
	assert.Equal(t, output.FormatConsole, cfg.Output.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig_YAML(t *testing.T) {
	data := []byte(`
element:
  name: video-src
  printCpuLoad: true
  bitrateInterval: 250
  bitrateWindowSize: 8
output:
  format: json
  noColor: true
exporter:
  addr: ":9105"
logging:
  level: debug
`)

	cfg, err := ParseConfig(data, "streamperf.yaml")
	require.NoError(t, err)

	assert.Equal(t, "video-src", cfg.Element.Name)
	assert.Equal(t, perf.Settings{PrintCPULoad: true, BitrateInterval: 250, BitrateWindowSize: 8}, cfg.Element.Settings())
	assert.Equal(t, output.FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.NoColor)
	assert.Equal(t, ":9105", cfg.Exporter.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseConfig_JSON(t *testing.T) {
	data := []byte(`{"element": {"bitrateInterval": 1000}, "output": {"format": "yaml"}}`)

	cfg, err := ParseConfig(data, "streamperf.json")
	require.NoError(t, err)

	assert.Equal(t, DefaultElementName, cfg.Element.Name)
	assert.Equal(t, uint32(1000), cfg.Element.BitrateInterval)
	assert.Equal(t, uint32(0), cfg.Element.BitrateWindowSize)
	assert.Equal(t, output.FormatYAML, cfg.Output.Format)
}

func TestParseConfig_EmptyUsesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""), "empty.yml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseConfig_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{
			name:  "wrong type",
			data:  "element:\n  bitrateInterval: fast\n",
			field: "element.bitrateInterval",
		},
		{
			name:  "negative interval",
			data:  "element:\n  bitrateWindowSize: -1\n",
			field: "element.bitrateWindowSize",
		},
		{
			name:  "unknown format",
			data:  "output:\n  format: xml\n",
			field: "output.format",
		},
		{
			name:  "unknown level",
			data:  "logging:\n  level: verbose\n",
			field: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), "bad.yaml")
			require.Error(t, err)

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T: %v", err, err)

			var fields []string
			for _, e := range verrs.Errors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestParseConfig_UnknownKeyRejected(t *testing.T) {
	_, err := ParseConfig([]byte(`{"element": {"interval": 10}}`), "bad.json")

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.Error(), "interval")
}

func TestParseConfig_MalformedInput(t *testing.T) {
	_, err := ParseConfig([]byte("{not json"), "bad.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON config")

	_, err = ParseConfig([]byte("element: [unterminated"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamperf.yml")
	require.NoError(t, os.WriteFile(path, []byte("element:\n  name: sink\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sink", cfg.Element.Name)
}

func TestLoadConfig_NotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:   "blank name",
			modify: func(c *Config) { c.Element.Name = "  " },
			fields: []string{"element.name"},
		},
		{
			name:   "bad format",
			modify: func(c *Config) { c.Output.Format = "csv" },
			fields: []string{"output.format"},
		},
		{
			name: "conflicting color settings",
			modify: func(c *Config) {
				c.Output.NoColor = true
				c.Output.ForceColor = true
			},
			fields: []string{"output.forceColor"},
		},
		{
			name:   "addr without port",
			modify: func(c *Config) { c.Exporter.Addr = "localhost" },
			fields: []string{"exporter.addr"},
		},
		{
			name:   "addr with empty port",
			modify: func(c *Config) { c.Exporter.Addr = "localhost:" },
			fields: []string{"exporter.addr"},
		},
		{
			name: "several problems",
			modify: func(c *Config) {
				c.Element.Name = ""
				c.Logging.Level = "trace"
			},
			fields: []string{"element.name", "logging.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs.Errors, len(tt.fields))
			for i, field := range tt.fields {
				assert.Equal(t, field, verrs.Errors[i].Field)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("element.name", "name is required")
	assert.Equal(t, "validation error on field 'element.name': name is required", errs.Error())

	errs.Add("", "something else")
	assert.Contains(t, errs.Error(), "2 validation errors:")
	assert.Contains(t, errs.Error(), "2. validation error: something else")
}
