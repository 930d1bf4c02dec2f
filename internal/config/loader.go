package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses data as YAML or JSON depending on the extension of
// path, then validates it. Unknown extensions are parsed as YAML.
func ParseConfig(data []byte, path string) (*Config, error) {
	doc, err := decodeDocument(data, path)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeDocument returns data as a generic JSON value for schema
// validation. YAML input is round-tripped through encoding/json so numbers
// and maps have the types the schema validator expects.
func decodeDocument(data []byte, path string) (interface{}, error) {
	var doc interface{}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		return doc, nil
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if raw == nil {
		// An empty file selects all defaults.
		return map[string]interface{}{}, nil
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML config: %w", err)
	}
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert YAML config: %w", err)
	}
	return doc, nil
}
