package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/wesleyorama2/streamperf/internal/output"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the semantic rules the schema cannot express.
//
// Returns nil if valid, or a *ValidationErrors containing every problem.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if strings.TrimSpace(c.Element.Name) == "" {
		errs.Add("element.name", "name is required")
	}

	switch c.Output.Format {
	case output.FormatConsole, output.FormatJSON, output.FormatYAML:
	default:
		errs.Add("output.format", fmt.Sprintf("unknown format: %q", c.Output.Format))
	}
	if c.Output.NoColor && c.Output.ForceColor {
		errs.Add("output.forceColor", "cannot be combined with noColor")
	}

	if c.Exporter.Addr != "" {
		if _, port, err := net.SplitHostPort(c.Exporter.Addr); err != nil {
			errs.Add("exporter.addr", fmt.Sprintf("invalid listen address: %v", err))
		} else if port == "" {
			errs.Add("exporter.addr", "port is required")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs.Add("logging.level", fmt.Sprintf("unknown level: %q", c.Logging.Level))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
