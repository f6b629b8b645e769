// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FormatText renders styled, human-readable output.
	FormatText OutputFormat = "text"
	// FormatYAML renders YAML.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidSkipDir is returned when a skip_dirs entry is empty or contains a separator.
	ErrInvalidSkipDir = errors.New("invalid skip dir")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how results are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidSkipDirError is returned for a skip_dirs entry that is not a plain directory name.
	InvalidSkipDirError struct {
		Value string
	}

	// InvalidConfigError aggregates field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Output configures result rendering
		Output OutputConfig `json:"output" yaml:"output" mapstructure:"output"`
		// UI configures the user interface
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`
		// Cache configures the resolution cache for archives and repositories
		Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
		// Workspace configures workspace member expansion
		Workspace WorkspaceConfig `json:"workspace" yaml:"workspace" mapstructure:"workspace"`
	}

	// OutputConfig configures result rendering.
	OutputConfig struct {
		// Format is the default output format
		Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and full error chains
		Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	}

	// CacheConfig configures the on-disk cache of resolved results.
	CacheConfig struct {
		// Enabled turns the cache on for immutable sources (default: true)
		Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
		// Dir is the cache directory; empty selects the user cache directory
		Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
	}

	// WorkspaceConfig configures workspace member expansion.
	WorkspaceConfig struct {
		// SkipDirs are directory names never searched for members
		SkipDirs []string `json:"skip_dirs" yaml:"skip_dirs" mapstructure:"skip_dirs"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Format: FormatText},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Cache:     CacheConfig{Enabled: true},
		Workspace: WorkspaceConfig{SkipDirs: []string{"target", ".git"}},
	}
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats,
// and a list of validation errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatYAML, FormatJSON:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, yaml, json)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface for InvalidSkipDirError.
func (e *InvalidSkipDirError) Error() string {
	return fmt.Sprintf("invalid skip dir %q: must be a single directory name", e.Value)
}

// Unwrap returns ErrInvalidSkipDir for errors.Is() compatibility.
func (e *InvalidSkipDirError) Unwrap() error { return ErrInvalidSkipDir }

// IsValid returns whether the Config has valid fields.
// Environment overrides bypass the CUE schema, so this runs on every load.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, dir := range c.Workspace.SkipDirs {
		if strings.TrimSpace(dir) == "" || strings.ContainsAny(dir, `/\`) {
			errs = append(errs, &InvalidSkipDirError{Value: dir})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns the field errors so errors.Is matches both ErrInvalidConfig
// and the individual field sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
