// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/cargoscope/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/cargoscope/config.cue on
// macOS, %APPDATA%\cargoscope\config.cue on Windows). CARGOSCOPE_* environment
// variables override file values, e.g. CARGOSCOPE_OUTPUT_FORMAT=json.
//
// Configuration files are validated against the embedded CUE schema
// (config_schema.cue) before they are merged into Viper.
package config
