// Package config provides YAML-based configuration for all bulwark
// components.
//
// # Loading
//
// Configuration loads in a fixed sequence:
//
//  1. Read and parse the YAML file
//  2. Apply default values
//  3. Apply BULWARK_* environment variable overrides (optional)
//  4. Validate the final configuration
//
//	cfg, err := config.LoadWithEnvOverrides("bulwark.yaml")
//
// Validation errors are collected and returned together as a
// ValidationError with dotted field paths.
//
// # Hot Reload
//
// Watcher monitors the configuration file with fsnotify and invokes a
// reload callback after debouncing rapid write bursts. The primary use is
// hot-swapping the pricing table without restarting.
package config
