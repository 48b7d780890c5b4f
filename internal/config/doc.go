// Package config loads, validates, and normalizes the TOML configuration
// file that drives the CLI, the vault layer, and the generation client.
package config
