// Package config loads, defaults, normalizes, and validates the TOML
// configuration consumed by every shelfmark component.
package config
