// Package config loads, normalizes, and validates sonido configuration.
//
// Settings come from a TOML file found through an explicit path, the
// SONIDO_CONFIG environment variable, ~/.config/sonido/config.toml, or
// ./sonido.toml, in that order. Missing files are not an error: Default
// values apply and command-line flags override whatever was loaded.
package config
