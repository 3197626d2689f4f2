// Package config loads, normalizes, and validates extractor configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads an optional TOML file from ~/.config/pncpx or the
// working directory. Every knob the CLI and extraction pipeline need lives
// on the Config type: API endpoint and retry policy, CSV output settings,
// the run journal location, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
