// Package logging wraps log/slog with the handlers and attribute helpers the
// extractor uses everywhere.
//
// Two formats are supported: a compact console handler for interactive use
// and a JSON handler for machine consumption. Shared field name constants
// keep run, page, and component attributes consistent across packages.
package logging
