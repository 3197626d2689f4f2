// Package journal persists extraction run history in SQLite.
//
// One row per run records the filter set, page progress, row counters, the
// output files produced, and a terminal status with error classification.
// The journal is metadata only: extracted records never enter the database.
// Its main purpose is letting a user review past runs and pick the start
// page when resuming a long extraction.
//
// Schema changes bump the version in schema.go; users delete the database
// file to adopt the new schema.
package journal
