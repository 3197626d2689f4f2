// Package flatten converts the schema-less nested records the PNCP API
// returns into single-level rows keyed by dotted paths, ready for CSV export.
package flatten
