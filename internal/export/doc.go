// Package export accumulates flattened procurement rows and persists them as
// checkpointed CSV files in two locale variants.
//
// The international variant uses comma separators and dot decimals; the
// Brazilian variant uses semicolons and comma decimals, optionally encoded
// as Windows-1252 for pt-BR Excel. Because the column set grows as pages
// arrive, every checkpoint rewrites the full accumulated dataset rather than
// appending; writes go to a temp file and rename into place so an
// interrupted checkpoint never corrupts earlier output.
package export
