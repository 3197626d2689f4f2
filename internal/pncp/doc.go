// Package pncp provides the client for the public PNCP consultation API.
//
// The Client issues sequential page requests against the publication
// endpoint with a fixed page size of 50, retrying transient failures with
// bounded linear backoff and classifying rejections as configuration errors.
// The package also carries the modality table separating scope/esfera
// vocabulary from the rest of the pipeline.
package pncp
