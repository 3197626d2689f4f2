// Package services defines the shared error taxonomy used across the
// extraction pipeline.
//
// Components wrap failures with one of the sentinel markers (configuration,
// transient, data shape, write) so the orchestrator and CLI can classify a
// terminal failure without inspecting message text. Use Wrap to attach
// component and operation context while preserving errors.Is matching.
package services
