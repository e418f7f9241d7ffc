// Package services defines shared utilities consumed by the ingestion
// pipeline, persistence layer, and external codec integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file names, pipeline stages, report keys, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is regardless of which layer produced them.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform.
package services
