// Package services defines shared utilities consumed by the vision engine,
// the background synthesis worker and the external provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp vision IDs, user IDs, task kinds and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper, and the mapping from
//     those markers to HTTP statuses and stable error codes.
//
// Use these helpers when wiring new engine logic so operational behaviour
// (error handling, observability) stays uniform across the API.
package services
