// Package api defines wire-format types and converters for the HTTP API. It
// translates vision sessions and scoring results into transport-friendly DTOs
// so clients never couple to internal types.
//
// # Key Types
//
// Vision: a session with its ordered responses and per-category states.
//
// VisionSummary: the listing form, without responses.
//
// SubmitResponse: the scoring outcome of one answer, including the CSS of
// every category.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Categories, bands and statuses are exposed as
// lowercase or uppercase strings exactly as stored. Timestamps use RFC3339
// with milliseconds. Every category appears in css_scores, 0 when unscored.
package api
