// Package store persists vision sessions in SQLite.
//
// Three tables hold the data: visions, responses (append-only, ordered by an
// autoincrement sequence) and category_states (one row per scored category,
// replaced on every score). Responses and states cascade when their vision is
// deleted. A submission writes its response, the touched states and the new
// completeness in one transaction.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch and must be removed.
package store
