// Package synthesis runs the background work that follows an answer: title
// and category labels after the first response, summary and tagline after
// every response, and the full synthesis that settles a session's status and
// hands it to the audio generator.
//
// The Worker is a bounded in-memory queue drained by a fixed pool of
// goroutines. Tasks run at most once; a task already pending for the same
// session and kind absorbs new requests for it. Nothing survives a restart.
// Writes against a session deleted mid-flight are logged and dropped.
package synthesis
