// Package daemon coordinates the long-running envision process.
//
// It wires configuration, the session store, the vision service and the
// synthesis worker into a single lifecycle with flock-based locking to prevent
// multiple instances on one data directory, and serves the HTTP API.
//
// Keep orchestration logic here: scoring and question logic live in their
// own packages while the daemon focuses on startup, shutdown, request
// plumbing and authentication.
package daemon
