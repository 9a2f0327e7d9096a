// Package preflight provides readiness checks for the directories, database
// and LLM endpoints that envision depends on.
//
// The "envision doctor" command runs RunAll and prints every result. The
// serve command runs the filesystem and database checks before binding the
// API so a misconfigured data directory fails fast.
package preflight
