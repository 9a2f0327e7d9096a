// Package logging assembles structured slog loggers and formatting helpers used
// across envision.
//
// It owns the configurable console/JSON handlers, writes a JSON copy of every
// record to the log directory, and exposes context-aware helpers so engine and
// worker code can tag log lines with vision IDs, user IDs, task kinds and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
