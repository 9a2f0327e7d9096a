// Package vision owns the vision session: its data model, the status state
// machine, the category aggregator that folds a scored answer into the
// session, and the Service that runs the submit/ask/process loop on top of a
// Repository.
//
// Background work (titles, summaries, full synthesis) is handed to a
// Scheduler; the package never blocks a request on it.
package vision
