// Package analyzer extracts structured scoring signals from one reflective
// answer by asking a language-understanding provider for a JSON analysis.
//
// Analyze never fails: provider errors, timeouts and malformed replies all
// degrade to css.FallbackAnalysis and are logged at WARN, so a submission is
// never blocked by the provider.
package analyzer
