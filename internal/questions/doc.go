// Package questions implements the adaptive question loop: it picks the least
// sufficient category and asks a text-generation provider for one follow-up
// question aimed at that category's weakest signal.
//
// Unlike analysis, generation failures are surfaced to the caller; there is no
// safe default question.
package questions
