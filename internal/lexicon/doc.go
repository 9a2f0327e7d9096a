// Package lexicon holds the static tables behind context sufficiency scoring.
//
// It defines the five fixed reflection categories (vision, emotion, belief,
// identity, embodiment) in their enumeration order, the named coverage slots
// each category expects an answer to address, and the required slot count
// that marks a category as covered. Slot names are unique across categories
// so analyzer output can be attributed to every category it touches.
//
// The sensory, emotion, body-sensation and hedge word lists are calibration
// hints for the analysis prompt only; scoring never reads them.
package lexicon
