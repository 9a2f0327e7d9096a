// Package css computes the Context Sufficiency Score of a reflective answer.
//
// Calculate is a pure function of the answer text, the analyzer's structured
// signals and the category. Five channels are scored in [0,1]:
//
//	length+coverage  0.20  half word count (target 50), half coverage slots
//	specificity      0.25  numbers + names + measurables (target 5)
//	richness         0.20  sensory + emotions + body sensations (target 6)
//	action/identity  0.20  "I am" statements + future actions + behaviors (target 4)
//	coherence        0.15  1 - (0.1 hedges + 0.2 contradictions + 0.1 vagueness)
//
// The weighted sum is blended 70/30 with the provider's proposed score,
// clamped to [0,1] and rounded to two decimals. Subscores report each channel
// times its own weight; they add up to the calculated score, not to the
// blended CSS.
//
// Classify turns a score into ADVANCE (>= 0.70), CLARIFY (>= 0.40) or EVOKE.
package css
