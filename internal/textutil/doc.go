// Package textutil provides the small text helpers shared by scoring, prompt
// building and the question controller.
//
// The primary use cases are:
//   - Counting words the way the length signal of the CSS calculator expects
//   - Collapsing whitespace and clipping snippets for prompts and logs
//   - Title-casing generated vision titles
//   - Term-frequency fingerprints for spotting a follow-up question that
//     repeats one the user already answered
package textutil
