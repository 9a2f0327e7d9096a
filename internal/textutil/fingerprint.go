package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint is a term-frequency vector used to compare short texts.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from text. It returns nil when the
// text has no tokens of three or more characters.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize lowercases text and splits it on non-alphanumerics, dropping
// tokens shorter than three characters.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// CosineSimilarity returns the cosine of two fingerprints, 0 when either is nil.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}

// MaxSimilarity returns the highest cosine similarity between candidate and
// any of the previous texts.
func MaxSimilarity(candidate string, previous []string) float64 {
	fp := NewFingerprint(candidate)
	if fp == nil {
		return 0
	}
	var best float64
	for _, text := range previous {
		if sim := CosineSimilarity(fp, NewFingerprint(text)); sim > best {
			best = sim
		}
	}
	return best
}
