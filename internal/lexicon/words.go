package lexicon

import "strings"

// SensoryWords are calibration examples for sensory hits.
var SensoryWords = []string{
	"see", "saw", "bright", "glow", "color", "light",
	"hear", "sound", "music", "quiet", "laughter",
	"smell", "scent", "fresh", "salt",
	"taste", "sweet", "warm", "cool", "soft", "rough", "breeze",
}

// EmotionWords are calibration examples for emotion hits.
var EmotionWords = []string{
	"joy", "calm", "peace", "grateful", "proud", "excited", "relieved",
	"confident", "content", "loved", "free", "hopeful",
	"anxious", "afraid", "sad", "angry", "ashamed", "overwhelmed",
}

// BodySensationWords are calibration examples for felt-sense hits.
var BodySensationWords = []string{
	"chest", "shoulders", "breath", "breathing", "heartbeat", "stomach",
	"tingling", "tension", "relaxed", "heavy", "light", "grounded",
}

// HedgeWords mark tentative language that lowers coherence.
var HedgeWords = []string{
	"maybe", "perhaps", "kind of", "sort of", "i guess", "probably",
	"i think", "might", "hopefully", "somewhat", "not sure",
}

// Hints renders the word lists for inclusion in a provider prompt.
func Hints() string {
	var b strings.Builder
	writeList(&b, "Sensory examples", SensoryWords)
	writeList(&b, "Emotion examples", EmotionWords)
	writeList(&b, "Body sensation examples", BodySensationWords)
	writeList(&b, "Hedge examples", HedgeWords)
	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, label string, words []string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.Join(words, ", "))
	b.WriteByte('\n')
}
