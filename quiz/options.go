package quiz

import (
	"math/rand"
	"regexp"
	"unicode/utf8"
)

const (
	optionCount     = 4
	minOptionLength = 6
)

var (
	tokenPattern       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	fallbackVocabulary = []string{"Anatomy", "Physiology", "Pathology", "Pharmacology"}
)

// Vocabulary is the deduplicated set of distractor candidates of a document.
type Vocabulary []string

// NewVocabulary collects the distinct words longer than five characters in
// order of first appearance, padded with the fallback words when fewer than
// four qualify.
func NewVocabulary(text string) Vocabulary {
	seen := make(map[string]bool)
	var words Vocabulary
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if utf8.RuneCountInString(tok) < minOptionLength || seen[tok] {
			continue
		}
		seen[tok] = true
		words = append(words, tok)
	}
	if len(words) < optionCount {
		for _, w := range fallbackVocabulary {
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	return words
}

// Sample draws four distinct words without replacement.
func (v Vocabulary) Sample(rng *rand.Rand) []string {
	out := make([]string, 0, optionCount)
	for _, i := range rng.Perm(len(v))[:optionCount] {
		out = append(out, v[i])
	}
	return out
}

// SynthesizeOptions returns four distinct candidate options drawn from text.
func SynthesizeOptions(text string, rng *rand.Rand) []string {
	return NewVocabulary(text).Sample(rng)
}
