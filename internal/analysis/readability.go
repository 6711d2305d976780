package analysis

import (
	"math"
	"regexp"
	"strings"

	"resumescore/internal/textnorm"
)

var sentenceBreak = regexp.MustCompile(`[.!?]+(?:\s|$)|\n`)

// readability approximates Flesch reading ease on a 0-100 scale.
func readability(doc *Document) int {
	sentences, words, syllables := 0, 0, 0
	for _, segment := range sentenceBreak.Split(doc.Text, -1) {
		tokens := textnorm.Words(segment)
		if !hasLetters(tokens) {
			continue
		}
		sentences++
		words += len(tokens)
		for _, t := range tokens {
			syllables += countSyllables(t)
		}
	}

	if sentences == 0 || words == 0 {
		return 0
	}

	ease := 206.835 -
		1.015*(float64(words)/float64(sentences)) -
		84.6*(float64(syllables)/float64(words))
	return clamp(int(math.Round(ease)))
}

func hasLetters(tokens []string) bool {
	for _, t := range tokens {
		if textnorm.Letters(t) {
			return true
		}
	}
	return false
}

// countSyllables counts vowel groups, dropping a silent trailing "e".
// Every word has at least one syllable.
func countSyllables(word string) int {
	groups := 0
	inVowel := false
	for _, r := range word {
		if strings.ContainsRune("aeiouy", r) {
			if !inVowel {
				groups++
			}
			inVowel = true
			continue
		}
		inVowel = false
	}

	if groups > 1 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") {
		groups--
	}
	return max(groups, 1)
}
