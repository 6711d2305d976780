// Package textnorm folds document text and taxonomy terms into one
// comparable form: lowercase, accents removed, typographic punctuation
// mapped to ASCII.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-", "‑", "-", "‐", "-",
	" ", " ",
)

// Fold lowercases s and strips combining marks, so "Résumé" becomes "resume".
func Fold(s string) string {
	if s == "" {
		return s
	}
	// A fresh chain per call: transform.Chain is stateful and not safe to share.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(punctuation.Replace(folded))
}

// Words splits folded text into alphanumeric tokens. Inner apostrophes,
// dots, plus and hash signs stay attached so "node.js", "c++" and "don't"
// survive as single tokens.
func Words(folded string) []string {
	var words []string
	start := -1
	runesOf := []rune(folded)
	for i, r := range runesOf {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && isJoiner(r) && i+1 < len(runesOf) && isWordRune(runesOf[i+1]) {
			continue
		}
		if start >= 0 && (r == '+' || r == '#') {
			continue
		}
		if start >= 0 {
			words = append(words, string(runesOf[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, string(runesOf[start:]))
	}
	return words
}

// Letters reports whether w contains at least one letter.
func Letters(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '.' || r == '-' || r == '/'
}
