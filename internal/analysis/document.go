package analysis

import (
	"regexp"
	"strings"

	"resumescore/internal/textnorm"
)

// Document is the folded, tokenized view of one input text that every
// matcher and assessor reads. It is never modified after construction.
type Document struct {
	Raw   string
	Text  string
	Words []string

	tokens map[string]bool
}

// NewDocument folds and tokenizes raw text.
func NewDocument(raw string) *Document {
	text := textnorm.Fold(raw)
	words := textnorm.Words(text)

	tokens := make(map[string]bool, len(words))
	for _, w := range words {
		tokens[w] = true
	}

	return &Document{
		Raw:    raw,
		Text:   text,
		Words:  words,
		tokens: tokens,
	}
}

// HasToken reports whether w occurs as a whole token.
func (d *Document) HasToken(w string) bool {
	return d.tokens[w]
}

// WordCount returns the number of tokens.
func (d *Document) WordCount() int {
	return len(d.Words)
}

// patterns holds one compiled word-boundary expression per known term.
// It is filled once by the engine and only read afterwards.
type patterns map[string]*regexp.Regexp

func boundaryPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(term) + `(?:$|[^\p{L}\p{N}])`)
}

func (p patterns) add(terms ...string) {
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := p[t]; !ok {
			p[t] = boundaryPattern(t)
		}
	}
}

func (p patterns) lookup(term string) *regexp.Regexp {
	if re, ok := p[term]; ok {
		return re
	}
	return boundaryPattern(term)
}

// hasWord is a word-boundary match of term against the document.
func (p patterns) hasWord(doc *Document, term string) bool {
	if term == "" || !strings.Contains(doc.Text, term) {
		return false
	}
	return p.lookup(term).MatchString(doc.Text)
}

// countWords returns how many of terms occur as whole words.
func (p patterns) countWords(doc *Document, terms []string) int {
	n := 0
	for _, t := range terms {
		if p.hasWord(doc, t) {
			n++
		}
	}
	return n
}
