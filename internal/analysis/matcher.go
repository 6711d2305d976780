package analysis

import (
	"strings"
	"unicode/utf8"
)

// Matcher decides whether a canonical taxonomy term is present in a
// document. Implementations must be safe for concurrent use.
type Matcher interface {
	Name() string
	Match(term string, doc *Document) bool
}

// MatcherChain tries each matcher in order and stops at the first hit.
type MatcherChain []Matcher

// Match reports whether any matcher in the chain accepts term.
func (c MatcherChain) Match(term string, doc *Document) bool {
	_, ok := c.MatchedBy(term, doc)
	return ok
}

// MatchedBy returns the name of the first matcher that accepts term.
func (c MatcherChain) MatchedBy(term string, doc *Document) (string, bool) {
	for _, m := range c {
		if m.Match(term, doc) {
			return m.Name(), true
		}
	}
	return "", false
}

// minSubstringLength keeps short terms such as "go" or "sql" from matching
// inside unrelated words; those rely on the boundary matcher instead.
const minSubstringLength = 4

// SubstringMatcher accepts terms contained anywhere in the text.
type SubstringMatcher struct {
	MinLength int
}

func (SubstringMatcher) Name() string { return "substring" }

func (m SubstringMatcher) Match(term string, doc *Document) bool {
	if utf8.RuneCountInString(term) < m.MinLength {
		return false
	}
	return strings.Contains(doc.Text, term)
}

// BoundaryMatcher accepts terms that occur as whole words.
type BoundaryMatcher struct {
	patterns patterns
}

func (BoundaryMatcher) Name() string { return "boundary" }

func (m BoundaryMatcher) Match(term string, doc *Document) bool {
	return m.patterns.hasWord(doc, term)
}

// SynonymMatcher accepts a canonical term when any registered variant is
// found by one of the direct matchers.
type SynonymMatcher struct {
	Synonyms func(term string) []string
	Direct   MatcherChain
}

func (SynonymMatcher) Name() string { return "synonym" }

func (m SynonymMatcher) Match(term string, doc *Document) bool {
	for _, variant := range m.Synonyms(term) {
		if m.Direct.Match(variant, doc) {
			return true
		}
	}
	return false
}

// CompoundMatcher handles multi-word terms: every word present on its own,
// or the hyphenated or concatenated spelling.
type CompoundMatcher struct{}

func (CompoundMatcher) Name() string { return "compound" }

func (CompoundMatcher) Match(term string, doc *Document) bool {
	parts := strings.Fields(term)
	if len(parts) < 2 {
		return false
	}

	all := true
	for _, p := range parts {
		if !doc.HasToken(p) {
			all = false
			break
		}
	}
	if all {
		return true
	}

	if strings.Contains(doc.Text, strings.Join(parts, "-")) {
		return true
	}
	return strings.Contains(doc.Text, strings.Join(parts, ""))
}

// defaultMatchers builds the standard four-step chain.
func defaultMatchers(p patterns, synonyms func(string) []string) MatcherChain {
	direct := MatcherChain{
		SubstringMatcher{MinLength: minSubstringLength},
		BoundaryMatcher{patterns: p},
	}
	return MatcherChain{
		direct[0],
		direct[1],
		SynonymMatcher{Synonyms: synonyms, Direct: direct},
		CompoundMatcher{},
	}
}
