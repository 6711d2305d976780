package analysis

import (
	"math"
	"sort"
	"strings"

	"resumescore/internal/taxonomy"
)

// Weights used to rank missing keywords.
const (
	generalTermWeight    = 2
	industryTermWeight   = 3
	highDemandBonus      = 4
	presentWordBonus     = 1
	densityWordsFraction = 0.02
)

// DefaultMaxMissing caps the missing-keyword list.
const DefaultMaxMissing = 12

var (
	fallbackPresent = []string{"communication"}
	fallbackMissing = []string{"leadership"}
)

// KeywordMatch is the result of matching the candidate terms.
type KeywordMatch struct {
	Candidates []string
	Present    []string
	Missing    []string
	Density    float64
}

// selectCandidates returns the general terms followed by the first
// IndustryTermLimit terms of every category in ctx, deduplicated.
func (e *Engine) selectCandidates(ctx IndustryContext) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(terms []string) {
		for _, t := range terms {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	add(e.tax.General().Terms)
	for _, c := range e.tax.Industries() {
		if !ctx.Has(c.Name) {
			continue
		}
		terms := c.Terms
		if limit := e.tax.IndustryTermLimit; len(terms) > limit {
			terms = terms[:limit]
		}
		add(terms)
	}
	return out
}

func (e *Engine) matchKeywords(doc *Document, ctx IndustryContext) KeywordMatch {
	candidates := e.selectCandidates(ctx)

	present := make([]string, 0, len(candidates))
	var missing []string
	for _, term := range candidates {
		if e.matchers.Match(term, doc) {
			present = append(present, term)
		} else {
			missing = append(missing, term)
		}
	}

	missing = e.rankMissing(missing, doc, ctx)
	if len(missing) > e.opts.MaxMissing {
		missing = missing[:e.opts.MaxMissing]
	}

	if len(present) == 0 && len(missing) == 0 {
		present = append([]string(nil), fallbackPresent...)
		missing = append([]string(nil), fallbackMissing...)
	}
	if missing == nil {
		missing = []string{}
	}

	return KeywordMatch{
		Candidates: candidates,
		Present:    present,
		Missing:    missing,
		Density:    keywordDensity(len(present), doc.WordCount()),
	}
}

// rankMissing orders terms by relevance to the document. The sort is stable,
// so equal scores keep taxonomy order.
func (e *Engine) rankMissing(terms []string, doc *Document, ctx IndustryContext) []string {
	scores := make(map[string]int, len(terms))
	for _, t := range terms {
		scores[t] = e.missingScore(t, doc, ctx)
	}

	ranked := append([]string(nil), terms...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}

func (e *Engine) missingScore(term string, doc *Document, ctx IndustryContext) int {
	score := 0
	for _, category := range e.tax.CategoriesOf(term) {
		switch {
		case category == taxonomy.GeneralCategory:
			score += generalTermWeight
		case ctx.Has(category):
			score += industryTermWeight
		}
	}
	if e.tax.IsHighDemand(term) {
		score += highDemandBonus
	}
	for _, w := range strings.Fields(term) {
		if doc.HasToken(w) {
			score += presentWordBonus
		}
	}
	return score
}

// keywordDensity is present terms per 2% of the word count, as a percentage
// capped at 100 and rounded to two decimals.
func keywordDensity(present, words int) float64 {
	expected := math.Max(float64(words)*densityWordsFraction, 1)
	d := math.Min(float64(present)/expected*100, 100)
	return math.Round(d*100) / 100
}
