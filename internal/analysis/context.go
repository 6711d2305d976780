package analysis

import "resumescore/internal/taxonomy"

// IndustryContext is the ordered set of categories inferred for a document.
// It always holds at least one entry.
type IndustryContext []string

// Has reports whether the context includes category.
func (c IndustryContext) Has(category string) bool {
	for _, name := range c {
		if name == category {
			return true
		}
	}
	return false
}

// General reports whether no industry was detected.
func (c IndustryContext) General() bool {
	return len(c) == 1 && c[0] == taxonomy.GeneralCategory
}

// minContextTerms is how many distinct terms of an industry must appear
// for it to join the context without any indicator.
const minContextTerms = 2

// detectContext returns, in taxonomy order, every industry with at least
// one indicator or minContextTerms distinct terms present as whole words.
// It returns {general} when none qualify.
func (e *Engine) detectContext(doc *Document) IndustryContext {
	var ctx IndustryContext
	for _, c := range e.tax.Industries() {
		if e.patterns.countWords(doc, c.Indicators) > 0 ||
			e.patterns.countWords(doc, c.Terms) >= minContextTerms {
			ctx = append(ctx, c.Name)
		}
	}
	if len(ctx) == 0 {
		return IndustryContext{taxonomy.GeneralCategory}
	}
	return ctx
}
