// Package analysis is the deterministic résumé scoring engine. An Engine is
// built once from a validated taxonomy and is safe for concurrent use; every
// call to Analyze is a pure function of the request text.
package analysis

import (
	"context"
	"sync/atomic"

	"resumescore/internal/errors"
	"resumescore/internal/taxonomy"
	"resumescore/internal/types"

	"golang.org/x/sync/errgroup"
)

// Options tune an Engine. The zero value selects every default.
type Options struct {
	Weights    Weights
	Caps       CapTable
	MaxMissing int
	// Parallel runs the independent assessors concurrently. Results are
	// identical either way.
	Parallel bool
	// Matchers replaces the default matcher chain when non-empty.
	Matchers []Matcher
}

// Engine scores résumés against one taxonomy.
type Engine struct {
	tax      *taxonomy.Taxonomy
	opts     Options
	patterns patterns
	matchers MatcherChain
}

// New validates options and precompiles every taxonomy term.
func New(tax *taxonomy.Taxonomy, opts Options) (*Engine, error) {
	if tax == nil {
		return nil, errors.NewConfigError(errors.ErrCodeTaxonomyNotLoaded, "analysis engine requires a taxonomy", nil)
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if len(opts.Caps) == 0 {
		opts.Caps = DefaultCapTable()
	}
	if opts.MaxMissing <= 0 {
		opts.MaxMissing = DefaultMaxMissing
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid score weights", err)
	}
	if err := opts.Caps.Validate(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid report cap table", err)
	}

	p := compileTaxonomy(tax)
	e := &Engine{
		tax:      tax,
		opts:     opts,
		patterns: p,
		matchers: defaultMatchers(p, tax.SynonymsOf),
	}
	if len(opts.Matchers) > 0 {
		e.matchers = MatcherChain(opts.Matchers)
	}
	return e, nil
}

func compileTaxonomy(tax *taxonomy.Taxonomy) patterns {
	p := patterns{}
	for _, c := range tax.Categories {
		p.add(c.Indicators...)
		p.add(c.Terms...)
	}
	for _, variants := range tax.Synonyms {
		p.add(variants...)
	}
	s := tax.Sections
	p.add(s.Experience...)
	p.add(s.Education...)
	p.add(s.Skills...)
	p.add(s.Certifications...)
	p.add(s.Summary...)
	p.add(s.Accomplishments...)

	l := tax.Lexicons
	for _, list := range [][]string{l.ActionVerbs, l.TitleTerms, l.TechnicalSkills, l.SoftSkills,
		l.BusinessSkills, l.DegreeTerms, l.InstitutionTerms, l.HonorsTerms} {
		p.add(list...)
	}
	for _, d := range tax.Exclusions.Domains {
		p.add(d.Terms...)
	}
	return p
}

// Taxonomy returns the catalog the engine was built from.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.tax
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Analyze scores one document. Non-résumé input is reported through
// IsValidDocument, never as an error.
func (e *Engine) Analyze(req types.AnalysisRequest) types.AnalysisResult {
	doc := NewDocument(req.DocumentText)
	sig := detectSignals(doc, e.tax, e.patterns)

	if v := e.gate(doc, sig); !v.accepted {
		return rejected(req, v.reason)
	}

	ctx := e.detectContext(doc)
	kw := e.matchKeywords(doc, ctx)

	var (
		structure  Breakdown
		experience Breakdown
		expFacts   experienceFacts
		skills     Breakdown
		skFacts    skillFacts
		education  Breakdown
		readable   int
	)
	tasks := []func(){
		func() { structure = checkStructure(sig) },
		func() { experience, expFacts = e.assessExperience(doc) },
		func() { skills, skFacts = e.assessSkills(doc, sig) },
		func() { education = e.assessEducation(doc) },
		func() { readable = readability(doc) },
	}
	e.run(tasks)

	scores := types.SubScores{
		Formatting:  structure.Score(),
		Keywords:    keywordScore(len(kw.Present)),
		Experience:  experience.Score(),
		Skills:      skills.Score(),
		Education:   education.Score(),
		Readability: readable,
	}
	overall := e.opts.Weights.overall(scores.Formatting, scores.Experience, scores.Skills, scores.Education, scores.Readability)

	in := reportInput{
		scores:     scores,
		overall:    overall,
		context:    ctx,
		keywords:   kw,
		structure:  structure,
		experience: expFacts,
		skills:     skFacts,
	}
	strengths, weaknesses := e.narrative(in)

	result := types.AnalysisResult{
		DocumentID:       req.DocumentID,
		UserID:           req.UserID,
		OverallScore:     overall,
		ATSCompatibility: e.opts.Weights.ats(scores.Formatting, scores.Keywords, scores.Experience),
		ReadabilityScore: scores.Readability,
		SubScores:        scores,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		Suggestions:      e.suggestions(in),
		PresentKeywords:  kw.Present,
		MissingKeywords:  kw.Missing,
		KeywordDensity:   kw.Density,
		IsValidDocument:  true,
		IndustryContext:  append([]string(nil), ctx...),
	}
	if req.Detailed() {
		result.Breakdown = &types.ScoreBreakdown{
			Formatting: structure,
			Experience: experience,
			Skills:     skills,
			Education:  education,
		}
	}
	return result
}

// keywords runs candidate selection and matching for one text.
func (e *Engine) keywords(text string) (IndustryContext, KeywordMatch) {
	doc := NewDocument(text)
	ctx := e.detectContext(doc)
	return ctx, e.matchKeywords(doc, ctx)
}

func (e *Engine) run(tasks []func()) {
	if !e.opts.Parallel {
		for _, t := range tasks {
			t()
		}
		return
	}

	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			t()
			return nil
		})
	}
	_ = g.Wait()
}

func rejected(req types.AnalysisRequest, reason string) types.AnalysisResult {
	return types.AnalysisResult{
		DocumentID:      req.DocumentID,
		UserID:          req.UserID,
		Strengths:       []string{},
		Weaknesses:      []string{reason},
		Suggestions:     []types.Suggestion{},
		PresentKeywords: []string{},
		MissingKeywords: []string{},
		IsValidDocument: false,
	}
}

// Holder publishes the current engine to concurrent readers and lets a
// taxonomy reload swap it without locking the request path.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder wraps an initial engine.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	return h
}

// Engine returns the engine in effect.
func (h *Holder) Engine() *Engine {
	return h.current.Load()
}

// Reload builds an engine from tax with the current options and swaps it in.
// On error the previous engine stays in effect.
func (h *Holder) Reload(tax *taxonomy.Taxonomy) error {
	next, err := New(tax, h.Engine().Options())
	if err != nil {
		return err
	}
	h.current.Store(next)
	return nil
}

// AnalyzeContext runs Analyze unless ctx is already done. The engine itself
// never blocks; this is for hosts that propagate request deadlines.
func (h *Holder) AnalyzeContext(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return types.AnalysisResult{}, errors.NewAnalysisError(errors.ErrCodeAnalysisFailed, "analysis cancelled", err)
	}
	return h.Engine().Analyze(req), nil
}
