package analysis

import (
	"fmt"
	"sort"
	"strings"

	"resumescore/internal/types"
)

// CapRule bounds the strengths and weaknesses shown for overall scores
// strictly above Above.
type CapRule struct {
	Above      int `mapstructure:"above" json:"above"`
	Strengths  int `mapstructure:"strengths" json:"strengths"`
	Weaknesses int `mapstructure:"weaknesses" json:"weaknesses"`
}

// CapTable is ordered from the highest threshold down. The last rule
// applies to every score not covered by an earlier one.
type CapTable []CapRule

// DefaultCapTable favours strengths for strong résumés and weaknesses for
// weak ones.
func DefaultCapTable() CapTable {
	return CapTable{
		{Above: 70, Strengths: 3, Weaknesses: 1},
		{Above: 50, Strengths: 2, Weaknesses: 2},
		{Above: -1, Strengths: 1, Weaknesses: 3},
	}
}

// Validate checks ordering and that every rule allows at least one line.
func (t CapTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("cap table must not be empty")
	}
	for i, r := range t {
		if r.Strengths < 1 || r.Weaknesses < 1 {
			return fmt.Errorf("cap rule %d must allow at least one strength and one weakness", i)
		}
		if i > 0 && r.Above >= t[i-1].Above {
			return fmt.Errorf("cap rules must be ordered by descending threshold (rule %d)", i)
		}
	}
	return nil
}

// Lookup returns the rule for an overall score.
func (t CapTable) Lookup(score int) CapRule {
	for _, r := range t {
		if score > r.Above {
			return r
		}
	}
	return t[len(t)-1]
}

const (
	strengthThreshold = 70
	weaknessThreshold = 60

	fallbackStrength = "Your resume passed the ATS document checks and gives you a solid base to build on"
	fallbackWeakness = "No major weaknesses detected; keep tailoring keywords to each job description"
)

// reportInput is everything the synthesizer reads.
type reportInput struct {
	scores     types.SubScores
	overall    int
	context    IndustryContext
	keywords   KeywordMatch
	structure  Breakdown
	experience experienceFacts
	skills     skillFacts
}

// candidate is one strength or weakness line with its rank. Lower ranks
// sort first.
type candidate struct {
	rank int
	text string
}

// Dimension ranks follow the composite weights: experience carries the
// most weight, readability the least.
const (
	rankExperience = iota + 1
	rankFormatting
	rankKeywords
	rankSkills
	rankEducation
	rankReadability
)

func (e *Engine) narrative(in reportInput) (strengths, weaknesses []string) {
	var goods, bads []candidate
	judge := func(rank, score int, good, bad string) {
		switch {
		case score >= strengthThreshold:
			goods = append(goods, candidate{rank, good})
		case score < weaknessThreshold:
			bads = append(bads, candidate{rank, bad})
		}
	}

	s := in.scores
	ctx := contextLabel(in.context)

	judge(rankExperience, s.Experience,
		fmt.Sprintf("Experience is written with impact: %d quantified results and %d strong action verbs", in.experience.quantified, in.experience.actionVerbs),
		"Experience descriptions lack measurable results and strong action verbs")
	judge(rankFormatting, s.Formatting,
		"Clear ATS-friendly structure with standard sections and contact details",
		"Resume structure is missing elements ATS parsers expect: "+strings.Join(in.structure.Penalties(), ", "))
	judge(rankKeywords, s.Keywords,
		fmt.Sprintf("Strong keyword coverage with %d relevant terms for %s roles", len(in.keywords.Present), ctx),
		fmt.Sprintf("Only %d relevant keywords found for %s roles", len(in.keywords.Present), ctx))
	judge(rankSkills, s.Skills,
		fmt.Sprintf("Well-rounded skill set covering %d skill categories", in.skills.kinds()),
		"Skills coverage is narrow; add both technical and interpersonal skills")
	judge(rankEducation, s.Education,
		"Education credentials are clearly presented",
		"Education section lacks clear degree or institution details")
	judge(rankReadability, s.Readability,
		"Concise, easy-to-scan writing",
		"Long or complex sentences make the resume harder to scan")

	caps := e.opts.Caps.Lookup(in.overall)
	strengths = truncate(goods, caps.Strengths, fallbackStrength)
	weaknesses = truncate(bads, caps.Weaknesses, fallbackWeakness)
	return strengths, weaknesses
}

func truncate(cands []candidate, limit int, fallback string) []string {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rank < cands[j].rank })
	if len(cands) > limit {
		cands = cands[:limit]
	}
	if len(cands) == 0 {
		return []string{fallback}
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.text
	}
	return out
}

// Suggestion thresholds.
const (
	formattingSuggestBelow  = 80
	formattingHighBelow     = 60
	keywordTarget           = 15
	keywordSevereBelow      = 5
	keywordModerateBelow    = 10
	experienceSuggestBelow  = 70
	skillsSuggestBelow      = 70
	contentHighBelow        = 50
	readabilitySuggestBelow = 30
	suggestedKeywordCount   = 5
)

var priorityOrder = map[string]int{
	types.PriorityHigh:   0,
	types.PriorityMedium: 1,
	types.PriorityLow:    2,
}

func (e *Engine) suggestions(in reportInput) []types.Suggestion {
	s := in.scores
	out := []types.Suggestion{}

	if s.Formatting < formattingSuggestBelow {
		priority := types.PriorityMedium
		if s.Formatting < formattingHighBelow {
			priority = types.PriorityHigh
		}
		out = append(out, types.Suggestion{
			ID:          "formatting-structure",
			Category:    types.CategoryFormatting,
			Priority:    priority,
			Title:       "Fix resume structure for ATS parsing",
			Description: "Address these structural issues: " + strings.Join(in.structure.Penalties(), ", ") + ".",
			Impact:      "Improves how reliably screening software reads your resume",
		})
	}

	if present := len(in.keywords.Present); present < keywordTarget {
		out = append(out, keywordSuggestion(present, in.keywords.Missing, in.context))
	}

	if s.Experience < experienceSuggestBelow {
		out = append(out, types.Suggestion{
			ID:          "experience-quantify",
			Category:    types.CategoryContent,
			Priority:    contentPriority(s.Experience),
			Title:       "Quantify your achievements",
			Description: "Start bullet points with action verbs and add measurable results such as percentages, revenue, budgets or team sizes.",
			Impact:      "Quantified results make accomplishments credible to recruiters",
		})
	}

	if s.Skills < skillsSuggestBelow {
		out = append(out, types.Suggestion{
			ID:          "skills-breadth",
			Category:    types.CategorySkills,
			Priority:    contentPriority(s.Skills),
			Title:       "Broaden your skills section",
			Description: skillsAdvice(in.skills),
			Impact:      "A balanced skills section matches more job requirements",
		})
	}

	if s.Readability < readabilitySuggestBelow {
		out = append(out, types.Suggestion{
			ID:          "readability-simplify",
			Category:    types.CategoryContent,
			Priority:    types.PriorityLow,
			Title:       "Simplify your sentences",
			Description: "Shorten long sentences and prefer plain words so recruiters can scan each bullet quickly.",
			Impact:      "Easier reading keeps reviewers engaged",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityOrder[out[i].Priority] < priorityOrder[out[j].Priority]
	})
	return out
}

func keywordSuggestion(present int, missing []string, ctx IndustryContext) types.Suggestion {
	top := missing
	if len(top) > suggestedKeywordCount {
		top = top[:suggestedKeywordCount]
	}
	terms := "relevant industry terms"
	if len(top) > 0 {
		terms = strings.Join(top, ", ")
	}
	label := contextLabel(ctx)

	s := types.Suggestion{
		ID:       "keywords-coverage",
		Category: types.CategoryKeywords,
	}
	switch {
	case present < keywordSevereBelow:
		s.Priority = types.PriorityHigh
		s.Title = "Add essential keywords"
		s.Description = fmt.Sprintf("Your resume contains very few keywords screening systems look for in %s roles. Work in terms such as %s where they reflect your real experience.", label, terms)
		s.Impact = "Critical for passing automated keyword filters"
	case present < keywordModerateBelow:
		s.Priority = types.PriorityMedium
		s.Title = "Strengthen keyword coverage"
		s.Description = fmt.Sprintf("Add more %s keywords to your summary and experience, for example %s.", label, terms)
		s.Impact = "Raises your ranking in keyword-based searches"
	default:
		s.Priority = types.PriorityLow
		s.Title = "Fine-tune keywords"
		s.Description = fmt.Sprintf("Keyword coverage is close to target. Consider adding %s.", terms)
		s.Impact = "Small gains in keyword match rate"
	}
	return s
}

func skillsAdvice(f skillFacts) string {
	var gaps []string
	if f.technical == 0 {
		gaps = append(gaps, "technical tools")
	}
	if f.soft == 0 {
		gaps = append(gaps, "interpersonal strengths")
	}
	if f.business == 0 {
		gaps = append(gaps, "business skills")
	}
	if len(gaps) == 0 {
		return "List more of the specific skills the roles you target ask for, grouped under a dedicated Skills heading."
	}
	return "Add " + strings.Join(gaps, " and ") + " under a dedicated Skills heading."
}

func contentPriority(score int) string {
	if score < contentHighBelow {
		return types.PriorityHigh
	}
	return types.PriorityMedium
}

func contextLabel(ctx IndustryContext) string {
	return strings.Join(ctx, "/")
}
