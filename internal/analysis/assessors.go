package analysis

import (
	"fmt"
	"regexp"
)

// Structural penalties.
const (
	missingSectionPenalty = -15
	missingContactPenalty = -10
	fewDatesPenalty       = -10
	fewBulletsPenalty     = -15

	minDates   = 2
	minBullets = 3
)

var quantifiedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:\.\d+)?\s?%`),
	regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|mm|b|bn|million|billion|thousand)\b)?`),
	regexp.MustCompile(`\b\d+(?:\.\d+)?x\b`),
	regexp.MustCompile(`\b\d+\+?\s+years?\b`),
	regexp.MustCompile(`\b\d+\+?\s+(?:people|engineers|employees|staff|clients|customers|users|members|reports|projects|stores|locations|patients|accounts)\b`),
}

// checkStructure scores ATS-relevant structure, starting at 100.
func checkStructure(sig signals) Breakdown {
	b := Breakdown{}.add("base score", 100)

	if !sig.experience {
		b = b.add("missing experience section", missingSectionPenalty)
	}
	if !sig.education {
		b = b.add("missing education section", missingSectionPenalty)
	}
	if !sig.skills {
		b = b.add("missing skills section", missingSectionPenalty)
	}
	if !sig.email {
		b = b.add("no email address", missingContactPenalty)
	}
	if !sig.phone {
		b = b.add("no phone number", missingContactPenalty)
	}
	if sig.dates < minDates {
		b = b.add(fmt.Sprintf("fewer than %d dates", minDates), fewDatesPenalty)
	}
	if sig.bullets < minBullets {
		b = b.add(fmt.Sprintf("fewer than %d bullet points", minBullets), fewBulletsPenalty)
	}
	return b
}

// experienceFacts are the raw counts behind the experience score.
type experienceFacts struct {
	quantified  int
	actionVerbs int
	titles      int
}

func (e *Engine) assessExperience(doc *Document) (Breakdown, experienceFacts) {
	facts := experienceFacts{
		quantified:  countQuantified(doc.Text),
		actionVerbs: e.countMatches(doc, e.tax.Lexicons.ActionVerbs),
		titles:      e.countMatches(doc, e.tax.Lexicons.TitleTerms),
	}

	b := Breakdown{}.add("base score", 50)
	if facts.quantified > 0 {
		b = b.add(fmt.Sprintf("%d quantified achievements", facts.quantified), capped(facts.quantified, 6, 30))
	}
	if facts.actionVerbs > 0 {
		b = b.add(fmt.Sprintf("%d distinct action verbs", facts.actionVerbs), capped(facts.actionVerbs, 2, 20))
	}
	if facts.titles > 0 {
		b = b.add(fmt.Sprintf("%d job title terms", facts.titles), capped(facts.titles, 5, 10))
	}
	return b, facts
}

func countQuantified(text string) int {
	n := 0
	for _, re := range quantifiedPatterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// skillFacts records how many distinct skills of each kind were found.
type skillFacts struct {
	technical int
	soft      int
	business  int
}

func (f skillFacts) kinds() int {
	return countTrue(f.technical > 0, f.soft > 0, f.business > 0)
}

func (e *Engine) assessSkills(doc *Document, sig signals) (Breakdown, skillFacts) {
	lex := e.tax.Lexicons
	facts := skillFacts{
		technical: e.countMatches(doc, lex.TechnicalSkills),
		soft:      e.countMatches(doc, lex.SoftSkills),
		business:  e.countMatches(doc, lex.BusinessSkills),
	}

	b := Breakdown{}.add("base score", 30)
	if sig.skills {
		b = b.add("dedicated skills section", 15)
	}
	if facts.technical > 0 {
		b = b.add(fmt.Sprintf("%d technical skills", facts.technical), capped(facts.technical, 3, 30))
	}
	if facts.soft > 0 {
		b = b.add(fmt.Sprintf("%d soft skills", facts.soft), capped(facts.soft, 5, 25))
	}
	if facts.business > 0 {
		b = b.add(fmt.Sprintf("%d business skills", facts.business), capped(facts.business, 4, 20))
	}
	if kinds := facts.kinds(); kinds >= 2 {
		b = b.add("skills span multiple categories", 10)
		if kinds == 3 {
			b = b.add("skills span every category", 5)
		}
	}
	return b, facts
}

func (e *Engine) assessEducation(doc *Document) Breakdown {
	lex := e.tax.Lexicons
	degrees := e.countMatches(doc, lex.DegreeTerms)
	institutions := e.countMatches(doc, lex.InstitutionTerms)
	honors := e.countMatches(doc, lex.HonorsTerms)

	b := Breakdown{}.add("base score", 60)
	if degrees > 0 {
		b = b.add(fmt.Sprintf("%d degree terms", degrees), degrees*10)
	}
	if institutions > 0 {
		b = b.add(fmt.Sprintf("%d institution terms", institutions), institutions*5)
	}
	if honors > 0 {
		b = b.add("GPA or honors listed", 10)
	}
	return b
}

// countMatches counts distinct terms the matcher chain accepts.
func (e *Engine) countMatches(doc *Document, terms []string) int {
	n := 0
	for _, t := range terms {
		if e.matchers.Match(t, doc) {
			n++
		}
	}
	return n
}
