package analysis

import (
	"regexp"

	"resumescore/internal/taxonomy"
)

var (
	emailPattern   = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phonePattern   = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}\b`)
	profilePattern = regexp.MustCompile(`(?:linkedin\.com/in/|xing\.com/profile/)[a-z0-9_%-]+`)
	datePattern    = regexp.MustCompile(`\b(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(?:19|20)\d{2}|\d{1,2}/(?:19|20)\d{2}|(?:19|20)\d{2})\b`)
	bulletPattern  = regexp.MustCompile(`(?m)^[ \t]*(?:[•●▪◦‣∙■□➢➤✓*-]|\d{1,2}[.)])[ \t]+\S`)
)

// signals are the structural facts shared by the gate and the
// structural compliance checker.
type signals struct {
	experience      bool
	education       bool
	skills          bool
	certifications  bool
	summary         bool
	accomplishments bool

	email      bool
	phone      bool
	profileURL bool

	dates   int
	bullets int
}

func detectSignals(doc *Document, tax *taxonomy.Taxonomy, p patterns) signals {
	s := tax.Sections
	has := func(terms []string) bool { return p.countWords(doc, terms) > 0 }

	return signals{
		experience:      has(s.Experience),
		education:       has(s.Education),
		skills:          has(s.Skills),
		certifications:  has(s.Certifications),
		summary:         has(s.Summary),
		accomplishments: has(s.Accomplishments),

		email:      emailPattern.MatchString(doc.Text),
		phone:      phonePattern.MatchString(doc.Text),
		profileURL: profilePattern.MatchString(doc.Text),

		dates:   len(datePattern.FindAllStringIndex(doc.Text, -1)),
		bullets: len(bulletPattern.FindAllStringIndex(doc.Text, -1)),
	}
}

// coreSections counts the experience, education and skills indicators.
func (s signals) coreSections() int {
	return countTrue(s.experience, s.education, s.skills)
}

// profileSections counts all six sections a network profile export may carry.
func (s signals) profileSections() int {
	return countTrue(s.experience, s.education, s.skills, s.certifications, s.summary, s.accomplishments)
}

func (s signals) anyStructure() bool {
	return s.experience || s.education || s.skills || s.email || s.phone
}

func countTrue(vals ...bool) int {
	n := 0
	for _, v := range vals {
		if v {
			n++
		}
	}
	return n
}
