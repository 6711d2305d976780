package analysis

import (
	"fmt"
	"unicode/utf8"
)

// minDocumentLength is the character count below which a text needs at
// least one structural signal to be considered a résumé.
const minDocumentLength = 200

// minProfileSections is how many profile sections a network profile export
// needs to be accepted without traditional headers.
const minProfileSections = 2

// verdict is the outcome of the non-document gate.
type verdict struct {
	accepted bool
	reason   string
}

// gate decides whether text is a résumé at all. It only ever returns a
// verdict; malformed input is a rejection, not an error.
func (e *Engine) gate(doc *Document, sig signals) verdict {
	if sig.profileURL && sig.profileSections() >= minProfileSections {
		return verdict{accepted: true}
	}

	if domain, ok := e.exclusionaryDomain(doc, sig); ok {
		return verdict{
			reason: fmt.Sprintf("This document does not appear to be a resume: it reads like %s boilerplate rather than a career history", domain),
		}
	}

	if utf8.RuneCountInString(doc.Raw) < minDocumentLength && !sig.anyStructure() {
		return verdict{
			reason: "This document does not appear to be a resume: it is too short and has no resume sections or contact details",
		}
	}

	return verdict{accepted: true}
}

// exclusionaryDomain reports the first boilerplate vocabulary the document
// matches as whole words. A document with at least two core résumé
// sections is never excluded, so candidates from those industries are
// still scored.
func (e *Engine) exclusionaryDomain(doc *Document, sig signals) (string, bool) {
	ex := e.tax.Exclusions
	if ex.MinMatches == 0 || sig.coreSections() >= 2 {
		return "", false
	}

	for _, domain := range ex.Domains {
		if e.patterns.countWords(doc, domain.Terms) >= ex.MinMatches {
			return domain.Name + " document", true
		}
	}
	return "", false
}
