// Package taxonomy holds the versioned keyword catalog the analysis engine
// matches against. A Taxonomy is parsed once, validated, and then treated as
// read-only for the rest of its life.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/textnorm"

	"gopkg.in/yaml.v3"
)

// GeneralCategory is always part of every candidate keyword set.
const GeneralCategory = "general"

const defaultIndustryTermLimit = 15

//go:embed default.yaml
var defaultAsset []byte

// Taxonomy is the immutable keyword catalog.
type Taxonomy struct {
	Version           string              `yaml:"version" json:"version"`
	IndustryTermLimit int                 `yaml:"industryTermLimit" json:"industryTermLimit"`
	Categories        []Category          `yaml:"categories" json:"categories"`
	Synonyms          map[string][]string `yaml:"synonyms" json:"synonyms"`
	HighDemand        []string            `yaml:"highDemand" json:"highDemand"`
	Sections          Sections            `yaml:"sections" json:"sections"`
	Lexicons          Lexicons            `yaml:"lexicons" json:"lexicons"`
	Exclusions        Exclusions          `yaml:"exclusions" json:"exclusions"`

	highDemand map[string]bool
	membership map[string][]string
}

// Category is one domain bucket of canonical terms. Indicators are the terms
// whose presence puts the category into a document's industry context.
type Category struct {
	Name       string   `yaml:"name" json:"name"`
	Indicators []string `yaml:"indicators,omitempty" json:"indicators,omitempty"`
	Terms      []string `yaml:"terms" json:"terms"`
}

// Sections lists the header vocabulary for each résumé section.
type Sections struct {
	Experience      []string `yaml:"experience" json:"experience"`
	Education       []string `yaml:"education" json:"education"`
	Skills          []string `yaml:"skills" json:"skills"`
	Certifications  []string `yaml:"certifications" json:"certifications"`
	Summary         []string `yaml:"summary" json:"summary"`
	Accomplishments []string `yaml:"accomplishments" json:"accomplishments"`
}

// Lexicons are the term lists used by the content quality assessors.
type Lexicons struct {
	ActionVerbs      []string `yaml:"actionVerbs" json:"actionVerbs"`
	TitleTerms       []string `yaml:"titleTerms" json:"titleTerms"`
	TechnicalSkills  []string `yaml:"technicalSkills" json:"technicalSkills"`
	SoftSkills       []string `yaml:"softSkills" json:"softSkills"`
	BusinessSkills   []string `yaml:"businessSkills" json:"businessSkills"`
	DegreeTerms      []string `yaml:"degreeTerms" json:"degreeTerms"`
	InstitutionTerms []string `yaml:"institutionTerms" json:"institutionTerms"`
	HonorsTerms      []string `yaml:"honorsTerms" json:"honorsTerms"`
}

// Exclusions describes non-résumé vocabularies used by the document gate.
type Exclusions struct {
	MinMatches int               `yaml:"minMatches" json:"minMatches"`
	Domains    []ExclusionDomain `yaml:"domains" json:"domains"`
}

// ExclusionDomain is a named boilerplate vocabulary such as insurance policies.
type ExclusionDomain struct {
	Name  string   `yaml:"name" json:"name"`
	Terms []string `yaml:"terms" json:"terms"`
}

// Default returns the taxonomy embedded in the binary.
func Default() (*Taxonomy, error) {
	return Parse(defaultAsset)
}

// Load reads and validates a taxonomy file. An empty path yields the default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "taxonomy file not found", err).
				WithContext("path", path)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read taxonomy file", err).
			WithContext("path", path)
	}

	tax, err := Parse(data)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return tax, nil
}

// Parse decodes YAML, normalizes every term and validates the result.
func Parse(data []byte) (*Taxonomy, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidTaxonomy, "failed to parse taxonomy", err)
	}

	tax.normalize()

	if err := tax.Validate(); err != nil {
		return nil, err
	}

	tax.index()
	return &tax, nil
}

// Validate checks the structural preconditions the engine relies on.
func (t *Taxonomy) Validate() error {
	invalid := func(msg string, args ...any) error {
		return errors.NewConfigError(errors.ErrCodeInvalidTaxonomy, fmt.Sprintf(msg, args...), nil)
	}

	if len(t.Categories) == 0 {
		return invalid("taxonomy has no categories")
	}
	if t.IndustryTermLimit < 0 {
		return invalid("industryTermLimit must not be negative, got %d", t.IndustryTermLimit)
	}

	seen := make(map[string]bool, len(t.Categories))
	hasGeneral := false
	for _, c := range t.Categories {
		if c.Name == "" {
			return invalid("category without a name")
		}
		if seen[c.Name] {
			return invalid("duplicate category %q", c.Name)
		}
		seen[c.Name] = true

		if len(c.Terms) == 0 {
			return invalid("category %q has no terms", c.Name)
		}
		if c.Name == GeneralCategory {
			hasGeneral = true
			continue
		}
		if len(c.Indicators) == 0 {
			return invalid("industry category %q has no indicators", c.Name)
		}
	}
	if !hasGeneral {
		return invalid("taxonomy must define a %q category", GeneralCategory)
	}

	for canonical, variants := range t.Synonyms {
		if canonical == "" {
			return invalid("synonym entry without a canonical term")
		}
		if len(variants) == 0 {
			return invalid("synonym entry %q has no variants", canonical)
		}
	}

	if len(t.Sections.Experience) == 0 || len(t.Sections.Education) == 0 || len(t.Sections.Skills) == 0 {
		return invalid("experience, education and skills section vocabularies are required")
	}
	if t.Exclusions.MinMatches < 0 {
		return invalid("exclusions.minMatches must not be negative")
	}

	return nil
}

// General returns the always-included category.
func (t *Taxonomy) General() Category {
	c, _ := t.Category(GeneralCategory)
	return c
}

// Category looks up a category by name.
func (t *Taxonomy) Category(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Industries returns every category except general, in declaration order.
func (t *Taxonomy) Industries() []Category {
	out := make([]Category, 0, len(t.Categories))
	for _, c := range t.Categories {
		if c.Name != GeneralCategory {
			out = append(out, c)
		}
	}
	return out
}

// SynonymsOf returns the registered variants of a canonical term.
func (t *Taxonomy) SynonymsOf(term string) []string {
	return t.Synonyms[term]
}

// IsHighDemand reports whether term is on the high-demand list.
func (t *Taxonomy) IsHighDemand(term string) bool {
	return t.highDemand[term]
}

// CategoriesOf lists every category containing term, in declaration order.
func (t *Taxonomy) CategoriesOf(term string) []string {
	return t.membership[term]
}

// Stats summarizes the taxonomy for display and health endpoints.
type Stats struct {
	Version    string         `json:"version"`
	Categories map[string]int `json:"categories"`
	Synonyms   int            `json:"synonyms"`
	HighDemand int            `json:"highDemand"`
}

// Stats returns term counts per category.
func (t *Taxonomy) Stats() Stats {
	counts := make(map[string]int, len(t.Categories))
	for _, c := range t.Categories {
		counts[c.Name] = len(c.Terms)
	}
	return Stats{
		Version:    t.Version,
		Categories: counts,
		Synonyms:   len(t.Synonyms),
		HighDemand: len(t.HighDemand),
	}
}

// Marshal renders the taxonomy back to YAML.
func (t *Taxonomy) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

func (t *Taxonomy) normalize() {
	if t.IndustryTermLimit == 0 {
		t.IndustryTermLimit = defaultIndustryTermLimit
	}

	for i := range t.Categories {
		t.Categories[i].Name = normalizeTerm(t.Categories[i].Name)
		t.Categories[i].Indicators = normalizeList(t.Categories[i].Indicators)
		t.Categories[i].Terms = normalizeList(t.Categories[i].Terms)
	}

	synonyms := make(map[string][]string, len(t.Synonyms))
	for canonical, variants := range t.Synonyms {
		key := normalizeTerm(canonical)
		synonyms[key] = append(synonyms[key], normalizeList(variants)...)
	}
	t.Synonyms = synonyms

	t.HighDemand = normalizeList(t.HighDemand)

	s := &t.Sections
	for _, list := range []*[]string{&s.Experience, &s.Education, &s.Skills, &s.Certifications, &s.Summary, &s.Accomplishments} {
		*list = normalizeList(*list)
	}

	l := &t.Lexicons
	for _, list := range []*[]string{&l.ActionVerbs, &l.TitleTerms, &l.TechnicalSkills, &l.SoftSkills,
		&l.BusinessSkills, &l.DegreeTerms, &l.InstitutionTerms, &l.HonorsTerms} {
		*list = normalizeList(*list)
	}

	for i := range t.Exclusions.Domains {
		t.Exclusions.Domains[i].Terms = normalizeList(t.Exclusions.Domains[i].Terms)
	}
}

func (t *Taxonomy) index() {
	t.highDemand = make(map[string]bool, len(t.HighDemand))
	for _, term := range t.HighDemand {
		t.highDemand[term] = true
	}

	t.membership = make(map[string][]string)
	for _, c := range t.Categories {
		for _, term := range c.Terms {
			t.membership[term] = append(t.membership[term], c.Name)
		}
	}
}

func normalizeTerm(s string) string {
	return textnorm.Fold(strings.Join(strings.Fields(s), " "))
}

// normalizeList lowercases, trims and deduplicates while keeping order.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		n := normalizeTerm(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
