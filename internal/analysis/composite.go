package analysis

import (
	"fmt"
	"math"
)

// Weights are the composite score coefficients. The defaults are
// empirically chosen and meant to be tuned, so they live in config.
type Weights struct {
	Formatting  float64 `mapstructure:"formatting" json:"formatting"`
	Experience  float64 `mapstructure:"experience" json:"experience"`
	Skills      float64 `mapstructure:"skills" json:"skills"`
	Education   float64 `mapstructure:"education" json:"education"`
	Readability float64 `mapstructure:"readability" json:"readability"`

	ATSFormatting float64 `mapstructure:"atsFormatting" json:"atsFormatting"`
	ATSKeywords   float64 `mapstructure:"atsKeywords" json:"atsKeywords"`
	ATSExperience float64 `mapstructure:"atsExperience" json:"atsExperience"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Formatting:  0.25,
		Experience:  0.30,
		Skills:      0.20,
		Education:   0.15,
		Readability: 0.10,

		ATSFormatting: 0.35,
		ATSKeywords:   0.35,
		ATSExperience: 0.30,
	}
}

const weightTolerance = 1e-6

// Validate requires both weight groups to be non-negative and sum to 1.
func (w Weights) Validate() error {
	groups := []struct {
		name   string
		values []float64
	}{
		{"overall", []float64{w.Formatting, w.Experience, w.Skills, w.Education, w.Readability}},
		{"ats", []float64{w.ATSFormatting, w.ATSKeywords, w.ATSExperience}},
	}

	for _, g := range groups {
		sum := 0.0
		for _, v := range g.values {
			if v < 0 {
				return fmt.Errorf("%s weights must not be negative", g.name)
			}
			sum += v
		}
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("%s weights must sum to 1, got %.4f", g.name, sum)
		}
	}
	return nil
}

// keywordScore converts a present-term count into a 0-100 score.
func keywordScore(present int) int {
	return min(present*4, 100)
}

// overall combines the holistic quality dimensions.
func (w Weights) overall(formatting, experience, skills, education, readability int) int {
	v := w.Formatting*float64(formatting) +
		w.Experience*float64(experience) +
		w.Skills*float64(skills) +
		w.Education*float64(education) +
		w.Readability*float64(readability)
	return clamp(int(math.Round(v)))
}

// ats isolates the factors that drive automated screening.
func (w Weights) ats(formatting, keywords, experience int) int {
	v := w.ATSFormatting*float64(formatting) +
		w.ATSKeywords*float64(keywords) +
		w.ATSExperience*float64(experience)
	return clamp(int(math.Round(v)))
}
