package types

// Analysis types accepted in AnalysisRequest.AnalysisType.
const (
	AnalysisTypeStandard = "standard"
	AnalysisTypeDetailed = "detailed"
)

// AnalysisRequest is the input for one résumé analysis
type AnalysisRequest struct {
	DocumentText string `json:"documentText"`
	DocumentID   string `json:"documentId,omitempty" validate:"omitempty,max=128"`
	UserID       string `json:"userId,omitempty" validate:"omitempty,max=128"`
	AnalysisType string `json:"analysisType,omitempty" validate:"omitempty,oneof=standard detailed"`
}

// Detailed reports whether the caller asked for the score breakdown.
func (r AnalysisRequest) Detailed() bool {
	return r.AnalysisType == AnalysisTypeDetailed
}

// BatchAnalysisRequest groups several documents into one call
type BatchAnalysisRequest struct {
	Documents []AnalysisRequest `json:"documents" validate:"required,min=1,max=20,dive"`
}

// SubScores are the per-dimension scores, each in [0,100]
type SubScores struct {
	Formatting  int `json:"formatting"`
	Keywords    int `json:"keywords"`
	Experience  int `json:"experience"`
	Skills      int `json:"skills"`
	Education   int `json:"education"`
	Readability int `json:"readability"`
}

// Suggestion categories
const (
	CategoryFormatting = "formatting"
	CategoryKeywords   = "keywords"
	CategoryContent    = "content"
	CategorySkills     = "skills"
)

// Suggestion priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Suggestion is one actionable recommendation
type Suggestion struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Adjustment is a single scoring decision: why a score moved and by how much
type Adjustment struct {
	Reason string `json:"reason"`
	Delta  int    `json:"delta"`
}

// ScoreBreakdown explains how each rule-based sub-score was reached
type ScoreBreakdown struct {
	Formatting []Adjustment `json:"formatting"`
	Experience []Adjustment `json:"experience"`
	Skills     []Adjustment `json:"skills"`
	Education  []Adjustment `json:"education"`
}

// AnalysisResult is the complete, self-contained analysis record
type AnalysisResult struct {
	DocumentID       string          `json:"documentId,omitempty"`
	UserID           string          `json:"userId,omitempty"`
	OverallScore     int             `json:"overallScore"`
	ATSCompatibility int             `json:"atsCompatibility"`
	ReadabilityScore int             `json:"readabilityScore"`
	SubScores        SubScores       `json:"subScores"`
	Strengths        []string        `json:"strengths"`
	Weaknesses       []string        `json:"weaknesses"`
	Suggestions      []Suggestion    `json:"suggestions"`
	PresentKeywords  []string        `json:"presentKeywords"`
	MissingKeywords  []string        `json:"missingKeywords"`
	KeywordDensity   float64         `json:"keywordDensity"`
	IsValidDocument  bool            `json:"isValidDocument"`
	IndustryContext  []string        `json:"industryContext,omitempty"`
	Breakdown        *ScoreBreakdown `json:"breakdown,omitempty"`
}

// BatchAnalysisResponse holds results in request order
type BatchAnalysisResponse struct {
	Results []AnalysisResult `json:"results"`
}

// AnalysisEnvelope is the message published by the queue worker
type AnalysisEnvelope struct {
	AnalysisID string          `json:"analysisId"`
	DocumentID string          `json:"documentId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Status     string          `json:"status"`
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Envelope statuses
const (
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)
