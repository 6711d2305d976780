package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumescore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "BatchAnalysisResponse", &batchFormatter{item: &AnalysisTextFormatter{}, separator: "\n" + strings.Repeat("-", 40) + "\n\n"})
	registry.RegisterFormatter("markdown", "BatchAnalysisResponse", &batchFormatter{item: &AnalysisMarkdownFormatter{}, separator: "\n---\n\n"})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	case types.BatchAnalysisResponse:
		return "BatchAnalysisResponse"
	default:
		return "any"
	}
}

func asResult(data any) (types.AnalysisResult, error) {
	switch r := data.(type) {
	case types.AnalysisResult:
		return r, nil
	case *types.AnalysisResult:
		if r != nil {
			return *r, nil
		}
	}
	return types.AnalysisResult{}, fmt.Errorf("expected AnalysisResult, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter renders a result as plain text
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := asResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n")
	if result.DocumentID != "" {
		output.WriteString(fmt.Sprintf("Document: %s\n", result.DocumentID))
	}
	output.WriteString("\n")

	if !result.IsValidDocument {
		output.WriteString("Document rejected: not recognised as a resume.\n")
		for _, reason := range result.Weaknesses {
			output.WriteString(fmt.Sprintf("- %s\n", reason))
		}
		return output.String(), nil
	}

	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("ATS Compatibility: %d/100\n", result.ATSCompatibility))
	output.WriteString(fmt.Sprintf("Readability: %d/100\n", result.ReadabilityScore))
	if len(result.IndustryContext) > 0 {
		output.WriteString(fmt.Sprintf("Industry Context: %s\n", strings.Join(result.IndustryContext, ", ")))
	}
	output.WriteString("\n")

	output.WriteString("=== SUB-SCORES ===\n")
	for _, s := range subScoreRows(result.SubScores) {
		output.WriteString(fmt.Sprintf("%-12s %3d\n", s.label+":", s.score))
	}
	output.WriteString("\n")

	writeTextList(&output, "STRENGTHS", result.Strengths)
	writeTextList(&output, "WEAKNESSES", result.Weaknesses)

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n")
		for i, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(s.Priority), s.Title))
			output.WriteString(fmt.Sprintf("   %s\n", s.Description))
			output.WriteString(fmt.Sprintf("   Impact: %s\n", s.Impact))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== KEYWORDS ===\n")
	output.WriteString(fmt.Sprintf("Density: %.2f%%\n", result.KeywordDensity))
	output.WriteString(fmt.Sprintf("Present: %s\n", joinOrNone(result.PresentKeywords)))
	output.WriteString(fmt.Sprintf("Missing: %s\n", joinOrNone(result.MissingKeywords)))

	if result.Breakdown != nil {
		output.WriteString("\n=== SCORE BREAKDOWN ===\n")
		for _, section := range breakdownSections(result.Breakdown) {
			output.WriteString(section.label + ":\n")
			for _, adj := range section.adjustments {
				output.WriteString(fmt.Sprintf("  %+4d  %s\n", adj.Delta, adj.Reason))
			}
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter renders a result as markdown
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := asResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	if result.DocumentID != "" {
		output.WriteString(fmt.Sprintf("**Document:** `%s`\n\n", result.DocumentID))
	}

	if !result.IsValidDocument {
		output.WriteString("> **Rejected:** the document was not recognised as a resume.\n\n")
		for _, reason := range result.Weaknesses {
			output.WriteString(fmt.Sprintf("- %s\n", reason))
		}
		return output.String(), nil
	}

	output.WriteString("| Metric | Score |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Overall | %d |\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("| ATS Compatibility | %d |\n", result.ATSCompatibility))
	for _, s := range subScoreRows(result.SubScores) {
		output.WriteString(fmt.Sprintf("| %s | %d |\n", s.label, s.score))
	}
	output.WriteString("\n")

	if len(result.IndustryContext) > 0 {
		output.WriteString(fmt.Sprintf("**Industry context:** %s\n\n", strings.Join(result.IndustryContext, ", ")))
	}

	writeMarkdownList(&output, "Strengths", result.Strengths)
	writeMarkdownList(&output, "Weaknesses", result.Weaknesses)

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for _, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("### %s (%s priority)\n\n", s.Title, s.Priority))
			output.WriteString(s.Description + "\n\n")
			output.WriteString(fmt.Sprintf("*Impact:* %s\n\n", s.Impact))
		}
	}

	output.WriteString("## Keywords\n\n")
	output.WriteString(fmt.Sprintf("- **Density:** %.2f%%\n", result.KeywordDensity))
	output.WriteString(fmt.Sprintf("- **Present:** %s\n", joinOrNone(result.PresentKeywords)))
	output.WriteString(fmt.Sprintf("- **Missing:** %s\n", joinOrNone(result.MissingKeywords)))

	if result.Breakdown != nil {
		output.WriteString("\n## Score Breakdown\n")
		for _, section := range breakdownSections(result.Breakdown) {
			output.WriteString(fmt.Sprintf("\n**%s**\n\n", section.label))
			for _, adj := range section.adjustments {
				output.WriteString(fmt.Sprintf("- `%+d` %s\n", adj.Delta, adj.Reason))
			}
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// batchFormatter renders each result with item and joins them.
type batchFormatter struct {
	item      Formatter
	separator string
}

func (bf *batchFormatter) Format(data any) (string, error) {
	batch, ok := data.(types.BatchAnalysisResponse)
	if !ok {
		return "", fmt.Errorf("expected BatchAnalysisResponse, got %T", data)
	}
	parts := make([]string, 0, len(batch.Results))
	for _, r := range batch.Results {
		s, err := bf.item.Format(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, bf.separator), nil
}

func (bf *batchFormatter) SupportedType() string {
	return "BatchAnalysisResponse"
}

type scoreRow struct {
	label string
	score int
}

func subScoreRows(s types.SubScores) []scoreRow {
	return []scoreRow{
		{"Formatting", s.Formatting},
		{"Keywords", s.Keywords},
		{"Experience", s.Experience},
		{"Skills", s.Skills},
		{"Education", s.Education},
		{"Readability", s.Readability},
	}
}

type breakdownSection struct {
	label       string
	adjustments []types.Adjustment
}

func breakdownSections(b *types.ScoreBreakdown) []breakdownSection {
	return []breakdownSection{
		{"Formatting", b.Formatting},
		{"Experience", b.Experience},
		{"Skills", b.Skills},
		{"Education", b.Education},
	}
}

func writeTextList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(fmt.Sprintf("=== %s ===\n", title))
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
