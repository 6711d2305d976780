package server

import (
	"context"
	"net/http"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/taxonomy"
	"resumescore/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

func (s *Server) currentEngine() *analysis.Engine {
	if s.Engine == nil {
		return nil
	}
	return s.Engine.Engine()
}

// analyzeHandler scores a single document
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := s.Observability.Tracer("resumescore.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeAppError(w, "Invalid request body", err)
		return
	}
	if err := s.validateAnalysisRequest(req); err != nil {
		span.RecordError(err)
		writeAppError(w, "Invalid analysis request", err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.document_length", len(req.DocumentText)),
		attribute.String("request.analysis_type", req.AnalysisType),
	)

	result, err := s.analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.Logger.LogError(err, "Analysis failed", "request_id", RequestID(r.Context()))
		writeAppError(w, "Analysis failed", err)
		return
	}

	s.Logger.Debug("Document analyzed",
		"request_id", RequestID(r.Context()),
		"document_id", result.DocumentID,
		"valid", result.IsValidDocument,
		"overall_score", result.OverallScore)

	writeJSON(w, http.StatusOK, result)
}

// batchAnalyzeHandler scores every document of a batch in request order
func (s *Server) batchAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := s.Observability.Tracer("resumescore.api").Start(r.Context(), "api.analyze_batch")
	defer span.End()

	var req types.BatchAnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeAppError(w, "Invalid request body", err)
		return
	}
	if err := common.ValidateRequest(req); err != nil {
		span.RecordError(err)
		writeAppError(w, "Invalid batch request", err)
		return
	}
	// Reject the whole batch before scoring anything.
	for i, doc := range req.Documents {
		if err := common.ValidateDocumentLength(doc.DocumentText, s.MaxDocumentChars); err != nil {
			if appErr, ok := errors.As(err); ok {
				err = appErr.WithContext("index", i)
			}
			span.RecordError(err)
			writeAppError(w, "Invalid batch request", err)
			return
		}
	}

	span.SetAttributes(attribute.Int("request.batch_size", len(req.Documents)))

	response := types.BatchAnalysisResponse{Results: make([]types.AnalysisResult, 0, len(req.Documents))}
	for _, doc := range req.Documents {
		result, err := s.analyze(ctx, doc)
		if err != nil {
			span.RecordError(err)
			s.Logger.LogError(err, "Batch analysis failed", "request_id", RequestID(r.Context()))
			writeAppError(w, "Analysis failed", err)
			return
		}
		response.Results = append(response.Results, result)
	}

	writeJSON(w, http.StatusOK, response)
}

// taxonomyHandler describes the taxonomy currently in effect
func (s *Server) taxonomyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	engine := s.currentEngine()
	if engine == nil {
		writeAppError(w, "Taxonomy unavailable",
			errors.NewConfigError(errors.ErrCodeTaxonomyNotLoaded, "no taxonomy loaded", nil))
		return
	}

	tax := engine.Taxonomy()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":      tax.Stats(),
		"industries": industryNames(tax.Industries()),
	})
}

func (s *Server) validateAnalysisRequest(req types.AnalysisRequest) error {
	if err := common.ValidateRequest(req); err != nil {
		return err
	}
	return common.ValidateDocumentLength(req.DocumentText, s.MaxDocumentChars)
}

func (s *Server) analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	if s.currentEngine() == nil {
		return types.AnalysisResult{}, errors.NewConfigError(errors.ErrCodeTaxonomyNotLoaded, "no taxonomy loaded", nil)
	}
	return s.Observability.TrackAnalysis(ctx, "http", func(ctx context.Context) (types.AnalysisResult, error) {
		return s.Engine.AnalyzeContext(ctx, req)
	})
}

func industryNames(categories []taxonomy.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}
