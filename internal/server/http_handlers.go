package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"resumescore/internal/errors"
)

// healthHandler reports whether an engine is loaded and which taxonomy it uses
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":         "healthy",
		"service":        "resumescore",
		"version":        s.Version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}

	statusCode := http.StatusOK
	if engine := s.currentEngine(); engine != nil {
		response["taxonomy_version"] = engine.Taxonomy().Version
	} else {
		response["status"] = "degraded"
		response["error"] = "no taxonomy loaded"
		statusCode = http.StatusServiceUnavailable
	}

	if s.taxonomyWatcher != nil {
		response["taxonomy_watcher"] = map[string]any{
			"file":    s.taxonomyWatcher.Path(),
			"running": s.taxonomyWatcher.IsRunning(),
		}
	}

	writeJSON(w, statusCode, response)
}

// statsHandler returns server limits and rate limiter state
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumescore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_document_chars":     s.MaxDocumentChars,
			"api_keys_configured":    s.apiKeys.len(),
		},
	}

	if engine := s.currentEngine(); engine != nil {
		response["engine"] = map[string]any{
			"parallel":    engine.Options().Parallel,
			"max_missing": engine.Options().MaxMissing,
		}
	}

	if s.limiter != nil {
		response["rate_limiting"] = s.limiter.stats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_size":       s.RateLimit.BurstSize,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.vaultWatcher != nil {
		response["vault_watcher"] = s.vaultWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeDocumentTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON", err)
	}

	return nil
}

// statusForError maps an application error onto an HTTP status code
func statusForError(err error) int {
	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeDocumentTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeTaxonomyNotLoaded:
		return http.StatusServiceUnavailable
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeAnalysis:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err as an ErrorResponse with its mapped status
func writeAppError(w http.ResponseWriter, title string, err error) {
	response := ErrorResponse{Error: title, Message: err.Error()}
	if appErr, ok := errors.As(err); ok {
		response.Message = appErr.Message
		response.Code = appErr.Code
	}
	writeJSON(w, statusForError(err), response)
}

// writeErrorResponse writes an error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
