package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/taxonomy"
	"resumescore/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
jane.doe@example.com | (555) 123-4567 | San Francisco, CA

SUMMARY
Senior software engineer with 8 years of experience building scalable cloud services.

EXPERIENCE
Senior Software Engineer, Acme Corp, Jan 2019 - Present
• Led a team of 6 engineers to migrate services to AWS, reducing costs by 35%.
• Developed Python and Go microservices handling 2M requests per day, improving latency by 40%.
• Implemented CI/CD pipelines with Docker and Kubernetes, cutting release time by 50%.

EDUCATION
Bachelor of Science in Computer Science, State University, 2015.

SKILLS
Python, Go, Java, SQL, AWS, Docker, Kubernetes, Git, Linux, communication, leadership
`

const insuranceText = `POLICY DECLARATIONS. Policy Number: HX-2231-889. The policyholder agrees to pay the annual premium of $1,200 in advance. In the event of a claim, the insured must notify the insurer within thirty days. The named beneficiary shall receive the death benefit. A deductible applies to each covered loss.`

func newTestServer(t *testing.T, mutate func(*ServerConfig)) *Server {
	t.Helper()

	tax, err := taxonomy.Default()
	require.NoError(t, err)
	engine, err := analysis.New(tax, analysis.Options{})
	require.NoError(t, err)

	appCfg := config.Default()
	appCfg.RateLimit.Enabled = false
	cfg := NewServerConfig(appCfg, "test", analysis.NewHolder(engine), nil)
	if mutate != nil {
		mutate(&cfg)
	}
	return NewServer(appCfg, cfg, errors.NewNopLogger())
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAnalyzeHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: sampleResume, DocumentID: "doc-1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.IsValidDocument)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Greater(t, result.OverallScore, 0)
	assert.Nil(t, result.Breakdown)
}

func TestAnalyzeHandlerDetailed(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: sampleResume, AnalysisType: "detailed"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Breakdown)
	assert.NotEmpty(t, result.Breakdown.Formatting)
}

func TestAnalyzeHandlerRejectsNonResume(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: insuranceText}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsValidDocument)
	assert.Equal(t, 0, result.OverallScore)
	assert.Len(t, result.Weaknesses, 1)
}

func TestAnalyzeHandlerErrors(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.MaxDocumentChars = 50 }).Handler()

	tests := []struct {
		name        string
		body        string
		contentType string
		method      string
		wantStatus  int
		wantCode    string
	}{
		{"wrong method", "", "application/json", http.MethodGet, http.StatusMethodNotAllowed, ""},
		{"wrong content type", `{"documentText":"x"}`, "text/plain", http.MethodPost, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"malformed json", `{"documentText":`, "application/json", http.MethodPost, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad analysis type", `{"documentText":"x","analysisType":"deep"}`, "application/json", http.MethodPost, http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"too long", fmt.Sprintf(`{"documentText":%q}`, strings.Repeat("a", 51)), "application/json; charset=utf-8", http.MethodPost, http.StatusRequestEntityTooLarge, errors.ErrCodeDocumentTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestAnalyzeHandlerBodyLimit(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.MaxRequestSize = 64 }).Handler()

	w := postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: strings.Repeat("word ", 100)}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "limit is 64 bytes")
}

func TestBatchAnalyzeHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	batch := types.BatchAnalysisRequest{Documents: []types.AnalysisRequest{
		{DocumentText: sampleResume, DocumentID: "a"},
		{DocumentText: insuranceText, DocumentID: "b"},
		{DocumentText: sampleResume, DocumentID: "c"},
	}}
	w := postJSON(t, h, "/analyze/batch", batch, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.BatchAnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "a", resp.Results[0].DocumentID)
	assert.False(t, resp.Results[1].IsValidDocument)
	assert.Equal(t, "c", resp.Results[2].DocumentID)
	assert.Equal(t, resp.Results[0].OverallScore, resp.Results[2].OverallScore)
}

func TestBatchAnalyzeHandlerValidation(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.MaxDocumentChars = 1000 }).Handler()

	tooMany := make([]types.AnalysisRequest, 21)
	for i := range tooMany {
		tooMany[i] = types.AnalysisRequest{DocumentText: "x"}
	}

	tests := []struct {
		name       string
		batch      types.BatchAnalysisRequest
		wantStatus int
	}{
		{"empty", types.BatchAnalysisRequest{}, http.StatusBadRequest},
		{"too many", types.BatchAnalysisRequest{Documents: tooMany}, http.StatusBadRequest},
		{"bad item", types.BatchAnalysisRequest{Documents: []types.AnalysisRequest{{DocumentText: "x", AnalysisType: "deep"}}}, http.StatusBadRequest},
		{"long item", types.BatchAnalysisRequest{Documents: []types.AnalysisRequest{{DocumentText: "x"}, {DocumentText: strings.Repeat("b", 1001)}}}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/analyze/batch", tt.batch, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123"} })
	h := s.Handler()
	body := types.AnalysisRequest{DocumentText: sampleResume}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/analyze", body, tt.headers)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("health stays public", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rotated keys take effect", func(t *testing.T) {
		s.SetAPIKeys([]string{"rotated-key-456"})
		w := postJSON(t, h, "/analyze", body, map[string]string{"X-API-Key": "secret-key-123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = postJSON(t, h, "/analyze", body, map[string]string{"X-API-Key": "rotated-key-456"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{
			Enabled:         true,
			RequestsPerMin:  1,
			BurstSize:       2,
			ByIP:            true,
			CleanupInterval: time.Minute,
		}
	}).Handler()

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: sampleResume}, nil)
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/taxonomy", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientBuckets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c := newClientBuckets(60, 1, time.Minute)
	c.now = func() time.Time { return clock }

	ok, _ := c.take("a")
	assert.True(t, ok)
	ok, wait := c.take("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = c.take("b")
	assert.True(t, ok, "each key has its own bucket")

	clock = clock.Add(time.Second)
	ok, _ = c.take("a")
	assert.True(t, ok, "bucket refills at the configured rate")

	clock = clock.Add(2 * time.Minute)
	ok, _ = c.take("c")
	assert.True(t, ok)
	assert.Equal(t, 1, c.stats()["active_limiters"], "idle buckets are swept")
}

func TestClientBucketsZeroBurst(t *testing.T) {
	c := newClientBuckets(60, 0, 0)
	ok, wait := c.take("a")
	assert.False(t, ok)
	assert.Zero(t, wait)
	assert.Equal(t, "60", retryAfter(wait))
	assert.Equal(t, "2", retryAfter(1500*time.Millisecond))
	assert.Equal(t, defaultBucketIdleTTL.String(), c.stats()["idle_ttl"])
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4000"

	keyType, key := getRateLimitKey(req, "X-API-Key", true, true)
	assert.Equal(t, "ip", keyType)
	assert.Equal(t, "ip:192.0.2.1", key)

	req.Header.Set("X-Custom-Key", "abc")
	keyType, key = getRateLimitKey(req, "X-Custom-Key", true, true)
	assert.Equal(t, "api_key", keyType)
	assert.Equal(t, "api:abc", key)

	_, key = getRateLimitKey(req, "X-Other", false, false)
	assert.Empty(t, key)

	req.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/analyze", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestHealthAndStats(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, health["taxonomy_version"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "resumescore", stats["service"])
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestHealthWithoutEngine(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.Engine = nil }).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = postJSON(t, h, "/analyze", types.AnalysisRequest{DocumentText: sampleResume}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, errors.ErrCodeTaxonomyNotLoaded, decodeError(t, w).Code)
}

func TestTaxonomyHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/taxonomy", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats      taxonomy.Stats `json:"stats"`
		Industries []string       `json:"industries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Stats.Version)
	assert.NotEmpty(t, resp.Industries)
	assert.NotContains(t, resp.Industries, taxonomy.GeneralCategory)
	assert.Contains(t, resp.Stats.Categories, taxonomy.GeneralCategory)
}

func TestReloadTaxonomy(t *testing.T) {
	s := newTestServer(t, nil)
	before := s.Engine.Engine()

	tax, err := taxonomy.Default()
	require.NoError(t, err)
	tax.Version = "reloaded"

	s.reloadTaxonomy(tax)
	assert.NotSame(t, before, s.Engine.Engine())
	assert.Equal(t, "reloaded", s.Engine.Engine().Taxonomy().Version)

	// An invalid taxonomy leaves the current engine in place.
	s.reloadTaxonomy(&taxonomy.Taxonomy{Version: "broken"})
	assert.Equal(t, "reloaded", s.Engine.Engine().Taxonomy().Version)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{errors.NewValidationError(errors.ErrCodeDocumentTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{errors.NewConfigError(errors.ErrCodeTaxonomyNotLoaded, "none", nil), http.StatusServiceUnavailable},
		{errors.NewAnalysisError(errors.ErrCodeAnalysisFailed, "cancelled", nil), http.StatusServiceUnavailable},
		{errors.NewInternalError("X", "boom", nil), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}

func TestStartTaxonomyWatcher(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.startTaxonomyWatcher())
	assert.Nil(t, s.taxonomyWatcher)

	tax, err := taxonomy.Default()
	require.NoError(t, err)
	data, err := tax.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))

	s.AppConfig.Engine.TaxonomyFile = path
	s.AppConfig.Engine.WatchTaxonomy = true
	require.NoError(t, s.startTaxonomyWatcher())
	require.NotNil(t, s.taxonomyWatcher)
	assert.True(t, s.taxonomyWatcher.IsRunning())

	s.stopWatchers()
	assert.False(t, s.taxonomyWatcher.IsRunning())
}
