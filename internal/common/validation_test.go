package common

import (
	"strings"
	"testing"

	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "valid format - json", format: "json", supportedFormats: supported},
		{name: "valid format - text", format: "text", supportedFormats: supported},
		{name: "valid format - markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "invalid format - xml",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: supported,
			expectedError:    "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{name: "empty supported formats - should allow all", format: "xml", supportedFormats: []string{}},
		{
			name:             "single supported format - invalid",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}

func TestValidateAnalysisType(t *testing.T) {
	assert.NoError(t, ValidateAnalysisType(""))
	assert.NoError(t, ValidateAnalysisType(types.AnalysisTypeStandard))
	assert.NoError(t, ValidateAnalysisType(types.AnalysisTypeDetailed))

	err := ValidateAnalysisType("deep")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{name: "minimal request", req: types.AnalysisRequest{}},
		{name: "detailed", req: types.AnalysisRequest{DocumentText: "x", AnalysisType: "detailed"}},
		{name: "bad type", req: types.AnalysisRequest{AnalysisType: "deep"}, wantErr: "AnalysisRequest.AnalysisType must be one of [standard detailed]"},
		{name: "long id", req: types.AnalysisRequest{DocumentID: strings.Repeat("a", 129)}, wantErr: "AnalysisRequest.DocumentID must be at most 128"},
		{name: "empty batch", req: types.BatchAnalysisRequest{}, wantErr: "BatchAnalysisRequest.Documents is required"},
		{
			name:    "batch item checked",
			req:     types.BatchAnalysisRequest{Documents: []types.AnalysisRequest{{}, {AnalysisType: "x"}}},
			wantErr: "BatchAnalysisRequest.Documents[1].AnalysisType",
		},
		{
			name:    "batch too large",
			req:     types.BatchAnalysisRequest{Documents: make([]types.AnalysisRequest, 21)},
			wantErr: "must be at most 20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeInvalidRequest, appErr.Code)
		})
	}
}

func TestValidateDocumentLength(t *testing.T) {
	assert.NoError(t, ValidateDocumentLength("short", 10))
	assert.NoError(t, ValidateDocumentLength(strings.Repeat("x", 100), 0))
	// Runes, not bytes.
	assert.NoError(t, ValidateDocumentLength("éééé", 4))

	err := ValidateDocumentLength("abcdef", 5)
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDocumentTooLarge, appErr.Code)
	assert.Equal(t, 6, appErr.Context["length"])
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
