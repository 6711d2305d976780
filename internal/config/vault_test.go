package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// newKVServer serves one KV v2 secret at path and 404 everywhere else.
func newKVServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/"+path || r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "json number", input: json.Number("5"), expected: 5},
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "float string", input: "42.5", expectError: true},
		{name: "missing", input: nil, expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("config token wins over file", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: "/nonexistent"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
		assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("blank token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("   \n  \n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestVaultDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, newTestLogger())
	assert.NoError(t, err)
	assert.Nil(t, client)

	cfg := &Config{Server: ServerConfig{APIKeys: []string{"from-config"}}}
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
	assert.Equal(t, []string{"from-config"}, cfg.Server.APIKeys)

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("secret/data/x")
	assert.Error(t, err)
}

func TestLoadAPIKeysSkipsEmptyPath(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []string{"kept"}}}
	err := loadAPIKeysFromVault(nil, cfg, newTestLogger())
	assert.NoError(t, err)
	assert.Equal(t, []string{"kept"}, cfg.Server.APIKeys)
}

func TestVaultSecretAPIKeys(t *testing.T) {
	tests := []struct {
		name string
		keys any
		want []string
	}{
		{"comma separated", " a, b ,,c", []string{"a", "b", "c"}},
		{"list", []any{"a", 7, " b "}, []string{"a", "b"}},
		{"string slice", []string{"a", ""}, []string{"a"}},
		{"missing", nil, nil},
		{"wrong type", 12, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := &VaultSecret{Data: map[string]any{"keys": tt.keys}}
			assert.Equal(t, tt.want, secret.APIKeys())
		})
	}
}

func TestParseSecretV2(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]any
		expectError bool
		expected    *VaultSecret
	}{
		{
			name: "valid secret",
			body: map[string]any{
				"data":     map[string]any{"keys": "k1,k2"},
				"metadata": map[string]any{"version": json.Number("7")},
			},
			expected: &VaultSecret{Data: map[string]any{"keys": "k1,k2"}, Version: 7},
		},
		{
			name:        "missing data field",
			body:        map[string]any{"metadata": map[string]any{"version": json.Number("1")}},
			expectError: true,
		},
		{
			name:        "data field wrong type",
			body:        map[string]any{"data": "not-a-map"},
			expectError: true,
		},
		{
			name:        "missing metadata",
			body:        map[string]any{"data": map[string]any{}},
			expectError: true,
		},
		{
			name: "missing version",
			body: map[string]any{
				"data":     map[string]any{},
				"metadata": map[string]any{"other": "value"},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseSecretV2(tt.body)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestGetSecretV2(t *testing.T) {
	const path = "secret/data/resumescore"
	srv := newKVServer(t, path, `{"data":{"data":{"keys":"a,b"},"metadata":{"version":3}}}`)

	client, err := NewVaultClient(VaultConfig{Enabled: true, Address: srv.URL, Token: "test-token"}, newTestLogger())
	require.NoError(t, err)

	secret, err := client.GetSecretV2(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, []string{"a", "b"}, secret.APIKeys())

	_, err = client.GetSecretV2("secret/data/missing")
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSecretUnavailable, appErr.Code)
	assert.Equal(t, "secret/data/missing", appErr.Context["path"])
}

func TestApplyVaultSecrets(t *testing.T) {
	const path = "secret/data/resumescore"

	t.Run("replaces configured keys", func(t *testing.T) {
		srv := newKVServer(t, path, `{"data":{"data":{"keys":["v1","v2"]},"metadata":{"version":2}}}`)
		cfg := &Config{
			Server: ServerConfig{APIKeys: []string{"from-config"}},
			Vault: VaultConfig{
				Enabled: true,
				Address: srv.URL,
				Token:   "test-token",
				Secrets: VaultSecrets{APIKeys: path},
			},
		}

		require.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
		assert.Equal(t, []string{"v1", "v2"}, cfg.Server.APIKeys)
	})

	t.Run("empty secret keeps configured keys", func(t *testing.T) {
		srv := newKVServer(t, path, `{"data":{"data":{"keys":""},"metadata":{"version":1}}}`)
		cfg := &Config{
			Server: ServerConfig{APIKeys: []string{"from-config"}},
			Vault: VaultConfig{
				Enabled: true,
				Address: srv.URL,
				Token:   "test-token",
				Secrets: VaultSecrets{APIKeys: path},
			},
		}

		require.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
		assert.Equal(t, []string{"from-config"}, cfg.Server.APIKeys)
	})

	t.Run("missing secret fails", func(t *testing.T) {
		srv := newKVServer(t, path, "")
		cfg := &Config{Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{APIKeys: "secret/data/other"},
		}}

		err := ApplyVaultSecrets(cfg, newTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load API keys from vault")
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghstuvwxyz"))
}
