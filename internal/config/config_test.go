package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumescore/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "json", cfg.App.DefaultFormat)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100000, cfg.Engine.MaxDocumentChars)
	assert.Equal(t, analysis.DefaultWeights(), cfg.Engine.Weights)
	assert.Equal(t, analysis.DefaultCapTable(), cfg.Engine.ReportCaps)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.CleanupInterval)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestAnalysisOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.Parallel = true
	cfg.Engine.MaxMissing = 5

	opts := cfg.AnalysisOptions()
	assert.True(t, opts.Parallel)
	assert.Equal(t, 5, opts.MaxMissing)
	assert.Equal(t, cfg.Engine.Weights, opts.Weights)
	assert.Equal(t, cfg.Engine.ReportCaps, opts.Caps)

	_, err := analysis.New(nil, opts)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = "http" }, "server port"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "server port"},
		{"unknown format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format"},
		{"zero document limit", func(c *Config) { c.Engine.MaxDocumentChars = 0 }, "maxDocumentChars"},
		{"weights off", func(c *Config) { c.Engine.Weights.Skills = 0.5 }, "engine weights"},
		{"unsorted caps", func(c *Config) {
			c.Engine.ReportCaps = analysis.CapTable{{Above: 10, Strengths: 1, Weaknesses: 1}, {Above: 50, Strengths: 1, Weaknesses: 1}}
		}, "reportCaps"},
		{"half TLS", func(c *Config) { c.Server.TLS.CertFile = "cert.pem" }, "TLS"},
		{"no workers", func(c *Config) { c.Queue.Workers = 0 }, "workers"},
		{"bad rate", func(c *Config) { c.RateLimit.RequestsPerMin = 0 }, "requestsPerMin"},
		{"breaker threshold", func(c *Config) { c.Queue.CircuitBreaker.FailureThreshold = 1.5 }, "failureThreshold"},
		{"vault without address", func(c *Config) { c.Vault.Enabled = true }, "vault address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  logLevel: warn
  defaultFormat: markdown
engine:
  parallel: true
  maxMissing: 8
  reportCaps:
    - above: 80
      strengths: 4
      weaknesses: 1
    - above: -1
      strengths: 1
      weaknesses: 4
server:
  port: "9000"
  apiKeys: ["alpha", "beta"]
queue:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, "markdown", cfg.App.DefaultFormat)
	assert.True(t, cfg.Engine.Parallel)
	assert.Equal(t, 8, cfg.Engine.MaxMissing)
	assert.Equal(t, analysis.CapTable{{Above: 80, Strengths: 4, Weaknesses: 1}, {Above: -1, Strengths: 1, Weaknesses: 4}}, cfg.Engine.ReportCaps)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, 2, cfg.Queue.Workers)
	// Untouched sections keep their defaults.
	assert.Equal(t, analysis.DefaultWeights(), cfg.Engine.Weights)
}

func TestLoadConfigFileEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0600))

	t.Setenv("RESUMESCORE_SERVER_PORT", "9100")
	t.Setenv("RESUMESCORE_SERVER_APIKEYS", "k1, k2 ,k3")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue:\n  workers: 0\n"), 0600))

	_, err := LoadConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSensitiveEnvMasking(t *testing.T) {
	assert.True(t, isSensitiveEnv("RESUMESCORE_SERVER_APIKEYS"))
	assert.True(t, isSensitiveEnv("RESUMESCORE_VAULT_TOKEN"))
	assert.True(t, isSensitiveEnv("RESUMESCORE_QUEUE_URL"))
	assert.False(t, isSensitiveEnv("RESUMESCORE_SERVER_PORT"))
}

func TestSplitKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitKeys(" a ,, b "))
	assert.Nil(t, splitKeys(" , "))
}
