package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"resumescore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// PollInterval enables API key rotation while serving. Zero disables it.
	PollInterval time.Duration `mapstructure:"pollInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys is the KV v2 path of a secret whose "keys" field holds the
	// accepted server API keys, e.g. "key1,key2" or ["key1", "key2"].
	APIKeys string `mapstructure:"apiKeys"`
}

// VaultClient reads API key secrets from a KV v2 mount.
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret is the data and version of one KV v2 secret.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient returns nil when Vault is disabled. Connectivity is not
// checked here; the first read reports it.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid vault client settings", err).
			WithContext("address", cfg.Address)
	}
	client.SetToken(token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if logger != nil {
		logger.Debug("Vault client configured",
			"address", client.Address(),
			"namespace", cfg.Namespace,
			"token", maskSecret(token))
	}
	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the configured token over the token file.
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		b, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read vault token file", err).
				WithContext("file", cfg.TokenFile)
		}
		token = strings.TrimSpace(string(b))
	}
	if token == "" {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// GetSecretV2 reads one KV v2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "vault client not initialized", nil)
	}

	raw, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeSecretUnavailable, "failed to read vault secret", err).
			WithContext("path", path)
	}
	if raw == nil {
		return nil, errors.NewNetworkError(errors.ErrCodeSecretUnavailable, "vault secret not found", nil).
			WithContext("path", path)
	}

	secret, err := parseSecretV2(raw.Data)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "vault secret is not a KV v2 secret", err).
			WithContext("path", path)
	}
	if vc.logger != nil {
		vc.logger.Debug("Read vault secret", "path", path, "version", secret.Version)
	}
	return secret, nil
}

// parseSecretV2 unpacks the "data" and "metadata.version" fields of a
// KV v2 read response.
func parseSecretV2(body map[string]any) (*VaultSecret, error) {
	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing data field")
	}
	meta, _ := body["metadata"].(map[string]any)
	version, err := parseVersionValue(meta["version"])
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func parseVersionValue(v any) (int64, error) {
	switch v := v.(type) {
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("missing metadata version")
	default:
		return 0, fmt.Errorf("unexpected version type %T", v)
	}
}

// APIKeys reads the "keys" field, given either comma-separated or as a list.
// Blank entries are dropped.
func (s *VaultSecret) APIKeys() []string {
	switch v := s.Data["keys"].(type) {
	case string:
		return splitKeys(v)
	case []string:
		return splitKeys(strings.Join(v, ","))
	case []any:
		var keys []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				keys = append(keys, splitKeys(str)...)
			}
		}
		return keys
	}
	return nil
}

// ApplyVaultSecrets replaces the server API keys with the ones stored in
// Vault. It is a no-op when Vault is disabled.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return loadAPIKeysFromVault(client, cfg, logger)
}

func loadAPIKeysFromVault(client *VaultClient, cfg *Config, logger *errors.Logger) error {
	path := cfg.Vault.Secrets.APIKeys
	if path == "" {
		return nil
	}

	secret, err := client.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}

	keys := secret.APIKeys()
	if len(keys) == 0 {
		if logger != nil {
			logger.Warn("No API keys found in Vault", "path", path)
		}
		return nil
	}
	cfg.Server.APIKeys = keys
	if logger != nil {
		logger.Info("API keys loaded from Vault", "count", len(keys), "version", secret.Version)
	}
	return nil
}
