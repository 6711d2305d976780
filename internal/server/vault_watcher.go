package server

import (
	"fmt"
	"sync"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// APIKeysCallback receives the key list after every rotation.
type APIKeysCallback func(keys []string)

// VaultWatcher polls a KV v2 secret holding API keys and hands every new
// version's keys to the callback. An empty key list is ignored so a bad
// write to Vault cannot lock every client out.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onRotate     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	rotations   int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, onRotate APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onRotate:     onRotate,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start records the current secret version and begins polling.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher requires a positive poll interval")
	}

	// Keys at the current version were applied at startup.
	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil {
		vw.lastVersion = secret.Version
	} else {
		vw.logger.LogError(err, "Failed to read initial API key version from Vault", "secret_path", vw.secretPath)
	}

	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault API key watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(); err != nil {
				vw.logger.LogError(err, "Failed to check Vault for rotated API keys")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and rotates keys when its version advanced.
func (vw *VaultWatcher) poll() error {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	vw.mu.Lock()
	vw.lastCheck = time.Now()
	if secret.Version <= vw.lastVersion {
		vw.mu.Unlock()
		return nil
	}
	vw.lastVersion = secret.Version
	vw.mu.Unlock()

	keys := secret.APIKeys()
	if len(keys) == 0 {
		vw.logger.Warn("Rotated Vault secret has no API keys, keeping current keys",
			"secret_path", vw.secretPath, "version", secret.Version)
		return nil
	}

	vw.onRotate(keys)
	vw.mu.Lock()
	vw.rotations++
	vw.mu.Unlock()
	vw.logger.Info("API keys rotated from Vault", "version", secret.Version, "count", len(keys))
	return nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"rotations":     vw.rotations,
	}
	if !vw.lastCheck.IsZero() {
		status["last_check"] = vw.lastCheck.Format(time.RFC3339)
	}
	return status
}
