package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVaultClient struct {
	mu     sync.Mutex
	secret *config.VaultSecret
	err    error
}

func (f *fakeVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.secret, nil
}

func (f *fakeVaultClient) set(version int64, keys any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = &config.VaultSecret{Version: version, Data: map[string]any{"keys": keys}}
}

func TestVaultWatcherPoll(t *testing.T) {
	client := &fakeVaultClient{}
	client.set(1, "initial")

	var rotated [][]string
	vw := NewVaultWatcher(client, "secret/data/keys", time.Hour, func(keys []string) {
		rotated = append(rotated, keys)
	}, errors.NewNopLogger())
	require.NoError(t, vw.Start())
	defer func() { _ = vw.Stop() }()

	// Same version as at start: nothing to do.
	require.NoError(t, vw.poll())
	assert.Empty(t, rotated)

	client.set(2, " k1, k2 ,,")
	require.NoError(t, vw.poll())
	assert.Equal(t, [][]string{{"k1", "k2"}}, rotated)

	client.set(3, []any{"k3", 42, "k4"})
	require.NoError(t, vw.poll())
	assert.Equal(t, []string{"k3", "k4"}, rotated[1])

	// An empty rotation is skipped but the version still advances.
	client.set(4, "")
	require.NoError(t, vw.poll())
	assert.Len(t, rotated, 2)

	status := vw.Status()
	assert.Equal(t, int64(4), status["last_version"])
	assert.Equal(t, 2, status["rotations"])
	assert.Equal(t, true, status["running"])
}

func TestVaultWatcherPollError(t *testing.T) {
	client := &fakeVaultClient{err: fmt.Errorf("sealed")}
	vw := NewVaultWatcher(client, "secret/data/keys", time.Hour, func([]string) {
		t.Fatal("callback must not run")
	}, nil)

	err := vw.poll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sealed")
}

func TestVaultWatcherLifecycle(t *testing.T) {
	client := &fakeVaultClient{}
	client.set(1, "k")

	vw := NewVaultWatcher(client, "p", 0, func([]string) {}, nil)
	assert.Error(t, vw.Start())

	vw = NewVaultWatcher(client, "p", time.Hour, func([]string) {}, nil)
	require.NoError(t, vw.Start())
	assert.Error(t, vw.Start())
	assert.NoError(t, vw.Stop())
	assert.NoError(t, vw.Stop())
	assert.Equal(t, false, vw.Status()["running"])
}

func TestStartVaultWatcherDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.startVaultWatcher())
	assert.Nil(t, s.vaultWatcher)

	s.AppConfig.Vault.Enabled = true
	s.AppConfig.Vault.PollInterval = 0
	require.NoError(t, s.startVaultWatcher())
	assert.Nil(t, s.vaultWatcher)
}
