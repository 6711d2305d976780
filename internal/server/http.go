package server

import (
	"sync"
	"time"

	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/taxonomy"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Scoring engine, swapped on taxonomy reload
	Engine *analysis.Holder

	// API Authentication
	apiKeys *apiKeySet

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request limits
	MaxRequestSize   int64
	MaxDocumentChars int

	// Rate limiting
	RateLimit *config.RateLimitConfig
	limiter   *clientBuckets

	Observability *observability.ObservabilityManager
	Logger        *errors.Logger

	taxonomyWatcher *taxonomy.Watcher
	vaultWatcher    *VaultWatcher
	startedAt       time.Time
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host             string
	Port             string
	Version          string
	TLSConfig        config.TLSConfig
	APIKeys          []string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxRequestSize   int64
	MaxDocumentChars int
	RateLimit        *config.RateLimitConfig
	Engine           *analysis.Holder
	Observability    *observability.ObservabilityManager
}

// NewServerConfig derives a ServerConfig from the application configuration.
func NewServerConfig(appCfg *config.Config, version string, engine *analysis.Holder, om *observability.ObservabilityManager) ServerConfig {
	rateLimit := appCfg.RateLimit
	return ServerConfig{
		Host:             appCfg.Server.Host,
		Port:             appCfg.Server.Port,
		Version:          version,
		TLSConfig:        appCfg.Server.TLS,
		APIKeys:          appCfg.Server.APIKeys,
		ReadTimeout:      appCfg.Server.ReadTimeout,
		WriteTimeout:     appCfg.Server.WriteTimeout,
		IdleTimeout:      appCfg.Server.IdleTimeout,
		MaxRequestSize:   appCfg.Server.MaxRequestSize,
		MaxDocumentChars: appCfg.Engine.MaxDocumentChars,
		RateLimit:        &rateLimit,
		Engine:           engine,
		Observability:    om,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	var limiter *clientBuckets
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		limiter = newClientBuckets(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
	}

	om := cfg.Observability
	if om == nil {
		// A disabled manager never fails.
		om, _ = observability.NewObservabilityManager(config.ObservabilityConfig{}, cfg.Version)
	}

	return &Server{
		Host:             cfg.Host,
		Port:             cfg.Port,
		Version:          cfg.Version,
		AppConfig:        appCfg,
		TLSConfig:        cfg.TLSConfig,
		Engine:           cfg.Engine,
		apiKeys:          newAPIKeySet(cfg.APIKeys),
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		IdleTimeout:      cfg.IdleTimeout,
		MaxRequestSize:   cfg.MaxRequestSize,
		MaxDocumentChars: cfg.MaxDocumentChars,
		RateLimit:        cfg.RateLimit,
		limiter:          limiter,
		Observability:    om,
		Logger:           logger,
		startedAt:        time.Now(),
	}
}

// SetAPIKeys replaces the accepted API keys. Safe while serving.
func (s *Server) SetAPIKeys(keys []string) {
	s.apiKeys.replace(keys)
}

// apiKeySet is the set of accepted API keys. Vault rotation swaps it while
// requests read it.
type apiKeySet struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func newAPIKeySet(keys []string) *apiKeySet {
	set := &apiKeySet{}
	set.replace(keys)
	return set
}

func (a *apiKeySet) replace(keys []string) {
	// Convert API keys slice to map for O(1) lookup
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	a.mu.Lock()
	a.keys = m
	a.mu.Unlock()
}

func (a *apiKeySet) contains(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.keys[key]
}

func (a *apiKeySet) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}
