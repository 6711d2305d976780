package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/taxonomy"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	defer s.shutdownObservability()

	httpServer := s.setupHTTPServer()

	if err := s.startTaxonomyWatcher(); err != nil {
		return err
	}
	if err := s.startVaultWatcher(); err != nil {
		return err
	}

	s.Observability.StartPrometheus()
	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Observability.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startTaxonomyWatcher swaps the engine whenever the taxonomy file changes.
func (s *Server) startTaxonomyWatcher() error {
	if s.AppConfig == nil || s.Engine == nil {
		return nil
	}
	engineCfg := s.AppConfig.Engine
	if !engineCfg.WatchTaxonomy || engineCfg.TaxonomyFile == "" {
		return nil
	}

	watcher, err := taxonomy.NewWatcher(engineCfg.TaxonomyFile, engineCfg.WatchDebounce, s.reloadTaxonomy, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create taxonomy watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start taxonomy watcher: %w", err)
	}
	s.taxonomyWatcher = watcher
	return nil
}

// reloadTaxonomy rebuilds the engine from a freshly validated taxonomy.
func (s *Server) reloadTaxonomy(tax *taxonomy.Taxonomy) {
	err := s.Engine.Reload(tax)
	s.Observability.GetMetrics().RecordTaxonomyReload(context.Background(), err == nil)
	if err != nil {
		s.Logger.LogError(err, "Taxonomy reload rejected by engine, keeping previous engine",
			"version", tax.Version)
		return
	}
	s.Logger.Info("Engine swapped to new taxonomy", "version", tax.Version)
}

// startVaultWatcher polls Vault for rotated API keys.
func (s *Server) startVaultWatcher() error {
	if s.AppConfig == nil {
		return nil
	}
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.PollInterval <= 0 || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create vault client for key rotation: %w", err)
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.PollInterval, s.SetAPIKeys, s.Logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	s.vaultWatcher = watcher
	return nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", s.TLSConfig.Enabled())

		var err error
		if s.TLSConfig.Enabled() {
			err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.stopWatchers()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopWatchers stops the taxonomy and Vault watchers if they are running
func (s *Server) stopWatchers() {
	if s.taxonomyWatcher != nil {
		if err := s.taxonomyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop taxonomy watcher")
		}
	}
	if s.vaultWatcher != nil {
		if err := s.vaultWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop vault watcher")
		}
	}
}
