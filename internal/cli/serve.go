package cli

import (
	"fmt"

	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/observability"
	"resumescore/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for résumé analysis",
		Long: `Start an HTTP server that provides REST API endpoints for résumé analysis.

Available endpoints:
- POST /analyze: Analyze a single résumé
- POST /analyze/batch: Analyze up to 20 résumés in order
- GET /taxonomy: Taxonomy version and category sizes
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS is served when both --cert-file and --key-file are set.`,
		RunE: runServe,
	}

	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	addEngineFlags(serveCmd)
	return serveCmd
}

// addEngineFlags registers the taxonomy flags shared by serve and worker.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("taxonomy", "", "Taxonomy YAML file (default: embedded taxonomy)")
	cmd.Flags().Bool("watch-taxonomy", false, "Reload the taxonomy file when it changes")
}

// applyFlagOverrides copies explicitly set flags onto cfg and revalidates it.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	overrides := []struct {
		flag   string
		target *string
	}{
		{"port", &cfg.Server.Port},
		{"host", &cfg.Server.Host},
		{"cert-file", &cfg.Server.TLS.CertFile},
		{"key-file", &cfg.Server.TLS.KeyFile},
		{"taxonomy", &cfg.Engine.TaxonomyFile},
		{"url", &cfg.Queue.URL},
		{"input-queue", &cfg.Queue.InputQueue},
		{"result-queue", &cfg.Queue.ResultQueue},
	}
	for _, o := range overrides {
		if flags.Lookup(o.flag) == nil || !flags.Changed(o.flag) {
			continue
		}
		value, err := flags.GetString(o.flag)
		if err != nil {
			return err
		}
		*o.target = value
	}

	if flags.Lookup("watch-taxonomy") != nil && flags.Changed("watch-taxonomy") {
		watch, err := flags.GetBool("watch-taxonomy")
		if err != nil {
			return err
		}
		cfg.Engine.WatchTaxonomy = watch
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		workers, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Queue.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context()).With("component", "server")

	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to build analysis engine: %w", err)
	}

	om, err := observability.NewObservabilityManager(cfg.Observability, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	serverCfg := server.NewServerConfig(cfg, Version, analysis.NewHolder(engine), om)
	return server.NewServer(cfg, serverCfg, logger).Start()
}
