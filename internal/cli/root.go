package cli

import (
	"context"

	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/taxonomy"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "resumescore",
		Short: "Deterministic résumé compliance and scoring engine",
		Long: `Resumescore checks that a document is a résumé, scores it across
formatting, keywords, experience, skills, education and readability, and
explains the result with strengths, weaknesses and suggestions.

The same engine backs the CLI, the HTTP service and the queue worker.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newTaxonomyCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command line with cfg and logger available to every
// subcommand.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return newRootCmd().ExecuteContext(withDependencies(ctx, cfg, logger))
}

func withDependencies(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// loadTaxonomy returns the configured taxonomy file, or the embedded one.
func loadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg.Engine.TaxonomyFile != "" {
		return taxonomy.Load(cfg.Engine.TaxonomyFile)
	}
	return taxonomy.Default()
}

func buildEngine(cfg *config.Config) (*analysis.Engine, error) {
	tax, err := loadTaxonomy(cfg)
	if err != nil {
		return nil, err
	}
	return analysis.New(tax, cfg.AnalysisOptions())
}
