package cli

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/analysis"
	"resumescore/internal/observability"
	"resumescore/internal/queue"
	"resumescore/internal/taxonomy"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume analysis requests from RabbitMQ",
		Long: `Start a queue worker that reads JSON analysis requests from the input
queue and publishes one result envelope per message to the result queue.

Envelopes carry a generated analysis id and a status of completed, rejected
or failed. Messages whose envelope cannot be published are requeued.`,
		RunE: runWorker,
	}

	workerCmd.Flags().String("url", "", "AMQP broker URL (overrides config)")
	workerCmd.Flags().String("input-queue", "", "Queue to consume requests from (overrides config)")
	workerCmd.Flags().String("result-queue", "", "Queue to publish envelopes to (overrides config)")
	workerCmd.Flags().Int("workers", 0, "Concurrent message handlers (overrides config)")
	addEngineFlags(workerCmd)
	return workerCmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context()).With("component", "worker")

	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to build analysis engine: %w", err)
	}
	holder := analysis.NewHolder(engine)

	om, err := observability.NewObservabilityManager(cfg.Observability, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()
	om.StartPrometheus()

	if cfg.Engine.WatchTaxonomy && cfg.Engine.TaxonomyFile != "" {
		watcher, err := taxonomy.NewWatcher(cfg.Engine.TaxonomyFile, cfg.Engine.WatchDebounce, func(tax *taxonomy.Taxonomy) {
			err := holder.Reload(tax)
			om.GetMetrics().RecordTaxonomyReload(cmd.Context(), err == nil)
			if err != nil {
				logger.LogError(err, "Failed to apply reloaded taxonomy")
				return
			}
			logger.Info("Taxonomy reloaded", "version", tax.Version)
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create taxonomy watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start taxonomy watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	var w *queue.Worker
	w = queue.NewWorker(cfg.Queue, func(pub queue.Publisher) (queue.Handler, error) {
		return queue.NewProcessor(queue.ProcessorConfig{
			Engine:           holder,
			Publisher:        pub,
			Breaker:          w.Breaker(),
			Observability:    om,
			Logger:           logger,
			MaxDocumentChars: cfg.Engine.MaxDocumentChars,
		})
	}, logger)

	logger.Info("Starting queue worker",
		"version", Version,
		"taxonomy_version", engine.Taxonomy().Version)
	return w.Run(cmd.Context())
}
