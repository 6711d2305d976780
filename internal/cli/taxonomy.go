package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"resumescore/internal/analysis"
	"resumescore/internal/taxonomy"

	"github.com/spf13/cobra"
)

func newTaxonomyCmd() *cobra.Command {
	taxonomyCmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect and validate keyword taxonomies",
	}
	taxonomyCmd.AddCommand(newTaxonomyValidateCmd())
	taxonomyCmd.AddCommand(newTaxonomyShowCmd())
	return taxonomyCmd
}

func newTaxonomyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check that a taxonomy file loads and compiles",
		Long: `Parse the taxonomy file, check its structure and compile it into an
analysis engine. Without an argument the configured taxonomy (or the embedded
default) is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			path := cfg.Engine.TaxonomyFile
			if len(args) == 1 {
				path = args[0]
			}

			tax, err := taxonomy.Load(path)
			if err != nil {
				return err
			}
			if _, err := analysis.New(tax, cfg.AnalysisOptions()); err != nil {
				return err
			}

			source := path
			if source == "" {
				source = "embedded taxonomy"
			}
			stats := tax.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: version %s, %d categories, %d synonym groups, %d high-demand terms\n",
				source, stats.Version, len(stats.Categories), stats.Synonyms, stats.HighDemand)
			return nil
		},
	}
}

func newTaxonomyShowCmd() *cobra.Command {
	var full bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active taxonomy",
		Long: `Print a summary of the active taxonomy: its version, the size of every
category and the industries it can detect. Use --full to print the whole
taxonomy as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			tax, err := loadTaxonomy(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if full {
				data, err := tax.Marshal()
				if err != nil {
					return fmt.Errorf("failed to render taxonomy: %w", err)
				}
				_, err = out.Write(data)
				return err
			}

			industries := make([]string, 0, len(tax.Industries()))
			for _, c := range tax.Industries() {
				industries = append(industries, c.Name)
			}
			sort.Strings(industries)

			data, err := json.MarshalIndent(map[string]any{
				"stats":      tax.Stats(),
				"industries": industries,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render taxonomy summary: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&full, "full", false, "Print the complete taxonomy as YAML")
	return showCmd
}
