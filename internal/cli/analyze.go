package cli

import (
	"context"
	"fmt"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var analyzeConfig common.CommandConfig

	analyzeCmd := &cobra.Command{
		Use:   "analyze [resume-file...]",
		Short: "Score one or more résumés",
		Long: `Analyze résumé text and report the overall score, ATS compatibility,
readability, per-dimension sub-scores, keywords, strengths, weaknesses and
suggestions.

Use "-" to read a résumé from standard input. Several files produce a batch
report in argument order; each document is identified by its file name unless
--document-id is given for a single file.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			// Apply default format if not specified
			if analyzeConfig.OutputFormat == "" {
				analyzeConfig.OutputFormat = cfg.App.DefaultFormat
			}
			if analyzeConfig.DocumentID != "" && len(args) > 1 {
				return fmt.Errorf("--document-id can only be used with a single file")
			}
			if err := common.ValidateAnalysisType(analyzeConfig.AnalysisType); err != nil {
				return err
			}
			// Validate format against supported formats
			return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, analyzeConfig)
		},
	}

	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeConfig.AnalysisType, "type", "", "Analysis type: standard or detailed")
	analyzeCmd.Flags().StringVar(&analyzeConfig.DocumentID, "document-id", "", "Document identifier echoed in the result")
	analyzeCmd.Flags().StringVar(&analyzeConfig.UserID, "user-id", "", "User identifier echoed in every result")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = analyzeCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{types.AnalysisTypeStandard, types.AnalysisTypeDetailed}, cobra.ShellCompDirectiveNoFileComp
	})

	return analyzeCmd
}

func runAnalyze(cmd *cobra.Command, args []string, cmdConfig common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize

	engine, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to build analysis engine: %w", err)
	}
	holder := analysis.NewHolder(engine)

	createInput := func(contents []string) ([]types.AnalysisRequest, error) {
		if len(contents) != len(args) {
			return nil, fmt.Errorf("expected %d inputs, got %d", len(args), len(contents))
		}
		reqs := make([]types.AnalysisRequest, len(contents))
		for i, text := range contents {
			reqs[i] = types.AnalysisRequest{
				DocumentText: text,
				DocumentID:   cmdConfig.DocumentID,
				UserID:       cmdConfig.UserID,
				AnalysisType: cmdConfig.AnalysisType,
			}
			if len(contents) > 1 {
				reqs[i].DocumentID = args[i]
			}
		}
		return reqs, nil
	}

	logDetails := func(reqs []types.AnalysisRequest, cmdConfig common.CommandConfig) {
		chars := 0
		for _, r := range reqs {
			chars += len(r.DocumentText)
		}
		logger.Info("Starting résumé analysis",
			"documents", len(reqs),
			"total_chars", chars,
			"analysis_type", cmdConfig.AnalysisType,
			"output_format", cmdConfig.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, reqs []types.AnalysisRequest) (any, error) {
		results := make([]types.AnalysisResult, 0, len(reqs))
		for _, req := range reqs {
			if err := common.ValidateRequest(req); err != nil {
				return nil, err
			}
			if err := common.ValidateDocumentLength(req.DocumentText, cfg.Engine.MaxDocumentChars); err != nil {
				return nil, err
			}
			result, err := holder.AnalyzeContext(ctx, req)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		if len(results) == 1 {
			return results[0], nil
		}
		return types.BatchAnalysisResponse{Results: results}, nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		cmdConfig,
		args,
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
		createInput,
		analyzeOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze résumé: %w", err)
	}
	logger.Info("Résumé analysis completed successfully")
	return nil
}
