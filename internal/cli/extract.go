package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/types"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured records from raw documents",
	Long: `Extract a structured record from a raw resume or job description.
The JSON output can be passed back to score, report and evaluate.`,
}

var extractResumeCmd = &cobra.Command{
	Use:     "resume [resume-file]",
	Short:   "Extract a resume record",
	Args:    cobra.ExactArgs(1),
	PreRunE: prepareOutput(&extractConfig),
	RunE:    runExtractResume,
}

var extractJobCmd = &cobra.Command{
	Use:     "job [job-description-file]",
	Short:   "Extract job requirements",
	Args:    cobra.ExactArgs(1),
	PreRunE: prepareOutput(&extractConfig),
	RunE:    runExtractJob,
}

var extractConfig common.CommandConfig

func init() {
	addOutputFlags(extractResumeCmd, &extractConfig)
	addOutputFlags(extractJobCmd, &extractConfig)
	extractCmd.AddCommand(extractResumeCmd)
	extractCmd.AddCommand(extractJobCmd)
}

func runExtractResume(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.loader.Text(args[0])
	if err != nil {
		return err
	}
	a.logger.Info("Starting resume extraction", "resume_chars", len(text), "output_format", extractConfig.OutputFormat)

	err = common.RunStageCommand(cmd.Context(), a.logger, extractConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (types.ResumeRecord, *ai.TokenUsage, error) {
			return a.pipeline.ExtractResume(ctx, text)
		})
	if err != nil {
		return fmt.Errorf("failed to extract resume: %w", err)
	}
	return nil
}

func runExtractJob(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.loader.Text(args[0])
	if err != nil {
		return err
	}
	a.logger.Info("Starting job extraction", "job_chars", len(text), "output_format", extractConfig.OutputFormat)

	err = common.RunStageCommand(cmd.Context(), a.logger, extractConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (types.JobRequirements, *ai.TokenUsage, error) {
			job, usage, err := a.pipeline.ExtractJob(ctx, text)
			return job.Requirements, usage, err
		})
	if err != nil {
		return fmt.Errorf("failed to extract job description: %w", err)
	}
	return nil
}
