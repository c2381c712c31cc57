package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/types"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [resume-file] [evaluation-file]",
	Short: "Synthesize a hiring report from an evaluation",
	Long: `Validate a match evaluation and synthesize the hiring report for the
candidate. The resume is a structured record or raw text; the evaluation
is the JSON printed by score. Inconsistent evaluations are refused.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&reportConfig),
	RunE:    runReport,
}

var reportConfig common.CommandConfig

func init() {
	addOutputFlags(reportCmd, &reportConfig)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	eval, err := a.loader.Evaluation(args[1])
	if err != nil {
		return err
	}

	err = common.RunStageCommand(cmd.Context(), a.logger, reportConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (types.Report, *ai.TokenUsage, error) {
			resume, usage, err := a.loader.Resume(ctx, args[0])
			if err != nil {
				return types.Report{}, nil, err
			}
			result, err := a.pipeline.Validate(ctx, eval)
			if err != nil {
				return types.Report{}, usage, err
			}
			rep, err := a.pipeline.Report(ctx, resume, result.Evaluation)
			return rep, usage, err
		})
	if err != nil {
		return fmt.Errorf("failed to synthesize report: %w", err)
	}
	return nil
}
