package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/validator"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [evaluation-file]",
	Short: "Check a match evaluation for arithmetic and evidence gaps",
	Long: `Recompute the weighted totals of a match evaluation (as printed by score
--format json) and flag every inconsistency. The result is printed either
way; the command fails when the evaluation is inconsistent.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: prepareOutput(&validateConfig),
	RunE:    runValidate,
}

var validateConfig common.CommandConfig

func init() {
	addOutputFlags(validateCmd, &validateConfig)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	eval, err := a.loader.Evaluation(args[0])
	if err != nil {
		return err
	}

	var validationErr error
	err = common.RunStageCommand(cmd.Context(), a.logger, validateConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (validator.ValidationResult, *ai.TokenUsage, error) {
			result, err := a.pipeline.Validate(ctx, eval)
			validationErr = err
			if len(result.Issues) > 0 {
				return result, nil, nil
			}
			return result, nil, err
		})
	if err != nil {
		return fmt.Errorf("failed to validate evaluation: %w", err)
	}
	return validationErr
}
