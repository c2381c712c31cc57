package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/rubric"

	"github.com/spf13/cobra"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric [rubric-file]",
	Short: "Normalize and print a rubric",
	Long: `Parse a rubric document (YAML or JSON, mapping or list form), check
its weights and print the canonical rubric. Without a file the active
rubric is printed: the configured rubric file, or the built-in default.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: prepareOutput(&rubricConfig),
	RunE:    runRubric,
}

var rubricConfig common.CommandConfig

func init() {
	addOutputFlags(rubricCmd, &rubricConfig)
}

func runRubric(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return common.RunStageCommand(cmd.Context(), a.logger, rubricConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (*rubric.Rubric, *ai.TokenUsage, error) {
			if len(args) == 0 {
				return a.store.Current(), nil, nil
			}
			r, err := a.loader.Rubric(args[0])
			if err != nil {
				return nil, nil, fmt.Errorf("failed to normalize rubric: %w", err)
			}
			a.logger.Info("Rubric normalized", "file", args[0], "sections", r.Len(), "weight_sum", r.WeightSum())
			return r, nil, nil
		})
}
