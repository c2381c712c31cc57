package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-file]",
	Short: "Score a resume against a job description",
	Long: `Compute the rubric-weighted match evaluation of a resume against a job
description. Each input is either a structured JSON record (as printed by
extract) or raw text, which is extracted first.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&scoreConfig),
	RunE:    runScore,
}

var (
	scoreConfig     common.CommandConfig
	scoreRubricFile string
)

func init() {
	addOutputFlags(scoreCmd, &scoreConfig)
	scoreCmd.Flags().StringVar(&scoreRubricFile, "rubric", "", "Rubric file (YAML or JSON); overrides the configured rubric")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	explicit, err := a.loader.Rubric(scoreRubricFile)
	if err != nil {
		return err
	}

	err = common.RunStageCommand(cmd.Context(), a.logger, scoreConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (types.MatchEvaluation, *ai.TokenUsage, error) {
			var usage ai.TokenUsage

			resume, u, err := a.loader.Resume(ctx, args[0])
			if err != nil {
				return types.MatchEvaluation{}, nil, err
			}
			usage.Add(u)

			job, u, err := a.loader.Job(ctx, args[1])
			if err != nil {
				return types.MatchEvaluation{}, nil, err
			}
			usage.Add(u)

			r, _, err := a.pipeline.ResolveRubric(ctx, job, explicit)
			if err != nil {
				return types.MatchEvaluation{}, nil, err
			}
			eval, err := a.pipeline.Score(ctx, resume, job, r)
			return eval, &usage, err
		})
	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	return nil
}
