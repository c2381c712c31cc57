package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/pipeline"
	"hirescore/internal/utils"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [resume-file] [job-file]",
	Short: "Run the full evaluation pipeline",
	Long: `Run extraction, rubric resolution, scoring, gap validation and report
synthesis for one resume against one job description. Inputs are raw
text or structured JSON records; only text inputs are extracted.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&evaluateConfig),
	RunE:    runEvaluate,
}

var (
	evaluateConfig     common.CommandConfig
	evaluateRubricFile string
)

func init() {
	addOutputFlags(evaluateCmd, &evaluateConfig)
	evaluateCmd.Flags().StringVar(&evaluateRubricFile, "rubric", "", "Rubric file (YAML or JSON); overrides the configured rubric")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	explicit, err := a.loader.Rubric(evaluateRubricFile)
	if err != nil {
		return err
	}

	resumeText, err := a.loader.Text(args[0])
	if err != nil {
		return err
	}
	jobText, err := a.loader.Text(args[1])
	if err != nil {
		return err
	}

	a.logger.Info("Starting evaluation",
		"resume_chars", len(resumeText),
		"job_chars", len(jobText),
		"output_format", evaluateConfig.OutputFormat)

	structured := utils.LooksLikeJSON([]byte(resumeText)) || utils.LooksLikeJSON([]byte(jobText))

	err = common.RunStageCommand(cmd.Context(), a.logger, evaluateConfig, cmd.OutOrStdout(),
		func(ctx context.Context) (*pipeline.Result, *ai.TokenUsage, error) {
			if !structured {
				if a.service == nil {
					return nil, nil, a.cfg.RequireAPIKey()
				}
				res, err := a.pipeline.Run(ctx, pipeline.Input{ResumeText: resumeText, JobText: jobText, Rubric: explicit})
				if err != nil {
					return nil, nil, err
				}
				return res, &res.Usage, nil
			}

			var usage ai.TokenUsage
			resume, u, err := a.loader.Resume(ctx, args[0])
			if err != nil {
				return nil, nil, err
			}
			usage.Add(u)
			job, u, err := a.loader.Job(ctx, args[1])
			if err != nil {
				return nil, nil, err
			}
			usage.Add(u)

			res, err := a.pipeline.Evaluate(ctx, resume, job, explicit)
			if err != nil {
				return nil, nil, err
			}
			res.Usage.Add(&usage)
			return res, &res.Usage, nil
		})
	if err != nil {
		return fmt.Errorf("failed to evaluate resume: %w", err)
	}

	a.logger.Info("Evaluation completed successfully")
	return nil
}
