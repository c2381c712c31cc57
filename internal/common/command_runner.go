package common

import (
	"context"
	"io"

	"hirescore/internal/ai"
	"hirescore/internal/errors"
)

// StageFunc runs one command stage and reports the tokens it spent
type StageFunc[Output any] func(context.Context) (Output, *ai.TokenUsage, error)

// RunStageCommand runs stage, reports its token usage and writes the formatted result.
func RunStageCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	out io.Writer,
	stage StageFunc[Output],
) error {
	outputHandler := NewOutputHandler(logger, out)

	// the destination is checked before the stage runs
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	result, tokenUsage, err := stage(ctx)
	if err != nil {
		return err
	}

	if tokenUsage != nil && tokenUsage.TotalTokens > 0 {
		logger.Info("AI token usage",
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
