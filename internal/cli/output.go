package cli

import (
	"hirescore/internal/common"

	"github.com/spf13/cobra"
)

// addOutputFlags registers the output flags shared by every record command
func addOutputFlags(cmd *cobra.Command, c *common.CommandConfig) {
	cmd.Flags().StringVarP(&c.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&c.OutputFormat, "format", "", "Output format: json, text, or markdown (default: from the output file extension, then config)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.SupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput resolves and validates the output format before the command runs
func prepareOutput(c *common.CommandConfig) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		c.OutputFormat = common.ResolveOutputFormat(c.OutputFormat, c.OutputFile, cfg.App.DefaultFormat)
		c.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(c.OutputFormat, cfg.App.SupportedFormats)
	}
}

// commandApp builds the app for cmd from the config and logger in its context
func commandApp(cmd *cobra.Command, requireExtraction bool) (*app, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, logger, appOptions{requireExtraction: requireExtraction})
}
