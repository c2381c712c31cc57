package common

import (
	"fmt"
	"slices"
	"strings"

	"hirescore/internal/formatters"
	"hirescore/internal/utils"
)

// ValidateOutputFormat checks format against the configured formats and the
// formats the renderer knows. An empty configured list allows every renderer.
func ValidateOutputFormat(format string, configured []string) error {
	supported := SupportedFormats(configured)
	if slices.Contains(supported, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v", format, supported)
}

// SupportedFormats returns the configured formats that have a renderer, in
// configured order.
func SupportedFormats(configured []string) []string {
	rendered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		return rendered
	}
	var out []string
	for _, f := range configured {
		if slices.Contains(rendered, f) {
			out = append(out, f)
		}
	}
	return out
}

// ResolveOutputFormat picks the output format for a command. An explicit format
// wins; otherwise the output file extension decides, then the configured default.
func ResolveOutputFormat(format, outputFile, defaultFormat string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch utils.GetFileExtension(outputFile) {
	case ".json":
		return formatters.FormatJSON
	case ".md", ".markdown":
		return formatters.FormatMarkdown
	case ".txt", ".text":
		return formatters.FormatText
	}
	return defaultFormat
}
