package formatters

import (
	"encoding/json"
	"fmt"
	"sort"

	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/types"
	"hirescore/internal/validator"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the built-in formatters
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, "any", &JSONFormatter{})

	renderers := map[string]renderFunc{
		"ResumeRecord":     renderResume,
		"JobDescription":   renderJob,
		"JobRequirements":  renderJob,
		"Rubric":           renderRubric,
		"MatchEvaluation":  renderEvaluation,
		"ValidationResult": renderValidation,
		"Report":           renderReport,
		"PipelineResult":   renderResult,
	}
	for dataType, render := range renderers {
		registry.RegisterFormatter(FormatText, dataType, &documentFormatter{dataType: dataType, render: render})
		registry.RegisterFormatter(FormatMarkdown, dataType, &documentFormatter{dataType: dataType, render: render, markdown: true})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in name order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeRecord:
		return "ResumeRecord"
	case types.JobDescription:
		return "JobDescription"
	case types.JobRequirements:
		return "JobRequirements"
	case *rubric.Rubric:
		return "Rubric"
	case types.MatchEvaluation:
		return "MatchEvaluation"
	case validator.ValidationResult:
		return "ValidationResult"
	case types.Report:
		return "Report"
	case *pipeline.Result:
		return "PipelineResult"
	default:
		return "any"
	}
}

// JSONFormatter emits the bare record as indented JSON
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

type renderFunc func(d *document, data any) error

// documentFormatter renders one record type as plain text or markdown
type documentFormatter struct {
	dataType string
	render   renderFunc
	markdown bool
}

func (f *documentFormatter) Format(data any) (string, error) {
	d := &document{markdown: f.markdown}
	if err := f.render(d, data); err != nil {
		return "", err
	}
	return d.String(), nil
}

func (f *documentFormatter) SupportedType() string {
	return f.dataType
}
