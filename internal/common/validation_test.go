package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name       string
		format     string
		configured []string
		wantErr    string
	}{
		{name: "json", format: "json", configured: configured},
		{name: "markdown", format: "markdown", configured: configured},
		{name: "not configured", format: "markdown", configured: []string{"json"},
			wantErr: "unsupported output format 'markdown'. Supported formats: [json]"},
		{name: "no renderer", format: "xml", configured: []string{"json", "xml"},
			wantErr: "unsupported output format 'xml'. Supported formats: [json]"},
		{name: "case sensitive", format: "JSON", configured: configured,
			wantErr: "unsupported output format 'JSON'"},
		{name: "empty", format: "", configured: configured,
			wantErr: "unsupported output format ''"},
		{name: "unconfigured allows renderers", format: "text", configured: nil},
		{name: "unconfigured still needs a renderer", format: "yaml", configured: nil,
			wantErr: "Supported formats: [json markdown text]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.configured)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"markdown", "json"}, SupportedFormats([]string{"markdown", "csv", "json"}))
	assert.Equal(t, []string{"json", "markdown", "text"}, SupportedFormats(nil))
	assert.Empty(t, SupportedFormats([]string{"csv"}))
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	configured := []string{"json", "text", "markdown"}
	for b.Loop() {
		_ = ValidateOutputFormat("markdown", configured)
	}
}
