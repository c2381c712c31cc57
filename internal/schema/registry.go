// Package schema holds the fixed record shapes exchanged between pipeline stages
// and validates instances against them.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Kind names a record shape
type Kind string

const (
	KindResume          Kind = "resume"
	KindJobRequirements Kind = "job_requirements"
	KindRubric          Kind = "rubric"
	KindMatchEvaluation Kind = "match_evaluation"
	KindReport          Kind = "report"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Registry compiles and serves the embedded JSON Schemas
type Registry struct {
	raw      map[Kind][]byte
	compiled map[Kind]*gojsonschema.Schema
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide registry, compiling it on first use.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewRegistry()
	})
	return defaultRegistry, defaultErr
}

// NewRegistry compiles every embedded schema.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		raw:      make(map[Kind][]byte),
		compiled: make(map[Kind]*gojsonschema.Schema),
	}

	for _, kind := range []Kind{KindResume, KindJobRequirements, KindRubric, KindMatchEvaluation, KindReport} {
		data, err := schemaFS.ReadFile("schemas/" + string(kind) + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", kind, err)
		}

		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", kind, err)
		}

		r.raw[kind] = data
		r.compiled[kind] = compiled
	}

	return r, nil
}

// Kinds lists the registered record kinds in name order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.raw))
	for k := range r.raw {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Schema returns the JSON Schema document for kind.
func (r *Registry) Schema(kind Kind) ([]byte, error) {
	data, ok := r.raw[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema kind: %s", kind)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Validate checks a JSON document against the schema for kind.
func (r *Registry) Validate(kind Kind, data []byte) error {
	compiled, ok := r.compiled[kind]
	if !ok {
		return fmt.Errorf("unknown schema kind: %s", kind)
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ViolationError{SchemaKind: kind, Problems: []string{"document is not valid JSON: " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ViolationError{SchemaKind: kind, Problems: problems}
}

// ValidateValue marshals v and validates the result against kind.
func (r *Registry) ValidateValue(kind Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	return r.Validate(kind, data)
}

// Decode validates data against kind and unmarshals it into T.
func Decode[T any](r *Registry, kind Kind, data []byte) (T, error) {
	var out T
	if err := r.Validate(kind, data); err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &ViolationError{SchemaKind: kind, Problems: []string{err.Error()}}
	}
	return out, nil
}

// ViolationError reports a document that does not match its schema
type ViolationError struct {
	SchemaKind Kind
	Problems   []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s does not match schema: %s", e.SchemaKind, strings.Join(e.Problems, "; "))
}

func (e *ViolationError) Stage() string { return "schema" }
func (e *ViolationError) Kind() string  { return "SchemaViolation" }
