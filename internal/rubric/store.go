package rubric

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"hirescore/internal/errors"
	"hirescore/internal/types"
)

// LoadFile reads and normalizes a rubric file.
func LoadFile(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read rubric file: %s", path), err)
	}
	return Load(data)
}

// Store holds the active fallback rubric and allows it to be swapped atomically.
// The fallback is either the built-in default or a rubric loaded from a file.
type Store struct {
	current atomic.Pointer[storeEntry]
}

type storeEntry struct {
	rubric *Rubric
	source Source
}

// NewStore creates a store holding initial, or the built-in default when initial is nil.
// A non-nil initial rubric is reported as SourceFile.
func NewStore(initial *Rubric) *Store {
	entry := &storeEntry{rubric: initial, source: SourceFile}
	if !initial.Normalized() {
		entry = &storeEntry{rubric: Default(), source: SourceDefault}
	}
	s := &Store{}
	s.current.Store(entry)
	return s
}

// Current returns the active rubric.
func (s *Store) Current() *Rubric {
	return s.current.Load().rubric
}

// Source reports where the active rubric came from.
func (s *Store) Source() Source {
	return s.current.Load().source
}

// Set replaces the active rubric with one read from a file. Unnormalized rubrics are refused.
func (s *Store) Set(r *Rubric) error {
	if !r.Normalized() {
		return &Error{Code: MalformedRubric, Detail: "refusing to activate an unnormalized rubric"}
	}
	s.current.Store(&storeEntry{rubric: r, source: SourceFile})
	return nil
}

// Source records where a resolved rubric came from
type Source string

const (
	SourceExplicit  Source = "explicit"
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
	SourceFile      Source = "file"
	SourceDefault   Source = "default"
)

// Generator produces a rubric document tailored to a job
type Generator interface {
	GenerateRubric(ctx context.Context, job types.JobDescription) ([]byte, error)
}

// Resolver picks the rubric for an evaluation: explicit, then cached, then generated,
// then the store's fallback (a rubric file or the built-in default).
type Resolver struct {
	store     *Store
	cache     Cache
	generator Generator
	logger    *errors.Logger
}

// NewResolver builds a resolver. cache and generator may be nil.
func NewResolver(store *Store, cache Cache, generator Generator, logger *errors.Logger) *Resolver {
	if store == nil {
		store = NewStore(nil)
	}
	if cache == nil {
		cache = NopCache{}
	}
	return &Resolver{store: store, cache: cache, generator: generator, logger: logger}
}

// Resolve returns the rubric to score job against. A generated rubric that fails
// normalization is returned as an error rather than replaced by the fallback.
func (r *Resolver) Resolve(ctx context.Context, job types.JobDescription, explicit *Rubric) (*Rubric, Source, error) {
	if explicit != nil {
		if !explicit.Normalized() {
			return nil, "", &Error{Code: MalformedRubric, Detail: "explicit rubric was not normalized"}
		}
		return explicit, SourceExplicit, nil
	}

	title, hasTitle := job.Requirements.Title.Get()
	if r.generator == nil || !hasTitle || strings.TrimSpace(title) == "" {
		entry := r.store.current.Load()
		return entry.rubric, entry.source, nil
	}

	key := CacheKey(title)
	if data, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("Rubric cache lookup failed", "key", key, "error", err.Error())
	} else if ok {
		cached, err := Load(data)
		if err == nil {
			r.logger.Debug("Using cached rubric", "key", key, "sections", cached.Len())
			return cached, SourceCache, nil
		}
		r.logger.Warn("Discarding invalid cached rubric", "key", key, "error", err.Error())
	}

	data, err := r.generator.GenerateRubric(ctx, job)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate rubric for %q: %w", title, err)
	}
	generated, err := Load(data)
	if err != nil {
		return nil, "", err
	}

	canonical, err := generated.MarshalJSON()
	if err == nil {
		err = r.cache.Put(ctx, key, canonical)
	}
	if err != nil {
		r.logger.Warn("Failed to cache generated rubric", "key", key, "error", err.Error())
	}

	r.logger.Info("Generated rubric for job", "job_title", title, "sections", generated.Len())
	return generated, SourceGenerated, nil
}
