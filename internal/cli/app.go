package cli

import (
	"context"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/config"
	"hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// app holds the components a command runs against
type app struct {
	cfg      *config.Config
	logger   *errors.Logger
	registry *schema.Registry
	store    *rubric.Store
	service  *ai.Service // nil when extraction is unavailable
	pipeline *pipeline.Pipeline
	loader   *common.InputLoader
	closers  []func() error
}

type appOptions struct {
	// requireExtraction fails construction when no extraction backend can be built
	requireExtraction bool
	obs               *observability.Manager
}

func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts appOptions) (*app, error) {
	registry, err := schema.Default()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "Failed to load record schemas", err)
	}

	a := &app{cfg: cfg, logger: logger, registry: registry}

	if cfg.Rubric.File != "" {
		r, err := rubric.LoadFile(cfg.Rubric.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load rubric %s: %w", cfg.Rubric.File, err)
		}
		a.store = rubric.NewStore(r)
		logger.Info("Rubric loaded", "file", cfg.Rubric.File, "sections", r.Len())
	} else {
		a.store = rubric.NewStore(nil)
	}

	if err := cfg.RequireAPIKey(); err != nil {
		if opts.requireExtraction {
			return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "Extraction needs an AI API key", err)
		}
		logger.Debug("Extraction unavailable, only structured inputs are accepted", "reason", err.Error())
	} else {
		svc, err := ai.NewService(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create extraction service: %w", err)
		}
		a.service = svc
		a.closers = append(a.closers, svc.Close)

		if metrics := opts.obs.Metrics(); metrics != nil {
			svc.SetUsageHook(func(operation string, usage *ai.TokenUsage) {
				metrics.RecordTokens(context.Background(), operation, usage.InputTokens, usage.OutputTokens)
			})
		}
	}

	resolver, err := a.newResolver()
	if err != nil {
		a.Close()
		return nil, err
	}

	var extractor ai.Extractor
	if a.service != nil {
		extractor = a.service
	}
	a.pipeline = pipeline.New(extractor, resolver, pipeline.Config{
		Scoring:   cfg.Scoring,
		Report:    cfg.Report,
		Tolerance: cfg.Scoring.Tolerance,
		Metrics:   opts.obs.Metrics(),
		Tracer:    opts.obs.Tracer("hirescore/pipeline"),
		Logger:    logger,
	})

	// text inputs go through the pipeline so extraction failures carry their stage
	var loaderExtractor ai.Extractor
	if a.service != nil {
		loaderExtractor = a.pipeline
	}
	a.loader = common.NewInputLoader(common.NewFileProcessor(logger, cfg.App.MaxFileSize), registry, loaderExtractor, logger)

	return a, nil
}

// newResolver wires rubric generation and its cache. Generation only applies
// when no rubric file is configured.
func (a *app) newResolver() (*rubric.Resolver, error) {
	if a.service == nil || !a.cfg.Rubric.Generate || a.cfg.Rubric.File != "" || !a.service.CanGenerateRubric() {
		return rubric.NewResolver(a.store, nil, nil, a.logger), nil
	}

	cache, err := a.newRubricCache(a.cfg.Rubric.Cache)
	if err != nil {
		return nil, err
	}
	return rubric.NewResolver(a.store, cache, a.service, a.logger), nil
}

func (a *app) newRubricCache(cfg config.CacheConfig) (rubric.Cache, error) {
	switch cfg.Backend {
	case "file":
		cache, err := rubric.NewFileCache(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create rubric cache: %w", err)
		}
		return cache, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		if err := redisotel.InstrumentTracing(client); err != nil {
			a.logger.Warn("Failed to instrument Redis tracing", "error", err)
		}
		a.logger.Info("Rubric cache uses Redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return rubric.NewRedisCache(client, cfg.Prefix, cfg.TTL), nil
	default:
		return rubric.NopCache{}, nil
	}
}

// Close releases the extraction backends and cache connections
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.LogError(err, "Failed to release resource")
		}
	}
	a.closers = nil
}
