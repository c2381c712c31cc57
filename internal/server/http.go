package server

import (
	"context"
	"net/http"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/pipeline"
	"hirescore/internal/rubric"
	"hirescore/internal/schema"
)

// BackendStatus reports the extraction backends for /health and /stats
type BackendStatus interface {
	GetModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	Stats() map[string]any
}

// Options holds everything a Server needs. Store, Backends and Observability may be nil.
type Options struct {
	Config        config.ServerConfig
	Version       string
	Pipeline      *pipeline.Pipeline
	Registry      *schema.Registry
	Store         *rubric.Store
	Backends      BackendStatus
	Observability *observability.Manager
	Logger        *hirescoreErrors.Logger
}

// Server is the HTTP surface of the evaluation pipeline
type Server struct {
	cfg      config.ServerConfig
	version  string
	pipeline *pipeline.Pipeline
	registry *schema.Registry
	store    *rubric.Store
	backends BackendStatus
	obs      *observability.Manager
	metrics  *observability.Metrics
	logger   *hirescoreErrors.Logger

	apiKeys     map[string]bool
	rateLimiter *RateLimiter
	certs       *CertificateStore
	certWatcher *CertWatcher
}

// NewServer creates a Server from opts
func NewServer(opts Options) *Server {
	apiKeys := make(map[string]bool)
	for _, key := range opts.Config.APIKeys {
		if key != "" {
			apiKeys[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if opts.Config.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(opts.Config.RateLimit.RequestsPerMin, opts.Config.RateLimit.BurstSize, opts.Logger)
	}

	store := opts.Store
	if store == nil {
		store = rubric.NewStore(nil)
	}

	return &Server{
		cfg:         opts.Config,
		version:     opts.Version,
		pipeline:    opts.Pipeline,
		registry:    opts.Registry,
		store:       store,
		backends:    opts.Backends,
		obs:         opts.Observability,
		metrics:     opts.Observability.Metrics(),
		logger:      opts.Logger,
		apiKeys:     apiKeys,
		rateLimiter: rateLimiter,
	}
}

// Handler returns the routed handler wrapped in the tracing middleware
func (s *Server) Handler() http.Handler {
	return s.obs.HTTPMiddleware()(s.setupRoutes())
}
