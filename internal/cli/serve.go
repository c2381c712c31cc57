package cli

import (
	"context"
	"fmt"
	"time"

	"hirescore/internal/config"
	"hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/rubric"
	"hirescore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP evaluation server",
	Long: `Start an HTTP server exposing the evaluation pipeline.

Available endpoints:
- POST /evaluate: Run the full pipeline
- POST /extract/resume, /extract/job: Extract structured records
- POST /score, /validate, /report: Run one stage on structured records
- POST /rubric/normalize: Normalize a rubric document
- GET /rubric: Active rubric
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().Bool("watch-rubric", false, "Reload the rubric file when it changes (overrides config)")
}

// applyServeFlags copies the flags the user set over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
	}
	for name, target := range overrides {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	if flags.Changed("watch-rubric") {
		cfg.Rubric.Watch, _ = flags.GetBool("watch-rubric")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	applyServeFlags(cmd, cfg)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	obs, err := observability.NewManager(cfg.Observability, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer shutdownObservability(obs, logger)

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{obs: obs})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Rubric.Watch && cfg.Rubric.File != "" {
		watcher := rubric.NewWatcher(cfg.Rubric.File, a.store, cfg.Rubric.Debounce, nil, logger)
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch rubric file: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	opts := server.Options{
		Config:        cfg.Server,
		Version:       Version,
		Pipeline:      a.pipeline,
		Registry:      a.registry,
		Store:         a.store,
		Observability: obs,
		Logger:        logger,
	}
	if a.service != nil {
		opts.Backends = a.service
	}

	return server.NewServer(opts).Start(cmd.Context())
}

func shutdownObservability(obs *observability.Manager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}
