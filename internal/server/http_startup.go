package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	tlsConfig, err := s.setupTLS()
	if err != nil {
		_ = ln.Close()
		s.stopBackground()
		return err
	}

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		TLSConfig:    tlsConfig,
	}

	scheme := "http"
	if tlsConfig != nil {
		scheme = "https"
		ln = tls.NewListener(ln, tlsConfig)
	}
	fmt.Printf("Starting server on %s://%s\n", scheme, ln.Addr())
	s.displayServerInfo()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", ln.Addr().String(), "tls_enabled", tlsConfig != nil)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopBackground()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutdown requested, starting graceful shutdown")
		return s.shutdown(httpServer)
	}
}

func (s *Server) shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopBackground()

	s.logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.logger.Info("Server shutdown completed successfully")
	return nil
}

// stopBackground stops the certificate watcher and the rate limiter cleanup
func (s *Server) stopBackground() {
	if s.certWatcher != nil {
		if err := s.certWatcher.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
		s.logger.Info("Rate limiter cleaned up")
	}
}
