package server

import (
	"crypto/tls"
	"fmt"
)

// setupTLS loads the server certificate and, when configured, starts a
// watcher that reloads it from disk. It returns nil when TLS is disabled.
func (s *Server) setupTLS() (*tls.Config, error) {
	if err := s.cfg.TLS.Validate(); err != nil {
		return nil, err
	}
	if !s.cfg.TLS.Enabled() {
		return nil, nil
	}

	certs, err := NewCertificateStore(s.cfg.TLS, s.metrics, s.logger)
	if err != nil {
		return nil, err
	}
	s.certs = certs

	if s.cfg.TLS.Watch {
		s.certWatcher = NewCertWatcher(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile, 0, certs.Reload, s.logger)
		if err := s.certWatcher.Start(); err != nil {
			return nil, fmt.Errorf("failed to start certificate watcher: %w", err)
		}
	}

	return &tls.Config{
		MinVersion:     minTLSVersion(s.cfg.TLS.MinVersion),
		GetCertificate: certs.GetCertificate,
	}, nil
}

func minTLSVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
