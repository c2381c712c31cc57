package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hirescore/internal/config"
	"hirescore/internal/errors"
	"hirescore/internal/observability"
)

// CertificateStore holds the server certificate and swaps it atomically on reload.
// Handshakes read the current certificate through GetCertificate.
type CertificateStore struct {
	cfg     config.TLSConfig
	metrics *observability.Metrics
	logger  *errors.Logger

	current atomic.Pointer[tls.Certificate]

	mu        sync.Mutex
	reloads   int64
	failures  int64
	lastError string
}

// NewCertificateStore loads the configured certificate. Inline content
// (from Vault) takes precedence over files.
func NewCertificateStore(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) (*CertificateStore, error) {
	cs := &CertificateStore{cfg: cfg, metrics: metrics, logger: logger}
	cert, err := cs.load()
	if err != nil {
		return nil, err
	}
	cs.current.Store(cert)
	return cs, nil
}

func (cs *CertificateStore) load() (*tls.Certificate, error) {
	var (
		cert tls.Certificate
		err  error
	)
	if cs.cfg.CertContent != "" && cs.cfg.KeyContent != "" {
		cert, err = tls.X509KeyPair([]byte(cs.cfg.CertContent), []byte(cs.cfg.KeyContent))
	} else {
		cert, err = tls.LoadX509KeyPair(cs.cfg.CertFile, cs.cfg.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse server certificate: %w", err)
		}
		cert.Leaf = leaf
	}
	return &cert, nil
}

// Reload re-reads the certificate. On failure the previous certificate stays in use.
func (cs *CertificateStore) Reload() error {
	cert, err := cs.load()

	cs.mu.Lock()
	cs.reloads++
	if err != nil {
		cs.failures++
		cs.lastError = err.Error()
	} else {
		cs.lastError = ""
	}
	cs.mu.Unlock()

	cs.metrics.RecordCertReload(context.Background(), err == nil)

	if err != nil {
		cs.logger.LogError(err, "Certificate reload failed, keeping the current certificate")
		return err
	}

	cs.current.Store(cert)
	cs.logger.Info("Server certificate reloaded", "expires", cert.Leaf.NotAfter.Format(time.RFC3339))
	return nil
}

// GetCertificate implements tls.Config.GetCertificate
func (cs *CertificateStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert := cs.current.Load()
	if cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cert, nil
}

// TimeToExpiry returns how long the current certificate stays valid. It is
// negative once the certificate has expired.
func (cs *CertificateStore) TimeToExpiry() time.Duration {
	cert := cs.current.Load()
	if cert == nil || cert.Leaf == nil {
		return 0
	}
	return time.Until(cert.Leaf.NotAfter)
}

// Reloads reports reload attempts, failures and the last failure message
func (cs *CertificateStore) Reloads() (total, failed int64, lastError string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.reloads, cs.failures, cs.lastError
}
