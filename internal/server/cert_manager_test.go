package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned returns PEM encoded certificate and key valid for validFor
func selfSigned(t *testing.T, validFor time.Duration) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func writeCertFiles(t *testing.T, dir string, validFor time.Duration) (string, string) {
	t.Helper()
	certPEM, keyPEM := selfSigned(t, validFor)
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0600))
	return certFile, keyFile
}

func TestCertificateStoreFromContent(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, 48*time.Hour)
	cs, err := NewCertificateStore(config.TLSConfig{
		Mode:        "server",
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
	}, nil, hirescoreErrors.Discard())
	require.NoError(t, err)

	cert, err := cs.GetCertificate(nil)
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	assert.Equal(t, "localhost", cert.Leaf.Subject.CommonName)

	ttl := cs.TimeToExpiry()
	assert.Greater(t, ttl, 47*time.Hour)
	assert.LessOrEqual(t, ttl, 48*time.Hour)
}

func TestCertificateStoreReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertFiles(t, dir, time.Hour)

	cs, err := NewCertificateStore(config.TLSConfig{CertFile: certFile, KeyFile: keyFile}, nil, hirescoreErrors.Discard())
	require.NoError(t, err)
	assert.Less(t, cs.TimeToExpiry(), time.Hour+time.Minute)

	writeCertFiles(t, dir, 30*24*time.Hour)
	require.NoError(t, cs.Reload())
	assert.Greater(t, cs.TimeToExpiry(), 29*24*time.Hour)

	require.NoError(t, os.WriteFile(keyFile, []byte("garbage"), 0600))
	assert.Error(t, cs.Reload())

	total, failed, lastError := cs.Reloads()
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), failed)
	assert.NotEmpty(t, lastError)

	// the previous certificate stays active
	assert.Greater(t, cs.TimeToExpiry(), 29*24*time.Hour)
}

func TestCertificateStoreMissingFiles(t *testing.T) {
	_, err := NewCertificateStore(config.TLSConfig{
		CertFile: "/nonexistent/server.crt",
		KeyFile:  "/nonexistent/server.key",
	}, nil, hirescoreErrors.Discard())
	assert.Error(t, err)
}

func TestCertWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertFiles(t, dir, time.Hour)

	reloaded := make(chan struct{}, 1)
	w := NewCertWatcher(certFile, keyFile, 50*time.Millisecond, func() error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	}, hirescoreErrors.Discard())
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	assert.Error(t, w.Start(), "second start must fail")

	// ensure a newer modification time on coarse-grained filesystems
	time.Sleep(20 * time.Millisecond)
	future := time.Now().Add(time.Minute)
	writeCertFiles(t, dir, 2*time.Hour)
	require.NoError(t, os.Chtimes(certFile, future, future))

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not trigger a reload")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestServeTLS(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertFiles(t, dir, 24*time.Hour*10)

	s := newTestServer(t, config.ServerConfig{
		TLS: config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile, MinVersion: "1.3"},
	}, stubExtractor{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS13}, //nolint:gosec // self-signed test certificate
		},
	}
	resp, err := client.Get("https://" + addr + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint16(tls.VersionTLS13), resp.TLS.Version)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeRejectsInvalidTLSMode(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{TLS: config.TLSConfig{Mode: "mutual"}}, stubExtractor{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = s.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TLS mode")
}
