package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{name: "disabled", tls: TLSConfig{Mode: "disabled"}},
		{name: "empty mode", tls: TLSConfig{}},
		{name: "server with files", tls: TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem"}},
		{name: "server with content", tls: TLSConfig{Mode: "server", CertContent: "cert", KeyContent: "key"}},
		{name: "server with mixed sources", tls: TLSConfig{Mode: "server", CertFile: "c.pem", KeyContent: "key", MinVersion: "1.3"}},
		{
			name:    "server without key",
			tls:     TLSConfig{Mode: "server", CertFile: "c.pem"},
			wantErr: "TLS certificate and key are required",
		},
		{
			name:    "duplicate certificate source",
			tls:     TLSConfig{Mode: "server", CertFile: "c.pem", CertContent: "cert", KeyFile: "k.pem"},
			wantErr: "cannot specify both certFile and certContent",
		},
		{
			name:    "duplicate key source",
			tls:     TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem", KeyContent: "key"},
			wantErr: "cannot specify both keyFile and keyContent",
		},
		{name: "watch files", tls: TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem", Watch: true}},
		{
			name:    "watch content",
			tls:     TLSConfig{Mode: "server", CertContent: "cert", KeyContent: "key", Watch: true},
			wantErr: "TLS watch needs certFile and keyFile",
		},
		{
			name:    "mutual is not supported",
			tls:     TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem"},
			wantErr: "invalid TLS mode",
		},
		{
			name:    "old TLS version",
			tls:     TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "1.1"},
			wantErr: "invalid TLS minVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := c.ValidateTLSConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTLSConfigHelpers(t *testing.T) {
	assert.False(t, TLSConfig{Mode: "disabled"}.Enabled())
	assert.True(t, TLSConfig{Mode: "server"}.Enabled())
	assert.True(t, TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}.Watchable())
	assert.False(t, TLSConfig{CertFile: "c.pem", KeyContent: "key"}.Watchable())
}
