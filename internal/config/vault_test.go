package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hirescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "invalid json number", input: json.Number("1.5"), expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			ExtractJob: OperationAIConfig{APIKey: "existing-job-key"},
		},
	}

	applyGeminiKeyToConfig(config, "vault-key")

	assert.Equal(t, "vault-key", config.AI.APIKey)
	assert.Equal(t, "vault-key", config.AI.ExtractResume.APIKey)
	assert.Equal(t, "existing-job-key", config.AI.ExtractJob.APIKey)
	assert.Equal(t, "vault-key", config.AI.GenerateRubric.APIKey)
}

func TestLoadSingleCertificate(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expected    int
		expectValue string
	}{
		{
			name:        "valid certificate content",
			data:        map[string]any{"cert": "-----BEGIN CERTIFICATE-----\ntest\n-----END CERTIFICATE-----"},
			expected:    1,
			expectValue: "-----BEGIN CERTIFICATE-----\ntest\n-----END CERTIFICATE-----",
		},
		{name: "empty content", data: map[string]any{"cert": ""}},
		{name: "missing key", data: map[string]any{"other": "value"}},
		{name: "non-string value", data: map[string]any{"cert": 123}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target string
			result := loadSingleCertificate(&VaultSecret{Data: tt.data}, "cert", &target)

			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.expectValue, target)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	t.Run("inline token wins", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "inline", TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "inline", token)
	})

	t.Run("token file is trimmed", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "absent")})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef0123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{AI: AIConfig{APIKey: "from-env"}}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
	assert.Equal(t, "from-env", config.AI.APIKey)
}

// fakeVault serves a KVv2 mount from the given secrets, keyed by request path.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true,
				"sealed":      false,
				"standby":     false,
				"version":     "1.17.0",
			})
			return
		}

		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}

		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/hirescore/gemini":  {"api_key": "gemini-from-vault"},
		"secret/data/hirescore/apikeys": {"keys": "alpha, beta,,gamma"},
		"secret/data/hirescore/tls":     {"cert": "CERT PEM", "key": "KEY PEM"},
		"secret/data/hirescore/redis":   {"password": "hunter2"},
	})

	config := &Config{
		AI: AIConfig{
			APIKey:     "from-env",
			ExtractJob: OperationAIConfig{APIKey: "explicit"},
		},
		Server: ServerConfig{TLS: TLSConfig{Mode: "server", CertFile: "server.crt", KeyFile: "server.key"}},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{
				APIKeys:      "secret/data/hirescore/apikeys",
				GeminiAPIKey: "secret/data/hirescore/gemini",
				TLSCerts:     "secret/data/hirescore/tls",
				Redis:        "secret/data/hirescore/redis",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))

	assert.Equal(t, "gemini-from-vault", config.AI.APIKey)
	assert.Equal(t, "gemini-from-vault", config.AI.ExtractResume.APIKey)
	assert.Equal(t, "explicit", config.AI.ExtractJob.APIKey)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, config.Server.APIKeys)
	assert.Equal(t, "CERT PEM", config.Server.TLS.CertContent)
	assert.Equal(t, "KEY PEM", config.Server.TLS.KeyContent)
	assert.Empty(t, config.Server.TLS.CertFile)
	assert.Empty(t, config.Server.TLS.KeyFile)
	assert.Equal(t, "hunter2", config.Rubric.Cache.RedisPassword)
	assert.NoError(t, config.ValidateTLSConfig())
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, nil)

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{GeminiAPIKey: "secret/data/hirescore/gemini"},
		},
	}

	err := ApplyVaultSecrets(config, newTestLogger())
	assert.ErrorContains(t, err, "failed to load Gemini API key from vault")
}

func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient
	_, err := vc.GetSecretV2("secret/data/any")
	assert.ErrorContains(t, err, "vault client not initialized")
}
