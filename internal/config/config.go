package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"hirescore/internal/report"
	"hirescore/internal/scoring"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (HIRESCORE_AI_APIKEY, GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Scoring       scoring.Policy      `mapstructure:"scoring"`
	Report        report.Options      `mapstructure:"report"`
	Rubric        RubricConfig        `mapstructure:"rubric"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds extraction adapter configuration
type AIConfig struct {
	// Global defaults, inherited by each operation
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	BaseURL          string               `mapstructure:"baseURL"` // Optional API endpoint override
	Timeout          time.Duration        `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       int                  `mapstructure:"maxRetries"`
	Temperature      float32              `mapstructure:"temperature"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Operation-specific configurations
	ExtractResume  OperationAIConfig `mapstructure:"extractResume"`
	ExtractJob     OperationAIConfig `mapstructure:"extractJob"`
	GenerateRubric OperationAIConfig `mapstructure:"generateRubric"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for one extraction operation.
// Nil pointers and empty strings inherit the global AI values.
type OperationAIConfig struct {
	Provider         string                `mapstructure:"provider"`
	Model            string                `mapstructure:"model"`
	BaseURL          string                `mapstructure:"baseURL"`
	Timeout          *time.Duration        `mapstructure:"timeout"`
	APIKey           string                `mapstructure:"apiKey"`
	MaxRetries       *int                  `mapstructure:"maxRetries"`
	Temperature      *float32              `mapstructure:"temperature"`
	UseSystemPrompts *bool                 `mapstructure:"useSystemPrompts"`
	CircuitBreaker   *CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Prompts          PromptConfig          `mapstructure:"prompts"`
}

// PromptConfig overrides the built-in prompts for one operation. A file path
// takes precedence over inline text.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// RubricConfig selects the rubric used for scoring
type RubricConfig struct {
	File     string        `mapstructure:"file"`     // Rubric document (YAML or JSON)
	Watch    bool          `mapstructure:"watch"`    // Reload the file on change (serve only)
	Debounce time.Duration `mapstructure:"debounce"` // Debounce delay for file change events
	Generate bool          `mapstructure:"generate"` // Generate a job-specific rubric when no file is given
	Cache    CacheConfig   `mapstructure:"cache"`
}

// CacheConfig configures where generated rubrics are cached
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // none, file, redis
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redisAddr"`
	RedisPassword string        `mapstructure:"redisPassword"`
	RedisDB       int           `mapstructure:"redisDB"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds server TLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`

	MinVersion string `mapstructure:"minVersion"` // Minimum TLS version: "1.2", "1.3"

	// Reload certificate files when they change on disk
	Watch bool `mapstructure:"watch"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstSize      int  `mapstructure:"burstSize"`      // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	Console         bool             `mapstructure:"console"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration. Empty endpoints disable the exporter.
type OTLPConfig struct {
	TracesEndpoint  string            `mapstructure:"tracesEndpoint"`
	MetricsEndpoint string            `mapstructure:"metricsEndpoint"`
	Insecure        bool              `mapstructure:"insecure"`
	Headers         map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, the config file and environment variables
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("HIRESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.hirescore")
	v.AddConfigPath("/etc/hirescore/")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if config.App.LogLevel == "debug" {
		config.logConfigurationSources(configFileUsed)
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("[CONFIG] Configuration loaded (file: %s)", orNone(configFileUsed))
	return &config, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Validate checks every section and returns the first failure
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "gemini":
		// The key may still arrive from Vault; commands that call the model check again.
	case "json":
	default:
		return fmt.Errorf("unsupported AI provider: %s (must be 'gemini' or 'json')", c.AI.Provider)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("AI maxRetries must not be negative")
	}

	if c.Scoring.Step <= 0 || c.Scoring.Step > 10 {
		return fmt.Errorf("scoring step must be in (0, 10], got %g", c.Scoring.Step)
	}

	if c.Scoring.Tolerance <= 0 {
		return fmt.Errorf("scoring tolerance must be positive")
	}

	switch c.Rubric.Cache.Backend {
	case "", "none":
	case "file":
		if c.Rubric.Cache.Dir == "" {
			return fmt.Errorf("rubric cache dir is required for the file backend")
		}
	case "redis":
		if c.Rubric.Cache.RedisAddr == "" {
			return fmt.Errorf("rubric cache redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid rubric cache backend: %s (must be 'none', 'file', or 'redis')", c.Rubric.Cache.Backend)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// RequireAPIKey reports whether the configured provider needs an API key and has none.
func (c *Config) RequireAPIKey() error {
	if c.AI.Provider == "gemini" && c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set HIRESCORE_AI_APIKEY or GEMINI_API_KEY)")
	}
	return nil
}
