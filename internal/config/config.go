package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/lashkaryadi/get-me-a-tutor/pkg/config"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/httpclient"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/tracing"
)

// EnvPrefix is prepended to every variable read by Load.
const EnvPrefix = "TUTOR_"

// Store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the marketplace client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Marketplace API
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	RefreshPath    string        `env:"API_REFRESH_PATH" envDefault:"/auth/refresh"`
	APITimeout     time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	APIRateLimit   float64       `env:"API_RATE_LIMIT" envDefault:"0"`
	APIRateBurst   int           `env:"API_RATE_BURST" envDefault:"1"`
	MaxConnsPerAPI int           `env:"API_MAX_CONNS" envDefault:"16"`

	// Circuit breaker around the API
	BreakerEnabled      bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Client store
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"file"`
	StorePath      string `env:"STORE_PATH" envDefault:".tutorctl/session.json"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"tutor:session:"`

	// Credit ledger
	CreditMaxAttempts int           `env:"CREDIT_MAX_ATTEMPTS" envDefault:"3"`
	CreditBaseDelay   time.Duration `env:"CREDIT_BASE_DELAY" envDefault:"1s"`
	CreditLegacyPath  bool          `env:"CREDIT_LEGACY_PATH" envDefault:"false"`

	// Redirect target handed to auth-expired subscribers
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// Local payment callback listener
	CallbackHTTPPort       int           `env:"CALLBACK_HTTP_PORT" envDefault:"8765"`
	CallbackAllowedOrigins []string      `env:"CALLBACK_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	CallbackDedupeTTL      time.Duration `env:"CALLBACK_DEDUPE_TTL" envDefault:"1h"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from TUTOR_-prefixed environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, EnvPrefix); err != nil {
		return nil, fmt.Errorf("load tutor config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if !strings.HasPrefix(c.RefreshPath, "/") {
		return fmt.Errorf("API_REFRESH_PATH must start with /, got %q", c.RefreshPath)
	}
	switch c.StoreBackend {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of file, redis, memory, got %q", c.StoreBackend)
	}
	if c.CreditMaxAttempts < 1 {
		return fmt.Errorf("CREDIT_MAX_ATTEMPTS must be at least 1, got %d", c.CreditMaxAttempts)
	}
	if c.CreditBaseDelay < 0 {
		return fmt.Errorf("CREDIT_BASE_DELAY must not be negative")
	}
	if c.CallbackHTTPPort < 1 || c.CallbackHTTPPort > 65535 {
		return fmt.Errorf("invalid callback HTTP port: %d", c.CallbackHTTPPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}

// HTTPClient returns the transport settings for the API client.
func (c *Config) HTTPClient() httpclient.Config {
	return httpclient.Config{
		Timeout:           c.APITimeout,
		MaxConnsPerHost:   c.MaxConnsPerAPI,
		RequestsPerSecond: c.APIRateLimit,
		Burst:             c.APIRateBurst,
	}
}

// Breaker returns the circuit breaker settings for the API client.
func (c *Config) Breaker() httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig("marketplace-api")
	cb.Timeout = c.BreakerTimeout
	cb.FailureRatio = c.BreakerFailureRatio
	cb.MinRequests = c.BreakerMinRequests
	return cb
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing(version string) tracing.Config {
	tc := tracing.DefaultConfig("tutorctl")
	tc.ServiceVersion = version
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}
