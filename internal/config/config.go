package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/clearcomms/linecheck/pkg/config"
)

// Config holds all configuration for the linecheck service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"LINECHECK_HTTP_PORT" envDefault:"8080"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"linecheck"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"linecheck_secret"`
	PostgresDB   string `env:"LINECHECK_DB_NAME" envDefault:"linecheck_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis offer cache
	RedisHost        string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort        int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword    string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	OfferCacheTTLMin int    `env:"OFFER_CACHE_TTL_MINUTES" envDefault:"15"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// ITS availability API (static key auth)
	ITSBaseURL string `env:"ITS_BASE_URL" envDefault:"https://api.itstechnologygroup.com"`
	ITSAPIKey  string `env:"ITS_API_KEY"`

	// Zen availability API (OAuth client credentials)
	ZenBaseURL      string `env:"ZEN_BASE_URL" envDefault:"https://gateway.api.zen.co.uk"`
	ZenAuthURL      string `env:"ZEN_AUTH_URL" envDefault:"https://id.zen.co.uk/connect/token"`
	ZenClientID     string `env:"ZEN_CLIENT_ID"`
	ZenClientSecret string `env:"ZEN_CLIENT_SECRET"`
	ZenScope        string `env:"ZEN_SCOPE" envDefault:"indirect-availability"`

	// Polling
	PollAttempts   int `env:"POLL_ATTEMPTS" envDefault:"10"`
	PollDelaySecs  int `env:"POLL_DELAY_SECONDS" envDefault:"2"`
	RequestTimeout int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"120"`

	// Address lookup
	OSPlacesBaseURL   string `env:"OS_PLACES_BASE_URL" envDefault:"https://api.os.uk/search/places/v1"`
	OSPlacesAPIKey    string `env:"OS_PLACES_API_KEY"`
	GetAddressBaseURL string `env:"GETADDRESS_BASE_URL" envDefault:"https://api.getaddress.io"`
	GetAddressAPIKey  string `env:"GETADDRESS_API_KEY"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load linecheck config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PollAttempts < 1 {
		return fmt.Errorf("poll attempts must be at least 1, got %d", c.PollAttempts)
	}
	if c.PollDelaySecs < 0 {
		return fmt.Errorf("poll delay must not be negative, got %d", c.PollDelaySecs)
	}
	return nil
}

// PollDelay returns the delay between poll attempts.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.PollDelaySecs) * time.Second
}

// OfferCacheTTL returns how long cached offers stay valid.
func (c *Config) OfferCacheTTL() time.Duration {
	return time.Duration(c.OfferCacheTTLMin) * time.Minute
}
