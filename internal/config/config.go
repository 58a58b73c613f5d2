package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/internal/platform/db"
)

// Transports accepted by MCP_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	Schema         string        `mapstructure:"DB_SCHEMA"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	Transport      string        `mapstructure:"MCP_TRANSPORT"`
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	QueryTimeout   time.Duration `mapstructure:"QUERY_TIMEOUT"`
	AuthJWTSecret  string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	MigrateOnStart bool          `mapstructure:"MIGRATE_ON_START"`
	HTTPBodyLimit  string        `mapstructure:"HTTP_BODY_LIMIT"`
	HTTPRateLimit  float64       `mapstructure:"HTTP_RATE_LIMIT"`
	HTTPRateBurst  int           `mapstructure:"HTTP_RATE_BURST"`
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("DB_SCHEMA", "hospital_crm")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MCP_TRANSPORT", TransportStdio)
	v.SetDefault("HTTP_ADDR", "localhost:8090")
	v.SetDefault("QUERY_TIMEOUT", "15s")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("HTTP_BODY_LIMIT", "1M")
	v.SetDefault("HTTP_RATE_LIMIT", 20)
	v.SetDefault("HTTP_RATE_BURST", 40)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"ENV", "LOG_LEVEL", "MCP_TRANSPORT", "HTTP_ADDR", "QUERY_TIMEOUT",
		"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_AUDIENCE", "MIGRATE_ON_START",
		"HTTP_BODY_LIMIT", "HTTP_RATE_LIMIT", "HTTP_RATE_BURST",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, err, "unmarshal config")
	}

	if cfg.DatabaseURL == "" {
		return nil, apperr.New(apperr.KindConfiguration, "DATABASE_URL is required")
	}

	return cfg, cfg.Validate()
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuthEnabled reports whether HTTP callers must present a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.AuthJWTSecret != ""
}

// Validate rejects settings the server cannot start with. It never touches
// the network.
func (c *Config) Validate() error {
	if !db.ValidSchema(c.Schema) {
		return apperr.New(apperr.KindConfiguration,
			fmt.Sprintf("DB_SCHEMA %q is not a valid identifier (letters, digits, underscore; must not start with a digit)", c.Schema))
	}
	if c.DBMaxConns < 1 {
		return apperr.New(apperr.KindConfiguration, "DB_MAX_CONNS must be at least 1")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return apperr.New(apperr.KindConfiguration,
			fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBMaxConns))
	}
	if c.QueryTimeout <= 0 {
		return apperr.New(apperr.KindConfiguration, "QUERY_TIMEOUT must be positive")
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return apperr.New(apperr.KindConfiguration,
			fmt.Sprintf("MCP_TRANSPORT must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport))
	}
	if c.HTTPRateLimit <= 0 || c.HTTPRateBurst < 1 {
		return apperr.New(apperr.KindConfiguration, "HTTP_RATE_LIMIT must be positive and HTTP_RATE_BURST at least 1")
	}
	if c.IsProduction() && c.Transport == TransportHTTP && !c.AuthEnabled() {
		return apperr.New(apperr.KindConfiguration,
			"AUTH_JWT_SECRET is required when serving over http in production")
	}
	return nil
}
