package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	RememberTTL  time.Duration `yaml:"remember_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig bounds login and registration attempts per client IP.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// minSecretLength is the shortest accepted HS256 signing secret.
const minSecretLength = 16

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set in the environment.
// Env vars use the prefix REPLOG_ and underscore-separated paths:
//
//	REPLOG_SERVER_HOST, REPLOG_SERVER_PORT,
//	REPLOG_DB_HOST, REPLOG_DB_PORT, REPLOG_DB_NAME,
//	REPLOG_DB_USER, REPLOG_DB_PASSWORD, REPLOG_DB_SSLMODE,
//	REPLOG_AUTH_JWT_SECRET, REPLOG_AUTH_SESSION_TTL, REPLOG_AUTH_REMEMBER_TTL,
//	REPLOG_AUTH_COOKIE_SECURE, REPLOG_LOG_LEVEL, REPLOG_LOG_FORMAT,
//	REPLOG_RATE_LIMIT_PER_SECOND, REPLOG_RATE_LIMIT_BURST,
//	REPLOG_TAILSCALE_ENABLED, REPLOG_TAILSCALE_HOSTNAME, REPLOG_TAILSCALE_STATE_DIR
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Auth: AuthConfig{
			SessionTTL:  24 * time.Hour,
			RememberTTL: 30 * 24 * time.Hour,
		},
		Log:       LogConfig{Level: "info", Format: "text"},
		RateLimit: RateLimitConfig{PerSecond: 1, Burst: 5},
		Tailscale: TailscaleConfig{Hostname: "replog"},
	}
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("REPLOG_SERVER_HOST", &cfg.Server.Host)
	num("REPLOG_SERVER_PORT", &cfg.Server.Port)
	str("REPLOG_DB_HOST", &cfg.Database.Host)
	num("REPLOG_DB_PORT", &cfg.Database.Port)
	str("REPLOG_DB_NAME", &cfg.Database.Name)
	str("REPLOG_DB_USER", &cfg.Database.User)
	str("REPLOG_DB_PASSWORD", &cfg.Database.Password)
	str("REPLOG_DB_SSLMODE", &cfg.Database.SSLMode)
	str("REPLOG_AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	dur("REPLOG_AUTH_SESSION_TTL", &cfg.Auth.SessionTTL)
	dur("REPLOG_AUTH_REMEMBER_TTL", &cfg.Auth.RememberTTL)
	flag("REPLOG_AUTH_COOKIE_SECURE", &cfg.Auth.CookieSecure)
	str("REPLOG_LOG_LEVEL", &cfg.Log.Level)
	str("REPLOG_LOG_FORMAT", &cfg.Log.Format)
	if v := os.Getenv("REPLOG_RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.PerSecond = f
		}
	}
	num("REPLOG_RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	flag("REPLOG_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	str("REPLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	str("REPLOG_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.RememberTTL <= 0 {
		return fmt.Errorf("auth.session_ttl and auth.remember_ttl must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.per_second and rate_limit.burst must be positive")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
