package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable via AUTHKIT_STORE_BACKEND.
const (
	StoreBackendMemory   = "memory"
	StoreBackendSQLite   = "sqlite"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

type Config struct {
	// Remote API
	APIBaseURL  string        `env:"AUTHKIT_API_BASE_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"AUTHKIT_HTTP_TIMEOUT" envDefault:"30s"`

	// Where a forced logout navigates to.
	LoginURL string `env:"AUTHKIT_LOGIN_URL" envDefault:"/login"`

	// Session blob encryption passphrase.
	SessionPassphrase string `env:"AUTHKIT_SESSION_PASSPHRASE" envDefault:"authkit-dev-passphrase"`

	// Credential storage
	StoreBackend string `env:"AUTHKIT_STORE_BACKEND" envDefault:"sqlite"`
	StorePath    string `env:"AUTHKIT_STORE_PATH"`
	PostgresDSN  string `env:"AUTHKIT_POSTGRES_DSN"`
	RedisURL     string `env:"AUTHKIT_REDIS_URL"`
	CachePrefix  string `env:"AUTHKIT_CACHE_PREFIX" envDefault:"authkit_cache"`

	// Observability
	OTELServiceName           string        `env:"OTEL_SERVICE_NAME" envDefault:"authkit"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED" envDefault:"false"`
	OTELTracesEnabled         bool          `env:"OTEL_TRACES_ENABLED" envDefault:"false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED" envDefault:"false"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendSQLite:
		if c.StorePath == "" {
			path, err := defaultStorePath()
			if err != nil {
				return err
			}
			c.StorePath = path
		}
	case StoreBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres store backend requires AUTHKIT_POSTGRES_DSN")
		}
	case StoreBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis store backend requires AUTHKIT_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.SessionPassphrase == "" {
		return fmt.Errorf("session passphrase must not be empty")
	}
	return nil
}

func defaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	path := filepath.Join(dir, "authkit")
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return filepath.Join(path, "auth.db"), nil
}
