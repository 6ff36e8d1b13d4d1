package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "atelier.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ATELIER_PORT")
	setString(&cfg.Server.CORSOrigin, "ATELIER_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimitKB, "ATELIER_BODY_LIMIT_KB")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ATELIER_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ATELIER_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ATELIER_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ATELIER_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ATELIER_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Minio.Bucket, "ATELIER_MINIO_BUCKET")
	setBool(&cfg.Minio.UseSSL, "MINIO_USE_SSL")
	setString(&cfg.Minio.PublicURL, "ATELIER_MINIO_PUBLIC_URL")

	setInt64(&cfg.Cache.MaxSizeMB, "ATELIER_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.RoleTTL, "ATELIER_ROLE_TTL")

	setBool(&cfg.Auth.Enabled, "ATELIER_AUTH_ENABLED")
	setInt(&cfg.Auth.BcryptCost, "ATELIER_BCRYPT_COST")

	setString(&cfg.Logging.Level, "ATELIER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ATELIER_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ATELIER_LOG_ASYNC")

	setBool(&cfg.Telemetry.Enabled, "ATELIER_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "ATELIER_RATE_RPS")
	setInt(&cfg.Rate.Burst, "ATELIER_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "ATELIER_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ATELIER_RATE_MAX_IDLE_TIME")

	setInt(&cfg.Breaker.MaxFailures, "ATELIER_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ATELIER_BREAKER_TIMEOUT")

	setString(&cfg.Idempotency.Bucket, "ATELIER_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "ATELIER_IDEMPOTENCY_TTL")

	setBool(&cfg.Completion.ResetWhenEmpty, "ATELIER_COMPLETION_RESET_WHEN_EMPTY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Cache.RoleTTL > 5*time.Minute {
		return errors.New("cache.role_ttl must not exceed 5m")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
