package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads .env (optional), then app.yaml (optional) from the working directory,
// then environment overrides. Environment wins over the yaml file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName("app")

	v.SetEnvPrefix("ARTBLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read app.yaml: %w", err)
		}
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv keeps the plain variable names (POSTGRES_USER, REDIS_ADDR, ...) working.
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("postgres.user", "POSTGRES_USER")
	v.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("postgres.host", "POSTGRES_HOST")
	v.BindEnv("postgres.port", "POSTGRES_PORT")
	v.BindEnv("postgres.database", "POSTGRES_DATABASE")
	v.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("rabbitmq.url", "RABBITMQ_CONN_STRING")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "artblog")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.read_timeout", "10s")
	// generate-image can legitimately take as long as a provider call plus a download
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("client.origin", "http://localhost:3000")

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.cookie_name", "token")
	v.SetDefault("auth.allow_registration", false)

	v.SetDefault("openai.model", "dall-e-3")
	v.SetDefault("openai.size", "1024x1024")

	v.SetDefault("image.quality", 90)
	v.SetDefault("image.provider_timeout", "60s")
	v.SetDefault("image.download_timeout", "30s")
	v.SetDefault("image.generation_timeout", "120s")
	v.SetDefault("image.max_download_bytes", 20<<20)
	v.SetDefault("image.uploads_dir", "./public/uploads")
	v.SetDefault("image.generate_on_create", false)
	// fallback locations are resolved in-process to drawn placeholders, never downloaded
	v.SetDefault("image.fallback.quota_exceeded", "placeholder:quota-exceeded")
	v.SetDefault("image.fallback.rate_limited", "placeholder:rate-limited")
	v.SetDefault("image.fallback.failed", "placeholder:failed")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 50)
	v.SetDefault("rate_limit.strict_per_minute", 10)
	v.SetDefault("rate_limit.strict_burst", 5)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.interval", "60s")
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}

	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image.quality must be within 1-100, got %d", c.Image.Quality)
	}
	if c.Image.ProviderTimeout <= 0 || c.Image.DownloadTimeout <= 0 {
		return errors.New("image.provider_timeout and image.download_timeout must be positive")
	}
	if c.Image.GenerationTimeout < c.Image.ProviderTimeout+c.Image.DownloadTimeout {
		return errors.New("image.generation_timeout must cover provider_timeout + download_timeout")
	}

	fb := c.Image.Fallback
	if fb.QuotaExceeded == "" || fb.RateLimited == "" || fb.Failed == "" {
		return errors.New("all image.fallback URLs must be set")
	}
	if fb.QuotaExceeded == fb.RateLimited || fb.QuotaExceeded == fb.Failed || fb.RateLimited == fb.Failed {
		return errors.New("image.fallback URLs must be distinct")
	}

	if c.Telemetry.Enabled && c.Telemetry.Interval <= 0 {
		return errors.New("telemetry.interval must be positive")
	}

	rl := c.RateLimit
	if rl.Enabled && (rl.RequestsPerSecond <= 0 || rl.Burst <= 0 || rl.StrictPerMinute <= 0 || rl.StrictBurst <= 0) {
		return errors.New("rate_limit values must be positive when rate_limit.enabled is set")
	}

	return nil
}
