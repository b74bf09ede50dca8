package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Client    ClientConfig    `mapstructure:"client"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Postgres  DBConfig        `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Image     ImageConfig     `mapstructure:"image"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	// Env: development or production. Production switches zap to JSON output
	// and marks the auth cookie as Secure.
	Env string `mapstructure:"env"`
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Handler         http.Handler  `mapstructure:"-"`
}

type ClientConfig struct {
	Origin string `mapstructure:"origin"`
}

type StorageConfig struct {
	// Driver: "postgres" (postgres + redis) or "memory" (single process, no external services)
	Driver string `mapstructure:"driver"`
}

type DBConfig struct {
	Username string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	// URL: amqp connection string. Empty disables event publishing.
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	CookieName        string        `mapstructure:"cookie_name"`
	AllowRegistration bool          `mapstructure:"allow_registration"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

type ImageConfig struct {
	Quality           int            `mapstructure:"quality"`
	ProviderTimeout   time.Duration  `mapstructure:"provider_timeout"`
	DownloadTimeout   time.Duration  `mapstructure:"download_timeout"`
	GenerationTimeout time.Duration  `mapstructure:"generation_timeout"`
	MaxDownloadBytes  int64          `mapstructure:"max_download_bytes"`
	UploadsDir        string         `mapstructure:"uploads_dir"`
	GenerateOnCreate  bool           `mapstructure:"generate_on_create"`
	Fallback          FallbackConfig `mapstructure:"fallback"`
}

// FallbackConfig holds the placeholder URLs substituted for provider failures.
// Each failure kind has its own URL so the cause is visible from the stored image.
type FallbackConfig struct {
	QuotaExceeded string `mapstructure:"quota_exceeded"`
	RateLimited   string `mapstructure:"rate_limited"`
	Failed        string `mapstructure:"failed"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// Strict limits apply to login and image generation.
	StrictPerMinute int `mapstructure:"strict_per_minute"`
	StrictBurst     int `mapstructure:"strict_burst"`
}

type TelemetryConfig struct {
	// Enabled installs the OpenTelemetry SDK with stdout exporters.
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}
