package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port    string `env:"PORT,default=8080"`
	Storage string `env:"STORAGE,default=postgres"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL,default=5m"`

	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB,default=craftrealm"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT,default=minio:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET,default=catalog"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL,default=false"`

	CORSOrigins string `env:"CORS_ORIGINS,default=*"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	PasswordScheme string `env:"PASSWORD_SCHEME,default=md5"`
	AuthRateLimit  int    `env:"AUTH_RATE_LIMIT,default=5"`
	AuthRateBurst  int    `env:"AUTH_RATE_BURST,default=10"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads an optional .env file, then decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.Wrap(err, "config: decode environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when STORAGE=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	switch c.PasswordScheme {
	case "md5", "bcrypt":
	default:
		return fmt.Errorf("config: unknown PASSWORD_SCHEME %q", c.PasswordScheme)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("config: AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if c.CatalogCacheTTL <= 0 {
		return fmt.Errorf("config: CATALOG_CACHE_TTL must be positive")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
