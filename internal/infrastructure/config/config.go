package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Google  GoogleConfig
	Auth    AuthConfig

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET, required"`
	TTL    time.Duration `env:"SESSION_TTL,    default=168h"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=learning_portal"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL, default=http://localhost:8080/auth/callback"`
}

// AuthConfig bounds the per-IP request rate of the /auth endpoints.
type AuthConfig struct {
	RateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
	RateBurst int     `env:"AUTH_RATE_BURST, default=10"`
}

// Development reports whether the service runs in a local environment.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "local"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("config: SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.Auth.RateLimit <= 0 || cfg.Auth.RateBurst < 1 {
		return nil, fmt.Errorf("config: AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return &cfg, nil
}
