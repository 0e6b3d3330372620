package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,        default=development"`
	LogLevel string `env:"LOG_LEVEL,  default=info"`
	// LogPretty switches to zerolog's console writer.
	LogPretty bool `env:"LOG_PRETTY, default=false"`

	API     APIConfig
	Console ConsoleConfig
	Token   TokenConfig
	Redis   RedisConfig
	Images  ImageConfig
	AMQP    AMQPConfig
}

// APIConfig describes the REST backend and how hard it may be called.
type APIConfig struct {
	BaseURL        string        `env:"API_BASE_URL,         default=http://localhost:5000/api"`
	RateLimit      float64       `env:"API_RATE_LIMIT,       default=20"`
	RateBurst      int           `env:"API_RATE_BURST,       default=10"`
	MaxFailures    uint32        `env:"BREAKER_MAX_FAILURES, default=3"`
	BreakerTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT, default=30s"`
}

type ConsoleConfig struct {
	Addr          string `env:"CONSOLE_ADDR,    default=:8090"`
	PublicSiteURL string `env:"PUBLIC_SITE_URL, default=/"`
	RequireAdmin  bool   `env:"REQUIRE_ADMIN,   default=false"`
}

// TokenConfig selects where the session token is persisted.
type TokenConfig struct {
	Store string `env:"TOKEN_STORE, default=file"`
	File  string `env:"TOKEN_FILE,  default=.admin-console/token"`
	Key   string `env:"TOKEN_KEY,   default=token"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type ImageConfig struct {
	MaxWidth  int `env:"IMAGE_MAX_WIDTH,  default=1600"`
	MaxHeight int `env:"IMAGE_MAX_HEIGHT, default=1600"`
}

// AMQPConfig enables content-change events when URL is set.
type AMQPConfig struct {
	URL   string `env:"AMQP_URL"`
	Queue string `env:"AMQP_QUEUE, default=content.changed"`
}

// Load reads a .env file when one exists, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom resolves the configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		return errors.New("API_BASE_URL must not be empty")
	}
	switch c.Token.Store {
	case "file", "redis":
	default:
		return fmt.Errorf("TOKEN_STORE must be file or redis, got %q", c.Token.Store)
	}
	if c.Token.Key == "" {
		return errors.New("TOKEN_KEY must not be empty")
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool { return c.Env == "production" }
