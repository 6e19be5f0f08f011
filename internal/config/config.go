package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing secret used when JWT_SECRET is not set.
// Local development only; Validate rejects it in prod.
const DevJWTSecret = "authportal-dev-secret-change-me"

type Config struct {
	Env   string `env:"APP_ENV" envDefault:"dev"`
	Port  int    `env:"PORT" envDefault:"5000"`
	DBURL string `env:"DATABASE_URL" envDefault:"mongodb://localhost:27017/auth_portal"`

	JWTSecret  string        `env:"JWT_SECRET" envDefault:"authportal-dev-secret-change-me"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"168h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5000"`
	MaxBodyBytes int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	StaticDir    string   `env:"STATIC_DIR"`

	OTelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"authportal"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	return parse(env.Options{})
}

// FromMap builds a Config from the given variables only, ignoring the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DBURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if c.Env == "prod" && c.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be overridden in prod")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST %d", c.BcryptCost)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// WithTimeout bounds a store call made on behalf of a request.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}
