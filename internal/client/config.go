package client

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the terminal client's environment.
type Config struct {
	BaseURL     string `env:"PORTAL_URL" envDefault:"http://localhost:5000/api"`
	SessionPath string `env:"PORTAL_SESSION"`
}

// LoadConfig reads the process environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// ConfigFromMap reads vars only, ignoring the process environment.
func ConfigFromMap(vars map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: vars})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.SessionPath == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionPath = p
	}
	return cfg, nil
}
