package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/osr-alliance/backend-lead-capture/auth"
)

// Config is the whole service configuration, read from the environment (and an optional .env file)
type Config struct {
	HTTP struct {
		Addr string `env:"HTTP_ADDR"`
		Port string `env:"PORT" envDefault:"5000"` // used when HTTP_ADDR is empty
	}
	Database struct {
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DB_DSN" envDefault:"database.db"`
		Debug  bool   `env:"STORAGE_DEBUG" envDefault:"false"`
	}
	Redis struct {
		Addr     string `env:"REDIS_ADDR"` // empty disables the cache
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		TTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds
	}
	Admin struct {
		Password     string        `env:"ADMIN_PASSWORD" envDefault:"changeme"`
		TokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
		RequireToken bool          `env:"ADMIN_REQUIRE_TOKEN" envDefault:"true"`
	}
	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"text"`
	}
}

// Load reads .env from the working directory if there is one, then parses the environment.
// Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr is the address the http server listens on
func (c *Config) Addr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}
	return ":" + c.HTTP.Port
}

// InsecurePassword reports whether the admin password is the built in default
func (c *Config) InsecurePassword() bool {
	return c.Admin.Password == auth.InsecureDefaultPassword
}
