package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/cuaca/cuaca-go/pkg/client"
	"github.com/cuaca/cuaca-go/pkg/logging"
)

// Config holds the proxy configuration, read from the environment.
type Config struct {
	APIKey  string `env:"MET_API_KEY,required"`
	BaseURL string `env:"MET_BASE_URL" envDefault:"https://api.met.gov.my/v2.1/"`

	// Cache persistence, first match wins: REDIS_URL, MET_CACHE_DB, MET_CACHE_DIR.
	// With none set the cache lives in memory only.
	RedisURL string `env:"REDIS_URL"`
	CacheDB  string `env:"MET_CACHE_DB"`
	CacheDir string `env:"MET_CACHE_DIR"`

	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`
}

// loadConfig parses environ (KEY=value pairs, as from os.Environ).
func loadConfig(environ []string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return cfg, nil
}

// clientConfig maps the proxy configuration onto the library configuration.
// Persistence backends other than the file store are attached by the caller.
func (c Config) clientConfig() client.Config {
	cfg := client.DefaultConfig(c.APIKey)
	cfg.BaseURL = c.BaseURL
	if c.RedisURL == "" && c.CacheDB == "" {
		cfg.CacheDir = c.CacheDir
	}
	return cfg
}
