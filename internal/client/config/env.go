package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

type envConfig struct {
	APIBaseURL          string        `env:"STOREFRONT_API_URL"`
	DatabasePath        string        `env:"STOREFRONT_DB"`
	RequestTimeout      time.Duration `env:"STOREFRONT_TIMEOUT,strict"`
	OnlineCheckInterval time.Duration `env:"STOREFRONT_CHECK_INTERVAL,strict"`
	LogLevel            string        `env:"STOREFRONT_LOG_LEVEL"`
}

// parseEnv overlays cfg with STOREFRONT_* environment variables. Malformed
// durations panic, matching the other loaders.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := envdecode.Decode(&ec); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	if ec.APIBaseURL != "" {
		cfg.APIBaseURL = ec.APIBaseURL
	}
	if ec.DatabasePath != "" {
		cfg.DatabasePath = ec.DatabasePath
	}
	if ec.RequestTimeout > 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.OnlineCheckInterval > 0 {
		cfg.OnlineCheckInterval = ec.OnlineCheckInterval
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
}
