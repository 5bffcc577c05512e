// Конфигурация сервера редактора шаблонов из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения по тегам env.
//   - Маскировка секретных значений в логах.
//   - Значения по умолчанию для адресов, лимитов и времени жизни сессий.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	FrontFilesPath string `env:"FRONT_PATH"`

	CatalogPath string `env:"CATALOG_PATH"`

	SessionIdleTTLMin int `env:"SESSION_IDLE_TTL_MIN"`
	SessionLimit      int `env:"SESSION_LIMIT"`

	ImageMaxWidth int `env:"IMAGE_MAX_WIDTH"`

	ExternalLimiterRaw string `env:"EXTERNAL_LIMITER_URL"`
	ExternalLimiter    *url.URL

	SanitizeDisabled bool   `env:"SANITIZE_DISABLED"`
	BodyLimit        string `env:"BODY_LIMIT"`
}

// SessionIdleTTL - время жизни сессии без обращений.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMin) * time.Minute
}

// ReadConfig загружает конфигурацию из переменных окружения. При некорректной
// конфигурации приложение завершает работу.
func ReadConfig() *Config {
	config, err := Load()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}
	return config
}

// Load читает переменные окружения и подставляет значения по умолчанию.
func Load() (*Config, error) {
	config := &Config{}

	envConfig("env", config)

	if config.ExternalLimiterRaw != "" {
		u, err := url.Parse(config.ExternalLimiterRaw)
		if err != nil {
			return nil, fmt.Errorf("EXTERNAL_LIMITER_URL incorrect: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("EXTERNAL_LIMITER_URL must be absolute")
		}
		config.ExternalLimiter = u
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}

	if config.MetricsAddr == "" {
		config.MetricsAddr = ":2112"
	}

	if config.SessionIdleTTLMin <= 0 {
		config.SessionIdleTTLMin = 60
	}

	if config.SessionLimit < 0 {
		config.SessionLimit = 0
	}

	if config.ImageMaxWidth <= 0 {
		config.ImageMaxWidth = 1024
	}

	if config.BodyLimit == "" {
		config.BodyLimit = "5M"
	}

	return config, nil
}
