package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	HTTP          HttpConfig          `yaml:"http"`
	Backoff       BackoffConfig       `yaml:"backoff"`
	Rod           RodConfig           `yaml:"rod"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type HttpConfig struct {
	UserAgent  string `yaml:"user_agent"`
	TimeoutMS  int    `yaml:"timeout_ms"` // 0: без таймаута, как у http.Client по умолчанию
	MaxRetries int    `yaml:"max_retries"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type RodConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ChromePath   string `yaml:"chrome_path"`
	PageTimeoutS int    `yaml:"page_timeout_s"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
}

// Default возвращает конфиг, с которым утилита работает без YAML файла
func Default() *Config {
	return &Config{
		HTTP: HttpConfig{
			UserAgent:  "html-grader/1.0",
			MaxRetries: 0,
		},
		Backoff: BackoffConfig{
			MinMS:     250,
			MaxMS:     2000,
			JitterPct: 20,
		},
		Rod: RodConfig{
			PageTimeoutS: 30,
		},
		Storage: StorageConfig{
			Driver:           "mssql",
			CommandTimeoutMS: 5000,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "warn",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TimeoutMS < 0 {
		return fmt.Errorf("http.timeout_ms must be >= 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Rod.Enabled && c.Rod.PageTimeoutS <= 0 {
		return fmt.Errorf("rod.page_timeout_s must be > 0")
	}
	if c.Storage.DSN != "" {
		if c.Storage.Driver != "mssql" {
			return fmt.Errorf("storage.driver must be 'mssql'")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observability.log_level must be one of debug, info, warn, error")
	}
	if c.Observability.LogPath != "" && c.Observability.LogMaxSizeMB <= 0 {
		return fmt.Errorf("observability.log_max_size_mb must be > 0")
	}
	return nil
}

// StorageEnabled сообщает, нужно ли сохранять историю запусков
func (c *Config) StorageEnabled() bool {
	return c.Storage.DSN != ""
}

// Getters
func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}
