package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Provider ProviderConfig `yaml:"provider"`
	Market   MarketConfig   `yaml:"market"`
	Store    StoreConfig    `yaml:"store"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ProviderConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	PacingMs  int    `yaml:"pacing_ms"`
}

type MarketConfig struct {
	Symbols                 []string `yaml:"symbols"`
	RefreshIntervalSec      int      `yaml:"refresh_interval_sec"`
	ChartRefreshIntervalSec int      `yaml:"chart_refresh_interval_sec"`
}

type StoreConfig struct {
	Sqlite SqliteConfig `yaml:"sqlite"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

// DemoMode reports whether the app runs on locally generated demo
// data. A missing provider credential is the sole trigger, decided
// once at startup.
func (c *Config) DemoMode() bool {
	return c.Provider.APIKey == ""
}

// Load reads config from a YAML file (missing file is fine, defaults
// apply), then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Provider: ProviderConfig{
			BaseURL:   "https://finnhub.io/api/v1",
			TimeoutMs: 10000,
			PacingMs:  100,
		},
		Market: MarketConfig{
			Symbols:                 []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"},
			RefreshIntervalSec:      30,
			ChartRefreshIntervalSec: 60,
		},
		Store: StoreConfig{
			Sqlite: SqliteConfig{Path: "data/prefs.db"},
		},
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.Sqlite.Path = v
	}
	return nil
}
