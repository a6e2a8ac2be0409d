// Package common provides shared utilities for AskFin
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for AskFin
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Data        DataConfig    `toml:"data"`
	Clients     ClientsConfig `toml:"clients"`
	Engine      EngineConfig  `toml:"engine"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the series cache storage path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// DataConfig holds reference data file locations.
type DataConfig struct {
	ThemesPath string `toml:"themes_path"` // theme taxonomy JSON (themeName -> [{code,name}])
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Naver NaverConfig `toml:"naver"`
	KRX   KRXConfig   `toml:"krx"`
	ECOS  ECOSConfig  `toml:"ecos"`
}

// NaverConfig holds the primary market data provider configuration
type NaverConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NaverConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// KRXConfig holds the secondary market data provider configuration
type KRXConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KRXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ECOSConfig holds the Bank of Korea ECOS API configuration
type ECOSConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ECOSConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// EngineConfig holds analysis engine tuning knobs.
type EngineConfig struct {
	FetchConcurrency int `toml:"fetch_concurrency"` // worker pool ceiling for series fetches
	MaxInstruments   int `toml:"max_instruments"`   // top-N by market cap per analysis
	PageSize         int `toml:"page_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: "data/series",
		},
		Data: DataConfig{
			ThemesPath: "data/themes.json",
		},
		Clients: ClientsConfig{
			Naver: NaverConfig{
				BaseURL:   "https://api.finance.naver.com",
				RateLimit: 10,
				Timeout:   "10s",
			},
			KRX: KRXConfig{
				BaseURL:   "https://data.krx.co.kr/comm/bldAttendant",
				RateLimit: 5,
				Timeout:   "10s",
			},
			ECOS: ECOSConfig{
				BaseURL: "https://ecos.bok.or.kr/api",
				Timeout: "10s",
			},
		},
		Engine: EngineConfig{
			FetchConcurrency: 30,
			MaxInstruments:   50,
			PageSize:         20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateEngine(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ASKFIN_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ASKFIN_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ASKFIN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ASKFIN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ASKFIN_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if path := os.Getenv("ASKFIN_THEMES_PATH"); path != "" {
		config.Data.ThemesPath = path
	}

	if v := os.Getenv("ASKFIN_ECOS_API_KEY"); v != "" {
		config.Clients.ECOS.APIKey = v
	}
}

// validateEngine clamps engine knobs to sane values.
func validateEngine(config *Config) {
	if config.Engine.FetchConcurrency <= 0 {
		config.Engine.FetchConcurrency = 30
	}
	if config.Engine.MaxInstruments <= 0 {
		config.Engine.MaxInstruments = 50
	}
	if config.Engine.PageSize <= 0 {
		config.Engine.PageSize = 20
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment or config fallback.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"ecos_api_key": {"ECOS_API_KEY", "ASKFIN_ECOS_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
