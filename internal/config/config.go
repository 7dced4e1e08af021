// Package config provides configuration for the exchange.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the exchange configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`
	RPCPort  int `yaml:"rpc_port"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Intent translation backend: rules, mock or openai
	IntentProvider string `yaml:"intent_provider"`

	// Auth
	JWTSecret         string        `yaml:"jwt_secret"`
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl"`
	AdminPassword     string        `yaml:"admin_password"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`

	// Requests per minute per client IP on registration and admin login
	RegisterRatePerMin int `yaml:"register_rate_per_min"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:           8080,
		RPCPort:            8081,
		DatabaseURL:        "file:exchange.db?cache=shared&mode=rwc",
		IntentProvider:     "rules",
		JWTSecret:          "dev-secret-change-me",
		AccessTokenTTL:     15 * time.Minute,
		AdminPassword:      "admin123",
		RegisterRatePerMin: 25,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load loads configuration from the optional CONFIG_FILE, then from
// environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.RPCPort = getEnvInt("RPC_PORT", cfg.RPCPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.IntentProvider = getEnv("INTENT_PROVIDER", cfg.IntentProvider)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AccessTokenTTL = time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MS", int(cfg.AccessTokenTTL/time.Millisecond))) * time.Millisecond
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)
	cfg.RegisterRatePerMin = getEnvInt("REGISTER_RATE_PER_MIN", cfg.RegisterRatePerMin)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTPPort)
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		return fmt.Errorf("invalid rpc port: %d", c.RPCPort)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token ttl must be positive")
	}
	if c.RegisterRatePerMin <= 0 {
		return fmt.Errorf("register rate must be positive")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
