// Package config provides configuration management for prompter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

// Defaults.
const (
	DefaultPort                  = 8553
	DefaultMaxConns              = 4
	DefaultProvider              = "openai"
	DefaultGatewayTimeoutSeconds = 30
	DefaultTokenTTLHours         = 168 // 7 days
)

// Config holds all runtime settings.
type Config struct {
	Port     int    `json:"port"`
	DBPath   string `json:"db_path"`
	MaxConns int    `json:"max_conns"`

	Provider       string `json:"provider"` // "openai", "anthropic", "mock"
	Model          string `json:"model,omitempty"`
	OpenAIKey      string `json:"openai_key,omitempty"`
	OpenAIBaseURL  string `json:"openai_base_url,omitempty"`
	AnthropicKey   string `json:"anthropic_key,omitempty"`
	GatewayTimeout int    `json:"gateway_timeout_seconds"`

	AutoAnswer bool `json:"auto_answer"`

	JWTSecret     string `json:"jwt_secret,omitempty"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		DBPath:         DBPath(),
		MaxConns:       DefaultMaxConns,
		Provider:       DefaultProvider,
		GatewayTimeout: DefaultGatewayTimeoutSeconds,
		AutoAnswer:     true,
		TokenTTLHours:  DefaultTokenTTLHours,
	}
}

// DataDir returns the data directory path (~/.prompter).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".prompter")
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "prompter.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default settings: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads the settings file and applies environment overrides.
// Missing settings file is not an error; defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	applyEnv(cfg)

	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = DefaultGatewayTimeoutSeconds
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = DefaultTokenTTLHours
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DBPath()
	}

	return cfg, nil
}

// applyEnv overrides settings from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PROMPTER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("PROMPTER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PROMPTER_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PROMPTER_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicKey = v
	}
	if v := os.Getenv("PROMPTER_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("PROMPTER_AUTO_ANSWER"); v != "" {
		cfg.AutoAnswer = v == "1" || v == "true"
	}
}

var (
	current *Config
	mu      sync.RWMutex
)

// Set stores the process-wide config.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Get returns the process-wide config, or defaults if none was set.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}
