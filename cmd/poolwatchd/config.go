// config.go - Configuration management for the pool watcher daemon.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"shieldedpool/internal/pool"
)

// Config represents the daemon configuration.
type Config struct {
	// Identity
	SeedHex   string `json:"seed_hex"`
	PoolIDHex string `json:"pool_id_hex"`
	TokenHex  string `json:"token_hex"`

	// Pool schedule
	Pool pool.Params `json:"pool"`

	// Ingestion
	EventLogPath   string `json:"event_log_path"`
	NotesPath      string `json:"notes_path"`
	PollIntervalMs int    `json:"poll_interval_ms"`
	MaxEventsPerS  int    `json:"max_events_per_second"`

	// HTTP
	ListenAddr string `json:"listen_addr"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pool:           pool.DefaultParams(),
		EventLogPath:   "events.log",
		NotesPath:      "notes.json",
		PollIntervalMs: 500,
		MaxEventsPerS:  200,
		ListenAddr:     "127.0.0.1:8645",
		LogLevel:       "info",
	}
}

// LoadConfig loads configuration from file or creates the default.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func decode32(field, s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s is not valid hex: %w", field, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("%s must be 32 bytes, got %d", field, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := decode32("seed_hex", c.SeedHex); err != nil {
		return err
	}
	if _, err := decode32("pool_id_hex", c.PoolIDHex); err != nil {
		return err
	}
	if _, err := decode32("token_hex", c.TokenHex); err != nil {
		return err
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if c.EventLogPath == "" {
		return fmt.Errorf("event_log_path must be set")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.MaxEventsPerS <= 0 {
		return fmt.Errorf("max_events_per_second must be positive")
	}
	return nil
}

// Seed returns the decoded wallet seed.
func (c *Config) Seed() ([32]byte, error) {
	return decode32("seed_hex", c.SeedHex)
}

// PoolID returns the decoded pool identity.
func (c *Config) PoolID() ([32]byte, error) {
	return decode32("pool_id_hex", c.PoolIDHex)
}

// Token returns the decoded token mint.
func (c *Config) Token() ([32]byte, error) {
	return decode32("token_hex", c.TokenHex)
}
