package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TrackList    string `json:"track_list"`
	BufferSize   int    `json:"buffer_size"`
	FetchTimeout int    `json:"fetch_timeout_seconds"`
	ErrorBackoff int    `json:"error_backoff_seconds"`
	DataDir      string `json:"data_dir"`
	StartPaused  bool   `json:"start_paused"`
	KeyBindings  KeyMap `json:"key_bindings"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause  string `json:"play_pause"`
	Next       string `json:"next"`
	VolumeUp   string `json:"volume_up"`
	VolumeDown string `json:"volume_down"`
	Bookmark   string `json:"bookmark"`
	Quit       string `json:"quit"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		TrackList:    "",
		BufferSize:   5,
		FetchTimeout: 5,
		ErrorBackoff: 1,
		DataDir:      defaultDataDir(),
		StartPaused:  false,
		KeyBindings: KeyMap{
			PlayPause:  " ",
			Next:       "n",
			VolumeUp:   "+",
			VolumeDown: "-",
			Bookmark:   "b",
			Quit:       "q",
		},
	}
}

// Timeout returns the per-request fetch timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// Backoff returns the fixed sleep applied after non-timeout failures.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.ErrorBackoff) * time.Second
}

// LoadConfig reads and unmarshals configuration from file, then applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyEnv()

	if config.BufferSize < 1 {
		return nil, fmt.Errorf("buffer_size must be at least 1, got %d", config.BufferSize)
	}

	return config, nil
}

// applyEnv overlays DRIFTFM_* environment variables, loading a .env file
// first if one is present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("DRIFTFM_TRACK_LIST"); v != "" {
		c.TrackList = v
	}
	if v := os.Getenv("DRIFTFM_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DRIFTFM_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BufferSize = n
		}
	}
	if v := os.Getenv("DRIFTFM_FETCH_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FetchTimeout = n
		}
	}
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists
func LoadOrCreate(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Save default config if file didn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return config, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("DRIFTFM_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "driftfm", "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "driftfm", "config.json")
}

func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "driftfm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "driftfm")
}
