// Package config loads wizju's settings from YAML and WIZJU_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Playlist PlaylistConfig `mapstructure:"playlist"`
	Player   PlayerConfig   `mapstructure:"player"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig holds the local database settings
type StorageConfig struct {
	Path       string `mapstructure:"path"`        // bbolt file; empty keeps everything in memory
	LimitBytes int    `mapstructure:"limit_bytes"` // per-collection capacity
}

// PlaylistConfig holds playlist download settings
type PlaylistConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"` // empty auto-detects
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g., "--start=" or "--start-time="
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView string `mapstructure:"default_view"` // home, live, films or series
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       filepath.Join(dataDir(), "wizju.db"),
			LimitBytes: 5 * 1024 * 1024,
		},
		Playlist: PlaylistConfig{
			FetchTimeout: 30 * time.Second,
			UserAgent:    "wizju/1.0",
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		UI: UIConfig{
			DefaultView: "home",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(dataDir(), "wizju.log"),
			Level: "INFO",
		},
	}
}

// dataDir returns the per-user data directory for the current OS
func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "wizju")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "wizju")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "wizju")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "wizju")
	}
}

// newViper registers every key with its default so WIZJU_* variables
// override nested settings (WIZJU_STORAGE_PATH for storage.path).
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WIZJU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.limit_bytes", cfg.Storage.LimitBytes)
	v.SetDefault("playlist.fetch_timeout", cfg.Playlist.FetchTimeout)
	v.SetDefault("playlist.user_agent", cfg.Playlist.UserAgent)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("player.start_flag", cfg.Player.StartFlag)
	v.SetDefault("ui.default_view", cfg.UI.DefaultView)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	return v
}

// LoadConfig loads configuration from file and environment. An empty path
// searches config.yaml in the config directory and the working directory;
// a missing file there is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating its directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(cfg)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
