// Package config loads moviedb settings from a YAML file and MOVIEDB_*
// environment variables.
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
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Player  PlayerConfig  `mapstructure:"player"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds catalog API configuration
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Key            string        `mapstructure:"key"` // v3 API key or v4 read access token
	Language       string        `mapstructure:"language"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst      int           `mapstructure:"rate_burst"`
}

// StoreConfig holds favorite store configuration
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "bolt" or "sqlite"
	Path   string `mapstructure:"path"`   // data directory, empty keeps favorites in memory (bolt only)
}

// PlayerConfig holds trailer player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultFeed       string `mapstructure:"default_feed"`
	PrefetchThreshold int    `mapstructure:"prefetch_threshold"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			Language:       "en-US",
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    30 * time.Second,
			RateLimit:      20,
			RateBurst:      10,
		},
		Store: StoreConfig{
			Driver: "bolt",
			Path:   defaultDataPath(),
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		UI: UIConfig{
			DefaultFeed:       "popular",
			PrefetchThreshold: 5,
		},
		Logging: LoggingConfig{
			File:   filepath.Join(defaultDataPath(), "moviedb.log"),
			Level:  "INFO",
			Format: "json",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "moviedb")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviedb")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviedb")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "moviedb")
	}
}

// setDefaults registers every key so env overrides apply to keys absent
// from the file
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.key", d.API.Key)
	v.SetDefault("api.language", d.API.Language)
	v.SetDefault("api.connect_timeout", d.API.ConnectTimeout)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("api.rate_burst", d.API.RateBurst)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("player.command", d.Player.Command)
	v.SetDefault("player.args", d.Player.Args)
	v.SetDefault("ui.default_feed", d.UI.DefaultFeed)
	v.SetDefault("ui.prefetch_threshold", d.UI.PrefetchThreshold)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// New returns a viper instance reading config.yaml from the default
// locations, or from file when set
func New(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	// Environment variable overrides: MOVIEDB_API_KEY, MOVIEDB_STORE_DRIVER...
	v.SetEnvPrefix("MOVIEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// LoadConfig loads configuration from file and environment
func LoadConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// SaveConfig writes the configuration with snake_case keys. An empty path
// writes config.yaml in the default config directory.
func SaveConfig(v *viper.Viper, cfg *Config, path string) (string, error) {
	if path == "" {
		path = v.ConfigFileUsed()
	}
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.key", cfg.API.Key)
	v.Set("api.language", cfg.API.Language)
	v.Set("api.connect_timeout", cfg.API.ConnectTimeout.String())
	v.Set("api.read_timeout", cfg.API.ReadTimeout.String())
	v.Set("api.rate_limit", cfg.API.RateLimit)
	v.Set("api.rate_burst", cfg.API.RateBurst)

	v.Set("store.driver", cfg.Store.Driver)
	v.Set("store.path", cfg.Store.Path)

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)

	v.Set("ui.default_feed", cfg.UI.DefaultFeed)
	v.Set("ui.prefetch_threshold", cfg.UI.PrefetchThreshold)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// IsConfigured returns true if an API credential is set
func (c *Config) IsConfigured() bool {
	return strings.TrimSpace(c.API.Key) != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
