package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Cloud    CloudConfig    `mapstructure:"cloud"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CloudConfig holds the public record database configuration
type CloudConfig struct {
	URL          string `mapstructure:"url"`           // Record database base URL
	Token        string `mapstructure:"token"`         // API token
	Container    string `mapstructure:"container"`     // Container identifier, informational
	ResultsLimit int    `mapstructure:"results_limit"` // Page size of the discovery feed
}

// StorageConfig holds local storage locations
type StorageConfig struct {
	Database string `mapstructure:"database"`  // SQLite file with the user's restaurants
	CacheDir string `mapstructure:"cache_dir"` // BoltDB cache and downloaded assets
}

// GeocoderConfig holds the address lookup configuration
type GeocoderConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`        // Nominatim-compatible endpoint
	UserAgent string `mapstructure:"user_agent"` // Required by the public Nominatim usage policy
}

// ViewerConfig holds the external viewer used for photos and maps
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // empty for system default
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			URL:          "",
			Token:        "",
			Container:    "iCloud.com.appcoda.FoodPin",
			ResultsLimit: 50,
		},
		Storage: StorageConfig{
			Database: filepath.Join(defaultDataPath(), "foodpin.db"),
			CacheDir: defaultCachePath(),
		},
		Geocoder: GeocoderConfig{
			Enabled:   true,
			URL:       "https://nominatim.openstreetmap.org",
			UserAgent: "foodpin-tui/1.0",
		},
		Viewer: ViewerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), DefaultLogFile),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the per-user data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "foodpin")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "foodpin")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "foodpin")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "foodpin")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "foodpin", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".cache", "foodpin")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides, e.g. FOODPIN_CLOUD_TOKEN
	v.SetEnvPrefix("FOODPIN")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	bindEnvKeys(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Cloud.ResultsLimit <= 0 {
		cfg.Cloud.ResultsLimit = 50
	}

	return cfg, nil
}

// bindEnvKeys registers every key so AutomaticEnv overrides work without a config file
func bindEnvKeys(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

// envKeyReplacer maps cloud.token to FOODPIN_CLOUD_TOKEN
var envKeyReplacer = strings.NewReplacer(".", "_")

var configKeys = []string{
	"cloud.url", "cloud.token", "cloud.container", "cloud.results_limit",
	"storage.database", "storage.cache_dir",
	"geocoder.enabled", "geocoder.url", "geocoder.user_agent",
	"viewer.command", "viewer.args",
	"logging.file", "logging.level",
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), cfg, defaultConfigPath())
}

func saveConfig(v *viper.Viper, cfg *Config, configPath string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("cloud.url", cfg.Cloud.URL)
	v.Set("cloud.token", cfg.Cloud.Token)
	v.Set("cloud.container", cfg.Cloud.Container)
	v.Set("cloud.results_limit", cfg.Cloud.ResultsLimit)

	v.Set("storage.database", cfg.Storage.Database)
	v.Set("storage.cache_dir", cfg.Storage.CacheDir)

	v.Set("geocoder.enabled", cfg.Geocoder.Enabled)
	v.Set("geocoder.url", cfg.Geocoder.URL)
	v.Set("geocoder.user_agent", cfg.Geocoder.UserAgent)

	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearCloudConfig removes the cloud URL and token while preserving other settings
func ClearCloudConfig() error {
	viper.Set("cloud.url", "")
	viper.Set("cloud.token", "")

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the cloud URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Cloud.URL != "" && c.Cloud.Token != ""
}

// ClearCache removes all cached data (bolt cache and downloaded assets)
func ClearCache(cfg *Config) error {
	if err := os.RemoveAll(cfg.Storage.CacheDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
