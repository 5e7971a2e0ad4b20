package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete depotfs configuration.
//
// This structure captures all configurable aspects of the depot client
// including:
//   - Logging configuration
//   - Repository backend selection and backend-specific configuration
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DEPOTFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Repository Configuration Pattern:
// Each repository backend defines its own configuration shape. The Config
// struct contains backend-specific sections (e.g., repo.file, repo.s3) and
// only the section matching the selected plugin is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Repo specifies the repository backend and backend-specific configuration
	Repo RepoConfig `mapstructure:"repo" yaml:"repo"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr
	Output string `mapstructure:"output" yaml:"output" validate:"required,oneof=stdout stderr"`
}

// RepoConfig specifies repository backend configuration.
//
// The Plugin field determines which backend implementation is used.
// Only the corresponding backend-specific configuration section is used.
type RepoConfig struct {
	// URL is the repository location
	// file:///path or afp://, smb://, nfs:// share URLs for the file
	// backend; ignored by the s3 backend (which uses bucket/key_prefix)
	URL string `mapstructure:"url" yaml:"url"`

	// Plugin specifies which repository backend to use
	// Valid values: file, s3
	Plugin string `mapstructure:"plugin" yaml:"plugin" validate:"required,oneof=file s3"`

	// File contains file-backend configuration
	// Only used when Plugin = "file"
	File map[string]any `mapstructure:"file" yaml:"file"`

	// S3 contains S3-backend configuration
	// Only used when Plugin = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DEPOTFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use DEPOTFS_ prefix and underscores
	// Example: DEPOTFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DEPOTFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so a key
	// absent from the config file would never pick up its DEPOTFS_*
	// variable during Unmarshal. Bind the scalar keys explicitly to make
	// the documented precedence hold with a sparse (or missing) config
	// file. Backend option maps (repo.file, repo.s3) stay file-only.
	for _, key := range []string{
		"logging.level",
		"logging.format",
		"logging.output",
		"repo.url",
		"repo.plugin",
	} {
		v.MustBindEnv(key)
	}

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/depotfs/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		if os.IsNotExist(err) {
			// An explicit path pointing at a missing file is also acceptable
			return nil
		}
		// Other errors are problems
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "depotfs")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "depotfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
