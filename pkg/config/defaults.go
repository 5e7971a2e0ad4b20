package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/depotfs/depotfs/pkg/mount"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults live in the backend option maps so that a
//     generated config file documents every knob
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyRepoDefaults(&cfg.Repo)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyRepoDefaults sets repository backend defaults.
func applyRepoDefaults(cfg *RepoConfig) {
	if cfg.Plugin == "" {
		cfg.Plugin = "file"
	}

	// Initialize maps if nil
	if cfg.File == nil {
		cfg.File = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	// Apply defaults for all backend types (for config file generation)
	if _, ok := cfg.File["volumes_dir"]; !ok {
		cfg.File["volumes_dir"] = mount.DefaultVolumesDir
	}
	if _, ok := cfg.File["afp_tool"]; !ok {
		cfg.File["afp_tool"] = mount.DefaultAFPTool
	}
	if _, ok := cfg.File["smb_tool"]; !ok {
		cfg.File["smb_tool"] = mount.DefaultSMBTool
	}
	if _, ok := cfg.File["nfs_tool"]; !ok {
		cfg.File["nfs_tool"] = mount.DefaultNFSTool
	}
	if _, ok := cfg.File["auth_error_codes"]; !ok {
		cfg.File["auth_error_codes"] = mount.DefaultAuthErrorCodes()
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Repo: RepoConfig{
			URL:  "file:///srv/depot",
			File: make(map[string]any),
			S3:   make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}

// WriteDefault writes the default configuration to the given path as YAML,
// creating parent directories as needed. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
