package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected default config to validate, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected oneof validation error, got: %v", err)
	}
}

func TestValidate_InvalidPlugin(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Repo.Plugin = "ftp"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown plugin, got nil")
	}
}

func TestValidate_FilePluginRequiresURL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Repo.URL = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for missing url with file plugin, got nil")
	}
	if !strings.Contains(err.Error(), "url is required") {
		t.Errorf("Expected url-required error, got: %v", err)
	}
}

func TestValidate_UnsupportedScheme(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Repo.URL = "ftp://depot.example.com/share"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for unsupported scheme, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported url scheme") {
		t.Errorf("Expected scheme error, got: %v", err)
	}
}

func TestValidate_S3PluginIgnoresURL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Repo.Plugin = "s3"
	cfg.Repo.URL = ""

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected s3 plugin to validate without url, got: %v", err)
	}
}

func TestValidate_ShareSchemes(t *testing.T) {
	for _, scheme := range []string{"file", "afp", "smb", "nfs"} {
		cfg := GetDefaultConfig()
		cfg.Repo.URL = scheme + "://depot.example.com/share"

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected scheme %q to validate, got: %v", scheme, err)
		}
	}
}
