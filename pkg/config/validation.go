package config

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The file backend needs a URL it can interpret
	if cfg.Repo.Plugin == "file" {
		if cfg.Repo.URL == "" {
			return fmt.Errorf("repo: url is required for the file backend")
		}

		u, err := url.Parse(cfg.Repo.URL)
		if err != nil {
			return fmt.Errorf("repo: invalid url %q: %w", cfg.Repo.URL, err)
		}

		switch u.Scheme {
		case "file", "afp", "smb", "nfs":
		default:
			return fmt.Errorf("repo: unsupported url scheme %q (supported: file, afp, smb, nfs)", u.Scheme)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
