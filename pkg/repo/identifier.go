package repo

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ValidateIdentifier rejects identifiers that are empty, absolute, or that
// would resolve outside the repository root. Identifiers are otherwise
// treated as opaque relative paths; no normalization is applied to the
// stored form.
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("empty identifier: %w", ErrInvalidIdentifier)
	}

	if strings.HasPrefix(identifier, "/") || filepath.IsAbs(identifier) {
		return fmt.Errorf("identifier %q is absolute: %w", identifier, ErrInvalidIdentifier)
	}

	cleaned := path.Clean(strings.ReplaceAll(identifier, "\\", "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("identifier %q escapes the repository root: %w", identifier, ErrInvalidIdentifier)
	}

	return nil
}
