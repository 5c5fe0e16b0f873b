package errors

import (
	"strings"
	"unicode"
)

// ValidatePositive rejects counts and distances that must be at least one.
// The name is the configuration key as the user wrote it (e.g. "sim_run_num").
func ValidatePositive(name string, v int) error {
	if v <= 0 {
		return New(ErrCodeInvalidParameter, "%s must be positive, got %d", name, v)
	}
	return nil
}

// ValidateNonNegative rejects negative real-valued parameters such as the
// edge-exclusion margin.
func ValidateNonNegative(name string, v float64) error {
	if v < 0 {
		return New(ErrCodeInvalidParameter, "%s must not be negative, got %g", name, v)
	}
	return nil
}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be blank")
	}

	return nil
}
