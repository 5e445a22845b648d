package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers accepted from loaders.
const maxIDLength = 256

// ValidateID validates a node or edge identifier coming from an external
// document. kind is used in the message ("node", "edge").
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateID(op, kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, op, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, op, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, op, "%s id %q contains control characters", kind, id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, op, "%s id %q has surrounding whitespace", kind, id)
	}

	return nil
}

// ValidateUnit checks that v lies in the closed interval [0,1].
// Used for importance multipliers and blend factors.
func ValidateUnit(op, name string, v float64) error {
	if v < 0 || v > 1 || v != v {
		return Configuration(op, "%s must be within [0,1], got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that v is a finite, non-negative number.
func ValidateNonNegative(op, name string, v float64) error {
	if v < 0 || v != v {
		return Configuration(op, "%s must be non-negative, got %v", name, v)
	}
	return nil
}

// ValidatePositive checks that v is strictly positive.
func ValidatePositive(op, name string, v float64) error {
	if !(v > 0) {
		return Configuration(op, "%s must be positive, got %v", name, v)
	}
	return nil
}
