package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptySlug is returned when a slug is empty.
	ErrEmptySlug = errors.New("slug cannot be empty")

	// ErrInvalidSlug is returned when a slug contains characters outside
	// lowercase letters, digits, and hyphens.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrEmptyName is returned when a display name is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrNameTooLong is returned when a display name exceeds the limit.
	ErrNameTooLong = errors.New("name exceeds maximum length")
)

// ValidateSlug checks a page or todo slug: lowercase letters, digits, and
// hyphens, not starting or ending with a hyphen.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrEmptySlug
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	for _, r := range slug {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			continue
		}
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// ValidateName checks a display name against a rune-length limit.
func ValidateName(name string, maxLength int) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if count := utf8.RuneCountInString(trimmed); count > maxLength {
		return fmt.Errorf("%w: %d > %d", ErrNameTooLong, count, maxLength)
	}
	return nil
}
