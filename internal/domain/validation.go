package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation constants
const (
	MaxAccountNameLength = 100
	MaxSlugLength        = 150
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateAccountName trims name and checks its length.
func ValidateAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return name, nil
}

// ValidateSlug checks a caller-supplied slug is already in normalized form.
func ValidateSlug(slug string) error {
	if len(slug) > MaxSlugLength || !slugPattern.MatchString(slug) || LooksLikeAccountID(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	return nil
}

// ParseAccountID canonicalizes a UUID account id.
func ParseAccountID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a UUID", ErrInvalidID, id)
	}

	return parsed.String(), nil
}

// LooksLikeAccountID reports whether key has the shape of an account id.
func LooksLikeAccountID(key string) bool {
	return uuid.Validate(key) == nil
}
