package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// SlugSuffixLength is the number of hex characters appended to a taken
	// base slug.
	SlugSuffixLength = 8

	// fallbackSlug is used for names without any ASCII letter or digit.
	fallbackSlug = "account"

	maxSlugBaseLength = MaxSlugLength - SlugSuffixLength - 1
)

// Slugify derives the base slug of name: ASCII-transliterated, lowercase,
// runs of anything other than letters and digits collapsed to one hyphen,
// no leading or trailing hyphen.
func Slugify(name string) string {
	// transform.Chain is stateful and must not be shared between goroutines.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder

	gap := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}

			gap = false

			b.WriteRune(r)

			continue
		}

		gap = true
	}

	slug := b.String()
	if len(slug) > maxSlugBaseLength {
		slug = strings.TrimRight(slug[:maxSlugBaseLength], "-")
	}

	if slug == "" {
		return fallbackSlug
	}

	return slug
}

// SlugWithSuffix joins a base slug and a disambiguating suffix.
func SlugWithSuffix(base, suffix string) string {
	return base + "-" + suffix
}
