package usecase

import (
	"context"
	"fmt"

	"github.com/iho/acctledger/internal/domain"
)

// SlugPredicate reports whether a candidate slug is already taken.
type SlugPredicate func(ctx context.Context, slug string) (bool, error)

// SlugGenerator derives unique slugs from display names.
type SlugGenerator struct {
	suffixes    SuffixSource
	maxAttempts int
}

// NewSlugGenerator creates a new SlugGenerator.
func NewSlugGenerator(suffixes SuffixSource) *SlugGenerator {
	return &SlugGenerator{
		suffixes:    suffixes,
		maxAttempts: MaxSlugAttempts,
	}
}

// Generate returns the base slug of name if it is free, otherwise the first
// free base-<suffix> candidate. Every candidate is checked with taken
// before it is returned. Candidates shaped like an account id count as
// taken, since lookups resolve those as ids.
func (g *SlugGenerator) Generate(ctx context.Context, name string, taken SlugPredicate) (string, error) {
	base := domain.Slugify(name)
	candidate := base

	for range g.maxAttempts {
		if !domain.LooksLikeAccountID(candidate) {
			isTaken, err := taken(ctx, candidate)
			if err != nil {
				return "", err
			}

			if !isTaken {
				return candidate, nil
			}
		}

		candidate = domain.SlugWithSuffix(base, g.suffixes.Suffix())
	}

	return "", fmt.Errorf("%w: no free slug for %q after %d candidates", domain.ErrDuplicateSlug, base, g.maxAttempts)
}
