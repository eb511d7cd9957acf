// Package idgen produces identifiers for accounts, transactions and slug
// suffixes.
package idgen

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs. IDs made within one process are
// strictly increasing.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// UUIDGenerator generates random (version 4) UUIDs in canonical form.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate generates a new UUID.
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// HexSuffixSource yields random lowercase hex suffixes of a fixed length.
type HexSuffixSource struct {
	length int
}

// NewHexSuffixSource creates a suffix source; length is capped at 32.
func NewHexSuffixSource(length int) *HexSuffixSource {
	return &HexSuffixSource{length: min(max(length, 1), 32)}
}

// Suffix returns the next suffix.
func (s *HexSuffixSource) Suffix() string {
	id := uuid.New()

	return strings.ReplaceAll(id.String(), "-", "")[:s.length]
}
