package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "nutri/pkg/domain-errors"
)

// MaxIDLength bounds identifiers accepted at trust boundaries.
const MaxIDLength = 64

// FoodID identifies a Food record. It is opaque to callers: generated ids are
// UUID strings, but parsing only enforces a safe character set and length.
type FoodID string

func (id FoodID) String() string { return string(id) }

func (id FoodID) IsZero() bool { return id == "" }

// ParseFoodID validates an identifier received from outside the process.
func ParseFoodID(s string) (FoodID, error) {
	if err := validateOpaqueID(s); err != nil {
		return "", err
	}
	return FoodID(s), nil
}

func validateOpaqueID(s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	if len(s) > MaxIDLength {
		return dErrors.New(dErrors.CodeBadRequest, "id is too long")
	}
	if strings.IndexFunc(s, func(r rune) bool { return !isIDRune(r) }) >= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "id contains invalid characters")
	}
	return nil
}

func isIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

// IDGenerator produces identifiers for new records. Uniqueness is
// probabilistic; it is never checked against stored records.
type IDGenerator interface {
	NewFoodID() FoodID
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() FoodID

func (f IDGeneratorFunc) NewFoodID() FoodID { return f() }

// UUIDGenerator issues time-ordered UUIDv7 identifiers, falling back to a
// random v4 if the v7 source fails.
type UUIDGenerator struct{}

func (UUIDGenerator) NewFoodID() FoodID {
	u, err := uuid.NewV7()
	if err != nil {
		return FoodID(uuid.NewString())
	}
	return FoodID(u.String())
}
