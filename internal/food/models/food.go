package models

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	id "nutri/pkg/domain"
	dErrors "nutri/pkg/domain-errors"
)

// MaxNameLength bounds Food names, in characters.
const MaxNameLength = 128

// TimestampPrecision is the resolution timestamps are kept at. It matches
// what every backing store can round-trip.
const TimestampPrecision = time.Microsecond

// Macros holds the nutritional quantities of a Food.
type Macros struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

func (m Macros) validate() error {
	for _, v := range []struct {
		field string
		value float64
	}{
		{"calories", m.Calories},
		{"protein", m.Protein},
		{"carbs", m.Carbs},
		{"fat", m.Fat},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return dErrors.New(dErrors.CodeInvariantViolation, v.field+" must be a finite number")
		}
		if v.value < 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, v.field+" cannot be negative")
		}
	}
	return nil
}

// Food is one nutritional record.
//
// Invariants:
//   - ID is non-empty and never changes
//   - Name is non-blank and at most MaxNameLength characters
//   - Calories, Protein, Carbs and Fat are finite and non-negative
//   - CreatedAt never changes; UpdatedAt equals CreatedAt until the first
//     update and is strictly after it afterwards
//
// Food is an immutable value: fields are only reachable through accessors and
// Apply returns a new Food.
type Food struct {
	id        id.FoodID
	name      string
	macros    Macros
	createdAt time.Time
	updatedAt time.Time
}

// NewFood validates and stamps a brand-new Food with createdAt == updatedAt == now.
func NewFood(foodID id.FoodID, name string, macros Macros, now time.Time) (Food, error) {
	if foodID.IsZero() {
		return Food{}, dErrors.New(dErrors.CodeInvariantViolation, "food id cannot be empty")
	}
	if err := validateName(name); err != nil {
		return Food{}, err
	}
	if err := macros.validate(); err != nil {
		return Food{}, err
	}
	stamp := normalizeTime(now)
	return Food{
		id:        foodID,
		name:      name,
		macros:    macros,
		createdAt: stamp,
		updatedAt: stamp,
	}, nil
}

// RestoreFood rebuilds a Food read back from storage. Field invariants are
// re-checked; timestamps are taken as stored.
func RestoreFood(foodID id.FoodID, name string, macros Macros, createdAt, updatedAt time.Time) (Food, error) {
	f, err := NewFood(foodID, name, macros, createdAt)
	if err != nil {
		return Food{}, err
	}
	updatedAt = normalizeTime(updatedAt)
	if updatedAt.Before(f.createdAt) {
		return Food{}, dErrors.New(dErrors.CodeInvariantViolation, "updated_at cannot precede created_at")
	}
	f.updatedAt = updatedAt
	return f, nil
}

func (f Food) ID() id.FoodID        { return f.id }
func (f Food) Name() string         { return f.name }
func (f Food) Macros() Macros       { return f.macros }
func (f Food) Calories() float64    { return f.macros.Calories }
func (f Food) Protein() float64     { return f.macros.Protein }
func (f Food) Carbs() float64       { return f.macros.Carbs }
func (f Food) Fat() float64         { return f.macros.Fat }
func (f Food) CreatedAt() time.Time { return f.createdAt }
func (f Food) UpdatedAt() time.Time { return f.updatedAt }

// IsZero reports whether f is the zero Food rather than a constructed one.
func (f Food) IsZero() bool { return f.id.IsZero() }

// FoodPatch lists the fields an update replaces. Nil fields are kept.
type FoodPatch struct {
	Name     *string
	Calories *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
}

// Apply returns a copy of f with patch applied and UpdatedAt refreshed. The
// new UpdatedAt is forced past the previous one when the clock has not moved,
// so an update is always observable.
func (f Food) Apply(patch FoodPatch, now time.Time) (Food, error) {
	next := f
	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return Food{}, err
		}
		next.name = *patch.Name
	}
	if patch.Calories != nil {
		next.macros.Calories = *patch.Calories
	}
	if patch.Protein != nil {
		next.macros.Protein = *patch.Protein
	}
	if patch.Carbs != nil {
		next.macros.Carbs = *patch.Carbs
	}
	if patch.Fat != nil {
		next.macros.Fat = *patch.Fat
	}
	if err := next.macros.validate(); err != nil {
		return Food{}, err
	}

	stamp := normalizeTime(now)
	if !stamp.After(f.updatedAt) {
		stamp = f.updatedAt.Add(TimestampPrecision)
	}
	next.updatedAt = stamp
	return next, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 128 characters or less")
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}
