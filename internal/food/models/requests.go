package models

import (
	"strings"

	dErrors "nutri/pkg/domain-errors"
)

// CreateFoodRequest carries the fields of a new Food. Presence of every field
// is checked by the transport; values are checked by NewFood.
type CreateFoodRequest struct {
	Name     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

func (r *CreateFoodRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r CreateFoodRequest) Macros() Macros {
	return Macros{Calories: r.Calories, Protein: r.Protein, Carbs: r.Carbs, Fat: r.Fat}
}

// UpdateFoodRequest is a partial update: only non-nil fields change.
type UpdateFoodRequest struct {
	Name     *string
	Calories *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
}

func (r *UpdateFoodRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
}

// Validate rejects updates that could never succeed, before any lookup.
func (r *UpdateFoodRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	for _, v := range []struct {
		field string
		value *float64
	}{
		{"calories", r.Calories},
		{"protein", r.Protein},
		{"carbs", r.Carbs},
		{"fat", r.Fat},
	} {
		if v.value != nil && *v.value < 0 {
			return dErrors.New(dErrors.CodeValidation, v.field+" cannot be negative")
		}
	}
	return nil
}

func (r UpdateFoodRequest) Patch() FoodPatch {
	return FoodPatch{
		Name:     r.Name,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
	}
}
