package handler

import (
	"nutri/internal/food/models"
	dErrors "nutri/pkg/domain-errors"
)

// CreateFoodRequest is the POST /foods body. Every field is required; the
// pointers tell a missing field apart from an explicit zero.
type CreateFoodRequest struct {
	Name     *string  `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

func (r *CreateFoodRequest) Validate() error {
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"name", r.Name != nil},
		{"calories", r.Calories != nil},
		{"protein", r.Protein != nil},
		{"carbs", r.Carbs != nil},
		{"fat", r.Fat != nil},
	} {
		if !f.present {
			return dErrors.New(dErrors.CodeValidation, f.name+" is required")
		}
	}
	return nil
}

// ToModel must only be called after Validate succeeds.
func (r *CreateFoodRequest) ToModel() models.CreateFoodRequest {
	return models.CreateFoodRequest{
		Name:     *r.Name,
		Calories: *r.Calories,
		Protein:  *r.Protein,
		Carbs:    *r.Carbs,
		Fat:      *r.Fat,
	}
}

// UpdateFoodRequest is the PUT/PATCH /foods/{id} body. Omitted or null
// fields keep their current value.
type UpdateFoodRequest struct {
	Name     *string  `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

// Validate accepts any shape; value rules live in the use case.
func (r *UpdateFoodRequest) Validate() error { return nil }

func (r *UpdateFoodRequest) ToModel() models.UpdateFoodRequest {
	return models.UpdateFoodRequest{
		Name:     r.Name,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
	}
}
