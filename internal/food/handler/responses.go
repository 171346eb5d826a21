package handler

import (
	"time"

	"nutri/internal/food/models"
)

// TimestampLayout renders timestamps in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FoodResponse is the stable wire shape of a Food.
type FoodResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein"`
	Carbs     float64 `json:"carbs"`
	Fat       float64 `json:"fat"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func ToResponse(f models.Food) FoodResponse {
	return FoodResponse{
		ID:        f.ID().String(),
		Name:      f.Name(),
		Calories:  f.Calories(),
		Protein:   f.Protein(),
		Carbs:     f.Carbs(),
		Fat:       f.Fat(),
		CreatedAt: formatTimestamp(f.CreatedAt()),
		UpdatedAt: formatTimestamp(f.UpdatedAt()),
	}
}

// ToResponseList maps foods in order. It never returns nil so an empty list
// encodes as [].
func ToResponseList(foods []models.Food) []FoodResponse {
	out := make([]FoodResponse, 0, len(foods))
	for _, f := range foods {
		out = append(out, ToResponse(f))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
