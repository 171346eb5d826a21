// Package events describes the notifications emitted after Food writes and
// the publishers that deliver them.
package events

import (
	"context"
	"time"

	"nutri/internal/food/models"
)

// Type names a Food lifecycle event.
type Type string

const (
	TypeFoodCreated Type = "food.created"
	TypeFoodUpdated Type = "food.updated"
	TypeFoodDeleted Type = "food.deleted"
)

// Event is the wire payload of a Food lifecycle notification.
type Event struct {
	Type       Type      `json:"type"`
	FoodID     string    `json:"food_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromFood builds an event of type t describing f.
func FromFood(t Type, f models.Food, at time.Time) Event {
	return Event{
		Type:       t,
		FoodID:     f.ID().String(),
		Name:       f.Name(),
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
