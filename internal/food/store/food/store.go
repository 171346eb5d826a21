// Package food holds the Food repositories: an in-memory map for development
// and tests, and SQL stores for PostgreSQL and SQLite.
//
// Every store keeps a name key derived from the configured NamePolicy under a
// unique constraint; that constraint, not the service's pre-check, is what
// guarantees name uniqueness under concurrent writes.
package food

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
)

// Option configures a store.
type Option func(*options)

type options struct {
	names models.NamePolicy
}

// WithNamePolicy selects how names collide. Defaults to models.NameExact.
func WithNamePolicy(p models.NamePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.names = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{names: models.NameExact}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

const foodColumns = `id, name, calories, protein, carbs, fat, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// row is the storage shape of a Food. Timestamps are scanned by the caller so
// SQLite can keep them as text.
type row struct {
	id        string
	name      string
	macros    models.Macros
	createdAt time.Time
	updatedAt time.Time
}

func (r row) toModel() (models.Food, error) {
	f, err := models.RestoreFood(id.FoodID(r.id), r.name, r.macros, r.createdAt, r.updatedAt)
	if err != nil {
		return models.Food{}, fmt.Errorf("restore food %s: %w", r.id, err)
	}
	return f, nil
}

func scanOne(fn func() (row, error)) (*models.Food, error) {
	r, err := fn()
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &f, nil
}
