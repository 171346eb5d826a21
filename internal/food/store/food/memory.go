package food

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	"nutri/pkg/platform/sentinel"
)

// InMemory is a thread-safe Food store. Foods are kept in insertion order and
// indexed by name key under the same lock, so Save and Update are atomic with
// respect to name uniqueness.
type InMemory struct {
	mu     sync.RWMutex
	foods  map[id.FoodID]models.Food
	order  []id.FoodID
	byName map[string]id.FoodID
	names  models.NamePolicy
}

func NewInMemory(opts ...Option) *InMemory {
	o := buildOptions(opts)
	return &InMemory{
		foods:  make(map[id.FoodID]models.Food),
		byName: make(map[string]id.FoodID),
		names:  o.names,
	}
}

func (s *InMemory) FindByID(_ context.Context, foodID id.FoodID) (*models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.foods[foodID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	foodID, ok := s.byName[s.names.Key(name)]
	if !ok {
		return nil, nil
	}
	f := s.foods[foodID]
	return &f, nil
}

func (s *InMemory) FindAll(_ context.Context) ([]models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Food, 0, len(s.order))
	for _, foodID := range s.order {
		out = append(out, s.foods[foodID])
	}
	return out, nil
}

func (s *InMemory) Save(_ context.Context, f models.Food) (models.Food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.foods[f.ID()]; ok {
		return models.Food{}, fmt.Errorf("food id %s: %w", f.ID(), sentinel.ErrAlreadyUsed)
	}
	key := s.names.Key(f.Name())
	if _, ok := s.byName[key]; ok {
		return models.Food{}, fmt.Errorf("food name %q: %w", f.Name(), sentinel.ErrAlreadyUsed)
	}
	s.foods[f.ID()] = f
	s.byName[key] = f.ID()
	s.order = append(s.order, f.ID())
	return f, nil
}

func (s *InMemory) Update(_ context.Context, f models.Food) (models.Food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.foods[f.ID()]
	if !ok {
		return models.Food{}, fmt.Errorf("food %s: %w", f.ID(), sentinel.ErrNotFound)
	}
	oldKey := s.names.Key(current.Name())
	newKey := s.names.Key(f.Name())
	if owner, taken := s.byName[newKey]; taken && owner != f.ID() {
		return models.Food{}, fmt.Errorf("food name %q: %w", f.Name(), sentinel.ErrAlreadyUsed)
	}
	delete(s.byName, oldKey)
	s.byName[newKey] = f.ID()
	s.foods[f.ID()] = f
	return f, nil
}

func (s *InMemory) Delete(_ context.Context, foodID id.FoodID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.foods[foodID]
	if !ok {
		return fmt.Errorf("food %s: %w", foodID, sentinel.ErrNotFound)
	}
	delete(s.foods, foodID)
	delete(s.byName, s.names.Key(current.Name()))
	s.order = slices.DeleteFunc(s.order, func(other id.FoodID) bool { return other == foodID })
	return nil
}
