package food

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	"nutri/pkg/platform/sentinel"
)

// repository is the behaviour every store shares.
type repository interface {
	FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error)
	FindByName(ctx context.Context, name string) (*models.Food, error)
	FindAll(ctx context.Context) ([]models.Food, error)
	Save(ctx context.Context, food models.Food) (models.Food, error)
	Update(ctx context.Context, food models.Food) (models.Food, error)
	Delete(ctx context.Context, foodID id.FoodID) error
}

// RepositorySuite runs the same behavioural checks against each store.
type RepositorySuite struct {
	suite.Suite
	newStore func(opts ...Option) repository
	store    repository
	ctx      context.Context
	seq      int
}

func (s *RepositorySuite) SetupTest() {
	s.store = s.newStore()
	s.ctx = context.Background()
}

func (s *RepositorySuite) newFood(name string) models.Food {
	s.seq++
	f, err := models.NewFood(
		id.FoodID(fmt.Sprintf("food-%d", s.seq)),
		name,
		models.Macros{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2},
		time.Date(2025, 3, 1, 12, 0, s.seq, 123456000, time.UTC),
	)
	s.Require().NoError(err)
	return f
}

func (s *RepositorySuite) TestSaveAndFind() {
	apple := s.newFood("Apple")
	saved, err := s.store.Save(s.ctx, apple)
	s.Require().NoError(err)
	s.Equal(apple, saved)

	s.Run("by id", func() {
		got, err := s.store.FindByID(s.ctx, apple.ID())
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Equal(apple, *got)
	})

	s.Run("by name", func() {
		got, err := s.store.FindByName(s.ctx, "Apple")
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Equal(apple.ID(), got.ID())
	})

	s.Run("absent id is nil without error", func() {
		got, err := s.store.FindByID(s.ctx, "missing")
		s.Require().NoError(err)
		s.Nil(got)
	})

	s.Run("absent name is nil without error", func() {
		got, err := s.store.FindByName(s.ctx, "Banana")
		s.Require().NoError(err)
		s.Nil(got)
	})

	s.Run("exact policy is case sensitive", func() {
		got, err := s.store.FindByName(s.ctx, "apple")
		s.Require().NoError(err)
		s.Nil(got)
	})
}

func (s *RepositorySuite) TestSaveRejectsDuplicates() {
	apple := s.newFood("Apple")
	_, err := s.store.Save(s.ctx, apple)
	s.Require().NoError(err)

	s.Run("same name", func() {
		_, err := s.store.Save(s.ctx, s.newFood("Apple"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("same id", func() {
		_, err := s.store.Save(s.ctx, apple)
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *RepositorySuite) TestFindAllKeepsInsertionOrder() {
	empty, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)

	var want []id.FoodID
	for _, name := range []string{"Oats", "Banana", "Apple"} {
		f := s.newFood(name)
		_, err := s.store.Save(s.ctx, f)
		s.Require().NoError(err)
		want = append(want, f.ID())
	}

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	var got []id.FoodID
	for _, f := range all {
		got = append(got, f.ID())
	}
	s.Equal(want, got)
}

func (s *RepositorySuite) TestUpdate() {
	apple := s.newFood("Apple")
	_, err := s.store.Save(s.ctx, apple)
	s.Require().NoError(err)
	banana := s.newFood("Banana")
	_, err = s.store.Save(s.ctx, banana)
	s.Require().NoError(err)

	s.Run("replaces fields and frees the old name", func() {
		name := "Green Apple"
		cal := 60.0
		next, err := apple.Apply(models.FoodPatch{Name: &name, Calories: &cal}, apple.CreatedAt().Add(time.Minute))
		s.Require().NoError(err)

		updated, err := s.store.Update(s.ctx, next)
		s.Require().NoError(err)
		s.Equal(next, updated)

		got, err := s.store.FindByID(s.ctx, apple.ID())
		s.Require().NoError(err)
		s.Equal(next, *got)

		old, err := s.store.FindByName(s.ctx, "Apple")
		s.Require().NoError(err)
		s.Nil(old)

		_, err = s.store.Save(s.ctx, s.newFood("Apple"))
		s.NoError(err)
	})

	s.Run("rejects another food's name", func() {
		name := "Banana"
		current, err := s.store.FindByID(s.ctx, apple.ID())
		s.Require().NoError(err)
		next, err := current.Apply(models.FoodPatch{Name: &name}, time.Now())
		s.Require().NoError(err)

		_, err = s.store.Update(s.ctx, next)
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("missing food", func() {
		ghost := s.newFood("Ghost")
		_, err := s.store.Update(s.ctx, ghost)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RepositorySuite) TestDelete() {
	apple := s.newFood("Apple")
	_, err := s.store.Save(s.ctx, apple)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, apple.ID()))

	got, err := s.store.FindByID(s.ctx, apple.ID())
	s.Require().NoError(err)
	s.Nil(got)

	s.ErrorIs(s.store.Delete(s.ctx, apple.ID()), sentinel.ErrNotFound)

	_, err = s.store.Save(s.ctx, s.newFood("Apple"))
	s.NoError(err, "deleted name is reusable")
}

func (s *RepositorySuite) TestCaseInsensitivePolicy() {
	store := s.newStore(WithNamePolicy(models.NameCaseInsensitive))
	_, err := store.Save(s.ctx, s.newFood("Apple"))
	s.Require().NoError(err)

	got, err := store.FindByName(s.ctx, "  APPLE ")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Apple", got.Name())

	_, err = store.Save(s.ctx, s.newFood("apple"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *RepositorySuite) TestConcurrentSavesOfSameNameAdmitOne() {
	const writers = 8
	foods := make([]models.Food, writers)
	for i := range foods {
		foods[i] = s.newFood("Porridge")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, f := range foods {
		wg.Add(1)
		go func(f models.Food) {
			defer wg.Done()
			if _, err := s.store.Save(s.ctx, f); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(f)
	}
	wg.Wait()

	s.Equal(1, successes)
}
