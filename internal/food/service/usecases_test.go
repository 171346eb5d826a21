package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nutri/internal/food/models"
	"nutri/internal/food/service"
	"nutri/internal/food/store/food"
	dErrors "nutri/pkg/domain-errors"
	"nutri/pkg/requestcontext"
)

// UseCaseSuite drives the use cases against the in-memory store to check
// the properties that only show up across several calls.
type UseCaseSuite struct {
	suite.Suite
	ctx     context.Context
	store   *food.InMemory
	service *service.Service
}

func TestUseCaseSuite(t *testing.T) {
	suite.Run(t, new(UseCaseSuite))
}

func (s *UseCaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = food.NewInMemory()
	s.service = service.New(s.store)
}

func (s *UseCaseSuite) create(name string, calories float64) models.Food {
	res := s.service.CreateFood(s.ctx, models.CreateFoodRequest{Name: name, Calories: calories, Protein: 1, Carbs: 2, Fat: 3})
	s.Require().True(res.IsSuccess(), "create %s: %v", name, res.Err())
	return res.Value()
}

func (s *UseCaseSuite) TestCreateAppleAssignsGeneratedID() {
	res := s.service.CreateFood(s.ctx, models.CreateFoodRequest{
		Name: "Apple", Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2,
	})

	s.Require().True(res.IsSuccess())
	apple := res.Value()
	s.False(apple.ID().IsZero())
	s.Equal("Apple", apple.Name())
	s.Equal(52.0, apple.Calories())
	s.Equal(0.3, apple.Protein())
	s.Equal(14.0, apple.Carbs())
	s.Equal(0.2, apple.Fat())
	s.Equal(apple.CreatedAt(), apple.UpdatedAt())
}

func (s *UseCaseSuite) TestDuplicateNameIsRejectedWhateverTheMacros() {
	s.create("Apple", 52)

	for _, calories := range []float64{52, 0, 1000} {
		res := s.service.CreateFood(s.ctx, models.CreateFoodRequest{Name: "Apple", Calories: calories})
		s.Require().True(res.IsFailure())
		s.Equal(dErrors.CodeConflict, res.Err().Code)
		s.Equal("Food with this name already exists", res.Err().Message)
	}

	list := s.service.ListFoods(s.ctx)
	s.Len(list.Value(), 1)
}

func (s *UseCaseSuite) TestUpdateChangesOnlySuppliedFields() {
	banana := s.create("Banana", 89)
	calories := 100.0

	upd := s.service.UpdateFood(s.ctx, banana.ID(), models.UpdateFoodRequest{Calories: &calories})
	s.Require().True(upd.IsSuccess())

	got := s.service.GetFood(s.ctx, banana.ID())
	s.Require().True(got.IsSuccess())
	after := got.Value()
	s.Equal(100.0, after.Calories())
	s.Equal(banana.ID(), after.ID())
	s.Equal(banana.Name(), after.Name())
	s.Equal(banana.Protein(), after.Protein())
	s.Equal(banana.Carbs(), after.Carbs())
	s.Equal(banana.Fat(), after.Fat())
	s.Equal(banana.CreatedAt(), after.CreatedAt())
	s.True(after.UpdatedAt().After(after.CreatedAt()))
}

func (s *UseCaseSuite) TestUpdateWithFrozenClockStillAdvancesUpdatedAt() {
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, frozen)

	created := s.service.CreateFood(ctx, models.CreateFoodRequest{Name: "Rice", Calories: 130})
	s.Require().True(created.IsSuccess())
	rice := created.Value()

	first := s.service.UpdateFood(ctx, rice.ID(), models.UpdateFoodRequest{})
	s.Require().True(first.IsSuccess())
	second := s.service.UpdateFood(ctx, rice.ID(), models.UpdateFoodRequest{})
	s.Require().True(second.IsSuccess())

	s.Equal(frozen, rice.CreatedAt())
	s.True(first.Value().UpdatedAt().After(rice.CreatedAt()))
	s.True(second.Value().UpdatedAt().After(first.Value().UpdatedAt()))
	s.Equal(rice.CreatedAt(), second.Value().CreatedAt())
}

func (s *UseCaseSuite) TestDeleteThenGetIsNotFound() {
	pear := s.create("Pear", 57)

	del := s.service.DeleteFood(s.ctx, pear.ID())
	s.Require().True(del.IsSuccess())

	got := s.service.GetFood(s.ctx, pear.ID())
	s.Require().True(got.IsFailure())
	s.Equal(dErrors.CodeNotFound, got.Err().Code)
}

func (s *UseCaseSuite) TestReadsAreIdempotent() {
	oats := s.create("Oats", 389)

	first := s.service.GetFood(s.ctx, oats.ID())
	second := s.service.GetFood(s.ctx, oats.ID())

	s.Require().True(first.IsSuccess())
	s.Equal(first.Value(), second.Value())
	s.Equal(oats, first.Value())
}

func (s *UseCaseSuite) TestMissingIDFailsEverywhereWithoutMutation() {
	s.create("Kiwi", 61)
	before := s.service.ListFoods(s.ctx).Value()
	calories := 1.0

	get := s.service.GetFood(s.ctx, "missing")
	upd := s.service.UpdateFood(s.ctx, "missing", models.UpdateFoodRequest{Calories: &calories})
	del := s.service.DeleteFood(s.ctx, "missing")

	s.Equal(dErrors.CodeNotFound, get.Err().Code)
	s.Equal(dErrors.CodeNotFound, upd.Err().Code)
	s.Equal(dErrors.CodeNotFound, del.Err().Code)
	s.Equal(before, s.service.ListFoods(s.ctx).Value())
}

func (s *UseCaseSuite) TestListPreservesCreationOrder() {
	var want []string
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("Food %d", i)
		s.create(name, float64(i))
		want = append(want, name)
	}

	var got []string
	for _, f := range s.service.ListFoods(s.ctx).Value() {
		got = append(got, f.Name())
	}
	s.Equal(want, got)
}

func (s *UseCaseSuite) TestConcurrentCreatesOfOneNameAdmitExactlyOne() {
	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.service.CreateFood(s.ctx, models.CreateFoodRequest{Name: "Honey", Calories: 304})
			mu.Lock()
			defer mu.Unlock()
			if res.IsSuccess() {
				successes++
			} else if res.Err().Code == dErrors.CodeConflict {
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(callers-1, conflicts)
}

func (s *UseCaseSuite) TestCaseInsensitivePolicyAcrossServiceAndStore() {
	svc := service.New(
		food.NewInMemory(food.WithNamePolicy(models.NameCaseInsensitive)),
		service.WithNamePolicy(models.NameCaseInsensitive),
	)
	first := svc.CreateFood(s.ctx, models.CreateFoodRequest{Name: "Apple"})
	s.Require().True(first.IsSuccess())

	dup := svc.CreateFood(s.ctx, models.CreateFoodRequest{Name: "APPLE"})
	s.Require().True(dup.IsFailure())
	s.Equal(dErrors.CodeConflict, dup.Err().Code)
}
