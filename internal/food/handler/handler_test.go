package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"nutri/internal/food/models"
	"nutri/internal/food/service"
	"nutri/internal/food/store/food"
	id "nutri/pkg/domain"
	dErrors "nutri/pkg/domain-errors"
	"nutri/pkg/result"
	"nutri/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
	now    time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2025, 2, 3, 4, 5, 6, 789000000, time.UTC)
	svc := service.New(food.NewInMemory(), service.WithClock(func() time.Time { return s.now }))
	s.router = chi.NewRouter()
	New(svc, nil).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) FoodResponse {
	rr := testutil.DoRequest(s.router, req)
	s.Require().Less(rr.Code, 300, "body: %s", rr.Body.String())
	return testutil.DecodeJSON[FoodResponse](s.T(), rr)
}

func (s *HandlerSuite) createApple() FoodResponse {
	return s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/foods", map[string]any{
		"name": "Apple", "calories": 52, "protein": 0.3, "carbs": 14, "fat": 0.2,
	}))
}

func (s *HandlerSuite) TestCreate() {
	s.Run("returns 201 with the stored food", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/foods", map[string]any{
			"name": "Apple", "calories": 52, "protein": 0.3, "carbs": 14, "fat": 0.2,
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := testutil.DecodeJSON[FoodResponse](s.T(), rr)
		s.NotEmpty(body.ID)
		s.Equal("Apple", body.Name)
		s.Equal(0.3, body.Protein)
		s.Equal("2025-02-03T04:05:06.789Z", body.CreatedAt)
		s.Equal(body.CreatedAt, body.UpdatedAt)
	})

	s.Run("duplicate name is 409", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/foods", map[string]any{
			"name": "Apple", "calories": 1, "protein": 1, "carbs": 1, "fat": 1,
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("missing field is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/foods", map[string]any{
			"name": "Pear", "calories": 57, "protein": 0.4, "carbs": 15,
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		body := testutil.DecodeError(s.T(), rr)
		s.Equal("validation_error", body["error"])
		s.Equal("fat is required", body["error_description"])
	})

	s.Run("negative macro is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/foods", map[string]any{
			"name": "Pear", "calories": -1, "protein": 0, "carbs": 0, "fat": 0,
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed JSON is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRawRequest(s.T(), http.MethodPost, "/foods", `{"name":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown field is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRawRequest(s.T(), http.MethodPost, "/foods",
			`{"name":"Fig","calories":1,"protein":1,"carbs":1,"fat":1,"sugar":9}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestGetAndList() {
	apple := s.createApple()

	got := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/foods/"+apple.ID, nil))
	s.Equal(apple, got)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/foods", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	list := testutil.DecodeJSON[[]FoodResponse](s.T(), rr)
	s.Equal([]FoodResponse{apple}, list)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/foods/missing", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/foods/bad%20id", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestEmptyListEncodesAsArray() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/foods", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("[]", strings.TrimSpace(rr.Body.String()))
}

func (s *HandlerSuite) TestUpdate() {
	apple := s.createApple()
	s.now = s.now.Add(time.Second)

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		s.Run(method+" changes only supplied fields", func() {
			updated := s.do(testutil.NewJSONRequest(s.T(), method, "/foods/"+apple.ID, map[string]any{"calories": 100}))
			s.Equal(100.0, updated.Calories)
			s.Equal(apple.Name, updated.Name)
			s.Equal(apple.Fat, updated.Fat)
			s.Equal(apple.CreatedAt, updated.CreatedAt)
			s.Equal("2025-02-03T04:05:07.789Z", updated.UpdatedAt)
		})
	}

	s.Run("empty name is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, "/foods/"+apple.ID, map[string]any{"name": ""}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing food is 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, "/foods/missing", map[string]any{"fat": 1}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestDelete() {
	apple := s.createApple()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/foods/"+apple.ID, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	s.Empty(rr.Body.String())

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/foods/"+apple.ID, nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

// failingService reports an internal failure from every use case.
type failingService struct{}

func internal[T any]() result.Result[T, *dErrors.Error] {
	return result.Failure[T](dErrors.New(dErrors.CodeInternal, "failed to list foods"))
}

func (failingService) CreateFood(context.Context, models.CreateFoodRequest) result.Result[models.Food, *dErrors.Error] {
	return internal[models.Food]()
}
func (failingService) GetFood(context.Context, id.FoodID) result.Result[models.Food, *dErrors.Error] {
	return internal[models.Food]()
}
func (failingService) ListFoods(context.Context) result.Result[[]models.Food, *dErrors.Error] {
	return internal[[]models.Food]()
}
func (failingService) UpdateFood(context.Context, id.FoodID, models.UpdateFoodRequest) result.Result[models.Food, *dErrors.Error] {
	return internal[models.Food]()
}
func (failingService) DeleteFood(context.Context, id.FoodID) result.Result[struct{}, *dErrors.Error] {
	return internal[struct{}]()
}

func TestInternalFailuresHideDetails(t *testing.T) {
	router := chi.NewRouter()
	New(failingService{}, nil).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/foods", nil))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	body := testutil.DecodeError(t, rr)
	if body["error"] != "internal_error" {
		t.Fatalf("expected internal_error, got %q", body["error"])
	}
	if _, ok := body["error_description"]; ok {
		t.Fatalf("internal errors must not carry a description")
	}
}

func TestInternalFailuresAreLoggedWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	New(failingService{}, slog.New(slog.NewJSONHandler(&buf, nil))).Register(router)

	req := testutil.WithRequestID(testutil.NewJSONRequest(t, http.MethodGet, "/foods", nil), "req-9")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	if !strings.Contains(buf.String(), `"request_id":"req-9"`) {
		t.Fatalf("expected request id in log, got %s", buf.String())
	}
}

func TestTimestampsFollowTheRequestClock(t *testing.T) {
	router := chi.NewRouter()
	New(service.New(food.NewInMemory()), nil).Register(router)
	pinned := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)

	req := testutil.WithRequestTime(testutil.NewJSONRequest(t, http.MethodPost, "/foods", map[string]any{
		"name": "Kiwi", "calories": 61, "protein": 1.1, "carbs": 15, "fat": 0.5,
	}), pinned)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	body := testutil.DecodeJSON[FoodResponse](t, rr)
	if body.CreatedAt != "2025-06-07T08:09:10.000Z" || body.UpdatedAt != body.CreatedAt {
		t.Fatalf("unexpected timestamps %q / %q", body.CreatedAt, body.UpdatedAt)
	}
}

func TestEveryRouteWritesFailureEnvelope(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	New(failingService{}, slog.New(slog.NewJSONHandler(&buf, nil))).Register(router)
	body := map[string]any{"name": "Apple", "calories": 52, "protein": 0.3, "carbs": 14, "fat": 0.2}

	for _, req := range []*http.Request{
		testutil.NewJSONRequest(t, http.MethodPost, "/foods", body),
		testutil.NewJSONRequest(t, http.MethodGet, "/foods", nil),
		testutil.NewJSONRequest(t, http.MethodGet, "/foods/food-1", nil),
		testutil.NewJSONRequest(t, http.MethodPut, "/foods/food-1", body),
		testutil.NewJSONRequest(t, http.MethodDelete, "/foods/food-1", nil),
	} {
		t.Run(req.Method+" "+req.URL.Path, func(t *testing.T) {
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
		})
	}
	if strings.Contains(buf.String(), "food created") {
		t.Fatalf("failed create must not be logged as created: %s", buf.String())
	}
}

func TestCreateLogsNewFood(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	New(service.New(food.NewInMemory()), slog.New(slog.NewJSONHandler(&buf, nil))).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/foods", map[string]any{
		"name": "Kiwi", "calories": 61, "protein": 1.1, "carbs": 15, "fat": 0.5,
	}))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.DecodeJSON[FoodResponse](t, rr)
	if !strings.Contains(buf.String(), `"food_id":"`+created.ID+`"`) {
		t.Fatalf("expected food id in log, got %s", buf.String())
	}
}
