package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Repository,EventPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nutri/internal/food/events"
	"nutri/internal/food/metrics"
	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	dErrors "nutri/pkg/domain-errors"
	"nutri/pkg/platform/sentinel"
	"nutri/pkg/requestcontext"
	"nutri/pkg/result"
)

const (
	msgNameTaken = "Food with this name already exists"
	msgNotFound  = "Food not found"
)

// DefaultPublishTimeout bounds how long a use case waits on event delivery.
const DefaultPublishTimeout = 5 * time.Second

// Repository persists Food records. Lookups return (nil, nil) when nothing
// matches; writes report sentinel.ErrAlreadyUsed and sentinel.ErrNotFound.
type Repository interface {
	FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error)
	FindByName(ctx context.Context, name string) (*models.Food, error)
	FindAll(ctx context.Context) ([]models.Food, error)
	Save(ctx context.Context, food models.Food) (models.Food, error)
	Update(ctx context.Context, food models.Food) (models.Food, error)
	Delete(ctx context.Context, foodID id.FoodID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// FoodResult is the outcome of a use case returning a single Food.
type FoodResult = result.Result[models.Food, *dErrors.Error]

// Service runs the Food use cases. Every method returns a Result and never
// panics: collaborator panics become internal failures.
type Service struct {
	repo    Repository
	ids     id.IDGenerator
	names   models.NamePolicy
	events  EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time

	publishTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithIDGenerator(gen id.IDGenerator) Option {
	return func(s *Service) {
		s.ids = gen
	}
}

// WithClock overrides the request-scoped time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithNamePolicy must match the policy the repository indexes names with.
func WithNamePolicy(p models.NamePolicy) Option {
	return func(s *Service) {
		s.names = p
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithPublishTimeout caps each event delivery. Non-positive values keep the
// default.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		ids:    id.UUIDGenerator{},
		names:  models.NameExact,
		events: events.NopPublisher{},
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("nutri/internal/food/service"),

		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFood assigns a new id, builds the Food and stores it when its name is
// free. The name check is repeated by the store's unique index.
func (s *Service) CreateFood(ctx context.Context, req models.CreateFoodRequest) FoodResult {
	return run(ctx, s, "create", func(ctx context.Context) (models.Food, error) {
		req.Normalize()

		food, err := models.NewFood(s.ids.NewFoodID(), req.Name, req.Macros(), s.now(ctx))
		if err != nil {
			return models.Food{}, asValidation(err)
		}

		existing, err := s.repo.FindByName(ctx, food.Name())
		if err != nil {
			return models.Food{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up food by name")
		}
		if existing != nil {
			return models.Food{}, dErrors.New(dErrors.CodeConflict, msgNameTaken)
		}

		saved, err := s.repo.Save(ctx, food)
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return models.Food{}, dErrors.Wrap(err, dErrors.CodeConflict, msgNameTaken)
			}
			return models.Food{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save food")
		}

		s.metrics.IncrementFoodsCreated()
		s.publish(ctx, events.TypeFoodCreated, saved)
		return saved, nil
	})
}

func (s *Service) GetFood(ctx context.Context, foodID id.FoodID) FoodResult {
	return run(ctx, s, "get", func(ctx context.Context) (models.Food, error) {
		return s.load(ctx, foodID)
	})
}

// ListFoods returns every Food in insertion order. An empty store yields an
// empty, non-nil slice.
func (s *Service) ListFoods(ctx context.Context) result.Result[[]models.Food, *dErrors.Error] {
	return run(ctx, s, "list", func(ctx context.Context) ([]models.Food, error) {
		foods, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list foods")
		}
		if foods == nil {
			foods = []models.Food{}
		}
		return foods, nil
	})
}

// UpdateFood applies a partial update. A rename is checked against other
// foods under the configured name policy; renaming to a name that is the same
// under that policy skips the check.
func (s *Service) UpdateFood(ctx context.Context, foodID id.FoodID, req models.UpdateFoodRequest) FoodResult {
	return run(ctx, s, "update", func(ctx context.Context) (models.Food, error) {
		req.Normalize()
		if err := req.Validate(); err != nil {
			return models.Food{}, err
		}

		current, err := s.load(ctx, foodID)
		if err != nil {
			return models.Food{}, err
		}

		next, err := current.Apply(req.Patch(), s.now(ctx))
		if err != nil {
			return models.Food{}, asValidation(err)
		}

		if req.Name != nil && !s.names.Same(current.Name(), next.Name()) {
			existing, err := s.repo.FindByName(ctx, next.Name())
			if err != nil {
				return models.Food{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up food by name")
			}
			if existing != nil && existing.ID() != current.ID() {
				return models.Food{}, dErrors.New(dErrors.CodeConflict, msgNameTaken)
			}
		}

		updated, err := s.repo.Update(ctx, next)
		if err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return models.Food{}, dErrors.Wrap(err, dErrors.CodeNotFound, msgNotFound)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return models.Food{}, dErrors.Wrap(err, dErrors.CodeConflict, msgNameTaken)
			}
			return models.Food{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update food")
		}

		s.publish(ctx, events.TypeFoodUpdated, updated)
		return updated, nil
	})
}

// DeleteFood removes a Food permanently.
func (s *Service) DeleteFood(ctx context.Context, foodID id.FoodID) result.Result[struct{}, *dErrors.Error] {
	return run(ctx, s, "delete", func(ctx context.Context) (struct{}, error) {
		current, err := s.load(ctx, foodID)
		if err != nil {
			return struct{}{}, err
		}

		if err := s.repo.Delete(ctx, foodID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return struct{}{}, dErrors.Wrap(err, dErrors.CodeNotFound, msgNotFound)
			}
			return struct{}{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete food")
		}

		s.publish(ctx, events.TypeFoodDeleted, current)
		return struct{}{}, nil
	})
}

func (s *Service) load(ctx context.Context, foodID id.FoodID) (models.Food, error) {
	food, err := s.repo.FindByID(ctx, foodID)
	if err != nil {
		return models.Food{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load food")
	}
	if food == nil {
		return models.Food{}, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	return *food, nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

// publish is fire-and-forget: the write already happened, so delivery
// problems are only logged. Delivery runs on a context detached from the
// caller's cancellation so a client disconnect cannot drop the event, and
// is bounded by publishTimeout so a dead broker cannot hold the request.
func (s *Service) publish(ctx context.Context, t events.Type, food models.Food) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "food event publisher panicked",
				"event_type", t,
				"food_id", food.ID().String(),
				"panic", r,
			)
		}
	}()
	if err := s.events.Publish(ctx, events.FromFood(t, food, s.now(ctx))); err != nil {
		s.logger.WarnContext(ctx, "failed to publish food event",
			"event_type", t,
			"food_id", food.ID().String(),
			"error", err,
		)
	}
}

// asValidation reports entity invariant violations as request validation
// failures.
func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return err
}

// run wraps a use case with tracing, metrics, panic recovery and error
// normalization.
func run[T any](ctx context.Context, s *Service, op string, fn func(ctx context.Context) (T, error)) (res result.Result[T, *dErrors.Error]) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "food."+op, trace.WithAttributes(
		attribute.String("request_id", requestcontext.RequestID(ctx)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "food use case panicked",
				"operation", op,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			res = result.Failure[T](dErrors.Wrap(fmt.Errorf("panic: %v", r), dErrors.CodeInternal, "unexpected error"))
		}

		outcome := "ok"
		if res.IsFailure() {
			de := res.Err()
			outcome = string(de.Code)
			span.SetStatus(codes.Error, de.Message)
			if de.Code == dErrors.CodeInternal {
				span.RecordError(de)
				s.logger.ErrorContext(ctx, "food use case failed",
					"operation", op,
					"request_id", requestcontext.RequestID(ctx),
					"error", de.Message,
					"cause", errors.Unwrap(de),
				)
			}
		}
		s.metrics.ObserveUseCase(op, outcome, start)
	}()

	v, err := fn(ctx)
	if err != nil {
		return result.Failure[T](dErrors.From(err))
	}
	return result.Success[T, *dErrors.Error](v)
}
