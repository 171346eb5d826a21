// Package cache decorates a food repository with a Redis read-through cache
// for lookups by id.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"nutri/internal/food/metrics"
	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	"nutri/pkg/platform/circuit"
)

const keyPrefix = "nutri:food:"

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// DefaultTombstoneTTL bounds how long a write blocks read fills for its key.
// It must outlast the slowest store read that can race the write.
const DefaultTombstoneTTL = 30 * time.Second

// tombstone marks a key written or deleted recently. Read fills use SETNX,
// so a read that loaded the row before the write cannot put it back.
const tombstone = "-"

// Store is the repository being cached.
type Store interface {
	FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error)
	FindByName(ctx context.Context, name string) (*models.Food, error)
	FindAll(ctx context.Context) ([]models.Food, error)
	Save(ctx context.Context, food models.Food) (models.Food, error)
	Update(ctx context.Context, food models.Food) (models.Food, error)
	Delete(ctx context.Context, foodID id.FoodID) error
}

// Repository caches FindByID results in Redis. Writes go to the wrapped
// store first and then tombstone the cached copy; reads refill it. Redis
// failures are logged and counted but never fail a call.
type Repository struct {
	next    Store
	client  redis.UniversalClient
	ttl     time.Duration
	tombTTL time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

type Option func(*Repository)

func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithTombstoneTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.tombTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// WithBreaker replaces the default breaker guarding Redis calls.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Repository) {
		if b != nil {
			r.breaker = b
		}
	}
}

func New(next Store, client redis.UniversalClient, opts ...Option) *Repository {
	r := &Repository{
		next:    next,
		client:  client,
		ttl:     DefaultTTL,
		tombTTL: DefaultTombstoneTTL,
		logger:  slog.New(slog.DiscardHandler),
	}
	r.breaker = circuit.New("food-cache")
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// snapshot is the cached JSON form of a Food.
type snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSnapshot(f models.Food) snapshot {
	return snapshot{
		ID:        f.ID().String(),
		Name:      f.Name(),
		Calories:  f.Calories(),
		Protein:   f.Protein(),
		Carbs:     f.Carbs(),
		Fat:       f.Fat(),
		CreatedAt: f.CreatedAt(),
		UpdatedAt: f.UpdatedAt(),
	}
}

func (s snapshot) toModel() (models.Food, error) {
	return models.RestoreFood(id.FoodID(s.ID),
		s.Name,
		models.Macros{Calories: s.Calories, Protein: s.Protein, Carbs: s.Carbs, Fat: s.Fat},
		s.CreatedAt, s.UpdatedAt)
}

func key(foodID id.FoodID) string {
	return keyPrefix + foodID.String()
}

func (r *Repository) FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error) {
	if f, ok := r.lookup(ctx, foodID); ok {
		return &f, nil
	}

	f, err := r.next.FindByID(ctx, foodID)
	if err != nil || f == nil {
		return f, err
	}
	r.fill(ctx, *f)
	return f, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.Food, error) {
	return r.next.FindByName(ctx, name)
}

func (r *Repository) FindAll(ctx context.Context) ([]models.Food, error) {
	return r.next.FindAll(ctx)
}

func (r *Repository) Save(ctx context.Context, f models.Food) (models.Food, error) {
	saved, err := r.next.Save(ctx, f)
	if err != nil {
		return saved, err
	}
	r.fill(ctx, saved)
	return saved, nil
}

func (r *Repository) Update(ctx context.Context, f models.Food) (models.Food, error) {
	updated, err := r.next.Update(ctx, f)
	r.invalidate(ctx, f.ID())
	return updated, err
}

func (r *Repository) Delete(ctx context.Context, foodID id.FoodID) error {
	err := r.next.Delete(ctx, foodID)
	r.invalidate(ctx, foodID)
	return err
}

func (r *Repository) lookup(ctx context.Context, foodID id.FoodID) (models.Food, bool) {
	if !r.breaker.Allow() {
		r.metrics.RecordCacheMiss()
		return models.Food{}, false
	}
	raw, err := r.client.Get(ctx, key(foodID)).Bytes()
	if errors.Is(err, redis.Nil) || (err == nil && string(raw) == tombstone) {
		r.recordSuccess(ctx)
		r.metrics.RecordCacheMiss()
		return models.Food{}, false
	}
	if err != nil {
		r.recordFailure(ctx)
		r.metrics.RecordCacheError()
		r.logger.WarnContext(ctx, "food cache read failed", "food_id", foodID.String(), "error", err)
		return models.Food{}, false
	}
	r.recordSuccess(ctx)

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		r.metrics.RecordCacheError()
		r.logger.WarnContext(ctx, "food cache entry is corrupt", "food_id", foodID.String(), "error", err)
		r.drop(ctx, foodID)
		return models.Food{}, false
	}
	f, err := snap.toModel()
	if err != nil {
		r.metrics.RecordCacheError()
		r.drop(ctx, foodID)
		return models.Food{}, false
	}
	r.metrics.RecordCacheHit()
	return f, true
}

// fill caches f unless the key is already present, tombstones included.
func (r *Repository) fill(ctx context.Context, f models.Food) {
	if !r.breaker.Allow() {
		return
	}
	raw, err := json.Marshal(toSnapshot(f))
	if err != nil {
		return
	}
	if err := r.client.SetNX(ctx, key(f.ID()), raw, r.ttl).Err(); err != nil {
		r.recordFailure(ctx)
		r.metrics.RecordCacheError()
		r.logger.WarnContext(ctx, "food cache write failed", "food_id", f.ID().String(), "error", err)
		return
	}
	r.recordSuccess(ctx)
}

// invalidate replaces the entry with a tombstone. It ignores the breaker:
// skipping it would leave a stale entry behind once Redis recovers.
func (r *Repository) invalidate(ctx context.Context, foodID id.FoodID) {
	if err := r.client.Set(ctx, key(foodID), tombstone, r.tombTTL).Err(); err != nil {
		r.recordFailure(ctx)
		r.metrics.RecordCacheError()
		r.logger.WarnContext(ctx, "food cache invalidation failed", "food_id", foodID.String(), "error", err)
		return
	}
	r.recordSuccess(ctx)
}

// drop removes an unreadable entry so the next read can refill it.
func (r *Repository) drop(ctx context.Context, foodID id.FoodID) {
	if err := r.client.Del(ctx, key(foodID)).Err(); err != nil {
		r.logger.WarnContext(ctx, "food cache cleanup failed", "food_id", foodID.String(), "error", err)
	}
}

func (r *Repository) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "food cache disabled after repeated redis failures", "breaker", r.breaker.Name())
	}
}

func (r *Repository) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "food cache re-enabled", "breaker", r.breaker.Name())
	}
}

// Ping passes through to the wrapped store when it supports health checks.
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
